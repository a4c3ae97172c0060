package domain

import (
	"time"
)

// Schedule — расписание периодической синхронизации одного subject.
//
// На каждый subject существует ровно одна запись Schedule.
// Scheduler проверяет NextRunAt и запускает синхронизацию, когда время подошло.
// История ошибок (RetryCount, LastError) ведётся прямо в записи.
type Schedule struct {
	// SubjectID — стабильный идентификатор subject (внешняя система).
	SubjectID string `json:"subject_id"`

	// NextRunAt — время следующей попытки синхронизации.
	// После успеха: now + Interval. После ошибки: now + backoff(RetryCount).
	NextRunAt time.Time `json:"next_run_at"`

	// IntervalMin — интервал в минутах между успешными синхронизациями.
	// Всегда положительный.
	IntervalMin int `json:"interval_min"`

	// Priority — приоритет выборки в тике: high, normal, low.
	Priority Priority `json:"priority"`

	// RetryCount — счётчик подряд идущих неудачных попыток.
	// Сбрасывается в 0 при любом успехе.
	RetryCount int `json:"retry_count"`

	// LastError — сообщение последней ошибки. Пустое после успеха.
	LastError string `json:"last_error,omitempty"`

	// Enabled — флаг активности расписания.
	// Становится false только при достижении лимита ретраев.
	// Автоматически не восстанавливается — нужен явный внешний update.
	Enabled bool `json:"enabled"`

	// CreatedAt — время создания записи.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего изменения.
	UpdatedAt time.Time `json:"updated_at"`
}

// Interval возвращает интервал как time.Duration.
func (s *Schedule) Interval() time.Duration {
	return time.Duration(s.IntervalMin) * time.Minute
}

// IsDue проверяет, пора ли синхронизировать.
func (s *Schedule) IsDue(now time.Time) bool {
	if !s.Enabled {
		return false
	}
	return now.After(s.NextRunAt) || now.Equal(s.NextRunAt)
}

// IsOverdue — enabled-расписание, у которого время запуска уже в прошлом.
func (s *Schedule) IsOverdue(now time.Time) bool {
	return s.Enabled && s.NextRunAt.Before(now)
}
