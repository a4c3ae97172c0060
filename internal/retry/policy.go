package retry

import (
	"time"

	"github.com/shaiso/Syncline/internal/domain"
)

// Параметры политики ретраев.
const (
	// MaxRetries — количество подряд идущих ошибок, после которого
	// расписание выключается.
	MaxRetries = 3

	// backoffBaseMin — базовая задержка перед повтором, минуты.
	backoffBaseMin = 5

	// backoffCapMin — потолок задержки, минуты.
	backoffCapMin = 60
)

// TerminalPrefix — префикс LastError при достижении лимита ретраев.
const TerminalPrefix = "max retries reached: "

// Outcome — результат одной попытки синхронизации.
type Outcome struct {
	// Success — попытка завершилась успешно.
	Success bool

	// Message — сообщение об ошибке (для неуспешной попытки).
	Message string
}

// Succeeded — успешный результат.
func Succeeded() Outcome {
	return Outcome{Success: true}
}

// Failed — неуспешный результат с сообщением.
func Failed(message string) Outcome {
	return Outcome{Message: message}
}

// Backoff возвращает задержку перед n-й повторной попыткой:
// min(5 * 2^n, 60) минут.
func Backoff(n int) time.Duration {
	minutes := backoffBaseMin
	for i := 0; i < n; i++ {
		minutes *= 2
		if minutes >= backoffCapMin {
			minutes = backoffCapMin
			break
		}
	}
	return time.Duration(minutes) * time.Minute
}

// NextState — чистая функция перехода расписания по результату попытки.
//
// Успех: RetryCount=0, LastError очищен, NextRunAt = now + interval.
// Ошибка до лимита: RetryCount+1, NextRunAt = now + Backoff(RetryCount).
// Ошибка на лимите: RetryCount+1, Enabled=false, LastError с терминальным
// префиксом, NextRunAt не меняется (расписание выключено).
//
// Побочных эффектов нет: вход не модифицируется, возвращается копия.
func NextState(s domain.Schedule, outcome Outcome, now time.Time) domain.Schedule {
	next := s
	next.UpdatedAt = now

	if outcome.Success {
		next.RetryCount = 0
		next.LastError = ""
		next.NextRunAt = now.Add(s.Interval())
		return next
	}

	next.RetryCount = s.RetryCount + 1

	if next.RetryCount >= MaxRetries {
		next.Enabled = false
		next.LastError = TerminalPrefix + outcome.Message
		return next
	}

	next.LastError = outcome.Message
	next.NextRunAt = now.Add(Backoff(next.RetryCount))
	return next
}
