package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shaiso/Syncline/internal/domain"
	"github.com/shaiso/Syncline/internal/store"
)

// defaultIntervalMin — интервал по умолчанию для новых расписаний.
const defaultIntervalMin = 60

// ScheduleOptions — опции создания расписания.
// Нулевые значения заменяются дефолтами.
type ScheduleOptions struct {
	// IntervalMin — интервал в минутах. 0 — default (60).
	IntervalMin int

	// Priority — приоритет. Пустой — normal.
	Priority domain.Priority
}

// ScheduleUpdate — частичное обновление расписания.
// nil-поля не меняются.
type ScheduleUpdate struct {
	IntervalMin *int             `json:"interval_min,omitempty"`
	Priority    *domain.Priority `json:"priority,omitempty"`
	Enabled     *bool            `json:"enabled,omitempty"`
	RetryCount  *int             `json:"retry_count,omitempty"`
	NextRunAt   *time.Time       `json:"next_run_at,omitempty"`
}

// ScheduleSync создаёт расписание для subject или идемпотентно обновляет
// существующее: повторный вызов сливает опции в текущую запись, дублей
// не возникает. Для новой записи next_run_at = now + interval.
func (s *Scheduler) ScheduleSync(ctx context.Context, subjectID string, opts ScheduleOptions) (*domain.Schedule, error) {
	if subjectID == "" {
		return nil, fmt.Errorf("subject id is required")
	}

	interval := opts.IntervalMin
	if interval == 0 {
		interval = defaultIntervalMin
	}
	if interval < 0 {
		return nil, ErrInvalidInterval
	}

	priority := opts.Priority
	if priority == "" {
		priority = domain.PriorityNormal
	}
	if !priority.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPriority, opts.Priority)
	}

	now := s.clock.Now()

	existing, err := s.store.Get(ctx, subjectID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if existing == nil {
		sched := &domain.Schedule{
			SubjectID:   subjectID,
			NextRunAt:   now.Add(time.Duration(interval) * time.Minute),
			IntervalMin: interval,
			Priority:    priority,
			Enabled:     true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.store.Put(ctx, sched); err != nil {
			return nil, err
		}

		s.logger.Info("schedule created",
			"subject_id", subjectID,
			"interval_min", interval,
			"priority", priority,
		)
		return sched, nil
	}

	// Merge: опции перезаписывают поля, состояние ретраев сохраняется.
	// Смена интервала пересчитывает горизонт — старый принадлежал старому темпу.
	if opts.IntervalMin > 0 && opts.IntervalMin != existing.IntervalMin {
		existing.IntervalMin = opts.IntervalMin
		existing.NextRunAt = now.Add(time.Duration(opts.IntervalMin) * time.Minute)
	}
	if opts.Priority != "" {
		existing.Priority = opts.Priority
	}
	existing.UpdatedAt = now

	if err := s.store.Put(ctx, existing); err != nil {
		return nil, err
	}

	s.logger.Info("schedule merged",
		"subject_id", subjectID,
		"interval_min", existing.IntervalMin,
		"priority", existing.Priority,
	)
	return existing, nil
}

// GetSchedule возвращает расписание subject. store.ErrNotFound, если его нет.
func (s *Scheduler) GetSchedule(ctx context.Context, subjectID string) (*domain.Schedule, error) {
	return s.store.Get(ctx, subjectID)
}

// UpdateSchedule применяет частичное обновление к расписанию.
//
// Per-subject блокировка сознательно не берётся: прямое обновление может
// гоняться с in-flight тиком этого subject, побеждает последняя запись.
// Включение выключенного расписания сбрасывает счётчик ошибок — иначе
// первый же сбой выключил бы его снова.
func (s *Scheduler) UpdateSchedule(ctx context.Context, subjectID string, upd ScheduleUpdate) (*domain.Schedule, error) {
	sched, err := s.store.Get(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	if upd.IntervalMin != nil {
		if *upd.IntervalMin <= 0 {
			return nil, ErrInvalidInterval
		}
		sched.IntervalMin = *upd.IntervalMin
	}
	if upd.Priority != nil {
		if !upd.Priority.IsValid() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPriority, *upd.Priority)
		}
		sched.Priority = *upd.Priority
	}
	if upd.Enabled != nil {
		if *upd.Enabled && !sched.Enabled {
			sched.RetryCount = 0
			sched.LastError = ""
		}
		sched.Enabled = *upd.Enabled
	}
	if upd.RetryCount != nil && *upd.RetryCount >= 0 {
		sched.RetryCount = *upd.RetryCount
	}
	if upd.NextRunAt != nil {
		sched.NextRunAt = *upd.NextRunAt
	}
	sched.UpdatedAt = s.clock.Now()

	if err := s.store.Put(ctx, sched); err != nil {
		return nil, err
	}
	return sched, nil
}

// SetEnabled включает или выключает расписание.
func (s *Scheduler) SetEnabled(ctx context.Context, subjectID string, enabled bool) error {
	_, err := s.UpdateSchedule(ctx, subjectID, ScheduleUpdate{Enabled: &enabled})
	return err
}

// DeleteSchedule удаляет расписание subject'а.
func (s *Scheduler) DeleteSchedule(ctx context.Context, subjectID string) error {
	if _, err := s.store.Get(ctx, subjectID); err != nil {
		return err
	}
	return s.store.Delete(ctx, subjectID)
}

// ListSchedules возвращает все расписания, отсортированные по subject id.
func (s *Scheduler) ListSchedules(ctx context.Context) ([]domain.Schedule, error) {
	schedules, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	sort.Slice(schedules, func(i, j int) bool {
		return schedules[i].SubjectID < schedules[j].SubjectID
	})
	return schedules, nil
}

// BulkUpdate применяет частичное обновление к набору subjects.
// Отсутствующие и сбойные записи пропускаются; возвращается число
// успешно обновлённых.
func (s *Scheduler) BulkUpdate(ctx context.Context, subjectIDs []string, upd ScheduleUpdate) (int, error) {
	var updated int
	for _, subjectID := range subjectIDs {
		if _, err := s.UpdateSchedule(ctx, subjectID, upd); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			s.logger.Warn("bulk update: skipping subject",
				"subject_id", subjectID,
				"error", err,
			)
			continue
		}
		updated++
	}
	return updated, nil
}
