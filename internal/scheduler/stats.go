package scheduler

import (
	"context"
	"time"

	"github.com/shaiso/Syncline/internal/domain"
)

// Stats — сводка по текущему снимку расписаний.
// Не кэшируется: каждый запрос пересчитывает по свежему ListAll.
type Stats struct {
	// Total — всего расписаний.
	Total int `json:"total"`

	// Enabled / Disabled — разбивка по флагу активности.
	Enabled  int `json:"enabled"`
	Disabled int `json:"disabled"`

	// Overdue — enabled-расписания с next_run_at в прошлом.
	Overdue int `json:"overdue"`

	// ByPriority — разбивка по приоритету (все три ключа присутствуют всегда).
	ByPriority map[domain.Priority]int `json:"by_priority"`

	// AvgIntervalMin — среднее арифметическое интервала по всем расписаниям.
	AvgIntervalMin float64 `json:"avg_interval_min"`

	// ErrorRate — доля расписаний с непустым last_error.
	ErrorRate float64 `json:"error_rate"`
}

// ComputeStats считает сводку по снимку расписаний.
// Чистая функция — отдельно тестируется на фиксированных данных.
func ComputeStats(schedules []domain.Schedule, now time.Time) Stats {
	stats := Stats{
		ByPriority: map[domain.Priority]int{
			domain.PriorityHigh:   0,
			domain.PriorityNormal: 0,
			domain.PriorityLow:    0,
		},
	}

	var intervalSum, withError int
	for _, sched := range schedules {
		stats.Total++

		if sched.Enabled {
			stats.Enabled++
		} else {
			stats.Disabled++
		}
		if sched.IsOverdue(now) {
			stats.Overdue++
		}
		stats.ByPriority[sched.Priority]++

		intervalSum += sched.IntervalMin
		if sched.LastError != "" {
			withError++
		}
	}

	if stats.Total > 0 {
		stats.AvgIntervalMin = float64(intervalSum) / float64(stats.Total)
		stats.ErrorRate = float64(withError) / float64(stats.Total)
	}

	return stats
}

// GetStatistics возвращает сводку по текущему состоянию хранилища.
func (s *Scheduler) GetStatistics(ctx context.Context) (*Stats, error) {
	schedules, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	stats := ComputeStats(schedules, s.clock.Now())
	return &stats, nil
}
