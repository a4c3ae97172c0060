package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser — парсер cron-выражений (5 полей, без секунд).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronExpr проверяет валидность cron-выражения.
func ValidateCronExpr(cronExpr string) error {
	_, err := cronParser.Parse(cronExpr)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}
	return nil
}

// NextCleanupAt вычисляет следующий запуск cleanup по cron-выражению.
func NextCleanupAt(cronExpr string, from time.Time) (time.Time, error) {
	schedule, err := cronParser.Parse(cronExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron expression %q: %w", cronExpr, err)
	}
	return schedule.Next(from), nil
}

// RunCleanupLoop периодически запускает Cleanup по cron-расписанию.
// Блокирует до отмены контекста. Ошибки cleanup логируются, цикл живёт.
func (s *Scheduler) RunCleanupLoop(ctx context.Context, cronExpr string) error {
	schedule, err := cronParser.Parse(cronExpr)
	if err != nil {
		return fmt.Errorf("parse cleanup cron %q: %w", cronExpr, err)
	}

	s.logger.Info("cleanup loop started", "cron", cronExpr)

	for {
		now := s.clock.Now()
		next := schedule.Next(now)

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		removed, err := s.Cleanup(ctx)
		if err != nil {
			s.logger.Error("cleanup failed", "error", err)
			continue
		}
		if removed > 0 {
			s.logger.Info("cleanup completed", "removed", removed)
		}
	}
}
