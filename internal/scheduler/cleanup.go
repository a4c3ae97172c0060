package scheduler

import (
	"context"
)

// SubjectDirectory — внешний справочник существования subjects.
// Авторитетный источник: subject, которого там нет, считается удалённым.
type SubjectDirectory interface {
	Exists(ctx context.Context, subjectID string) (bool, error)
}

// Cleanup удаляет расписания subjects, отсутствующих в справочнике,
// и возвращает число удалённых. Запускается out-of-band, не на пути тика.
//
// Ошибка проверки одного subject не блокирует остальные: такой subject
// пропускается до следующего запуска.
func (s *Scheduler) Cleanup(ctx context.Context) (int, error) {
	if s.directory == nil {
		return 0, ErrNoDirectory
	}

	schedules, err := s.store.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	var removed int
	for _, sched := range schedules {
		exists, err := s.directory.Exists(ctx, sched.SubjectID)
		if err != nil {
			s.logger.Warn("cleanup: existence check failed, skipping",
				"subject_id", sched.SubjectID,
				"error", err,
			)
			continue
		}
		if exists {
			continue
		}

		if err := s.store.Delete(ctx, sched.SubjectID); err != nil {
			s.logger.Error("cleanup: failed to delete schedule",
				"subject_id", sched.SubjectID,
				"error", err,
			)
			continue
		}

		removed++
		s.logger.Info("cleanup: removed orphaned schedule",
			"subject_id", sched.SubjectID,
		)
	}

	if removed > 0 {
		cleanupRemoved.Add(float64(removed))
	}
	return removed, nil
}
