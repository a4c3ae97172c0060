package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shaiso/Syncline/internal/domain"
	"github.com/shaiso/Syncline/internal/kv"
)

// schedulePrefix — префикс ключей расписаний в KV-хранилище.
const schedulePrefix = "schedule:"

// ScheduleStore — типизированное хранилище расписаний поверх KV.
//
// Запись — JSON-сериализованный domain.Schedule под ключом
// "schedule:{subjectId}". Сериализация не выходит за границу этого пакета.
// Put — полная перезапись, last-writer-wins: optimistic concurrency нет,
// гонки записи по одному subject гасятся per-subject блокировкой на пути
// планового выполнения.
type ScheduleStore struct {
	store kv.Store
}

// NewScheduleStore создаёт ScheduleStore поверх KV-хранилища.
func NewScheduleStore(store kv.Store) *ScheduleStore {
	return &ScheduleStore{store: store}
}

// Key возвращает ключ расписания в KV-хранилище.
func Key(subjectID string) string {
	return schedulePrefix + subjectID
}

// Get возвращает расписание subject. ErrNotFound, если записи нет.
func (s *ScheduleStore) Get(ctx context.Context, subjectID string) (*domain.Schedule, error) {
	raw, err := s.store.Get(ctx, Key(subjectID))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule %s: %w", subjectID, err)
	}
	return unmarshalSchedule(raw)
}

// Put сохраняет расписание, полностью перезаписывая существующее.
func (s *ScheduleStore) Put(ctx context.Context, schedule *domain.Schedule) error {
	raw, err := json.Marshal(schedule)
	if err != nil {
		return fmt.Errorf("marshal schedule: %w", err)
	}
	if err := s.store.Set(ctx, Key(schedule.SubjectID), raw, 0); err != nil {
		return fmt.Errorf("put schedule %s: %w", schedule.SubjectID, err)
	}
	return nil
}

// ListAll возвращает все расписания (перечисление по префиксу ключей).
func (s *ScheduleStore) ListAll(ctx context.Context) ([]domain.Schedule, error) {
	raw, err := s.store.List(ctx, schedulePrefix)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}

	schedules := make([]domain.Schedule, 0, len(raw))
	for key, value := range raw {
		schedule, err := unmarshalSchedule(value)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", key, err)
		}
		schedules = append(schedules, *schedule)
	}
	return schedules, nil
}

// Delete удаляет расписание subject.
func (s *ScheduleStore) Delete(ctx context.Context, subjectID string) error {
	if err := s.store.Delete(ctx, Key(subjectID)); err != nil {
		return fmt.Errorf("delete schedule %s: %w", subjectID, err)
	}
	return nil
}

func unmarshalSchedule(raw []byte) (*domain.Schedule, error) {
	var schedule domain.Schedule
	if err := json.Unmarshal(raw, &schedule); err != nil {
		return nil, fmt.Errorf("unmarshal schedule: %w", err)
	}
	return &schedule, nil
}
