package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shaiso/Syncline/internal/domain"
	"github.com/shaiso/Syncline/internal/kv"
)

func testSchedule(subjectID string) *domain.Schedule {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Schedule{
		SubjectID:   subjectID,
		NextRunAt:   now.Add(30 * time.Minute),
		IntervalMin: 30,
		Priority:    domain.PriorityNormal,
		Enabled:     true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestScheduleStore_PutGet(t *testing.T) {
	s := NewScheduleStore(kv.NewMemory())
	ctx := context.Background()

	want := testSchedule("42")
	want.RetryCount = 2
	want.LastError = "remote sync failed"

	if err := s.Put(ctx, want); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.Get(ctx, "42")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if *got != *want {
		t.Errorf("roundtrip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestScheduleStore_Get_NotFound(t *testing.T) {
	s := NewScheduleStore(kv.NewMemory())

	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestScheduleStore_Put_Overwrite(t *testing.T) {
	// Put — полная перезапись, last-writer-wins.
	s := NewScheduleStore(kv.NewMemory())
	ctx := context.Background()

	first := testSchedule("42")
	_ = s.Put(ctx, first)

	second := testSchedule("42")
	second.IntervalMin = 60
	second.Priority = domain.PriorityHigh
	_ = s.Put(ctx, second)

	got, err := s.Get(ctx, "42")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.IntervalMin != 60 || got.Priority != domain.PriorityHigh {
		t.Errorf("last write should win, got %+v", got)
	}
}

func TestScheduleStore_ListAll(t *testing.T) {
	raw := kv.NewMemory()
	s := NewScheduleStore(raw)
	ctx := context.Background()

	_ = s.Put(ctx, testSchedule("1"))
	_ = s.Put(ctx, testSchedule("2"))

	// Чужие ключи в том же хранилище не попадают в перечисление
	_ = raw.Set(ctx, "lock:scheduler:main", []byte("holder"), 0)
	_ = raw.Set(ctx, "credential:1", []byte("token"), 0)

	schedules, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(schedules) != 2 {
		t.Fatalf("expected 2 schedules, got %d", len(schedules))
	}

	seen := map[string]bool{}
	for _, sched := range schedules {
		seen[sched.SubjectID] = true
	}
	if !seen["1"] || !seen["2"] {
		t.Errorf("unexpected subjects: %v", seen)
	}
}

func TestScheduleStore_Delete(t *testing.T) {
	s := NewScheduleStore(kv.NewMemory())
	ctx := context.Background()

	_ = s.Put(ctx, testSchedule("42"))
	if err := s.Delete(ctx, "42"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := s.Get(ctx, "42"); !errors.Is(err, ErrNotFound) {
		t.Errorf("schedule should be gone, got %v", err)
	}
}
