package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shaiso/Syncline/internal/domain"
	"github.com/shaiso/Syncline/internal/kv"
	"github.com/shaiso/Syncline/internal/lock"
	"github.com/shaiso/Syncline/internal/retry"
	"github.com/shaiso/Syncline/internal/store"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// --- Fakes ---

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time { return f.t }

type fakeCredentials struct {
	token string
	err   error
	calls int
}

func (f *fakeCredentials) Token(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.token, f.err
}

type fakeSyncer struct {
	err       error
	calls     int
	lastToken string
}

func (f *fakeSyncer) Sync(_ context.Context, _ string, token string) error {
	f.calls++
	f.lastToken = token
	return f.err
}

type fixture struct {
	executor *Executor
	store    *store.ScheduleStore
	locks    *lock.Manager
	creds    *fakeCredentials
	syncer   *fakeSyncer
	raw      *kv.Memory
}

func newFixture() *fixture {
	raw := kv.NewMemory()
	scheduleStore := store.NewScheduleStore(raw)
	locks := lock.NewManager(raw)
	creds := &fakeCredentials{token: "tok-1"}
	syncer := &fakeSyncer{}

	exec := New(Config{
		Store:       scheduleStore,
		Locks:       locks,
		Credentials: creds,
		Syncer:      syncer,
		Clock:       &fakeClock{t: testNow},
	})

	return &fixture{
		executor: exec,
		store:    scheduleStore,
		locks:    locks,
		creds:    creds,
		syncer:   syncer,
		raw:      raw,
	}
}

func dueSchedule(subjectID string) *domain.Schedule {
	return &domain.Schedule{
		SubjectID:   subjectID,
		NextRunAt:   testNow.Add(-time.Minute),
		IntervalMin: 30,
		Priority:    domain.PriorityNormal,
		Enabled:     true,
	}
}

// --- Tests ---

func TestExecute_Success(t *testing.T) {
	f := newFixture()
	sched := dueSchedule("42")
	sched.RetryCount = 2
	sched.LastError = "old error"

	result, err := f.executor.Execute(context.Background(), sched)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !result.Executed {
		t.Fatal("sync should execute")
	}

	if f.syncer.calls != 1 {
		t.Errorf("syncer calls = %d, want 1", f.syncer.calls)
	}
	if f.syncer.lastToken != "tok-1" {
		t.Errorf("token = %q", f.syncer.lastToken)
	}

	// Обновлённое состояние записано в store
	persisted, err := f.store.Get(context.Background(), "42")
	if err != nil {
		t.Fatalf("get persisted: %v", err)
	}
	if persisted.RetryCount != 0 || persisted.LastError != "" {
		t.Errorf("failure state should reset: %+v", persisted)
	}
	if want := testNow.Add(30 * time.Minute); !persisted.NextRunAt.Equal(want) {
		t.Errorf("next run at = %v, want %v", persisted.NextRunAt, want)
	}
}

func TestExecute_RemoteFailure(t *testing.T) {
	f := newFixture()
	f.syncer.err = errors.New("connection refused")

	result, err := f.executor.Execute(context.Background(), dueSchedule("42"))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Outcome.Success {
		t.Fatal("outcome should be failure")
	}

	persisted, _ := f.store.Get(context.Background(), "42")
	if persisted.RetryCount != 1 {
		t.Errorf("retry count = %d, want 1", persisted.RetryCount)
	}
	if persisted.LastError != "connection refused" {
		t.Errorf("last error = %q", persisted.LastError)
	}
	if want := testNow.Add(retry.Backoff(1)); !persisted.NextRunAt.Equal(want) {
		t.Errorf("next run at = %v, want %v", persisted.NextRunAt, want)
	}
	if !persisted.Enabled {
		t.Error("schedule should stay enabled below max retries")
	}
}

func TestExecute_NoCredential(t *testing.T) {
	f := newFixture()
	f.creds.err = errors.New("token store unreachable")

	result, err := f.executor.Execute(context.Background(), dueSchedule("42"))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Outcome.Success {
		t.Fatal("outcome should be failure")
	}
	if result.Outcome.Message != MsgNoCredential {
		t.Errorf("message = %q, want %q", result.Outcome.Message, MsgNoCredential)
	}

	// Удалённый вызов не делается без credential
	if f.syncer.calls != 0 {
		t.Errorf("syncer should not be called, got %d calls", f.syncer.calls)
	}
}

func TestExecute_TerminalDisable(t *testing.T) {
	f := newFixture()
	f.syncer.err = errors.New("remote down")
	sched := dueSchedule("42")
	sched.RetryCount = retry.MaxRetries - 1

	_, err := f.executor.Execute(context.Background(), sched)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	persisted, _ := f.store.Get(context.Background(), "42")
	if persisted.Enabled {
		t.Error("schedule should be disabled at max retries")
	}
	if persisted.LastError != retry.TerminalPrefix+"remote down" {
		t.Errorf("last error = %q", persisted.LastError)
	}
}

func TestExecute_LockContention(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// Другой процесс держит per-subject блокировку
	other := lock.NewManager(f.raw)
	if ok, _ := other.Acquire(ctx, lock.SubjectKey("42"), time.Minute); !ok {
		t.Fatal("setup: acquire should succeed")
	}

	result, err := f.executor.Execute(ctx, dueSchedule("42"))
	if err != nil {
		t.Fatalf("contention is not an error: %v", err)
	}
	if result.Executed {
		t.Error("execute under contention should be a no-op")
	}

	// Ровно ноль удалённых вызовов
	if f.syncer.calls != 0 {
		t.Errorf("syncer calls = %d, want 0", f.syncer.calls)
	}
	if f.creds.calls != 0 {
		t.Errorf("credential calls = %d, want 0", f.creds.calls)
	}
}

func TestExecute_ReleasesLock(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// Успешный путь
	if _, err := f.executor.Execute(ctx, dueSchedule("42")); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if ok, _ := f.locks.Acquire(ctx, lock.SubjectKey("42"), time.Minute); !ok {
		t.Error("lock should be released after success")
	}
	_ = f.locks.Release(ctx, lock.SubjectKey("42"))

	// Путь с ошибкой удалённого вызова
	f.syncer.err = errors.New("boom")
	if _, err := f.executor.Execute(ctx, dueSchedule("43")); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if ok, _ := f.locks.Acquire(ctx, lock.SubjectKey("43"), time.Minute); !ok {
		t.Error("lock should be released after failure")
	}
}
