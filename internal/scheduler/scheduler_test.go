package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shaiso/Syncline/internal/domain"
	"github.com/shaiso/Syncline/internal/executor"
	"github.com/shaiso/Syncline/internal/kv"
	"github.com/shaiso/Syncline/internal/lock"
	"github.com/shaiso/Syncline/internal/store"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// --- Fakes ---

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

type fakeCredentials struct{}

func (fakeCredentials) Token(_ context.Context, _ string) (string, error) {
	return "tok", nil
}

// recordingSyncer запоминает порядок удалённых вызовов.
type recordingSyncer struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (r *recordingSyncer) Sync(_ context.Context, subjectID, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, subjectID)
	return r.err
}

func (r *recordingSyncer) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type fakeDirectory struct {
	existing map[string]bool
}

func (f *fakeDirectory) Exists(_ context.Context, subjectID string) (bool, error) {
	return f.existing[subjectID], nil
}

type fixture struct {
	scheduler *Scheduler
	store     *store.ScheduleStore
	locks     *lock.Manager
	syncer    *recordingSyncer
	clock     *fakeClock
	raw       *kv.Memory
	directory *fakeDirectory
}

func newFixture(workers int) *fixture {
	clock := &fakeClock{t: testNow}
	raw := kv.NewMemoryWithClock(clock.Now)
	scheduleStore := store.NewScheduleStore(raw)
	locks := lock.NewManager(raw)
	syncer := &recordingSyncer{}
	directory := &fakeDirectory{existing: map[string]bool{}}

	exec := executor.New(executor.Config{
		Store:       scheduleStore,
		Locks:       locks,
		Credentials: fakeCredentials{},
		Syncer:      syncer,
		Clock:       clock,
	})

	sched := New(Config{
		Store:     scheduleStore,
		Locks:     locks,
		Executor:  exec,
		Directory: directory,
		Clock:     clock,
		Workers:   workers,
	})

	return &fixture{
		scheduler: sched,
		store:     scheduleStore,
		locks:     locks,
		syncer:    syncer,
		clock:     clock,
		raw:       raw,
		directory: directory,
	}
}

func (f *fixture) putSchedule(t *testing.T, subjectID string, priority domain.Priority, nextRunAt time.Time, enabled bool) {
	t.Helper()
	err := f.store.Put(context.Background(), &domain.Schedule{
		SubjectID:   subjectID,
		NextRunAt:   nextRunAt,
		IntervalMin: 30,
		Priority:    priority,
		Enabled:     enabled,
	})
	if err != nil {
		t.Fatalf("put schedule %s: %v", subjectID, err)
	}
}

// --- Tick Tests ---

func TestTick_PriorityOrdering(t *testing.T) {
	// Due schedules с приоритетами [low, high, normal] выполняются
	// в порядке [high, normal, low].
	f := newFixture(1)
	past := testNow.Add(-time.Minute)

	f.putSchedule(t, "low-1", domain.PriorityLow, past, true)
	f.putSchedule(t, "high-1", domain.PriorityHigh, past, true)
	f.putSchedule(t, "normal-1", domain.PriorityNormal, past, true)

	if err := f.scheduler.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}

	want := []string{"high-1", "normal-1", "low-1"}
	got := f.syncer.Calls()
	if len(got) != len(want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestTick_TieBreakByNextRunAt(t *testing.T) {
	// Равный приоритет — раньше тот, у кого next_run_at раньше.
	f := newFixture(1)

	f.putSchedule(t, "later", domain.PriorityNormal, testNow.Add(-time.Minute), true)
	f.putSchedule(t, "earlier", domain.PriorityNormal, testNow.Add(-time.Hour), true)

	if err := f.scheduler.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}

	got := f.syncer.Calls()
	if len(got) != 2 || got[0] != "earlier" || got[1] != "later" {
		t.Errorf("calls = %v, want [earlier later]", got)
	}
}

func TestTick_SkipsNotDueAndDisabled(t *testing.T) {
	f := newFixture(1)

	f.putSchedule(t, "due", domain.PriorityNormal, testNow.Add(-time.Minute), true)
	f.putSchedule(t, "future", domain.PriorityNormal, testNow.Add(time.Hour), true)
	f.putSchedule(t, "disabled", domain.PriorityHigh, testNow.Add(-time.Hour), false)

	if err := f.scheduler.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}

	got := f.syncer.Calls()
	if len(got) != 1 || got[0] != "due" {
		t.Errorf("calls = %v, want [due]", got)
	}
}

func TestTick_DisabledScheduleStaysSkipped(t *testing.T) {
	// После терминальной ошибки расписание выключено и тики его не трогают.
	f := newFixture(1)
	f.syncer.err = errors.New("remote down")

	sched := &domain.Schedule{
		SubjectID:   "42",
		NextRunAt:   testNow.Add(-time.Minute),
		IntervalMin: 30,
		Priority:    domain.PriorityNormal,
		RetryCount:  2,
		Enabled:     true,
	}
	_ = f.store.Put(context.Background(), sched)

	// Третья подряд ошибка — расписание выключается
	if err := f.scheduler.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}

	persisted, _ := f.store.Get(context.Background(), "42")
	if persisted.Enabled {
		t.Fatal("schedule should be disabled after max retries")
	}

	// Последующие тики не делают удалённых вызовов
	f.clock.Advance(24 * time.Hour)
	if err := f.scheduler.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if calls := f.syncer.Calls(); len(calls) != 1 {
		t.Errorf("disabled schedule must not be retried, calls = %v", calls)
	}
}

func TestTick_SubjectLockExcludesDuplicates(t *testing.T) {
	// Занятая per-subject блокировка — ноль удалённых вызовов, не ошибка.
	f := newFixture(1)
	ctx := context.Background()

	f.putSchedule(t, "42", domain.PriorityNormal, testNow.Add(-time.Minute), true)

	other := lock.NewManager(f.raw)
	if ok, _ := other.Acquire(ctx, lock.SubjectKey("42"), time.Minute); !ok {
		t.Fatal("setup: acquire should succeed")
	}

	if err := f.scheduler.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if calls := f.syncer.Calls(); len(calls) != 0 {
		t.Errorf("locked subject must not be synced, calls = %v", calls)
	}
}

func TestTick_PoolDispatch(t *testing.T) {
	// Пул воркеров выполняет все due-расписания ровно по разу.
	f := newFixture(4)
	past := testNow.Add(-time.Minute)

	subjects := []string{"a", "b", "c", "d", "e", "f"}
	for _, id := range subjects {
		f.putSchedule(t, id, domain.PriorityNormal, past, true)
	}

	if err := f.scheduler.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}

	got := f.syncer.Calls()
	if len(got) != len(subjects) {
		t.Fatalf("calls = %v, want %d syncs", got, len(subjects))
	}
	seen := map[string]int{}
	for _, id := range got {
		seen[id]++
	}
	for _, id := range subjects {
		if seen[id] != 1 {
			t.Errorf("subject %s synced %d times", id, seen[id])
		}
	}
}

// --- Lifecycle Tests ---

func TestStart_LeaderContention(t *testing.T) {
	f := newFixture(1)
	ctx := context.Background()

	// Другой процесс уже лидер
	other := lock.NewManager(f.raw)
	if ok, _ := other.Acquire(ctx, lock.LeaderKey, time.Hour); !ok {
		t.Fatal("setup: acquire should succeed")
	}

	err := f.scheduler.Start(ctx, time.Hour)
	if !errors.Is(err, ErrLeaderHeld) {
		t.Fatalf("expected ErrLeaderHeld, got %v", err)
	}
	if f.scheduler.State() != StateStopped {
		t.Errorf("state = %s, want stopped", f.scheduler.State())
	}

	// Лизинг истёк без продления — новый Start проходит
	f.clock.Advance(2 * time.Hour)
	if err := f.scheduler.Start(ctx, time.Hour); err != nil {
		t.Fatalf("start after lease expiry: %v", err)
	}
	defer f.scheduler.Stop()

	if f.scheduler.State() != StateRunning {
		t.Errorf("state = %s, want running", f.scheduler.State())
	}
}

func TestStart_AlreadyRunning(t *testing.T) {
	f := newFixture(1)
	ctx := context.Background()

	if err := f.scheduler.Start(ctx, time.Hour); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer f.scheduler.Stop()

	if err := f.scheduler.Start(ctx, time.Hour); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestStartStop_ReleasesLeadership(t *testing.T) {
	f := newFixture(1)
	ctx := context.Background()

	f.putSchedule(t, "42", domain.PriorityNormal, testNow.Add(-time.Minute), true)

	if err := f.scheduler.Start(ctx, time.Hour); err != nil {
		t.Fatalf("start: %v", err)
	}

	f.scheduler.Stop()
	if f.scheduler.State() != StateStopped {
		t.Errorf("state = %s, want stopped", f.scheduler.State())
	}

	// Немедленный тик при старте успел выполниться
	if calls := f.syncer.Calls(); len(calls) != 1 {
		t.Errorf("immediate tick should run once, calls = %v", calls)
	}

	// Лидерская блокировка освобождена
	other := lock.NewManager(f.raw)
	if ok, _ := other.Acquire(ctx, lock.LeaderKey, time.Minute); !ok {
		t.Error("leader lock should be free after stop")
	}

	// Повторный Stop — no-op
	f.scheduler.Stop()
}

// flakyStore имитирует недоступное KV-хранилище: пока failing
// установлен, каждая операция возвращает ошибку.
type flakyStore struct {
	*kv.Memory
	mu      sync.Mutex
	failing bool
	errDown error
}

func (f *flakyStore) setFailing(failing bool) {
	f.mu.Lock()
	f.failing = failing
	f.mu.Unlock()
}

func (f *flakyStore) down() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return f.errDown
	}
	return nil
}

func (f *flakyStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := f.down(); err != nil {
		return nil, err
	}
	return f.Memory.Get(ctx, key)
}

func (f *flakyStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := f.down(); err != nil {
		return err
	}
	return f.Memory.Set(ctx, key, value, ttl)
}

func (f *flakyStore) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if err := f.down(); err != nil {
		return false, err
	}
	return f.Memory.SetNX(ctx, key, value, ttl)
}

func (f *flakyStore) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := f.down(); err != nil {
		return false, err
	}
	return f.Memory.Expire(ctx, key, ttl)
}

func (f *flakyStore) Delete(ctx context.Context, key string) error {
	if err := f.down(); err != nil {
		return err
	}
	return f.Memory.Delete(ctx, key)
}

func (f *flakyStore) List(ctx context.Context, prefix string) (map[string][]byte, error) {
	if err := f.down(); err != nil {
		return nil, err
	}
	return f.Memory.List(ctx, prefix)
}

func newFlakyFixture() (*flakyStore, *fixture) {
	clock := &fakeClock{t: testNow}
	flaky := &flakyStore{
		Memory:  kv.NewMemoryWithClock(clock.Now),
		errDown: errors.New("storage down"),
	}
	scheduleStore := store.NewScheduleStore(flaky)
	locks := lock.NewManager(flaky)
	syncer := &recordingSyncer{}

	exec := executor.New(executor.Config{
		Store:       scheduleStore,
		Locks:       locks,
		Credentials: fakeCredentials{},
		Syncer:      syncer,
		Clock:       clock,
	})

	sched := New(Config{
		Store:    scheduleStore,
		Locks:    locks,
		Executor: exec,
		Clock:    clock,
	})

	return flaky, &fixture{
		scheduler: sched,
		store:     scheduleStore,
		locks:     locks,
		syncer:    syncer,
		clock:     clock,
	}
}

func TestTick_StoreUnavailable(t *testing.T) {
	// Недоступное хранилище: тик возвращает ошибку и пропускается
	// целиком, следующий тик после восстановления работает штатно.
	flaky, f := newFlakyFixture()
	ctx := context.Background()

	f.putSchedule(t, "42", domain.PriorityNormal, testNow.Add(-time.Minute), true)

	flaky.setFailing(true)
	err := f.scheduler.Tick(ctx)
	if !errors.Is(err, flaky.errDown) {
		t.Fatalf("tick with storage down: err = %v, want wrapped storage error", err)
	}
	if calls := f.syncer.Calls(); len(calls) != 0 {
		t.Errorf("no dispatch during outage, calls = %v", calls)
	}

	flaky.setFailing(false)
	if err := f.scheduler.Tick(ctx); err != nil {
		t.Fatalf("tick after recovery: %v", err)
	}
	if calls := f.syncer.Calls(); len(calls) != 1 {
		t.Errorf("recovered tick should dispatch, calls = %v", calls)
	}
}

func TestStart_StoreUnavailable(t *testing.T) {
	// Ошибка захвата лидерской блокировки: Start возвращает ошибку,
	// scheduler остаётся в stopped и может стартовать после восстановления.
	flaky, f := newFlakyFixture()
	ctx := context.Background()

	flaky.setFailing(true)
	err := f.scheduler.Start(ctx, time.Hour)
	if !errors.Is(err, flaky.errDown) {
		t.Fatalf("start with storage down: err = %v, want wrapped storage error", err)
	}
	if f.scheduler.State() != StateStopped {
		t.Errorf("state = %s, want stopped", f.scheduler.State())
	}

	flaky.setFailing(false)
	if err := f.scheduler.Start(ctx, time.Hour); err != nil {
		t.Fatalf("start after recovery: %v", err)
	}
	defer f.scheduler.Stop()

	if f.scheduler.State() != StateRunning {
		t.Errorf("state = %s, want running", f.scheduler.State())
	}
}
