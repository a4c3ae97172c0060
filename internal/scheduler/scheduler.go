package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shaiso/Syncline/internal/domain"
	"github.com/shaiso/Syncline/internal/executor"
	"github.com/shaiso/Syncline/internal/lock"
	"github.com/shaiso/Syncline/internal/store"
)

// State — состояние жизненного цикла планировщика.
type State string

// Состояния: Stopped → Starting → Running → Stopping → Stopped.
const (
	StateStopped  State = "stopped"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateStopping State = "stopping"
)

// Scheduler — лидерский тиковый цикл и публичные операции над расписаниями.
//
// В флоте одинаковых процессов тиковый цикл ведёт только держатель
// лидерской блокировки; остальные ждут истечения его лизинга.
// Per-subject блокировка от лидерства не зависит: даже лидер захватывает
// её перед синхронизацией subject.
type Scheduler struct {
	store     *store.ScheduleStore
	locks     *lock.Manager
	executor  *executor.Executor
	directory SubjectDirectory
	clock     domain.Clock
	logger    *slog.Logger
	workers   int

	mu           sync.Mutex
	state        State
	tickInterval time.Duration
	leaderTTL    time.Duration
	cancelFunc   context.CancelFunc
	wg           sync.WaitGroup
}

// Config — конфигурация Scheduler.
type Config struct {
	Store     *store.ScheduleStore
	Locks     *lock.Manager
	Executor  *executor.Executor
	Directory SubjectDirectory // опционально; нужен только для Cleanup
	Clock     domain.Clock     // опционально; default — системные часы
	Logger    *slog.Logger
	Workers   int // размер пула диспетчеризации; <=1 — последовательно
}

// New создаёт новый Scheduler.
func New(cfg Config) *Scheduler {
	clock := cfg.Clock
	if clock == nil {
		clock = domain.SystemClock{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Scheduler{
		store:     cfg.Store,
		locks:     cfg.Locks,
		executor:  cfg.Executor,
		directory: cfg.Directory,
		clock:     clock,
		logger:    logger,
		workers:   workers,
		state:     StateStopped,
	}
}

// State возвращает текущее состояние жизненного цикла.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Start захватывает лидерскую блокировку и запускает тиковый цикл.
//
// TTL лидерского лизинга — 2× интервал тика. Если блокировка занята,
// возвращается ErrLeaderHeld: это пользовательская ошибка старта,
// а не повод для внутренних ретраев. Первый тик выполняется сразу.
func (s *Scheduler) Start(ctx context.Context, tickInterval time.Duration) error {
	s.mu.Lock()
	if s.state != StateStopped {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.state = StateStarting
	s.tickInterval = tickInterval
	s.leaderTTL = 2 * tickInterval
	s.mu.Unlock()

	acquired, err := s.locks.Acquire(ctx, lock.LeaderKey, s.leaderTTL)
	if err != nil {
		s.setState(StateStopped)
		return fmt.Errorf("acquire leader lock: %w", err)
	}
	if !acquired {
		s.setState(StateStopped)
		return ErrLeaderHeld
	}

	loopCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.state = StateRunning
	s.cancelFunc = cancel
	s.mu.Unlock()

	s.logger.Info("scheduler started",
		"tick_interval", tickInterval,
		"leader_ttl", s.leaderTTL,
		"workers", s.workers,
		"holder_id", s.locks.HolderID(),
	)

	s.wg.Add(1)
	go s.run(loopCtx)

	return nil
}

// Stop останавливает тиковый цикл и освобождает лидерскую блокировку.
// Запущенные в текущем тике синхронизации завершаются; принудительной
// отмены in-flight вызовов нет.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return
	}
	s.state = StateStopping
	cancel := s.cancelFunc
	s.mu.Unlock()

	s.logger.Info("stopping scheduler...")

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()

	// Best-effort: при сбое release лизинг истечёт сам
	if err := s.locks.Release(context.Background(), lock.LeaderKey); err != nil {
		s.logger.Warn("failed to release leader lock", "error", err)
	}

	s.setState(StateStopped)
	s.logger.Info("scheduler stopped")
}

// run — тиковый цикл: немедленный тик, затем по таймеру.
func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	s.tickOnce(ctx)

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tickOnce(ctx)
		}
	}
}

// tickOnce — один проход цикла: подтверждение лидерства + тик.
// Ошибки тика не роняют цикл — повтор на следующем тике.
func (s *Scheduler) tickOnce(ctx context.Context) {
	if !s.ensureLeadership(ctx) {
		return
	}

	ticksTotal.Inc()

	if err := s.Tick(ctx); err != nil {
		s.logger.Error("scheduler tick failed", "error", err)
	}
}

// ensureLeadership продлевает лидерский лизинг; при потере пытается
// захватить заново. false — мы сейчас не лидер, тик пропускается.
func (s *Scheduler) ensureLeadership(ctx context.Context) bool {
	renewed, err := s.locks.Renew(ctx, lock.LeaderKey, s.leaderTTL)
	if err != nil {
		s.logger.Error("failed to renew leader lock", "error", err)
		return false
	}
	if renewed {
		return true
	}

	// Лизинг истёк (тик сильно задержался или хранилище было недоступно)
	acquired, err := s.locks.Acquire(ctx, lock.LeaderKey, s.leaderTTL)
	if err != nil {
		s.logger.Error("failed to re-acquire leader lock", "error", err)
		return false
	}
	if !acquired {
		s.logger.Warn("leadership lost, skipping tick")
		return false
	}

	s.logger.Info("leadership re-acquired")
	return true
}

// Tick выполняет один тик планировщика.
//
// 1. Загружает все расписания из store
// 2. Отбирает enabled с next_run_at <= now
// 3. Сортирует по приоритету (high < normal < low), затем по next_run_at
// 4. Диспетчеризует в Executor в этом порядке
//
// Ошибки одного subject не блокируют обработку остальных.
func (s *Scheduler) Tick(ctx context.Context) error {
	now := s.clock.Now()

	schedules, err := s.store.ListAll(ctx)
	if err != nil {
		// Хранилище недоступно — тик пропускается целиком
		return fmt.Errorf("list schedules: %w", err)
	}

	due := make([]domain.Schedule, 0)
	for _, sched := range schedules {
		if sched.IsDue(now) {
			due = append(due, sched)
		}
	}

	if len(due) == 0 {
		return nil
	}

	sort.Slice(due, func(i, j int) bool {
		if ri, rj := due[i].Priority.Rank(), due[j].Priority.Rank(); ri != rj {
			return ri < rj
		}
		return due[i].NextRunAt.Before(due[j].NextRunAt)
	})

	dueSelected.Add(float64(len(due)))
	s.logger.Debug("found due schedules", "count", len(due))

	executed := s.dispatch(ctx, due)

	s.logger.Info("scheduler tick completed",
		"due", len(due),
		"executed", executed,
	)

	return nil
}

// dispatch передаёт отобранные расписания в Executor.
// При workers > 1 используется ограниченный пул горутин; дубли по одному
// subject исключает сама per-subject блокировка, второго механизма нет.
func (s *Scheduler) dispatch(ctx context.Context, due []domain.Schedule) int {
	if s.workers <= 1 {
		var executed int
		for i := range due {
			if s.dispatchOne(ctx, &due[i]) {
				executed++
			}
		}
		return executed
	}

	var (
		mu       sync.Mutex
		executed int
		wg       sync.WaitGroup
	)
	sem := make(chan struct{}, s.workers)

	for i := range due {
		sched := due[i]

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			if s.dispatchOne(ctx, &sched) {
				mu.Lock()
				executed++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	return executed
}

// dispatchOne выполняет одну синхронизацию. Возвращает true, если
// попытка состоялась (блокировка была свободна).
func (s *Scheduler) dispatchOne(ctx context.Context, sched *domain.Schedule) bool {
	result, err := s.executor.Execute(ctx, sched)
	if err != nil {
		s.logger.Error("failed to execute sync",
			"subject_id", sched.SubjectID,
			"error", err,
		)
		return false
	}
	return result.Executed
}
