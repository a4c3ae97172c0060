package executor

import (
	"context"
	"log/slog"
	"time"

	"github.com/shaiso/Syncline/internal/domain"
	"github.com/shaiso/Syncline/internal/lock"
	"github.com/shaiso/Syncline/internal/mq"
	"github.com/shaiso/Syncline/internal/retry"
	"github.com/shaiso/Syncline/internal/store"
)

// defaultLockTTL — TTL per-subject блокировки.
// Зависшая синхронизация разблокирует subject после истечения лизинга;
// идемпотентность удалённой операции предполагается.
const defaultLockTTL = 5 * time.Minute

// MsgNoCredential — сообщение об ошибке при отсутствии валидного credential.
const MsgNoCredential = "no valid credential"

// CredentialProvider — внешний поставщик credential для subject.
// Отсутствие валидного токена сигнализируется ошибкой.
type CredentialProvider interface {
	Token(ctx context.Context, subjectID string) (string, error)
}

// Syncer — удалённая операция синхронизации.
// Возвращает nil при успехе, error с причиной при неудаче.
// Операция обязана быть идемпотентной: лизинговая блокировка
// не защищает от повторного запуска после истечения TTL.
type Syncer interface {
	Sync(ctx context.Context, subjectID, token string) error
}

// Result — результат одной попытки синхронизации.
type Result struct {
	// Executed — попытка состоялась. false означает, что per-subject
	// блокировка занята другим процессом; это не ошибка.
	Executed bool

	// Schedule — обновлённое расписание (nil, если Executed=false).
	Schedule *domain.Schedule

	// Outcome — результат удалённого вызова.
	Outcome retry.Outcome
}

// Executor выполняет ровно один цикл синхронизации для одного subject.
//
// Контракт:
//  1. Захват per-subject блокировки; занято — немедленный возврат.
//  2. Получение credential; отсутствие — failure outcome.
//  3. Удалённый вызов синхронизации.
//  4. Применение retry-политики, запись расписания в store.
//  5. Освобождение блокировки на любом пути выхода.
//
// Ошибки subject никогда не пробрасываются наружу — они попадают
// в состояние расписания. Наружу уходят только инфраструктурные
// ошибки блокировки и хранилища.
type Executor struct {
	store       *store.ScheduleStore
	locks       *lock.Manager
	credentials CredentialProvider
	syncer      Syncer
	publisher   *mq.Publisher // опционально
	logger      *slog.Logger
	clock       domain.Clock
	lockTTL     time.Duration
}

// Config — конфигурация Executor.
type Config struct {
	Store       *store.ScheduleStore
	Locks       *lock.Manager
	Credentials CredentialProvider
	Syncer      Syncer
	Publisher   *mq.Publisher // опционально; nil — события не публикуются
	Logger      *slog.Logger
	Clock       domain.Clock  // опционально; default — системные часы
	LockTTL     time.Duration // default: 5 минут
}

// New создаёт новый Executor.
func New(cfg Config) *Executor {
	clock := cfg.Clock
	if clock == nil {
		clock = domain.SystemClock{}
	}

	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{
		store:       cfg.Store,
		locks:       cfg.Locks,
		credentials: cfg.Credentials,
		syncer:      cfg.Syncer,
		publisher:   cfg.Publisher,
		logger:      logger,
		clock:       clock,
		lockTTL:     lockTTL,
	}
}

// Execute выполняет одну попытку синхронизации для расписания.
func (e *Executor) Execute(ctx context.Context, sched *domain.Schedule) (*Result, error) {
	key := lock.SubjectKey(sched.SubjectID)

	acquired, err := e.locks.Acquire(ctx, key, e.lockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		// Subject занят другим воркером — уступаем, это штатная ситуация
		e.logger.Debug("subject lock held elsewhere, skipping",
			"subject_id", sched.SubjectID,
		)
		return &Result{Executed: false}, nil
	}
	defer func() {
		if err := e.locks.Release(ctx, key); err != nil {
			e.logger.Warn("failed to release subject lock",
				"subject_id", sched.SubjectID,
				"error", err,
			)
		}
	}()

	outcome := e.attempt(ctx, sched.SubjectID)

	updated := retry.NextState(*sched, outcome, e.clock.Now())
	if err := e.store.Put(ctx, &updated); err != nil {
		return nil, err
	}

	e.report(ctx, &updated, outcome)

	return &Result{Executed: true, Schedule: &updated, Outcome: outcome}, nil
}

// attempt выполняет удалённый вызов: credential + sync.
func (e *Executor) attempt(ctx context.Context, subjectID string) retry.Outcome {
	token, err := e.credentials.Token(ctx, subjectID)
	if err != nil {
		e.logger.Warn("credential unavailable",
			"subject_id", subjectID,
			"error", err,
		)
		return retry.Failed(MsgNoCredential)
	}

	if err := e.syncer.Sync(ctx, subjectID, token); err != nil {
		return retry.Failed(err.Error())
	}

	return retry.Succeeded()
}

// report логирует исход, публикует событие и обновляет метрики.
func (e *Executor) report(ctx context.Context, sched *domain.Schedule, outcome retry.Outcome) {
	switch {
	case outcome.Success:
		syncsTotal.WithLabelValues("success").Inc()
		e.logger.Info("sync completed",
			"subject_id", sched.SubjectID,
			"next_run_at", sched.NextRunAt,
		)
		e.publish(ctx, mq.MessageTypeSyncCompleted, sched)

	case !sched.Enabled:
		syncsTotal.WithLabelValues("disabled").Inc()
		e.logger.Error("sync failed, schedule disabled",
			"subject_id", sched.SubjectID,
			"retry_count", sched.RetryCount,
			"error", sched.LastError,
		)
		e.publish(ctx, mq.MessageTypeSyncDisabled, sched)

	default:
		syncsTotal.WithLabelValues("failure").Inc()
		e.logger.Warn("sync failed, will retry",
			"subject_id", sched.SubjectID,
			"retry_count", sched.RetryCount,
			"next_run_at", sched.NextRunAt,
			"error", sched.LastError,
		)
		e.publish(ctx, mq.MessageTypeSyncFailed, sched)
	}
}

// publish отправляет событие жизненного цикла (если publisher настроен).
func (e *Executor) publish(ctx context.Context, msgType mq.MessageType, sched *domain.Schedule) {
	if e.publisher == nil {
		return
	}

	payload := mq.SyncEventPayload{
		SubjectID:  sched.SubjectID,
		RetryCount: sched.RetryCount,
		Error:      sched.LastError,
	}
	if err := e.publisher.PublishSyncEvent(ctx, msgType, payload); err != nil {
		// Не фатально: состояние уже в store
		e.logger.Warn("failed to publish sync event",
			"subject_id", sched.SubjectID,
			"type", msgType,
			"error", err,
		)
	}
}
