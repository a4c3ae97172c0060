package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Syncline/internal/kv"
)

// Ключи блокировок в KV-хранилище.
const (
	// LeaderKey — лидерская блокировка тикового цикла.
	// Держатель — единственный процесс, принимающий решения планирования.
	LeaderKey = "lock:scheduler:main"

	// subjectKeyPrefix — префикс per-subject блокировок.
	subjectKeyPrefix = "lock:scheduler:entity:"
)

// SubjectKey возвращает ключ per-subject блокировки.
func SubjectKey(subjectID string) string {
	return subjectKeyPrefix + subjectID
}

// Manager — leased mutual exclusion поверх KV-хранилища.
//
// Блокировка — это ключ с TTL. Захват атомарен (set-if-absent),
// очереди ожидания нет: неудачный захват возвращает false, вызывающий
// уступает. TTL ограничивает последствия упавшего держателя: лизинг
// истекает, и блокировку забирает другой процесс.
type Manager struct {
	store kv.Store

	// holderID идентифицирует этот процесс в значении ключа.
	// Полезно при разборе инцидентов; fencing по нему не делается.
	holderID string
}

// NewManager создаёт Manager с уникальным идентификатором держателя.
func NewManager(store kv.Store) *Manager {
	return &Manager{
		store:    store,
		holderID: uuid.New().String(),
	}
}

// HolderID возвращает идентификатор этого держателя.
func (m *Manager) HolderID() string {
	return m.holderID
}

// Acquire атомарно захватывает блокировку с данным TTL.
// Возвращает true, если блокировка теперь у вызывающего.
// Повторных попыток внутри нет.
func (m *Manager) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := m.store.SetNX(ctx, key, []byte(m.holderID), ttl)
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", key, err)
	}
	return ok, nil
}

// Renew продлевает TTL удерживаемой блокировки.
// Вызывающий обязан продлевать до истечения лизинга, если хочет держать дальше.
// Возвращает false, если лизинг уже истёк (блокировка потеряна).
func (m *Manager) Renew(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := m.store.Expire(ctx, key, ttl)
	if err != nil {
		return false, fmt.Errorf("renew %s: %w", key, err)
	}
	return ok, nil
}

// Release безусловно удаляет ключ блокировки.
// Вызывать только для своей блокировки (или как best-effort cleanup).
func (m *Manager) Release(ctx context.Context, key string) error {
	if err := m.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	return nil
}
