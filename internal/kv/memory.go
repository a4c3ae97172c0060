package kv

import (
	"context"
	"strings"
	"sync"
	"time"
)

// entry — значение с опциональным сроком жизни.
type entry struct {
	value     []byte
	expiresAt time.Time // нулевое время — без срока жизни
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Memory — in-memory реализация Store.
//
// Используется в тестах и для single-node разработки без Postgres.
// Истёкшие ключи удаляются лениво при обращении.
type Memory struct {
	mu   sync.Mutex
	data map[string]entry

	// now подменяется в тестах для детерминированной проверки TTL.
	now func() time.Time
}

// NewMemory создаёт пустое in-memory хранилище.
func NewMemory() *Memory {
	return &Memory{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

// NewMemoryWithClock создаёт хранилище с подменённым источником времени.
func NewMemoryWithClock(now func() time.Time) *Memory {
	return &Memory{
		data: make(map[string]entry),
		now:  now,
	}
}

// Get возвращает значение ключа.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.data[key]
	if !ok || e.expired(m.now()) {
		delete(m.data, key)
		return nil, ErrNotFound
	}

	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set записывает значение, перезаписывая существующее.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = m.makeEntry(value, ttl)
	return nil
}

// SetNX атомарно записывает значение, только если ключа нет или он истёк.
func (m *Memory) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.data[key]; ok && !e.expired(m.now()) {
		return false, nil
	}

	m.data[key] = m.makeEntry(value, ttl)
	return true, nil
}

// Expire продлевает срок жизни существующего ключа.
func (m *Memory) Expire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.data[key]
	if !ok || e.expired(m.now()) {
		delete(m.data, key)
		return false, nil
	}

	e.expiresAt = m.now().Add(ttl)
	m.data[key] = e
	return true, nil
}

// Delete удаляет ключ.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

// List возвращает значения всех ключей с данным префиксом.
func (m *Memory) List(_ context.Context, prefix string) (map[string][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	out := make(map[string][]byte)
	for key, e := range m.data {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if e.expired(now) {
			delete(m.data, key)
			continue
		}
		v := make([]byte, len(e.value))
		copy(v, e.value)
		out[key] = v
	}
	return out, nil
}

func (m *Memory) makeEntry(value []byte, ttl time.Duration) entry {
	v := make([]byte, len(value))
	copy(v, value)

	e := entry{value: v}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	return e
}
