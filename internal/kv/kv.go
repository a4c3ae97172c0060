package kv

import (
	"context"
	"errors"
	"time"
)

// Общие ошибки KV-хранилища.
var (
	// ErrNotFound — ключ отсутствует (или его срок жизни истёк).
	ErrNotFound = errors.New("key not found")
)

// Store — граница внешнего key-value хранилища.
//
// Ядру нужен минимальный набор атомарных операций: get,
// set-if-absent с TTL, продление TTL, удаление и перечисление по префиксу.
// Реализации: Postgres (production) и Memory (тесты, single-node dev).
type Store interface {
	// Get возвращает значение ключа. ErrNotFound, если ключа нет.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set записывает значение, перезаписывая существующее.
	// ttl = 0 означает без срока жизни.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// SetNX атомарно записывает значение, только если ключа ещё нет
	// (или его срок жизни истёк). Возвращает true, если запись произошла.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Expire продлевает срок жизни существующего ключа.
	// Возвращает false, если ключа нет.
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Delete удаляет ключ. Отсутствие ключа — не ошибка.
	Delete(ctx context.Context, key string) error

	// List возвращает значения всех ключей с данным префиксом.
	List(ctx context.Context, prefix string) (map[string][]byte, error)
}
