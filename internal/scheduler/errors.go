package scheduler

import "errors"

// Общие ошибки планировщика.
var (
	// ErrAlreadyRunning — Start вызван на уже работающем планировщике.
	ErrAlreadyRunning = errors.New("scheduler already running")

	// ErrLeaderHeld — лидерская блокировка занята другим процессом.
	ErrLeaderHeld = errors.New("another instance is already running")

	// ErrInvalidInterval — интервал должен быть положительным.
	ErrInvalidInterval = errors.New("interval must be positive")

	// ErrInvalidPriority — приоритет не из набора high/normal/low.
	ErrInvalidPriority = errors.New("invalid priority")

	// ErrNoDirectory — cleanup требует настроенный справочник subjects.
	ErrNoDirectory = errors.New("subject directory not configured")
)
