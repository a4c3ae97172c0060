package domain

import "time"

// Clock — абстракция времени для тестируемости.
// В production используется SystemClock, в тестах — фиксированный fake.
type Clock interface {
	Now() time.Time
}

// SystemClock — настоящие часы (time.Now).
type SystemClock struct{}

// Now возвращает текущее время.
func (SystemClock) Now() time.Time { return time.Now() }
