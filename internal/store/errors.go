package store

import "errors"

// Общие ошибки хранилища расписаний.
var (
	// ErrNotFound — расписание для subject не найдено.
	ErrNotFound = errors.New("schedule not found")
)
