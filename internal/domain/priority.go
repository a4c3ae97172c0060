package domain

// Priority — приоритет расписания при выборке в тике.
type Priority string

// Возможные приоритеты.
const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// Rank возвращает числовой ранг для сортировки: high < normal < low.
// Неизвестный приоритет уходит в конец.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityNormal:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// IsValid проверяет, что приоритет — один из трёх известных.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityNormal, PriorityLow:
		return true
	}
	return false
}
