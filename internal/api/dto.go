package api

import (
	"time"

	"github.com/shaiso/Syncline/internal/domain"
	"github.com/shaiso/Syncline/internal/scheduler"
)

// CreateScheduleRequest — запрос на постановку subject'а в расписание.
type CreateScheduleRequest struct {
	SubjectID   string          `json:"subject_id"`
	IntervalMin int             `json:"interval_min,omitempty"`
	Priority    domain.Priority `json:"priority,omitempty"`
}

// UpdateScheduleRequest — запрос на частичное обновление расписания.
type UpdateScheduleRequest struct {
	IntervalMin *int             `json:"interval_min,omitempty"`
	Priority    *domain.Priority `json:"priority,omitempty"`
	Enabled     *bool            `json:"enabled,omitempty"`
}

// ToUpdate конвертирует запрос во внутреннее частичное обновление.
func (r UpdateScheduleRequest) ToUpdate() scheduler.ScheduleUpdate {
	return scheduler.ScheduleUpdate{
		IntervalMin: r.IntervalMin,
		Priority:    r.Priority,
		Enabled:     r.Enabled,
	}
}

// SetEnabledRequest — запрос на включение/выключение.
type SetEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// BulkUpdateRequest — запрос на обновление набора расписаний.
type BulkUpdateRequest struct {
	SubjectIDs []string              `json:"subject_ids"`
	Update     UpdateScheduleRequest `json:"update"`
}

// BulkUpdateResponse — ответ с числом обновлённых расписаний.
type BulkUpdateResponse struct {
	Updated int `json:"updated"`
}

// CleanupResponse — ответ с числом удалённых расписаний.
type CleanupResponse struct {
	Removed int `json:"removed"`
}

// ScheduleResponse — ответ с расписанием.
type ScheduleResponse struct {
	SubjectID   string          `json:"subject_id"`
	NextRunAt   time.Time       `json:"next_run_at"`
	IntervalMin int             `json:"interval_min"`
	Priority    domain.Priority `json:"priority"`
	RetryCount  int             `json:"retry_count"`
	LastError   string          `json:"last_error,omitempty"`
	Enabled     bool            `json:"enabled"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ScheduleFromDomain конвертирует domain.Schedule в ScheduleResponse.
func ScheduleFromDomain(s *domain.Schedule) ScheduleResponse {
	if s == nil {
		return ScheduleResponse{}
	}
	return ScheduleResponse{
		SubjectID:   s.SubjectID,
		NextRunAt:   s.NextRunAt,
		IntervalMin: s.IntervalMin,
		Priority:    s.Priority,
		RetryCount:  s.RetryCount,
		LastError:   s.LastError,
		Enabled:     s.Enabled,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
