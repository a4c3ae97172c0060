package api

import (
	"encoding/json"
	"net/http"

	"github.com/shaiso/Syncline/internal/scheduler"
)

// ListSchedules возвращает все расписания.
// GET /api/v1/schedules
func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.scheduler.ListSchedules(r.Context())
	if HandleServiceError(w, h.logger, err, "") {
		return
	}

	result := make([]ScheduleResponse, len(schedules))
	for i := range schedules {
		result[i] = ScheduleFromDomain(&schedules[i])
	}

	List(w, result, len(result))
}

// CreateSchedule ставит subject в расписание синхронизаций.
// Повторный вызов для того же subject идемпотентно обновляет запись.
// POST /api/v1/schedules
func (h *Handler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req CreateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.SubjectID == "" {
		BadRequest(w, "subject_id is required")
		return
	}

	sched, err := h.scheduler.ScheduleSync(r.Context(), req.SubjectID, scheduler.ScheduleOptions{
		IntervalMin: req.IntervalMin,
		Priority:    req.Priority,
	})
	if HandleServiceError(w, h.logger, err, "") {
		return
	}

	Created(w, ScheduleFromDomain(sched))
}

// GetSchedule возвращает расписание по subject id.
// GET /api/v1/schedules/{id}
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	sched, err := h.scheduler.GetSchedule(r.Context(), r.PathValue("id"))
	if HandleServiceError(w, h.logger, err, "schedule not found") {
		return
	}

	Success(w, ScheduleFromDomain(sched))
}

// UpdateSchedule частично обновляет расписание.
// PUT /api/v1/schedules/{id}
func (h *Handler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	var req UpdateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	sched, err := h.scheduler.UpdateSchedule(r.Context(), r.PathValue("id"), req.ToUpdate())
	if HandleServiceError(w, h.logger, err, "schedule not found") {
		return
	}

	Success(w, ScheduleFromDomain(sched))
}

// DeleteSchedule удаляет расписание.
// DELETE /api/v1/schedules/{id}
func (h *Handler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	if err := h.scheduler.DeleteSchedule(r.Context(), r.PathValue("id")); err != nil {
		HandleServiceError(w, h.logger, err, "schedule not found")
		return
	}

	NoContent(w)
}

// SetScheduleEnabled включает или выключает расписание.
// PUT /api/v1/schedules/{id}/enabled
func (h *Handler) SetScheduleEnabled(w http.ResponseWriter, r *http.Request) {
	var req SetEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	subjectID := r.PathValue("id")
	if err := h.scheduler.SetEnabled(r.Context(), subjectID, req.Enabled); err != nil {
		HandleServiceError(w, h.logger, err, "schedule not found")
		return
	}

	// Возвращаем обновлённое расписание
	sched, err := h.scheduler.GetSchedule(r.Context(), subjectID)
	if HandleServiceError(w, h.logger, err, "schedule not found") {
		return
	}

	Success(w, ScheduleFromDomain(sched))
}

// RequestSync публикует внеочередной запрос синхронизации subject'а.
// POST /api/v1/schedules/{id}/sync
func (h *Handler) RequestSync(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		InvalidState(w, "sync queue is not configured")
		return
	}

	subjectID := r.PathValue("id")

	// Subject должен быть в расписании
	if _, err := h.scheduler.GetSchedule(r.Context(), subjectID); err != nil {
		HandleServiceError(w, h.logger, err, "schedule not found")
		return
	}

	if err := h.publisher.PublishSyncRequested(r.Context(), subjectID); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	JSON(w, http.StatusAccepted, DataResponse{Data: map[string]string{
		"subject_id": subjectID,
		"status":     "requested",
	}})
}

// BulkUpdateSchedules применяет обновление к набору расписаний.
// Отсутствующие subjects пропускаются.
// POST /api/v1/schedules/bulk
func (h *Handler) BulkUpdateSchedules(w http.ResponseWriter, r *http.Request) {
	var req BulkUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if len(req.SubjectIDs) == 0 {
		BadRequest(w, "subject_ids is required")
		return
	}

	updated, err := h.scheduler.BulkUpdate(r.Context(), req.SubjectIDs, req.Update.ToUpdate())
	if HandleServiceError(w, h.logger, err, "") {
		return
	}

	Success(w, BulkUpdateResponse{Updated: updated})
}

// GetStatistics возвращает сводку по расписаниям.
// GET /api/v1/stats
func (h *Handler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.scheduler.GetStatistics(r.Context())
	if HandleServiceError(w, h.logger, err, "") {
		return
	}

	Success(w, stats)
}

// RunCleanup удаляет расписания исчезнувших subjects.
// POST /api/v1/cleanup
func (h *Handler) RunCleanup(w http.ResponseWriter, r *http.Request) {
	removed, err := h.scheduler.Cleanup(r.Context())
	if HandleServiceError(w, h.logger, err, "") {
		return
	}

	Success(w, CleanupResponse{Removed: removed})
}
