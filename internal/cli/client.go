package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// ScheduleResponse — расписание из API.
type ScheduleResponse struct {
	SubjectID   string `json:"subject_id"`
	NextRunAt   string `json:"next_run_at"`
	IntervalMin int    `json:"interval_min"`
	Priority    string `json:"priority"`
	RetryCount  int    `json:"retry_count"`
	LastError   string `json:"last_error,omitempty"`
	Enabled     bool   `json:"enabled"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// StatsResponse — сводная статистика из API.
type StatsResponse struct {
	Total          int            `json:"total"`
	Enabled        int            `json:"enabled"`
	Disabled       int            `json:"disabled"`
	Overdue        int            `json:"overdue"`
	ByPriority     map[string]int `json:"by_priority"`
	AvgIntervalMin float64        `json:"avg_interval_min"`
	ErrorRate      float64        `json:"error_rate"`
}

// --- Request types ---

// CreateScheduleRequest — постановка subject'а в расписание.
type CreateScheduleRequest struct {
	SubjectID   string `json:"subject_id"`
	IntervalMin int    `json:"interval_min,omitempty"`
	Priority    string `json:"priority,omitempty"`
}

// UpdateScheduleRequest — частичное обновление расписания.
type UpdateScheduleRequest struct {
	IntervalMin *int    `json:"interval_min,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	Enabled     *bool   `json:"enabled,omitempty"`
}

// BulkUpdateRequest — обновление набора расписаний.
type BulkUpdateRequest struct {
	SubjectIDs []string              `json:"subject_ids"`
	Update     UpdateScheduleRequest `json:"update"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для Syncline API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Schedules ---

// ListSchedules возвращает все расписания.
func (c *Client) ListSchedules() ([]ScheduleResponse, error) {
	var schedules []ScheduleResponse
	err := c.list("/api/v1/schedules", &schedules)
	return schedules, err
}

// CreateSchedule ставит subject в расписание.
func (c *Client) CreateSchedule(req CreateScheduleRequest) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	err := c.post("/api/v1/schedules", req, &schedule)
	return &schedule, err
}

// GetSchedule возвращает расписание по subject id.
func (c *Client) GetSchedule(subjectID string) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	err := c.get("/api/v1/schedules/"+subjectID, &schedule)
	return &schedule, err
}

// UpdateSchedule обновляет расписание.
func (c *Client) UpdateSchedule(subjectID string, req UpdateScheduleRequest) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	err := c.put("/api/v1/schedules/"+subjectID, req, &schedule)
	return &schedule, err
}

// DeleteSchedule удаляет расписание.
func (c *Client) DeleteSchedule(subjectID string) error {
	return c.delete("/api/v1/schedules/" + subjectID)
}

// EnableSchedule включает расписание.
func (c *Client) EnableSchedule(subjectID string) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	body := map[string]bool{"enabled": true}
	err := c.put("/api/v1/schedules/"+subjectID+"/enabled", body, &schedule)
	return &schedule, err
}

// DisableSchedule выключает расписание.
func (c *Client) DisableSchedule(subjectID string) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	body := map[string]bool{"enabled": false}
	err := c.put("/api/v1/schedules/"+subjectID+"/enabled", body, &schedule)
	return &schedule, err
}

// RequestSync публикует внеочередную синхронизацию subject'а.
func (c *Client) RequestSync(subjectID string) error {
	return c.post("/api/v1/schedules/"+subjectID+"/sync", nil, nil)
}

// BulkUpdate обновляет набор расписаний. Возвращает число обновлённых.
func (c *Client) BulkUpdate(req BulkUpdateRequest) (int, error) {
	var result struct {
		Updated int `json:"updated"`
	}
	err := c.post("/api/v1/schedules/bulk", req, &result)
	return result.Updated, err
}

// --- Stats и обслуживание ---

// GetStats возвращает сводную статистику.
func (c *Client) GetStats() (*StatsResponse, error) {
	var stats StatsResponse
	err := c.get("/api/v1/stats", &stats)
	return &stats, err
}

// RunCleanup запускает очистку осиротевших расписаний.
// Возвращает число удалённых.
func (c *Client) RunCleanup() (int, error) {
	var result struct {
		Removed int `json:"removed"`
	}
	err := c.post("/api/v1/cleanup", nil, &result)
	return result.Removed, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) put(path string, body any, result any) error {
	return c.doData(http.MethodPut, path, body, result)
}

func (c *Client) delete(path string) error {
	resp, err := c.do(http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkError(resp)
}

func (c *Client) list(path string, result any) error {
	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
