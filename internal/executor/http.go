package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultHTTPTimeout = 30 * time.Second

// HTTPSyncer — production-реализация Syncer поверх HTTP.
//
// Выполняет POST {endpoint} с телом {"subject_id": ..., "token": ...}.
// Код ответа >= 400 — логическая ошибка синхронизации (уходит в retry-политику),
// сетевые ошибки — тоже: для планировщика любая неудача subject одинакова.
type HTTPSyncer struct {
	endpoint string
	client   *http.Client
}

// NewHTTPSyncer создаёт HTTPSyncer для данного endpoint.
func NewHTTPSyncer(endpoint string, timeout time.Duration) *HTTPSyncer {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &HTTPSyncer{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Sync выполняет удалённую синхронизацию subject.
func (s *HTTPSyncer) Sync(ctx context.Context, subjectID, token string) error {
	body, err := json.Marshal(map[string]string{
		"subject_id": subjectID,
		"token":      token,
	})
	if err != nil {
		return fmt.Errorf("marshal sync request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create sync request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sync request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	return nil
}

// HTTPCredentialProvider — production-реализация CredentialProvider.
//
// Выполняет GET {baseURL}/{subjectID} и ожидает JSON {"token": "..."}.
// 404 и пустой токен означают отсутствие валидного credential.
type HTTPCredentialProvider struct {
	baseURL string
	client  *http.Client
}

// NewHTTPCredentialProvider создаёт провайдер для данного base URL.
func NewHTTPCredentialProvider(baseURL string, timeout time.Duration) *HTTPCredentialProvider {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &HTTPCredentialProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Token возвращает валидный токен для subject.
func (p *HTTPCredentialProvider) Token(ctx context.Context, subjectID string) (string, error) {
	endpoint := p.baseURL + "/" + url.PathEscape(subjectID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create credential request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("credential request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("no credential for subject %s", subjectID)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("credential request: HTTP %d", resp.StatusCode)
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode credential response: %w", err)
	}
	if payload.Token == "" {
		return "", fmt.Errorf("empty token for subject %s", subjectID)
	}

	return payload.Token, nil
}

// HTTPSubjectDirectory — проверка существования subject во внешнем справочнике.
//
// Выполняет GET {baseURL}/{subjectID}: 200 — существует, 404 — нет.
// Используется операцией cleanup.
type HTTPSubjectDirectory struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSubjectDirectory создаёт справочник для данного base URL.
func NewHTTPSubjectDirectory(baseURL string, timeout time.Duration) *HTTPSubjectDirectory {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &HTTPSubjectDirectory{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Exists проверяет, существует ли subject.
func (d *HTTPSubjectDirectory) Exists(ctx context.Context, subjectID string) (bool, error) {
	endpoint := d.baseURL + "/" + url.PathEscape(subjectID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("create directory request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("directory request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 400:
		return false, fmt.Errorf("directory request: HTTP %d", resp.StatusCode)
	default:
		return true, nil
	}
}

// truncate обрезает строку до указанной длины.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
