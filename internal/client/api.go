package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"order-processing-backend/internal/models"
)

// API is an HTTP client for the order processing server, used by the CLI.
type API struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPI creates a client for the server at baseURL. If baseURL is empty,
// ORDERS_SERVER_URL is consulted, then localhost:8080.
func NewAPI(baseURL string) *API {
	if baseURL == "" {
		baseURL = os.Getenv("ORDERS_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	timeout := 2 * time.Minute
	if t := os.Getenv("ORDERS_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &API{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// APIError carries the HTTP status so callers can distinguish validation
// rejections from state conflicts and missing sessions.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server rejected request (%d): %s", e.Status, e.Message)
}

func (a *API) do(ctx context.Context, method, path string, payload, result any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return &APIError{Status: resp.StatusCode, Message: apiErr.Error}
		}
		return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}

	if result != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// EnqueueResult reports whether a queue insert actually happened.
type EnqueueResult struct {
	Inserted  bool `json:"inserted"`
	QueueSize int  `json:"queue_size"`
}

func (a *API) Enqueue(ctx context.Context, dealershipID, mode, addedBy string) (EnqueueResult, error) {
	var result EnqueueResult
	err := a.do(ctx, http.MethodPost, "/api/queue", map[string]string{
		"dealership_id": dealershipID,
		"mode":          mode,
		"added_by":      addedBy,
	}, &result)
	return result, err
}

func (a *API) ListQueue(ctx context.Context) ([]models.QueueItem, error) {
	var result struct {
		Items []models.QueueItem `json:"items"`
	}
	err := a.do(ctx, http.MethodGet, "/api/queue", nil, &result)
	return result.Items, err
}

// SessionStatus mirrors the server's session status payload.
type SessionStatus struct {
	SessionID      string               `json:"session_id"`
	Stage          string               `json:"stage"`
	AwaitingManual string               `json:"awaiting_manual"`
	OrderNumber    string               `json:"order_number"`
	Totals         models.SessionTotals `json:"totals"`
}

func (a *API) StartSession(ctx context.Context) (SessionStatus, error) {
	var result struct {
		SessionID string        `json:"session_id"`
		Status    SessionStatus `json:"status"`
	}
	if err := a.do(ctx, http.MethodPost, "/api/sessions", struct{}{}, &result); err != nil {
		return SessionStatus{}, err
	}
	result.Status.SessionID = result.SessionID
	return result.Status, nil
}

func (a *API) GetSession(ctx context.Context, id string) (SessionStatus, error) {
	var result SessionStatus
	err := a.do(ctx, http.MethodGet, "/api/sessions/"+id, nil, &result)
	return result, err
}

// ManualResult summarizes an accepted manual-entry batch.
type ManualResult struct {
	OrderNumber string   `json:"order_number"`
	VINCount    int      `json:"vin_count"`
	Warnings    []string `json:"warnings"`
}

func (a *API) SubmitManual(ctx context.Context, sessionID, dealershipID, text string) (ManualResult, error) {
	var result ManualResult
	err := a.do(ctx, http.MethodPost, "/api/sessions/"+sessionID+"/manual", map[string]string{
		"dealership_id": dealershipID,
		"text":          text,
	}, &result)
	return result, err
}

func (a *API) Finalize(ctx context.Context, sessionID, orderNumber string) (SessionStatus, error) {
	var result SessionStatus
	err := a.do(ctx, http.MethodPost, "/api/sessions/"+sessionID+"/finalize", map[string]string{
		"order_number": orderNumber,
	}, &result)
	return result, err
}

func (a *API) Cancel(ctx context.Context, sessionID string) (SessionStatus, error) {
	var result SessionStatus
	err := a.do(ctx, http.MethodPost, "/api/sessions/"+sessionID+"/cancel", struct{}{}, &result)
	return result, err
}

// GetArtifact fetches the session's record set as CSV text.
func (a *API) GetArtifact(ctx context.Context, sessionID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		a.baseURL+"/api/sessions/"+sessionID+"/artifact", nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return "", &APIError{Status: resp.StatusCode, Message: apiErr.Error}
		}
		return "", &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}
	return string(raw), nil
}

func (a *API) SaveArtifact(ctx context.Context, sessionID string) (string, error) {
	var result struct {
		ArtifactRef string `json:"artifact_ref"`
	}
	err := a.do(ctx, http.MethodPost, "/api/sessions/"+sessionID+"/artifact/save", struct{}{}, &result)
	return result.ArtifactRef, err
}
