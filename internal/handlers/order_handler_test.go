package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-processing-backend/internal/models"
	"order-processing-backend/internal/services/artifact"
	"order-processing-backend/internal/services/orchestrator"
)

type stubProcessor struct {
	results map[string]models.DealershipOutcome
}

func (p *stubProcessor) Process(ctx context.Context, dealershipID string) models.DealershipOutcome {
	if out, ok := p.results[dealershipID]; ok {
		return out
	}
	return models.DealershipOutcome{DealershipID: dealershipID, Success: false, Error: "unknown dealership"}
}

type memStore struct {
	artifacts map[string]string
}

func (s *memStore) Get(ctx context.Context, ref string) (string, error) {
	return s.artifacts[ref], nil
}

func (s *memStore) Put(ctx context.Context, ref, text string) error {
	s.artifacts[ref] = text
	return nil
}

func newTestRouter(t *testing.T, processor orchestrator.OrderProcessor) (*gin.Engine, *memStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	queue := orchestrator.NewQueueStore(nil, logger)
	manager := orchestrator.NewManager(queue, processor, nil, false, logger)
	store := &memStore{artifacts: map[string]string{}}
	h := NewOrderHandler(manager, artifact.NewCodec(store), nil, logger)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/queue", h.Enqueue)
	api.GET("/queue", h.ListQueue)
	api.DELETE("/queue/:dealershipId", h.RemoveQueueItem)
	sessions := api.Group("/sessions")
	sessions.POST("", h.StartSession)
	sessions.GET("/:id", h.GetSession)
	sessions.GET("/:id/events", h.GetSessionEvents)
	sessions.POST("/:id/manual", h.SubmitManual)
	sessions.POST("/:id/finalize", h.Finalize)
	sessions.POST("/:id/cancel", h.CancelSession)
	sessions.GET("/:id/artifact", h.GetArtifact)
	sessions.POST("/:id/artifact/edit", h.EditArtifact)
	sessions.POST("/:id/artifact/save", h.SaveArtifact)
	return r, store
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	payload := map[string]any{}
	if strings.Contains(w.Header().Get("Content-Type"), "application/json") {
		json.Unmarshal(w.Body.Bytes(), &payload)
	}
	return w, payload
}

func waitForStage(t *testing.T, r *gin.Engine, sessionID, stage string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		w, payload := doJSON(t, r, http.MethodGet, "/api/sessions/"+sessionID, "")
		require.Equal(t, http.StatusOK, w.Code)
		if payload["stage"] == stage {
			return payload
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("session %s never reached stage %s", sessionID, stage)
	return nil
}

func TestEnqueueIsIdempotent(t *testing.T) {
	r, _ := newTestRouter(t, &stubProcessor{})

	w, payload := doJSON(t, r, http.MethodPost, "/api/queue",
		`{"dealership_id": "Alpha Motors", "mode": "AUTOMATED", "added_by": "jane"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, payload["inserted"])

	w, payload = doJSON(t, r, http.MethodPost, "/api/queue",
		`{"dealership_id": "Alpha Motors", "mode": "MANUAL"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, payload["inserted"])
	assert.Equal(t, float64(1), payload["queue_size"])
}

func TestEnqueueRejectsUnknownMode(t *testing.T) {
	r, _ := newTestRouter(t, &stubProcessor{})

	w, _ := doJSON(t, r, http.MethodPost, "/api/queue",
		`{"dealership_id": "Alpha Motors", "mode": "TELEPATHIC"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStartSessionEmptyQueueRejected(t *testing.T) {
	r, _ := newTestRouter(t, &stubProcessor{})

	w, _ := doJSON(t, r, http.MethodPost, "/api/sessions", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionNotFoundAndBadID(t *testing.T) {
	r, _ := newTestRouter(t, &stubProcessor{})

	w, _ := doJSON(t, r, http.MethodGet, "/api/sessions/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, r, http.MethodGet, "/api/sessions/6f1c2a4e-0000-4000-8000-000000000001", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAutomatedSessionLifecycle(t *testing.T) {
	processor := &stubProcessor{results: map[string]models.DealershipOutcome{
		"Alpha Motors": {
			DealershipID: "Alpha Motors",
			Success:      true,
			VehicleCount: 1,
			Vehicles: []models.VehicleRecord{{
				VIN: "1HGBH41JXMN109186", Year: "2021", Make: "Honda", Model: "Civic",
				Source: models.SourceAutomated,
			}},
		},
	}}
	r, store := newTestRouter(t, processor)

	w, _ := doJSON(t, r, http.MethodPost, "/api/queue",
		`{"dealership_id": "Alpha Motors", "mode": "AUTOMATED"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w, payload := doJSON(t, r, http.MethodPost, "/api/sessions", `{}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	sessionID := payload["session_id"].(string)

	status := waitForStage(t, r, sessionID, "REVIEW")
	totals := status["totals"].(map[string]any)
	assert.Equal(t, float64(1), totals["processed"])
	assert.Equal(t, float64(1), totals["total_vehicles"])

	// Artifact is served as CSV with a header row.
	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+sessionID+"/artifact", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "vin,year,make")
	assert.Contains(t, rec.Body.String(), "1HGBH41JXMN109186")

	// Field edits apply in review.
	w, _ = doJSON(t, r, http.MethodPost, "/api/sessions/"+sessionID+"/artifact/edit",
		`{"index": 0, "field": "trim", "value": "EX"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, "/api/sessions/"+sessionID+"/artifact/edit",
		`{"index": 5, "field": "trim", "value": "EX"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Saving pushes the CSV to the artifact store.
	w, payload = doJSON(t, r, http.MethodPost, "/api/sessions/"+sessionID+"/artifact/save", `{}`)
	require.Equal(t, http.StatusOK, w.Code)
	ref := payload["artifact_ref"].(string)
	assert.Contains(t, store.artifacts[ref], "EX")

	// Blank order number keeps the session in review.
	w, _ = doJSON(t, r, http.MethodPost, "/api/sessions/"+sessionID+"/finalize",
		`{"order_number": "   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, payload = doJSON(t, r, http.MethodPost, "/api/sessions/"+sessionID+"/finalize",
		`{"order_number": "ORD-77"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "COMPLETE", payload["stage"])

	// Completed sessions reject a second finalize.
	w, _ = doJSON(t, r, http.MethodPost, "/api/sessions/"+sessionID+"/finalize",
		`{"order_number": "ORD-78"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestManualEntryOverHTTP(t *testing.T) {
	r, _ := newTestRouter(t, &stubProcessor{})

	w, _ := doJSON(t, r, http.MethodPost, "/api/queue",
		`{"dealership_id": "Beta Auto", "mode": "MANUAL"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w, payload := doJSON(t, r, http.MethodPost, "/api/sessions", `{}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	sessionID := payload["session_id"].(string)

	waitForStage(t, r, sessionID, "MANUAL_ENTRY")

	// A batch with a malformed VIN is rejected whole.
	w, payload = doJSON(t, r, http.MethodPost, "/api/sessions/"+sessionID+"/manual",
		`{"dealership_id": "Beta Auto", "text": "ORDER9\n1HGBH41JXMN10918"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, payload["parse_errors"])

	w, payload = doJSON(t, r, http.MethodPost, "/api/sessions/"+sessionID+"/manual",
		`{"dealership_id": "Beta Auto", "text": "ORDER9\n1HGBH41JXMN109186\n2FMDK3GC4DBA54321"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ORDER9", payload["order_number"])
	assert.Equal(t, float64(2), payload["vin_count"])

	status := waitForStage(t, r, sessionID, "REVIEW")
	totals := status["totals"].(map[string]any)
	// Manual-only dealerships contribute vehicles but no processed count.
	assert.Equal(t, float64(0), totals["processed"])
	assert.Equal(t, float64(2), totals["total_vehicles"])
}

func TestCancelOverHTTP(t *testing.T) {
	processor := &stubProcessor{results: map[string]models.DealershipOutcome{}}
	r, _ := newTestRouter(t, processor)

	w, _ := doJSON(t, r, http.MethodPost, "/api/queue",
		`{"dealership_id": "Gamma Cars", "mode": "MANUAL"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w, payload := doJSON(t, r, http.MethodPost, "/api/sessions", `{}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	sessionID := payload["session_id"].(string)

	waitForStage(t, r, sessionID, "MANUAL_ENTRY")

	w, payload = doJSON(t, r, http.MethodPost, "/api/sessions/"+sessionID+"/cancel", `{}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "INITIALIZE", payload["stage"])
}
