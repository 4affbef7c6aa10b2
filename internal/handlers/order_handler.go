package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"order-processing-backend/internal/models"
	"order-processing-backend/internal/repository"
	"order-processing-backend/internal/services/artifact"
	"order-processing-backend/internal/services/orchestrator"
)

type OrderHandler struct {
	manager *orchestrator.Manager
	codec   *artifact.Codec
	repo    *repository.SessionRepository
	logger  *slog.Logger
}

func NewOrderHandler(manager *orchestrator.Manager, codec *artifact.Codec,
	repo *repository.SessionRepository, logger *slog.Logger) *OrderHandler {

	if logger == nil {
		logger = slog.Default()
	}
	return &OrderHandler{manager: manager, codec: codec, repo: repo, logger: logger}
}

// statusFor maps the orchestrator error taxonomy onto HTTP status codes:
// validation 400, wrong stage 409, unknown session 404, remote transport 502.
func statusFor(err error) int {
	switch {
	case errors.Is(err, orchestrator.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, orchestrator.ErrWrongStage):
		return http.StatusConflict
	case errors.Is(err, orchestrator.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, orchestrator.ErrRemoteCall):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *OrderHandler) abortWith(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func (h *OrderHandler) audit(sessionID *uuid.UUID, dealershipID, action, detail, performedBy string) {
	if h.repo == nil {
		return
	}
	entry := models.OrderAuditLog{
		SessionID:    sessionID,
		DealershipID: dealershipID,
		Action:       action,
		Detail:       detail,
		PerformedBy:  performedBy,
	}
	if err := h.repo.AppendAudit(entry); err != nil {
		h.logger.Warn("audit append failed", "action", action, "error", err)
	}
}

// Enqueue adds one dealership to the work queue. Re-adding an existing
// dealership is a no-op and reports inserted=false.
func (h *OrderHandler) Enqueue(c *gin.Context) {
	var payload struct {
		DealershipID string `json:"dealership_id"`
		Mode         string `json:"mode"`
		AddedBy      string `json:"added_by"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	inserted, err := h.manager.Queue().Add(models.QueueItem{
		DealershipID: payload.DealershipID,
		Mode:         models.OrderMode(payload.Mode),
		AddedBy:      payload.AddedBy,
	})
	if err != nil {
		h.abortWith(c, err)
		return
	}

	if inserted {
		h.audit(nil, payload.DealershipID, "enqueue", payload.Mode, payload.AddedBy)
	}
	c.JSON(http.StatusOK, gin.H{
		"inserted":   inserted,
		"queue_size": h.manager.Queue().Len(),
	})
}

func (h *OrderHandler) ListQueue(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.manager.Queue().Items()})
}

func (h *OrderHandler) RemoveQueueItem(c *gin.Context) {
	dealershipID := c.Param("dealershipId")
	h.manager.Queue().Remove(dealershipID)
	c.JSON(http.StatusOK, gin.H{"queue_size": h.manager.Queue().Len()})
}

func (h *OrderHandler) UpdateQueueItem(c *gin.Context) {
	var payload struct {
		Mode    *string `json:"mode"`
		AddedBy *string `json:"added_by"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	patch := orchestrator.QueuePatch{AddedBy: payload.AddedBy}
	if payload.Mode != nil {
		mode := models.OrderMode(*payload.Mode)
		if !mode.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown order mode"})
			return
		}
		patch.Mode = &mode
	}

	h.manager.Queue().Update(c.Param("dealershipId"), patch)
	c.JSON(http.StatusOK, gin.H{"message": "queue item updated"})
}

// StartSession drains the queue into a new session and starts processing in
// the background.
func (h *OrderHandler) StartSession(c *gin.Context) {
	seq, err := h.manager.StartSession()
	if err != nil {
		h.abortWith(c, err)
		return
	}

	h.audit(&seq.ID, "", "session_start", "", "")
	c.JSON(http.StatusAccepted, gin.H{
		"session_id": seq.ID.String(),
		"status":     seq.Status(),
	})
}

// ListSessions reports the status of every live session.
func (h *OrderHandler) ListSessions(c *gin.Context) {
	seqs := h.manager.List()
	statuses := make([]orchestrator.Status, 0, len(seqs))
	for _, seq := range seqs {
		statuses = append(statuses, seq.Status())
	}
	c.JSON(http.StatusOK, gin.H{"sessions": statuses})
}

func (h *OrderHandler) session(c *gin.Context) (*orchestrator.Sequencer, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return nil, false
	}
	seq, err := h.manager.Get(id)
	if err != nil {
		h.abortWith(c, err)
		return nil, false
	}
	return seq, true
}

// GetSession reports the stage, the dealership awaiting manual entry if any,
// and the running totals.
func (h *OrderHandler) GetSession(c *gin.Context) {
	seq, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, seq.Status())
}

// GetSessionEvents exposes the progress event stream, in arrival order.
func (h *OrderHandler) GetSessionEvents(c *gin.Context) {
	seq, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": seq.Events()})
}

// SubmitManual hands a manual-entry text block to the session. A batch with
// parse errors is rejected whole so nothing is silently dropped.
func (h *OrderHandler) SubmitManual(c *gin.Context) {
	seq, ok := h.session(c)
	if !ok {
		return
	}

	var payload struct {
		DealershipID string `json:"dealership_id"`
		Text         string `json:"text"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	batch, err := seq.SubmitManual(payload.DealershipID, payload.Text)
	if err != nil {
		c.JSON(statusFor(err), gin.H{
			"error":        err.Error(),
			"parse_errors": batch.ParseErrors,
		})
		return
	}

	h.audit(&seq.ID, payload.DealershipID, "manual_submit", batch.OrderNumber, "")
	c.JSON(http.StatusOK, gin.H{
		"order_number": batch.OrderNumber,
		"vin_count":    len(batch.VINs),
		"warnings":     batch.Warnings,
	})
}

// Finalize stamps the session with a user-supplied order identifier.
func (h *OrderHandler) Finalize(c *gin.Context) {
	seq, ok := h.session(c)
	if !ok {
		return
	}

	var payload struct {
		OrderNumber string `json:"order_number"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if err := seq.Finalize(payload.OrderNumber); err != nil {
		h.abortWith(c, err)
		return
	}

	h.audit(&seq.ID, "", "finalize", payload.OrderNumber, "")
	c.JSON(http.StatusOK, seq.Status())
}

func (h *OrderHandler) CancelSession(c *gin.Context) {
	seq, ok := h.session(c)
	if !ok {
		return
	}
	if err := seq.Cancel(); err != nil {
		h.abortWith(c, err)
		return
	}

	h.audit(&seq.ID, "", "cancel", "", "")
	c.JSON(http.StatusOK, seq.Status())
}

// GetArtifact serializes the merged, editable record set as CSV.
func (h *OrderHandler) GetArtifact(c *gin.Context) {
	seq, ok := h.session(c)
	if !ok {
		return
	}

	records, err := seq.Records()
	if err != nil {
		h.abortWith(c, err)
		return
	}
	text, err := artifact.Serialize(records)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/csv", []byte(text))
}

// EditArtifact applies one field-level edit to the merged record set.
func (h *OrderHandler) EditArtifact(c *gin.Context) {
	seq, ok := h.session(c)
	if !ok {
		return
	}

	var payload struct {
		Index int    `json:"index"`
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if err := seq.EditRecord(payload.Index, payload.Field, payload.Value); err != nil {
		h.abortWith(c, err)
		return
	}

	h.audit(&seq.ID, "", "edit", payload.Field, "")
	c.JSON(http.StatusOK, gin.H{"message": "record updated"})
}

// SaveArtifact pushes the merged record set to the artifact store.
func (h *OrderHandler) SaveArtifact(c *gin.Context) {
	seq, ok := h.session(c)
	if !ok {
		return
	}

	records, err := seq.Records()
	if err != nil {
		h.abortWith(c, err)
		return
	}

	ref := "session-" + seq.ID.String() + ".csv"
	if err := h.codec.Save(c.Request.Context(), ref, records); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"artifact_ref": ref})
}
