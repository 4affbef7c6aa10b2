package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"order-processing-backend/internal/models"
	"order-processing-backend/internal/repository"
	"order-processing-backend/internal/services/artifact"
	"order-processing-backend/internal/services/vinparse"
)

// Stage is one step of the session wizard.
type Stage string

const (
	StageInitialize  Stage = "INITIALIZE"
	StageAutomated   Stage = "AUTOMATED"
	StageManualEntry Stage = "MANUAL_ENTRY"
	StageReview      Stage = "REVIEW"
	StageFinalize    Stage = "FINALIZE"
	StageComplete    Stage = "COMPLETE"
)

// OrderProcessor is the boundary to the automated processing service.
type OrderProcessor interface {
	Process(ctx context.Context, dealershipID string) models.DealershipOutcome
}

// Sequencer drives one session over a queue snapshot, from Initialize to
// Complete. Items are processed strictly sequentially: one remote call in
// flight, one manual-entry prompt at a time. The session goroutine is the
// only writer of sequencing state; everything readable from the API goes
// through the mutex.
type Sequencer struct {
	ID uuid.UUID

	mu         sync.Mutex
	stage      Stage
	items      []models.QueueItem
	outcomes   map[string]models.DealershipOutcome
	order      []string
	records    []models.VehicleRecord
	awaiting   string
	awaitingCh chan vinparse.Batch
	orderNum   string
	startedAt  time.Time

	processor OrderProcessor
	agg       *Aggregator
	sink      *ProgressSink
	repo      *repository.SessionRepository
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func newSequencer(items []models.QueueItem, processor OrderProcessor, agg *Aggregator,
	repo *repository.SessionRepository, logger *slog.Logger) *Sequencer {

	ctx, cancel := context.WithCancel(context.Background())
	return &Sequencer{
		ID:        uuid.New(),
		stage:     StageInitialize,
		items:     items,
		outcomes:  make(map[string]models.DealershipOutcome),
		startedAt: time.Now(),
		processor: processor,
		agg:       agg,
		sink:      NewProgressSink(logger),
		repo:      repo,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// run is the session goroutine. Automated-only items are processed first;
// then every item needing manual entry, in queue order. For HYBRID items the
// automated sub-call runs first and the manual step follows regardless of
// the call's result, so manual data is never lost to an automated failure.
func (s *Sequencer) run() {
	defer close(s.done)

	s.sink.Publish(Event{Type: EventSessionStart, TotalItems: len(s.items)})
	s.setStage(StageAutomated)

	var manualItems []models.QueueItem
	for _, item := range s.items {
		if item.Mode == models.ModeAutomated {
			if s.cancelled() {
				return
			}
			out := s.processAutomated(item.DealershipID)
			if s.cancelled() {
				// In-flight result discarded on cancellation.
				return
			}
			merged := s.agg.Merge(item.DealershipID, &out, nil)
			s.recordOutcome(item.DealershipID, merged, true)
		} else {
			manualItems = append(manualItems, item)
		}
	}

	if len(manualItems) > 0 {
		s.setStage(StageManualEntry)
		for _, item := range manualItems {
			if s.cancelled() {
				return
			}

			var automated *models.DealershipOutcome
			if item.Mode.NeedsAutomated() {
				out := s.processAutomated(item.DealershipID)
				if s.cancelled() {
					return
				}
				automated = &out
			}

			batch, ok := s.awaitManual(item.DealershipID)
			if !ok {
				return
			}

			merged := s.agg.Merge(item.DealershipID, automated, &batch)
			s.recordOutcome(item.DealershipID, merged, automated != nil)
		}
	}

	s.enterReview()
}

func (s *Sequencer) processAutomated(dealershipID string) models.DealershipOutcome {
	s.sink.Publish(Event{Type: EventItemStart, ID: dealershipID})
	out := s.processor.Process(s.ctx, dealershipID)
	if !out.Success {
		s.logger.Warn("automated processing failed",
			"session", s.ID, "dealership", dealershipID, "error", out.Error)
	}
	return out
}

// awaitManual parks the session until a manual batch arrives for the given
// dealership, or the session is cancelled.
func (s *Sequencer) awaitManual(dealershipID string) (vinparse.Batch, bool) {
	ch := make(chan vinparse.Batch, 1)
	s.mu.Lock()
	s.awaiting = dealershipID
	s.awaitingCh = ch
	s.mu.Unlock()

	select {
	case batch := <-ch:
		s.mu.Lock()
		s.awaiting = ""
		s.awaitingCh = nil
		s.mu.Unlock()
		return batch, true
	case <-s.ctx.Done():
		return vinparse.Batch{}, false
	}
}

// recordOutcome stores the merged outcome and routes it through the progress
// sink. Recording is exactly-once per dealership, which keeps the totals
// idempotent no matter how merge results are replayed.
func (s *Sequencer) recordOutcome(dealershipID string, outcome models.DealershipOutcome, automated bool) {
	s.mu.Lock()
	if _, dup := s.outcomes[dealershipID]; dup {
		s.mu.Unlock()
		return
	}
	s.outcomes[dealershipID] = outcome
	s.order = append(s.order, dealershipID)
	s.mu.Unlock()

	s.sink.Publish(Event{Type: EventItemComplete, ID: dealershipID, Outcome: &outcome, Automated: automated})
}

// enterReview materializes the editable merged record set.
func (s *Sequencer) enterReview() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	for _, id := range s.order {
		s.records = append(s.records, s.outcomes[id].Vehicles...)
	}
	s.stage = StageReview
}

// SubmitManual parses a manual-entry text block and hands it to the session,
// which must currently be awaiting entry for exactly this dealership. A batch
// with parse errors is rejected whole, so no line is silently dropped; the
// submitter fixes the input and retries. Warnings (duplicates, conflicting
// order numbers) do not block.
func (s *Sequencer) SubmitManual(dealershipID, text string) (vinparse.Batch, error) {
	batch := vinparse.Parse(text)
	if len(batch.ParseErrors) > 0 {
		return batch, fmt.Errorf("%w: %s", ErrValidation, strings.Join(batch.ParseErrors, "; "))
	}

	s.mu.Lock()
	if s.stage != StageManualEntry || s.awaiting != dealershipID || s.awaitingCh == nil {
		awaiting := s.awaiting
		s.mu.Unlock()
		if awaiting == "" {
			return batch, fmt.Errorf("%w: no manual entry expected", ErrWrongStage)
		}
		return batch, fmt.Errorf("%w: awaiting manual entry for %q, got %q", ErrWrongStage, awaiting, dealershipID)
	}
	ch := s.awaitingCh
	s.awaitingCh = nil // claim, so a double submit is rejected
	s.mu.Unlock()

	ch <- batch
	return batch, nil
}

// Finalize stamps the session with a user-supplied order identifier and
// persists it. An empty identifier keeps the session in REVIEW.
func (s *Sequencer) Finalize(orderNumber string) error {
	orderNumber = strings.TrimSpace(orderNumber)

	s.mu.Lock()
	if s.stage != StageReview {
		stage := s.stage
		s.mu.Unlock()
		return fmt.Errorf("%w: finalize requires REVIEW, session is %s", ErrWrongStage, stage)
	}
	if orderNumber == "" {
		s.mu.Unlock()
		return fmt.Errorf("%w: order identifier is required", ErrValidation)
	}
	s.stage = StageFinalize
	s.orderNum = orderNumber
	s.mu.Unlock()

	if err := s.persist(); err != nil {
		// Back to REVIEW so the caller can retry.
		s.mu.Lock()
		s.stage = StageReview
		s.mu.Unlock()
		return fmt.Errorf("%w: persist session: %v", ErrFatal, err)
	}

	s.sink.Publish(Event{Type: EventSessionComplete})

	s.mu.Lock()
	s.stage = StageComplete
	s.mu.Unlock()
	return nil
}

func (s *Sequencer) persist() error {
	if s.repo == nil {
		return nil
	}

	totals := s.sink.Snapshot()
	now := time.Now()

	s.mu.Lock()
	session := models.Session{
		ID:            s.ID,
		Stage:         string(StageComplete),
		OrderNumber:   s.orderNum,
		TotalItems:    totals.TotalItems,
		Processed:     totals.Processed,
		Succeeded:     totals.Succeeded,
		Failed:        totals.Failed,
		TotalVehicles: totals.TotalVehicles,
		StartedAt:     s.startedAt,
		CompletedAt:   &now,
		CreatedAt:     s.startedAt,
	}
	outcomes := make([]models.OutcomeRecord, 0, len(s.order))
	for _, id := range s.order {
		outcomes = append(outcomes, s.outcomes[id].Record(s.ID))
	}
	s.mu.Unlock()

	return s.repo.SaveCompleted(&session, totals.Errors, outcomes)
}

// Cancel aborts the session at any suspension point. In-flight calls may
// complete but their results are discarded; totals are frozen; the wizard
// resets to INITIALIZE with no partial carry-over.
func (s *Sequencer) Cancel() error {
	s.mu.Lock()
	if s.stage == StageComplete {
		s.mu.Unlock()
		return fmt.Errorf("%w: session already complete", ErrWrongStage)
	}
	s.mu.Unlock()

	s.sink.Freeze()
	s.cancel()
	<-s.done

	s.mu.Lock()
	s.stage = StageInitialize
	s.outcomes = make(map[string]models.DealershipOutcome)
	s.order = nil
	s.records = nil
	s.awaiting = ""
	s.awaitingCh = nil
	s.mu.Unlock()

	s.logger.Info("session cancelled", "session", s.ID)
	return nil
}

// Status is the snapshot the API and CLI render.
type Status struct {
	SessionID      uuid.UUID            `json:"session_id"`
	Stage          Stage                `json:"stage"`
	AwaitingManual string               `json:"awaiting_manual,omitempty"`
	OrderNumber    string               `json:"order_number,omitempty"`
	Totals         models.SessionTotals `json:"totals"`
}

func (s *Sequencer) Status() Status {
	s.mu.Lock()
	st := Status{
		SessionID:      s.ID,
		Stage:          s.stage,
		AwaitingManual: s.awaiting,
		OrderNumber:    s.orderNum,
	}
	s.mu.Unlock()

	st.Totals = s.sink.Snapshot()
	return st
}

// Records returns the editable merged record set. Only meaningful from
// REVIEW onward.
func (s *Sequencer) Records() ([]models.VehicleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stage != StageReview && s.stage != StageFinalize && s.stage != StageComplete {
		return nil, fmt.Errorf("%w: records are available from REVIEW, session is %s", ErrWrongStage, s.stage)
	}
	out := make([]models.VehicleRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// EditRecord applies one field-level edit to the merged record set.
func (s *Sequencer) EditRecord(index int, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stage != StageReview {
		return fmt.Errorf("%w: edits require REVIEW, session is %s", ErrWrongStage, s.stage)
	}
	edited, err := artifact.ApplyEdit(s.records, index, field, value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	s.records = edited
	return nil
}

// Events exposes the progress event stream.
func (s *Sequencer) Events() []Event {
	return s.sink.Events()
}

// Done reports session goroutine completion, for tests and shutdown.
func (s *Sequencer) Done() <-chan struct{} {
	return s.done
}

func (s *Sequencer) setStage(stage Stage) {
	s.mu.Lock()
	s.stage = stage
	s.mu.Unlock()
}

func (s *Sequencer) cancelled() bool {
	select {
	case <-s.ctx.Done():
		return true
	default:
		return false
	}
}
