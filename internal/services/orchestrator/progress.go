package orchestrator

import (
	"fmt"
	"log/slog"
	"sync"

	"order-processing-backend/internal/models"
)

// EventType enumerates the progress event vocabulary.
type EventType string

const (
	EventSessionStart    EventType = "session_start"
	EventItemStart       EventType = "item_start"
	EventItemProgress    EventType = "item_progress"
	EventItemComplete    EventType = "item_complete"
	EventSessionComplete EventType = "session_complete"
)

// Event is one progress/result notification from the session goroutine.
type Event struct {
	Type       EventType                  `json:"type"`
	ID         string                     `json:"id,omitempty"` // dealership id
	Detail     string                     `json:"detail,omitempty"`
	TotalItems int                        `json:"total_items,omitempty"`
	Outcome    *models.DealershipOutcome  `json:"outcome,omitempty"`
	// Automated marks whether an automated processing attempt was made for
	// the item; manual-only items do not count toward processed.
	Automated bool `json:"automated,omitempty"`
}

// ProgressSink consumes progress events and exposes the aggregate session
// counters. It tolerates out-of-order and duplicate delivery: a late
// ItemProgress after ItemComplete is ignored, and a duplicate ItemComplete
// never double-counts.
type ProgressSink struct {
	mu        sync.Mutex
	totals    models.SessionTotals
	completed map[string]bool
	events    []Event
	frozen    bool
	logger    *slog.Logger
}

func NewProgressSink(logger *slog.Logger) *ProgressSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressSink{
		completed: make(map[string]bool),
		totals:    models.SessionTotals{Errors: []string{}},
		logger:    logger,
	}
}

// Publish consumes one event. Safe to call from any goroutine.
func (s *ProgressSink) Publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen {
		return
	}

	switch ev.Type {
	case EventSessionStart:
		s.totals.TotalItems = ev.TotalItems
		s.logger.Info("session started", "total_items", ev.TotalItems)

	case EventItemStart:
		s.logger.Info("processing item", "dealership", ev.ID)

	case EventItemProgress:
		if s.completed[ev.ID] {
			// The remote call may emit a final tick after its completion
			// signal; drop it rather than treating it as an error.
			return
		}
		s.logger.Debug("item progress", "dealership", ev.ID, "detail", ev.Detail)

	case EventItemComplete:
		if s.completed[ev.ID] {
			return
		}
		s.completed[ev.ID] = true
		if ev.Outcome != nil {
			s.applyOutcomeLocked(ev.ID, *ev.Outcome, ev.Automated)
		}

	case EventSessionComplete:
		s.logger.Info("session complete",
			"processed", s.totals.Processed,
			"succeeded", s.totals.Succeeded,
			"failed", s.totals.Failed,
			"total_vehicles", s.totals.TotalVehicles,
			"errors", len(s.totals.Errors))
	}

	s.events = append(s.events, ev)
}

func (s *ProgressSink) applyOutcomeLocked(id string, outcome models.DealershipOutcome, automated bool) {
	s.totals.TotalVehicles += outcome.VehicleCount
	if automated {
		s.totals.Processed++
		if outcome.Success {
			s.totals.Succeeded++
		} else {
			s.totals.Failed++
		}
	}
	if outcome.Error != "" {
		s.totals.Errors = append(s.totals.Errors, fmt.Sprintf("%s: %s", id, outcome.Error))
	}
}

// Snapshot returns a copy of the current totals.
func (s *ProgressSink) Snapshot() models.SessionTotals {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.totals
	out.Errors = append([]string{}, s.totals.Errors...)
	return out
}

// Events returns a copy of the consumed event stream, in arrival order.
func (s *ProgressSink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Freeze stops all further mutation. Called on session cancellation so that
// in-flight call results cannot touch the totals.
func (s *ProgressSink) Freeze() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frozen = true
}
