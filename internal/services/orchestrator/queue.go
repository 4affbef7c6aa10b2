package orchestrator

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"order-processing-backend/internal/models"
	"order-processing-backend/internal/repository"
)

// QueueStore holds the pending work items keyed by dealership identity.
// All mutation goes through one mutex; insertion order is preserved for
// display. Persistence is write-through when a repository is configured
// (nil db is fine, used by tests).
type QueueStore struct {
	mu     sync.Mutex
	items  []models.QueueItem
	index  map[string]int
	repo   *repository.QueueRepository
	logger *slog.Logger
}

func NewQueueStore(repo *repository.QueueRepository, logger *slog.Logger) *QueueStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueueStore{
		index:  make(map[string]int),
		repo:   repo,
		logger: logger,
	}
}

// Load hydrates the in-memory queue from the database, oldest first.
func (s *QueueStore) Load() error {
	if s.repo == nil {
		return nil
	}
	items, err := s.repo.List()
	if err != nil {
		return fmt.Errorf("load queue: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	s.index = make(map[string]int, len(items))
	for i, item := range items {
		s.index[item.DealershipID] = i
	}
	return nil
}

// Add inserts a new queue item and reports whether it was inserted.
// Re-adding an existing dealership is a no-op, not a duplicate and not an
// error; the original item's fields are untouched.
func (s *QueueStore) Add(item models.QueueItem) (bool, error) {
	if item.DealershipID == "" {
		return false, fmt.Errorf("%w: dealership id is required", ErrValidation)
	}
	if !item.Mode.IsValid() {
		return false, fmt.Errorf("%w: unknown order mode %q", ErrValidation, item.Mode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.index[item.DealershipID]; exists {
		return false, nil
	}

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}

	s.index[item.DealershipID] = len(s.items)
	s.items = append(s.items, item)

	if s.repo != nil {
		if _, err := s.repo.Insert(&item); err != nil {
			s.logger.Warn("queue write-through failed", "dealership", item.DealershipID, "error", err)
		}
	}
	return true, nil
}

// Remove drops the item for a dealership. Unknown ids are ignored.
func (s *QueueStore) Remove(dealershipID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[dealershipID]
	if !ok {
		return
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.reindexLocked()

	if s.repo != nil {
		if err := s.repo.Delete(dealershipID); err != nil {
			s.logger.Warn("queue delete failed", "dealership", dealershipID, "error", err)
		}
	}
}

// QueuePatch carries the updatable fields of a queue item.
type QueuePatch struct {
	Mode    *models.OrderMode
	AddedBy *string
}

// Update patches an existing item. A missing id fails silently, logged, so a
// stale UI cannot corrupt the queue.
func (s *QueueStore) Update(dealershipID string, patch QueuePatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[dealershipID]
	if !ok {
		s.logger.Warn("update for unknown queue item ignored", "dealership", dealershipID)
		return
	}
	if patch.Mode != nil && patch.Mode.IsValid() {
		s.items[i].Mode = *patch.Mode
	}
	if patch.AddedBy != nil {
		s.items[i].AddedBy = *patch.AddedBy
	}

	if s.repo != nil {
		fields := map[string]any{}
		if patch.Mode != nil && patch.Mode.IsValid() {
			fields["mode"] = *patch.Mode
		}
		if patch.AddedBy != nil {
			fields["added_by"] = *patch.AddedBy
		}
		if len(fields) > 0 {
			if _, err := s.repo.UpdateFields(dealershipID, fields); err != nil {
				s.logger.Warn("queue update failed", "dealership", dealershipID, "error", err)
			}
		}
	}
}

// Items returns a copy of the queue in insertion order.
func (s *QueueStore) Items() []models.QueueItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.QueueItem, len(s.items))
	copy(out, s.items)
	return out
}

// Len reports the number of pending items.
func (s *QueueStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// DrainAll empties the queue and returns the snapshot. It is the only way
// items leave the store en masse; the snapshot becomes the session's work set.
func (s *QueueStore) DrainAll() []models.QueueItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.items
	s.items = nil
	s.index = make(map[string]int)

	if s.repo != nil {
		if err := s.repo.DeleteAll(); err != nil {
			s.logger.Warn("queue drain persistence failed", "error", err)
		}
	}
	return out
}

func (s *QueueStore) reindexLocked() {
	s.index = make(map[string]int, len(s.items))
	for i, item := range s.items {
		s.index[item.DealershipID] = i
	}
}
