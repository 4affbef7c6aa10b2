package orchestrator

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"order-processing-backend/internal/repository"
)

// Manager owns the queue and the live sessions. One session runs over one
// queue snapshot; starting a session drains the queue.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Sequencer

	queue        *QueueStore
	processor    OrderProcessor
	repo         *repository.SessionRepository
	dedupeHybrid bool
	logger       *slog.Logger
}

func NewManager(queue *QueueStore, processor OrderProcessor, repo *repository.SessionRepository,
	dedupeHybrid bool, logger *slog.Logger) *Manager {

	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions:     make(map[uuid.UUID]*Sequencer),
		queue:        queue,
		processor:    processor,
		repo:         repo,
		dedupeHybrid: dedupeHybrid,
		logger:       logger,
	}
}

// Queue exposes the pending-work store.
func (m *Manager) Queue() *QueueStore {
	return m.queue
}

// StartSession drains the queue into a new session and launches its
// goroutine. An empty queue is a validation error, not an empty session.
func (m *Manager) StartSession() (*Sequencer, error) {
	items := m.queue.DrainAll()
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: queue is empty", ErrValidation)
	}

	seq := newSequencer(items, m.processor, NewAggregator(m.dedupeHybrid), m.repo, m.logger)

	m.mu.Lock()
	m.sessions[seq.ID] = seq
	m.mu.Unlock()

	m.logger.Info("session starting", "session", seq.ID, "items", len(items))
	go seq.run()
	return seq, nil
}

// Get returns a live session by id.
func (m *Manager) Get(id uuid.UUID) (*Sequencer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seq, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return seq, nil
}

// List returns every live session.
func (m *Manager) List() []*Sequencer {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Sequencer, 0, len(m.sessions))
	for _, seq := range m.sessions {
		out = append(out, seq)
	}
	return out
}
