package repository

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"order-processing-backend/internal/models"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) DB() *gorm.DB {
	return r.db
}

// SaveCompleted persists a finalized session with its outcomes in one
// transaction.
func (r *SessionRepository) SaveCompleted(session *models.Session, errs []string, outcomes []models.OutcomeRecord) error {
	if errs == nil {
		errs = []string{}
	}
	errsJSON, err := json.Marshal(errs)
	if err != nil {
		return err
	}
	session.Errors = errsJSON

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(session).Error; err != nil {
			return err
		}
		if len(outcomes) > 0 {
			if err := tx.Create(&outcomes).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetSession fetches a persisted session by id.
func (r *SessionRepository) GetSession(id uuid.UUID) (*models.Session, error) {
	var session models.Session
	if err := r.db.First(&session, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// ListOutcomes returns the persisted outcomes for a session, oldest first.
func (r *SessionRepository) ListOutcomes(sessionID uuid.UUID) ([]models.OutcomeRecord, error) {
	var outcomes []models.OutcomeRecord
	err := r.db.Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&outcomes).Error
	return outcomes, err
}

// AppendAudit writes one audit row. Audit failures are the caller's to log;
// they never block the operation being audited.
func (r *SessionRepository) AppendAudit(entry models.OrderAuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.db.Create(&entry).Error
}
