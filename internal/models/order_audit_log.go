package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderAuditLog struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	SessionID    *uuid.UUID `gorm:"index"`
	DealershipID string     `gorm:"index"`
	Action       string
	Detail       string
	PerformedBy  string
	CreatedAt    time.Time
}
