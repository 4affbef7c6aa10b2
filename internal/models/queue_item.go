package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderMode classifies how a dealership's order gets its vehicle list.
type OrderMode string

const (
	// ModeAutomated (CAO) needs no manual VIN entry.
	ModeAutomated OrderMode = "AUTOMATED"
	// ModeManual (LIST) requires a human-supplied VIN list.
	ModeManual OrderMode = "MANUAL"
	// ModeHybrid (MAINTENANCE) combines an automated result with manual VINs.
	ModeHybrid OrderMode = "HYBRID"
)

func (m OrderMode) String() string { return string(m) }

func (m OrderMode) IsValid() bool {
	switch m {
	case ModeAutomated, ModeManual, ModeHybrid:
		return true
	}
	return false
}

// NeedsAutomated reports whether the mode includes an automated processing call.
func (m OrderMode) NeedsAutomated() bool {
	return m == ModeAutomated || m == ModeHybrid
}

// NeedsManual reports whether the mode includes a manual VIN entry step.
func (m OrderMode) NeedsManual() bool {
	return m == ModeManual || m == ModeHybrid
}

type QueueItem struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	DealershipID string    `gorm:"uniqueIndex"`
	Mode         OrderMode `gorm:"type:varchar(16);index"`
	AddedBy      string
	CreatedAt    time.Time
}
