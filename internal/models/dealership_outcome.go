package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DealershipOutcome is the in-flight processing result for one queue item.
type DealershipOutcome struct {
	DealershipID string          `json:"dealership_id"`
	Success      bool            `json:"success"`
	VehicleCount int             `json:"vehicle_count"`
	Vehicles     []VehicleRecord `json:"vehicles"`
	Error        string          `json:"error,omitempty"`
	ArtifactRef  string          `json:"artifact_ref,omitempty"`
}

// OutcomeRecord is the persisted form of a DealershipOutcome.
type OutcomeRecord struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	SessionID    uuid.UUID `gorm:"index"`
	DealershipID string    `gorm:"index"`
	Success      bool
	VehicleCount int
	Vehicles     datatypes.JSON
	Error        string
	ArtifactRef  string
	CreatedAt    time.Time
}

// Record converts an outcome into its persisted row for the given session.
func (o DealershipOutcome) Record(sessionID uuid.UUID) OutcomeRecord {
	vehicles, _ := json.Marshal(o.Vehicles)
	return OutcomeRecord{
		ID:           uuid.New(),
		SessionID:    sessionID,
		DealershipID: o.DealershipID,
		Success:      o.Success,
		VehicleCount: o.VehicleCount,
		Vehicles:     vehicles,
		Error:        o.Error,
		ArtifactRef:  o.ArtifactRef,
		CreatedAt:    time.Now(),
	}
}
