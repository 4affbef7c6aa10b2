package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Session struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Stage         string    `gorm:"index"`
	OrderNumber   string
	TotalItems    int
	Processed     int
	Succeeded     int
	Failed        int
	TotalVehicles int
	Errors        datatypes.JSON
	StartedAt     time.Time
	CompletedAt   *time.Time
	CreatedAt     time.Time
}

// SessionTotals is the live counter snapshot exposed while a session runs.
// Processed counts automated processing attempts only; succeeded + failed
// always equals processed once the automated phase is done.
type SessionTotals struct {
	TotalItems    int      `json:"total_items"`
	Processed     int      `json:"processed"`
	Succeeded     int      `json:"succeeded"`
	Failed        int      `json:"failed"`
	TotalVehicles int      `json:"total_vehicles"`
	Errors        []string `json:"errors"`
}
