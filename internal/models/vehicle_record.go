package models

import (
	"regexp"
	"strings"
)

// vinPattern is the 17-character VIN alphabet, which excludes I, O and Q.
var vinPattern = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)

const (
	SourceAutomated = "automated"
	SourceManual    = "manual"

	// UnknownField fills vehicle attributes a manual VIN entry cannot supply.
	UnknownField = "unknown"
)

// VehicleRecord is one vehicle line in an order. Fields are strings because
// records round-trip through the editable CSV artifact.
type VehicleRecord struct {
	VIN    string `json:"vin"`
	Year   string `json:"year"`
	Make   string `json:"make"`
	Model  string `json:"model"`
	Trim   string `json:"trim"`
	Stock  string `json:"stock"`
	Price  string `json:"price"`
	Source string `json:"source"`
}

// NormalizeVIN trims and upper-cases a candidate VIN.
func NormalizeVIN(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidVIN reports whether s normalizes to a well-formed 17-character VIN.
func ValidVIN(s string) bool {
	return vinPattern.MatchString(NormalizeVIN(s))
}

// NewManualVehicle builds the minimal record for a manually entered VIN.
// Attributes stay "unknown" until enriched through the artifact edit path.
func NewManualVehicle(vin string) VehicleRecord {
	return VehicleRecord{
		VIN:    NormalizeVIN(vin),
		Year:   UnknownField,
		Make:   UnknownField,
		Model:  UnknownField,
		Trim:   UnknownField,
		Stock:  UnknownField,
		Price:  UnknownField,
		Source: SourceManual,
	}
}
