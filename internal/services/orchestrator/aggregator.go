package orchestrator

import (
	"slices"

	"order-processing-backend/internal/models"
	"order-processing-backend/internal/services/vinparse"
)

// Aggregator merges automated results and manually entered VIN batches into
// one vehicle record set per dealership. Merge is pure: session totals are
// incremented exactly once, when the outcome is recorded, never here.
type Aggregator struct {
	// dedupeHybrid drops manual VINs already present in the automated result
	// for the same dealership. Off by default: a VIN appearing in both sets
	// is intentionally kept twice (manual entries can represent physically
	// separate install events).
	dedupeHybrid bool
}

func NewAggregator(dedupeHybrid bool) *Aggregator {
	return &Aggregator{dedupeHybrid: dedupeHybrid}
}

// Merge combines whichever of the two sources exist for a dealership.
// Automated-only passes through with source tags intact; manual-only builds
// minimal records; hybrid concatenates, preserving both source tags and the
// automated-side error, so an automated failure never loses manual data.
func (a *Aggregator) Merge(dealershipID string, automated *models.DealershipOutcome, manual *vinparse.Batch) models.DealershipOutcome {
	out := models.DealershipOutcome{
		DealershipID: dealershipID,
		Success:      true,
	}

	if automated != nil {
		out = *automated
		out.DealershipID = dealershipID
		out.Vehicles = slices.Clone(automated.Vehicles)
		for i := range out.Vehicles {
			if out.Vehicles[i].Source == "" {
				out.Vehicles[i].Source = models.SourceAutomated
			}
		}
	}

	if manual != nil {
		existing := map[string]bool{}
		if a.dedupeHybrid {
			for _, v := range out.Vehicles {
				existing[v.VIN] = true
			}
		}
		added := 0
		for _, vin := range manual.VINs {
			rec := models.NewManualVehicle(vin)
			if a.dedupeHybrid && existing[rec.VIN] {
				continue
			}
			out.Vehicles = append(out.Vehicles, rec)
			added++
		}
		out.VehicleCount += added
	}

	return out
}
