// Package pipeline holds the pure stage functions of the analysis: cleaning,
// aggregation, spatial join, min/max annotation, and bivariate
// classification. Each stage maps one immutable snapshot to the next.
package pipeline

import (
	"math"

	"go.uber.org/zap"

	"github.com/civitas-analytics/ems-response-atlas/internal/model"
)

// Clean drops incident rows with a missing district or travel time and
// derives the compliance flag against the response goal. Retaining only
// complete rows is a hard precondition for every downstream stage.
func Clean(incidents []model.Incident, goalSeconds float64) []model.Incident {
	cleaned := make([]model.Incident, 0, len(incidents))
	var dropped int

	for _, inc := range incidents {
		if inc.DistrictID == "" || math.IsNaN(inc.TravelSeconds) {
			dropped++
			continue
		}
		inc.Compliant = inc.TravelSeconds <= goalSeconds
		cleaned = append(cleaned, inc)
	}

	if dropped > 0 {
		zap.L().Info("pipeline: dropped incomplete incident rows",
			zap.Int("dropped", dropped),
			zap.Int("retained", len(cleaned)),
		)
	}

	return cleaned
}
