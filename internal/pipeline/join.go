package pipeline

import (
	"go.uber.org/zap"

	"github.com/civitas-analytics/ems-response-atlas/internal/model"
)

// JoinDistricts left-joins aggregates and demographics onto district
// geometry. Districts with no matching aggregate keep their geometry with a
// nil aggregate; aggregate or demographic rows keyed to an unknown district
// have no geometry to attach to and are logged, not treated as errors.
func JoinDistricts(districts []model.District, aggs []model.DistrictAggregate, demos []model.DemographicRecord) []model.DistrictStats {
	aggByID := make(map[string]model.DistrictAggregate, len(aggs))
	for _, a := range aggs {
		aggByID[a.DistrictID] = a
	}
	demoByID := make(map[string]model.DemographicRecord, len(demos))
	for _, d := range demos {
		demoByID[d.DistrictID] = d
	}

	known := make(map[string]bool, len(districts))
	stats := make([]model.DistrictStats, 0, len(districts))

	for _, d := range districts {
		known[d.ID] = true
		row := model.DistrictStats{District: d}
		if a, ok := aggByID[d.ID]; ok {
			agg := a
			row.Aggregate = &agg
		}
		if dm, ok := demoByID[d.ID]; ok {
			demo := dm
			row.Demographics = &demo
		}
		stats = append(stats, row)
	}

	for _, a := range aggs {
		if !known[a.DistrictID] {
			zap.L().Warn("pipeline: aggregate for unknown district",
				zap.String("district_id", a.DistrictID),
				zap.Int("response_count", a.ResponseCount),
			)
		}
	}
	for _, d := range demos {
		if !known[d.DistrictID] {
			zap.L().Warn("pipeline: demographics for unknown district",
				zap.String("district_id", d.DistrictID),
			)
		}
	}

	return stats
}
