package pipeline

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/civitas-analytics/ems-response-atlas/internal/model"
)

// Aggregate groups cleaned incidents by district and computes the response
// statistics. Input must already be cleaned: every row carries a district
// and a travel time, so each group has a positive count and the
// non-compliance proportion is always defined.
func Aggregate(incidents []model.Incident) []model.DistrictAggregate {
	travel := make(map[string][]float64)
	compliant := make(map[string]int)

	for _, inc := range incidents {
		travel[inc.DistrictID] = append(travel[inc.DistrictID], inc.TravelSeconds)
		if inc.Compliant {
			compliant[inc.DistrictID]++
		}
	}

	ids := make([]string, 0, len(travel))
	for id := range travel {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	aggs := make([]model.DistrictAggregate, 0, len(ids))
	for _, id := range ids {
		times := travel[id]
		count := len(times)
		comp := compliant[id]

		aggs = append(aggs, model.DistrictAggregate{
			DistrictID:         id,
			ResponseCount:      count,
			AvgResponseSeconds: stat.Mean(times, nil),
			CompliantCount:     comp,
			NonCompliantCount:  count - comp,
			NonCompProp:        float64(count-comp) / float64(count),
		})
	}

	return aggs
}
