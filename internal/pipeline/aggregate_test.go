package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civitas-analytics/ems-response-atlas/internal/model"
)

// syntheticIncidents builds n cleaned incidents for a district with the
// given number of compliant rows.
func syntheticIncidents(districtID string, total, compliant int) []model.Incident {
	out := make([]model.Incident, 0, total)
	for i := 0; i < total; i++ {
		inc := model.Incident{DistrictID: districtID, TravelSeconds: 900, Compliant: false}
		if i < compliant {
			inc.TravelSeconds = 300
			inc.Compliant = true
		}
		out = append(out, inc)
	}
	return out
}

func TestAggregateWorkedExample(t *testing.T) {
	// A: 100 responses, 80 compliant; B: 50 responses, 10 compliant.
	incidents := append(syntheticIncidents("A", 100, 80), syntheticIncidents("B", 50, 10)...)

	aggs := Aggregate(incidents)
	require.Len(t, aggs, 2)

	byID := make(map[string]model.DistrictAggregate)
	for _, a := range aggs {
		byID[a.DistrictID] = a
	}

	assert.Equal(t, 20, byID["A"].NonCompliantCount)
	assert.Equal(t, 40, byID["B"].NonCompliantCount)
	assert.InDelta(t, 0.2, byID["A"].NonCompProp, 1e-9)
	assert.InDelta(t, 0.8, byID["B"].NonCompProp, 1e-9)
}

func TestAggregateInvariants(t *testing.T) {
	incidents := append(syntheticIncidents("1", 37, 20), syntheticIncidents("2", 11, 11)...)
	incidents = append(incidents, syntheticIncidents("3", 5, 0)...)

	aggs := Aggregate(incidents)

	var total int
	for _, a := range aggs {
		assert.Equal(t, a.ResponseCount, a.CompliantCount+a.NonCompliantCount, a.DistrictID)
		assert.GreaterOrEqual(t, a.NonCompProp, 0.0)
		assert.LessOrEqual(t, a.NonCompProp, 1.0)
		total += a.ResponseCount
	}
	// Sum of per-district counts equals the cleaned incident count.
	assert.Equal(t, len(incidents), total)
}

func TestAggregateMeanTravel(t *testing.T) {
	incidents := []model.Incident{
		{DistrictID: "9", TravelSeconds: 100, Compliant: true},
		{DistrictID: "9", TravelSeconds: 200, Compliant: true},
		{DistrictID: "9", TravelSeconds: 600, Compliant: true},
	}

	aggs := Aggregate(incidents)
	require.Len(t, aggs, 1)
	assert.InDelta(t, 300.0, aggs[0].AvgResponseSeconds, 1e-9)
	assert.InDelta(t, 0.0, aggs[0].NonCompProp, 1e-9)
}

func TestAggregateDeterministicOrder(t *testing.T) {
	incidents := []model.Incident{
		{DistrictID: "b", TravelSeconds: 1, Compliant: true},
		{DistrictID: "a", TravelSeconds: 1, Compliant: true},
		{DistrictID: "c", TravelSeconds: 1, Compliant: true},
	}

	aggs := Aggregate(incidents)
	require.Len(t, aggs, 3)
	assert.Equal(t, "a", aggs[0].DistrictID)
	assert.Equal(t, "b", aggs[1].DistrictID)
	assert.Equal(t, "c", aggs[2].DistrictID)
}

func TestAggregateEmpty(t *testing.T) {
	assert.Empty(t, Aggregate(nil))
}
