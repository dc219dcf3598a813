package pipeline

import (
	"github.com/civitas-analytics/ems-response-atlas/internal/model"
)

// MetricFn extracts a metric value from a joined district row. The second
// return is false when the row has no value for the metric (for example a
// district with no incidents).
type MetricFn func(*model.DistrictStats) (float64, bool)

// MetricAvgResponse reads the mean travel time in seconds.
func MetricAvgResponse(d *model.DistrictStats) (float64, bool) {
	if d.Aggregate == nil {
		return 0, false
	}
	return d.Aggregate.AvgResponseSeconds, true
}

// MetricNonCompProp reads the non-compliance proportion.
func MetricNonCompProp(d *model.DistrictStats) (float64, bool) {
	if d.Aggregate == nil {
		return 0, false
	}
	return d.Aggregate.NonCompProp, true
}

// MetricResponseCount reads the incident count.
func MetricResponseCount(d *model.DistrictStats) (float64, bool) {
	if d.Aggregate == nil {
		return 0, false
	}
	return float64(d.Aggregate.ResponseCount), true
}

// MetricMedianIncome reads the median household income.
func MetricMedianIncome(d *model.DistrictStats) (float64, bool) {
	if d.Demographics == nil {
		return 0, false
	}
	return d.Demographics.MedianHHIncome, true
}

// AnnotateMinMax finds the single extreme rows for a metric and returns
// exactly two rows, Max first then Min, carrying centroids for marker
// placement. Ties resolve to the first occurrence. Returns nil when no row
// has a value for the metric.
func AnnotateMinMax(stats []model.DistrictStats, metric MetricFn) []model.MinMaxRow {
	var maxRow, minRow *model.MinMaxRow

	for i := range stats {
		v, ok := metric(&stats[i])
		if !ok {
			continue
		}
		if maxRow == nil || v > maxRow.Value {
			maxRow = &model.MinMaxRow{
				DistrictID: stats[i].District.ID,
				Label:      "Max",
				Value:      v,
				Centroid:   stats[i].District.Centroid,
			}
		}
		if minRow == nil || v < minRow.Value {
			minRow = &model.MinMaxRow{
				DistrictID: stats[i].District.ID,
				Label:      "Min",
				Value:      v,
				Centroid:   stats[i].District.Centroid,
			}
		}
	}

	if maxRow == nil || minRow == nil {
		return nil
	}
	return []model.MinMaxRow{*maxRow, *minRow}
}
