package dataset

import (
	"io"
	"math"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/civitas-analytics/ems-response-atlas/internal/fetcher"
	"github.com/civitas-analytics/ems-response-atlas/internal/model"
)

// Candidate column names in the incident export.
var (
	incidentDistrictCols = []string{"council_district", "district", "district_id"}
	incidentTravelCols   = []string{"travel_time_seconds", "travel_time", "travel_seconds"}
)

// ParseIncidents reads the incident CSV. Rows are returned raw: a missing
// district is the empty string and a missing or unparsable travel time is
// NaN. Dropping incomplete rows is the cleaning stage's job, so counts of
// retained versus dropped records stay observable there.
func ParseIncidents(r io.Reader) ([]model.Incident, error) {
	tbl, err := fetcher.ParseCSV(r)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: parse incidents")
	}

	districtCol, ok := firstColumn(tbl, incidentDistrictCols)
	if !ok {
		return nil, eris.Errorf("dataset: incident table missing district column (looked for %v)", incidentDistrictCols)
	}
	travelCol, ok := firstColumn(tbl, incidentTravelCols)
	if !ok {
		return nil, eris.Errorf("dataset: incident table missing travel time column (looked for %v)", incidentTravelCols)
	}

	incidents := make([]model.Incident, 0, len(tbl.Rows))
	for _, row := range tbl.Rows {
		inc := model.Incident{
			DistrictID:    tbl.Field(row, districtCol),
			TravelSeconds: math.NaN(),
		}
		if raw := tbl.Field(row, travelCol); raw != "" {
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				inc.TravelSeconds = v
			}
		}
		incidents = append(incidents, inc)
	}

	return incidents, nil
}

// firstColumn returns the first candidate column present in the table.
func firstColumn(tbl *fetcher.Table, candidates []string) (string, bool) {
	for _, c := range candidates {
		if tbl.HasColumn(c) {
			return c, true
		}
	}
	return "", false
}
