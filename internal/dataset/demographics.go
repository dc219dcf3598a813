package dataset

import (
	"io"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/civitas-analytics/ems-response-atlas/internal/fetcher"
	"github.com/civitas-analytics/ems-response-atlas/internal/model"
)

// ParseDemographics reads the district demographics CSV. All three
// attribute columns are required; rows with an empty district key are
// skipped.
func ParseDemographics(r io.Reader) ([]model.DemographicRecord, error) {
	tbl, err := fetcher.ParseCSV(r)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: parse demographics")
	}

	districtCol, ok := firstColumn(tbl, incidentDistrictCols)
	if !ok {
		return nil, eris.Errorf("dataset: demographics table missing district column (looked for %v)", incidentDistrictCols)
	}
	if err := tbl.RequireColumns("population", "prop_age_85_plus", "median_hh_income"); err != nil {
		return nil, eris.Wrap(err, "dataset: demographics schema")
	}

	var records []model.DemographicRecord
	for _, row := range tbl.Rows {
		id := tbl.Field(row, districtCol)
		if id == "" {
			continue
		}

		rec := model.DemographicRecord{DistrictID: id}
		if v, err := strconv.Atoi(tbl.Field(row, "population")); err == nil {
			rec.Population = v
		}
		if v, err := strconv.ParseFloat(tbl.Field(row, "prop_age_85_plus"), 64); err == nil {
			rec.PropAge85Plus = v
		}
		if v, err := strconv.ParseFloat(tbl.Field(row, "median_hh_income"), 64); err == nil {
			rec.MedianHHIncome = v
		}
		records = append(records, rec)
	}

	return records, nil
}
