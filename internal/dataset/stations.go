package dataset

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/civitas-analytics/ems-response-atlas/internal/model"
)

var (
	stationNameFields     = []string{"name", "station_name", "station"}
	stationCategoryFields = []string{"category", "type", "station_type"}
)

// LoadStations reads a fire-station point shapefile. Non-point records are
// skipped and counted.
func LoadStations(shpPath string) ([]model.FireStation, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open station shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	fieldIdx := indexFields(reader.Fields())
	nameIdx, hasName := firstField(fieldIdx, stationNameFields)
	catIdx, hasCat := firstField(fieldIdx, stationCategoryFields)

	var stations []model.FireStation
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()

		pt, ok := shape.(*shp.Point)
		if !ok {
			skipped++
			continue
		}

		st := model.FireStation{Location: geom.Coord{pt.X, pt.Y}}
		if hasName {
			st.Name = attribute(reader, nameIdx)
		}
		if hasCat {
			st.Category = attribute(reader, catIdx)
		}
		stations = append(stations, st)
	}

	if skipped > 0 {
		zap.L().Warn("dataset: skipped station records",
			zap.String("path", shpPath),
			zap.Int("skipped", skipped),
		)
	}

	return stations, nil
}
