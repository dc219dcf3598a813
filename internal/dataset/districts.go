package dataset

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/civitas-analytics/ems-response-atlas/internal/model"
)

// Candidate attribute names for the district key and display name. Open-data
// exports are not consistent about casing or naming.
var (
	districtIDFields   = []string{"district_id", "district", "council_district", "district_n"}
	districtNameFields = []string{"name", "district_name", "council_member"}
)

// LoadDistricts reads a council-district shapefile and returns one District
// per polygon record, with centroids attached. Records without a district
// key or a usable polygon are skipped and counted.
func LoadDistricts(shpPath string) ([]model.District, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open district shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	fieldIdx := indexFields(reader.Fields())
	idIdx, ok := firstField(fieldIdx, districtIDFields)
	if !ok {
		return nil, eris.Errorf("dataset: district shapefile missing id attribute (looked for %v)", districtIDFields)
	}
	nameIdx, hasName := firstField(fieldIdx, districtNameFields)

	var districts []model.District
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()

		id := attribute(reader, idIdx)
		if id == "" {
			skipped++
			continue
		}

		poly, ok := shape.(*shp.Polygon)
		if !ok {
			skipped++
			continue
		}
		mp := polygonToMultiPolygon(poly)
		if mp == nil {
			skipped++
			continue
		}

		d := model.District{
			ID:       id,
			Geometry: mp,
			Centroid: Centroid(mp),
		}
		if hasName {
			d.Name = attribute(reader, nameIdx)
		}
		districts = append(districts, d)
	}

	if skipped > 0 {
		zap.L().Warn("dataset: skipped district records",
			zap.String("path", shpPath),
			zap.Int("skipped", skipped),
		)
	}
	if len(districts) == 0 {
		return nil, eris.Errorf("dataset: no usable district records in %s", shpPath)
	}

	return districts, nil
}

// indexFields builds a lowercased field name -> index map for a shapefile.
func indexFields(fields []shp.Field) map[string]int {
	idx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		idx[strings.ToLower(name)] = i
	}
	return idx
}

// firstField returns the index of the first candidate present in the map.
func firstField(fieldIdx map[string]int, candidates []string) (int, bool) {
	for _, c := range candidates {
		if i, ok := fieldIdx[c]; ok {
			return i, true
		}
	}
	return 0, false
}

// attribute reads and trims a DBF attribute value.
func attribute(reader *shp.Reader, idx int) string {
	val := strings.TrimRight(reader.Attribute(idx), "\x00")
	return strings.TrimSpace(val)
}
