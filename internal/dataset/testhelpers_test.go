package dataset

import (
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/require"
)

// writeDistrictShapefile writes a polygon shapefile with one unit square per
// district id, laid out left to right along the x axis.
func writeDistrictShapefile(t *testing.T, dir string, ids []string) string {
	t.Helper()
	path := filepath.Join(dir, "districts.shp")

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)

	require.NoError(t, w.SetFields([]shp.Field{
		shp.StringField("DISTRICT_ID", 16),
		shp.StringField("NAME", 32),
	}))

	for i, id := range ids {
		w.Write(squarePolygon(float64(i*2), 0, 1))
		require.NoError(t, w.WriteAttribute(i, 0, id))
		require.NoError(t, w.WriteAttribute(i, 1, "District "+id))
	}
	w.Close()

	return path
}

// writeStationShapefile writes a point shapefile with one station per coord.
func writeStationShapefile(t *testing.T, dir string, coords [][2]float64) string {
	t.Helper()
	path := filepath.Join(dir, "stations.shp")

	w, err := shp.Create(path, shp.POINT)
	require.NoError(t, err)

	require.NoError(t, w.SetFields([]shp.Field{
		shp.StringField("NAME", 32),
		shp.StringField("CATEGORY", 16),
	}))

	for i, c := range coords {
		w.Write(&shp.Point{X: c[0], Y: c[1]})
		require.NoError(t, w.WriteAttribute(i, 0, "Station "+string(rune('A'+i))))
		require.NoError(t, w.WriteAttribute(i, 1, "engine"))
	}
	w.Close()

	return path
}
