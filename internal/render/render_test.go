package render

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/civitas-analytics/ems-response-atlas/internal/config"
	"github.com/civitas-analytics/ems-response-atlas/internal/model"
	"github.com/civitas-analytics/ems-response-atlas/internal/pipeline"
)

// squareDistrict builds a unit-square district at the given offset.
func squareDistrict(id string, offsetX float64) model.District {
	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)
	poly := geom.NewPolygon(geom.XY)
	ring := geom.NewLinearRingFlat(geom.XY, []float64{
		offsetX, 0,
		offsetX, 1,
		offsetX + 1, 1,
		offsetX + 1, 0,
		offsetX, 0,
	})
	if err := poly.Push(ring); err != nil {
		panic(err)
	}
	if err := mp.Push(poly); err != nil {
		panic(err)
	}
	return model.District{
		ID:       id,
		Geometry: mp,
		Centroid: geom.Coord{offsetX + 0.5, 0.5},
	}
}

func renderStats(n int) []model.DistrictStats {
	stats := make([]model.DistrictStats, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("%d", i+1)
		stats = append(stats, model.DistrictStats{
			District: squareDistrict(id, float64(i*2)),
			Aggregate: &model.DistrictAggregate{
				ResponseCount:      10,
				AvgResponseSeconds: float64(400 + 100*i),
				NonCompProp:        0.1 * float64(i),
			},
			Demographics: &model.DemographicRecord{
				DistrictID:     id,
				MedianHHIncome: float64(40000 + 10000*i),
			},
		})
	}
	return stats
}

func TestRenderChoropleth(t *testing.T) {
	stats := renderStats(3)
	// One district with no incidents renders neutral.
	stats = append(stats, model.DistrictStats{District: squareDistrict("empty", 8)})

	marks := pipeline.AnnotateMinMax(stats, pipeline.MetricAvgResponse)
	var buf bytes.Buffer
	err := RenderChoropleth(&buf, stats, pipeline.MetricAvgResponse, marks, Map{
		Title: "Average EMS Travel Time", Subtitle: "test", Width: 600, Height: 600,
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, "</svg>")
	assert.Equal(t, 4, strings.Count(out, "<polygon"))
	assert.Contains(t, out, NeutralFill)
	assert.Contains(t, out, "Average EMS Travel Time")
	assert.Contains(t, out, "Max: 3")
	assert.Contains(t, out, "Min: 1")
}

func TestRenderClusterMap(t *testing.T) {
	stats := renderStats(3)
	assignment := model.ClusterAssignment{"1": 1, "2": 2}
	stations := []model.FireStation{{Name: "S1", Location: geom.Coord{0.5, 0.5}}}

	var buf bytes.Buffer
	err := RenderClusterMap(&buf, stats, assignment, stations, Map{
		Title: "Clusters", Width: 600, Height: 600,
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, "<polygon"))
	// Unclustered district keeps the neutral fill.
	assert.Contains(t, out, NeutralFill)
	assert.Contains(t, out, clusterFills[0])
	assert.Contains(t, out, "Cluster 1")
	assert.Contains(t, out, "Cluster 2")
	// Station overlay circle.
	assert.Contains(t, out, "<circle")
}

func TestRenderBivariate(t *testing.T) {
	stats := renderStats(3)
	classes := pipeline.ClassifyBivariate(stats)

	var buf bytes.Buffer
	err := RenderBivariate(&buf, stats, classes, Map{Title: "Bivariate", Width: 600, Height: 600})
	require.NoError(t, err)

	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, "<polygon"))
	// 3x3 legend cells.
	assert.GreaterOrEqual(t, strings.Count(out, "<rect"), 9)
}

func TestRampFillBuckets(t *testing.T) {
	assert.Equal(t, rampFills[0], rampFill(0, 0, 1))
	assert.Equal(t, rampFills[len(rampFills)-1], rampFill(1, 0, 1))
	assert.Equal(t, rampFills[0], rampFill(5, 5, 5))
}

func TestClusterFillOutOfRange(t *testing.T) {
	assert.Equal(t, NeutralFill, clusterFill(0))
	assert.Equal(t, NeutralFill, clusterFill(99))
	assert.Equal(t, clusterFills[0], clusterFill(1))
}

func TestAtlasRenderAll(t *testing.T) {
	dir := t.TempDir()
	stats := renderStats(3)

	atlas := NewAtlas(config.RenderConfig{OutputDir: filepath.Join(dir, "maps"), Width: 600, Height: 600})
	paths, err := atlas.RenderAll(stats,
		model.ClusterAssignment{"1": 1},
		[]model.FireStation{{Location: geom.Coord{0.5, 0.5}}},
		pipeline.ClassifyBivariate(stats),
	)
	require.NoError(t, err)
	require.Len(t, paths, 5)

	for _, p := range paths {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.Contains(t, string(data), "<svg")
	}
}

func TestProjectorRoundTrip(t *testing.T) {
	districts := []model.District{squareDistrict("1", 0), squareDistrict("2", 2)}
	proj := NewProjector(districts, 600, 600)

	// Bounding box corners land inside the padded canvas.
	x, y := proj.Point(geom.Coord{0, 0})
	assert.Equal(t, canvasPadding, x)
	assert.Equal(t, 600-canvasPadding, y)

	x2, _ := proj.Point(geom.Coord{3, 0})
	assert.Greater(t, x2, x)
	assert.LessOrEqual(t, x2, 600-canvasPadding)
}
