package store

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/civitas-analytics/ems-response-atlas/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testSnapshot() *model.Snapshot {
	square := geom.NewMultiPolygon(geom.XY).SetSRID(4326)
	poly := geom.NewPolygon(geom.XY)
	if err := poly.Push(geom.NewLinearRingFlat(geom.XY, []float64{0, 0, 1, 0, 1, 1, 0, 1, 0, 0})); err != nil {
		panic(err)
	}
	if err := square.Push(poly); err != nil {
		panic(err)
	}

	return &model.Snapshot{
		Incidents: []model.Incident{
			{DistrictID: "1", TravelSeconds: 480},
			{DistrictID: "", TravelSeconds: 300},
			{DistrictID: "2", TravelSeconds: math.NaN()},
		},
		Districts: []model.District{
			{ID: "1", Name: "District 1", Geometry: square, Centroid: geom.Coord{0.5, 0.5}},
			{ID: "2", Name: "District 2", Centroid: geom.Coord{2, 2}},
		},
		Demographics: []model.DemographicRecord{
			{DistrictID: "1", Population: 84000, PropAge85Plus: 0.012, MedianHHIncome: 61500},
		},
		Stations: []model.FireStation{
			{Name: "Station 4", Category: "EMS", Location: geom.Coord{-97.74, 30.27}},
		},
		Meta: []model.DatasetMeta{
			{Name: "incidents", SourceURL: "https://data.austintexas.gov/x", RowCount: 3, FetchedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)},
		},
	}
}

func TestSQLite_SnapshotRoundTrip(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveSnapshot(ctx, testSnapshot()))

	got, err := st.LoadSnapshot(ctx)
	require.NoError(t, err)

	require.Len(t, got.Incidents, 3)
	assert.Equal(t, "1", got.Incidents[0].DistrictID)
	assert.Equal(t, 480.0, got.Incidents[0].TravelSeconds)
	assert.Empty(t, got.Incidents[1].DistrictID, "NULL district reloads as empty string")
	assert.True(t, math.IsNaN(got.Incidents[2].TravelSeconds), "NULL travel time reloads as NaN")

	require.Len(t, got.Districts, 2)
	require.NotNil(t, got.Districts[0].Geometry)
	assert.Equal(t, 4326, got.Districts[0].Geometry.SRID())
	assert.Equal(t, 1, got.Districts[0].Geometry.NumPolygons())
	assert.Equal(t, geom.Coord{0.5, 0.5}, got.Districts[0].Centroid)
	assert.Nil(t, got.Districts[1].Geometry, "district without geometry reloads as nil")

	require.Len(t, got.Demographics, 1)
	assert.Equal(t, 84000, got.Demographics[0].Population)

	require.Len(t, got.Stations, 1)
	assert.Equal(t, geom.Coord{-97.74, 30.27}, got.Stations[0].Location)

	require.Len(t, got.Meta, 1)
	assert.Equal(t, "incidents", got.Meta[0].Name)
	assert.Equal(t, 3, got.Meta[0].RowCount)
}

func TestSQLite_SaveSnapshot_Replaces(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveSnapshot(ctx, testSnapshot()))

	// A second save must replace, not append.
	second := &model.Snapshot{
		Incidents: []model.Incident{{DistrictID: "9", TravelSeconds: 120}},
	}
	require.NoError(t, st.SaveSnapshot(ctx, second))

	got, err := st.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.Len(t, got.Incidents, 1)
	assert.Equal(t, "9", got.Incidents[0].DistrictID)
	assert.Empty(t, got.Districts)
	assert.Empty(t, got.Meta)
}

func TestSQLite_DistrictStatsRoundTrip(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	aggs := []model.DistrictAggregate{
		{DistrictID: "1", ResponseCount: 100, AvgResponseSeconds: 512.5, CompliantCount: 80, NonCompliantCount: 20, NonCompProp: 0.2},
		{DistrictID: "2", ResponseCount: 50, AvgResponseSeconds: 700, CompliantCount: 10, NonCompliantCount: 40, NonCompProp: 0.8},
	}
	require.NoError(t, st.SaveDistrictStats(ctx, aggs))

	got, err := st.LoadDistrictStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, aggs, got)
}

func TestSQLite_LoadSnapshot_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)

	got, err := st.LoadSnapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got.Incidents)
	assert.Empty(t, got.Districts)
	assert.Empty(t, got.Meta)
}

func TestSQLite_Counts(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveSnapshot(ctx, testSnapshot()))

	counts, err := st.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, counts["incidents"])
	assert.Equal(t, 2, counts["districts"])
	assert.Equal(t, 1, counts["demographics"])
	assert.Equal(t, 1, counts["stations"])
	assert.Equal(t, 0, counts["district_stats"])
}
