package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/civitas-analytics/ems-response-atlas/internal/config"
	"github.com/civitas-analytics/ems-response-atlas/internal/model"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"run", "ingest", "stats", "clusters", "render", "status"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "atlas", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRunCommand_Flags(t *testing.T) {
	flag := runCmd.Flags().Lookup("skip-fetch")
	require.NotNil(t, flag, "run command should have --skip-fetch flag")
	assert.Equal(t, "false", flag.DefValue)
}

func TestClustersCommand_Flags(t *testing.T) {
	flag := clustersCmd.Flags().Lookup("seed")
	require.NotNil(t, flag, "clusters command should have --seed flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestRenderCommand_Flags(t *testing.T) {
	flag := renderCmd.Flags().Lookup("out")
	require.NotNil(t, flag, "render command should have --out flag")
}

func TestComputeStats(t *testing.T) {
	cfg = &config.Config{Goal: config.GoalConfig{ComplianceSeconds: 600}}

	snap := &model.Snapshot{
		Incidents: []model.Incident{
			{DistrictID: "1", TravelSeconds: 500},
			{DistrictID: "1", TravelSeconds: 700},
			{DistrictID: "", TravelSeconds: 400},
			{DistrictID: "2", TravelSeconds: math.NaN()},
		},
		Districts: []model.District{
			{ID: "1", Centroid: geom.Coord{0, 0}},
			{ID: "2", Centroid: geom.Coord{1, 1}},
		},
	}

	cleaned, aggs, stats := computeStats(snap)
	assert.Len(t, cleaned, 2, "null district and null travel rows dropped")
	require.Len(t, aggs, 1)
	assert.Equal(t, "1", aggs[0].DistrictID)
	assert.Equal(t, 1, aggs[0].NonCompliantCount)
	require.Len(t, stats, 2)
}

func TestScanPoints_SkipsDistrictsWithoutResponses(t *testing.T) {
	stats := []model.DistrictStats{
		{
			District:  model.District{ID: "1", Centroid: geom.Coord{-97.7, 30.3}},
			Aggregate: &model.DistrictAggregate{ResponseCount: 10, NonCompliantCount: 3},
		},
		{
			District: model.District{ID: "2", Centroid: geom.Coord{-97.8, 30.2}},
		},
	}

	points := scanPoints(stats)
	require.Len(t, points, 1)
	assert.Equal(t, "1", points[0].ID)
	assert.Equal(t, 3, points[0].Cases)
	assert.Equal(t, 10, points[0].Baseline)
	assert.Equal(t, -97.7, points[0].X)
}

func TestScanOptions(t *testing.T) {
	cfg = &config.Config{Scan: config.ScanConfig{
		Simulations:         499,
		Alpha:               0.01,
		MaxBaselineFraction: 0.3,
		MaxClusters:         2,
		Seed:                7,
	}}

	opts := scanOptions()
	assert.Equal(t, 499, opts.Simulations)
	assert.Equal(t, 0.01, opts.Alpha)
	assert.Equal(t, 0.3, opts.MaxBaselineFraction)
	assert.Equal(t, 2, opts.MaxClusters)
	assert.Equal(t, uint64(7), opts.Seed)
}
