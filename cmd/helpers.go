package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/civitas-analytics/ems-response-atlas/internal/dataset"
	"github.com/civitas-analytics/ems-response-atlas/internal/fetcher"
	"github.com/civitas-analytics/ems-response-atlas/internal/model"
	"github.com/civitas-analytics/ems-response-atlas/internal/pipeline"
	"github.com/civitas-analytics/ems-response-atlas/internal/scanstat"
	"github.com/civitas-analytics/ems-response-atlas/internal/store"
)

func openStore(ctx context.Context) (*store.SQLiteStore, error) {
	st, err := store.NewSQLite(cfg.Data.SnapshotPath)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

func newIngestor() *dataset.Ingestor {
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  cfg.Fetch.UserAgent,
		Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxRetries: cfg.Fetch.MaxRetries,
	})
	return dataset.NewIngestor(f, cfg.Data)
}

// loadSnapshot reads the stored snapshot and fails when no ingest has run.
func loadSnapshot(ctx context.Context, st *store.SQLiteStore) (*model.Snapshot, error) {
	snap, err := st.LoadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if len(snap.Incidents) == 0 && len(snap.Districts) == 0 {
		return nil, eris.New("store is empty; run `atlas ingest` first")
	}
	return snap, nil
}

// computeStats runs cleaning and aggregation over a snapshot and returns the
// joined per-district rows alongside the aggregates and cleaned incidents.
func computeStats(snap *model.Snapshot) ([]model.Incident, []model.DistrictAggregate, []model.DistrictStats) {
	cleaned := pipeline.Clean(snap.Incidents, cfg.Goal.ComplianceSeconds)
	aggs := pipeline.Aggregate(cleaned)
	stats := pipeline.JoinDistricts(snap.Districts, aggs, snap.Demographics)
	return cleaned, aggs, stats
}

// scanPoints builds scan inputs from joined rows. Districts with no
// responses carry no baseline and are skipped.
func scanPoints(stats []model.DistrictStats) []scanstat.Point {
	points := make([]scanstat.Point, 0, len(stats))
	for i := range stats {
		d := &stats[i]
		if d.Aggregate == nil || d.Aggregate.ResponseCount == 0 {
			continue
		}
		points = append(points, scanstat.Point{
			ID:       d.District.ID,
			X:        d.District.Centroid[0],
			Y:        d.District.Centroid[1],
			Cases:    d.Aggregate.NonCompliantCount,
			Baseline: d.Aggregate.ResponseCount,
		})
	}
	return points
}

func scanOptions() scanstat.Options {
	return scanstat.Options{
		Simulations:         cfg.Scan.Simulations,
		Alpha:               cfg.Scan.Alpha,
		MaxBaselineFraction: cfg.Scan.MaxBaselineFraction,
		MaxClusters:         cfg.Scan.MaxClusters,
		Seed:                cfg.Scan.Seed,
	}
}
