package dataset

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/civitas-analytics/ems-response-atlas/internal/config"
	"github.com/civitas-analytics/ems-response-atlas/internal/fetcher"
	"github.com/civitas-analytics/ems-response-atlas/internal/model"
)

// Ingestor fetches the four datasets and materializes a Snapshot.
type Ingestor struct {
	fetch fetcher.Fetcher
	cfg   config.DataConfig
}

// NewIngestor creates an Ingestor using the given fetcher and data config.
func NewIngestor(f fetcher.Fetcher, cfg config.DataConfig) *Ingestor {
	return &Ingestor{fetch: f, cfg: cfg}
}

// Ingest downloads and parses all four datasets in parallel. Any failure is
// fatal for the run: the pipeline has no use for a partial snapshot.
func (ing *Ingestor) Ingest(ctx context.Context) (*model.Snapshot, error) {
	if err := os.MkdirAll(ing.cfg.CacheDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "dataset: create cache dir")
	}

	log := zap.L().With(zap.String("component", "dataset.ingestor"))
	snap := &model.Snapshot{}

	// One meta slot per dataset: the goroutines below write disjoint slots.
	metas := make([]model.DatasetMeta, 4)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		incidents, meta, err := ing.ingestIncidents(gCtx)
		if err != nil {
			return err
		}
		snap.Incidents = incidents
		metas[0] = meta
		return nil
	})

	g.Go(func() error {
		districts, meta, err := ing.ingestDistricts(gCtx)
		if err != nil {
			return err
		}
		snap.Districts = districts
		metas[1] = meta
		return nil
	})

	g.Go(func() error {
		demo, meta, err := ing.ingestDemographics(gCtx)
		if err != nil {
			return err
		}
		snap.Demographics = demo
		metas[2] = meta
		return nil
	})

	g.Go(func() error {
		stations, meta, err := ing.ingestStations(gCtx)
		if err != nil {
			return err
		}
		snap.Stations = stations
		metas[3] = meta
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	snap.Meta = metas

	log.Info("ingest complete",
		zap.Int("incidents", len(snap.Incidents)),
		zap.Int("districts", len(snap.Districts)),
		zap.Int("demographics", len(snap.Demographics)),
		zap.Int("stations", len(snap.Stations)),
	)

	return snap, nil
}

func (ing *Ingestor) ingestIncidents(ctx context.Context) ([]model.Incident, model.DatasetMeta, error) {
	body, err := ing.fetch.Download(ctx, ing.cfg.IncidentsURL)
	if err != nil {
		return nil, model.DatasetMeta{}, eris.Wrap(err, "dataset: fetch incidents")
	}
	defer body.Close() //nolint:errcheck

	incidents, err := ParseIncidents(body)
	if err != nil {
		return nil, model.DatasetMeta{}, err
	}
	return incidents, ing.meta("incidents", ing.cfg.IncidentsURL, len(incidents)), nil
}

func (ing *Ingestor) ingestDistricts(ctx context.Context) ([]model.District, model.DatasetMeta, error) {
	shpPath, err := ing.fetchShapefile(ctx, ing.cfg.DistrictsURL, "districts")
	if err != nil {
		return nil, model.DatasetMeta{}, err
	}

	districts, err := LoadDistricts(shpPath)
	if err != nil {
		return nil, model.DatasetMeta{}, err
	}
	return districts, ing.meta("districts", ing.cfg.DistrictsURL, len(districts)), nil
}

func (ing *Ingestor) ingestDemographics(ctx context.Context) ([]model.DemographicRecord, model.DatasetMeta, error) {
	body, err := ing.fetch.Download(ctx, ing.cfg.DemographicsURL)
	if err != nil {
		return nil, model.DatasetMeta{}, eris.Wrap(err, "dataset: fetch demographics")
	}
	defer body.Close() //nolint:errcheck

	records, err := ParseDemographics(body)
	if err != nil {
		return nil, model.DatasetMeta{}, err
	}
	return records, ing.meta("demographics", ing.cfg.DemographicsURL, len(records)), nil
}

func (ing *Ingestor) ingestStations(ctx context.Context) ([]model.FireStation, model.DatasetMeta, error) {
	shpPath, err := ing.fetchShapefile(ctx, ing.cfg.StationsURL, "stations")
	if err != nil {
		return nil, model.DatasetMeta{}, err
	}

	stations, err := LoadStations(shpPath)
	if err != nil {
		return nil, model.DatasetMeta{}, err
	}
	return stations, ing.meta("stations", ing.cfg.StationsURL, len(stations)), nil
}

// fetchShapefile downloads a zipped shapefile archive into a per-dataset
// cache subdirectory and returns the extracted .shp path.
func (ing *Ingestor) fetchShapefile(ctx context.Context, url, name string) (string, error) {
	destDir := filepath.Join(ing.cfg.CacheDir, name)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", eris.Wrapf(err, "dataset: create %s dir", name)
	}

	zipPath := filepath.Join(destDir, name+".zip")
	if _, err := ing.fetch.DownloadToFile(ctx, url, zipPath); err != nil {
		return "", eris.Wrapf(err, "dataset: fetch %s archive", name)
	}

	paths, err := fetcher.ExtractZIP(zipPath, destDir)
	if err != nil {
		return "", eris.Wrapf(err, "dataset: extract %s archive", name)
	}

	shpPath := fetcher.FindByExt(paths, ".shp")
	if shpPath == "" {
		return "", eris.Errorf("dataset: %s archive contains no .shp file", name)
	}
	return shpPath, nil
}

func (ing *Ingestor) meta(name, url string, rows int) model.DatasetMeta {
	return model.DatasetMeta{
		Name:      name,
		SourceURL: url,
		RowCount:  rows,
		FetchedAt: time.Now().UTC(),
	}
}
