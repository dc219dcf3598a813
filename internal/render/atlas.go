package render

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/civitas-analytics/ems-response-atlas/internal/config"
	"github.com/civitas-analytics/ems-response-atlas/internal/model"
	"github.com/civitas-analytics/ems-response-atlas/internal/pipeline"
)

// Atlas renders the full map sequence for a pipeline run.
type Atlas struct {
	cfg config.RenderConfig
}

// NewAtlas creates an Atlas writing into the configured output directory.
func NewAtlas(cfg config.RenderConfig) *Atlas {
	return &Atlas{cfg: cfg}
}

// RenderAll writes every map and returns the output paths in render order.
func (a *Atlas) RenderAll(stats []model.DistrictStats, assignment model.ClusterAssignment, stations []model.FireStation, classes map[string]model.BivariateClass) ([]string, error) {
	if err := os.MkdirAll(a.cfg.OutputDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "render: create output dir")
	}

	m := Map{Width: a.cfg.Width, Height: a.cfg.Height}
	var written []string

	choropleths := []struct {
		file     string
		title    string
		subtitle string
		metric   pipeline.MetricFn
	}{
		{"avg_response_time.svg", "Average EMS Travel Time", "Mean seconds to scene by council district", pipeline.MetricAvgResponse},
		{"non_compliance.svg", "Response Goal Non-Compliance", "Share of responses over the travel-time goal", pipeline.MetricNonCompProp},
		{"response_count.svg", "EMS Incident Volume", "Responses by council district", pipeline.MetricResponseCount},
	}

	for _, c := range choropleths {
		m.Title, m.Subtitle = c.title, c.subtitle
		marks := pipeline.AnnotateMinMax(stats, c.metric)
		path := filepath.Join(a.cfg.OutputDir, c.file)
		if err := a.writeMap(path, func(f *os.File) error {
			return RenderChoropleth(f, stats, c.metric, marks, m)
		}); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	m.Title, m.Subtitle = "Non-Compliance Clusters", "Spatial scan clusters with fire stations"
	path := filepath.Join(a.cfg.OutputDir, "clusters.svg")
	if err := a.writeMap(path, func(f *os.File) error {
		return RenderClusterMap(f, stats, assignment, stations, m)
	}); err != nil {
		return written, err
	}
	written = append(written, path)

	m.Title, m.Subtitle = "Income and Response Time", "3x3 bivariate classification"
	path = filepath.Join(a.cfg.OutputDir, "bivariate.svg")
	if err := a.writeMap(path, func(f *os.File) error {
		return RenderBivariate(f, stats, classes, m)
	}); err != nil {
		return written, err
	}
	written = append(written, path)

	zap.L().Info("render complete",
		zap.Int("maps", len(written)),
		zap.String("output_dir", a.cfg.OutputDir),
	)

	return written, nil
}

func (a *Atlas) writeMap(path string, draw func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "render: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	if err := draw(f); err != nil {
		return eris.Wrapf(err, "render: draw %s", path)
	}
	return nil
}
