// Package report writes the run summary emitted at the end of an analysis.
package report

import (
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/civitas-analytics/ems-response-atlas/internal/model"
)

// Summary is the YAML document written alongside the rendered maps.
type Summary struct {
	RunID      string           `yaml:"run_id"`
	StartedAt  time.Time        `yaml:"started_at"`
	FinishedAt time.Time        `yaml:"finished_at"`
	Rows       RowCounts        `yaml:"rows"`
	Extremes   []ExtremeRow     `yaml:"extremes,omitempty"`
	Clusters   []ClusterSummary `yaml:"clusters"`
	Outputs    []string         `yaml:"outputs"`
}

// RowCounts records dataset sizes before and after cleaning.
type RowCounts struct {
	IncidentsRaw     int `yaml:"incidents_raw"`
	IncidentsCleaned int `yaml:"incidents_cleaned"`
	Districts        int `yaml:"districts"`
	Demographics     int `yaml:"demographics"`
	Stations         int `yaml:"stations"`
}

// ExtremeRow is one min or max district for a rendered metric.
type ExtremeRow struct {
	Metric     string  `yaml:"metric"`
	Label      string  `yaml:"label"`
	DistrictID string  `yaml:"district_id"`
	Value      float64 `yaml:"value"`
}

// ClusterSummary is the per-cluster row in the summary table.
type ClusterSummary struct {
	Rank          int      `yaml:"rank"`
	Districts     []string `yaml:"districts"`
	Cases         int      `yaml:"cases"`
	Baseline      int      `yaml:"baseline"`
	Expected      float64  `yaml:"expected"`
	LogLikelihood float64  `yaml:"log_likelihood"`
	PValue        float64  `yaml:"p_value"`
}

// NewSummary builds a summary document with a fresh run id.
func NewSummary(startedAt time.Time) *Summary {
	return &Summary{
		RunID:     uuid.New().String(),
		StartedAt: startedAt.UTC(),
	}
}

// AddExtremes appends the min/max rows for one metric. rows follows the
// annotate convention: [max, min], or nil when the metric had no valid
// values.
func (s *Summary) AddExtremes(metric string, rows []model.MinMaxRow) {
	for _, r := range rows {
		s.Extremes = append(s.Extremes, ExtremeRow{
			Metric:     metric,
			Label:      r.Label,
			DistrictID: r.DistrictID,
			Value:      r.Value,
		})
	}
}

// AddClusters fills the cluster table from detection results.
func (s *Summary) AddClusters(clusters []model.Cluster) {
	for _, c := range clusters {
		s.Clusters = append(s.Clusters, ClusterSummary{
			Rank:          c.Rank,
			Districts:     c.DistrictIDs,
			Cases:         c.Cases,
			Baseline:      c.Baseline,
			Expected:      c.Expected,
			LogLikelihood: c.LogLikelihood,
			PValue:        c.PValue,
		})
	}
}

// Write finalizes the document and writes summary.yaml under dir.
func (s *Summary) Write(dir string) (string, error) {
	s.FinishedAt = time.Now().UTC()
	if s.Clusters == nil {
		s.Clusters = []ClusterSummary{}
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return "", eris.Wrap(err, "report: marshal summary")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "report: create output dir %s", dir)
	}
	path := filepath.Join(dir, "summary.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", eris.Wrapf(err, "report: write %s", path)
	}
	return path, nil
}
