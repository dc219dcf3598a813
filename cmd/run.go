package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/civitas-analytics/ems-response-atlas/internal/model"
	"github.com/civitas-analytics/ems-response-atlas/internal/pipeline"
	"github.com/civitas-analytics/ems-response-atlas/internal/render"
	"github.com/civitas-analytics/ems-response-atlas/internal/report"
	"github.com/civitas-analytics/ems-response-atlas/internal/scanstat"
)

var runSkipFetch bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full analysis: ingest, statistics, clusters, maps, summary",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		started := time.Now()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		var snap *model.Snapshot
		if runSkipFetch {
			snap, err = loadSnapshot(ctx, st)
			if err != nil {
				return err
			}
		} else {
			snap, err = newIngestor().Ingest(ctx)
			if err != nil {
				return eris.Wrap(err, "ingest")
			}
			if err := st.SaveSnapshot(ctx, snap); err != nil {
				return eris.Wrap(err, "save snapshot")
			}
		}

		cleaned, aggs, stats := computeStats(snap)
		if err := st.SaveDistrictStats(ctx, aggs); err != nil {
			return eris.Wrap(err, "save district stats")
		}

		clusters, err := scanstat.Detect(ctx, scanPoints(stats), scanOptions())
		if err != nil {
			return eris.Wrap(err, "detect clusters")
		}

		atlas := render.NewAtlas(cfg.Render)
		written, err := atlas.RenderAll(stats,
			scanstat.Assign(clusters),
			snap.Stations,
			pipeline.ClassifyBivariate(stats),
		)
		if err != nil {
			return eris.Wrap(err, "render maps")
		}

		summary := report.NewSummary(started)
		summary.Rows = report.RowCounts{
			IncidentsRaw:     len(snap.Incidents),
			IncidentsCleaned: len(cleaned),
			Districts:        len(snap.Districts),
			Demographics:     len(snap.Demographics),
			Stations:         len(snap.Stations),
		}
		summary.AddExtremes("avg_response_seconds", pipeline.AnnotateMinMax(stats, pipeline.MetricAvgResponse))
		summary.AddExtremes("non_comp_prop", pipeline.AnnotateMinMax(stats, pipeline.MetricNonCompProp))
		summary.AddExtremes("response_count", pipeline.AnnotateMinMax(stats, pipeline.MetricResponseCount))
		summary.AddClusters(clusters)
		summary.Outputs = written

		summaryPath, err := summary.Write(cfg.Render.OutputDir)
		if err != nil {
			return err
		}

		zap.L().Info("analysis complete",
			zap.String("run_id", summary.RunID),
			zap.Duration("elapsed", time.Since(started)),
			zap.Int("clusters", len(clusters)),
			zap.Int("maps", len(written)),
			zap.String("summary", summaryPath),
		)
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runSkipFetch, "skip-fetch", false, "reuse the stored snapshot instead of downloading")
	rootCmd.AddCommand(runCmd)
}
