package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/civitas-analytics/ems-response-atlas/internal/pipeline"
	"github.com/civitas-analytics/ems-response-atlas/internal/render"
	"github.com/civitas-analytics/ems-response-atlas/internal/scanstat"
)

var renderOut string

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render choropleth, cluster, and bivariate maps",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		snap, err := loadSnapshot(ctx, st)
		if err != nil {
			return err
		}

		_, _, stats := computeStats(snap)

		clusters, err := scanstat.Detect(ctx, scanPoints(stats), scanOptions())
		if err != nil {
			return eris.Wrap(err, "detect clusters")
		}

		renderCfg := cfg.Render
		if renderOut != "" {
			renderCfg.OutputDir = renderOut
		}

		atlas := render.NewAtlas(renderCfg)
		written, err := atlas.RenderAll(stats,
			scanstat.Assign(clusters),
			snap.Stations,
			pipeline.ClassifyBivariate(stats),
		)
		if err != nil {
			return eris.Wrap(err, "render maps")
		}

		zap.L().Info("maps rendered",
			zap.Int("count", len(written)),
			zap.Strings("files", written),
		)
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVar(&renderOut, "out", "", "output directory (default from config)")
	rootCmd.AddCommand(renderCmd)
}
