package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/civitas-analytics/ems-response-atlas/internal/scanstat"
)

var clustersSeed uint64

var clustersCmd = &cobra.Command{
	Use:   "clusters",
	Short: "Detect spatial clusters of non-compliant responses",
	Long:  "Runs a Kulldorff-style Poisson scan statistic over district centroids with non-compliant responses as cases and total responses as baseline.",
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

		opts := scanOptions()
		if clustersSeed != 0 {
			opts.Seed = clustersSeed
		}

		clusters, err := scanstat.Detect(ctx, scanPoints(stats), opts)
		if err != nil {
			return eris.Wrap(err, "detect clusters")
		}

		if len(clusters) == 0 {
			zap.L().Info("no significant clusters", zap.Float64("alpha", opts.Alpha))
		} else {
			zap.L().Info("clusters detected", zap.Int("count", len(clusters)))
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(clusters)
	},
}

func init() {
	clustersCmd.Flags().Uint64Var(&clustersSeed, "seed", 0, "Monte Carlo seed (0 = time-seeded)")
	rootCmd.AddCommand(clustersCmd)
}
