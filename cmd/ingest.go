package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Download all four datasets and store a snapshot",
	Long:  "Fetches EMS incidents, council district boundaries, district demographics, and fire station locations, then replaces the stored snapshot.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		snap, err := newIngestor().Ingest(ctx)
		if err != nil {
			return eris.Wrap(err, "ingest")
		}

		if err := st.SaveSnapshot(ctx, snap); err != nil {
			return eris.Wrap(err, "save snapshot")
		}

		zap.L().Info("ingest complete",
			zap.Int("incidents", len(snap.Incidents)),
			zap.Int("districts", len(snap.Districts)),
			zap.Int("demographics", len(snap.Demographics)),
			zap.Int("stations", len(snap.Stations)),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
