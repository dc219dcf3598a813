package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Compute per-district response statistics from the stored snapshot",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		snap, err := loadSnapshot(ctx, st)
		if err != nil {
			return err
		}

		cleaned, aggs, _ := computeStats(snap)

		if err := st.SaveDistrictStats(ctx, aggs); err != nil {
			return eris.Wrap(err, "save district stats")
		}

		zap.L().Info("stats computed",
			zap.Int("raw_incidents", len(snap.Incidents)),
			zap.Int("cleaned_incidents", len(cleaned)),
			zap.Int("districts_with_responses", len(aggs)),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(aggs)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
