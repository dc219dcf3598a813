package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored snapshot row counts and ingest provenance",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		counts, err := st.Counts(ctx)
		if err != nil {
			return err
		}

		tables := make([]string, 0, len(counts))
		for table := range counts {
			tables = append(tables, table)
		}
		sort.Strings(tables)

		fmt.Println("Stored rows:")
		for _, table := range tables {
			fmt.Printf("  %-16s %d\n", table, counts[table])
		}

		snap, err := st.LoadSnapshot(ctx)
		if err != nil {
			return err
		}
		if len(snap.Meta) == 0 {
			fmt.Println("\nNo ingest recorded.")
			return nil
		}

		fmt.Println("\nLast ingest:")
		for _, m := range snap.Meta {
			fmt.Printf("  %-14s %7d rows  %s  %s\n",
				m.Name, m.RowCount, m.FetchedAt.Format("2006-01-02 15:04"), m.SourceURL)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
