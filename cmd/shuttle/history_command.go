package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"shuttle/internal/baseline"
	"shuttle/internal/ipc"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sync cycles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := fetchHistory(cmd, ctx, limit)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sync cycles recorded")
				return nil
			}
			headers := []string{"Finished", "Outcome", "Added", "Modified", "Removed", "Pushed", "Failed", "Error"}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.FinishedAt,
					e.Outcome,
					strconv.Itoa(e.Added),
					strconv.Itoa(e.Modified),
					strconv.Itoa(e.Removed),
					strconv.Itoa(e.Pushed),
					strconv.Itoa(e.Failed),
					truncate(e.Error, 40),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, 2, 3, 4, 5, 6))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of cycles to show")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print history as JSON")
	return cmd
}

// fetchHistory prefers the daemon's view but falls back to reading the journal
// directly when no daemon is listening. The store opens in WAL mode, so the
// offline read is safe even if a daemon starts mid-query.
func fetchHistory(cmd *cobra.Command, ctx *commandContext, limit int) ([]ipc.HistoryEntry, error) {
	if client, err := ctx.dialClient(); err == nil {
		defer client.Close()
		resp, err := client.History(limit)
		if err != nil {
			return nil, fmt.Errorf("fetch history: %w", err)
		}
		return resp.Entries, nil
	}

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := baseline.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open sync journal: %w", err)
	}
	defer store.Close()

	records, err := store.History(cmd.Context(), limit)
	if err != nil {
		return nil, fmt.Errorf("read sync journal: %w", err)
	}
	entries := make([]ipc.HistoryEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, ipc.HistoryEntryFromRecord(record))
	}
	return entries, nil
}

func truncate(s string, max int) string {
	if max <= 3 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
