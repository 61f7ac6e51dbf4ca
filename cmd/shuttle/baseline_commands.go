package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"shuttle/internal/baseline"
	"shuttle/internal/daemonctl"
	"shuttle/internal/ipc"
)

func newBaselineCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Inspect or reset the recorded baseline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newBaselineShowCommand(ctx))
	cmd.AddCommand(newBaselineResetCommand(ctx))
	return cmd
}

type baselineReport struct {
	DBPath         string            `json:"db_path"`
	Files          int               `json:"files"`
	IntegrityCheck bool              `json:"integrity_check"`
	TotalSyncs     int               `json:"total_syncs"`
	Succeeded      int               `json:"succeeded"`
	Partial        int               `json:"partial"`
	Failed         int               `json:"failed"`
	FilesPushed    int               `json:"files_pushed"`
	LastSync       *ipc.HistoryEntry `json:"last_sync,omitempty"`
}

func newBaselineShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show baseline database health and journal totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := baseline.Open(cfg)
			if err != nil {
				return fmt.Errorf("open baseline database: %w", err)
			}
			defer store.Close()

			report, err := buildBaselineReport(cmd, store)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, report)
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)
			for _, line := range renderSectionHeader("Baseline", colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout, renderStatusLine("Database", statusOK, report.DBPath, colorize))
			if report.IntegrityCheck {
				fmt.Fprintln(stdout, renderStatusLine("Integrity", statusOK, "verified", colorize))
			} else {
				fmt.Fprintln(stdout, renderStatusLine("Integrity", statusWarn, "check failed", colorize))
			}
			fmt.Fprintln(stdout, renderStatusLine("Files", statusInfo, strconv.Itoa(report.Files), colorize))
			if report.LastSync != nil {
				detail := fmt.Sprintf("%s at %s", report.LastSync.Outcome, report.LastSync.FinishedAt)
				fmt.Fprintln(stdout, renderStatusLine("Last sync", statusInfo, detail, colorize))
			} else {
				fmt.Fprintln(stdout, renderStatusLine("Last sync", statusInfo, "never", colorize))
			}
			fmt.Fprintln(stdout)

			rows := [][]string{
				{"Total syncs", strconv.Itoa(report.TotalSyncs)},
				{"Succeeded", strconv.Itoa(report.Succeeded)},
				{"Partial", strconv.Itoa(report.Partial)},
				{"Failed", strconv.Itoa(report.Failed)},
				{"Files pushed", strconv.Itoa(report.FilesPushed)},
			}
			fmt.Fprintln(stdout, renderTable([]string{"Metric", "Count"}, rows, 1))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the report as JSON")
	return cmd
}

func buildBaselineReport(cmd *cobra.Command, store *baseline.Store) (*baselineReport, error) {
	health, err := store.CheckHealth(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("check baseline health: %w", err)
	}
	stats, err := store.Stats(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("read journal stats: %w", err)
	}
	report := &baselineReport{
		DBPath:         health.DBPath,
		Files:          health.TotalFiles,
		IntegrityCheck: health.IntegrityCheck,
		TotalSyncs:     stats.TotalSyncs,
		Succeeded:      stats.Succeeded,
		Partial:        stats.Partial,
		Failed:         stats.Failed,
		FilesPushed:    stats.FilesPushed,
	}
	if last, err := store.LastSync(cmd.Context()); err == nil && last != nil {
		entry := ipc.HistoryEntryFromRecord(*last)
		report.LastSync = &entry
	}
	return report, nil
}

func newBaselineResetCommand(ctx *commandContext) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Discard the recorded baseline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return fmt.Errorf("baseline reset discards recorded state; changes since the last sync will not be pushed. Pass --yes to confirm")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			// A running daemon holds its own view of the baseline in memory;
			// clearing the table underneath it would desynchronize the two.
			alive, pid, err := daemonctl.ProcessInfo(ctx.socketPath())
			if err != nil {
				return fmt.Errorf("probe daemon: %w", err)
			}
			if alive {
				if pid > 0 {
					return fmt.Errorf("daemon is running (pid %d); stop it before resetting the baseline", pid)
				}
				return fmt.Errorf("daemon is running; stop it before resetting the baseline")
			}

			store, err := baseline.Open(cfg)
			if err != nil {
				return fmt.Errorf("open baseline database: %w", err)
			}
			defer store.Close()

			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return fmt.Errorf("clear baseline: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Baseline cleared (%d entries); the next daemon run adopts the current tree without pushing\n", removed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm the reset")
	return cmd
}
