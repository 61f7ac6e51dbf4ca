package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shuttle/internal/ipc"
	"shuttle/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		follow bool
		lines  int
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show daemon log output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.dialClient()
			if err != nil {
				if follow {
					return err
				}
				return printLogsOffline(cmd, ctx, lines)
			}
			defer client.Close()
			return streamLogs(cmd, client, lines, follow)
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep streaming new log lines")
	cmd.Flags().IntVarP(&lines, "lines", "n", 10, "number of recent lines to show (0 for all)")
	return cmd
}

func streamLogs(cmd *cobra.Command, client *ipc.Client, limit int, follow bool) error {
	if limit < 0 {
		limit = 0
	}
	// Offset -1 means "start near the end"; asking for all lines starts at
	// the beginning instead.
	var offset int64 = -1
	if limit == 0 {
		offset = 0
	}

	printed := false
	for {
		resp, err := client.LogTail(ipc.LogTailRequest{
			Offset:     offset,
			Limit:      limit,
			Follow:     follow,
			WaitMillis: 1000,
		})
		if err != nil {
			return fmt.Errorf("fetch logs: %w", err)
		}
		for _, line := range resp.Lines {
			fmt.Fprintln(cmd.OutOrStdout(), line)
			printed = true
		}
		offset = resp.Offset
		limit = 0

		if !follow {
			if !printed {
				fmt.Fprintln(cmd.OutOrStdout(), "No log entries available")
			}
			return nil
		}
		select {
		case <-cmd.Context().Done():
			return nil
		default:
		}
	}
}

// printLogsOffline reads the log file directly when the daemon is down.
func printLogsOffline(cmd *cobra.Command, ctx *commandContext, limit int) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if limit < 0 {
		limit = 0
	}
	var offset int64 = -1
	if limit == 0 {
		offset = 0
	}
	result, err := logs.Tail(cmd.Context(), cfg.LogFilePath(), logs.TailOptions{Offset: offset, Limit: limit})
	if err != nil {
		return fmt.Errorf("read log file: %w", err)
	}
	if len(result.Lines) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No log entries available")
		return nil
	}
	for _, line := range result.Lines {
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}
