package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shuttle/internal/daemonctl"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newStartCommand(ctx),
		newStopCommand(ctx),
		newRestartCommand(ctx),
		newStatusCommand(ctx),
	}
}

func newStartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the sync daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			host, err := ctx.host()
			if err != nil {
				return err
			}
			res, err := host.Start(cmd.Context())
			if err != nil {
				return err
			}
			switch {
			case res.Foreground:
				// The run already finished; there is nothing left to report.
			case res.Message != "":
				fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			case res.PID > 0:
				fmt.Fprintf(cmd.OutOrStdout(), "Daemon started (pid %d)\n", res.PID)
			default:
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon started")
			}
			return nil
		},
	}
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the sync daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			host, err := ctx.host()
			if err != nil {
				return err
			}
			res, err := host.Stop(cmd.Context())
			if err != nil {
				return err
			}
			if !res.WasRunning {
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon is not running")
				return nil
			}
			if res.ForcedKill && res.PID > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Daemon did not exit in time; killed process %d\n", res.PID)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Daemon stopped")
			return nil
		},
	}
}

func newRestartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Restart the sync daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			host, err := ctx.host()
			if err != nil {
				return err
			}
			res, err := host.Restart(cmd.Context())
			if err != nil {
				return err
			}
			if res.WasRunning {
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon stopped")
			}
			if res.Message != "" {
				fmt.Fprintln(cmd.OutOrStdout(), res.Message)
				return nil
			}
			if res.PID > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Daemon restarted (pid %d)\n", res.PID)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Daemon restarted")
			return nil
		},
	}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and sync status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			snapshot, err := daemonctl.BuildStatusSnapshot(cmd.Context(), ctx.socketPath(), cfg)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, snapshot)
			}
			colorize := shouldColorize(cmd.OutOrStdout())
			for _, line := range renderStatus(snapshot, ctx.socketPath(), colorize) {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print status as JSON")
	return cmd
}
