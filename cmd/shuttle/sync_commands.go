package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shuttle/internal/ipc"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Control sync cycles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newSyncNowCommand(ctx))
	return cmd
}

func newSyncNowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "now",
		Short: "Trigger a sync cycle immediately",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SyncNow()
				if err != nil {
					return fmt.Errorf("trigger sync: %w", err)
				}
				if resp == nil || !resp.Triggered {
					message := "daemon refused the sync trigger"
					if resp != nil && resp.Message != "" {
						message = resp.Message
					}
					return fmt.Errorf("%s", message)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Sync cycle triggered")
				return nil
			})
		},
	}
}
