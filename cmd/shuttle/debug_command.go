package main

import (
	"github.com/spf13/cobra"

	"shuttle/internal/daemonrun"
)

func newDebugCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "debug",
		Short: "Run the daemon in the foreground with verbose console logs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:    "debug",
				Foreground:  true,
				Development: true,
			})
		},
	}
}
