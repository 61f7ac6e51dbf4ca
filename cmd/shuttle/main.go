package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"shuttle/internal/services"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(exitCode(err))
	}
}

// exitCode maps well-known failure classes to distinct codes so wrappers and
// service managers can react without parsing output.
func exitCode(err error) int {
	switch {
	case errors.Is(err, services.ErrAlreadyRunning):
		return 2
	case errors.Is(err, services.ErrAuthFailed):
		return 3
	default:
		return 1
	}
}
