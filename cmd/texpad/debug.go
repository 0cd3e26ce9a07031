package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgruber/texpad/internal/host"
)

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Print the host's typesetting-engine diagnostics",
	RunE:  runDebug,
}

func runDebug(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	backend := host.NewClient(cfg.BackendURL)

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	info, err := backend.DebugInfo(ctx)
	if err != nil {
		return fmt.Errorf("debug info: %w", err)
	}
	fmt.Println(info)
	return nil
}
