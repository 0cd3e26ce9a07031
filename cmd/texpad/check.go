package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgruber/texpad/internal/host"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether the typesetting engine is available",
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	backend := host.NewClient(cfg.BackendURL)

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	status, err := backend.CheckRequirements(ctx)
	if err != nil {
		return fmt.Errorf("requirements check: %w", err)
	}

	if status.PDFLaTeXAvailable {
		fmt.Printf("pdflatex: found")
		if status.PDFLaTeXPath != "" {
			fmt.Printf(" at %s", status.PDFLaTeXPath)
		}
		fmt.Println()
	} else {
		fmt.Println("pdflatex: not found")
	}

	if !status.AllSatisfied {
		return fmt.Errorf("system requirements not satisfied")
	}
	fmt.Println("all requirements satisfied")
	return nil
}
