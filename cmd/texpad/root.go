package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgruber/texpad/internal/applock"
	"github.com/mgruber/texpad/internal/config"
	"github.com/mgruber/texpad/internal/host"
	"github.com/mgruber/texpad/internal/logging"
	"github.com/mgruber/texpad/internal/ui"
)

var (
	addrFlag     string
	backendFlag  string
	configFlag   string
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:          "texpad",
	Short:        "Local UI host for the texpad LaTeX resume editor",
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "base URL of the native host process")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "path to a YAML settings file")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "debug, info, warn or error")
	rootCmd.Flags().StringVar(&addrFlag, "addr", "", "listen address for the UI")
	rootCmd.AddCommand(checkCmd, debugCmd)
}

func loadConfig() config.Config {
	if configFlag != "" {
		os.Setenv("TEXPAD_CONFIG", configFlag)
	}
	cfg := config.Load()
	if addrFlag != "" {
		cfg.Addr = addrFlag
	}
	if backendFlag != "" {
		cfg.BackendURL = backendFlag
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}
	return cfg
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	log := logging.New(cfg.LogLevel)

	release, err := applock.Acquire(cmd.Context(), cfg.LockFile)
	if err != nil {
		return err
	}
	defer release()

	backend := host.NewClient(cfg.BackendURL)
	server := ui.NewServer(cfg, backend, log.With("component", "ui"))

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      server.Router(),
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go server.SweepLoop(sweepCtx, 15*time.Minute)

	errCh := make(chan error, 1)
	go func() {
		log.Info("ui host listening", "addr", cfg.Addr, "backend", cfg.BackendURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
	server.Registry().CloseAll()
	return nil
}
