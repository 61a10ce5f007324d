package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jaskrrish/Go-QEC/internal/config"
	"github.com/jaskrrish/Go-QEC/internal/handlers"
	"github.com/jaskrrish/Go-QEC/internal/logging"
	"github.com/jaskrrish/Go-QEC/internal/qec"
	"github.com/jaskrrish/Go-QEC/internal/qec/transcript"
	"github.com/jaskrrish/Go-QEC/internal/store"
)

var (
	// Global flags
	configPath string
	port       string
	verbose    bool
)

// rootCmd starts the API server
var rootCmd = &cobra.Command{
	Use:   "qec-api",
	Short: "Go-QEC - noisy stabilizer-code simulation service",
	Long: `Serves correction runs on the 7-qubit Steane code over HTTP.

A run prepares a register, applies the configured noise channel, measures the
stabilizer syndrome, decodes it and applies the recovery, once per trial.`,
	SilenceUsage: true,
	RunE:         serve,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVarP(&port, "port", "p", "", "listen port (overrides config and PORT)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if port != "" {
		cfg.Server.Port = port
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(cfg.Logging, verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	runStore, err := store.Open(cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer runStore.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runManager := qec.NewRunManager(runStore, qec.ManagerOptions{
		MaxTrials:    cfg.Simulation.MaxTrials,
		DigestMethod: transcript.Method(cfg.Simulation.DigestMethod),
		DefaultNoise: cfg.Simulation.DefaultNoise,
	}, logger)
	cleanupDone := runManager.StartCleanup(ctx, cfg.Simulation.CleanupInterval)

	mux := http.NewServeMux()
	mux.HandleFunc("/", handlers.HomeHandler)
	mux.HandleFunc("/health", handlers.HealthHandler)
	mux.Handle("/metrics", promhttp.Handler())
	handlers.NewQECHandler(runManager, logger).Routes(mux)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handlers.LoggingMiddleware(logger, mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  2 * cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("store", cfg.Storage.Driver))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		stop()
		<-cleanupDone
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	<-cleanupDone
	logger.Info("server stopped")
	return nil
}
