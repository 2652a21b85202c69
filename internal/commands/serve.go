package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/propsignal/incentive-recommender/internal/catalog"
	"github.com/propsignal/incentive-recommender/internal/config"
	"github.com/propsignal/incentive-recommender/internal/server"
	"github.com/propsignal/incentive-recommender/internal/serving"
	"github.com/propsignal/incentive-recommender/internal/telemetry"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the recommendation HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.Default()

	// The artifact is loaded once here and held as read-only process state.
	store := serving.NewStore()
	if err := store.LoadFile(cfg.Model.Path); err != nil {
		return fmt.Errorf("loading model artifact from %s (train first?): %w", cfg.Model.Path, err)
	}

	catalogSrc, err := catalog.FromConfig(cfg.Landscape)
	if err != nil {
		return fmt.Errorf("configuring landscape source: %w", err)
	}

	ctx := context.Background()
	metrics, shutdownMetrics, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("configuring telemetry: %w", err)
	}

	srv := server.New(cfg.Server.Addr, store, catalogSrc, metrics, cfg.Server.MaxBodyBytes)
	srv.SetLogger(logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := shutdownMetrics(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown", "error", err)
	}
	return nil
}
