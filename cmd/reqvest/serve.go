package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/reqvest/internal/engine"
	"github.com/rickgao/reqvest/internal/gateway"
	"github.com/rickgao/reqvest/internal/version"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the WebSocket gateway with health and metrics endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(parent context.Context) error {
	cfg, logger := a.cfg, a.logger

	logger.Info("starting reqvest",
		"version", version.Version,
		"commit", version.Commit,
		"instance_id", cfg.Instance.ID,
		"config", a.configPath,
	)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	// Handle shutdown signals
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	idx, err := buildIndex(cfg, logger)
	if err != nil {
		logger.Error("reference data unavailable", "path", cfg.Listings.Path, "error", err)
		return err
	}

	rec, err := openRecorder(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open vote store", "error", err)
		return err
	}
	defer rec.close()

	eng := engine.New(newResolver(idx, cfg, logger), rec, logger.With("component", "engine"))

	gw := gateway.NewServer(gateway.Config{
		PingInterval:    cfg.Gateway.PingInterval,
		PongTimeout:     cfg.Gateway.PongTimeout,
		WriteTimeout:    cfg.Gateway.WriteTimeout,
		MaxMessageBytes: cfg.Gateway.MaxMessageBytes,
		CommandTimeout:  cfg.Gateway.CommandTimeout,
	}, eng, logger.With("component", "gateway"))

	gwMux := http.NewServeMux()
	gwMux.Handle(cfg.Gateway.Path, gw)
	gatewayServer := &http.Server{
		Addr:              cfg.Gateway.Addr,
		Handler:           gwMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	healthServer := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: newHealthHandler(healthDeps{
			db:          rec.pinger,
			index:       idx,
			sessions:    eng.Sessions(),
			connections: gw.ConnCount,
			metricsPath: cfg.Metrics.Path,
			logger:      logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting gateway", "addr", cfg.Gateway.Addr, "path", cfg.Gateway.Path)
		if err := gatewayServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("gateway server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("starting health server", "port", cfg.Metrics.Port)
		if err := healthServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// Hijacked WebSocket connections are not tracked by Shutdown.
		if err := gatewayServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("gateway shutdown", "error", err)
		}
		if err := gw.Close(shutdownCtx); err != nil {
			logger.Warn("gateway close", "error", err)
		}

		if open := eng.Sessions().Len(); open > 0 {
			logger.Warn("dropping open disambiguation sessions", "count", open)
		}

		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("health server shutdown", "error", err)
		}
		return nil
	})

	logger.Info("reqvest running",
		"instance_id", cfg.Instance.ID,
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Metrics.Port),
	)

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		return err
	}

	logger.Info("reqvest stopped")
	return nil
}
