package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rickgao/reqvest/internal/config"
	"github.com/rickgao/reqvest/internal/database"
	"github.com/rickgao/reqvest/internal/reference"
	"github.com/rickgao/reqvest/internal/resolver"
	"github.com/rickgao/reqvest/internal/votes"
)

// pinger reports backing store health.
type pinger interface {
	Ping(ctx context.Context) error
}

// buildIndex loads the listings file and indexes it.
func buildIndex(cfg *config.Config, logger *slog.Logger) (*reference.Index, error) {
	start := time.Now()

	listings, err := reference.LoadFile(cfg.Listings.Path)
	if err != nil {
		return nil, err
	}

	idx, err := reference.Build(listings, reference.Options{ExcludeMarkets: cfg.Listings.ExcludeMarkets})
	if err != nil {
		return nil, err
	}

	stats := idx.Stats()
	logger.Info("reference index built",
		"path", cfg.Listings.Path,
		"listings", stats.Listings,
		"excluded", stats.Excluded,
		"duplicate", stats.Duplicate,
		"tickers", stats.Tickers,
		"names", stats.Names,
		"ambiguous", stats.Ambiguous,
		"duration", time.Since(start),
	)
	return idx, nil
}

// newResolver creates a resolver configured from cfg.
func newResolver(idx *reference.Index, cfg *config.Config, logger *slog.Logger) *resolver.Resolver {
	return resolver.New(idx, resolver.Config{
		Threshold: cfg.Resolver.Threshold,
		Weights:   cfg.Resolver.Weights,
		Workers:   cfg.Resolver.Workers,
	}, resolver.WithLogger(logger.With("component", "resolver")))
}

// recorder is a vote store with its health check and cleanup.
type recorder struct {
	votes.Recorder
	pinger pinger // nil for the memory backend
	close  func()
}

// openRecorder connects the configured vote backend.
func openRecorder(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*recorder, error) {
	if cfg.Votes.Backend == config.BackendMemory {
		logger.Warn("using in-memory vote store; votes are lost on restart")
		return &recorder{Recorder: votes.NewMemoryStore(), close: func() {}}, nil
	}

	pg := cfg.Database.Postgres
	logger.Info("connecting to database",
		"host", pg.Host,
		"port", pg.Port,
		"database", pg.Name,
	)

	pool, err := database.Connect(ctx, pg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	store := votes.NewPostgresStore(pool, logger.With("component", "votes"))
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info("database connected")

	retrying := votes.NewRetrying(store, votes.RetryConfig{
		MaxRetries: cfg.Votes.MaxRetries,
		BaseDelay:  cfg.Votes.RetryBaseDelay,
		MaxDelay:   cfg.Votes.RetryMaxDelay,
	}, logger.With("component", "votes"))

	return &recorder{Recorder: retrying, pinger: store, close: pool.Close}, nil
}
