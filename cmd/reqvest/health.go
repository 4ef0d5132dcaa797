package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rickgao/reqvest/internal/metrics"
	"github.com/rickgao/reqvest/internal/reference"
	"github.com/rickgao/reqvest/internal/session"
	"github.com/rickgao/reqvest/internal/version"
)

// healthDeps are the components reported by the health server.
type healthDeps struct {
	db          pinger // nil when votes are held in memory
	index       *reference.Index
	sessions    session.Manager
	connections func() int
	metricsPath string
	logger      *slog.Logger
}

// newHealthHandler serves /health, the metrics endpoint and /debug/sessions.
func newHealthHandler(d healthDeps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string                 `json:"status"`
			Version    version.Info           `json:"version"`
			Components map[string]interface{} `json:"components"`
		}{
			Status:     "healthy",
			Version:    version.Get(),
			Components: make(map[string]interface{}),
		}

		// Check database
		if d.db != nil {
			if err := d.db.Ping(ctx); err != nil {
				health.Status = "unhealthy"
				health.Components["postgres"] = map[string]string{
					"status": "disconnected",
					"error":  err.Error(),
				}
			} else {
				health.Components["postgres"] = "connected"
			}
		} else {
			health.Components["votes"] = "memory"
		}

		stats := d.index.Stats()
		health.Components["reference_index"] = map[string]int{
			"tickers":   stats.Tickers,
			"names":     stats.Names,
			"ambiguous": stats.Ambiguous,
		}
		health.Components["sessions"] = map[string]int{
			"open": d.sessions.Len(),
		}
		health.Components["gateway"] = map[string]int{
			"connections": d.connections(),
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		if err := json.NewEncoder(w).Encode(health); err != nil {
			d.logger.Debug("encode health response", "error", err)
		}
	})

	mux.HandleFunc("/debug/sessions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(d.sessions.Snapshot()); err != nil {
			d.logger.Debug("encode sessions response", "error", err)
		}
	})

	mux.Handle(d.metricsPath, metrics.Handler())

	return mux
}
