package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// resolutionsTotal counts resolved tokens.
	// Labels: kind (confirmed, ambiguous, unmatched), method (ticker, name, fuzzy, "")
	resolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reqvest",
		Subsystem: "resolver",
		Name:      "resolutions_total",
		Help:      "Resolved request tokens by outcome kind and method",
	}, []string{"kind", "method"})

	// fuzzyMatchSeconds measures one fuzzy pass over the name universe.
	fuzzyMatchSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "reqvest",
		Subsystem: "resolver",
		Name:      "fuzzy_match_seconds",
		Help:      "Latency of a fuzzy match over all reference names",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	})

	// sessionsOpen tracks in-progress disambiguation sessions.
	sessionsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "reqvest",
		Subsystem: "session",
		Name:      "open",
		Help:      "Disambiguation sessions awaiting a choice",
	})

	// sessionTransitionsTotal counts session state machine transitions.
	// Labels: transition (open, choose, close, invalid_choice, flush_failed)
	sessionTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reqvest",
		Subsystem: "session",
		Name:      "transitions_total",
		Help:      "Disambiguation session transitions",
	}, []string{"transition"})

	// voteHandoffsTotal counts vote recorder hand-offs.
	// Labels: status (ok, error)
	voteHandoffsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reqvest",
		Subsystem: "votes",
		Name:      "handoffs_total",
		Help:      "Vote recorder hand-offs by status",
	}, []string{"status"})

	// gatewayConnections tracks connected gateway clients.
	gatewayConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "reqvest",
		Subsystem: "gateway",
		Name:      "connections",
		Help:      "Open gateway WebSocket connections",
	})

	// gatewayCommandsTotal counts inbound gateway commands.
	// Labels: type (request, choose, count, reset, unknown)
	gatewayCommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reqvest",
		Subsystem: "gateway",
		Name:      "commands_total",
		Help:      "Inbound gateway commands by type",
	}, []string{"type"})
)

// RecordResolution records one resolved token.
func RecordResolution(kind, method string) {
	resolutionsTotal.WithLabelValues(kind, method).Inc()
}

// ObserveFuzzyMatch records the duration of one fuzzy pass.
func ObserveFuzzyMatch(d time.Duration) {
	fuzzyMatchSeconds.Observe(d.Seconds())
}

// SetSessionsOpen sets the open session gauge.
func SetSessionsOpen(n int) {
	sessionsOpen.Set(float64(n))
}

// RecordSessionTransition records one session transition.
func RecordSessionTransition(transition string) {
	sessionTransitionsTotal.WithLabelValues(transition).Inc()
}

// RecordVoteHandoff records a vote recorder hand-off result.
func RecordVoteHandoff(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	voteHandoffsTotal.WithLabelValues(status).Inc()
}

// GatewayConnected adjusts the connection gauge by delta.
func GatewayConnected(delta int) {
	gatewayConnections.Add(float64(delta))
}

// RecordGatewayCommand records one inbound gateway command.
func RecordGatewayCommand(cmdType string) {
	gatewayCommandsTotal.WithLabelValues(cmdType).Inc()
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
