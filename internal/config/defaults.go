package config

import (
	"time"

	"github.com/rickgao/reqvest/internal/fuzzy"
)

// Default values for optional configuration fields.
const (
	DefaultInstanceID        = "reqvest"
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"
	DefaultListingsPath      = "tickers.json"
	DefaultThreshold         = 80.0
	DefaultVotesBackend      = BackendPostgres
	DefaultVoteMaxRetries    = 3
	DefaultRetryBaseDelay    = 200 * time.Millisecond
	DefaultRetryMaxDelay     = 5 * time.Second
	DefaultDBPort            = 5432
	DefaultDBSSLMode         = "prefer"
	DefaultMaxConns          = 10
	DefaultMinConns          = 2
	DefaultGatewayAddr       = ":8080"
	DefaultGatewayPath       = "/ws"
	DefaultPingInterval      = 15 * time.Second
	DefaultPongTimeout       = 45 * time.Second
	DefaultWriteTimeout      = 10 * time.Second
	DefaultMaxMessageBytes   = 64 * 1024
	DefaultCommandTimeout    = 30 * time.Second
	DefaultPolygonURL        = "https://api.polygon.io"
	DefaultPolygonTimeout    = 30 * time.Second
	DefaultPolygonMaxRetries = 3
	DefaultPolygonPageLimit  = 1000
	DefaultRequestsPerMinute = 5
	DefaultMetricsPort       = 9090
	DefaultMetricsPath       = "/metrics"
)

// Vote recorder backends.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

func (c *Config) applyDefaults() {
	if c.Instance.ID == "" {
		c.Instance.ID = DefaultInstanceID
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}

	if c.Listings.Path == "" {
		c.Listings.Path = DefaultListingsPath
	}

	// Resolver defaults
	if c.Resolver.Threshold == 0 {
		c.Resolver.Threshold = DefaultThreshold
	}
	if c.Resolver.Weights.IsZero() {
		c.Resolver.Weights = fuzzy.DefaultWeights()
	}

	// Votes defaults
	if c.Votes.Backend == "" {
		c.Votes.Backend = DefaultVotesBackend
	}
	if c.Votes.MaxRetries == 0 {
		c.Votes.MaxRetries = DefaultVoteMaxRetries
	}
	if c.Votes.RetryBaseDelay == 0 {
		c.Votes.RetryBaseDelay = DefaultRetryBaseDelay
	}
	if c.Votes.RetryMaxDelay == 0 {
		c.Votes.RetryMaxDelay = DefaultRetryMaxDelay
	}

	applyDBDefaults(&c.Database.Postgres)

	// Gateway defaults
	if c.Gateway.Addr == "" {
		c.Gateway.Addr = DefaultGatewayAddr
	}
	if c.Gateway.Path == "" {
		c.Gateway.Path = DefaultGatewayPath
	}
	if c.Gateway.PingInterval == 0 {
		c.Gateway.PingInterval = DefaultPingInterval
	}
	if c.Gateway.PongTimeout == 0 {
		c.Gateway.PongTimeout = DefaultPongTimeout
	}
	if c.Gateway.WriteTimeout == 0 {
		c.Gateway.WriteTimeout = DefaultWriteTimeout
	}
	if c.Gateway.MaxMessageBytes == 0 {
		c.Gateway.MaxMessageBytes = DefaultMaxMessageBytes
	}
	if c.Gateway.CommandTimeout == 0 {
		c.Gateway.CommandTimeout = DefaultCommandTimeout
	}

	// Polygon defaults
	if c.Polygon.BaseURL == "" {
		c.Polygon.BaseURL = DefaultPolygonURL
	}
	if c.Polygon.Timeout == 0 {
		c.Polygon.Timeout = DefaultPolygonTimeout
	}
	if c.Polygon.MaxRetries == 0 {
		c.Polygon.MaxRetries = DefaultPolygonMaxRetries
	}
	if c.Polygon.PageLimit == 0 {
		c.Polygon.PageLimit = DefaultPolygonPageLimit
	}
	if c.Polygon.RequestsPerMinute == 0 {
		c.Polygon.RequestsPerMinute = DefaultRequestsPerMinute
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
