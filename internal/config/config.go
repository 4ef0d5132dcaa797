package config

import (
	"time"

	"github.com/rickgao/reqvest/internal/fuzzy"
)

// Config is the root configuration for a reqvest instance.
type Config struct {
	Instance InstanceConfig `yaml:"instance"`
	Log      LogConfig      `yaml:"log"`
	Listings ListingsConfig `yaml:"listings"`
	Resolver ResolverConfig `yaml:"resolver"`
	Votes    VotesConfig    `yaml:"votes"`
	Database DatabaseConfig `yaml:"database"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Polygon  PolygonConfig  `yaml:"polygon"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// InstanceConfig identifies this instance.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// ListingsConfig locates the reference listings file.
type ListingsConfig struct {
	Path string `yaml:"path"`

	// Markets dropped before indexing. Unset uses the built-in list;
	// an explicit empty list keeps everything.
	ExcludeMarkets []string `yaml:"exclude_markets"`
}

// ResolverConfig holds fuzzy resolution settings.
type ResolverConfig struct {
	Threshold float64       `yaml:"threshold"`
	Workers   int           `yaml:"workers"` // 0 uses GOMAXPROCS
	Weights   fuzzy.Weights `yaml:"weights"`
}

// VotesConfig selects and tunes the vote recorder.
type VotesConfig struct {
	Backend        string        `yaml:"backend"` // postgres, memory
	MaxRetries     int           `yaml:"max_retries"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay"`
	RetryMaxDelay  time.Duration `yaml:"retry_max_delay"`
}

// DatabaseConfig holds the PostgreSQL connection for votes.
type DatabaseConfig struct {
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	URL      string `yaml:"url"` // Full connection URL; overrides the fields below
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// GatewayConfig holds WebSocket gateway settings.
type GatewayConfig struct {
	Addr            string        `yaml:"addr"`
	Path            string        `yaml:"path"`
	PingInterval    time.Duration `yaml:"ping_interval"`
	PongTimeout     time.Duration `yaml:"pong_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	MaxMessageBytes int64         `yaml:"max_message_bytes"`
	CommandTimeout  time.Duration `yaml:"command_timeout"`
}

// PolygonConfig holds listings download settings.
type PolygonConfig struct {
	BaseURL           string        `yaml:"base_url"`
	APIKey            string        `yaml:"api_key"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxRetries        int           `yaml:"max_retries"`
	PageLimit         int           `yaml:"page_limit"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	Market            string        `yaml:"market"` // Empty fetches every market
}

// MetricsConfig holds the health and Prometheus HTTP server settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
