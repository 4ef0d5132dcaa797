package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rickgao/reqvest/internal/fuzzy"
)

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: test-bot
listings:
  path: /data/tickers.json
  exclude_markets: [otc]
resolver:
  threshold: 85
  workers: 4
database:
  postgres:
    host: localhost
    port: 5432
    name: reqvest
    user: testuser
    password: testpass
gateway:
  addr: ":9000"
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "test-bot" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "test-bot")
	}
	if cfg.Listings.Path != "/data/tickers.json" {
		t.Errorf("Listings.Path = %q, want %q", cfg.Listings.Path, "/data/tickers.json")
	}
	if len(cfg.Listings.ExcludeMarkets) != 1 || cfg.Listings.ExcludeMarkets[0] != "otc" {
		t.Errorf("Listings.ExcludeMarkets = %v, want [otc]", cfg.Listings.ExcludeMarkets)
	}
	if cfg.Resolver.Threshold != 85 {
		t.Errorf("Resolver.Threshold = %v, want 85", cfg.Resolver.Threshold)
	}
	if cfg.Resolver.Workers != 4 {
		t.Errorf("Resolver.Workers = %d, want 4", cfg.Resolver.Workers)
	}
	if cfg.Database.Postgres.Host != "localhost" {
		t.Errorf("Database.Postgres.Host = %q, want %q", cfg.Database.Postgres.Host, "localhost")
	}
	if cfg.Gateway.Addr != ":9000" {
		t.Errorf("Gateway.Addr = %q, want %q", cfg.Gateway.Addr, ":9000")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "secret123")
	t.Setenv("TEST_POLYGON_KEY", "pk_test")

	yaml := `
database:
  postgres:
    host: localhost
    name: reqvest
    user: testuser
    password: ${TEST_DB_PASSWORD}
polygon:
  api_key: ${TEST_POLYGON_KEY}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Postgres.Password != "secret123" {
		t.Errorf("Database.Postgres.Password = %q, want %q", cfg.Database.Postgres.Password, "secret123")
	}
	if cfg.Polygon.APIKey != "pk_test" {
		t.Errorf("Polygon.APIKey = %q, want %q", cfg.Polygon.APIKey, "pk_test")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("REQVEST_TEST_DOTENV=from-file\n"), 0644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("REQVEST_TEST_DOTENV") })

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), envPath); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if got := os.Getenv("REQVEST_TEST_DOTENV"); got != "from-file" {
		t.Errorf("REQVEST_TEST_DOTENV = %q, want %q", got, "from-file")
	}
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	t.Setenv("REQVEST_TEST_DOTENV_SET", "from-env")

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("REQVEST_TEST_DOTENV_SET=from-file\n"), 0644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if got := os.Getenv("REQVEST_TEST_DOTENV_SET"); got != "from-env" {
		t.Errorf("REQVEST_TEST_DOTENV_SET = %q, want %q", got, "from-env")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
database:
  postgres:
    host: localhost
    name: reqvest
    user: testuser
    password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	// Check defaults were applied
	if cfg.Instance.ID != DefaultInstanceID {
		t.Errorf("Instance.ID = %q, want default %q", cfg.Instance.ID, DefaultInstanceID)
	}
	if cfg.Resolver.Threshold != DefaultThreshold {
		t.Errorf("Resolver.Threshold = %v, want default %v", cfg.Resolver.Threshold, DefaultThreshold)
	}
	if cfg.Resolver.Weights != fuzzy.DefaultWeights() {
		t.Errorf("Resolver.Weights = %+v, want defaults", cfg.Resolver.Weights)
	}
	if cfg.Listings.ExcludeMarkets != nil {
		t.Errorf("Listings.ExcludeMarkets = %v, want nil", cfg.Listings.ExcludeMarkets)
	}
	if cfg.Votes.Backend != BackendPostgres {
		t.Errorf("Votes.Backend = %q, want default %q", cfg.Votes.Backend, BackendPostgres)
	}
	if cfg.Database.Postgres.Port != DefaultDBPort {
		t.Errorf("Database.Postgres.Port = %d, want default %d", cfg.Database.Postgres.Port, DefaultDBPort)
	}
	if cfg.Database.Postgres.MaxConns != DefaultMaxConns {
		t.Errorf("Database.Postgres.MaxConns = %d, want default %d", cfg.Database.Postgres.MaxConns, DefaultMaxConns)
	}
	if cfg.Gateway.PingInterval != DefaultPingInterval {
		t.Errorf("Gateway.PingInterval = %v, want default %v", cfg.Gateway.PingInterval, DefaultPingInterval)
	}
	if cfg.Polygon.RequestsPerMinute != DefaultRequestsPerMinute {
		t.Errorf("Polygon.RequestsPerMinute = %d, want default %d", cfg.Polygon.RequestsPerMinute, DefaultRequestsPerMinute)
	}
	if cfg.Metrics.Port != DefaultMetricsPort {
		t.Errorf("Metrics.Port = %d, want default %d", cfg.Metrics.Port, DefaultMetricsPort)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults: %v", err)
	}
}

func TestLoadAndValidate(t *testing.T) {
	path := writeTempFile(t, "resolver:\n  threshold: 120\nvotes:\n  backend: memory\n")

	_, err := LoadAndValidate(path)
	if err == nil {
		t.Fatal("LoadAndValidate() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "resolver.threshold must be between 0 and 100") {
		t.Errorf("LoadAndValidate() error = %q", err.Error())
	}
}

func TestDefaultMemoryBackendValidates(t *testing.T) {
	cfg := Default()
	cfg.Votes.Backend = BackendMemory
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Default()
		cfg.Database.Postgres = DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 10, MinConns: 2}
		return *cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing instance id",
			mutate:  func(c *Config) { c.Instance.ID = "" },
			wantErr: "instance.id is required",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Log.Level = "trace" },
			wantErr: `log.level must be one of debug, info, warn, error, got "trace"`,
		},
		{
			name:    "threshold out of range",
			mutate:  func(c *Config) { c.Resolver.Threshold = 100 },
			wantErr: "resolver.threshold must be between 0 and 100, got 100",
		},
		{
			name:    "weights do not sum to one",
			mutate:  func(c *Config) { c.Resolver.Weights.Fuzzy = 0.5 },
			wantErr: "resolver.weights: weights must sum to 1, got 1.400",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Votes.Backend = "redis" },
			wantErr: `votes.backend must be postgres or memory, got "redis"`,
		},
		{
			name:    "missing postgres host",
			mutate:  func(c *Config) { c.Database.Postgres.Host = "" },
			wantErr: "database.postgres.host is required",
		},
		{
			name:    "missing postgres password",
			mutate:  func(c *Config) { c.Database.Postgres.Password = "" },
			wantErr: "database.postgres.password is required",
		},
		{
			name:    "min_conns exceeds max_conns",
			mutate:  func(c *Config) { c.Database.Postgres.MinConns = 20 },
			wantErr: "database.postgres.min_conns (20) cannot exceed max_conns (10)",
		},
		{
			name: "memory backend skips database",
			mutate: func(c *Config) {
				c.Votes.Backend = BackendMemory
				c.Database.Postgres = DBConfig{}
			},
			wantErr: "",
		},
		{
			name: "pong timeout not above ping interval",
			mutate: func(c *Config) {
				c.Gateway.PingInterval = 30 * time.Second
				c.Gateway.PongTimeout = 30 * time.Second
			},
			wantErr: "gateway.pong_timeout (30s) must exceed ping_interval (30s)",
		},
		{
			name:    "bad metrics port",
			mutate:  func(c *Config) { c.Metrics.Port = 70000 },
			wantErr: "metrics.port must be between 1 and 65535, got 70000",
		},
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func TestValidatePolygon(t *testing.T) {
	cfg := Default()
	if err := cfg.ValidatePolygon(); err == nil || err.Error() != "polygon.api_key is required" {
		t.Errorf("ValidatePolygon() error = %v, want api_key required", err)
	}

	cfg.Polygon.APIKey = "key"
	if err := cfg.ValidatePolygon(); err != nil {
		t.Errorf("ValidatePolygon() unexpected error: %v", err)
	}

	cfg.Polygon.PageLimit = 5000
	if err := cfg.ValidatePolygon(); err == nil {
		t.Error("ValidatePolygon() expected error for page_limit 5000")
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestSampleConfig(t *testing.T) {
	t.Setenv("REQVEST_DB_HOST", "db.internal")
	t.Setenv("REQVEST_DB_PASSWORD", "secret")
	t.Setenv("POLYGON_API_KEY", "pk_sample")

	cfg, err := LoadAndValidate(filepath.Join("..", "..", "configs", "reqvest.yaml"))
	if err != nil {
		t.Fatalf("LoadAndValidate(sample) failed: %v", err)
	}
	if cfg.Database.Postgres.Host != "db.internal" {
		t.Errorf("Database.Postgres.Host = %q, want %q", cfg.Database.Postgres.Host, "db.internal")
	}
	if cfg.Resolver.Weights != fuzzy.DefaultWeights() {
		t.Errorf("Resolver.Weights = %+v, want defaults", cfg.Resolver.Weights)
	}
	if err := cfg.ValidatePolygon(); err != nil {
		t.Errorf("ValidatePolygon() on sample: %v", err)
	}
}
