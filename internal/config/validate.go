package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	if c.Listings.Path == "" {
		return errors.New("listings.path is required")
	}

	if c.Resolver.Threshold <= 0 || c.Resolver.Threshold >= 100 {
		return fmt.Errorf("resolver.threshold must be between 0 and 100, got %v", c.Resolver.Threshold)
	}
	if c.Resolver.Workers < 0 {
		return errors.New("resolver.workers must be >= 0")
	}
	if err := c.Resolver.Weights.Validate(); err != nil {
		return fmt.Errorf("resolver.weights: %w", err)
	}

	switch c.Votes.Backend {
	case BackendPostgres:
		if err := c.Database.Postgres.validate("database.postgres"); err != nil {
			return err
		}
	case BackendMemory:
	default:
		return fmt.Errorf("votes.backend must be postgres or memory, got %q", c.Votes.Backend)
	}
	if c.Votes.MaxRetries < 0 {
		return errors.New("votes.max_retries must be >= 0")
	}
	if c.Votes.RetryMaxDelay < c.Votes.RetryBaseDelay {
		return errors.New("votes.retry_max_delay cannot be less than retry_base_delay")
	}

	if c.Gateway.Addr == "" {
		return errors.New("gateway.addr is required")
	}
	if c.Gateway.PongTimeout <= c.Gateway.PingInterval {
		return fmt.Errorf("gateway.pong_timeout (%v) must exceed ping_interval (%v)", c.Gateway.PongTimeout, c.Gateway.PingInterval)
	}
	if c.Gateway.MaxMessageBytes < 1 {
		return errors.New("gateway.max_message_bytes must be >= 1")
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	return nil
}

// ValidatePolygon checks the settings needed to download listings.
func (c *Config) ValidatePolygon() error {
	if c.Polygon.APIKey == "" {
		return errors.New("polygon.api_key is required")
	}
	if c.Polygon.PageLimit < 1 || c.Polygon.PageLimit > 1000 {
		return fmt.Errorf("polygon.page_limit must be between 1 and 1000, got %d", c.Polygon.PageLimit)
	}
	if c.Polygon.RequestsPerMinute < 1 {
		return errors.New("polygon.requests_per_minute must be >= 1")
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.URL != "" {
		return nil
	}
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
