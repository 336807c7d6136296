package activestore

import (
	"strings"
	"time"
)

// Config consolidates client settings
type Config struct {
	API       APIConfig       `json:"api" mapstructure:"api"`
	Store     StoreSettings   `json:"store" mapstructure:"store"`
	Transport TransportConfig `json:"transport" mapstructure:"transport"`
	Logging   LoggingConfig   `json:"logging" mapstructure:"logging"`
	Snapshot  SnapshotConfig  `json:"snapshot" mapstructure:"snapshot"`
}

// APIConfig contains remote API settings
type APIConfig struct {
	BaseURL string            `json:"baseURL" mapstructure:"base_url"`
	Prefix  string            `json:"prefix" mapstructure:"prefix"`
	Headers map[string]string `json:"headers" mapstructure:"headers"`
	Timeout time.Duration     `json:"timeout" mapstructure:"timeout"`
}

// StoreSettings contains state store settings
type StoreSettings struct {
	// TrackAnonymousCreates keys CREATE requests without a primary key under a
	// temporary client key so their progress and validation errors are visible
	// in the collection.
	TrackAnonymousCreates bool `json:"trackAnonymousCreates" mapstructure:"track_anonymous_creates"`
}

// TransportConfig contains HTTP transport settings
type TransportConfig struct {
	BreakerThreshold    int           `json:"breakerThreshold" mapstructure:"breaker_threshold"`
	BreakerWindow       time.Duration `json:"breakerWindow" mapstructure:"breaker_window"`
	BreakerOpenDuration time.Duration `json:"breakerOpenDuration" mapstructure:"breaker_open_duration"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	Format string `json:"format" mapstructure:"format"`
}

// SnapshotConfig contains state snapshot settings
type SnapshotConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	DSN     string `json:"dsn" mapstructure:"dsn"`
	Table   string `json:"table" mapstructure:"table"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8080",
			Prefix:  "/api/v1",
			Headers: map[string]string{},
			Timeout: 30 * time.Second,
		},
		Transport: TransportConfig{
			BreakerThreshold:    5,
			BreakerWindow:       30 * time.Second,
			BreakerOpenDuration: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Snapshot: SnapshotConfig{
			Table: "activestore_snapshots",
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.API.Timeout < 0 {
		return &ConfigError{Field: "api.timeout", Message: "must not be negative"}
	}

	if c.API.Prefix != "" && !strings.HasPrefix(c.API.Prefix, "/") && !strings.Contains(c.API.Prefix, "://") {
		return &ConfigError{Field: "api.prefix", Message: "must be an absolute path or URL"}
	}

	if c.Transport.BreakerThreshold < 0 {
		return &ConfigError{Field: "transport.breakerThreshold", Message: "must not be negative"}
	}

	if c.Transport.BreakerThreshold > 0 && c.Transport.BreakerWindow <= 0 {
		return &ConfigError{Field: "transport.breakerWindow", Message: "must be greater than 0 when the breaker is enabled"}
	}

	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return &ConfigError{Field: "logging.format", Message: "must be json or console"}
	}

	if c.Snapshot.Enabled {
		if c.Snapshot.DSN == "" {
			return &ConfigError{Field: "snapshot.dsn", Message: "is required when snapshots are enabled"}
		}
		if c.Snapshot.Table == "" {
			return &ConfigError{Field: "snapshot.table", Message: "is required when snapshots are enabled"}
		}
	}

	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ConfigError) Error() string {
	return "config validation error for field '" + e.Field + "': " + e.Message
}
