package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lychee-technology/activestore"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	configFileName = "activestore"
	configFileType = "yaml"
	envPrefix      = "ACTIVESTORE"
)

// loadConfig reads the YAML config file, ACTIVESTORE_* environment variables
// and the defaults of activestore.DefaultConfig, in that order of precedence
// after flags. A missing config file is not an error.
func loadConfig(path string) (*activestore.Config, error) {
	defaults := activestore.DefaultConfig()

	v := viper.New()
	v.SetDefault("api.base_url", defaults.API.BaseURL)
	v.SetDefault("api.prefix", defaults.API.Prefix)
	v.SetDefault("api.timeout", defaults.API.Timeout)
	v.SetDefault("store.track_anonymous_creates", defaults.Store.TrackAnonymousCreates)
	v.SetDefault("transport.breaker_threshold", defaults.Transport.BreakerThreshold)
	v.SetDefault("transport.breaker_window", defaults.Transport.BreakerWindow)
	v.SetDefault("transport.breaker_open_duration", defaults.Transport.BreakerOpenDuration)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)
	v.SetDefault("snapshot.enabled", defaults.Snapshot.Enabled)
	v.SetDefault("snapshot.dsn", defaults.Snapshot.DSN)
	v.SetDefault("snapshot.table", defaults.Snapshot.Table)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.activestore")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := activestore.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the process logger from the logging settings.
func newLogger(cfg activestore.LoggingConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zcfg.Level = level
	}
	zcfg.OutputPaths = []string{"stderr"}
	return zcfg.Build()
}
