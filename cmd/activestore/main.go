// Package main provides the activestore CLI: it loads model definitions from
// JSON Schema files and runs CRUD actions against the configured API.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lychee-technology/activestore"
	"github.com/lychee-technology/activestore/factory"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	exitSuccess      = 0
	exitRequestError = 1
	exitSysError     = 2
)

var (
	flagConfig  string
	flagSchemas string
	flagBaseURL string

	// client is initialized by PersistentPreRunE for every model command.
	client activestore.Client
	config *activestore.Config
	pool   *pgxpool.Pool
	logger *zap.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "activestore",
	Short: "Run CRUD actions against a JSON API through the activestore client",
	Long: `activestore registers the models described by the JSON Schema files in
--schemas, dispatches one action against the configured API and prints the
result as JSON. With snapshots enabled the store state is restored from and
saved to Postgres around every command.`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  openClient,
	PersistentPostRunE: closeClient,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: ./activestore.yaml or ~/.activestore/activestore.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagSchemas, "schemas", "schemas", "directory of <Model>.json schema files")
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "API base URL (overrides api.base_url)")

	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(destroyCmd)
	rootCmd.AddCommand(stateCmd)

	cobra.OnFinalize(releaseResources)
}

// openClient loads config, installs the logger and builds the client.
func openClient(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(flagConfig)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if flagBaseURL != "" {
		cfg.API.BaseURL = flagBaseURL
	}
	config = cfg

	logger, err = newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var opts []factory.Option
	if cfg.Snapshot.Enabled {
		pool, err = pgxpool.New(ctx, cfg.Snapshot.DSN)
		if err != nil {
			return fmt.Errorf("failed to create database pool: %w", err)
		}
		opts = append(opts, factory.WithPostgresSnapshots(pool))
	}

	client, err = factory.NewClientFromSchemaDir(ctx, cfg, flagSchemas, opts...)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	return nil
}

// closeClient drains pending completions and saves a snapshot when enabled.
func closeClient(cmd *cobra.Command, args []string) error {
	if client == nil {
		return nil
	}
	if err := client.Close(); err != nil {
		return err
	}
	if config != nil && config.Snapshot.Enabled {
		if err := client.Snapshot(cmd.Context()); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
	}
	return nil
}

// releaseResources runs after every command, including failed ones.
func releaseResources() {
	if client != nil {
		_ = client.Close()
		client = nil
	}
	if pool != nil {
		pool.Close()
		pool = nil
	}
	if logger != nil {
		_ = logger.Sync()
	}
}
