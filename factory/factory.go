package factory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lychee-technology/activestore"
	"github.com/lychee-technology/activestore/internal"
)

// PgxPool is the part of *pgxpool.Pool used to store state snapshots.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type options struct {
	httpClient activestore.HTTPDoer
	inflector  activestore.Inflector
	resolver   activestore.RouteResolver
	snapshots  activestore.SnapshotRepository
	pool       PgxPool
}

// Option customizes a client built by NewClient.
type Option func(*options)

// WithHTTPClient sets the HTTP client used for API requests.
func WithHTTPClient(client activestore.HTTPDoer) Option {
	return func(o *options) { o.httpClient = client }
}

// WithInflector replaces the default route-name inflector.
func WithInflector(inflector activestore.Inflector) Option {
	return func(o *options) { o.inflector = inflector }
}

// WithRouteResolver replaces the default route template resolver.
func WithRouteResolver(resolver activestore.RouteResolver) Option {
	return func(o *options) { o.resolver = resolver }
}

// WithSnapshotRepository sets the repository state snapshots are restored
// from and written to.
func WithSnapshotRepository(repo activestore.SnapshotRepository) Option {
	return func(o *options) { o.snapshots = repo }
}

// WithPostgresSnapshots stores snapshots in the config.Snapshot.Table table
// through pool. The table is created when missing.
func WithPostgresSnapshots(pool PgxPool) Option {
	return func(o *options) { o.pool = pool }
}

// NewClient creates a client for the given model definitions. This is the
// primary way for external projects to create a Client.
//
// Usage:
//
//	config := activestore.DefaultConfig()
//	config.API.BaseURL = "https://api.example.com"
//	client, err := factory.NewClient(ctx, config, map[string]activestore.Definition{
//	    "Post": activestore.Model{Fields: map[string]any{"title": activestore.TypeString}},
//	})
//	if err != nil {
//	    // handle error
//	}
//	defer client.Close()
func NewClient(ctx context.Context, config *activestore.Config, definitions map[string]activestore.Definition, opts ...Option) (activestore.Client, error) {
	if config == nil {
		config = activestore.DefaultConfig()
	}
	if len(definitions) == 0 {
		return nil, fmt.Errorf("at least one model definition is required")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	snapshots := o.snapshots
	if snapshots == nil && o.pool != nil {
		if !config.Snapshot.Enabled {
			return nil, fmt.Errorf("postgres snapshots given but config.Snapshot.Enabled is false")
		}
		repo := internal.NewPostgresSnapshotRepository(o.pool, config.Snapshot.Table)
		if err := repo.EnsureTable(ctx); err != nil {
			return nil, fmt.Errorf("failed to prepare snapshot table: %w", err)
		}
		snapshots = repo
	}

	return internal.NewClient(ctx, internal.ClientOptions{
		Config:      config,
		Definitions: definitions,
		HTTPClient:  o.httpClient,
		Inflector:   o.inflector,
		Resolver:    o.resolver,
		Snapshots:   snapshots,
	})
}

// NewClientFromSchemaDir loads every JSON Schema model definition in dir and
// creates a client for them.
func NewClientFromSchemaDir(ctx context.Context, config *activestore.Config, dir string, opts ...Option) (activestore.Client, error) {
	definitions, err := internal.LoadDefinitionsFromDir(dir)
	if err != nil {
		return nil, err
	}
	return NewClient(ctx, config, definitions, opts...)
}
