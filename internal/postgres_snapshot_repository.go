package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lychee-technology/activestore"
	"go.uber.org/zap"
)

// snapshotPool is the subset of *pgxpool.Pool used by the snapshot repository.
type snapshotPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresSnapshotRepository stores one JSON state document per model.
type PostgresSnapshotRepository struct {
	pool  snapshotPool
	table string
}

// NewPostgresSnapshotRepository creates a repository writing to table.
func NewPostgresSnapshotRepository(pool snapshotPool, table string) *PostgresSnapshotRepository {
	return &PostgresSnapshotRepository{pool: pool, table: table}
}

// EnsureTable creates the snapshot table when missing.
func (r *PostgresSnapshotRepository) EnsureTable(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    model_name TEXT PRIMARY KEY,
    state JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, sanitizeIdentifier(r.table))
	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create snapshot table %s: %w", r.table, err)
	}
	return nil
}

// Save upserts the state document of model.
func (r *PostgresSnapshotRepository) Save(ctx context.Context, model string, state json.RawMessage) error {
	if model == "" {
		return fmt.Errorf("model name is required")
	}
	query := fmt.Sprintf(
		`INSERT INTO %s (model_name, state, updated_at) VALUES ($1, $2, now())
ON CONFLICT (model_name) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`,
		sanitizeIdentifier(r.table),
	)
	tag, err := r.pool.Exec(ctx, query, model, []byte(state))
	if err != nil {
		return fmt.Errorf("save snapshot for %s: %w", model, err)
	}
	zap.S().Debugw("snapshot saved", "model", model, "rows", tag.RowsAffected(), "bytes", len(state))
	return nil
}

// Load returns the stored state document of model. found is false when no
// snapshot exists.
func (r *PostgresSnapshotRepository) Load(ctx context.Context, model string) (json.RawMessage, bool, error) {
	query := fmt.Sprintf(`SELECT state FROM %s WHERE model_name = $1`, sanitizeIdentifier(r.table))

	var state []byte
	if err := r.pool.QueryRow(ctx, query, model).Scan(&state); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("load snapshot for %s: %w", model, err)
	}
	return json.RawMessage(state), true, nil
}

var _ activestore.SnapshotRepository = (*PostgresSnapshotRepository)(nil)
