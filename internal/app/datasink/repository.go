package datasink

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/todo-1m/tasklist/internal/app/labelstore"
	"github.com/todo-1m/tasklist/internal/app/query"
	"github.com/todo-1m/tasklist/internal/domain/label"
	"github.com/todo-1m/tasklist/internal/domain/task"
)

// Every view write, incremental or rebuilt, draws its revision from one
// sequence. TRUNCATE does not reset it.
const createRevisionSequenceSQL = `CREATE SEQUENCE IF NOT EXISTS projection_view_revision`

const createViewsTableSQL = `
CREATE TABLE IF NOT EXISTS projection_views (
  kind text NOT NULL,
  view_id text NOT NULL,
  body jsonb,
  revision bigint NOT NULL DEFAULT nextval('projection_view_revision'),
  updated_at timestamptz NOT NULL DEFAULT now(),
  PRIMARY KEY (kind, view_id)
)`

const createCheckpointsTableSQL = `
CREATE TABLE IF NOT EXISTS projection_checkpoints (
  aggregate_type text NOT NULL,
  aggregate_id text NOT NULL,
  version bigint NOT NULL DEFAULT 0,
  updated_at timestamptz NOT NULL DEFAULT now(),
  PRIMARY KEY (aggregate_type, aggregate_id)
)`

const createViewItemsIndexSQL = `
CREATE INDEX IF NOT EXISTS projection_views_items_idx
ON projection_views USING gin ((body -> 'items'))
WHERE kind = 'labelled'`

const ensureCheckpointSQL = `
INSERT INTO projection_checkpoints (aggregate_type, aggregate_id)
VALUES ($1, $2)
ON CONFLICT (aggregate_type, aggregate_id) DO NOTHING
`

const lockCheckpointSQL = `
SELECT version
FROM projection_checkpoints
WHERE aggregate_type = $1 AND aggregate_id = $2
FOR UPDATE
`

const saveCheckpointSQL = `
UPDATE projection_checkpoints
SET version = $3, updated_at = now()
WHERE aggregate_type = $1 AND aggregate_id = $2
`

const ensureViewSQL = `
INSERT INTO projection_views (kind, view_id)
VALUES ($1, $2)
ON CONFLICT (kind, view_id) DO NOTHING
`

const lockViewSQL = `
SELECT body
FROM projection_views
WHERE kind = $1 AND view_id = $2
FOR UPDATE
`

const saveViewSQL = `
UPDATE projection_views
SET body = $3,
    revision = nextval('projection_view_revision'),
    updated_at = now()
WHERE kind = $1 AND view_id = $2
RETURNING revision
`

const labelledViewsContainingSQL = `
SELECT view_id
FROM projection_views
WHERE kind = 'labelled'
  AND body -> 'items' @> jsonb_build_array(jsonb_build_object('id', $1::text))
ORDER BY view_id
`

// PostgresStore keeps views and per-aggregate checkpoints next to each other
// so both move in one transaction.
type PostgresStore struct {
	Pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{Pool: pool}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{createRevisionSequenceSQL, createViewsTableSQL, createCheckpointsTableSQL, createViewItemsIndexSQL} {
		if _, err := s.Pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return labelstore.NewRepository(s.Pool).EnsureSchema(ctx)
}

func (s *PostgresStore) InTx(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type pgTx struct {
	tx pgx.Tx
}

func (t pgTx) Checkpoint(ctx context.Context, aggregateType, aggregateID string) (uint64, error) {
	if _, err := t.tx.Exec(ctx, ensureCheckpointSQL, aggregateType, aggregateID); err != nil {
		return 0, err
	}
	var version int64
	if err := t.tx.QueryRow(ctx, lockCheckpointSQL, aggregateType, aggregateID).Scan(&version); err != nil {
		return 0, err
	}
	return uint64(version), nil
}

func (t pgTx) SaveCheckpoint(ctx context.Context, aggregateType, aggregateID string, version uint64) error {
	_, err := t.tx.Exec(ctx, saveCheckpointSQL, aggregateType, aggregateID, int64(version))
	return err
}

func (t pgTx) LockView(ctx context.Context, key query.ViewKey) ([]byte, error) {
	if _, err := t.tx.Exec(ctx, ensureViewSQL, string(key.Kind), key.ID); err != nil {
		return nil, err
	}
	var body []byte
	if err := t.tx.QueryRow(ctx, lockViewSQL, string(key.Kind), key.ID).Scan(&body); err != nil {
		return nil, err
	}
	return body, nil
}

func (t pgTx) SaveView(ctx context.Context, key query.ViewKey, body []byte) (uint64, error) {
	var revision int64
	if err := t.tx.QueryRow(ctx, saveViewSQL, string(key.Kind), key.ID, body).Scan(&revision); err != nil {
		return 0, err
	}
	return uint64(revision), nil
}

func (t pgTx) LabelledViewsContaining(ctx context.Context, taskID task.ID) ([]label.ID, error) {
	rows, err := t.tx.Query(ctx, labelledViewsContainingSQL, string(taskID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []label.ID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, label.ID(id))
	}
	return out, rows.Err()
}

func (t pgTx) UpsertLabel(ctx context.Context, id label.ID, details label.Details, version uint64) error {
	return labelstore.Upsert(ctx, t.tx, id, details, version)
}

// Replace swaps every view, checkpoint and label row for the snapshot.
func (s *PostgresStore) Replace(ctx context.Context, snap Snapshot) error {
	if snap.LastSeq < 0 {
		return errors.New("snapshot sequence is negative")
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `TRUNCATE projection_views, projection_checkpoints, labels`); err != nil {
		return err
	}

	now := time.Now().UTC()
	viewRows := make([][]any, 0, len(snap.Views))
	for _, v := range snap.Views {
		viewRows = append(viewRows, []any{string(v.Key.Kind), v.Key.ID, string(v.Body), now})
	}
	// revision is left to its default so rebuilt rows sort after every
	// revision handed out before the rebuild.
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"projection_views"},
		[]string{"kind", "view_id", "body", "updated_at"},
		pgx.CopyFromRows(viewRows),
	); err != nil {
		return err
	}

	checkpointRows := make([][]any, 0, len(snap.Checkpoints))
	for ref, version := range snap.Checkpoints {
		checkpointRows = append(checkpointRows, []any{ref.Type, ref.ID, int64(version), now})
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"projection_checkpoints"},
		[]string{"aggregate_type", "aggregate_id", "version", "updated_at"},
		pgx.CopyFromRows(checkpointRows),
	); err != nil {
		return err
	}

	for id, l := range snap.Labels {
		if err := labelstore.Upsert(ctx, tx, id, l.Details, l.Version); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
