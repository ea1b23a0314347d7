// Package labelstore keeps the latest details of every label so the data
// sink can enrich the per-label task index.
package labelstore

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/todo-1m/tasklist/internal/domain/label"
	"github.com/todo-1m/tasklist/internal/projection"
)

const createLabelsTableSQL = `
CREATE TABLE IF NOT EXISTS labels (
  label_id text PRIMARY KEY,
  title text NOT NULL,
  color text NOT NULL,
  version bigint NOT NULL,
  updated_at timestamptz NOT NULL DEFAULT now()
)`

// Versions only move forward, so a redelivered older event is a no-op.
const upsertLabelSQL = `
INSERT INTO labels (label_id, title, color, version, updated_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (label_id) DO UPDATE
SET title = EXCLUDED.title,
    color = EXCLUDED.color,
    version = EXCLUDED.version,
    updated_at = now()
WHERE labels.version < EXCLUDED.version
`

const selectLabelsSQL = `
SELECT label_id, title, color, version
FROM labels
WHERE label_id = ANY($1)
`

// DB is satisfied by *pgxpool.Pool and pgx.Tx.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Upsert records details for id at version.
func Upsert(ctx context.Context, db DB, id label.ID, details label.Details, version uint64) error {
	_, err := db.Exec(ctx, upsertLabelSQL, string(id), details.Title, string(details.Color), int64(version))
	return err
}

// Row is a label's latest details and the version of the event that set them.
type Row struct {
	Details label.Details
	Version uint64
}

// Fetch returns the details of every known label among ids.
func Fetch(ctx context.Context, db DB, ids ...label.ID) (projection.LabelSet, error) {
	rows, err := FetchRows(ctx, db, ids...)
	if err != nil {
		return nil, err
	}
	out := make(projection.LabelSet, len(rows))
	for id, row := range rows {
		out[id] = row.Details
	}
	return out, nil
}

// FetchRows is Fetch with versions.
func FetchRows(ctx context.Context, db DB, ids ...label.ID) (map[label.ID]Row, error) {
	out := map[label.ID]Row{}
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, string(id))
	}
	rows, err := db.Query(ctx, selectLabelsSQL, keys)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, title, color string
			version          int64
		)
		if err := rows.Scan(&id, &title, &color, &version); err != nil {
			return nil, err
		}
		out[label.ID(id)] = Row{
			Details: label.Details{Title: title, Color: label.Color(color)},
			Version: uint64(version),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type Repository struct {
	Pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{Pool: pool}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.Pool.Exec(ctx, createLabelsTableSQL)
	return err
}

func (r *Repository) Labels(ctx context.Context, ids ...label.ID) (projection.LabelSet, error) {
	return Fetch(ctx, r.Pool, ids...)
}

func (r *Repository) Rows(ctx context.Context, ids ...label.ID) (map[label.ID]Row, error) {
	return FetchRows(ctx, r.Pool, ids...)
}
