package eventlog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createEventsTableSQL = `
CREATE TABLE IF NOT EXISTS task_events (
  seq bigserial PRIMARY KEY,
  event_id text NOT NULL UNIQUE,
  command_id text NOT NULL,
  aggregate_type text NOT NULL,
  aggregate_id text NOT NULL,
  version bigint NOT NULL,
  event_type text NOT NULL,
  payload jsonb NOT NULL,
  occurred_at timestamptz NOT NULL,
  inserted_at timestamptz NOT NULL DEFAULT now(),
  UNIQUE (aggregate_type, aggregate_id, version)
)`

const createEventsCommandIndexSQL = `
CREATE INDEX IF NOT EXISTS task_events_command_id_idx ON task_events (command_id)`

const currentVersionSQL = `
SELECT COALESCE(MAX(version), 0)
FROM task_events
WHERE aggregate_type = $1 AND aggregate_id = $2`

const insertEventSQL = `
INSERT INTO task_events (
  event_id, command_id, aggregate_type, aggregate_id, version, event_type, payload, occurred_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING seq`

const selectAggregateSQL = `
SELECT seq, event_id, command_id, aggregate_type, aggregate_id, version, event_type, payload, occurred_at
FROM task_events
WHERE aggregate_type = $1 AND aggregate_id = $2
ORDER BY version`

const selectPageSQL = `
SELECT seq, event_id, command_id, aggregate_type, aggregate_id, version, event_type, payload, occurred_at
FROM task_events
WHERE seq > $1
ORDER BY seq
LIMIT $2`

const uniqueViolation = "23505"

type PostgresStore struct {
	Pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{Pool: pool}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, createEventsTableSQL); err != nil {
		return err
	}
	if _, err := s.Pool.Exec(ctx, createEventsCommandIndexSQL); err != nil {
		return err
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, aggregateType, aggregateID string) ([]Record, error) {
	rows, err := s.Pool.Query(ctx, selectAggregateSQL, aggregateType, aggregateID)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

func (s *PostgresStore) Append(ctx context.Context, expectedVersion uint64, records []Record) ([]Record, error) {
	if err := validateBatch(expectedVersion, records); err != nil {
		return nil, err
	}

	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var current int64
	if err := tx.QueryRow(ctx, currentVersionSQL, records[0].AggregateType, records[0].AggregateID).Scan(&current); err != nil {
		return nil, err
	}
	if uint64(current) != expectedVersion {
		return nil, fmt.Errorf("%w: expected version %d, found %d", ErrConcurrentAppend, expectedVersion, current)
	}

	out := make([]Record, len(records))
	copy(out, records)
	for i := range out {
		r := &out[i]
		if err := tx.QueryRow(ctx, insertEventSQL,
			r.EventID,
			r.CommandID,
			r.AggregateType,
			r.AggregateID,
			int64(r.Version),
			r.EventType,
			r.Payload,
			r.OccurredAt,
		).Scan(&r.Seq); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return nil, fmt.Errorf("%w: %s", ErrConcurrentAppend, pgErr.ConstraintName)
			}
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: %s", ErrConcurrentAppend, pgErr.ConstraintName)
		}
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) ReadAll(ctx context.Context, afterSeq int64, limit int) ([]Record, error) {
	if limit <= 0 || limit > 5000 {
		limit = 500
	}
	rows, err := s.Pool.Query(ctx, selectPageSQL, afterSeq, limit)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

func collectRecords(rows pgx.Rows) ([]Record, error) {
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var version int64
		if err := rows.Scan(
			&r.Seq,
			&r.EventID,
			&r.CommandID,
			&r.AggregateType,
			&r.AggregateID,
			&version,
			&r.EventType,
			&r.Payload,
			&r.OccurredAt,
		); err != nil {
			return nil, err
		}
		r.Version = uint64(version)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
