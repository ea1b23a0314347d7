package query

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ViewRepository reads views written by the data sink.
type ViewRepository struct {
	Pool *pgxpool.Pool
}

func NewViewRepository(pool *pgxpool.Pool) *ViewRepository {
	return &ViewRepository{Pool: pool}
}

// View returns the stored JSON body of a view and the revision of its row.
// Revisions grow with every write, including writes made by a rebuild.
func (r *ViewRepository) View(ctx context.Context, key ViewKey) ([]byte, uint64, error) {
	var (
		body     []byte
		revision int64
	)
	err := r.Pool.QueryRow(ctx,
		`SELECT body, revision
		 FROM projection_views
		 WHERE kind = $1 AND view_id = $2 AND body IS NOT NULL`,
		string(key.Kind), key.ID,
	).Scan(&body, &revision)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, ErrViewNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "42P01" {
			// Views table is not available yet.
			return nil, 0, ErrViewNotFound
		}
		return nil, 0, err
	}
	return body, uint64(revision), nil
}
