package stats

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mickamy/qplain/internal/xlog"
)

// Catalog is a Provider backed by a live PostgreSQL connection. It reads
// pg_class for relation sizes, pg_stat_user_indexes for index usage, and
// pg_stats for per-attribute distinct counts.
type Catalog struct {
	conn *pgx.Conn
}

// NewCatalog wraps an established connection. The caller owns the connection
// lifetime.
func NewCatalog(conn *pgx.Conn) *Catalog {
	return &Catalog{conn: conn}
}

func (c *Catalog) RelationStats(ctx context.Context, relation string) (RelationStats, error) {
	if relation == "" {
		return RelationStats{}, ErrNotFound
	}
	var rows, pages float64
	err := c.conn.QueryRow(ctx,
		`SELECT reltuples, relpages FROM pg_class WHERE relname = $1`,
		relation,
	).Scan(&rows, &pages)
	if errors.Is(err, pgx.ErrNoRows) {
		return RelationStats{}, fmt.Errorf("relation %q: %w", relation, ErrNotFound)
	}
	if err != nil {
		return RelationStats{}, fmt.Errorf("stats: relation %q: %w", relation, err)
	}
	return RelationStats{Rows: rows, Pages: pages}, nil
}

func (c *Catalog) IndexStats(ctx context.Context, index string) (IndexStats, error) {
	if index == "" {
		return IndexStats{}, ErrNotFound
	}
	var scans int64
	var tuples float64
	err := c.conn.QueryRow(ctx,
		`SELECT idx_scan, idx_tup_read FROM pg_stat_user_indexes WHERE indexrelname = $1`,
		index,
	).Scan(&scans, &tuples)
	if errors.Is(err, pgx.ErrNoRows) {
		return IndexStats{}, fmt.Errorf("index %q: %w", index, ErrNotFound)
	}
	if err != nil {
		return IndexStats{}, fmt.Errorf("stats: index %q: %w", index, err)
	}
	return IndexStats{Scans: scans, TuplesRead: tuples}, nil
}

func (c *Catalog) DistinctCount(ctx context.Context, relation, attribute string) (float64, error) {
	if relation == "" || attribute == "" {
		return 0, ErrNotFound
	}
	var nDistinct float64
	err := c.conn.QueryRow(ctx,
		`SELECT n_distinct FROM pg_stats WHERE tablename = $1 AND attname = $2`,
		relation, attribute,
	).Scan(&nDistinct)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("attribute %s.%s: %w", relation, attribute, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("stats: attribute %s.%s: %w", relation, attribute, err)
	}

	if nDistinct >= 0 {
		return nDistinct, nil
	}

	// Negative n_distinct is a fraction of the row count.
	rel, err := c.RelationStats(ctx, relation)
	if err != nil {
		xlog.Zero.Debug().Str("relation", relation).Str("attribute", attribute).
			Msg("n_distinct is fractional but relation size is unknown")
		return 0, fmt.Errorf("attribute %s.%s: %w", relation, attribute, ErrNotFound)
	}
	return ResolveDistinct(nDistinct, rel.Rows), nil
}

// ResolveDistinct converts a pg_stats n_distinct value into an absolute
// distinct count. Values >= 0 are absolute already; negative values encode
// a fraction of the relation row count.
func ResolveDistinct(nDistinct, relationRows float64) float64 {
	if nDistinct >= 0 {
		return nDistinct
	}
	return -nDistinct * relationRows
}

var _ Provider = (*Catalog)(nil)
