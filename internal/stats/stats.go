package stats

import (
	"context"
	"errors"
)

// ErrNotFound reports that the catalog has no row for the requested object.
// Callers treat it as a recoverable condition, not a failure.
var ErrNotFound = errors.New("stats: not found")

// RelationStats holds the planner-visible size of a relation.
type RelationStats struct {
	Rows  float64
	Pages float64
}

// IndexStats holds usage counters for an index.
type IndexStats struct {
	Scans      int64
	TuplesRead float64
}

// Provider answers catalog statistics queries for relations and indexes.
// Lookups are blocking calls against an external data source; results are
// fetched fresh per plan node and never cached by the core.
type Provider interface {
	RelationStats(ctx context.Context, relation string) (RelationStats, error)
	IndexStats(ctx context.Context, index string) (IndexStats, error)
	DistinctCount(ctx context.Context, relation, attribute string) (float64, error)
}

// Unavailable is a Provider with no backing catalog. Every lookup reports
// ErrNotFound, which degrades cost formulas to their "not available" line.
// It backs offline report rendering from saved plan files.
type Unavailable struct{}

func (Unavailable) RelationStats(context.Context, string) (RelationStats, error) {
	return RelationStats{}, ErrNotFound
}

func (Unavailable) IndexStats(context.Context, string) (IndexStats, error) {
	return IndexStats{}, ErrNotFound
}

func (Unavailable) DistinctCount(context.Context, string, string) (float64, error) {
	return 0, ErrNotFound
}
