// Package runner is the plan source: it executes EXPLAIN against a live
// PostgreSQL server and hands back the raw JSON document.
package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mickamy/qplain/internal/xlog"
)

// ErrSourceUnavailable reports that no plan could be obtained from the
// database: connection failure or EXPLAIN execution failure.
var ErrSourceUnavailable = errors.New("plan source unavailable")

// Options customises how EXPLAIN is executed.
type Options struct {
	Timeout time.Duration
	Analyze bool
}

// Run connects with the given DSN and executes EXPLAIN for the statement.
func Run(ctx context.Context, dsn, sqlStatement string, opts Options) ([]byte, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("runner: empty DSN: %w", ErrSourceUnavailable)
	}

	var cancel context.CancelFunc
	if opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("runner: connect: %w: %v", ErrSourceUnavailable, err)
	}
	defer func() { _ = conn.Close(ctx) }()

	return RunConn(ctx, conn, sqlStatement, opts)
}

// RunConn executes EXPLAIN over an established connection, so the caller
// can reuse the same session for catalog statistics lookups.
func RunConn(ctx context.Context, conn *pgx.Conn, sqlStatement string, opts Options) ([]byte, error) {
	query := strings.TrimSpace(sqlStatement)
	if query == "" {
		return nil, fmt.Errorf("runner: empty sql statement: %w", ErrSourceUnavailable)
	}

	explainSQL := "EXPLAIN (FORMAT JSON) " + query
	if opts.Analyze {
		explainSQL = "EXPLAIN (ANALYZE, BUFFERS, FORMAT JSON) " + query
	}
	xlog.Zero.Debug().Str("sql", explainSQL).Msg("running explain")

	var payload []byte
	if err := conn.QueryRow(ctx, explainSQL).Scan(&payload); err != nil {
		return nil, fmt.Errorf("runner: explain: %w: %v", ErrSourceUnavailable, err)
	}
	return payload, nil
}
