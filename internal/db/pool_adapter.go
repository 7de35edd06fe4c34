package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pmi-ops/sprintload/pkg/sprintload"
)

// PoolAdapter adapts *pgxpool.Pool to implement the sprintload.DBConnection
// interface. This decouples the pipeline from pgx-specific types.
//
// Thread-Safety: Safe for concurrent use (pgxpool.Pool is thread-safe),
// though the load pipeline itself runs strictly sequentially.
type PoolAdapter struct {
	pool *pgxpool.Pool
}

// NewPoolAdapter creates a new PoolAdapter wrapping the given pool.
func NewPoolAdapter(pool *pgxpool.Pool) sprintload.DBConnection {
	return &PoolAdapter{pool: pool}
}

// Exec executes a statement without returning any rows.
func (p *PoolAdapter) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return p.pool.Exec(ctx, sql, args...)
}

// QueryRow executes a query that is expected to return at most one row.
func (p *PoolAdapter) QueryRow(ctx context.Context, sql string, args ...any) sprintload.Row {
	return p.pool.QueryRow(ctx, sql, args...)
}

// Query executes a query returning multiple rows.
func (p *PoolAdapter) Query(ctx context.Context, sql string, args ...any) (sprintload.Rows, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return &rowsAdapter{rows: rows}, nil
}

// rowsAdapter adapts pgx.Rows to implement sprintload.Rows.
type rowsAdapter struct {
	rows pgx.Rows
}

func (r *rowsAdapter) Next() bool             { return r.rows.Next() }
func (r *rowsAdapter) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r *rowsAdapter) Err() error             { return r.rows.Err() }
func (r *rowsAdapter) Close()                 { r.rows.Close() }

// Verify PoolAdapter implements DBConnection at compile time
var _ sprintload.DBConnection = (*PoolAdapter)(nil)
