package sprintload

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
)

// DBConnection abstracts the database operations the pipeline needs:
// DDL for namespace setup, row-at-a-time DML for loading, and reads for
// log aggregation. This interface decouples the components from pgx-specific
// types.
//
// Thread-Safety: Implementations should follow their underlying connection's
// thread-safety guarantees. Connection pool implementations are typically safe
// for concurrent use, though the pipeline itself is strictly sequential.
type DBConnection interface {
	// Exec executes a statement without returning any rows.
	// Returns CommandTag containing information about the execution.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// QueryRow executes a query that is expected to return at most one row.
	// Always returns a non-nil Row. Errors are deferred until Row's Scan method is called.
	QueryRow(ctx context.Context, sql string, args ...any) Row

	// Query executes a query returning multiple rows.
	// The caller must Close() the returned Rows.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
}

// Row represents a single row returned by QueryRow.
type Row interface {
	// Scan reads the values from the row into dest values.
	// Returns an error if no row was found or if the scan fails.
	Scan(dest ...any) error
}

// Rows represents a result set returned by Query.
type Rows interface {
	// Next advances to the next row, returning false when exhausted.
	Next() bool

	// Scan reads the current row's values into dest values.
	Scan(dest ...any) error

	// Err returns any error encountered during iteration.
	Err() error

	// Close releases the result set.
	Close()
}
