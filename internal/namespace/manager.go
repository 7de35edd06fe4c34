// Package namespace prepares the per-site schema: it ensures the schema
// exists and resets the known table set to a clean, freshly created state.
package namespace

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pmi-ops/sprintload/internal/catalog"
	"github.com/pmi-ops/sprintload/pkg/sprintload"
)

const schemaExistsQuery = `SELECT EXISTS(SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)`

const tablesInSchemaQuery = `SELECT table_name FROM information_schema.tables WHERE table_schema = $1 AND table_type = 'BASE TABLE'`

// Manager issues the DDL that prepares a schema for a load run.
type Manager struct {
	conn              sprintload.DBConnection
	cat               *catalog.Catalog
	datetimePrecision int
}

// NewManager creates a namespace manager. Panics if conn or cat is nil;
// these are programming errors, not runtime conditions.
func NewManager(conn sprintload.DBConnection, cat *catalog.Catalog, datetimePrecision int) *Manager {
	if conn == nil {
		panic("namespace.NewManager: conn is required")
	}
	if cat == nil {
		panic("namespace.NewManager: cat is required")
	}
	return &Manager{
		conn:              conn,
		cat:               cat,
		datetimePrecision: datetimePrecision,
	}
}

// EnsureSchemaExists creates the schema only if it is absent.
// Safe to call repeatedly.
func (m *Manager) EnsureSchemaExists(ctx context.Context, schema string) error {
	var exists bool
	if err := m.conn.QueryRow(ctx, schemaExistsQuery, schema).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check schema %q: %v: %w", schema, err, sprintload.ErrNamespaceSetup)
	}
	if exists {
		return nil
	}

	createSQL := fmt.Sprintf("CREATE SCHEMA %s", pgx.Identifier{schema}.Sanitize())
	if _, err := m.conn.Exec(ctx, createSQL); err != nil {
		return fmt.Errorf("failed to create schema %q: %v: %w", schema, err, sprintload.ErrNamespaceSetup)
	}
	return nil
}

// ResetTables drops every existing table in the schema whose name is in
// scope or is the log table, then recreates the full in-scope table set plus
// the log table from the catalog. Unrelated tables are left untouched.
//
// This is a destructive full replace. Each run is a fresh, reproducible
// load; stale data from a previous run must not linger.
func (m *Manager) ResetTables(ctx context.Context, schema string) error {
	existing, err := m.existingTables(ctx, schema)
	if err != nil {
		return err
	}

	for _, name := range existing {
		if !m.cat.IsInScope(name) && name != sprintload.LogTableName {
			continue
		}
		dropSQL := fmt.Sprintf("DROP TABLE IF EXISTS %s", pgx.Identifier{schema, name}.Sanitize())
		if _, err := m.conn.Exec(ctx, dropSQL); err != nil {
			return fmt.Errorf("failed to drop table %s.%s: %v: %w", schema, name, err, sprintload.ErrNamespaceSetup)
		}
	}

	for _, table := range m.cat.InScopeTables() {
		createSQL := CreateTableSQL(schema, table, m.datetimePrecision)
		if _, err := m.conn.Exec(ctx, createSQL); err != nil {
			return fmt.Errorf("failed to create table %s.%s: %v: %w", schema, table.Name, err, sprintload.ErrNamespaceSetup)
		}
	}

	if _, err := m.conn.Exec(ctx, LogTableSQL(schema)); err != nil {
		return fmt.Errorf("failed to create log table in %s: %v: %w", schema, err, sprintload.ErrNamespaceSetup)
	}

	return nil
}

func (m *Manager) existingTables(ctx context.Context, schema string) ([]string, error) {
	rows, err := m.conn.Query(ctx, tablesInSchemaQuery, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables in schema %q: %v: %w", schema, err, sprintload.ErrNamespaceSetup)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %v: %w", err, sprintload.ErrNamespaceSetup)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tables in schema %q: %v: %w", schema, err, sprintload.ErrNamespaceSetup)
	}
	return names, nil
}

// CreateTableSQL renders the CREATE TABLE statement for a catalog table.
// Column order, nullability, and types follow the catalog exactly.
func CreateTableSQL(schema string, table catalog.Table, datetimePrecision int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (", pgx.Identifier{schema, table.Name}.Sanitize())
	for i, col := range table.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s %s", pgx.Identifier{col.Name}.Sanitize(), col.Type.SQLType(datetimePrecision))
		if !col.Nullable {
			b.WriteString(" NOT NULL")
		}
	}
	b.WriteString(")")
	return b.String()
}

// LogTableSQL renders the CREATE TABLE statement for the append-only log
// table that records every phase of every table load.
func LogTableSQL(schema string) string {
	return fmt.Sprintf(
		"CREATE TABLE %s ("+
			"log_id TIMESTAMP NOT NULL, "+
			"table_name VARCHAR(%d) NOT NULL, "+
			"phase VARCHAR(%d) NOT NULL, "+
			"success BOOLEAN NOT NULL, "+
			"message VARCHAR(%d), "+
			"params VARCHAR(%d))",
		pgx.Identifier{schema, sprintload.LogTableName}.Sanitize(),
		sprintload.MaxLogTableNameLength,
		sprintload.MaxLogPhaseLength,
		sprintload.MaxLogMessageLength,
		sprintload.MaxLogParamsLength,
	)
}
