// Package loader drives the per-table load pipeline: locate file, parse,
// transform, insert. Every phase transition is recorded in the append-only
// log table, success or failure, before the next phase is attempted.
package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pmi-ops/sprintload/internal/catalog"
	"github.com/pmi-ops/sprintload/internal/files"
	"github.com/pmi-ops/sprintload/internal/transform"
	"github.com/pmi-ops/sprintload/pkg/sprintload"
)

// Phase strings recorded in the log table. Downstream log consumers match
// on these exact values.
const (
	PhaseParsing = "Parsing CSV file"
	PhaseLoading = "Loading file into table"

	// MessageFileNotFound is the failure message when no submitted file
	// matches the expected name.
	MessageFileNotFound = "File not found"
)

// PhaseReceived is the phase string for the file existence check.
func PhaseReceived(filename string) string {
	return fmt.Sprintf("Received CSV file %q", filename)
}

// Kind classifies a recoverable per-table failure.
type Kind int

const (
	KindFileNotFound Kind = iota
	KindParseError
	KindInsertError
	KindConfigError
)

// LoadError is a recoverable failure for one table. It is recorded in the
// log table and never propagates past the table boundary.
type LoadError struct {
	Kind    Kind
	Message string
	Params  string
}

func (e *LoadError) Error() string { return e.Message }

// Executor runs the load pipeline for one site. Tables are processed
// strictly sequentially; a table failure is logged and the run continues
// with the next table.
type Executor struct {
	conn      sprintload.DBConnection
	cat       *catalog.Catalog
	index     *files.Index
	hpoID     string
	schema    string
	sprintNum int

	now func() time.Time
}

// NewExecutor creates a load executor for one (site, schema) pair.
// Panics if conn, cat, or index is nil.
func NewExecutor(conn sprintload.DBConnection, cat *catalog.Catalog, index *files.Index, hpoID, schema string, sprintNum int) *Executor {
	if conn == nil {
		panic("loader.NewExecutor: conn is required")
	}
	if cat == nil {
		panic("loader.NewExecutor: cat is required")
	}
	if index == nil {
		panic("loader.NewExecutor: index is required")
	}
	return &Executor{
		conn:      conn,
		cat:       cat,
		index:     index,
		hpoID:     hpoID,
		schema:    schema,
		sprintNum: sprintNum,
		now:       time.Now,
	}
}

// Run loads every in-scope table. The returned error is an infrastructure
// failure (a log write that could not be recorded); per-table load failures
// are logged and never returned.
func (e *Executor) Run(ctx context.Context) error {
	for _, table := range e.cat.InScopeTables() {
		if err := e.LoadTable(ctx, table); err != nil {
			return err
		}
	}
	return nil
}

// LoadTable runs the full phase sequence for one table.
func (e *Executor) LoadTable(ctx context.Context, table catalog.Table) error {
	run := &tableRun{executor: e, tableName: table.Name}

	filename := files.ExpectedFilename(e.hpoID, table.Name, e.sprintNum)
	run.phase = PhaseReceived(filename)

	path, ok := e.index.Resolve(e.hpoID, table.Name, e.sprintNum)
	if !ok {
		return run.recordFailure(ctx, &LoadError{Kind: KindFileNotFound, Message: MessageFileNotFound})
	}
	if err := run.recordSuccess(ctx); err != nil {
		return err
	}

	run.phase = PhaseParsing
	frame, err := parseFile(path)
	if err != nil {
		return run.recordFailure(ctx, &LoadError{Kind: KindParseError, Message: err.Error()})
	}
	if err := run.recordSuccess(ctx); err != nil {
		return err
	}

	frame = frame.Reindex(table.ColumnNames()).CoerceConceptIDs()

	run.phase = PhaseLoading
	if loadErr := e.insertRows(ctx, table, frame); loadErr != nil {
		return run.recordFailure(ctx, loadErr)
	}
	return run.recordSuccess(ctx)
}

func parseFile(path string) (*transform.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return transform.Parse(f)
}

// insertRows inserts every row one at a time. The first failing row aborts
// the table; one row per statement keeps the error attributable to that row.
func (e *Executor) insertRows(ctx context.Context, table catalog.Table, frame *transform.Frame) *LoadError {
	insertSQL := insertStatement(e.schema, table)

	for _, row := range frame.Rows {
		args := make([]any, len(table.Columns))
		for i, col := range table.Columns {
			v, err := convertValue(col, row[i])
			if err != nil {
				return &LoadError{
					Kind:    KindInsertError,
					Message: err.Error(),
					Params:  boundParams(table, row),
				}
			}
			args[i] = v
		}

		if _, err := e.conn.Exec(ctx, insertSQL, args...); err != nil {
			return &LoadError{
				Kind:    KindInsertError,
				Message: err.Error(),
				Params:  boundParams(table, row),
			}
		}
	}
	return nil
}

func insertStatement(schema string, table catalog.Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (", pgx.Identifier{schema, table.Name}.Sanitize())
	for i, col := range table.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgx.Identifier{col.Name}.Sanitize())
	}
	b.WriteString(") VALUES (")
	for i := range table.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "$%d", i+1)
	}
	b.WriteString(")")
	return b.String()
}

// Accepted datetime layouts, tried in order.
var datetimeLayouts = []string{
	"2006-01-02 15:04:05.999999",
	"2006-01-02T15:04:05.999999",
	time.RFC3339,
	"2006-01-02",
}

// convertValue turns a raw CSV cell into the typed value bound to the
// insert statement. A nil cell stays nil (SQL NULL).
func convertValue(col catalog.Column, raw *string) (any, error) {
	if raw == nil {
		return nil, nil
	}
	s := *raw

	switch col.Type {
	case catalog.TypeText:
		return s, nil
	case catalog.TypeInteger:
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		// Tolerate float renderings of whole numbers ("7.0")
		if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int64(f)) {
			return int64(f), nil
		}
		return nil, fmt.Errorf("invalid integer value %q for column %s", s, col.Name)
	case catalog.TypeNumeric:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid numeric value %q for column %s", s, col.Name)
		}
		return f, nil
	case catalog.TypeDate:
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, fmt.Errorf("invalid date value %q for column %s", s, col.Name)
		}
		return t, nil
	case catalog.TypeDatetime:
		for _, layout := range datetimeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return nil, fmt.Errorf("invalid datetime value %q for column %s", s, col.Name)
	default:
		return nil, fmt.Errorf("unhandled column type %v for column %s", col.Type, col.Name)
	}
}

// boundParams renders the failing row's column/value pairs for the log
// table's diagnostic payload.
func boundParams(table catalog.Table, row []*string) string {
	params := make(map[string]any, len(table.Columns))
	for i, col := range table.Columns {
		if row[i] == nil {
			params[col.Name] = nil
		} else {
			params[col.Name] = *row[i]
		}
	}
	data, err := json.Marshal(params)
	if err != nil {
		return ""
	}
	return string(data)
}

// tableRun carries the mutable phase state for one (site, table) pipeline.
type tableRun struct {
	executor  *Executor
	tableName string
	phase     string
}

var logInsertSQLFmt = "INSERT INTO %s (log_id, table_name, phase, success, message, params) VALUES ($1, $2, $3, $4, $5, $6)"

// recordSuccess appends a success entry for the current phase. Logged
// eagerly, before the next phase is attempted.
func (r *tableRun) recordSuccess(ctx context.Context) error {
	return r.insertLog(ctx, true, nil, nil)
}

// recordFailure appends a failure entry for the current phase. The failure
// itself is consumed here; only a log-write error escapes.
func (r *tableRun) recordFailure(ctx context.Context, loadErr *LoadError) error {
	message := truncate(loadErr.Message, sprintload.MaxLogMessageLength)
	var params *string
	if loadErr.Params != "" {
		p := truncate(loadErr.Params, sprintload.MaxLogParamsLength)
		params = &p
	}
	return r.insertLog(ctx, false, &message, params)
}

func (r *tableRun) insertLog(ctx context.Context, success bool, message, params *string) error {
	sql := fmt.Sprintf(logInsertSQLFmt, pgx.Identifier{r.executor.schema, sprintload.LogTableName}.Sanitize())
	_, err := r.executor.conn.Exec(ctx, sql,
		r.executor.now().UTC(),
		truncate(r.tableName, sprintload.MaxLogTableNameLength),
		truncate(r.phase, sprintload.MaxLogPhaseLength),
		success,
		message,
		params,
	)
	if err != nil {
		return fmt.Errorf("failed to write log entry for table %s: %w", r.tableName, err)
	}
	return nil
}

// truncate limits s to max characters. The varchar(n) column limits count
// characters, not bytes, and slicing at a byte offset could split a rune
// and make the log insert itself fail on invalid UTF-8.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}
