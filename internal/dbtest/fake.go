// Package dbtest provides an in-memory DBConnection fake for unit tests
// that assert on issued SQL without a live database.
package dbtest

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pmi-ops/sprintload/pkg/sprintload"
)

// ExecCall records one Exec invocation.
type ExecCall struct {
	SQL  string
	Args []any
}

// FakeConn implements sprintload.DBConnection. Exec calls are recorded;
// QueryRow and Query results are scripted via QueueRow and QueueResult.
type FakeConn struct {
	mu sync.Mutex

	ExecCalls []ExecCall

	execErr       error
	execErrSubstr string

	rowQueue    [][]any
	resultQueue []queuedResult
}

type queuedResult struct {
	rows [][]any
	err  error
}

// FailExecContaining makes every Exec whose SQL contains substr return err.
func (c *FakeConn) FailExecContaining(substr string, err error) {
	c.execErrSubstr = substr
	c.execErr = err
}

// QueueRow scripts the values the next QueryRow call scans out.
func (c *FakeConn) QueueRow(values ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rowQueue = append(c.rowQueue, values)
}

// QueueResult scripts the row set the next Query call returns.
func (c *FakeConn) QueueResult(rows [][]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resultQueue = append(c.resultQueue, queuedResult{rows: rows})
}

// QueueResultErr scripts a Query call failure.
func (c *FakeConn) QueueResultErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resultQueue = append(c.resultQueue, queuedResult{err: err})
}

// ExecSQL returns the recorded Exec statements in order.
func (c *FakeConn) ExecSQL() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	sqls := make([]string, len(c.ExecCalls))
	for i, call := range c.ExecCalls {
		sqls[i] = call.SQL
	}
	return sqls
}

func (c *FakeConn) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.mu.Lock()
	c.ExecCalls = append(c.ExecCalls, ExecCall{SQL: sql, Args: args})
	c.mu.Unlock()

	if c.execErr != nil && strings.Contains(sql, c.execErrSubstr) {
		return pgconn.CommandTag{}, c.execErr
	}
	return pgconn.CommandTag{}, nil
}

func (c *FakeConn) QueryRow(_ context.Context, sql string, _ ...any) sprintload.Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.rowQueue) == 0 {
		return &fakeRow{err: fmt.Errorf("no queued row for query: %s", sql)}
	}
	values := c.rowQueue[0]
	c.rowQueue = c.rowQueue[1:]
	return &fakeRow{values: values}
}

func (c *FakeConn) Query(_ context.Context, sql string, _ ...any) (sprintload.Rows, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.resultQueue) == 0 {
		return &fakeRows{}, nil
	}
	result := c.resultQueue[0]
	c.resultQueue = c.resultQueue[1:]
	if result.err != nil {
		return nil, result.err
	}
	return &fakeRows{rows: result.rows}, nil
}

type fakeRow struct {
	values []any
	err    error
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return scanInto(r.values, dest)
}

type fakeRows struct {
	rows [][]any
	pos  int
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return scanInto(r.rows[r.pos-1], dest)
}

func (r *fakeRows) Err() error { return nil }
func (r *fakeRows) Close()     {}

func scanInto(values []any, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("scan destination count %d does not match value count %d", len(dest), len(values))
	}
	for i, d := range dest {
		dv := reflect.ValueOf(d)
		if dv.Kind() != reflect.Pointer || dv.IsNil() {
			return fmt.Errorf("scan destination %d is not a non-nil pointer", i)
		}
		if values[i] == nil {
			dv.Elem().Set(reflect.Zero(dv.Elem().Type()))
			continue
		}
		sv := reflect.ValueOf(values[i])
		if !sv.Type().AssignableTo(dv.Elem().Type()) {
			return fmt.Errorf("cannot scan %s into %s", sv.Type(), dv.Elem().Type())
		}
		dv.Elem().Set(sv)
	}
	return nil
}

var _ sprintload.DBConnection = (*FakeConn)(nil)
