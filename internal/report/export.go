// Package report aggregates every site's log table into one exported JSON
// document. The params column is confidential and never leaves the database.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pmi-ops/sprintload/pkg/sprintload"
)

// Record is one exported log row. It is a log entry with params removed
// and the owning site attached.
type Record struct {
	LogID     string  `json:"log_id"`
	TableName string  `json:"table_name"`
	Phase     string  `json:"phase"`
	Success   bool    `json:"success"`
	Message   *string `json:"message"`
	HPOID     string  `json:"hpo_id"`
}

// Exporter reads log tables and writes the merged export artifact.
type Exporter struct {
	conn sprintload.DBConnection
}

// NewExporter creates an exporter. Panics if conn is nil.
func NewExporter(conn sprintload.DBConnection) *Exporter {
	if conn == nil {
		panic("report.NewExporter: conn is required")
	}
	return &Exporter{conn: conn}
}

// Collect reads every configured site's log table in site order, preserving
// per-site read order. schemaFor maps a site to its schema (shared or
// isolated namespaces).
func (e *Exporter) Collect(ctx context.Context, hpoIDs []string, schemaFor func(hpoID string) string) ([]Record, error) {
	var records []Record

	for _, hpoID := range hpoIDs {
		schema := schemaFor(hpoID)
		siteRecords, err := e.collectSite(ctx, hpoID, schema)
		if err != nil {
			return nil, err
		}
		records = append(records, siteRecords...)
	}
	return records, nil
}

func (e *Exporter) collectSite(ctx context.Context, hpoID, schema string) ([]Record, error) {
	// params is deliberately not selected
	query := fmt.Sprintf("SELECT log_id, table_name, phase, success, message FROM %s",
		pgx.Identifier{schema, sprintload.LogTableName}.Sanitize())

	rows, err := e.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read log table for %s: %v: %w", hpoID, err, sprintload.ErrExportFailed)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			logID   time.Time
			rec     Record
			message *string
		)
		if err := rows.Scan(&logID, &rec.TableName, &rec.Phase, &rec.Success, &message); err != nil {
			return nil, fmt.Errorf("failed to scan log row for %s: %v: %w", hpoID, err, sprintload.ErrExportFailed)
		}
		rec.LogID = FormatTimestamp(logID)
		rec.Message = message
		rec.HPOID = hpoID
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log table for %s: %v: %w", hpoID, err, sprintload.ErrExportFailed)
	}
	return records, nil
}

// Export collects all sites' logs and writes them as a single JSON array,
// fully overwriting any previous artifact at path.
func (e *Exporter) Export(ctx context.Context, hpoIDs []string, schemaFor func(hpoID string) string, path string) error {
	records, err := e.Collect(ctx, hpoIDs, schemaFor)
	if err != nil {
		return err
	}

	// An empty run still produces a valid JSON array.
	if records == nil {
		records = []Record{}
	}

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to serialize log export: %v: %w", err, sprintload.ErrExportFailed)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create export directory %s: %v: %w", dir, err, sprintload.ErrExportFailed)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write log export %s: %v: %w", path, err, sprintload.ErrExportFailed)
	}
	return nil
}

// FormatTimestamp renders a log_id in the canonical export form,
// "2006-01-02 15:04:05.999999", omitting the fraction when it is zero.
func FormatTimestamp(t time.Time) string {
	if t.Nanosecond() == 0 {
		return t.Format("2006-01-02 15:04:05")
	}
	return fmt.Sprintf("%s.%06d", t.Format("2006-01-02 15:04:05"), t.Nanosecond()/1000)
}
