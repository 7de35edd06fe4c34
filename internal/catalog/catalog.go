// Package catalog loads the declarative table/column definitions and the
// in-scope table allowlist that drive every load run.
//
// The schema definition is tabular data with one row per column:
//
//	table_name, column_name, is_nullable ("yes"/other), data_type, <unused>
//
// The allowlist is a single table_name column; duplicates are tolerated and
// treated as a set. Both are loaded once at startup and immutable thereafter.
package catalog

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"os"

	"github.com/pmi-ops/sprintload/internal/transform"
)

//go:embed resources/cdm.csv resources/pmi_tables.csv
var resourceFS embed.FS

// Catalog holds the parsed schema definition and the in-scope table set.
type Catalog struct {
	tables  []Table
	byName  map[string]int
	inScope map[string]struct{}
}

// Load parses a schema definition and an in-scope table list.
func Load(schema io.Reader, inScope io.Reader) (*Catalog, error) {
	tables, err := parseSchema(schema)
	if err != nil {
		return nil, err
	}

	scope, err := parseTableList(inScope)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]int, len(tables))
	for i, t := range tables {
		byName[t.Name] = i
	}

	return &Catalog{tables: tables, byName: byName, inScope: scope}, nil
}

// LoadFiles loads the catalog from filesystem paths, for installs that
// override the embedded defaults.
func LoadFiles(schemaPath, inScopePath string) (*Catalog, error) {
	schemaData, err := os.ReadFile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema catalog %s: %w", schemaPath, err)
	}
	scopeData, err := os.ReadFile(inScopePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read table list %s: %w", inScopePath, err)
	}
	return Load(bytes.NewReader(schemaData), bytes.NewReader(scopeData))
}

// Default loads the embedded catalog resources.
func Default() (*Catalog, error) {
	schemaData, err := resourceFS.ReadFile("resources/cdm.csv")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded schema catalog: %w", err)
	}
	scopeData, err := resourceFS.ReadFile("resources/pmi_tables.csv")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded table list: %w", err)
	}
	return Load(bytes.NewReader(schemaData), bytes.NewReader(scopeData))
}

// Tables returns every table definition in catalog order.
func (c *Catalog) Tables() []Table {
	return c.tables
}

// Table returns the definition for the named table.
func (c *Catalog) Table(name string) (Table, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Table{}, false
	}
	return c.tables[i], true
}

// IsInScope reports whether the named table is eligible for loading.
func (c *Catalog) IsInScope(name string) bool {
	_, ok := c.inScope[name]
	return ok
}

// InScopeTables returns the definitions of in-scope tables, in catalog order.
// Allowlist entries with no schema definition are ignored.
func (c *Catalog) InScopeTables() []Table {
	var tables []Table
	for _, t := range c.tables {
		if c.IsInScope(t.Name) {
			tables = append(tables, t)
		}
	}
	return tables
}

// parseSchema reads the column-per-row schema definition, grouping rows into
// tables by first appearance order.
func parseSchema(r io.Reader) ([]Table, error) {
	records, err := transform.ReadRecords(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema catalog: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("schema catalog is empty")
	}

	var tables []Table
	byName := make(map[string]int)

	// records[0] is the header row
	for i, rec := range records[1:] {
		if len(rec) < 4 {
			return nil, fmt.Errorf("schema catalog row %d: expected at least 4 fields, got %d", i+2, len(rec))
		}

		tableName, columnName, isNullable, dataType := rec[0], rec[1], rec[2], rec[3]

		colType, err := ParseDataType(dataType)
		if err != nil {
			return nil, err
		}

		col := Column{
			Name:     columnName,
			Nullable: isNullable == "yes",
			Type:     colType,
		}

		idx, ok := byName[tableName]
		if !ok {
			idx = len(tables)
			byName[tableName] = idx
			tables = append(tables, Table{Name: tableName})
		}
		tables[idx].Columns = append(tables[idx].Columns, col)
	}

	return tables, nil
}

// parseTableList reads the single-column allowlist into a set.
func parseTableList(r io.Reader) (map[string]struct{}, error) {
	records, err := transform.ReadRecords(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse table list: %w", err)
	}

	set := make(map[string]struct{})
	for i, rec := range records {
		if i == 0 {
			continue // header
		}
		if len(rec) == 0 || rec[0] == "" {
			continue
		}
		set[rec[0]] = struct{}{}
	}
	return set, nil
}
