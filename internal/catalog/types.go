package catalog

import (
	"fmt"

	"github.com/pmi-ops/sprintload/pkg/sprintload"
)

// ColumnType enumerates the abstract data types the schema catalog may
// declare for a column.
type ColumnType int

const (
	TypeText ColumnType = iota
	TypeInteger
	TypeNumeric
	TypeDate
	TypeDatetime
)

// String returns the catalog token for the type.
func (t ColumnType) String() string {
	switch t {
	case TypeText:
		return "text"
	case TypeInteger:
		return "integer"
	case TypeNumeric:
		return "numeric"
	case TypeDate:
		return "date"
	case TypeDatetime:
		return "datetime"
	default:
		return fmt.Sprintf("ColumnType(%d)", int(t))
	}
}

// ParseDataType maps a catalog data-type token to a ColumnType.
// An unrecognized token is a fatal configuration error, never skipped.
func ParseDataType(token string) (ColumnType, error) {
	switch token {
	case "character varying", "text":
		return TypeText, nil
	case "integer":
		return TypeInteger, nil
	case "numeric":
		return TypeNumeric, nil
	case "date":
		return TypeDate, nil
	case "datetime":
		return TypeDatetime, nil
	default:
		return 0, fmt.Errorf("unexpected data_type %q in schema catalog: %w", token, sprintload.ErrSchemaFormat)
	}
}

// SQLType returns the concrete PostgreSQL column type.
// datetimePrecision applies only to TypeDatetime and is injected by the
// caller rather than hard-coded.
func (t ColumnType) SQLType(datetimePrecision int) string {
	switch t {
	case TypeText:
		return "VARCHAR(500)"
	case TypeInteger:
		return "BIGINT"
	case TypeNumeric:
		return "DOUBLE PRECISION"
	case TypeDate:
		return "DATE"
	case TypeDatetime:
		return fmt.Sprintf("TIMESTAMP(%d)", datetimePrecision)
	default:
		return ""
	}
}

// Column is one column definition from the schema catalog.
type Column struct {
	Name     string
	Nullable bool
	Type     ColumnType
}

// Table is an ordered column layout for one target table.
type Table struct {
	Name    string
	Columns []Column
}

// ColumnNames returns the column names in catalog order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}
