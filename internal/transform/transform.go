// Package transform turns a submitted CSV into a row set whose shape exactly
// matches a target table definition.
package transform

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Null tokens. A cell equal to any of these is treated as missing.
var nullTokens = map[string]struct{}{
	"":  {},
	" ": {},
	".": {},
}

// Frame is a parsed tabular data set. A nil cell is a null value.
type Frame struct {
	Columns []string
	Rows    [][]*string
}

// ReadRecords reads raw CSV records without any null handling or header
// normalization. Rows may have varying field counts.
func ReadRecords(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

// Parse reads a CSV source into a Frame. The first record is the header;
// header names are lowercased. Cells matching a null token become nil.
// Rows whose field count differs from the header are a parse error.
func Parse(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("CSV file is empty")
	}
	if err != nil {
		return nil, err
	}

	// Headers are trimmed as well as lowercased, so a padded header like
	// " person_id" still matches its column instead of being dropped.
	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = strings.ToLower(strings.TrimSpace(name))
	}

	var rows [][]*string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		row := make([]*string, len(record))
		for i, cell := range record {
			if _, isNull := nullTokens[cell]; isNull {
				continue
			}
			v := cell
			row[i] = &v
		}
		rows = append(rows, row)
	}

	return &Frame{Columns: columns, Rows: rows}, nil
}

// Reindex returns a Frame with exactly the target columns in target order.
// Source columns absent from the target are dropped; target columns absent
// from the source become entirely null.
func (f *Frame) Reindex(target []string) *Frame {
	srcIndex := make(map[string]int, len(f.Columns))
	for i, name := range f.Columns {
		srcIndex[name] = i
	}

	columns := make([]string, len(target))
	copy(columns, target)

	rows := make([][]*string, len(f.Rows))
	for ri, src := range f.Rows {
		row := make([]*string, len(target))
		for ci, name := range target {
			if si, ok := srcIndex[name]; ok && si < len(src) {
				row[ci] = src[si]
			}
		}
		rows[ri] = row
	}

	return &Frame{Columns: columns, Rows: rows}
}

// IsConceptIDColumn reports whether nulls in the named column must be
// coerced to zero. Concept-identifier columns are foreign-keyed and must
// never be null, but source_concept_id columns keep null as a meaningful
// "no source concept" state.
func IsConceptIDColumn(name string) bool {
	return strings.HasSuffix(name, "concept_id") && !strings.Contains(name, "source")
}

// CoerceConceptIDs replaces null values with "0" in every concept-identifier
// column. Mutates the frame in place and returns it for chaining.
func (f *Frame) CoerceConceptIDs() *Frame {
	zero := "0"
	for ci, name := range f.Columns {
		if !IsConceptIDColumn(name) {
			continue
		}
		for _, row := range f.Rows {
			if row[ci] == nil {
				v := zero
				row[ci] = &v
			}
		}
	}
	return f
}
