// Package files locates submitted CSV files by the expected naming
// convention, matching filenames case-insensitively.
package files

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Index maps lowercase CSV filenames in a directory to their original
// paths. Built once per site run with a single directory scan.
//
// If two files differ only by case, the last one scanned wins. Glob order
// is lexical, so the winner is deterministic per directory contents.
type Index struct {
	byLower map[string]string
}

// BuildIndex scans dir for *.csv files.
func BuildIndex(dir string) (*Index, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory %s: %w", dir, err)
	}

	byLower := make(map[string]string, len(paths))
	for _, p := range paths {
		byLower[strings.ToLower(filepath.Base(p))] = p
	}
	return &Index{byLower: byLower}, nil
}

// ExpectedFilename returns the filename a site is expected to submit for a
// table in a given sprint.
func ExpectedFilename(hpoID, tableName string, sprintNum int) string {
	return fmt.Sprintf("%s_%s_datasprint_%d.csv", hpoID, tableName, sprintNum)
}

// Resolve returns the path of the submitted file for (site, table, sprint),
// or false if no file matches.
func (ix *Index) Resolve(hpoID, tableName string, sprintNum int) (string, bool) {
	path, ok := ix.byLower[strings.ToLower(ExpectedFilename(hpoID, tableName, sprintNum))]
	return path, ok
}

// Len returns the number of indexed files.
func (ix *Index) Len() int {
	return len(ix.byLower)
}
