// Package scaffold writes new sprintload project layouts to disk.
package scaffold

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/pmi-ops/sprintload/internal/config"
	"github.com/pmi-ops/sprintload/pkg/sprintload"
)

// Project describes the files a scaffolded project ends up with.
type Project struct {
	ConfigPath string
	CSVDir     string
}

// Scaffolder creates project directories for the init command.
type Scaffolder struct {
	verbose bool
}

// NewScaffolder creates a new Scaffolder instance.
func NewScaffolder(verbose bool) *Scaffolder {
	return &Scaffolder{verbose: verbose}
}

// CreateProject writes sprintload.yaml into targetDir and makes sure the
// configured CSV directory exists. It refuses to overwrite an existing
// configuration. Empty export path and timeout fields are filled with
// defaults before writing.
func (s *Scaffolder) CreateProject(targetDir string, cfg config.ProjectConfig) (*Project, error) {
	configPath := filepath.Join(targetDir, config.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil {
		return nil, fmt.Errorf("%s already exists, refusing to overwrite", configPath)
	}

	if cfg.ExportPath == "" {
		cfg.ExportPath = sprintload.DefaultExportPath
	}
	if cfg.Timeout == "" {
		cfg.Timeout = "3m"
	}

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create project directory %s: %w", targetDir, err)
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", configPath, err)
	}
	s.logVerbose("Wrote %s", configPath)

	// The first run looks for CSV submissions here, so create it up front.
	csvDir := cfg.CSVDir
	if csvDir == "" {
		csvDir = "."
	}
	if !filepath.IsAbs(csvDir) {
		csvDir = filepath.Join(targetDir, csvDir)
	}
	if err := os.MkdirAll(csvDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create CSV directory %s: %w", csvDir, err)
	}
	s.logVerbose("Created CSV directory %s", csvDir)

	return &Project{ConfigPath: configPath, CSVDir: csvDir}, nil
}

func (s *Scaffolder) logVerbose(format string, args ...interface{}) {
	if s.verbose {
		fmt.Fprintf(os.Stderr, "[VERBOSE] "+format+"\n", args...)
	}
}
