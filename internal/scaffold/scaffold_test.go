package scaffold

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pmi-ops/sprintload/internal/config"
	"github.com/pmi-ops/sprintload/pkg/sprintload"
)

func testProjectConfig() config.ProjectConfig {
	return config.ProjectConfig{
		Connection: config.ConnectionConfig{
			Host:     "localhost",
			Port:     5432,
			Username: "postgres",
			Database: "pmi_sprint",
			SSLMode:  "prefer",
		},
		HPOIDs: []string{"chicago_hope", "st_elsewhere"},
		Sprint: 2,
		CSVDir: "submissions",
	}
}

func TestCreateProject_WritesConfigAndCSVDir(t *testing.T) {
	targetDir := t.TempDir()

	project, err := NewScaffolder(false).CreateProject(targetDir, testProjectConfig())
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	if project.ConfigPath != filepath.Join(targetDir, config.ConfigFileName) {
		t.Errorf("Unexpected config path: %s", project.ConfigPath)
	}
	if project.CSVDir != filepath.Join(targetDir, "submissions") {
		t.Errorf("Unexpected CSV dir: %s", project.CSVDir)
	}

	info, err := os.Stat(project.CSVDir)
	if err != nil || !info.IsDir() {
		t.Errorf("Expected CSV directory to exist: %v", err)
	}

	loaded, err := config.Load(targetDir)
	if err != nil {
		t.Fatalf("Failed to load written config: %v", err)
	}
	if loaded.Connection.Database != "pmi_sprint" {
		t.Errorf("Expected database pmi_sprint, got %s", loaded.Connection.Database)
	}
	if len(loaded.HPOIDs) != 2 || loaded.HPOIDs[0] != "chicago_hope" {
		t.Errorf("Unexpected HPO ids: %v", loaded.HPOIDs)
	}
	if loaded.Sprint != 2 {
		t.Errorf("Expected sprint 2, got %d", loaded.Sprint)
	}
}

func TestCreateProject_FillsDefaults(t *testing.T) {
	targetDir := t.TempDir()

	cfg := testProjectConfig()
	cfg.ExportPath = ""
	cfg.Timeout = ""

	if _, err := NewScaffolder(false).CreateProject(targetDir, cfg); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	loaded, err := config.Load(targetDir)
	if err != nil {
		t.Fatalf("Failed to load written config: %v", err)
	}
	if loaded.ExportPath != sprintload.DefaultExportPath {
		t.Errorf("Expected default export path, got %s", loaded.ExportPath)
	}
	if loaded.Timeout != "3m" {
		t.Errorf("Expected default timeout 3m, got %s", loaded.Timeout)
	}
}

func TestCreateProject_RefusesExistingConfig(t *testing.T) {
	targetDir := t.TempDir()

	configPath := filepath.Join(targetDir, config.ConfigFileName)
	if err := os.WriteFile(configPath, []byte("hpo_ids: [existing]\n"), 0o644); err != nil {
		t.Fatalf("Failed to seed config file: %v", err)
	}

	_, err := NewScaffolder(false).CreateProject(targetDir, testProjectConfig())
	if err == nil {
		t.Fatal("Expected error for existing config file")
	}
	if !strings.Contains(err.Error(), "refusing to overwrite") {
		t.Errorf("Expected overwrite refusal, got: %v", err)
	}

	// The existing file must be untouched.
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read seeded config: %v", err)
	}
	if !strings.Contains(string(data), "existing") {
		t.Errorf("Seeded config was modified: %s", data)
	}
}

func TestCreateProject_CreatesNestedTargetDir(t *testing.T) {
	targetDir := filepath.Join(t.TempDir(), "sprints", "sprint_5")

	project, err := NewScaffolder(false).CreateProject(targetDir, testProjectConfig())
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	if _, err := os.Stat(project.ConfigPath); err != nil {
		t.Errorf("Expected config file to exist: %v", err)
	}
}

func TestCreateProject_DotCSVDirIsTargetDir(t *testing.T) {
	targetDir := t.TempDir()

	cfg := testProjectConfig()
	cfg.CSVDir = "."

	project, err := NewScaffolder(false).CreateProject(targetDir, cfg)
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	if project.CSVDir != filepath.Join(targetDir, ".") {
		t.Errorf("Unexpected CSV dir: %s", project.CSVDir)
	}
}

func TestBuildFileTree(t *testing.T) {
	rootDir := filepath.Join(t.TempDir(), "project")
	if err := os.Mkdir(rootDir, 0o755); err != nil {
		t.Fatalf("Failed to create root dir: %v", err)
	}

	if err := os.WriteFile(filepath.Join(rootDir, config.ConfigFileName), []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(rootDir, "submissions"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(rootDir, "submissions", "chicago_hope_person_2.csv"), []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}

	tree, err := BuildFileTree(rootDir)
	if err != nil {
		t.Fatalf("Failed to build file tree: %v", err)
	}

	expectedElements := []string{
		config.ConfigFileName,
		"submissions/",
		"chicago_hope_person_2.csv",
	}
	for _, elem := range expectedElements {
		if !strings.Contains(tree, elem) {
			t.Errorf("Expected tree to contain %q, got:\n%s", elem, tree)
		}
	}

	if !strings.Contains(tree, "├──") && !strings.Contains(tree, "└──") {
		t.Errorf("Expected tree formatting characters, got:\n%s", tree)
	}
}

func TestBuildFileTree_EmptyDirectory(t *testing.T) {
	rootDir := filepath.Join(t.TempDir(), "empty")
	if err := os.Mkdir(rootDir, 0o755); err != nil {
		t.Fatalf("Failed to create root dir: %v", err)
	}

	tree, err := BuildFileTree(rootDir)
	if err != nil {
		t.Fatalf("Failed to build file tree: %v", err)
	}
	if !strings.HasSuffix(strings.TrimRight(tree, "\n"), "/") {
		t.Errorf("Expected only the root line for an empty directory, got:\n%s", tree)
	}
	if strings.Contains(tree, "├──") || strings.Contains(tree, "└──") {
		t.Errorf("Expected no entries for an empty directory, got:\n%s", tree)
	}
}
