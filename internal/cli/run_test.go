package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/pmi-ops/sprintload/internal/config"
	"github.com/pmi-ops/sprintload/pkg/sprintload"
)

// clearConnEnv blanks the connection-related environment so tests are
// deterministic regardless of the host machine.
func clearConnEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PGHOST", "PGPORT", "PGUSER", "PGPASSWORD", "PGDATABASE", "PGSSLMODE",
		"DATABASE_URL", "SPRINTLOAD_CONNECTION_STRING",
		"AZURE_TENANT_ID", "AZURE_CLIENT_ID", "AZURE_CLIENT_SECRET", "AWS_REGION",
	} {
		t.Setenv(key, "")
	}
}

// resetRunState resets the package-level run flag state for a test and
// restores it afterwards.
func resetRunState(t *testing.T) {
	t.Helper()
	prev := runFlags
	runFlags = runFlagValues{
		datetimePrecision: sprintload.DefaultDatetimePrecision,
		timeout:           3 * time.Minute,
	}
	t.Cleanup(func() {
		runFlags = prev
		runCmd.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
	})
}

func TestBuildRunConfig_Defaults(t *testing.T) {
	clearConnEnv(t)
	resetRunState(t)

	cfg, err := buildRunConfig(runCmd, t.TempDir(), false, nil)
	require.NoError(t, err)

	require.Empty(t, cfg.HPOIDs)
	require.False(t, cfg.MultiSchema)
	require.Equal(t, 0, cfg.SprintNum)
	require.Equal(t, sprintload.DefaultExportPath, cfg.ExportPath)
	require.Equal(t, sprintload.DefaultDatetimePrecision, cfg.DatetimePrecision)
	require.Contains(t, cfg.ConnectionString, "localhost")
}

func TestBuildRunConfig_YamlFillsUnsetValues(t *testing.T) {
	clearConnEnv(t)
	resetRunState(t)

	precision := 3
	projectCfg := &config.ProjectConfig{
		Connection: config.ConnectionConfig{
			Host: "yamlhost", Port: 5433, Username: "loader", Database: "pmi_sprint",
		},
		HPOIDs:            []string{"saint_peter", "chicago_hope"},
		MultiSchema:       true,
		Sprint:            2,
		CSVDir:            "submissions",
		ExportPath:        "reports/log.json",
		DatetimePrecision: &precision,
		Timeout:           "90s",
	}

	cfg, err := buildRunConfig(runCmd, ".", false, projectCfg)
	require.NoError(t, err)

	require.Equal(t, []string{"saint_peter", "chicago_hope"}, cfg.HPOIDs)
	require.True(t, cfg.MultiSchema)
	require.Equal(t, 2, cfg.SprintNum)
	require.Equal(t, "submissions", cfg.CSVDir)
	require.Equal(t, "reports/log.json", cfg.ExportPath)
	require.Equal(t, 3, cfg.DatetimePrecision)
	require.Equal(t, 90*time.Second, cfg.Timeout)
	require.Contains(t, cfg.ConnectionString, "yamlhost")
	require.Contains(t, cfg.ConnectionString, "5433")
}

func TestBuildRunConfig_FlagsBeatYaml(t *testing.T) {
	clearConnEnv(t)
	resetRunState(t)

	projectCfg := &config.ProjectConfig{
		HPOIDs: []string{"yaml_site"},
		Sprint: 2,
		CSVDir: "yaml_dir",
	}

	require.NoError(t, runCmd.ParseFlags([]string{
		"--hpo", "flag_site", "--sprint", "7", "--csv-dir", "flag_dir",
	}))

	cfg, err := buildRunConfig(runCmd, ".", false, projectCfg)
	require.NoError(t, err)

	require.Equal(t, []string{"flag_site"}, cfg.HPOIDs)
	require.Equal(t, 7, cfg.SprintNum)
	require.Equal(t, "flag_dir", cfg.CSVDir)
}

func TestBuildRunConfig_CSVDirFallsBackToProjectPath(t *testing.T) {
	clearConnEnv(t)
	resetRunState(t)

	cfg, err := buildRunConfig(runCmd, "/data/sprint", false, nil)
	require.NoError(t, err)
	require.Equal(t, "/data/sprint", cfg.CSVDir)
}

func TestLoadProjectConfig_MissingFileIsNil(t *testing.T) {
	cfg, err := loadProjectConfig(t.TempDir())
	require.NoError(t, err)
	require.Nil(t, cfg)
}

func TestLoadProjectConfig_ReadsYaml(t *testing.T) {
	dir := t.TempDir()
	content := "hpo_ids:\n  - saint_peter\nsprint: 4\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte(content), 0o644))

	cfg, err := loadProjectConfig(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	require.Equal(t, []string{"saint_peter"}, cfg.HPOIDs)
	require.Equal(t, 4, cfg.Sprint)
}

func TestLoadCatalog_DefaultEmbedded(t *testing.T) {
	cat, err := loadCatalog(nil)
	require.NoError(t, err)
	require.NotEmpty(t, cat.InScopeTables())
}
