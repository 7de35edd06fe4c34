package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pmi-ops/sprintload/internal/config"
	"github.com/pmi-ops/sprintload/internal/scaffold"
	"github.com/pmi-ops/sprintload/internal/tui"
)

var initCmd = &cobra.Command{
	Use:   "init [target_dir]",
	Short: "Create a sprintload project configuration",
	Long: `Init creates a sprintload.yaml in the target directory and makes sure the
CSV directory exists.

When run at an interactive terminal it starts a wizard that collects the
database connection, the participating sites and the sprint settings. In
non-interactive environments (CI, piped input) it writes a commented
template instead.

Examples:
  # Interactive setup in the current directory
  sprintload init

  # Template config for a new project directory
  sprintload init ./sprint_5 --no-wizard`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

var initNoWizard bool

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initNoWizard, "no-wizard", false,
		"Write a template sprintload.yaml without the interactive wizard")
}

func runInit(cmd *cobra.Command, args []string) error {
	targetDir := "."
	if len(args) == 1 {
		targetDir = args[0]
	}

	var cfg config.ProjectConfig
	if !initNoWizard && tui.IsInteractive() {
		result, err := tui.RunInitWizard()
		if err != nil {
			return err
		}
		if result.Cancelled {
			fmt.Fprintln(os.Stderr, "Init cancelled")
			return nil
		}
		cfg = result.Config
	} else {
		cfg = templateConfig()
	}

	project, err := scaffold.NewScaffolder(getVerboseFlag(cmd)).CreateProject(targetDir, cfg)
	if err != nil {
		return err
	}

	showInitComplete(targetDir, project)
	return nil
}

// templateConfig returns the config written when the wizard is skipped.
func templateConfig() config.ProjectConfig {
	return config.ProjectConfig{
		Connection: config.ConnectionConfig{
			Host:     "localhost",
			Port:     5432,
			Username: "postgres",
			Database: "pmi_sprint",
			SSLMode:  "prefer",
		},
		HPOIDs: []string{"your_site_id"},
		Sprint: 0,
		CSVDir: ".",
	}
}

// showInitComplete displays the completion message after project creation.
func showInitComplete(targetDir string, project *scaffold.Project) {
	fmt.Println()
	fmt.Println("✓ Project created successfully!")
	fmt.Println()

	if tree, err := scaffold.BuildFileTree(targetDir); err == nil {
		fmt.Print(tree)
	} else {
		fmt.Printf("%s\n", project.ConfigPath)
	}

	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Printf("  1. cd %s\n", targetDir)
	fmt.Printf("  2. Review %s\n", config.ConfigFileName)
	fmt.Printf("  3. Drop the sites' CSV submissions into %s\n", displayPath(targetDir, project.CSVDir))
	fmt.Println("  4. Run: sprintload run")
	fmt.Println()
}

func displayPath(targetDir, path string) string {
	if rel, err := filepath.Rel(targetDir, path); err == nil && rel != "." {
		return rel
	}
	return path
}
