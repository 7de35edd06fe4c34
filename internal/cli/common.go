package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pmi-ops/sprintload/internal/catalog"
	"github.com/pmi-ops/sprintload/internal/config"
	"github.com/pmi-ops/sprintload/internal/ui"
	"github.com/pmi-ops/sprintload/pkg/sprintload"
)

// loadProjectConfig loads godotenv and the project configuration.
// Returns nil config if sprintload.yaml does not exist (not an error).
func loadProjectConfig(sourcePath string) (*config.ProjectConfig, error) {
	_ = godotenv.Load()

	projectCfg, err := config.Load(sourcePath)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load %s: %w", config.ConfigFileName, err)
	}
	return projectCfg, nil
}

// loadCatalog loads the schema catalog, preferring file replacements from
// sprintload.yaml over the embedded defaults.
func loadCatalog(projectCfg *config.ProjectConfig) (*catalog.Catalog, error) {
	if projectCfg != nil && projectCfg.SchemaCSV != "" && projectCfg.TableListCSV != "" {
		return catalog.LoadFiles(projectCfg.SchemaCSV, projectCfg.TableListCSV)
	}
	return catalog.Default()
}

// newApprover selects the approver implementation based on the --force flag.
func newApprover(force, verbose bool) sprintload.Approver {
	if force {
		return ui.NewForcedApprover(verbose)
	}
	return ui.NewInteractiveApprover(verbose)
}

// resolveEffectiveTimeout returns the effective timeout, preferring
// sprintload.yaml if the flag wasn't set explicitly.
func resolveEffectiveTimeout(
	cmd *cobra.Command,
	projectCfg *config.ProjectConfig,
	flagTimeout time.Duration,
) (time.Duration, error) {
	if projectCfg != nil && projectCfg.Timeout != "" && !cmd.Flags().Changed("timeout") {
		parsed, err := time.ParseDuration(projectCfg.Timeout)
		if err != nil {
			return 0, fmt.Errorf("invalid timeout in %s: %w", config.ConfigFileName, err)
		}
		return parsed, nil
	}
	return flagTimeout, nil
}

// commandContext builds a context with the catastrophic-failure timeout and
// cancellation on SIGINT/SIGTERM for graceful shutdown.
func commandContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\n[INTERRUPT] Received interrupt signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
