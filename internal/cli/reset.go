package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/pmi-ops/sprintload/internal/db"
	"github.com/pmi-ops/sprintload/internal/logging"
	"github.com/pmi-ops/sprintload/internal/namespace"
	"github.com/pmi-ops/sprintload/pkg/sprintload"
)

var resetCmd = &cobra.Command{
	Use:   "reset [project_path]",
	Short: "Drop and recreate the sprint tables without loading",
	Long: `Reset drops and recreates all in-scope sprint tables plus the
pmi_sprint_reporter_log table in every configured namespace, leaving them
empty. Tables outside the sprint scope are untouched.

This permanently deletes previously loaded sprint data. An interactive
confirmation guards each namespace unless --force is given.

Examples:
  # Reset the shared public schema
  sprintload reset -d pmi_sprint

  # Reset each site's schema, creating missing schemas first
  sprintload reset --hpo saint_peter --hpo chicago_hope --multi-schema \
    -d pmi_sprint --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReset,
}

type resetFlagValues struct {
	conn              connectionFlags
	hpoIDs            []string
	multiSchema       bool
	datetimePrecision int
	force             bool
	timeout           time.Duration
}

var resetFlags resetFlagValues

func init() {
	rootCmd.AddCommand(resetCmd)

	registerConnectionFlags(resetCmd, &resetFlags.conn)

	resetCmd.Flags().StringSliceVar(&resetFlags.hpoIDs, "hpo", nil,
		"Site (HPO) identifier whose namespace to reset (can be specified multiple times)\n"+
			"Overrides hpo_ids in sprintload.yaml")
	resetCmd.Flags().BoolVar(&resetFlags.multiSchema, "multi-schema", false,
		"Reset each site's own schema instead of public")
	resetCmd.Flags().IntVar(&resetFlags.datetimePrecision, "datetime-precision", sprintload.DefaultDatetimePrecision,
		"Fractional-second precision of datetime columns (0-6)")
	resetCmd.Flags().BoolVar(&resetFlags.force, "force", false,
		"Skip interactive approval prompt for the destructive reset")
	resetCmd.Flags().DurationVar(&resetFlags.timeout, "timeout", 3*time.Minute,
		"Catastrophic failure protection timeout (default 3m)")
}

func runReset(cmd *cobra.Command, args []string) error {
	sourcePath := "."
	if len(args) == 1 {
		sourcePath = args[0]
	}
	verbose := getVerboseFlag(cmd)
	logger := logging.NewConsoleLogger(verbose)

	projectCfg, err := loadProjectConfig(sourcePath)
	if err != nil {
		return err
	}

	hpoIDs := resetFlags.hpoIDs
	multiSchema := resetFlags.multiSchema
	precision := resetFlags.datetimePrecision
	if projectCfg != nil {
		if len(hpoIDs) == 0 {
			hpoIDs = projectCfg.HPOIDs
		}
		if !cmd.Flags().Changed("multi-schema") {
			multiSchema = projectCfg.MultiSchema
		}
		if !cmd.Flags().Changed("datetime-precision") && projectCfg.DatetimePrecision != nil {
			precision = *projectCfg.DatetimePrecision
		}
	}

	// In shared mode the reset targets the single public schema; site ids
	// are only needed to enumerate schemas in multi-schema mode.
	schemas := []string{sprintload.DefaultSchemaName}
	if multiSchema {
		if len(hpoIDs) == 0 {
			return fmt.Errorf("at least one HPO id is required in multi-schema mode: %w", sprintload.ErrInvalidConfig)
		}
		schemas = hpoIDs
	}

	cat, err := loadCatalog(projectCfg)
	if err != nil {
		return err
	}

	connConfig, err := resolveConnection(&resetFlags.conn, projectCfg)
	if err != nil {
		return err
	}

	connector, err := db.NewConnector(connConfig)
	if err != nil {
		return err
	}
	if closer, ok := connector.(io.Closer); ok {
		defer closer.Close()
	}

	timeout, err := resolveEffectiveTimeout(cmd, projectCfg, resetFlags.timeout)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(timeout)
	defer cancel()

	pool, err := connector.Connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	approver := newApprover(resetFlags.force, verbose)
	manager := namespace.NewManager(db.NewPoolAdapter(pool), cat, precision)

	for _, schema := range schemas {
		if multiSchema {
			if err := manager.EnsureSchemaExists(ctx, schema); err != nil {
				return err
			}
		}

		approved, err := approver.RequestApproval(ctx, schema)
		if err != nil {
			return err
		}
		if !approved {
			return fmt.Errorf("reset of schema %q was not approved: %w", schema, sprintload.ErrApprovalDenied)
		}

		if err := manager.ResetTables(ctx, schema); err != nil {
			return err
		}
		logger.Info("Reset tables in schema %s", schema)
	}

	return nil
}
