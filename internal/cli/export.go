package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/pmi-ops/sprintload/internal/db"
	"github.com/pmi-ops/sprintload/internal/logging"
	"github.com/pmi-ops/sprintload/internal/report"
	"github.com/pmi-ops/sprintload/pkg/sprintload"
)

var exportCmd = &cobra.Command{
	Use:   "export [project_path]",
	Short: "Aggregate the sites' load logs and write the JSON report",
	Long: `Export reads every configured site's pmi_sprint_reporter_log table,
merges the entries in site order, and writes them as a single JSON array.
The params column is omitted and each entry is tagged with its hpo_id.

The export file is fully overwritten on every invocation.

Examples:
  # Export using sprintload.yaml in the current directory
  sprintload export

  # Export specific sites to a custom path
  sprintload export --hpo saint_peter --hpo chicago_hope \
    --multi-schema --export-path reports/log.json -d pmi_sprint`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

type exportFlagValues struct {
	conn        connectionFlags
	hpoIDs      []string
	multiSchema bool
	exportPath  string
	timeout     time.Duration
}

var exportFlags exportFlagValues

func init() {
	rootCmd.AddCommand(exportCmd)

	registerConnectionFlags(exportCmd, &exportFlags.conn)

	exportCmd.Flags().StringSliceVar(&exportFlags.hpoIDs, "hpo", nil,
		"Site (HPO) identifier to include (can be specified multiple times)\n"+
			"Overrides hpo_ids in sprintload.yaml")
	exportCmd.Flags().BoolVar(&exportFlags.multiSchema, "multi-schema", false,
		"Read each site's log from its own schema instead of public")
	exportCmd.Flags().StringVar(&exportFlags.exportPath, "export-path", "",
		"Path of the exported JSON log report (default: "+sprintload.DefaultExportPath+")")
	exportCmd.Flags().DurationVar(&exportFlags.timeout, "timeout", 3*time.Minute,
		"Catastrophic failure protection timeout (default 3m)")
}

func runExport(cmd *cobra.Command, args []string) error {
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

	hpoIDs := exportFlags.hpoIDs
	multiSchema := exportFlags.multiSchema
	exportPath := exportFlags.exportPath
	if projectCfg != nil {
		if len(hpoIDs) == 0 {
			hpoIDs = projectCfg.HPOIDs
		}
		if !cmd.Flags().Changed("multi-schema") {
			multiSchema = projectCfg.MultiSchema
		}
		if exportPath == "" {
			exportPath = projectCfg.ExportPath
		}
	}
	if exportPath == "" {
		exportPath = sprintload.DefaultExportPath
	}
	if len(hpoIDs) == 0 {
		return fmt.Errorf("at least one HPO id is required: %w", sprintload.ErrInvalidConfig)
	}

	connConfig, err := resolveConnection(&exportFlags.conn, projectCfg)
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

	timeout, err := resolveEffectiveTimeout(cmd, projectCfg, exportFlags.timeout)
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

	schemaFor := func(hpoID string) string {
		if multiSchema {
			return hpoID
		}
		return sprintload.DefaultSchemaName
	}

	exporter := report.NewExporter(db.NewPoolAdapter(pool))
	if err := exporter.Export(ctx, hpoIDs, schemaFor, exportPath); err != nil {
		return err
	}

	logger.Info("Exported log to %s", exportPath)
	return nil
}
