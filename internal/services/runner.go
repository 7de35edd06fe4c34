// Package services orchestrates the full sprint load: namespace setup,
// per-site table loads, and the final log export.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/pmi-ops/sprintload/internal/catalog"
	"github.com/pmi-ops/sprintload/internal/db"
	"github.com/pmi-ops/sprintload/internal/files"
	"github.com/pmi-ops/sprintload/internal/loader"
	"github.com/pmi-ops/sprintload/internal/namespace"
	"github.com/pmi-ops/sprintload/internal/report"
	"github.com/pmi-ops/sprintload/pkg/sprintload"
)

// RunnerService implements the end-to-end load workflow.
// Thread-Safety: NOT safe for concurrent Run() calls on the same instance.
type RunnerService struct {
	connectorFactory func(*sprintload.ConnectionConfig) (sprintload.Connector, error)
	approver         sprintload.Approver
	logger           sprintload.Logger
	cat              *catalog.Catalog
}

// NewRunnerService creates a RunnerService with all dependencies injected.
// Panics on nil dependencies; those are programmer errors that should fail
// loudly at startup rather than surface as nil dereferences mid-run.
func NewRunnerService(
	connectorFactory func(*sprintload.ConnectionConfig) (sprintload.Connector, error),
	approver sprintload.Approver,
	logger sprintload.Logger,
	cat *catalog.Catalog,
) *RunnerService {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if approver == nil {
		panic("approver cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	if cat == nil {
		panic("cat cannot be nil")
	}
	return &RunnerService{
		connectorFactory: connectorFactory,
		approver:         approver,
		logger:           logger,
		cat:              cat,
	}
}

// Run executes the full load for every configured site, then exports the
// merged log. Per-table failures are recorded in the log tables and do not
// fail the run; namespace setup failures are fatal for their site only.
func (s *RunnerService) Run(ctx context.Context, cfg sprintload.RunConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	connConfig, err := db.ParseConnectionString(cfg.ConnectionString)
	if err != nil {
		return fmt.Errorf("invalid connection string: %v: %w", err, sprintload.ErrInvalidConfig)
	}
	connConfig.AuthMethod = cfg.AuthMethod
	connConfig.AzureTenantID = cfg.AzureTenantID
	connConfig.AzureClientID = cfg.AzureClientID
	connConfig.AzureClientSecret = cfg.AzureClientSecret
	connConfig.AWSRegion = cfg.AWSRegion
	connConfig.GoogleInstance = cfg.GoogleInstance

	connector, err := s.connectorFactory(connConfig)
	if err != nil {
		return err
	}
	if closer, ok := connector.(io.Closer); ok {
		defer closer.Close()
	}

	pool, err := connector.Connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	return s.RunWithConnection(ctx, cfg, db.NewPoolAdapter(pool))
}

// RunWithConnection runs the load against an already established
// connection. Exposed for tests and embedding callers.
func (s *RunnerService) RunWithConnection(ctx context.Context, cfg sprintload.RunConfig, conn sprintload.DBConnection) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	runID := uuid.New()
	s.logger.Verbose("Starting run %s (sprint %d, %d sites)", runID, cfg.SprintNum, len(cfg.HPOIDs))

	manager := namespace.NewManager(conn, s.cat, cfg.DatetimePrecision)

	var siteErrs []error
	for _, hpoID := range cfg.HPOIDs {
		s.logger.Info("Processing %s...", hpoID)

		if err := s.processSite(ctx, cfg, conn, manager, hpoID); err != nil {
			if errors.Is(err, sprintload.ErrApprovalDenied) {
				return err
			}
			s.logger.Error("Site %s failed: %v", hpoID, err)
			siteErrs = append(siteErrs, fmt.Errorf("site %s: %w", hpoID, err))
			continue
		}
	}

	exporter := report.NewExporter(conn)
	if err := exporter.Export(ctx, cfg.HPOIDs, cfg.SchemaFor, cfg.ExportPath); err != nil {
		siteErrs = append(siteErrs, err)
	} else {
		s.logger.Info("Exported log to %s", cfg.ExportPath)
	}

	return errors.Join(siteErrs...)
}

// processSite prepares the site's schema and loads every in-scope table.
func (s *RunnerService) processSite(ctx context.Context, cfg sprintload.RunConfig, conn sprintload.DBConnection, manager *namespace.Manager, hpoID string) error {
	schema := cfg.SchemaFor(hpoID)

	if cfg.MultiSchema {
		if err := manager.EnsureSchemaExists(ctx, schema); err != nil {
			return err
		}
	}

	approved, err := s.approver.RequestApproval(ctx, schema)
	if err != nil {
		return err
	}
	if !approved {
		return fmt.Errorf("reset of schema %q was not approved: %w", schema, sprintload.ErrApprovalDenied)
	}

	if err := manager.ResetTables(ctx, schema); err != nil {
		return err
	}

	index, err := files.BuildIndex(cfg.CSVDir)
	if err != nil {
		return err
	}
	s.logger.Verbose("Indexed %d CSV files in %s", index.Len(), cfg.CSVDir)

	executor := loader.NewExecutor(conn, s.cat, index, hpoID, schema, cfg.SprintNum)
	return executor.Run(ctx)
}
