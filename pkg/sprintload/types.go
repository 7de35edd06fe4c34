package sprintload

import (
	"errors"
	"fmt"
	"time"
)

// RunConfig contains all parameters needed for a full load run.
// It is constructed once at startup (CLI flags + sprintload.yaml + env) and
// passed into components explicitly; there is no process-wide mutable state.
type RunConfig struct {
	// HPOIDs lists the data-contributing sites to process, in order.
	HPOIDs []string

	// MultiSchema isolates each site into its own schema named after the
	// site. When false, all sites share the default schema and the table
	// reset runs once for the shared namespace.
	MultiSchema bool

	// SprintNum is the batch identifier embedded in expected CSV filenames:
	// <hpo>_<table>_datasprint_<sprint>.csv
	SprintNum int

	// CSVDir is the directory scanned (non-recursively) for submission files.
	CSVDir string

	// ExportPath is where the aggregated log JSON document is written.
	// Defaults to DefaultExportPath. Fully overwritten each run.
	ExportPath string

	// DatetimePrecision is the fractional-second precision applied to
	// datetime columns in created tables.
	DatetimePrecision int

	// ConnectionString is the PostgreSQL connection string (URI or ADO.NET
	// format) for the target database.
	ConnectionString string

	// Force bypasses interactive approval for the destructive table reset.
	Force bool

	// Timeout is the catastrophic-failure protection timeout for the run.
	Timeout time.Duration

	// Verbose enables detailed logging.
	Verbose bool

	// AuthMethod indicates the authentication mechanism to use.
	AuthMethod AuthMethod

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID)
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string

	// AWSRegion is the region for AWS IAM authentication.
	AWSRegion string

	// GoogleInstance is the Cloud SQL instance connection name in
	// project:region:instance format for Google IAM authentication.
	GoogleInstance string
}

// Validate checks if the RunConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *RunConfig) Validate() error {
	var errs []error

	if len(c.HPOIDs) == 0 {
		errs = append(errs, fmt.Errorf("at least one HPO id is required: %w", ErrInvalidConfig))
	}
	for _, id := range c.HPOIDs {
		if id == "" {
			errs = append(errs, fmt.Errorf("HPO ids must be non-empty: %w", ErrInvalidConfig))
			break
		}
	}

	if c.SprintNum < 0 {
		errs = append(errs, fmt.Errorf("sprint number cannot be negative: %w", ErrInvalidConfig))
	}

	if c.CSVDir == "" {
		errs = append(errs, fmt.Errorf("CSV directory is required: %w", ErrInvalidConfig))
	}

	if c.ConnectionString == "" {
		errs = append(errs, fmt.Errorf("ConnectionString is required: %w", ErrInvalidConfig))
	}

	if c.DatetimePrecision < 0 || c.DatetimePrecision > 6 {
		errs = append(errs, fmt.Errorf("datetime precision must be between 0 and 6: %w", ErrInvalidConfig))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// Schemas returns the namespaces the run operates on, one per site when
// MultiSchema is enabled, otherwise the single shared default schema.
func (c *RunConfig) Schemas() []string {
	if !c.MultiSchema {
		return []string{DefaultSchemaName}
	}
	schemas := make([]string, len(c.HPOIDs))
	copy(schemas, c.HPOIDs)
	return schemas
}

// SchemaFor returns the namespace a given site loads into.
func (c *RunConfig) SchemaFor(hpoID string) string {
	if c.MultiSchema {
		return hpoID
	}
	return DefaultSchemaName
}

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID)
	// If all three are provided, Service Principal authentication is used.
	// If none are provided, DefaultAzureCredential chain is used (env vars, managed identity, CLI, etc.)
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string

	// AWS IAM authentication parameters (used when AuthMethod is AuthMethodAWSIAM)
	AWSRegion string

	// Google Cloud SQL instance connection name in project:region:instance
	// format (used when AuthMethod is AuthMethodGoogleIAM)
	GoogleInstance string
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}
