package db

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pmi-ops/sprintload/internal/config"
	"github.com/pmi-ops/sprintload/pkg/sprintload"
)

// GranularConnFlags represents connection parameters from CLI flags.
// These follow PostgreSQL standard flag conventions (-h, -p, -U, -d).
//
// Note: Password is NOT included as a CLI flag for security reasons.
// Use one of these methods instead:
//  1. $PGPASSWORD environment variable
//  2. Connection string with embedded password
type GranularConnFlags struct {
	Host     string
	Port     int
	Username string
	Database string
	SSLMode  string
}

// IsEmpty returns true if no connection-related granular flags were provided.
// Database is excluded because it can override the database in a connection
// string.
func (g *GranularConnFlags) IsEmpty() bool {
	return g == nil || (g.Host == "" && g.Port == 0 && g.Username == "" && g.SSLMode == "")
}

// AzureFlags represents Azure Entra ID CLI flags.
// These override the corresponding AZURE_* environment variables.
// Note: Client secret is NOT included as a CLI flag for security reasons.
// Use the AZURE_CLIENT_SECRET environment variable instead.
type AzureFlags struct {
	Enabled  bool
	TenantID string // Overrides AZURE_TENANT_ID
	ClientID string // Overrides AZURE_CLIENT_ID
}

// AWSFlags represents AWS RDS IAM authentication CLI flags.
type AWSFlags struct {
	Enabled bool
	Region  string // Overrides AWS_REGION
}

// GoogleFlags represents Google Cloud SQL IAM authentication CLI flags.
type GoogleFlags struct {
	Enabled  bool
	Instance string // project:region:instance
}

// EnvVars represents PostgreSQL standard environment variables.
// See: https://www.postgresql.org/docs/current/libpq-envars.html
type EnvVars struct {
	PGHOST       string
	PGPORT       string
	PGUSER       string
	PGPASSWORD   string
	PGDATABASE   string
	PGSSLMODE    string
	DATABASE_URL string

	// Azure Entra ID environment variables (Azure SDK standard names)
	AZURE_TENANT_ID     string
	AZURE_CLIENT_ID     string
	AZURE_CLIENT_SECRET string

	// AWS environment variables
	AWS_REGION string
}

// LoadFromEnvironment loads PostgreSQL and cloud provider environment
// variables, following standard client conventions.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		PGHOST:              os.Getenv("PGHOST"),
		PGPORT:              os.Getenv("PGPORT"),
		PGUSER:              os.Getenv("PGUSER"),
		PGPASSWORD:          os.Getenv("PGPASSWORD"),
		PGDATABASE:          os.Getenv("PGDATABASE"),
		PGSSLMODE:           os.Getenv("PGSSLMODE"),
		DATABASE_URL:        os.Getenv("DATABASE_URL"),
		AZURE_TENANT_ID:     os.Getenv("AZURE_TENANT_ID"),
		AZURE_CLIENT_ID:     os.Getenv("AZURE_CLIENT_ID"),
		AZURE_CLIENT_SECRET: os.Getenv("AZURE_CLIENT_SECRET"),
		AWS_REGION:          os.Getenv("AWS_REGION"),
	}
}

// ResolveConnectionParams resolves connection parameters using
// PostgreSQL-standard precedence:
//
//  1. Connection string flag (--connection) - parsed and used directly
//  2. Granular flags (-h, -p, -U, -d)
//  3. Environment variables (PGHOST, PGPORT, ...)
//  4. DATABASE_URL environment variable
//  5. sprintload.yaml connection block
//  6. Defaults (localhost:5432, prefer SSL)
//
// Cloud authentication (Azure Entra ID, AWS RDS IAM, Google Cloud SQL IAM)
// is enabled by the corresponding flags or by auth_method in sprintload.yaml.
// CLI flags take precedence over environment variables, which take precedence
// over the config file.
//
// Returns an error if BOTH --connection AND granular flags are provided.
func ResolveConnectionParams(
	connStringFlag string,
	granularFlags *GranularConnFlags,
	azureFlags *AzureFlags,
	awsFlags *AWSFlags,
	googleFlags *GoogleFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*sprintload.ConnectionConfig, error) {
	if granularFlags == nil {
		granularFlags = &GranularConnFlags{}
	}
	if azureFlags == nil {
		azureFlags = &AzureFlags{}
	}
	if awsFlags == nil {
		awsFlags = &AWSFlags{}
	}
	if googleFlags == nil {
		googleFlags = &GoogleFlags{}
	}
	if envVars == nil {
		envVars = &EnvVars{}
	}

	if connStringFlag != "" && !granularFlags.IsEmpty() {
		return nil, fmt.Errorf(
			"cannot specify both --connection and granular flags (-h, -p, -U)\n" +
				"Choose one approach:\n" +
				"  1. Connection string: --connection \"postgresql://user@localhost:5432/mydb\"\n" +
				"  2. Granular flags: -h localhost -p 5432 -U myuser -d mydb\n" +
				"  3. Environment variables: export PGHOST=localhost PGPORT=5432 PGUSER=myuser",
		)
	}

	var cfg *sprintload.ConnectionConfig
	var err error

	switch {
	case connStringFlag != "":
		cfg, err = resolveFromConnectionString(connStringFlag, envVars)
	case granularFlags.IsEmpty() && envVars.DATABASE_URL != "":
		cfg, err = resolveFromConnectionString(envVars.DATABASE_URL, envVars)
	default:
		cfg, err = resolveFromGranularParams(granularFlags, envVars, projectConfig)
	}
	if err != nil {
		return nil, err
	}

	applyCloudAuth(cfg, azureFlags, awsFlags, googleFlags, envVars, projectConfig)

	return cfg, nil
}

// applyCloudAuth switches the config to a cloud authentication method when
// the corresponding flags or sprintload.yaml request it.
func applyCloudAuth(
	cfg *sprintload.ConnectionConfig,
	azure *AzureFlags,
	aws *AWSFlags,
	google *GoogleFlags,
	env *EnvVars,
	projectConfig *config.ProjectConfig,
) {
	var pc config.ConnectionConfig
	if projectConfig != nil {
		pc = projectConfig.Connection
	}

	switch {
	case azure.Enabled || pc.AuthMethod == "azure":
		cfg.AuthMethod = sprintload.AuthMethodAzureEntraID

		cfg.AzureTenantID = azure.TenantID
		if cfg.AzureTenantID == "" {
			cfg.AzureTenantID = env.AZURE_TENANT_ID
		}
		if cfg.AzureTenantID == "" {
			cfg.AzureTenantID = pc.AzureTenantID
		}

		cfg.AzureClientID = azure.ClientID
		if cfg.AzureClientID == "" {
			cfg.AzureClientID = env.AZURE_CLIENT_ID
		}
		if cfg.AzureClientID == "" {
			cfg.AzureClientID = pc.AzureClientID
		}

		// Client secret only comes from the environment (no flag for security)
		cfg.AzureClientSecret = env.AZURE_CLIENT_SECRET

	case aws.Enabled || pc.AuthMethod == "aws":
		cfg.AuthMethod = sprintload.AuthMethodAWSIAM

		cfg.AWSRegion = aws.Region
		if cfg.AWSRegion == "" {
			cfg.AWSRegion = env.AWS_REGION
		}
		if cfg.AWSRegion == "" {
			cfg.AWSRegion = pc.AWSRegion
		}

	case google.Enabled || pc.AuthMethod == "google":
		cfg.AuthMethod = sprintload.AuthMethodGoogleIAM

		cfg.GoogleInstance = google.Instance
		if cfg.GoogleInstance == "" {
			cfg.GoogleInstance = pc.GoogleInstance
		}
	}
}

// resolveFromConnectionString parses a connection string, applying PGSSLMODE
// from the environment as a fallback (libpq behavior).
func resolveFromConnectionString(connStr string, envVars *EnvVars) (*sprintload.ConnectionConfig, error) {
	cfg, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %w", err)
	}

	if cfg.SSLMode == "" && envVars.PGSSLMODE != "" {
		cfg.SSLMode = envVars.PGSSLMODE
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "prefer"
	}

	return cfg, nil
}

// resolveFromGranularParams builds a ConnectionConfig from granular flags,
// environment variables and sprintload.yaml. Precedence per parameter:
// flag > environment > config file > default.
func resolveFromGranularParams(
	flags *GranularConnFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*sprintload.ConnectionConfig, error) {
	cfg := &sprintload.ConnectionConfig{
		AuthMethod:       sprintload.AuthMethodStandard,
		AdditionalParams: make(map[string]string),
	}

	var pc config.ConnectionConfig
	if projectConfig != nil {
		pc = projectConfig.Connection
	}

	cfg.Host = flags.Host
	if cfg.Host == "" {
		cfg.Host = envVars.PGHOST
	}
	if cfg.Host == "" {
		cfg.Host = pc.Host
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}

	if flags.Port != 0 {
		cfg.Port = flags.Port
	} else if envVars.PGPORT != "" {
		port, err := strconv.Atoi(envVars.PGPORT)
		if err != nil {
			return nil, fmt.Errorf("invalid $PGPORT value '%s': must be an integer", envVars.PGPORT)
		}
		cfg.Port = port
	} else if pc.Port != 0 {
		cfg.Port = pc.Port
	} else {
		cfg.Port = 5432
	}

	cfg.Username = flags.Username
	if cfg.Username == "" {
		cfg.Username = envVars.PGUSER
	}
	if cfg.Username == "" {
		cfg.Username = pc.Username
	}
	if cfg.Username == "" {
		if currentUser := os.Getenv("USER"); currentUser != "" {
			cfg.Username = currentUser
		} else if currentUser := os.Getenv("USERNAME"); currentUser != "" {
			cfg.Username = currentUser
		}
	}

	cfg.Password = envVars.PGPASSWORD

	cfg.Database = flags.Database
	if cfg.Database == "" {
		cfg.Database = envVars.PGDATABASE
	}
	if cfg.Database == "" {
		cfg.Database = pc.Database
	}

	cfg.SSLMode = flags.SSLMode
	if cfg.SSLMode == "" {
		cfg.SSLMode = envVars.PGSSLMODE
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = pc.SSLMode
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "prefer"
	}

	return cfg, nil
}
