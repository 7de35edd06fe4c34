// Package config loads the optional sprintload.yaml project file.
// CLI flags always take precedence over file values.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

type ConnectionConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username"`
	Database       string `yaml:"database"`
	SSLMode        string `yaml:"sslmode"`
	AuthMethod     string `yaml:"auth_method,omitempty"`
	AzureTenantID  string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID  string `yaml:"azure_client_id,omitempty"`
	AWSRegion      string `yaml:"aws_region,omitempty"`
	GoogleInstance string `yaml:"google_instance,omitempty"`
}

type ProjectConfig struct {
	Connection        ConnectionConfig `yaml:"connection"`
	HPOIDs            []string         `yaml:"hpo_ids"`
	MultiSchema       bool             `yaml:"multi_schema"`
	Sprint            int              `yaml:"sprint"`
	CSVDir            string           `yaml:"csv_dir"`
	ExportPath        string           `yaml:"export_path"`
	DatetimePrecision *int             `yaml:"datetime_precision,omitempty"`
	Timeout           string           `yaml:"timeout"`

	// Optional replacements for the embedded schema catalog resources.
	SchemaCSV    string `yaml:"schema_csv,omitempty"`
	TableListCSV string `yaml:"table_list_csv,omitempty"`
}

const ConfigFileName = "sprintload.yaml"

func Load(sourcePath string) (*ProjectConfig, error) {
	configPath := filepath.Join(sourcePath, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
