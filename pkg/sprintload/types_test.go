package sprintload_test

import (
	"errors"
	"testing"

	"github.com/pmi-ops/sprintload/pkg/sprintload"
)

func validRunConfig() sprintload.RunConfig {
	return sprintload.RunConfig{
		HPOIDs:            []string{"nyc", "chs"},
		MultiSchema:       true,
		SprintNum:         5,
		CSVDir:            "/data/csv",
		ConnectionString:  "postgresql://user@localhost:5432/pmi",
		DatetimePrecision: sprintload.DefaultDatetimePrecision,
	}
}

func TestRunConfig_Validate_Valid(t *testing.T) {
	cfg := validRunConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
}

func TestRunConfig_Validate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*sprintload.RunConfig)
	}{
		{"no sites", func(c *sprintload.RunConfig) { c.HPOIDs = nil }},
		{"empty site id", func(c *sprintload.RunConfig) { c.HPOIDs = []string{"nyc", ""} }},
		{"negative sprint", func(c *sprintload.RunConfig) { c.SprintNum = -1 }},
		{"no csv dir", func(c *sprintload.RunConfig) { c.CSVDir = "" }},
		{"no connection string", func(c *sprintload.RunConfig) { c.ConnectionString = "" }},
		{"precision too high", func(c *sprintload.RunConfig) { c.DatetimePrecision = 9 }},
		{"negative timeout", func(c *sprintload.RunConfig) { c.Timeout = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validRunConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !errors.Is(err, sprintload.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got: %v", err)
			}
		})
	}
}

func TestRunConfig_Schemas(t *testing.T) {
	cfg := validRunConfig()

	schemas := cfg.Schemas()
	if len(schemas) != 2 || schemas[0] != "nyc" || schemas[1] != "chs" {
		t.Errorf("multi-schema: got %v", schemas)
	}

	cfg.MultiSchema = false
	schemas = cfg.Schemas()
	if len(schemas) != 1 || schemas[0] != sprintload.DefaultSchemaName {
		t.Errorf("shared schema: got %v", schemas)
	}
}

func TestRunConfig_SchemaFor(t *testing.T) {
	cfg := validRunConfig()
	if got := cfg.SchemaFor("nyc"); got != "nyc" {
		t.Errorf("multi-schema SchemaFor = %q, want %q", got, "nyc")
	}
	cfg.MultiSchema = false
	if got := cfg.SchemaFor("nyc"); got != sprintload.DefaultSchemaName {
		t.Errorf("shared SchemaFor = %q, want %q", got, sprintload.DefaultSchemaName)
	}
}

func TestAuthMethod_String(t *testing.T) {
	tests := []struct {
		method sprintload.AuthMethod
		want   string
	}{
		{sprintload.AuthMethodStandard, "Standard"},
		{sprintload.AuthMethodAWSIAM, "AWS IAM"},
		{sprintload.AuthMethodGoogleIAM, "Google IAM"},
		{sprintload.AuthMethodAzureEntraID, "Azure Entra ID"},
		{sprintload.AuthMethod(99), "Unknown(99)"},
	}

	for _, tt := range tests {
		if got := tt.method.String(); got != tt.want {
			t.Errorf("AuthMethod(%d).String() = %q, want %q", tt.method, got, tt.want)
		}
	}
}

func TestAuthMethod_IsValid(t *testing.T) {
	if !sprintload.AuthMethodStandard.IsValid() {
		t.Error("AuthMethodStandard should be valid")
	}
	if !sprintload.AuthMethodAzureEntraID.IsValid() {
		t.Error("AuthMethodAzureEntraID should be valid")
	}
	if sprintload.AuthMethod(99).IsValid() {
		t.Error("AuthMethod(99) should be invalid")
	}
}
