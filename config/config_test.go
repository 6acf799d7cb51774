package config

import (
	"os"
	"testing"
)

// writeTempConfig creates a minimal configuration file required for LoadConfig
// and returns its path.
func writeTempConfig(t *testing.T) string {
	t.Helper()
	content := `gridflow:
  name: "TestApp"
  version: "1.0"
source:
  eia:
    start_date: "2020-01-01"
storage:
  sqlite:
    enabled: true
    path: "test.db"
    table: "eia_electricity_demand_raw"
`
	f, err := os.CreateTemp("", "cfg-*.yml")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp file: %v", err)
	}
	return f.Name()
}

func TestLoadConfig(t *testing.T) {
	path := writeTempConfig(t)
	defer os.Remove(path)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Gridflow.Name != "TestApp" {
		t.Errorf("unexpected name: %s", cfg.Gridflow.Name)
	}
	if cfg.Source.EIA.PageSize != 5000 {
		t.Errorf("expected default page size 5000, got %d", cfg.Source.EIA.PageSize)
	}
	if cfg.Source.EIA.DataType != "D" {
		t.Errorf("expected default data type D, got %s", cfg.Source.EIA.DataType)
	}
	if cfg.Source.EIA.APIKeyEnv != "EIA_API_KEY" {
		t.Errorf("unexpected api key env: %s", cfg.Source.EIA.APIKeyEnv)
	}
}

func TestLoadConfigWindowOverrides(t *testing.T) {
	path := writeTempConfig(t)
	defer os.Remove(path)

	t.Setenv("EIA_START_DATE", "2024-01-01")
	t.Setenv("EIA_END_DATE", "2024-02-01")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Source.EIA.StartDate != "2024-01-01" {
		t.Errorf("start date override not applied: %s", cfg.Source.EIA.StartDate)
	}
	if cfg.Source.EIA.EndDate != "2024-02-01" {
		t.Errorf("end date override not applied: %s", cfg.Source.EIA.EndDate)
	}
}

func TestLoadConfigRequiresStorage(t *testing.T) {
	content := `gridflow:
  name: "TestApp"
  version: "1.0"
source:
  eia:
    start_date: "2020-01-01"
`
	f, err := os.CreateTemp("", "cfg-*.yml")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp file: %v", err)
	}
	defer os.Remove(f.Name())

	if _, err := LoadConfig(f.Name()); err == nil {
		t.Fatal("expected error when no storage backend is enabled")
	}
}

func TestLoadRegions(t *testing.T) {
	content := `regions:
- code: "PJM"
  name: "PJM Interconnection"
- code: "CISO"
  name: "California ISO"
`
	f, err := os.CreateTemp("", "regions-*.yml")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp file: %v", err)
	}
	defer os.Remove(f.Name())

	regions, err := LoadRegions(f.Name())
	if err != nil {
		t.Fatalf("LoadRegions failed: %v", err)
	}
	if len(regions.Regions) != 2 {
		t.Fatalf("expected 2 regions, got %d", len(regions.Regions))
	}
	codes := regions.Codes()
	if codes[0] != "PJM" || codes[1] != "CISO" {
		t.Errorf("unexpected codes: %v", codes)
	}
}

func TestLoadRegionsEmpty(t *testing.T) {
	f, err := os.CreateTemp("", "regions-*.yml")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	if _, err := f.WriteString("regions: []\n"); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp file: %v", err)
	}
	defer os.Remove(f.Name())

	if _, err := LoadRegions(f.Name()); err == nil {
		t.Fatal("expected error for empty region list")
	}
}

func TestIsValidS3Bucket(t *testing.T) {
	cases := []struct {
		name  string
		valid bool
	}{
		{"valid-bucket", true},
		{"Invalid", false},
		{"ab", false},
		{"my..bucket", false},
	}
	for _, c := range cases {
		if got := isValidS3Bucket(c.name); got != c.valid {
			t.Errorf("isValidS3Bucket(%q) = %v, want %v", c.name, got, c.valid)
		}
	}
}

func TestIsValidTableName(t *testing.T) {
	cases := []struct {
		name  string
		valid bool
	}{
		{"eia_electricity_demand_raw", true},
		{"_ingest", true},
		{"1table", false},
		{"bad-name", false},
		{"", false},
	}
	for _, c := range cases {
		if got := isValidTableName(c.name); got != c.valid {
			t.Errorf("isValidTableName(%q) = %v, want %v", c.name, got, c.valid)
		}
	}
}
