package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidateDefaults(t *testing.T) {
	cfg := New()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Depot.Kind != "local" || cfg.Depot.Path != "archives" {
		t.Errorf("depot defaults = %s/%s", cfg.Depot.Kind, cfg.Depot.Path)
	}
	if cfg.Runtime.Concurrency != 5 {
		t.Errorf("default concurrency = %d, want 5", cfg.Runtime.Concurrency)
	}
}

func TestValidateNormalizesValues(t *testing.T) {
	cfg := New()
	cfg.Targeting.Datasets = []string{"mecs, eia860", "ferc714"}
	cfg.Depot.Kind = " Local "
	cfg.Output.ConsoleFormat = "NDJSON"
	cfg.Output.OutFormat = " Json "

	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	want := []string{"mecs", "eia860", "ferc714"}
	if len(cfg.Targeting.Datasets) != len(want) {
		t.Fatalf("datasets = %v, want %v", cfg.Targeting.Datasets, want)
	}
	for i := range want {
		if cfg.Targeting.Datasets[i] != want[i] {
			t.Errorf("datasets[%d] = %q, want %q", i, cfg.Targeting.Datasets[i], want[i])
		}
	}
	if cfg.Depot.Kind != "local" {
		t.Errorf("depot kind = %q", cfg.Depot.Kind)
	}
	if cfg.Output.ConsoleFormat != "ndjson" {
		t.Errorf("console format = %q", cfg.Output.ConsoleFormat)
	}
	if cfg.Output.OutFormat != "json" {
		t.Errorf("out format = %q", cfg.Output.OutFormat)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{"bad depot kind", func(c *Config) { c.Depot.Kind = "ftp" }, "--depot"},
		{"local depot without path", func(c *Config) { c.Depot.Path = "" }, "--depot-path"},
		{"s3 depot without bucket", func(c *Config) { c.Depot.Kind = "s3" }, "--depot-bucket"},
		{"bad console format", func(c *Config) { c.Output.ConsoleFormat = "yaml" }, "--console-format"},
		{"bad out format", func(c *Config) { c.Output.OutFormat = "csv" }, "--out-format"},
		{"negative concurrency", func(c *Config) { c.Runtime.Concurrency = -1 }, "--concurrency"},
		{"zero timeout", func(c *Config) { c.Runtime.Timeout = 0 }, "--timeout"},
		{"negative file drift", func(c *Config) { c.Validation.MaxFileRelDiff = -0.1 }, "--max-file-drift"},
		{"negative dataset drift", func(c *Config) { c.Validation.MaxDatasetRelDiff = -0.1 }, "--max-dataset-drift"},
		{"implausible year", func(c *Config) { c.Targeting.Years = []int{1492} }, "--years"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := New()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate accepted an invalid config")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Errorf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestValidationOptions(t *testing.T) {
	cfg := New()
	cfg.Validation.FailOnDataContinuity = false
	cfg.Validation.MaxFileRelDiff = 0.5

	opts := cfg.Validation.Options()
	if opts.FailOnDataContinuity {
		t.Error("continuity still fatal after downgrade")
	}
	if !opts.FailOnMissingFiles {
		t.Error("missing-files severity lost")
	}
	if opts.MaxFileRelDiff != 0.5 {
		t.Errorf("MaxFileRelDiff = %v, want 0.5", opts.MaxFileRelDiff)
	}
}

func TestSplitCommaList(t *testing.T) {
	got := splitCommaList([]string{" a ,b", "", "c", ",,d,"})
	want := []string{"a", "b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTimeoutDefault(t *testing.T) {
	if New().Runtime.Timeout != 2*time.Hour {
		t.Errorf("default timeout = %v", New().Runtime.Timeout)
	}
}
