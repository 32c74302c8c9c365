package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"statarchive/internal/validate"
)

type Config struct {
	// MAINTAINER NOTE: if you add/change/remove fields that affect run
	// behavior, keep the CLI flags in internal/cli/archive.go in sync.
	Targeting  Targeting
	Validation Validation
	Depot      Depot
	Output     Output
	Runtime    Runtime
}

type Targeting struct {
	// Datasets selects which registered datasets to archive (see --datasets).
	// Empty means all. Values may be repeated flags and/or comma-separated.
	Datasets []string

	// Years restricts discovery to the listed years (see --years).
	// Empty means every year the source publishes.
	Years []int

	// DryRun resolves sources and prints the plan without downloading.
	DryRun bool
}

type Validation struct {
	// FailOn* mark the corresponding check fatal: a failure blocks
	// publication instead of only being reported.
	FailOnMissingFiles      bool
	FailOnInvalidFiles      bool
	FailOnFileSizeChange    bool
	FailOnDatasetSizeChange bool
	FailOnDataContinuity    bool

	// MaxFileRelDiff is the allowed per-file size drift (fraction of the
	// baseline size; see --max-file-drift).
	MaxFileRelDiff float64

	// MaxDatasetRelDiff is the allowed aggregate size drift (see
	// --max-dataset-drift).
	MaxDatasetRelDiff float64
}

// Options converts the configuration into validator options.
func (v Validation) Options() validate.Options {
	return validate.Options{
		FailOnMissingFiles:      v.FailOnMissingFiles,
		FailOnInvalidFiles:      v.FailOnInvalidFiles,
		FailOnFileSizeChange:    v.FailOnFileSizeChange,
		FailOnDatasetSizeChange: v.FailOnDatasetSizeChange,
		FailOnDataContinuity:    v.FailOnDataContinuity,
		MaxFileRelDiff:          v.MaxFileRelDiff,
		MaxDatasetRelDiff:       v.MaxDatasetRelDiff,
	}
}

type Depot struct {
	// Kind selects the archive store (see --depot). Allowed: local, s3.
	Kind string

	// Path is the root directory of a local depot.
	Path string

	// Bucket and Prefix locate an S3 depot.
	Bucket string
	Prefix string

	// Region overrides the AWS region for an S3 depot.
	Region string
}

type Output struct {
	// ConsoleFormat controls the human-facing console sink
	// (see --console-format). Allowed: text, json, ndjson.
	ConsoleFormat string

	// Out writes structured output to this path (see --out).
	Out string

	// OutFormat selects the format for --out (json or ndjson). Empty means
	// inferred from the file extension.
	OutFormat string

	// NoConsole suppresses the console sink (see --no-console).
	NoConsole bool
}

type Runtime struct {
	// Concurrency is the default download concurrency ceiling per dataset
	// (see --concurrency). 0 runs everything in one unbounded batch.
	Concurrency int

	// Timeout is the global run timeout (see --timeout).
	Timeout time.Duration

	// DownloadDir is the base directory for downloads. Empty means the
	// system temp directory.
	DownloadDir string

	// SkipPublish validates without publishing (see --skip-publish).
	SkipPublish bool

	// Verbose enables per-request HTTP diagnostics on stderr.
	Verbose bool
}

func New() *Config {
	return &Config{
		Validation: Validation{
			FailOnMissingFiles:      true,
			FailOnInvalidFiles:      true,
			FailOnFileSizeChange:    true,
			FailOnDatasetSizeChange: true,
			FailOnDataContinuity:    true,
			MaxFileRelDiff:          validate.DefaultMaxFileRelDiff,
			MaxDatasetRelDiff:       validate.DefaultMaxDatasetRelDiff,
		},
		Depot: Depot{
			Kind: "local",
			Path: "archives",
		},
		Output: Output{
			ConsoleFormat: "text",
		},
		Runtime: Runtime{
			Concurrency: 5,
			Timeout:     2 * time.Hour,
		},
	}
}

func (c *Config) Validate() error {
	c.Targeting.Datasets = splitCommaList(c.Targeting.Datasets)

	c.Depot.Kind = normalizeEnumValue(c.Depot.Kind)
	switch c.Depot.Kind {
	case "local":
		if c.Depot.Path == "" {
			return errors.New("--depot-path is required for the local depot")
		}
	case "s3":
		if c.Depot.Bucket == "" {
			return errors.New("--depot-bucket is required for the s3 depot")
		}
	default:
		return fmt.Errorf("unsupported --depot: %s (must be one of: local, s3)", c.Depot.Kind)
	}

	c.Output.ConsoleFormat = normalizeEnumValue(c.Output.ConsoleFormat)
	switch c.Output.ConsoleFormat {
	case "text", "json", "ndjson":
	default:
		return fmt.Errorf("unsupported --console-format: %s (must be one of: text, json, ndjson)", c.Output.ConsoleFormat)
	}

	if c.Output.OutFormat != "" {
		v := normalizeEnumValue(c.Output.OutFormat)
		if v != "json" && v != "ndjson" {
			return fmt.Errorf("unsupported --out-format: %s (must be one of: json, ndjson)", c.Output.OutFormat)
		}
		c.Output.OutFormat = v
	}

	if c.Runtime.Concurrency < 0 {
		return fmt.Errorf("--concurrency must be >= 0, got %d", c.Runtime.Concurrency)
	}
	if c.Runtime.Timeout <= 0 {
		return errors.New("--timeout must be > 0")
	}

	if c.Validation.MaxFileRelDiff < 0 {
		return errors.New("--max-file-drift must be >= 0")
	}
	if c.Validation.MaxDatasetRelDiff < 0 {
		return errors.New("--max-dataset-drift must be >= 0")
	}

	for _, year := range c.Targeting.Years {
		if year < 1800 || year > 2200 {
			return fmt.Errorf("implausible --years value: %d", year)
		}
	}

	return nil
}

// splitCommaList flattens repeated flags and comma-separated values into one
// trimmed list.
func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func normalizeEnumValue(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
