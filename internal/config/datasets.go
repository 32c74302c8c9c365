package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/goccy/go-yaml"

	"statarchive/internal/validate"
)

// Dataset declares one archivable dataset in the datasets file. Two kinds of
// sources can be declared without writing code: html-index (scrape download
// links off an agency index page) and github-releases (archive the assets of
// a repository's releases).
type Dataset struct {
	Name        string `yaml:"name"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Kind        string `yaml:"kind"`

	// html-index fields.
	URL         string `yaml:"url"`
	LinkPattern string `yaml:"link_pattern"`

	// YearPattern extracts the resource's year partition from the link (or
	// release tag); its first capture group must be the four-digit year.
	YearPattern string `yaml:"year_pattern"`

	// github-releases fields.
	Owner        string `yaml:"owner"`
	Repo         string `yaml:"repo"`
	AssetPattern string `yaml:"asset_pattern"`

	// Bundle groups the matched files of one year into a single zip instead
	// of archiving each file individually (html-index only).
	Bundle bool `yaml:"bundle"`

	// Per-dataset runtime overrides.
	Concurrency   int  `yaml:"concurrency"`
	RotateWorkdir bool `yaml:"rotate_workdir"`

	// Validation overrides the run-level validation settings for this
	// dataset.
	Validation *DatasetValidation `yaml:"validation"`
}

// DatasetValidation is the per-dataset validation override block. Threshold
// fields are pointers so an absent key keeps the run-level value.
type DatasetValidation struct {
	MaxFileDrift    *float64 `yaml:"max_file_drift"`
	MaxDatasetDrift *float64 `yaml:"max_dataset_drift"`

	AdvisoryMissingFiles bool `yaml:"advisory_missing_files"`
	AdvisoryInvalidFiles bool `yaml:"advisory_invalid_files"`
	AdvisoryFileSize     bool `yaml:"advisory_file_size"`
	AdvisoryDatasetSize  bool `yaml:"advisory_dataset_size"`
	AdvisoryContinuity   bool `yaml:"advisory_continuity"`
}

// Apply merges the overrides onto the run-level options. A nil receiver
// returns base unchanged.
func (v *DatasetValidation) Apply(base validate.Options) validate.Options {
	if v == nil {
		return base
	}
	if v.MaxFileDrift != nil {
		base.MaxFileRelDiff = *v.MaxFileDrift
	}
	if v.MaxDatasetDrift != nil {
		base.MaxDatasetRelDiff = *v.MaxDatasetDrift
	}
	if v.AdvisoryMissingFiles {
		base.FailOnMissingFiles = false
	}
	if v.AdvisoryInvalidFiles {
		base.FailOnInvalidFiles = false
	}
	if v.AdvisoryFileSize {
		base.FailOnFileSizeChange = false
	}
	if v.AdvisoryDatasetSize {
		base.FailOnDatasetSizeChange = false
	}
	if v.AdvisoryContinuity {
		base.FailOnDataContinuity = false
	}
	return base
}

type datasetsFile struct {
	Datasets []Dataset `yaml:"datasets"`
}

// LoadDatasets reads and validates the YAML datasets file.
func LoadDatasets(path string) ([]Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read datasets file %s: %w", path, err)
	}

	var file datasetsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse datasets file %s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(file.Datasets))
	for i := range file.Datasets {
		d := &file.Datasets[i]
		if err := d.validate(); err != nil {
			return nil, fmt.Errorf("datasets file %s: %w", path, err)
		}
		if _, dup := seen[d.Name]; dup {
			return nil, fmt.Errorf("datasets file %s: duplicate dataset %q", path, d.Name)
		}
		seen[d.Name] = struct{}{}
	}
	return file.Datasets, nil
}

func (d *Dataset) validate() error {
	if d.Name == "" {
		return fmt.Errorf("dataset with empty name")
	}
	switch d.Kind {
	case "html-index":
		if d.URL == "" {
			return fmt.Errorf("dataset %s: url is required for html-index", d.Name)
		}
		if d.LinkPattern == "" {
			return fmt.Errorf("dataset %s: link_pattern is required for html-index", d.Name)
		}
		if _, err := regexp.Compile(d.LinkPattern); err != nil {
			return fmt.Errorf("dataset %s: invalid link_pattern: %w", d.Name, err)
		}
	case "github-releases":
		if d.Owner == "" || d.Repo == "" {
			return fmt.Errorf("dataset %s: owner and repo are required for github-releases", d.Name)
		}
		if d.AssetPattern != "" {
			if _, err := regexp.Compile(d.AssetPattern); err != nil {
				return fmt.Errorf("dataset %s: invalid asset_pattern: %w", d.Name, err)
			}
		}
	default:
		return fmt.Errorf("dataset %s: unsupported kind %q (must be one of: html-index, github-releases)", d.Name, d.Kind)
	}
	if d.YearPattern != "" {
		re, err := regexp.Compile(d.YearPattern)
		if err != nil {
			return fmt.Errorf("dataset %s: invalid year_pattern: %w", d.Name, err)
		}
		if re.NumSubexp() < 1 {
			return fmt.Errorf("dataset %s: year_pattern needs a capture group for the year", d.Name)
		}
	}
	if d.Bundle && d.Kind != "html-index" {
		return fmt.Errorf("dataset %s: bundle is only supported for html-index", d.Name)
	}
	if d.Concurrency < 0 {
		return fmt.Errorf("dataset %s: concurrency must be >= 0", d.Name)
	}
	if d.Validation != nil {
		if d.Validation.MaxFileDrift != nil && *d.Validation.MaxFileDrift < 0 {
			return fmt.Errorf("dataset %s: validation.max_file_drift must be >= 0", d.Name)
		}
		if d.Validation.MaxDatasetDrift != nil && *d.Validation.MaxDatasetDrift < 0 {
			return fmt.Errorf("dataset %s: validation.max_dataset_drift must be >= 0", d.Name)
		}
	}
	return nil
}
