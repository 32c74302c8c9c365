package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"statarchive/internal/validate"
)

func writeDatasetsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "datasets.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDatasets(t *testing.T) {
	path := writeDatasetsFile(t, `
datasets:
  - name: mecs
    title: Manufacturing Energy Consumption Survey
    kind: html-index
    url: https://www.eia.gov/consumption/manufacturing/data/2018/
    link_pattern: 'Table\d+_\d+\.xlsx'
    year_pattern: '(\d{4})'
    concurrency: 2
  - name: pudl
    kind: github-releases
    owner: catalyst-cooperative
    repo: pudl
    asset_pattern: '\.zip$'
    rotate_workdir: true
`)

	datasets, err := LoadDatasets(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(datasets) != 2 {
		t.Fatalf("loaded %d datasets, want 2", len(datasets))
	}

	mecs := datasets[0]
	if mecs.Name != "mecs" || mecs.Kind != "html-index" {
		t.Errorf("first dataset = %+v", mecs)
	}
	if mecs.Concurrency != 2 {
		t.Errorf("mecs concurrency = %d, want 2", mecs.Concurrency)
	}

	pudl := datasets[1]
	if pudl.Kind != "github-releases" || pudl.Owner != "catalyst-cooperative" {
		t.Errorf("second dataset = %+v", pudl)
	}
	if !pudl.RotateWorkdir {
		t.Error("rotate_workdir not parsed")
	}
}

func TestLoadDatasetsValidationOverrides(t *testing.T) {
	path := writeDatasetsFile(t, `
datasets:
  - name: mecs
    kind: html-index
    url: https://www.eia.gov/consumption/manufacturing/data/2018/
    link_pattern: '\.xlsx$'
    bundle: true
    validation:
      max_file_drift: 0.5
      advisory_continuity: true
`)

	datasets, err := LoadDatasets(path)
	if err != nil {
		t.Fatal(err)
	}
	d := datasets[0]
	if !d.Bundle {
		t.Error("bundle not parsed")
	}
	if d.Validation == nil {
		t.Fatal("validation block not parsed")
	}
	if d.Validation.MaxFileDrift == nil || *d.Validation.MaxFileDrift != 0.5 {
		t.Errorf("max_file_drift = %v", d.Validation.MaxFileDrift)
	}
	if d.Validation.MaxDatasetDrift != nil {
		t.Errorf("max_dataset_drift = %v, want unset", d.Validation.MaxDatasetDrift)
	}
	if !d.Validation.AdvisoryContinuity {
		t.Error("advisory_continuity not parsed")
	}
}

func TestDatasetValidationApply(t *testing.T) {
	base := validate.DefaultOptions()

	t.Run("nil override keeps base", func(t *testing.T) {
		var v *DatasetValidation
		if got := v.Apply(base); got != base {
			t.Errorf("options changed: %+v", got)
		}
	})

	t.Run("thresholds and severities merge", func(t *testing.T) {
		fileDrift := 0.9
		v := &DatasetValidation{
			MaxFileDrift:         &fileDrift,
			AdvisoryMissingFiles: true,
			AdvisoryDatasetSize:  true,
		}
		got := v.Apply(base)
		if got.MaxFileRelDiff != 0.9 {
			t.Errorf("MaxFileRelDiff = %v", got.MaxFileRelDiff)
		}
		if got.MaxDatasetRelDiff != base.MaxDatasetRelDiff {
			t.Errorf("MaxDatasetRelDiff = %v, want the base value", got.MaxDatasetRelDiff)
		}
		if got.FailOnMissingFiles || got.FailOnDatasetSizeChange {
			t.Error("advisory overrides not applied")
		}
		if !got.FailOnInvalidFiles || !got.FailOnFileSizeChange || !got.FailOnDataContinuity {
			t.Error("untouched severities lost")
		}
	})
}

func TestLoadDatasetsErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantSub string
	}{
		{
			name:    "missing name",
			yaml:    "datasets:\n  - kind: html-index\n    url: https://example.gov\n    link_pattern: x\n",
			wantSub: "empty name",
		},
		{
			name:    "unknown kind",
			yaml:    "datasets:\n  - name: x\n    kind: rsync\n",
			wantSub: "unsupported kind",
		},
		{
			name:    "html-index without url",
			yaml:    "datasets:\n  - name: x\n    kind: html-index\n    link_pattern: y\n",
			wantSub: "url is required",
		},
		{
			name:    "html-index without link pattern",
			yaml:    "datasets:\n  - name: x\n    kind: html-index\n    url: https://example.gov\n",
			wantSub: "link_pattern is required",
		},
		{
			name:    "invalid link pattern",
			yaml:    "datasets:\n  - name: x\n    kind: html-index\n    url: https://example.gov\n    link_pattern: '['\n",
			wantSub: "invalid link_pattern",
		},
		{
			name:    "github-releases without repo",
			yaml:    "datasets:\n  - name: x\n    kind: github-releases\n    owner: o\n",
			wantSub: "owner and repo are required",
		},
		{
			name:    "year pattern without capture group",
			yaml:    "datasets:\n  - name: x\n    kind: html-index\n    url: https://example.gov\n    link_pattern: y\n    year_pattern: '\\d{4}'\n",
			wantSub: "capture group",
		},
		{
			name:    "bundle on github-releases",
			yaml:    "datasets:\n  - name: x\n    kind: github-releases\n    owner: o\n    repo: r\n    bundle: true\n",
			wantSub: "bundle is only supported",
		},
		{
			name:    "negative override drift",
			yaml:    "datasets:\n  - name: x\n    kind: github-releases\n    owner: o\n    repo: r\n    validation:\n      max_file_drift: -0.1\n",
			wantSub: "validation.max_file_drift",
		},
		{
			name:    "duplicate names",
			yaml:    "datasets:\n  - name: x\n    kind: github-releases\n    owner: o\n    repo: r\n  - name: x\n    kind: github-releases\n    owner: o\n    repo: r\n",
			wantSub: "duplicate dataset",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadDatasets(writeDatasetsFile(t, tc.yaml))
			if err == nil {
				t.Fatal("LoadDatasets accepted an invalid file")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Errorf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestLoadDatasetsMissingFile(t *testing.T) {
	if _, err := LoadDatasets(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing file accepted")
	}
}
