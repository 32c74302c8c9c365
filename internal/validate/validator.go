package validate

import "statarchive/internal/manifest"

// Options configures which checks can block publication and the drift
// thresholds the size checks use.
type Options struct {
	FailOnMissingFiles      bool
	FailOnInvalidFiles      bool
	FailOnFileSizeChange    bool
	FailOnDatasetSizeChange bool
	FailOnDataContinuity    bool

	// MaxFileRelDiff is the allowed per-file size drift as a fraction of the
	// baseline size.
	MaxFileRelDiff float64

	// MaxDatasetRelDiff is the allowed aggregate size drift as a fraction of
	// the baseline total.
	MaxDatasetRelDiff float64
}

// DefaultOptions marks every check fatal with the default drift thresholds.
func DefaultOptions() Options {
	return Options{
		FailOnMissingFiles:      true,
		FailOnInvalidFiles:      true,
		FailOnFileSizeChange:    true,
		FailOnDatasetSizeChange: true,
		FailOnDataContinuity:    true,
		MaxFileRelDiff:          DefaultMaxFileRelDiff,
		MaxDatasetRelDiff:       DefaultMaxDatasetRelDiff,
	}
}

// DatasetChecker supplies validation checks specific to one dataset. Sources
// that know extra invariants about their data implement this; everyone else
// gets NoDatasetChecks.
type DatasetChecker interface {
	DatasetChecks(baseline, next *manifest.DataPackage, records map[string]manifest.ResourceRecord) []Result
}

// NoDatasetChecks is the default DatasetChecker: no additional checks.
type NoDatasetChecks struct{}

func (NoDatasetChecks) DatasetChecks(_, _ *manifest.DataPackage, _ map[string]manifest.ResourceRecord) []Result {
	return nil
}

// Validator runs the full validation battery that gates publication of a
// candidate archive. The fetch driver appends per-file results to Log as
// downloads complete; Validate folds them into the final report.
type Validator struct {
	Opts    Options
	Log     *Log
	Dataset DatasetChecker
}

func NewValidator(opts Options) *Validator {
	return &Validator{
		Opts:    opts,
		Log:     NewLog(),
		Dataset: NoDatasetChecks{},
	}
}

// FileChecks runs the three per-file validations against a downloaded record
// and appends the results to the run log. The driver calls this synchronously
// after each task completes.
func (v *Validator) FileChecks(record manifest.ResourceRecord) []Result {
	results := []Result{
		CheckFileType(record.LocalPath, v.Opts.FailOnInvalidFiles),
		CheckFileNotEmpty(record.LocalPath, v.Opts.FailOnInvalidFiles),
		CheckZipLayout(record.LocalPath, record.Layout, v.Opts.FailOnInvalidFiles),
	}
	v.Log.Append(results...)
	return results
}

// Validate runs every check against a candidate archive and returns all
// results. It never short-circuits: advisory and fatal checks alike always
// run, and the caller decides accept/reject with RunSucceeded.
func (v *Validator) Validate(baseline, next *manifest.DataPackage, records map[string]manifest.ResourceRecord) []Result {
	results := []Result{
		CheckMissingFiles(baseline, next, v.Opts.FailOnMissingFiles),
		CheckFileSize(baseline, next, v.Opts.MaxFileRelDiff, v.Opts.FailOnFileSizeChange),
		CheckDatasetSize(baseline, next, v.Opts.MaxDatasetRelDiff, v.Opts.FailOnDatasetSizeChange),
		CheckDataContinuity(next, v.Opts.FailOnDataContinuity),
	}

	results = append(results, v.Log.Results()...)

	dataset := v.Dataset
	if dataset == nil {
		dataset = NoDatasetChecks{}
	}
	results = append(results, dataset.DatasetChecks(baseline, next, records)...)

	return results
}
