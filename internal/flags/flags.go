package flags

// Package flags defines canonical CLI flag names shared across the CLI and
// engine. Keeping these as constants helps avoid drift between Cobra flag
// wiring and other code paths that reference flags.
// IMPORTANT: These are flag *names* without leading dashes.
const (
	// Targeting
	FlagDatasets     = "datasets"
	FlagDatasetsFile = "datasets-file"
	FlagYears        = "years"
	FlagDryRun       = "dry-run"

	// Validation
	FlagMaxFileDrift     = "max-file-drift"
	FlagMaxDatasetDrift  = "max-dataset-drift"
	FlagAdvisoryMissing  = "advisory-missing-files"
	FlagAdvisoryFiles    = "advisory-invalid-files"
	FlagAdvisoryFileSize = "advisory-file-size"
	FlagAdvisoryDataset  = "advisory-dataset-size"
	FlagAdvisoryRange    = "advisory-continuity"

	// Depot
	FlagDepot       = "depot"
	FlagDepotPath   = "depot-path"
	FlagDepotBucket = "depot-bucket"
	FlagDepotPrefix = "depot-prefix"
	FlagDepotRegion = "depot-region"

	// Output
	FlagConsoleFormat = "console-format"
	FlagOut           = "out"
	FlagOutFormat     = "out-format"
	FlagNoConsole     = "no-console"

	// Runtime
	FlagConcurrency = "concurrency"
	FlagTimeout     = "timeout"
	FlagDownloadDir = "download-dir"
	FlagSkipPublish = "skip-publish"
)
