package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"statarchive/internal/config"
	"statarchive/internal/engine"
	"statarchive/internal/flags"
)

var cfg = config.New()

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Download, validate, and publish new archive versions",
	Long: `Download the resources of the selected datasets, build a candidate archive
version for each, validate it against the previously published baseline, and
publish it when every required check passes.

Datasets:
	Datasets are declared in a YAML file passed via --datasets-file. Use
	--datasets to archive a subset; the default is every declared dataset.

Validation:
	Every check runs on every dataset; no check short-circuits another. A
	dataset publishes only if no check marked required fails. Individual
	checks can be downgraded to advisory with the --advisory-* flags.

Exit codes:
	0 = every dataset validated (and published, unless --skip-publish)
	1 = validation failures blocked publication of at least one dataset
	2 = partial failure (some dataset aborted with an error)
	3 = fatal error (run did not start)

Examples:
  statarchive archive --datasets-file datasets.yaml
  statarchive archive --datasets-file datasets.yaml --datasets mecs --years 2018,2020
  statarchive archive --datasets-file datasets.yaml --depot s3 --depot-bucket my-archives
  statarchive archive --datasets-file datasets.yaml --no-console --out run.ndjson
`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}
		if err := loadDatasetsIfAny(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Runtime.Timeout)
		defer cancel()

		os.Exit(engine.New(cfg).Run(ctx))
	},
}

func init() {
	f := archiveCmd.Flags()

	// Targeting
	f.StringSliceVar(&cfg.Targeting.Datasets, flags.FlagDatasets, nil, "Datasets to archive (comma-separated or repeated; default: all declared)")
	f.IntSliceVar(&cfg.Targeting.Years, flags.FlagYears, nil, "Restrict discovery to these years (default: all)")
	f.BoolVar(&cfg.Targeting.DryRun, flags.FlagDryRun, false, "Resolve sources and print the plan without downloading")

	// Validation
	f.Float64Var(&cfg.Validation.MaxFileRelDiff, flags.FlagMaxFileDrift, cfg.Validation.MaxFileRelDiff, "Allowed per-file size drift as a fraction of the baseline size")
	f.Float64Var(&cfg.Validation.MaxDatasetRelDiff, flags.FlagMaxDatasetDrift, cfg.Validation.MaxDatasetRelDiff, "Allowed aggregate size drift as a fraction of the baseline total")
	registerAdvisoryFlag(archiveCmd, flags.FlagAdvisoryMissing, &cfg.Validation.FailOnMissingFiles, "missing-file check")
	registerAdvisoryFlag(archiveCmd, flags.FlagAdvisoryFiles, &cfg.Validation.FailOnInvalidFiles, "per-file validity checks")
	registerAdvisoryFlag(archiveCmd, flags.FlagAdvisoryFileSize, &cfg.Validation.FailOnFileSizeChange, "per-file size drift check")
	registerAdvisoryFlag(archiveCmd, flags.FlagAdvisoryDataset, &cfg.Validation.FailOnDatasetSizeChange, "aggregate size drift check")
	registerAdvisoryFlag(archiveCmd, flags.FlagAdvisoryRange, &cfg.Validation.FailOnDataContinuity, "data continuity check")

	// Depot
	f.StringVar(&cfg.Depot.Kind, flags.FlagDepot, cfg.Depot.Kind, "Archive store: local or s3")
	f.StringVar(&cfg.Depot.Path, flags.FlagDepotPath, cfg.Depot.Path, "Root directory of the local depot")
	f.StringVar(&cfg.Depot.Bucket, flags.FlagDepotBucket, "", "Bucket of the s3 depot")
	f.StringVar(&cfg.Depot.Prefix, flags.FlagDepotPrefix, "", "Key prefix of the s3 depot")
	f.StringVar(&cfg.Depot.Region, flags.FlagDepotRegion, "", "AWS region override for the s3 depot")

	// Output
	f.StringVar(&cfg.Output.ConsoleFormat, flags.FlagConsoleFormat, cfg.Output.ConsoleFormat, "Console format: text, json, or ndjson")
	f.StringVar(&cfg.Output.Out, flags.FlagOut, "", "Write structured output to this file")
	f.StringVar(&cfg.Output.OutFormat, flags.FlagOutFormat, "", "Format for --out: json or ndjson (default: inferred from extension)")
	f.BoolVar(&cfg.Output.NoConsole, flags.FlagNoConsole, false, "Suppress the console sink")

	// Runtime
	f.IntVar(&cfg.Runtime.Concurrency, flags.FlagConcurrency, cfg.Runtime.Concurrency, "Download concurrency ceiling per dataset (0 = unbounded)")
	f.DurationVar(&cfg.Runtime.Timeout, flags.FlagTimeout, cfg.Runtime.Timeout, "Global run timeout")
	f.StringVar(&cfg.Runtime.DownloadDir, flags.FlagDownloadDir, "", "Base directory for downloads (default: system temp)")
	f.BoolVar(&cfg.Runtime.SkipPublish, flags.FlagSkipPublish, false, "Validate without publishing")

	rootCmd.AddCommand(archiveCmd)
}

// registerAdvisoryFlag wires a --advisory-* bool flag that downgrades a fatal
// check to advisory. The config field holds the inverse (fail-on), so the
// flag flips it after parsing.
func registerAdvisoryFlag(cmd *cobra.Command, name string, failOn *bool, what string) {
	var advisory bool
	cmd.Flags().BoolVar(&advisory, name, false, fmt.Sprintf("Report failures of the %s without blocking publication", what))
	existing := cmd.PreRun
	cmd.PreRun = func(c *cobra.Command, args []string) {
		if existing != nil {
			existing(c, args)
		}
		if advisory {
			*failOn = false
		}
	}
}
