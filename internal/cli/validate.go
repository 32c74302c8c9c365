package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"statarchive/internal/manifest"
	"statarchive/internal/output"
	"statarchive/internal/validate"
)

var validateFlags struct {
	baseline      string
	next          string
	maxFileDrift  float64
	maxTotalDrift float64
	format        string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a candidate datapackage against a baseline without downloading",
	Long: `Run the cross-version validation battery on two datapackage descriptors:
missing files, per-file size drift, aggregate size drift, and time-series
continuity. No files are downloaded and nothing is published; this is the
offline half of the archive pipeline, useful for inspecting an existing run.

Omit --baseline for a first-run validation (the cross-version checks pass
vacuously and only continuity is meaningful).

Exit codes:
	0 = all checks passed
	1 = at least one check failed
	3 = fatal error (descriptors unreadable)
`,
	Run: func(cmd *cobra.Command, args []string) {
		if validateFlags.next == "" {
			fmt.Fprintln(os.Stderr, "Error: --new is required")
			os.Exit(3)
		}

		var baseline *manifest.DataPackage
		if validateFlags.baseline != "" {
			var err error
			baseline, err = manifest.Load(validateFlags.baseline)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(3)
			}
		}
		next, err := manifest.Load(validateFlags.next)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}

		opts := validate.DefaultOptions()
		opts.MaxFileRelDiff = validateFlags.maxFileDrift
		opts.MaxDatasetRelDiff = validateFlags.maxTotalDrift
		validator := validate.NewValidator(opts)
		results := validator.Validate(baseline, next, nil)

		sink := output.NewConsoleSink(cmd.OutOrStdout(), validateFlags.format)
		for _, r := range results {
			_ = sink.Write(output.CheckResult{Dataset: next.Name, Result: r})
		}
		_ = sink.Close()

		if !validate.RunSucceeded(results) {
			os.Exit(1)
		}
	},
}

func init() {
	f := validateCmd.Flags()
	f.StringVar(&validateFlags.baseline, "baseline", "", "Path to the baseline datapackage.json (omit on first run)")
	f.StringVar(&validateFlags.next, "new", "", "Path to the candidate datapackage.json")
	f.Float64Var(&validateFlags.maxFileDrift, "max-file-drift", validate.DefaultMaxFileRelDiff, "Allowed per-file size drift as a fraction of the baseline size")
	f.Float64Var(&validateFlags.maxTotalDrift, "max-dataset-drift", validate.DefaultMaxDatasetRelDiff, "Allowed aggregate size drift as a fraction of the baseline total")
	f.StringVar(&validateFlags.format, "console-format", "text", "Output format: text, json, or ndjson")

	rootCmd.AddCommand(validateCmd)
}
