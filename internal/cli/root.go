package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"statarchive/internal/source"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var datasetsFile string

var rootCmd = &cobra.Command{
	Use:   "statarchive",
	Short: "Archive government statistical datasets and validate new versions before publication",
	Long: `Statarchive downloads the files of government statistical datasets, packages
them into versioned archives, and validates that each new archive is a
plausible successor to the previously published one: no silently deleted
files, no wild size swings, no gaps in time-series coverage.

Examples:
	# Show available commands and global flags
	statarchive --help

	# Archive two datasets declared in a datasets file
	statarchive archive --datasets-file datasets.yaml --datasets mecs,recs

	# Validate a candidate descriptor against a baseline without downloading
	statarchive validate --baseline old/datapackage.json --new new/datapackage.json

	# List declared datasets
	statarchive sources list --datasets-file datasets.yaml

Output:
	By default, commands write human-readable output to stdout. Structured
	output is available via --console-format and --out (see each command's
	--help).`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&datasetsFile, "datasets-file", "", "YAML file declaring archivable datasets")
	rootCmd.PersistentFlags().BoolVar(&cfg.Runtime.Verbose, "verbose", false, "Enable verbose logging (prints every HTTP request and full error details)")
}

// loadDatasetsIfAny registers sources from --datasets-file. Commands that
// need sources call this before resolving them.
func loadDatasetsIfAny() error {
	if datasetsFile == "" {
		return nil
	}
	return source.RegisterFromFile(datasetsFile)
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
