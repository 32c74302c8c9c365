package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"statarchive/internal/config"
	"statarchive/internal/depot"
	"statarchive/internal/driver"
	gh "statarchive/internal/github"
	"statarchive/internal/httpx"
	"statarchive/internal/manifest"
	"statarchive/internal/output"
	"statarchive/internal/source"
	"statarchive/internal/validate"
)

func exitCodeForRun(fatal, errored, blocked bool) int {
	// Exit code contract:
	// 0 = every dataset validated (and published, unless --skip-publish)
	// 1 = validation failures blocked publication of at least one dataset
	// 2 = partial failure (some dataset aborted with an error)
	// 3 = fatal error (run did not start)
	if fatal {
		return 3
	}
	if errored {
		return 2
	}
	if blocked {
		return 1
	}
	return 0
}

// Engine coordinates one archive run across the selected datasets.
type Engine struct {
	cfg *config.Config

	// now is a test seam for version stamps.
	now func() time.Time
}

func New(cfg *config.Config) *Engine {
	return &Engine{cfg: cfg, now: time.Now}
}

func setupOutputManager(cfg *config.Config) (*output.Manager, error) {
	outMgr := output.NewManager()

	if !cfg.Output.NoConsole {
		if err := outMgr.AddSink(output.NewConsoleSink(nil, cfg.Output.ConsoleFormat)); err != nil {
			outMgr.Close()
			return nil, err
		}
	}
	if cfg.Output.Out != "" {
		fs, err := output.NewFileSink(cfg.Output.Out, cfg.Output.OutFormat)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(fs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}
	return outMgr, nil
}

func buildDepot(ctx context.Context, cfg *config.Config) (depot.Depot, error) {
	switch cfg.Depot.Kind {
	case "s3":
		return depot.NewS3(ctx, cfg.Depot.Bucket, cfg.Depot.Prefix, cfg.Depot.Region)
	default:
		return depot.NewLocal(cfg.Depot.Path)
	}
}

// Run executes the archive run and returns the process exit code.
func (e *Engine) Run(ctx context.Context) int {
	cfg := e.cfg

	sources, err := source.Resolve(strings.Join(cfg.Targeting.Datasets, ","))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving datasets: %v\n", err)
		return exitCodeForRun(true, false, false)
	}
	if len(sources) == 0 {
		fmt.Fprintln(os.Stderr, "No datasets selected. Declare sources with --datasets-file.")
		return exitCodeForRun(true, false, false)
	}

	outMgr, err := setupOutputManager(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output sinks: %v\n", err)
		return exitCodeForRun(true, false, false)
	}
	defer outMgr.Close()

	store, err := buildDepot(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening depot: %v\n", err)
		return exitCodeForRun(true, false, false)
	}

	runID := uuid.NewString()
	client := httpx.NewClient(httpx.WithVerbose(cfg.Runtime.Verbose, os.Stderr))
	token, _ := gh.ResolveAuthToken("")
	env := &source.Environment{
		Client:    client,
		Pages:     httpx.NewPageCache(client),
		GitHub:    gh.NewClient(ctx, token),
		OnlyYears: cfg.Targeting.Years,
	}

	_ = outMgr.Write(output.Event{Type: "run.started", Datasets: len(sources), RunID: runID})

	var errored, blocked bool
	for _, src := range sources {
		ok, err := e.archiveDataset(ctx, src, env, store, outMgr, runID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error archiving %s: %v\n", src.Name(), err)
			errored = true
			continue
		}
		if !ok {
			blocked = true
		}
	}

	code := exitCodeForRun(false, errored, blocked)
	_ = outMgr.Write(output.Event{Type: "run.finished", RunID: runID, ExitCode: code})
	return code
}

// archiveDataset runs one dataset end to end: discovery, bounded-concurrency
// download with per-file validation, manifest construction, cross-version
// validation against the depot baseline, and (when every required check
// passes) publication. The returned bool reports whether validation allowed
// publication.
func (e *Engine) archiveDataset(ctx context.Context, src source.Source, env *source.Environment, store depot.Depot, outMgr *output.Manager, runID string) (bool, error) {
	cfg := e.cfg
	_ = outMgr.Write(output.Event{Type: "dataset.started", Dataset: src.Name()})

	base := cfg.Runtime.DownloadDir
	if base == "" {
		base = os.TempDir()
	}
	workdir, err := driver.NewWorkdir(filepath.Join(base, "statarchive", runID, src.Name()))
	if err != nil {
		return false, err
	}

	validator := validate.NewValidator(e.validationOptions(src))
	if provider, ok := src.(source.CheckProvider); ok {
		validator.Dataset = provider.DatasetChecks()
	}

	datasetEnv := *env
	datasetEnv.Workdir = workdir

	pending, err := src.Resources(ctx, &datasetEnv)
	if err != nil {
		return false, fmt.Errorf("discover resources: %w", err)
	}
	if cfg.Targeting.DryRun {
		fmt.Fprintf(os.Stderr, "%s: would download %d resources\n", src.Name(), len(pending))
		return true, nil
	}

	limit := cfg.Runtime.Concurrency
	if limiter, ok := src.(source.Limiter); ok && limiter.ConcurrencyLimit() > 0 {
		limit = limiter.ConcurrencyLimit()
	}
	var opts []driver.Option
	if rotator, ok := src.(source.Rotator); ok && rotator.RotatePerBatch() {
		opts = append(opts, driver.WithRotatingWorkdir(workdir))
	}
	d, err := driver.New(validator, limit, opts...)
	if err != nil {
		return false, err
	}

	records := make(map[string]manifest.ResourceRecord, len(pending))
	resCh, errCh := d.DownloadAll(ctx, slices.Values(pending))
	for res := range resCh {
		records[res.Name] = res.Record
		_ = outMgr.Write(output.Event{Type: "resource.downloaded", Dataset: src.Name(), Resource: res.Name})
	}
	for err := range errCh {
		if err != nil {
			return false, err
		}
	}

	version := e.now().UTC().Format("2006.01.02")
	next, err := manifest.Build(src.Name(), src.Description(), version, records)
	if err != nil {
		return false, fmt.Errorf("build datapackage: %w", err)
	}

	baseline, err := store.Baseline(ctx, src.Name())
	if err != nil {
		return false, fmt.Errorf("load baseline: %w", err)
	}

	results := validator.Validate(baseline, next, records)
	for _, r := range results {
		_ = outMgr.Write(output.CheckResult{Dataset: src.Name(), Result: r})
	}
	_ = outMgr.Write(output.Event{Type: "dataset.finished", Dataset: src.Name()})

	if !validate.RunSucceeded(results) {
		return false, nil
	}

	if !cfg.Runtime.SkipPublish {
		files := make([]string, 0, len(records))
		for _, record := range records {
			files = append(files, record.LocalPath)
		}
		if err := store.Publish(ctx, src.Name(), version, files, next); err != nil {
			return false, fmt.Errorf("publish: %w", err)
		}
	}
	return true, nil
}

func (e *Engine) validationOptions(src source.Source) validate.Options {
	opts := e.cfg.Validation.Options()
	if tuner, ok := src.(source.Tuner); ok {
		opts = tuner.ValidationOptions(opts)
	}
	return opts
}
