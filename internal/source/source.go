package source

import (
	"context"

	gogithub "github.com/google/go-github/v81/github"

	"statarchive/internal/driver"
	"statarchive/internal/httpx"
	"statarchive/internal/validate"
)

// Source discovers the downloadable resources of one dataset. It produces
// deferred download tasks without starting them; the fetch driver owns
// scheduling. Each pending resource must resolve to exactly one record or
// fail.
type Source interface {
	Name() string
	Description() string
	Resources(ctx context.Context, env *Environment) ([]driver.PendingResource, error)
}

// Limiter lets a source override the run's default concurrency ceiling, for
// agencies that throttle aggressively.
type Limiter interface {
	ConcurrencyLimit() int
}

// Rotator lets a source request a fresh download directory per batch, for
// datasets with thousands of files.
type Rotator interface {
	RotatePerBatch() bool
}

// Tuner lets a source adjust the run's validation options for its dataset,
// e.g. a datasets-file override of the drift thresholds.
type Tuner interface {
	ValidationOptions(base validate.Options) validate.Options
}

// CheckProvider lets a source contribute dataset-specific validation checks
// beyond the standard battery.
type CheckProvider interface {
	DatasetChecks() validate.DatasetChecker
}

// Environment is everything a source may use while discovering resources:
// the shared HTTP client, the per-run page cache, an optional GitHub client
// for release-hosted datasets, the download directory, and the year filter.
type Environment struct {
	Client  *httpx.Client
	Pages   *httpx.PageCache
	GitHub  *gogithub.Client
	Workdir *driver.Workdir

	// OnlyYears restricts discovery to the listed years. Empty means all.
	OnlyYears []int
}

// ValidYear reports whether year is in scope for this run.
func (e *Environment) ValidYear(year int) bool {
	if len(e.OnlyYears) == 0 {
		return true
	}
	for _, y := range e.OnlyYears {
		if y == year {
			return true
		}
	}
	return false
}
