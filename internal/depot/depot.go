// Package depot stores published archive versions and serves the baseline
// descriptors new candidate archives are validated against.
package depot

import (
	"context"

	"statarchive/internal/manifest"
)

// Depot is the archive store. Baseline returns the most recently published
// descriptor for a dataset, or (nil, nil) when the dataset has never been
// published (first run). Publish uploads a validated run's files and
// descriptor as a new version and promotes the descriptor to baseline.
type Depot interface {
	Baseline(ctx context.Context, dataset string) (*manifest.DataPackage, error)
	Publish(ctx context.Context, dataset, version string, files []string, dp *manifest.DataPackage) error
}
