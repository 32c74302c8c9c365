package validate

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"statarchive/internal/manifest"
)

// Default drift thresholds, as a fraction of the baseline size.
const (
	DefaultMaxFileRelDiff    = 0.25
	DefaultMaxDatasetRelDiff = 0.15
)

// CheckMissingFiles fails when a resource present in the baseline archive is
// absent from the candidate: publishing it would silently delete data. A nil
// baseline (first run) passes trivially.
func CheckMissingFiles(baseline, next *manifest.DataPackage, fatal bool) Result {
	res := Result{
		Name:                  "Missing file test",
		Description:           "Check for files from the previous archive version that would be deleted by the new version.",
		Success:               true,
		RequiredForRunSuccess: fatal,
	}
	if baseline == nil {
		return res
	}

	newNames := next.ResourceNames()
	var missing []string
	for _, r := range baseline.Resources {
		if _, ok := newNames[r.Name]; !ok {
			missing = append(missing, r.Name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		res.Success = false
		res.Notes = []string{
			fmt.Sprintf("the following files would be deleted by the new archive version: %s", strings.Join(missing, ", ")),
		}
	}
	return res
}

// CheckFileSize fails when any resource present in both manifests has changed
// in size by more than maxRelDiff relative to its baseline size. Resources
// with a zero-size baseline have an undefined ratio and are skipped with a
// warning note. Resources present on only one side are ignored here; the
// missing-file check owns that asymmetry. A nil baseline passes trivially.
func CheckFileSize(baseline, next *manifest.DataPackage, maxRelDiff float64, fatal bool) Result {
	res := Result{
		Name:                  "Individual file size test",
		Description:           fmt.Sprintf("Check for files from the previous archive version that have changed in size by more than %.0f%%.", maxRelDiff*100),
		Success:               true,
		RequiredForRunSuccess: fatal,
	}
	if baseline == nil {
		return res
	}

	newSizes := next.ResourceSizes()
	var drifted []string
	for _, base := range baseline.Resources {
		newSize, ok := newSizes[base.Name]
		if !ok {
			continue
		}
		if base.Bytes == 0 {
			res.Notes = append(res.Notes, fmt.Sprintf("warning: baseline size of %s is zero; skipping its size check", base.Name))
			continue
		}
		change := math.Abs(float64(newSize-base.Bytes) / float64(base.Bytes))
		if change > maxRelDiff {
			drifted = append(drifted, fmt.Sprintf("%s (%.0f%%)", base.Name, change*100))
		}
	}
	if len(drifted) > 0 {
		sort.Strings(drifted)
		res.Success = false
		res.Notes = append(res.Notes,
			fmt.Sprintf("the following files changed in size by more than %.0f%%: %s", maxRelDiff*100, strings.Join(drifted, ", ")))
	}
	return res
}

// CheckDatasetSize fails when the archive's total size has drifted from the
// baseline total by more than maxRelDiff. A nil baseline passes trivially.
// A baseline that exists but sums to zero bytes makes the ratio undefined;
// that degenerate case passes with a warning note rather than blocking every
// successor of the degenerate archive.
func CheckDatasetSize(baseline, next *manifest.DataPackage, maxRelDiff float64, fatal bool) Result {
	res := Result{
		Name:                  "Dataset file size test",
		Description:           fmt.Sprintf("Check if the overall archive size has changed by more than %.0f%% from the last archive.", maxRelDiff*100),
		Success:               true,
		RequiredForRunSuccess: fatal,
	}
	if baseline == nil {
		return res
	}

	baseTotal := baseline.TotalBytes()
	newTotal := next.TotalBytes()
	if baseTotal == 0 {
		res.Notes = []string{"warning: baseline archive has zero total size; dataset size check skipped"}
		return res
	}

	change := math.Abs(float64(newTotal-baseTotal) / float64(baseTotal))
	if change > maxRelDiff {
		res.Success = false
		res.Notes = []string{
			fmt.Sprintf("the new archive is %.0f%% different in size from the last archive, which exceeds the threshold of %.0f%%", change*100, maxRelDiff*100),
		}
	}
	return res
}
