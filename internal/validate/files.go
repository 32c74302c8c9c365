package validate

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"

	"statarchive/internal/manifest"
)

// CheckFileNotEmpty verifies that a downloaded artifact has a non-zero size.
func CheckFileNotEmpty(path string, fatal bool) Result {
	res := Result{
		Name:                  fmt.Sprintf("Non-empty file test (%s)", filepath.Base(path)),
		Description:           "Check that the downloaded file is not empty.",
		Success:               true,
		RequiredForRunSuccess: fatal,
	}

	info, err := os.Stat(path)
	if err != nil {
		res.Success = false
		res.Notes = []string{fmt.Sprintf("could not stat file: %v", err)}
		return res
	}
	if info.Size() == 0 {
		res.Success = false
		res.Notes = []string{"file is empty"}
	}
	return res
}

// CheckFileType verifies that an artifact is well-formed for its declared
// format. Zip-based containers (.zip, .xlsx) are opened and must parse;
// other extensions have no structural check and pass.
func CheckFileType(path string, fatal bool) Result {
	res := Result{
		Name:                  fmt.Sprintf("File format test (%s)", filepath.Base(path)),
		Description:           "Check that the downloaded file is well-formed for its declared format.",
		Success:               true,
		RequiredForRunSuccess: fatal,
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip", ".xlsx":
		r, err := zip.OpenReader(path)
		if err != nil {
			res.Success = false
			res.Notes = []string{fmt.Sprintf("not a valid zip container: %v", err)}
			return res
		}
		r.Close()
	}
	return res
}

// CheckZipLayout verifies that a zip artifact holds the inner file names its
// layout declares. A nil layout means no expectation and passes trivially.
func CheckZipLayout(path string, layout *manifest.ZipLayout, fatal bool) Result {
	res := Result{
		Name:                  fmt.Sprintf("Zip layout test (%s)", filepath.Base(path)),
		Description:           "Check that the zip container holds the expected inner files.",
		Success:               true,
		RequiredForRunSuccess: fatal,
	}
	if layout == nil {
		res.Notes = []string{"no layout declared for this resource; check skipped"}
		return res
	}

	r, err := zip.OpenReader(path)
	if err != nil {
		res.Success = false
		res.Notes = []string{fmt.Sprintf("could not open zip container: %v", err)}
		return res
	}
	defer r.Close()

	actual := make(map[string]struct{}, len(r.File))
	for _, f := range r.File {
		actual[f.Name] = struct{}{}
	}

	var missing []string
	for _, name := range layout.FileNames {
		if _, ok := actual[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		res.Success = false
		res.Notes = append(res.Notes, fmt.Sprintf("missing expected files: %s", strings.Join(missing, ", ")))
	}

	if layout.Exact {
		expected := make(map[string]struct{}, len(layout.FileNames))
		for _, name := range layout.FileNames {
			expected[name] = struct{}{}
		}
		var extra []string
		for name := range actual {
			if _, ok := expected[name]; !ok {
				extra = append(extra, name)
			}
		}
		if len(extra) > 0 {
			sort.Strings(extra)
			res.Success = false
			res.Notes = append(res.Notes, fmt.Sprintf("unexpected files present: %s", strings.Join(extra, ", ")))
		}
	}
	return res
}
