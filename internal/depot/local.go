package depot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"statarchive/internal/manifest"
)

// Local stores archives in a directory tree:
//
//	<root>/<dataset>/datapackage.json          baseline (latest published)
//	<root>/<dataset>/<version>/...             one published version
type Local struct {
	root string
}

func NewLocal(root string) (*Local, error) {
	if root == "" {
		return nil, fmt.Errorf("local depot: root directory required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("local depot: create root %s: %w", root, err)
	}
	return &Local{root: root}, nil
}

func (d *Local) Baseline(_ context.Context, dataset string) (*manifest.DataPackage, error) {
	path := filepath.Join(d.root, dataset, "datapackage.json")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	return manifest.Load(path)
}

func (d *Local) Publish(_ context.Context, dataset, version string, files []string, dp *manifest.DataPackage) error {
	versionDir := filepath.Join(d.root, dataset, version)
	if err := os.MkdirAll(versionDir, 0o755); err != nil {
		return fmt.Errorf("local depot: create version dir: %w", err)
	}

	for _, src := range files {
		if err := copyFile(src, filepath.Join(versionDir, filepath.Base(src))); err != nil {
			return fmt.Errorf("local depot: %w", err)
		}
	}

	raw, err := json.MarshalIndent(dp, "", "  ")
	if err != nil {
		return fmt.Errorf("local depot: encode datapackage: %w", err)
	}
	raw = append(raw, '\n')
	if err := os.WriteFile(filepath.Join(versionDir, "datapackage.json"), raw, 0o644); err != nil {
		return fmt.Errorf("local depot: write version datapackage: %w", err)
	}

	// Promote to baseline last, so a failed publish never leaves a baseline
	// pointing at missing files.
	if err := os.WriteFile(filepath.Join(d.root, dataset, "datapackage.json"), raw, 0o644); err != nil {
		return fmt.Errorf("local depot: promote baseline: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %s: %w", dst, err)
	}
	return out.Sync()
}
