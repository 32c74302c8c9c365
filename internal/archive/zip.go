// Package archive wraps zip container packaging for downloaded resources.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/klauspost/compress/zip"

	"statarchive/internal/httpx"
)

// Create writes the named blobs into a fresh zip container at path,
// replacing any existing file. Entries are written in name order so archives
// are byte-stable for identical inputs.
func Create(path string, files map[string][]byte) error {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create archive %s: %w", path, err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for _, name := range names {
		entry, err := w.Create(name)
		if err != nil {
			return fmt.Errorf("create archive entry %s: %w", name, err)
		}
		if _, err := entry.Write(files[name]); err != nil {
			return fmt.Errorf("write archive entry %s: %w", name, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize archive %s: %w", path, err)
	}
	return nil
}

// Append adds one named blob to the container at path, creating the
// container when it does not exist yet. Existing entries are preserved;
// zip has no in-place append so the container is rewritten.
func Append(path, name string, blob io.Reader) error {
	data, err := io.ReadAll(blob)
	if err != nil {
		return fmt.Errorf("read blob for %s: %w", name, err)
	}

	files := map[string][]byte{name: data}
	if _, statErr := os.Stat(path); statErr == nil {
		r, err := zip.OpenReader(path)
		if err != nil {
			return fmt.Errorf("open archive %s: %w", path, err)
		}
		for _, f := range r.File {
			if f.Name == name {
				continue
			}
			rc, err := f.Open()
			if err != nil {
				r.Close()
				return fmt.Errorf("read archive entry %s: %w", f.Name, err)
			}
			existing, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				r.Close()
				return fmt.Errorf("read archive entry %s: %w", f.Name, err)
			}
			files[f.Name] = existing
		}
		r.Close()
	}

	return Create(path, files)
}

// List returns the inner file names of the container at path.
func List(path string) ([]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	defer r.Close()

	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names, nil
}

// DownloadAndZip fetches url and stores the body as a single named entry in
// a zip container at path. Used for sources that publish bare files which we
// archive as compressed containers.
func DownloadAndZip(ctx context.Context, client *httpx.Client, url, name, path string) error {
	body, err := client.Fetch(ctx, url)
	if err != nil {
		return err
	}
	return Create(path, map[string][]byte{name: body})
}

// IsZip reports whether the file at path parses as a zip container.
func IsZip(path string) bool {
	r, err := zip.OpenReader(path)
	if err != nil {
		return false
	}
	r.Close()
	return true
}

// ReadEntry returns the contents of one named entry.
func ReadEntry(path, name string) ([]byte, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("read archive entry %s: %w", name, err)
		}
		defer rc.Close()
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, rc); err != nil {
			return nil, fmt.Errorf("read archive entry %s: %w", name, err)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("archive %s has no entry %s", path, name)
}
