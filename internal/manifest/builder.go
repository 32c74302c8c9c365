package manifest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeebo/blake3"
)

// mediaTypes maps file extensions (without the dot) to the media type recorded
// on the resource descriptor.
var mediaTypes = map[string]string{
	"zip":  "application/zip",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"csv":  "text/csv",
	"pdf":  "application/pdf",
	"json": "application/json",
	"xml":  "application/xml",
}

// MediaType returns the media type for a file name, or empty when unknown.
func MediaType(name string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	return mediaTypes[ext]
}

// NewResource builds a manifest entry for a downloaded file: size from the
// filesystem, a blake3 content hash, and a media type inferred from the
// file extension.
func NewResource(name string, record ResourceRecord) (Resource, error) {
	info, err := os.Stat(record.LocalPath)
	if err != nil {
		return Resource{}, fmt.Errorf("stat resource %s: %w", name, err)
	}

	hash, err := hashFile(record.LocalPath)
	if err != nil {
		return Resource{}, fmt.Errorf("hash resource %s: %w", name, err)
	}

	return Resource{
		Name:      name,
		Path:      filepath.Base(record.LocalPath),
		Bytes:     info.Size(),
		Hash:      hash,
		MediaType: MediaType(record.LocalPath),
		Parts:     record.Partitions,
	}, nil
}

// Build assembles a candidate DataPackage from the records produced by a
// completed download run. Resources are ordered by name for determinism.
func Build(name, title, version string, records map[string]ResourceRecord) (*DataPackage, error) {
	dp := &DataPackage{
		Name:    name,
		Title:   title,
		Version: version,
		Created: time.Now().UTC(),
	}
	for resName, record := range records {
		res, err := NewResource(resName, record)
		if err != nil {
			return nil, err
		}
		dp.Resources = append(dp.Resources, res)
	}
	dp.SortResources()
	if err := dp.Validate(); err != nil {
		return nil, err
	}
	return dp, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("blake3:%x", h.Sum(nil)), nil
}
