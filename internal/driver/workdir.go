package driver

import (
	"fmt"
	"os"
	"sync"
)

// Workdir is the download target directory for a run. Rotation swaps in a
// fresh empty directory between batches so very large datasets don't pile
// thousands of files into one directory. The swap is atomic with respect to
// Path(): a task sees either the old directory or the new one, never a
// partially-created path.
type Workdir struct {
	mu      sync.Mutex
	base    string
	current string
}

// NewWorkdir creates the first download directory under base. An empty base
// falls back to the system temp directory.
func NewWorkdir(base string) (*Workdir, error) {
	if base != "" {
		if err := os.MkdirAll(base, 0o755); err != nil {
			return nil, fmt.Errorf("create workdir base %s: %w", base, err)
		}
	}
	dir, err := os.MkdirTemp(base, "chunk-")
	if err != nil {
		return nil, fmt.Errorf("create workdir: %w", err)
	}
	return &Workdir{base: base, current: dir}, nil
}

// Path returns the current download directory.
func (w *Workdir) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Rotate allocates a fresh empty directory and makes it the download target
// for subsequent tasks. Files already written stay where they are.
func (w *Workdir) Rotate() (string, error) {
	dir, err := os.MkdirTemp(w.base, "chunk-")
	if err != nil {
		return "", fmt.Errorf("rotate workdir: %w", err)
	}
	w.mu.Lock()
	w.current = dir
	w.mu.Unlock()
	return dir, nil
}
