package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"
)

// DataPackage is a versioned descriptor of one dataset archive: dataset-level
// metadata plus an ordered collection of the resources the archive contains.
// A published archive version carries exactly one DataPackage; the previous
// version's descriptor (if any) is the baseline that new candidate archives
// are validated against.
type DataPackage struct {
	Name      string     `json:"name"`
	Title     string     `json:"title,omitempty"`
	License   string     `json:"license,omitempty"`
	Version   string     `json:"version"`
	Created   time.Time  `json:"created"`
	Resources []Resource `json:"resources"`
}

// Resource is one named, sized, hashed file entry within a DataPackage.
// Name is unique within a package.
type Resource struct {
	Name      string     `json:"name"`
	Path      string     `json:"path,omitempty"`
	Bytes     int64      `json:"bytes"`
	Hash      string     `json:"hash,omitempty"`
	MediaType string     `json:"mediatype,omitempty"`
	Parts     Partitions `json:"parts,omitempty"`
}

// ResourceNames returns the set of resource names in the package.
func (dp *DataPackage) ResourceNames() map[string]struct{} {
	names := make(map[string]struct{}, len(dp.Resources))
	for _, r := range dp.Resources {
		names[r.Name] = struct{}{}
	}
	return names
}

// ResourceSizes returns a name -> size map over the package's resources.
func (dp *DataPackage) ResourceSizes() map[string]int64 {
	sizes := make(map[string]int64, len(dp.Resources))
	for _, r := range dp.Resources {
		sizes[r.Name] = r.Bytes
	}
	return sizes
}

// TotalBytes sums the sizes of all resources in the package.
func (dp *DataPackage) TotalBytes() int64 {
	var total int64
	for _, r := range dp.Resources {
		total += r.Bytes
	}
	return total
}

// Validate checks structural invariants of the descriptor, most importantly
// resource name uniqueness.
func (dp *DataPackage) Validate() error {
	if dp.Name == "" {
		return fmt.Errorf("datapackage: name is required")
	}
	seen := make(map[string]struct{}, len(dp.Resources))
	for _, r := range dp.Resources {
		if r.Name == "" {
			return fmt.Errorf("datapackage %s: resource with empty name", dp.Name)
		}
		if _, dup := seen[r.Name]; dup {
			return fmt.Errorf("datapackage %s: duplicate resource name %q", dp.Name, r.Name)
		}
		seen[r.Name] = struct{}{}
	}
	return nil
}

// SortResources orders resources by name so serialized descriptors are
// deterministic across runs.
func (dp *DataPackage) SortResources() {
	sort.Slice(dp.Resources, func(i, j int) bool {
		return dp.Resources[i].Name < dp.Resources[j].Name
	})
}

// Load reads a DataPackage descriptor from a JSON file.
func Load(path string) (*DataPackage, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read datapackage %s: %w", path, err)
	}
	var dp DataPackage
	if err := json.Unmarshal(raw, &dp); err != nil {
		return nil, fmt.Errorf("parse datapackage %s: %w", path, err)
	}
	if err := dp.Validate(); err != nil {
		return nil, err
	}
	return &dp, nil
}

// Save writes the descriptor to path as indented JSON.
func (dp *DataPackage) Save(path string) error {
	raw, err := json.MarshalIndent(dp, "", "  ")
	if err != nil {
		return fmt.Errorf("encode datapackage %s: %w", dp.Name, err)
	}
	raw = append(raw, '\n')
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write datapackage %s: %w", path, err)
	}
	return nil
}
