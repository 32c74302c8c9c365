package source

import (
	"fmt"

	"statarchive/internal/config"
)

// FromConfig builds a Source from a datasets-file declaration.
func FromConfig(d config.Dataset) (Source, error) {
	switch d.Kind {
	case "html-index":
		return NewHTMLIndex(d)
	case "github-releases":
		return NewGitHubReleases(d)
	}
	return nil, fmt.Errorf("dataset %s: unsupported kind %q", d.Name, d.Kind)
}

// RegisterFromFile loads a datasets file and registers every declared source.
func RegisterFromFile(path string) error {
	datasets, err := config.LoadDatasets(path)
	if err != nil {
		return err
	}
	for _, d := range datasets {
		s, err := FromConfig(d)
		if err != nil {
			return err
		}
		Register(s)
	}
	return nil
}
