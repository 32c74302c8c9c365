package source

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"statarchive/internal/archive"
	"statarchive/internal/config"
	"statarchive/internal/driver"
	"statarchive/internal/manifest"
	"statarchive/internal/validate"
)

// HTMLIndex archives datasets whose files are linked from an agency index
// page: it scrapes the page for links matching a pattern and downloads each
// match as one resource. With bundling enabled, all matches of one year are
// fetched into a single zip resource instead, with the zip's inner layout
// recorded for validation.
type HTMLIndex struct {
	name        string
	title       string
	description string
	indexURL    string
	linkPattern *regexp.Regexp
	yearPattern *regexp.Regexp
	bundle      bool
	concurrency int
	rotate      bool
	overrides   *config.DatasetValidation
}

func NewHTMLIndex(d config.Dataset) (*HTMLIndex, error) {
	linkPattern, err := regexp.Compile(d.LinkPattern)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: compile link_pattern: %w", d.Name, err)
	}
	s := &HTMLIndex{
		name:        d.Name,
		title:       d.Title,
		description: d.Description,
		indexURL:    d.URL,
		linkPattern: linkPattern,
		bundle:      d.Bundle,
		concurrency: d.Concurrency,
		rotate:      d.RotateWorkdir,
		overrides:   d.Validation,
	}
	if d.YearPattern != "" {
		s.yearPattern, err = regexp.Compile(d.YearPattern)
		if err != nil {
			return nil, fmt.Errorf("dataset %s: compile year_pattern: %w", d.Name, err)
		}
	}
	return s, nil
}

func (s *HTMLIndex) Name() string { return s.name }

func (s *HTMLIndex) Description() string {
	if s.description != "" {
		return s.description
	}
	return fmt.Sprintf("Archive files linked from %s", s.indexURL)
}

func (s *HTMLIndex) ConcurrencyLimit() int { return s.concurrency }

func (s *HTMLIndex) RotatePerBatch() bool { return s.rotate }

func (s *HTMLIndex) ValidationOptions(base validate.Options) validate.Options {
	return s.overrides.Apply(base)
}

// indexEntry is one matched link, resolved against the index URL.
type indexEntry struct {
	downloadURL string
	fileName    string
	year        string
}

func (s *HTMLIndex) Resources(ctx context.Context, env *Environment) ([]driver.PendingResource, error) {
	entries, err := s.matchedEntries(ctx, env)
	if err != nil {
		return nil, err
	}
	if s.bundle {
		return s.bundleTasks(entries, env), nil
	}
	return s.fileTasks(entries, env), nil
}

func (s *HTMLIndex) matchedEntries(ctx context.Context, env *Environment) ([]indexEntry, error) {
	links, err := env.Pages.Hyperlinks(ctx, s.indexURL, s.linkPattern)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: list index links: %w", s.name, err)
	}

	base, err := url.Parse(s.indexURL)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: parse index url: %w", s.name, err)
	}

	var entries []indexEntry
	for _, link := range links {
		ref, err := url.Parse(link)
		if err != nil {
			return nil, fmt.Errorf("dataset %s: parse link %q: %w", s.name, link, err)
		}
		entry := indexEntry{
			downloadURL: base.ResolveReference(ref).String(),
			fileName:    path.Base(ref.Path),
		}
		if s.yearPattern != nil {
			m := s.yearPattern.FindStringSubmatch(link)
			if m == nil {
				continue
			}
			year, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, fmt.Errorf("dataset %s: year capture %q in link %q is not a number", s.name, m[1], link)
			}
			if !env.ValidYear(year) {
				continue
			}
			entry.year = m[1]
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// fileTasks archives each matched link as its own resource.
func (s *HTMLIndex) fileTasks(entries []indexEntry, env *Environment) []driver.PendingResource {
	var pending []driver.PendingResource
	for _, entry := range entries {
		parts := manifest.Partitions{}
		if entry.year != "" {
			parts["year"] = manifest.PartitionValue{entry.year}
		}
		pending = append(pending, func(ctx context.Context) (manifest.ResourceRecord, error) {
			dest := filepath.Join(env.Workdir.Path(), fmt.Sprintf("%s-%s", s.name, entry.fileName))
			var dlErr error
			if strings.EqualFold(filepath.Ext(entry.fileName), ".zip") {
				dlErr = env.Client.DownloadZip(ctx, entry.downloadURL, dest)
			} else {
				dlErr = env.Client.DownloadFile(ctx, entry.downloadURL, dest)
			}
			if dlErr != nil {
				return manifest.ResourceRecord{}, dlErr
			}
			return manifest.ResourceRecord{
				LocalPath:  dest,
				Partitions: parts,
			}, nil
		})
	}
	return pending
}

// bundleTasks groups the matched links by year and archives each group as one
// zip resource whose inner layout is the group's file names. Without a year
// pattern everything lands in a single bundle.
func (s *HTMLIndex) bundleTasks(entries []indexEntry, env *Environment) []driver.PendingResource {
	groups := make(map[string][]indexEntry)
	for _, entry := range entries {
		groups[entry.year] = append(groups[entry.year], entry)
	}

	years := make([]string, 0, len(groups))
	for year := range groups {
		years = append(years, year)
	}
	sort.Strings(years)

	var pending []driver.PendingResource
	for _, year := range years {
		group := groups[year]

		zipName := s.name + ".zip"
		parts := manifest.Partitions{}
		if year != "" {
			zipName = fmt.Sprintf("%s-%s.zip", s.name, year)
			parts["year"] = manifest.PartitionValue{year}
		}

		pending = append(pending, func(ctx context.Context) (manifest.ResourceRecord, error) {
			files := make(map[string][]byte, len(group))
			for _, entry := range group {
				body, err := env.Client.Fetch(ctx, entry.downloadURL)
				if err != nil {
					return manifest.ResourceRecord{}, err
				}
				files[entry.fileName] = body
			}

			dest := filepath.Join(env.Workdir.Path(), zipName)
			if err := archive.Create(dest, files); err != nil {
				return manifest.ResourceRecord{}, err
			}

			names := make([]string, 0, len(files))
			for name := range files {
				names = append(names, name)
			}
			sort.Strings(names)

			return manifest.ResourceRecord{
				LocalPath:  dest,
				Partitions: parts,
				Layout:     &manifest.ZipLayout{FileNames: names, Exact: true},
			}, nil
		})
	}
	return pending
}
