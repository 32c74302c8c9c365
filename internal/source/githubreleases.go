package source

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"

	gogithub "github.com/google/go-github/v81/github"

	"statarchive/internal/config"
	"statarchive/internal/driver"
	"statarchive/internal/manifest"
	"statarchive/internal/validate"
)

// GitHubReleases archives datasets published as GitHub release assets. Some
// agencies and research groups publish cleaned statistical data this way,
// one release per vintage.
type GitHubReleases struct {
	name         string
	title        string
	description  string
	owner        string
	repo         string
	assetPattern *regexp.Regexp
	yearPattern  *regexp.Regexp
	concurrency  int
	overrides    *config.DatasetValidation
}

func NewGitHubReleases(d config.Dataset) (*GitHubReleases, error) {
	s := &GitHubReleases{
		name:        d.Name,
		title:       d.Title,
		description: d.Description,
		owner:       d.Owner,
		repo:        d.Repo,
		concurrency: d.Concurrency,
		overrides:   d.Validation,
	}
	var err error
	if d.AssetPattern != "" {
		s.assetPattern, err = regexp.Compile(d.AssetPattern)
		if err != nil {
			return nil, fmt.Errorf("dataset %s: compile asset_pattern: %w", d.Name, err)
		}
	}
	if d.YearPattern != "" {
		s.yearPattern, err = regexp.Compile(d.YearPattern)
		if err != nil {
			return nil, fmt.Errorf("dataset %s: compile year_pattern: %w", d.Name, err)
		}
	}
	return s, nil
}

func (s *GitHubReleases) Name() string { return s.name }

func (s *GitHubReleases) Description() string {
	if s.description != "" {
		return s.description
	}
	return fmt.Sprintf("Archive release assets of github.com/%s/%s", s.owner, s.repo)
}

func (s *GitHubReleases) ConcurrencyLimit() int { return s.concurrency }

func (s *GitHubReleases) ValidationOptions(base validate.Options) validate.Options {
	return s.overrides.Apply(base)
}

func (s *GitHubReleases) Resources(ctx context.Context, env *Environment) ([]driver.PendingResource, error) {
	if env.GitHub == nil {
		return nil, errors.New("github client not configured (set GITHUB_TOKEN or run anonymously with rate limits)")
	}

	var pending []driver.PendingResource
	opts := &gogithub.ListOptions{PerPage: 100}
	for {
		releases, resp, err := env.GitHub.Repositories.ListReleases(ctx, s.owner, s.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("dataset %s: list releases: %w", s.name, err)
		}
		for _, release := range releases {
			tasks, err := s.releaseTasks(release, env)
			if err != nil {
				return nil, err
			}
			pending = append(pending, tasks...)
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return pending, nil
}

func (s *GitHubReleases) releaseTasks(release *gogithub.RepositoryRelease, env *Environment) ([]driver.PendingResource, error) {
	parts := manifest.Partitions{}
	if s.yearPattern != nil {
		m := s.yearPattern.FindStringSubmatch(release.GetTagName())
		if m == nil {
			return nil, nil
		}
		year, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("dataset %s: year capture %q in tag %q is not a number", s.name, m[1], release.GetTagName())
		}
		if !env.ValidYear(year) {
			return nil, nil
		}
		parts["year"] = manifest.PartitionValue{m[1]}
	}

	var tasks []driver.PendingResource
	for _, asset := range release.Assets {
		if s.assetPattern != nil && !s.assetPattern.MatchString(asset.GetName()) {
			continue
		}
		downloadURL := asset.GetBrowserDownloadURL()
		assetName := asset.GetName()
		tasks = append(tasks, func(ctx context.Context) (manifest.ResourceRecord, error) {
			dest := filepath.Join(env.Workdir.Path(), fmt.Sprintf("%s-%s", s.name, assetName))
			if err := env.Client.DownloadFile(ctx, downloadURL, dest); err != nil {
				return manifest.ResourceRecord{}, err
			}
			return manifest.ResourceRecord{
				LocalPath:  dest,
				Partitions: parts,
			}, nil
		})
	}
	return tasks, nil
}
