package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/valksor/go-updatebridge/internal/manifest"
	"github.com/valksor/go-updatebridge/internal/platform"
)

// GitLabSource lists a project's releases and maps them onto manifest
// entries. Asset links are matched against the local platform; the direct
// asset URL is preferred when present.
type GitLabSource struct {
	gl      *gitlab.Client
	project string
	plat    platform.Platform
}

// NewGitLabSource creates a GitLab-backed manifest source. host may be empty
// for gitlab.com or point at a self-hosted instance.
func NewGitLabSource(token, host, project string) (*GitLabSource, error) {
	var options []gitlab.ClientOptionFunc
	if host != "" && host != "https://gitlab.com" && host != "gitlab.com" {
		baseURL := strings.TrimSuffix(host, "/") + "/api/v4"
		options = append(options, gitlab.WithBaseURL(baseURL))
	}

	gl, err := gitlab.NewClient(token, options...)
	if err != nil {
		return nil, fmt.Errorf("create gitlab client: %w", err)
	}

	return &GitLabSource{
		gl:      gl,
		project: project,
		plat:    platform.Detect(),
	}, nil
}

// Fetch lists recent releases and converts them to manifest entries.
func (s *GitLabSource) Fetch(ctx context.Context) ([]manifest.ReleaseEntry, error) {
	releases, _, err := s.gl.Releases.ListReleases(s.project, &gitlab.ListReleasesOptions{
		ListOptions: gitlab.ListOptions{PerPage: 20},
	}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("list releases: %w", err)
	}

	entries := make([]manifest.ReleaseEntry, 0, len(releases))
	for _, r := range releases {
		if entry, ok := entryFromGitLab(r, s.plat); ok {
			entries = append(entries, entry)
		}
	}

	return entries, nil
}

// entryFromGitLab maps one GitLab release to a manifest entry. Releases
// without a platform-matching asset link are dropped.
func entryFromGitLab(r *gitlab.Release, plat platform.Platform) (manifest.ReleaseEntry, bool) {
	names := make([]string, len(r.Assets.Links))
	for i, link := range r.Assets.Links {
		names[i] = link.Name
	}

	idx := plat.MatchAsset(names)
	if idx < 0 {
		return manifest.ReleaseEntry{}, false
	}

	link := r.Assets.Links[idx]
	url := link.DirectAssetURL
	if url == "" {
		url = link.URL
	}

	var pubDate string
	if r.ReleasedAt != nil {
		pubDate = r.ReleasedAt.Format(time.RFC3339)
	}

	return manifest.ReleaseEntry{
		URL:     url,
		Version: strings.TrimPrefix(r.TagName, "v"),
		Name:    r.Name,
		Notes:   r.Description,
		PubDate: pubDate,
	}, true
}
