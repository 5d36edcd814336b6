package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"github.com/valksor/go-updatebridge/internal/manifest"
	"github.com/valksor/go-updatebridge/internal/platform"
)

// GitHubSource lists a repository's releases and maps them onto manifest
// entries. Drafts and pre-releases are skipped; the artifact URL is the
// browser download URL of the asset matching the local platform.
type GitHubSource struct {
	gh    *github.Client
	owner string
	repo  string
	plat  platform.Platform
}

// NewGitHubSource creates a GitHub-backed manifest source.
// An empty token makes unauthenticated requests (subject to rate limits).
func NewGitHubSource(token, owner, repo string) *GitHubSource {
	var gh *github.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		gh = github.NewClient(oauth2.NewClient(context.Background(), ts))
	} else {
		gh = github.NewClient(nil)
	}

	return &GitHubSource{
		gh:    gh,
		owner: owner,
		repo:  repo,
		plat:  platform.Detect(),
	}
}

// Fetch lists recent releases and converts them to manifest entries.
func (s *GitHubSource) Fetch(ctx context.Context) ([]manifest.ReleaseEntry, error) {
	releases, _, err := s.gh.Repositories.ListReleases(ctx, s.owner, s.repo, &github.ListOptions{
		PerPage: 20,
	})
	if err != nil {
		return nil, fmt.Errorf("list releases: %w", err)
	}

	entries := make([]manifest.ReleaseEntry, 0, len(releases))
	for _, r := range releases {
		if r.GetDraft() || r.GetPrerelease() {
			continue
		}
		if entry, ok := entryFromGitHub(r, s.plat); ok {
			entries = append(entries, entry)
		}
	}

	return entries, nil
}

// entryFromGitHub maps one GitHub release to a manifest entry. Releases
// without a platform-matching asset are dropped.
func entryFromGitHub(r *github.RepositoryRelease, plat platform.Platform) (manifest.ReleaseEntry, bool) {
	names := make([]string, len(r.Assets))
	for i, a := range r.Assets {
		names[i] = a.GetName()
	}

	idx := plat.MatchAsset(names)
	if idx < 0 {
		return manifest.ReleaseEntry{}, false
	}

	var pubDate string
	if r.PublishedAt != nil {
		pubDate = r.PublishedAt.Format(time.RFC3339)
	}

	return manifest.ReleaseEntry{
		URL:     r.Assets[idx].GetBrowserDownloadURL(),
		Version: strings.TrimPrefix(r.GetTagName(), "v"),
		Name:    r.GetName(),
		Notes:   r.GetBody(),
		PubDate: pubDate,
	}, true
}
