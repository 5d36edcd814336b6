package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-cleanhttp"

	"github.com/valksor/go-updatebridge/internal/manifest"
)

// ManifestFile is the document name appended to the update URL.
const ManifestFile = "releases.json"

// HTTPSource fetches a releases.json manifest from a static HTTP location.
//
// When cache busting is enabled, the first fetch appends a one-time unique
// query parameter to punch through stale CDN caches; the flag clears itself
// so later fetches in the same process hit the cache normally.
type HTTPSource struct {
	client    *http.Client
	updateURL string

	mu        sync.Mutex
	bustCache bool
}

// NewHTTPSource creates a source for the manifest at
// <updateURL>/releases.json.
func NewHTTPSource(updateURL string, bustCache bool) *HTTPSource {
	return &HTTPSource{
		client:    cleanhttp.DefaultPooledClient(),
		updateURL: updateURL,
		bustCache: bustCache,
	}
}

// Fetch downloads and decodes the manifest.
func (s *HTTPSource) Fetch(ctx context.Context) ([]manifest.ReleaseEntry, error) {
	target, err := s.manifestURL()
	if err != nil {
		return nil, fmt.Errorf("build manifest url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d fetching %s", ErrBadStatus, resp.StatusCode, ManifestFile)
	}

	var entries []manifest.ReleaseEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	return entries, nil
}

// manifestURL builds the manifest location, consuming the one-time
// cache-bust flag if set.
func (s *HTTPSource) manifestURL() (string, error) {
	u, err := url.Parse(strings.TrimSuffix(s.updateURL, "/") + "/" + ManifestFile)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	bust := s.bustCache
	s.bustCache = false
	s.mu.Unlock()

	if bust {
		q := u.Query()
		q.Set("v", uuid.NewString())
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}
