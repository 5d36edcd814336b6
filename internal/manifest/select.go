package manifest

import "github.com/Masterminds/semver/v3"

// SelectNewest reduces the manifest left to right and returns the entry with
// the strictly greatest parseable version. The first entry seeds the
// accumulator; an entry only replaces it when both versions parse and the
// candidate's is strictly greater. An accumulator seeded with an unparseable
// version is never replaced, so the result fails validation downstream.
//
// An empty manifest is a caller error and returns ErrNoEntries.
func SelectNewest(entries []ReleaseEntry) (ReleaseEntry, error) {
	if len(entries) == 0 {
		return ReleaseEntry{}, ErrNoEntries
	}

	best := entries[0]
	bestVersion, bestOK := parseVersion(best.Version)

	for _, entry := range entries[1:] {
		if !bestOK {
			continue
		}

		candidate, ok := parseVersion(entry.Version)
		if !ok {
			continue
		}

		if candidate.GreaterThan(bestVersion) {
			best = entry
			bestVersion = candidate
		}
	}

	return best, nil
}

// parseVersion parses a semantic version string, tolerating a "v" prefix and
// partial versions like "1.2" the way manifest publishers write them.
func parseVersion(s string) (*semver.Version, bool) {
	if s == "" {
		return nil, false
	}

	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, false
	}

	return v, true
}
