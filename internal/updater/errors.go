package updater

import "errors"

var (
	// ErrManifestFetch is returned when the remote manifest cannot be
	// fetched or parsed.
	ErrManifestFetch = errors.New("updater: manifest fetch failed")

	// ErrUpdaterFailure is returned when the OS updater reports its error
	// signal or rejects the feed URL.
	ErrUpdaterFailure = errors.New("updater: os updater failed")

	// ErrUnsupportedPlatform is returned from New on any OS other than the
	// one the update mechanism targets.
	ErrUnsupportedPlatform = errors.New("updater: unsupported platform")
)
