package source

import "errors"

var (
	// ErrNoToken is returned when no API token can be resolved for an
	// authenticated source. Anonymous access still works for public
	// repositories.
	ErrNoToken = errors.New("source: no token found")

	// ErrBadStatus is returned when the manifest origin answers with a
	// non-200 status.
	ErrBadStatus = errors.New("source: unexpected status")
)
