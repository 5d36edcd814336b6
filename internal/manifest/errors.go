package manifest

import "errors"

// ErrNoEntries is returned when selection is attempted on an empty manifest.
// Callers treat this as "no update available", not as a failure.
var ErrNoEntries = errors.New("manifest: no entries")
