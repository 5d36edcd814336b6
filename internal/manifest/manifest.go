// Package manifest models the remote releases.json document and implements
// release selection: picking the newest entry that is newer than the running
// version and compatible with the local OS.
package manifest

// ReleaseEntry is one row of the remote manifest.
type ReleaseEntry struct {
	URL         string `json:"url"`
	Version     string `json:"version"`
	Name        string `json:"name,omitempty"`
	Notes       string `json:"notes,omitempty"`
	PubDate     string `json:"pub_date,omitempty"`
	SupportedOS string `json:"supportedOS,omitempty"`
}

// SelectedRelease is a ReleaseEntry whose URL has been rewritten to point at
// the local protocol server. This is exactly what the /json route serves;
// the OS updater must never see the remote artifact URL.
type SelectedRelease struct {
	ReleaseEntry

	// RemoteURL is the artifact's true location, kept for the download
	// proxy. Never serialized.
	RemoteURL string `json:"-"`
}

// Localize returns a SelectedRelease whose URL points at downloadURL while
// remembering the original artifact location.
func (e ReleaseEntry) Localize(downloadURL string) SelectedRelease {
	sel := SelectedRelease{ReleaseEntry: e, RemoteURL: e.URL}
	sel.URL = downloadURL

	return sel
}
