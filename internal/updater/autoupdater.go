package updater

import "time"

// EventKind identifies the OS updater's terminal signals.
type EventKind int

const (
	// EventNoUpdate means the feed held nothing newer.
	EventNoUpdate EventKind = iota

	// EventDownloaded means the OS updater fetched and staged an update.
	EventDownloaded

	// EventError means the OS updater failed.
	EventError
)

// Event is one terminal signal from the OS updater. Exactly one is expected
// per feed-check cycle.
type Event struct {
	Kind EventKind

	// Set for EventDownloaded.
	ReleaseNotes string
	ReleaseName  string
	ReleaseDate  time.Time

	// Set for EventError.
	Err error
}

// AutoUpdater is the host-provided OS update engine. It consumes the local
// feed URL, performs its own download and installation, and signals exactly
// one terminal event per check.
type AutoUpdater interface {
	// SetFeedURL points the engine at the metadata route.
	SetFeedURL(url string) error

	// CheckForUpdates starts one asynchronous check against the feed.
	CheckForUpdates()

	// Subscribe registers for terminal events. The returned cancel detaches
	// the subscription; anything delivered afterward is disregarded.
	Subscribe() (<-chan Event, func())
}

// Downloaded describes an update the OS updater has fetched and staged.
type Downloaded struct {
	ReleaseNotes string
	ReleaseName  string
	ReleaseDate  time.Time
}
