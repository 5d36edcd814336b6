// Package updater drives one update-negotiation cycle: fetch the manifest,
// select and validate a release, re-expose it through the local protocol
// server, and wait for the OS updater's terminal signal.
package updater

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/valksor/go-updatebridge/internal/feed"
	"github.com/valksor/go-updatebridge/internal/log"
	"github.com/valksor/go-updatebridge/internal/manifest"
	"github.com/valksor/go-updatebridge/internal/platform"
	"github.com/valksor/go-updatebridge/internal/source"
)

// Options configures an Updater.
type Options struct {
	// Version is the currently running application version. Required.
	Version string

	// UpdateURL is the manifest base location. Required unless Source is
	// supplied.
	UpdateURL string

	// Port for the protocol server. Zero picks a randomized port.
	Port int

	// Source overrides the manifest origin. Defaults to an HTTP source at
	// UpdateURL.
	Source source.Source

	// AutoUpdater is the host-provided OS update engine. Required.
	AutoUpdater AutoUpdater

	// SkipCacheBust disables the one-time cache-busting query parameter on
	// the first manifest fetch. Busting is on by default.
	SkipCacheBust bool

	// StoreBuild marks a build distributed through a platform-managed
	// store. Such builds are updated by the store, so every check returns
	// no-update without touching the network.
	StoreBuild bool

	// Logger for diagnostics. Defaults to a no-op.
	Logger *slog.Logger

	// OS overrides the detected operating system. Construction fails on
	// anything but the target platform.
	OS string

	// OSVersion overrides the detected kernel release string used for
	// supportedOS range checks.
	OSVersion string
}

// Updater performs update checks. Calls to Check on one instance must be
// serialized by the caller; concurrent cycles would contend for the same
// server port.
type Updater struct {
	version    string
	src        source.Source
	au         AutoUpdater
	port       int
	osVersion  string
	storeBuild bool
	logger     *slog.Logger
}

// New validates the options and builds an Updater.
func New(opts Options) (*Updater, error) {
	osName := opts.OS
	if osName == "" {
		osName = runtime.GOOS
	}
	if osName != platform.Target {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, osName)
	}

	if opts.Version == "" {
		return nil, fmt.Errorf("updater: version is required")
	}
	if opts.AutoUpdater == nil {
		return nil, fmt.Errorf("updater: auto updater is required")
	}

	src := opts.Source
	if src == nil {
		if opts.UpdateURL == "" {
			return nil, fmt.Errorf("updater: update url is required")
		}
		src = source.NewHTTPSource(opts.UpdateURL, !opts.SkipCacheBust)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}

	osVersion := opts.OSVersion
	if osVersion == "" {
		detected, err := platform.OSVersion()
		if err != nil {
			// Leave empty: entries carrying a supportedOS range then fail
			// closed during validation.
			logger.Warn("cannot detect os version", log.Err(err))
		}
		osVersion = detected
	}

	return &Updater{
		version:    opts.Version,
		src:        src,
		au:         opts.AutoUpdater,
		port:       opts.Port,
		osVersion:  osVersion,
		storeBuild: opts.StoreBuild,
		logger:     logger,
	}, nil
}

// Check runs one negotiation cycle. It returns (nil, nil) when no update is
// available, a Downloaded when the OS updater staged one, and an error for
// fetch, bind, or updater failures. The protocol server started for the
// cycle is shut down on every exit path.
func (u *Updater) Check(ctx context.Context) (*Downloaded, error) {
	if u.storeBuild {
		u.logger.Debug("store-distributed build, skipping update check")

		return nil, nil
	}

	entries, err := u.src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifestFetch, err)
	}

	best, err := manifest.SelectNewest(entries)
	if err != nil {
		if errors.Is(err, manifest.ErrNoEntries) {
			u.logger.Info("manifest has no entries, nothing to update")

			return nil, nil
		}

		return nil, err
	}

	if !manifest.IsSelectionValid(&best, u.version, u.osVersion, u.logger) {
		return nil, nil
	}

	srv := feed.New(feed.Options{Port: u.port, Logger: u.logger})

	selected := best.Localize(srv.DownloadURL())
	payload, err := json.Marshal(selected)
	if err != nil {
		return nil, fmt.Errorf("encode selected release: %w", err)
	}

	if err := srv.Start(payload, selected.RemoteURL); err != nil {
		return nil, fmt.Errorf("start protocol server: %w", err)
	}
	defer srv.Shutdown()

	u.logger.Info("serving release to os updater",
		log.Version(best.Version), log.FeedURL(srv.FeedURL()))

	return u.await(ctx, srv)
}

// await points the OS updater at the feed and commits to its first terminal
// event. The subscription is detached before returning; later events are
// disregarded.
func (u *Updater) await(ctx context.Context, srv *feed.Server) (*Downloaded, error) {
	events, cancel := u.au.Subscribe()
	defer cancel()

	if err := u.au.SetFeedURL(srv.FeedURL()); err != nil {
		return nil, fmt.Errorf("%w: set feed url: %w", ErrUpdaterFailure, err)
	}

	u.au.CheckForUpdates()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()

	case ev := <-events:
		switch ev.Kind {
		case EventNoUpdate:
			u.logger.Info("os updater reports no update")

			return nil, nil

		case EventDownloaded:
			u.logger.Info("os updater downloaded update",
				"release_name", ev.ReleaseName)

			return &Downloaded{
				ReleaseNotes: ev.ReleaseNotes,
				ReleaseName:  ev.ReleaseName,
				ReleaseDate:  ev.ReleaseDate,
			}, nil

		case EventError:
			if ev.Err != nil {
				return nil, fmt.Errorf("%w: %w", ErrUpdaterFailure, ev.Err)
			}

			return nil, ErrUpdaterFailure

		default:
			return nil, fmt.Errorf("%w: unexpected event kind %d", ErrUpdaterFailure, ev.Kind)
		}
	}
}
