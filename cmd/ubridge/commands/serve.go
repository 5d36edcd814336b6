package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/valksor/go-updatebridge/internal/display"
	"github.com/valksor/go-updatebridge/internal/feed"
	"github.com/valksor/go-updatebridge/internal/log"
	"github.com/valksor/go-updatebridge/internal/manifest"
	"github.com/valksor/go-updatebridge/internal/platform"
)

func newServeCmd() *cobra.Command {
	var (
		current   string
		osVersion string
		port      int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the selected release as a local update feed",
		Long: `Serve runs the negotiation (fetch, select, validate) and, when an update is
applicable, stands up the local protocol server exposing it:

  GET /json      selected release descriptor
  GET /download  proxied release payload

The feed URL is printed for the OS updater to consume. The server runs until
interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, current, osVersion, port)
		},
	}

	cmd.Flags().StringVar(&current, "current", Version,
		"Currently installed application version")
	cmd.Flags().StringVar(&osVersion, "os-version", "",
		"Override the detected OS version for supportedOS checks")
	cmd.Flags().IntVar(&port, "port", 0,
		"Listen port (default: randomized)")

	return cmd
}

func runServe(cmd *cobra.Command, current, osVersion string, port int) error {
	out := cmd.OutOrStdout()

	src, err := buildSource(cfg)
	if err != nil {
		return err
	}

	fetchCtx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	entries, err := src.Fetch(fetchCtx)
	if err != nil {
		return fmt.Errorf("fetch manifest: %w", err)
	}

	best, err := manifest.SelectNewest(entries)
	if err != nil {
		if errors.Is(err, manifest.ErrNoEntries) {
			fmt.Fprintln(out, display.Warning("⚠")+" Manifest has no entries")

			return nil
		}

		return err
	}

	if osVersion == "" {
		osVersion, err = platform.OSVersion()
		if err != nil {
			log.Warn("cannot detect os version", log.Err(err))
		}
	}

	if !manifest.IsSelectionValid(&best, current, osVersion, log.Logger()) {
		fmt.Fprintf(out, "%s No applicable update (current %s, newest %s)\n",
			display.Success("✓"), current, best.Version)

		return nil
	}

	if port == 0 {
		port = cfg.Port
	}

	srv := feed.New(feed.Options{Port: port, Logger: log.Logger()})

	selected := best.Localize(srv.DownloadURL())
	payload, err := json.Marshal(selected)
	if err != nil {
		return fmt.Errorf("encode selected release: %w", err)
	}

	if err := srv.Start(payload, selected.RemoteURL); err != nil {
		return err
	}
	defer srv.Shutdown()

	fmt.Fprintf(out, "%s Serving %s\n", display.Success("✓"), display.Bold(best.Version))
	fmt.Fprintf(out, "  Feed:     %s\n", srv.FeedURL())
	fmt.Fprintf(out, "  Download: %s\n", display.Muted(srv.DownloadURL()))
	fmt.Fprintln(out, display.Muted("Press Ctrl-C to stop"))

	<-cmd.Context().Done()

	return nil
}
