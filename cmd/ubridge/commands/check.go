package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/valksor/go-updatebridge/internal/display"
	"github.com/valksor/go-updatebridge/internal/log"
	"github.com/valksor/go-updatebridge/internal/manifest"
	"github.com/valksor/go-updatebridge/internal/platform"
)

func newCheckCmd() *cobra.Command {
	var (
		current   string
		osVersion string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Dry-run one update negotiation cycle",
		Long: `Check fetches the release manifest, selects the newest entry, and runs it
through the validity gate, without starting the protocol server or engaging
the OS updater.

The exit status is 0 whether or not an update is available; use the output
to decide what to do next.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, current, osVersion)
		},
	}

	cmd.Flags().StringVar(&current, "current", Version,
		"Currently installed application version")
	cmd.Flags().StringVar(&osVersion, "os-version", "",
		"Override the detected OS version for supportedOS checks")

	return cmd
}

func runCheck(cmd *cobra.Command, current, osVersion string) error {
	out := cmd.OutOrStdout()

	src, err := buildSource(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	fmt.Fprintln(out, display.Info("→")+" Fetching manifest...")

	entries, err := src.Fetch(ctx)
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

	fmt.Fprintf(out, "\n%s %s\n", display.Success("✓"), display.Bold("Update available"))
	fmt.Fprintf(out, "  Current:  %s\n", display.Muted(current))
	fmt.Fprintf(out, "  Latest:   %s\n", display.Success(best.Version))
	if best.Name != "" {
		fmt.Fprintf(out, "  Name:     %s\n", best.Name)
	}
	if best.PubDate != "" {
		fmt.Fprintf(out, "  Date:     %s\n", display.Muted(best.PubDate))
	}
	fmt.Fprintf(out, "  Artifact: %s\n", display.Muted(best.URL))

	return nil
}
