package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/valksor/go-updatebridge/internal/config"
	"github.com/valksor/go-updatebridge/internal/display"
	"github.com/valksor/go-updatebridge/internal/log"
)

// cfg is populated by the root PersistentPreRunE before any subcommand runs.
var cfg *config.Config

// newRootCmd builds a fresh command tree. Every execution gets its own tree
// so contexts and flag values never leak from one run into the next.
func newRootCmd() *cobra.Command {
	var (
		verbose    bool
		quiet      bool
		noColor    bool
		configPath string
	)

	rootCmd := &cobra.Command{
		Use:   "ubridge",
		Short: "Bridge release manifests to the OS update engine",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Long: `ubridge negotiates application updates against a remote release manifest
and re-exposes the selected release in the two-endpoint feed shape the
OS-level updater expects (GET /json and GET /download).

Quick Start:
  ubridge check --current 1.2.3    Dry-run one negotiation cycle
  ubridge serve --current 1.2.3    Serve the selected release as a local feed

Configuration lives in .ubridge.yaml; source tokens can be placed in
.ubridge/.env.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env first so tokens are available to the sources.
			if err := config.LoadDotEnvFromCwd(); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load .ubridge/.env: %v\n", err)
			}

			level := log.LevelInfo
			if quiet {
				level = log.LevelError
			}
			log.Configure(log.Options{
				Level:   level,
				Verbose: verbose,
			})

			// Initialize color output from CLI flag (also respects NO_COLOR env)
			display.InitColors(noColor)

			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			log.Debug("initialized", "config", configPath, "source", cfg.Source)

			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable color output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".ubridge.yaml", "Path to the config file")

	rootCmd.AddCommand(newCheckCmd(), newServeCmd(), newVersionCmd())

	return rootCmd
}

// Execute runs the root command with signal handling.
func Execute() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return newRootCmd().ExecuteContext(ctx)
}
