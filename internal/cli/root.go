// Package cli implements the catalogmirror command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/light-bringer/catalog-mirror/internal/config"
	"github.com/light-bringer/catalog-mirror/internal/pkg/obs"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
	Format     string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the catalogmirror CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "catalogmirror",
		Short: "Mirror an upstream product feed into a bounded local catalog",
		Long: `catalogmirror keeps a local catalog of at most CATALOG_CAPACITY records in step
with an upstream JSON product feed, on a timer and on demand.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "YAML config file (overrides CONFIG_FILE)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewPruneCommand(opts))

	return cmd
}

// loadRuntime reads configuration and builds the logger. Logs go to w so
// they never mix with command output. An empty format means LOG_FORMAT.
func loadRuntime(opts *RootOptions, w io.Writer, format string) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if format == "" {
		format = cfg.LogFormat
	}
	level := cfg.LogLevel
	if opts.Verbose {
		level = "debug"
	}
	logger, err := obs.NewLogger(level, format, w)
	if err != nil {
		return config.Config{}, nil, WrapExitError(ExitCommandError, "invalid logging configuration", err)
	}
	return cfg, logger, nil
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
