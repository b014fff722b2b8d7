package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/graphparity/internal/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	NoColor  bool
	LogLevel string // overrides the level implied by Verbose
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the graphparity CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "graphparity",
		Short: "graphparity - dependency graph fixture parity",
		Long: `Verify that dependency graphs built from package manifests match their
recorded snapshots, and gate a fixture corpus on pass rate and coverage.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				// Format is unusable, so the error is always reported as text.
				formatter := &OutputFormatter{Format: "text", Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr()}
				return formatter.fail(ExitCommandError, ErrCodeInvalidFlag,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats), nil)
			}
			if opts.LogLevel != "" {
				if _, ok := logger.ParseLevel(opts.LogLevel); !ok {
					formatter := newFormatter(opts, cmd)
					return formatter.fail(ExitCommandError, ErrCodeInvalidFlag,
						fmt.Sprintf("invalid log level %q: must be debug, info, warn or error", opts.LogLevel), nil)
				}
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "disable colored log output")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error); default warn, debug with --verbose")

	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewDiffCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// newFormatter returns the formatter for a command. Diagnostics go to
// stderr so that JSON on stdout stays parseable.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// newLogger returns the command logger on stderr. --log-level wins;
// otherwise the level is Debug with --verbose and Warn without.
func newLogger(opts *RootOptions, cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	if opts.LogLevel != "" {
		if parsed, ok := logger.ParseLevel(opts.LogLevel); ok {
			level = parsed
		}
	}
	return logger.New(cmd.ErrOrStderr(), logger.Options{Level: level, NoColor: opts.NoColor})
}
