package cli

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/oefquery/internal/directory"
)

// RootOptions holds global flags for all commands.
// Values are resolved through the config layer before any command runs.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	DB         string // SQLite path of the directory
	ConfigFile string
	CacheTTL   time.Duration
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// DefaultDB is the directory database used when none is configured.
const DefaultDB = "oefq.db"

// NewRootCommand creates the root command for the oefq CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{CacheTTL: directory.DefaultCacheTTL}

	cmd := &cobra.Command{
		Use:   "oefq",
		Short: "oefq - describe agents and services, search them by constraint",
		Long: `Compile data models, descriptions and queries from CUE specs, encode
them in the OEF wire format and run a local directory that answers searches.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd.Root(), opts); err != nil {
				return NewExitError(ExitCommandError, err.Error())
			}
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", DefaultDB, "path to the directory database")
	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "config file (default ./oefq.yaml or $HOME/.config/oefq/oefq.yaml)")

	// Add subcommands
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewEncodeCommand(opts))
	cmd.AddCommand(NewDecodeCommand(opts))
	cmd.AddCommand(NewMatchCommand(opts))
	cmd.AddCommand(NewRegisterCommand(opts))
	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewUnregisterCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// newFormatter builds the output formatter for a command. Verbose output
// goes to stderr so JSON on stdout stays parseable.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// newLogger returns a text logger on the command's stderr: debug level when
// verbose, warnings only otherwise.
func newLogger(opts *RootOptions, cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}
