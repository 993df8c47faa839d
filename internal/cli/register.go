package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/oefquery/internal/store"
	"github.com/roach88/oefquery/internal/wire"
)

// DirectoryOptions holds the flags shared by register, search and
// unregister.
type DirectoryOptions struct {
	*RootOptions
	Key  string // public key of the agent or service
	Kind string // "agent" | "service"
}

// RegisterResult describes a stored registration.
type RegisterResult struct {
	Kind          string `json:"kind"`
	Key           string `json:"key"`
	Description   string `json:"description"`
	DescriptionID string `json:"description_id"`
}

// NewRegisterCommand creates the register command.
func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DirectoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "register <specs-dir> <description> --key <public-key>",
		Short: "Register a description in the directory",
		Long: `Register a description from the specs under a public key.

An agent has one description; registering it again replaces the old one.
A service may be registered with several descriptions; registering the
same description twice stores it once.

Examples:
  oefq register ./specs dry_station --key station-1 --kind agent
  oefq register ./specs dune --key bookshop --db directory.db`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(opts, args[0], args[1], cmd)
		},
	}

	addDirectoryFlags(cmd, opts)

	return cmd
}

func addDirectoryFlags(cmd *cobra.Command, opts *DirectoryOptions) {
	cmd.Flags().StringVar(&opts.Key, "key", "", "public key of the agent or service")
	cmd.Flags().StringVar(&opts.Kind, "kind", string(store.KindService), "registration kind (agent|service)")
}

// requireKey reports a missing --key.
func requireKey(formatter *OutputFormatter, opts *DirectoryOptions) error {
	if opts.Key == "" {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidArgs, "--key is required", nil)
	}
	return nil
}

func runRegister(opts *DirectoryOptions, specsDir, descName string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if err := requireKey(formatter, opts); err != nil {
		return err
	}
	kind, err := parseKind(formatter, opts.Kind)
	if err != nil {
		return err
	}

	specs, err := loadSpecs(formatter, specsDir)
	if err != nil {
		return err
	}
	desc, ok := specs.Description(descName)
	if !ok {
		return unknownName(formatter, KindDescription, descName, specsDir)
	}

	ctx := cmd.Context()
	dir, st, err := openDirectory(ctx, opts.RootOptions, formatter, newLogger(opts.RootOptions, cmd))
	if err != nil {
		return err
	}
	defer st.Close()

	if kind == store.KindAgent {
		err = dir.RegisterAgent(ctx, opts.Key, desc)
	} else {
		err = dir.RegisterService(ctx, opts.Key, desc)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDirectory, err.Error(), nil)
	}

	id, err := wire.DescriptionID(desc)
	if err != nil {
		return WrapExitError(ExitFailure, "computing description id", err)
	}

	result := RegisterResult{
		Kind:          string(kind),
		Key:           opts.Key,
		Description:   descName,
		DescriptionID: id,
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Registered %s %s with description %s\n", kind, opts.Key, descName)
	formatter.VerboseLog("description id: %s", id)
	return nil
}
