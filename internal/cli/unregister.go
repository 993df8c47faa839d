package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/oefquery/internal/directory"
	"github.com/roach88/oefquery/internal/schema"
	"github.com/roach88/oefquery/internal/store"
)

// UnregisterResult describes a removed registration.
type UnregisterResult struct {
	Kind        string `json:"kind"`
	Key         string `json:"key"`
	Description string `json:"description,omitempty"`
}

// NewUnregisterCommand creates the unregister command.
func NewUnregisterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DirectoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "unregister [<specs-dir> <description>] --key <public-key>",
		Short: "Remove a registration from the directory",
		Long: `Remove an agent, a service or one description of a service.

Without a description every registration of the service is removed. Naming
a description removes only that one and applies to services only.

Exits with code 1 when nothing was registered under the key.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("accepts 0 or 2 arg(s), received %d", len(args)))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnregister(opts, args, cmd)
		},
	}

	addDirectoryFlags(cmd, opts)

	return cmd
}

func runUnregister(opts *DirectoryOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if err := requireKey(formatter, opts); err != nil {
		return err
	}
	kind, err := parseKind(formatter, opts.Kind)
	if err != nil {
		return err
	}

	result := UnregisterResult{Kind: string(kind), Key: opts.Key}

	var desc *schema.Description
	if len(args) == 2 {
		if kind == store.KindAgent {
			return formatter.Fail(ExitCommandError, ErrCodeInvalidArgs,
				"a description can only be given for services", nil)
		}
		specs, err := loadSpecs(formatter, args[0])
		if err != nil {
			return err
		}
		d, ok := specs.Description(args[1])
		if !ok {
			return unknownName(formatter, KindDescription, args[1], args[0])
		}
		desc = d
		result.Description = args[1]
	}

	ctx := cmd.Context()
	dir, st, err := openDirectory(ctx, opts.RootOptions, formatter, newLogger(opts.RootOptions, cmd))
	if err != nil {
		return err
	}
	defer st.Close()

	if kind == store.KindAgent {
		err = dir.UnregisterAgent(ctx, opts.Key)
	} else {
		err = dir.UnregisterService(ctx, opts.Key, desc)
	}
	switch {
	case errors.Is(err, directory.ErrNotRegistered):
		return formatter.Fail(ExitFailure, ErrCodeNotRegistered,
			fmt.Sprintf("%s %s is not registered", kind, opts.Key), nil)
	case err != nil:
		return formatter.Fail(ExitCommandError, ErrCodeDirectory, err.Error(), nil)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	if result.Description != "" {
		fmt.Fprintf(formatter.Writer, "✓ Unregistered description %s of %s %s\n", result.Description, kind, opts.Key)
	} else {
		fmt.Fprintf(formatter.Writer, "✓ Unregistered %s %s\n", kind, opts.Key)
	}
	return nil
}
