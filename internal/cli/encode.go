package cli

import (
	"encoding/hex"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/oefquery/internal/compiler"
	"github.com/roach88/oefquery/internal/wire"
)

// EncodeOptions holds flags for the encode command.
type EncodeOptions struct {
	*RootOptions
	Output string // write raw bytes here instead of printing hex
}

// EncodeResult describes an encoded spec entry.
type EncodeResult struct {
	Kind   string `json:"kind"`
	Name   string `json:"name"`
	ID     string `json:"id"`
	Size   int    `json:"size"`
	Hex    string `json:"hex,omitempty"`
	Output string `json:"output,omitempty"`
}

// NewEncodeCommand creates the encode command.
func NewEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EncodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "encode <specs-dir> <model|description|query> <name>",
		Short: "Encode a spec entry in the wire format",
		Long: `Compile the specs and encode one model, description or query as
protocol buffers wire bytes.

Without --output the bytes are printed as hex together with the entry's
content id.

Examples:
  oefq encode ./specs query full_weather
  oefq encode ./specs description dry_station -o dry_station.bin`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(opts, args[0], args[1], args[2], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write raw bytes to this file")

	return cmd
}

func runEncode(opts *EncodeOptions, specsDir, kind, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if !slices.Contains(encodableKinds, kind) {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidArgs,
			fmt.Sprintf("invalid kind %q: must be one of %v", kind, encodableKinds), nil)
	}

	specs, err := loadSpecs(formatter, specsDir)
	if err != nil {
		return err
	}

	data, id, found, err := encodeEntry(specs, kind, name)
	if err != nil {
		return WrapExitError(ExitFailure, fmt.Sprintf("encoding %s %s", kind, name), err)
	}
	if !found {
		return unknownName(formatter, kind, name, specsDir)
	}

	result := EncodeResult{Kind: kind, Name: name, ID: id, Size: len(data)}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, data, 0o644); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed,
				fmt.Sprintf("failed to write %s: %v", opts.Output, err), nil)
		}
		result.Output = opts.Output
		formatter.VerboseLog("Wrote %d bytes to %s", len(data), opts.Output)
	} else {
		result.Hex = hex.EncodeToString(data)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	if result.Output != "" {
		fmt.Fprintf(w, "✓ Encoded %s %s (%d bytes) to %s\n", kind, name, result.Size, result.Output)
	} else {
		fmt.Fprintln(w, result.Hex)
	}
	fmt.Fprintf(w, "id: %s\n", result.ID)
	return nil
}

// encodableKinds are the spec sections encode can read from.
var encodableKinds = []string{KindModel, KindDescription, KindQuery}

// encodeEntry encodes the named entry of the given kind. found is false
// when no such entry exists.
func encodeEntry(specs *compiler.Specs, kind, name string) (data []byte, id string, found bool, err error) {
	switch kind {
	case KindModel:
		m, ok := specs.Model(name)
		if !ok {
			return nil, "", false, nil
		}
		if data, err = wire.EncodeDataModel(m); err != nil {
			return nil, "", true, err
		}
		id, err = wire.DataModelID(m)
	case KindDescription:
		d, ok := specs.Description(name)
		if !ok {
			return nil, "", false, nil
		}
		if data, err = wire.EncodeDescription(d); err != nil {
			return nil, "", true, err
		}
		id = wire.DescriptionIDBytes(data)
	case KindQuery:
		q, ok := specs.Query(name)
		if !ok {
			return nil, "", false, nil
		}
		if data, err = wire.EncodeQuery(q); err != nil {
			return nil, "", true, err
		}
		id = wire.QueryIDBytes(data)
	default:
		return nil, "", false, fmt.Errorf("invalid kind %q", kind)
	}
	return data, id, true, err
}
