package cli

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/oefquery/internal/compiler"
	"github.com/roach88/oefquery/internal/query"
	"github.com/roach88/oefquery/internal/schema"
	"github.com/roach88/oefquery/internal/wire"
)

// DecodeOptions holds flags for the decode command.
type DecodeOptions struct {
	*RootOptions
	Hex bool // input is hex text rather than raw bytes
}

// DecodeResult describes a decoded message.
type DecodeResult struct {
	Kind   string         `json:"kind"`
	ID     string         `json:"id,omitempty"`
	Model  string         `json:"model,omitempty"`
	Values map[string]any `json:"values,omitempty"`
	Text   string         `json:"text"`
}

// decodableKinds are the message kinds decode understands.
var decodableKinds = []string{KindModel, KindDescription, KindQuery, KindConstraint, KindExpression}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decode <model|description|query|constraint|expression> <file>",
		Short: "Decode wire bytes and print them",
		Long: `Decode a wire format message and print it in readable form.

Use "-" as the file to read standard input. With --hex the input is hex
text, as printed by encode.

Examples:
  oefq decode query full_weather.bin
  oefq encode ./specs query full_weather | head -1 | oefq decode --hex query -`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Hex, "hex", false, "input is hex encoded")

	return cmd
}

func runDecode(opts *DecodeOptions, kind, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if !slices.Contains(decodableKinds, kind) {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidArgs,
			fmt.Sprintf("invalid kind %q: must be one of %v", kind, decodableKinds), nil)
	}

	data, err := readInput(cmd, path)
	if err != nil {
		return formatter.Fail(ExitCommandError, compiler.ErrCodeNotFound, err.Error(), nil)
	}
	if opts.Hex {
		data, err = hex.DecodeString(strings.TrimSpace(string(data)))
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeDecodeFailed,
				fmt.Sprintf("invalid hex input: %v", err), nil)
		}
	}
	formatter.VerboseLog("Decoding %d byte(s) as %s", len(data), kind)

	result, err := decodeMessage(kind, data)
	if err != nil {
		var details any
		var de *wire.DecodeError
		if errors.As(err, &de) {
			details = map[string]string{"reason": string(de.Code)}
		}
		return formatter.Fail(ExitFailure, ErrCodeDecodeFailed, err.Error(), details)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintln(formatter.Writer, result.Text)
	if result.ID != "" {
		fmt.Fprintf(formatter.Writer, "id: %s\n", result.ID)
	}
	return nil
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return data, nil
}

func decodeMessage(kind string, data []byte) (DecodeResult, error) {
	result := DecodeResult{Kind: kind}

	switch kind {
	case KindModel:
		m, err := wire.DecodeDataModel(data)
		if err != nil {
			return result, err
		}
		id, err := wire.DataModelID(m)
		if err != nil {
			return result, err
		}
		result.ID = id
		result.Model = m.Name()
		result.Text = formatModel(m)
	case KindDescription:
		d, err := wire.DecodeDescription(data)
		if err != nil {
			return result, err
		}
		result.ID = wire.DescriptionIDBytes(data)
		if d.Model() != nil {
			result.Model = d.Model().Name()
		}
		result.Values = make(map[string]any, d.Len())
		for _, p := range d.Pairs() {
			result.Values[p.Key] = schema.Native(p.Value)
		}
		result.Text = formatDescription(d)
	case KindQuery:
		q, err := wire.DecodeQuery(data)
		if err != nil {
			return result, err
		}
		result.ID = wire.QueryIDBytes(data)
		if q.Model() != nil {
			result.Model = q.Model().Name()
		}
		result.Text = q.String()
	case KindConstraint:
		c, err := wire.DecodeConstraint(data)
		if err != nil {
			return result, err
		}
		result.Text = c.String()
	case KindExpression:
		e, err := wire.DecodeExpression(data)
		if err != nil {
			return result, err
		}
		result.Text = query.FormatExpression(e)
	}
	return result, nil
}

// formatModel renders a model one attribute per line.
func formatModel(m *schema.DataModel) string {
	var b strings.Builder
	fmt.Fprintf(&b, "model %s", m.Name())
	if m.Description() != "" {
		fmt.Fprintf(&b, ": %s", m.Description())
	}
	for _, a := range m.Attributes() {
		fmt.Fprintf(&b, "\n  %s %s", a.Name, a.Type)
		if a.Required {
			b.WriteString(" required")
		}
		if a.Description != "" {
			fmt.Fprintf(&b, " - %s", a.Description)
		}
	}
	return b.String()
}

// formatDescription renders a description one pair per line.
func formatDescription(d *schema.Description) string {
	var b strings.Builder
	b.WriteString("description")
	if d.Model() != nil {
		fmt.Fprintf(&b, " (model %s)", d.Model().Name())
	}
	for _, p := range d.Pairs() {
		fmt.Fprintf(&b, "\n  %s = %s", p.Key, schema.Format(p.Value))
	}
	return b.String()
}
