package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/oefquery/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid        bool                       `json:"valid"`
	Models       int                        `json:"models"`
	Descriptions int                        `json:"descriptions"`
	Queries      int                        `json:"queries"`
	Errors       []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <specs-dir>",
		Short: "Compile and lint specs",
		Long: `Compile every model, description and query in a CUE spec directory
and lint the results.

All compile errors are collected rather than stopping at the first.
Lint checks flag specs that compile but are almost certainly mistakes,
such as queries no description can ever satisfy.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	specs, loadErrors := compiler.LoadDir(specsDir, compiler.LoadModeCollectAll)

	// Nothing compiled: directory missing, no files, CUE syntax errors
	if specs == nil {
		var loadErr *compiler.LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return formatter.Fail(ExitCommandError, loadErr.Code, loadErr.Message, nil)
		}
		return formatter.Fail(ExitCommandError, compiler.ErrCodeGeneric, loadErrors[0].Error(), nil)
	}

	formatter.VerboseLog("Compiled %d model(s), %d description(s), %d query(ies) from %s",
		len(specs.Models), len(specs.Descriptions), len(specs.Queries), specsDir)

	var validationErrors []compiler.ValidationError
	for _, err := range loadErrors {
		validationErrors = append(validationErrors, toValidationError(err))
	}
	validationErrors = append(validationErrors, compiler.Validate(specs)...)

	result := ValidationResult{
		Valid:        len(validationErrors) == 0,
		Models:       len(specs.Models),
		Descriptions: len(specs.Descriptions),
		Queries:      len(specs.Queries),
		Errors:       validationErrors,
	}
	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// toValidationError converts a compile or load error into a finding so
// both kinds are reported together.
func toValidationError(err error) compiler.ValidationError {
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		return compiler.ValidationError{
			Field:   ce.Field,
			Message: ce.Message,
			Code:    ErrCodeCompileFailed,
			Line:    lineOf(ce.Pos),
		}
	}

	var le *compiler.LoadError
	if errors.As(err, &le) {
		return compiler.ValidationError{
			Field:   "load",
			Message: le.Message,
			Code:    le.Code,
			Line:    lineOf(le.Pos),
		}
	}

	return compiler.ValidationError{
		Field:   "specs",
		Message: err.Error(),
		Code:    compiler.ErrCodeGeneric,
	}
}

// lineOf extracts the line number from a CUE position, 0 when unknown.
func lineOf(pos interface {
	IsValid() bool
	Line() int
}) int {
	if pos.IsValid() {
		return pos.Line()
	}
	return 0
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintln(formatter.Writer, "✓ All specs valid")
	fmt.Fprintf(formatter.Writer, "  %d model(s), %d description(s), %d query(ies)\n",
		result.Models, result.Descriptions, result.Queries)
	return nil
}

// outputValidationErrors outputs all findings.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.Format == "json" {
		if err := formatter.writeJSON(CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	return exitErr
}
