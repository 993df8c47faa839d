package compiler

import (
	"errors"
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError represents a compilation error with source position.
// Err holds the underlying model or query error when there is one, so
// schema.IsTypeMismatch and friends keep working through it.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
	Err     error
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *CompileError) Unwrap() error { return e.Err }

// wrapError attaches a field and position to a domain error.
func wrapError(field string, pos token.Pos, err error) error {
	var ce *CompileError
	if errors.As(err, &ce) {
		return err
	}
	return &CompileError{Field: field, Message: err.Error(), Pos: pos, Err: err}
}

// qualify prefixes the field of a compile error with the spec path it came
// from, e.g. "query.cold_places".
func qualify(prefix string, err error) error {
	var ce *CompileError
	if !errors.As(err, &ce) {
		return &CompileError{Field: prefix, Message: err.Error(), Err: err}
	}
	field := prefix
	if ce.Field != "" {
		field = prefix + "." + ce.Field
	}
	return &CompileError{Field: field, Message: ce.Message, Pos: ce.Pos, Err: ce.Err}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
