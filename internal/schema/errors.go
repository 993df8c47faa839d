package schema

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes schema validation errors.
type ErrorCode string

const (
	// CodeDuplicateAttribute: two attributes (or two description values)
	// share a name.
	CodeDuplicateAttribute ErrorCode = "DUPLICATE_ATTRIBUTE"

	// CodeMissingAttribute: a required attribute is absent from a description.
	CodeMissingAttribute ErrorCode = "MISSING_ATTRIBUTE"

	// CodeUnknownAttribute: a value or constraint names an attribute the
	// data model does not declare.
	CodeUnknownAttribute ErrorCode = "UNKNOWN_ATTRIBUTE"

	// CodeTypeMismatch: a value's type disagrees with the declared or
	// expected type beyond the int to float promotion.
	CodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// CodeInvalidRange: a range whose low bound exceeds its high bound.
	CodeInvalidRange ErrorCode = "INVALID_RANGE"

	// CodeEmptyOperands: an And/Or with no operands.
	CodeEmptyOperands ErrorCode = "EMPTY_OPERANDS"

	// CodeNestingTooDeep: an And/Or tree nested beyond the codec's limit.
	CodeNestingTooDeep ErrorCode = "NESTING_TOO_DEEP"

	// CodeInvalidAttribute: an attribute schema that cannot exist (empty
	// name, undeclared type).
	CodeInvalidAttribute ErrorCode = "INVALID_ATTRIBUTE"
)

// ValidationError is returned by every validating constructor in schema and
// query. No partially built value is ever returned alongside it.
type ValidationError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Attribute names the offending attribute, if any.
	Attribute string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Attribute != "" {
		return fmt.Sprintf("%s: %s (attribute=%s)", e.Code, e.Message, e.Attribute)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any ValidationError with the same code, so the sentinels below
// work with errors.Is.
func (e *ValidationError) Is(target error) bool {
	var t *ValidationError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrDuplicateAttribute = &ValidationError{Code: CodeDuplicateAttribute, Message: "duplicate attribute"}
	ErrMissingAttribute   = &ValidationError{Code: CodeMissingAttribute, Message: "missing required attribute"}
	ErrUnknownAttribute   = &ValidationError{Code: CodeUnknownAttribute, Message: "unknown attribute"}
	ErrTypeMismatch       = &ValidationError{Code: CodeTypeMismatch, Message: "type mismatch"}
	ErrInvalidRange       = &ValidationError{Code: CodeInvalidRange, Message: "invalid range"}
	ErrEmptyOperands      = &ValidationError{Code: CodeEmptyOperands, Message: "empty operands"}
	ErrNestingTooDeep     = &ValidationError{Code: CodeNestingTooDeep, Message: "nesting too deep"}
	ErrInvalidAttribute   = &ValidationError{Code: CodeInvalidAttribute, Message: "invalid attribute"}
)

// Errorf builds a ValidationError for the given code.
func Errorf(code ErrorCode, attribute, format string, args ...any) *ValidationError {
	return &ValidationError{
		Code:      code,
		Attribute: attribute,
		Message:   fmt.Sprintf(format, args...),
	}
}

// CodeOf returns the code of the first ValidationError in err's chain, or ""
// if there is none.
func CodeOf(err error) ErrorCode {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code
	}
	return ""
}

// IsDuplicateAttribute returns true if err is a duplicate attribute error.
func IsDuplicateAttribute(err error) bool { return CodeOf(err) == CodeDuplicateAttribute }

// IsMissingAttribute returns true if err is a missing attribute error.
func IsMissingAttribute(err error) bool { return CodeOf(err) == CodeMissingAttribute }

// IsUnknownAttribute returns true if err is an unknown attribute error.
func IsUnknownAttribute(err error) bool { return CodeOf(err) == CodeUnknownAttribute }

// IsTypeMismatch returns true if err is a type mismatch error.
func IsTypeMismatch(err error) bool { return CodeOf(err) == CodeTypeMismatch }

// IsInvalidRange returns true if err is an invalid range error.
func IsInvalidRange(err error) bool { return CodeOf(err) == CodeInvalidRange }

// IsEmptyOperands returns true if err is an empty operands error.
func IsEmptyOperands(err error) bool { return CodeOf(err) == CodeEmptyOperands }

// IsNestingTooDeep returns true if err is a nesting depth error.
func IsNestingTooDeep(err error) bool { return CodeOf(err) == CodeNestingTooDeep }
