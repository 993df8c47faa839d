package wire

import (
	"errors"
	"fmt"
)

// DecodeErrorCode categorizes decode failures.
type DecodeErrorCode string

const (
	// CodeMalformed: truncated buffer, wrong wire type for a known field,
	// missing required field or nesting too deep.
	CodeMalformed DecodeErrorCode = "MALFORMED"

	// CodeUnknownTypeTag: an empty oneof, or an enum number this package
	// does not know (attribute type, operator).
	CodeUnknownTypeTag DecodeErrorCode = "UNKNOWN_TYPE_TAG"
)

// DecodeError reports a buffer that does not hold a well-formed message.
type DecodeError struct {
	// Code identifies the error category.
	Code DecodeErrorCode

	// Message names the message and field involved.
	Message string

	// Err is the underlying protowire parse error, if any.
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying parse error.
func (e *DecodeError) Unwrap() error { return e.Err }

func malformed(format string, args ...any) *DecodeError {
	return &DecodeError{Code: CodeMalformed, Message: fmt.Sprintf(format, args...)}
}

func unknownTag(format string, args ...any) *DecodeError {
	return &DecodeError{Code: CodeUnknownTypeTag, Message: fmt.Sprintf(format, args...)}
}

// IsMalformed returns true if err is (or wraps) a MALFORMED decode error.
func IsMalformed(err error) bool {
	var de *DecodeError
	return errors.As(err, &de) && de.Code == CodeMalformed
}

// IsUnknownTypeTag returns true if err is (or wraps) an UNKNOWN_TYPE_TAG
// decode error.
func IsUnknownTypeTag(err error) bool {
	var de *DecodeError
	return errors.As(err, &de) && de.Code == CodeUnknownTypeTag
}
