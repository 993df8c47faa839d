package compiler

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/roach88/oefquery/internal/query"
	"github.com/roach88/oefquery/internal/schema"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedType = "E100" // unsupported value passed to Validate

	// DataModel errors (E101-E109)
	ErrModelDescriptionEmpty = "E101" // model description is required
	ErrModelNoAttributes     = "E102" // at least one attribute required
	ErrAttributeName         = "E103" // attribute name is not an identifier
	ErrAttributeUndocumented = "E104" // attribute description is empty

	// Description errors (E110-E119)
	ErrDescriptionUnscoped = "E110" // description names no model
	ErrDescriptionEmpty    = "E111" // description holds no values

	// Query errors (E120-E129)
	ErrQueryUnscoped       = "E120" // query names no model
	ErrQueryEmpty          = "E121" // query has no constraints and matches everything
	ErrQueryUnsatisfiable  = "E122" // constraint can never match
	ErrDuplicateConstraint = "E123" // attribute constrained more than once
)

// ValidationError represents a lint finding on a compiled spec.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate lints a compiled model, description or query.
// Returns all findings (does not fail-fast). Values that compiled are
// always well-formed; these checks catch specs that are legal but almost
// certainly not what the author meant.
func Validate(v any) []ValidationError {
	switch s := v.(type) {
	case *schema.DataModel:
		return validateModel(s)
	case *schema.Description:
		return validateDescription(s)
	case *query.Query:
		return validateQuery(s)
	case *Specs:
		return validateSpecs(s)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type: %T", v),
			Code:    ErrUnsupportedType,
		}}
	}
}

func validateSpecs(s *Specs) []ValidationError {
	var errs []ValidationError
	prefix := func(section, name string, found []ValidationError) {
		for _, e := range found {
			e.Field = section + "." + name + "." + e.Field
			errs = append(errs, e)
		}
	}
	for _, m := range s.Models {
		prefix(SectionModel, m.Name(), validateModel(m))
	}
	for _, d := range s.Descriptions {
		prefix(SectionDescription, d.Name, validateDescription(d.Description))
	}
	for _, q := range s.Queries {
		prefix(SectionQuery, q.Name, validateQuery(q.Query))
	}
	return errs
}

// attributeNamePattern matches names usable unquoted in CUE and SQL.
var attributeNamePattern = regexp.MustCompile(`^[\p{L}_][\p{L}\p{N}_]*$`)

func validateModel(m *schema.DataModel) []ValidationError {
	var errs []ValidationError

	// E101: description is required
	if strings.TrimSpace(m.Description()) == "" {
		errs = append(errs, ValidationError{
			Field:   "description",
			Message: "description is required and must be non-empty",
			Code:    ErrModelDescriptionEmpty,
		})
	}

	// E102: at least one attribute
	if m.Len() == 0 {
		errs = append(errs, ValidationError{
			Field:   "attributes",
			Message: "at least one attribute is required",
			Code:    ErrModelNoAttributes,
		})
	}

	for _, attr := range m.Attributes() {
		field := "attributes." + attr.Name
		if !attributeNamePattern.MatchString(attr.Name) {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("attribute name %q should be a letter or underscore followed by letters, digits or underscores", attr.Name),
				Code:    ErrAttributeName,
			})
		}
		if strings.TrimSpace(attr.Description) == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".description",
				Message: fmt.Sprintf("attribute %q has no description", attr.Name),
				Code:    ErrAttributeUndocumented,
			})
		}
	}

	return errs
}

func validateDescription(d *schema.Description) []ValidationError {
	var errs []ValidationError

	if d.Model() == nil {
		errs = append(errs, ValidationError{
			Field:   "model",
			Message: "description names no model and is only found by unscoped queries",
			Code:    ErrDescriptionUnscoped,
		})
	}
	if d.Len() == 0 {
		errs = append(errs, ValidationError{
			Field:   "values",
			Message: "description holds no values and fails every constraint",
			Code:    ErrDescriptionEmpty,
		})
	}

	return errs
}

func validateQuery(q *query.Query) []ValidationError {
	var errs []ValidationError

	if q.Model() == nil {
		errs = append(errs, ValidationError{
			Field:   "model",
			Message: "query names no model; attribute types are inferred from values",
			Code:    ErrQueryUnscoped,
		})
	}
	if q.Len() == 0 {
		errs = append(errs, ValidationError{
			Field:   "constraints",
			Message: "query has no constraints and matches every description",
			Code:    ErrQueryEmpty,
		})
	}

	seen := make(map[string]int)
	for i, c := range q.Constraints() {
		field := fmt.Sprintf("constraints[%d]", i)

		if first, ok := seen[c.Name()]; ok {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("attribute %q already constrained at constraints[%d]; combine with and", c.Name(), first),
				Code:    ErrDuplicateConstraint,
			})
		} else {
			seen[c.Name()] = i
		}

		if reason, ok := unsatisfiable(c.Expression()); ok {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("constraint on %q can never match: %s", c.Name(), reason),
				Code:    ErrQueryUnsatisfiable,
			})
		}
	}

	return errs
}

// unsatisfiable spots expressions that no value can satisfy. It is not
// exhaustive: an And of disjoint ranges goes unnoticed.
func unsatisfiable(expr query.Expression) (string, bool) {
	switch e := expr.(type) {
	case query.Set:
		if e.Op() == query.OpIn && len(e.Values()) == 0 {
			return "in []", true
		}
	case query.Relation:
		if f, ok := e.Value().(schema.Float); ok && math.IsNaN(float64(f)) {
			return "comparison with NaN", true
		}
	case query.And:
		for _, op := range e.Operands() {
			if reason, ok := unsatisfiable(op); ok {
				return reason, true
			}
		}
	case query.Or:
		var reason string
		for _, op := range e.Operands() {
			r, ok := unsatisfiable(op)
			if !ok {
				return "", false
			}
			reason = r
		}
		return reason, true
	}
	return "", false
}
