package query

import (
	"github.com/roach88/oefquery/internal/schema"
)

// Constraint pairs one attribute with one expression tree. It is the unit
// stored inside a Query.
type Constraint struct {
	attribute schema.AttributeSchema
	expr      Expression
}

// NewConstraint validates expr and checks that every value in it may stand
// where attr's type is declared (an Int is accepted for a Float attribute).
func NewConstraint(attr schema.AttributeSchema, expr Expression) (Constraint, error) {
	if err := attr.Validate(); err != nil {
		return Constraint{}, err
	}
	if err := ValidateExpression(expr); err != nil {
		return Constraint{}, withAttribute(err, attr.Name)
	}
	if err := checkTypes(attr.Name, attr.Type, expr); err != nil {
		return Constraint{}, err
	}
	return Constraint{attribute: attr, expr: expr}, nil
}

// On builds a constraint from a bare attribute name. The attribute type is
// inferred from the first leaf of expr (an empty set infers its element
// type), widened to float when the first leaf is an int and any leaf is a
// float. The attribute is not required.
func On(name string, expr Expression) (Constraint, error) {
	if err := ValidateExpression(expr); err != nil {
		return Constraint{}, withAttribute(err, name)
	}
	attr := schema.AttributeSchema{Name: name, Type: inferType(expr)}
	return NewConstraint(attr, expr)
}

// MustConstraint is like NewConstraint but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustConstraint(attr schema.AttributeSchema, expr Expression) Constraint {
	return Must(NewConstraint(attr, expr))
}

// Attribute returns the constrained attribute.
func (c Constraint) Attribute() schema.AttributeSchema { return c.attribute }

// Name returns the constrained attribute name.
func (c Constraint) Name() string { return c.attribute.Name }

// Expression returns the expression tree.
func (c Constraint) Expression() Expression { return c.expr }

func inferType(expr Expression) schema.AttributeType {
	typ := firstLeafType(expr)
	if typ == schema.TypeInt && hasFloatLeaf(expr) {
		return schema.TypeFloat
	}
	return typ
}

// firstLeafType returns the type of the first leaf, depth first.
func firstLeafType(expr Expression) schema.AttributeType {
	switch e := expr.(type) {
	case Relation:
		return e.value.Type()
	case Set:
		return e.elemType
	case Range:
		return e.low.Type()
	case And:
		return firstLeafType(e.operands[0])
	case Or:
		return firstLeafType(e.operands[0])
	default:
		return schema.TypeString
	}
}

func hasFloatLeaf(expr Expression) bool {
	var operands []Expression
	switch e := expr.(type) {
	case Relation:
		return e.value.Type() == schema.TypeFloat
	case Set:
		return len(e.values) > 0 && e.elemType == schema.TypeFloat
	case Range:
		return e.low.Type() == schema.TypeFloat
	case And:
		operands = e.operands
	case Or:
		operands = e.operands
	}
	for _, op := range operands {
		if hasFloatLeaf(op) {
			return true
		}
	}
	return false
}

// checkTypes verifies every leaf value against the declared type.
// Empty sets carry no values and are accepted for any attribute.
func checkTypes(name string, declared schema.AttributeType, expr Expression) error {
	mismatch := func(actual schema.AttributeType) error {
		return schema.Errorf(schema.CodeTypeMismatch, name,
			"constraint on %q compares against %s, attribute is %s", name, actual, declared)
	}

	switch e := expr.(type) {
	case Relation:
		if !declared.Accepts(e.value.Type()) {
			return mismatch(e.value.Type())
		}
	case Set:
		if len(e.values) > 0 && !declared.Accepts(e.elemType) {
			return mismatch(e.elemType)
		}
	case Range:
		if !declared.Accepts(e.low.Type()) {
			return mismatch(e.low.Type())
		}
	case And:
		for _, op := range e.operands {
			if err := checkTypes(name, declared, op); err != nil {
				return err
			}
		}
	case Or:
		for _, op := range e.operands {
			if err := checkTypes(name, declared, op); err != nil {
				return err
			}
		}
	}
	return nil
}

// withAttribute fills in the attribute name on a validation error raised
// below the constraint level.
func withAttribute(err error, name string) error {
	ve, ok := err.(*schema.ValidationError)
	if !ok || ve.Attribute != "" {
		return err
	}
	out := *ve
	out.Attribute = name
	return &out
}
