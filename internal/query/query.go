package query

import (
	"github.com/roach88/oefquery/internal/schema"
)

// Query is an ordered conjunction of constraints, optionally scoped to a
// data model. Build with New.
type Query struct {
	constraints []Constraint
	model       *schema.DataModel
}

// New validates the constraints and returns the query. Constraint order is
// preserved.
//
// When model is non-nil every constrained attribute must be declared by the
// model (UnknownAttribute) and every value must fit the declared type
// (TypeMismatch).
func New(constraints []Constraint, model *schema.DataModel) (*Query, error) {
	for _, c := range constraints {
		if err := c.attribute.Validate(); err != nil {
			return nil, err
		}
		if err := ValidateExpression(c.expr); err != nil {
			return nil, withAttribute(err, c.attribute.Name)
		}
		if err := checkTypes(c.attribute.Name, c.attribute.Type, c.expr); err != nil {
			return nil, err
		}
		if model == nil {
			continue
		}
		declared, ok := model.Attribute(c.attribute.Name)
		if !ok {
			return nil, schema.Errorf(schema.CodeUnknownAttribute, c.attribute.Name,
				"constraint on %q: attribute not declared by model %q", c.attribute.Name, model.Name())
		}
		if err := checkTypes(c.attribute.Name, declared.Type, c.expr); err != nil {
			return nil, err
		}
	}

	cs := make([]Constraint, len(constraints))
	copy(cs, constraints)
	return &Query{constraints: cs, model: model}, nil
}

// MustQuery is like New but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustQuery(constraints []Constraint, model *schema.DataModel) *Query {
	return Must(New(constraints, model))
}

// Constraints returns a copy of the constraints in construction order.
func (q *Query) Constraints() []Constraint {
	out := make([]Constraint, len(q.constraints))
	copy(out, q.constraints)
	return out
}

// Model returns the data model the query is scoped to, or nil.
func (q *Query) Model() *schema.DataModel { return q.model }

// Len returns the number of constraints.
func (q *Query) Len() int { return len(q.constraints) }

// Check reports whether d satisfies every constraint. An empty query
// matches every description.
//
// Models only scope the query; when the query and the description declare
// different models the check is by attribute name alone. Use Compatible to
// require agreement.
func (q *Query) Check(d *schema.Description) bool {
	if d == nil {
		return false
	}
	for _, c := range q.constraints {
		if !c.Check(d) {
			return false
		}
	}
	return true
}

// Compatible reports whether d may be searched under q's model: either side
// declares no model, or both declare the same model (by identity or
// structure).
func (q *Query) Compatible(d *schema.Description) bool {
	if d == nil {
		return false
	}
	if q.model == nil || d.Model() == nil {
		return true
	}
	return q.model.Equal(d.Model())
}

// Equal reports structural equality, constraint order included.
func (q *Query) Equal(other *Query) bool {
	if q == other {
		return true
	}
	if q == nil || other == nil || len(q.constraints) != len(other.constraints) {
		return false
	}
	for i := range q.constraints {
		if !q.constraints[i].Equal(other.constraints[i]) {
			return false
		}
	}
	return q.model.Equal(other.model)
}
