package query

import (
	"cmp"
	"math"

	"github.com/roach88/oefquery/internal/schema"
)

// Check reports whether d satisfies the constraint.
// A description that does not carry the attribute never satisfies it,
// whatever the expression (NotEq and NotIn included).
func (c Constraint) Check(d *schema.Description) bool {
	if d == nil {
		return false
	}
	v, ok := d.Get(c.attribute.Name)
	if !ok {
		return false
	}
	return Match(c.expr, v)
}

// Match evaluates an expression tree against one attribute value.
// It never panics: nil values, unknown nodes and incomparable types all
// evaluate to false.
func Match(expr Expression, v schema.Value) bool {
	if v == nil {
		return false
	}

	switch e := expr.(type) {
	case Relation:
		return matchRelation(e, v)
	case Set:
		return matchSet(e, v)
	case Range:
		return matchRange(e, v)
	case And:
		if len(e.operands) == 0 {
			return false
		}
		for _, op := range e.operands {
			if !Match(op, v) {
				return false
			}
		}
		return true
	case Or:
		for _, op := range e.operands {
			if Match(op, v) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func matchRelation(r Relation, v schema.Value) bool {
	c, ok := compare(v, r.value)
	if !ok {
		return false
	}

	if v.Type() == schema.TypeBool {
		switch r.op {
		case OpEq:
			return c == 0
		case OpNotEq:
			return c != 0
		default:
			return false
		}
	}

	switch r.op {
	case OpEq:
		return c == 0
	case OpNotEq:
		return c != 0
	case OpLt:
		return c < 0
	case OpLtEq:
		return c <= 0
	case OpGt:
		return c > 0
	case OpGtEq:
		return c >= 0
	default:
		return false
	}
}

func matchSet(s Set, v schema.Value) bool {
	found := false
	for _, elem := range s.values {
		if schema.Equal(v, elem) {
			found = true
			break
		}
	}

	switch s.op {
	case OpIn:
		return found
	case OpNotIn:
		return !found
	default:
		return false
	}
}

func matchRange(r Range, v schema.Value) bool {
	if r.low == nil || r.high == nil {
		return false
	}
	lo, ok := compare(v, r.low)
	if !ok {
		return false
	}
	hi, ok := compare(v, r.high)
	if !ok {
		return false
	}
	return lo >= 0 && hi <= 0
}

// compare orders the stored value a against the constraint value b. ok is
// false when the two are incomparable: different types, a nil side or a NaN.
// A stored Int widens to meet a Float; a stored Float is never compared
// with an Int.
func compare(a, b schema.Value) (c int, ok bool) {
	switch x := a.(type) {
	case schema.Int:
		switch y := b.(type) {
		case schema.Int:
			return cmp.Compare(x, y), true
		case schema.Float:
			return compareFloat(float64(x), float64(y))
		}
	case schema.Float:
		if y, isFloat := b.(schema.Float); isFloat {
			return compareFloat(float64(x), float64(y))
		}
	case schema.String:
		if y, isString := b.(schema.String); isString {
			return cmp.Compare(x, y), true
		}
	case schema.Bool:
		if y, isBool := b.(schema.Bool); isBool {
			switch {
			case x == y:
				return 0, true
			case !bool(x):
				return -1, true
			default:
				return 1, true
			}
		}
	}
	return 0, false
}

func compareFloat(x, y float64) (int, bool) {
	if math.IsNaN(x) || math.IsNaN(y) {
		return 0, false
	}
	return cmp.Compare(x, y), true
}
