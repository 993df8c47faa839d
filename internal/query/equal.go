package query

import "github.com/roach88/oefquery/internal/schema"

// Equal reports whether two constraints have the same attribute schema and
// structurally equal expressions.
func (c Constraint) Equal(other Constraint) bool {
	return c.attribute == other.attribute && EqualExpression(c.expr, other.expr)
}

// EqualExpression reports structural equality of two trees. Values compare
// with schema.Identical (type included); operand order matters.
func EqualExpression(a, b Expression) bool {
	switch x := a.(type) {
	case Relation:
		y, ok := b.(Relation)
		return ok && x.op == y.op && schema.Identical(x.value, y.value)
	case Set:
		y, ok := b.(Set)
		if !ok || x.op != y.op || x.elemType != y.elemType || len(x.values) != len(y.values) {
			return false
		}
		for i := range x.values {
			if !schema.Identical(x.values[i], y.values[i]) {
				return false
			}
		}
		return true
	case Range:
		y, ok := b.(Range)
		return ok && schema.Identical(x.low, y.low) && schema.Identical(x.high, y.high)
	case And:
		y, ok := b.(And)
		return ok && equalOperands(x.operands, y.operands)
	case Or:
		y, ok := b.(Or)
		return ok && equalOperands(x.operands, y.operands)
	default:
		return a == nil && b == nil
	}
}

func equalOperands(a, b []Expression) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !EqualExpression(a[i], b[i]) {
			return false
		}
	}
	return true
}
