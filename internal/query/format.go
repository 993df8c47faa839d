package query

import (
	"strings"

	"github.com/roach88/oefquery/internal/schema"
)

// String renders the relation as "<op> <value>".
func (r Relation) String() string {
	return r.op.String() + " " + schema.Format(r.value)
}

// String renders the set as `in ["a", "b"]`.
func (s Set) String() string {
	parts := make([]string, len(s.values))
	for i, v := range s.values {
		parts[i] = schema.Format(v)
	}
	return s.op.String() + " [" + strings.Join(parts, ", ") + "]"
}

// String renders the range as "between <low> and <high>".
func (r Range) String() string {
	return "between " + schema.Format(r.low) + " and " + schema.Format(r.high)
}

// String renders the conjunction in parentheses.
func (a And) String() string { return joinOperands(a.operands, " and ") }

// String renders the disjunction in parentheses.
func (o Or) String() string { return joinOperands(o.operands, " or ") }

func joinOperands(ops []Expression, sep string) string {
	parts := make([]string, len(ops))
	for i, op := range ops {
		parts[i] = FormatExpression(op)
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// FormatExpression renders any expression, nil included.
func FormatExpression(expr Expression) string {
	if s, ok := expr.(interface{ String() string }); ok {
		return s.String()
	}
	return "<nil>"
}

// String renders the constraint as "<attribute> <expression>".
func (c Constraint) String() string {
	return c.attribute.Name + " " + FormatExpression(c.expr)
}

// String renders the query one constraint per line, prefixed by the model
// name when scoped.
func (q *Query) String() string {
	var b strings.Builder
	if q.model != nil {
		b.WriteString("model ")
		b.WriteString(q.model.Name())
		b.WriteByte('\n')
	}
	if len(q.constraints) == 0 {
		b.WriteString("(match all)")
		return b.String()
	}
	for i, c := range q.constraints {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(c.String())
	}
	return b.String()
}
