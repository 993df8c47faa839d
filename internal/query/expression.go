package query

import (
	"fmt"
	"math"

	"github.com/roach88/oefquery/internal/schema"
)

// Expression is a node of a constraint tree.
//
// This is a sealed interface - only Relation, Set, Range, And and Or
// implement it. Trees are built bottom-up from immutable values, so they
// cannot contain cycles.
type Expression interface {
	expressionNode() // Marker method - seals interface to this package
}

// RelationOp is the operator of a Relation.
// The numbering matches the wire enum and must not change.
type RelationOp int32

const (
	OpEq    RelationOp = 0
	OpLt    RelationOp = 1
	OpLtEq  RelationOp = 2
	OpGt    RelationOp = 3
	OpGtEq  RelationOp = 4
	OpNotEq RelationOp = 5
)

var relationSymbols = map[RelationOp]string{
	OpEq:    "==",
	OpLt:    "<",
	OpLtEq:  "<=",
	OpGt:    ">",
	OpGtEq:  ">=",
	OpNotEq: "!=",
}

// String returns the operator symbol.
func (op RelationOp) String() string {
	if s, ok := relationSymbols[op]; ok {
		return s
	}
	return fmt.Sprintf("relop(%d)", int32(op))
}

// Valid reports whether op is a declared operator.
func (op RelationOp) Valid() bool {
	_, ok := relationSymbols[op]
	return ok
}

// SetOp is the operator of a Set.
// The numbering matches the wire enum and must not change.
type SetOp int32

const (
	OpIn    SetOp = 0
	OpNotIn SetOp = 1
)

// String returns the operator keyword.
func (op SetOp) String() string {
	switch op {
	case OpIn:
		return "in"
	case OpNotIn:
		return "not in"
	default:
		return fmt.Sprintf("setop(%d)", int32(op))
	}
}

// Valid reports whether op is a declared operator.
func (op SetOp) Valid() bool {
	return op == OpIn || op == OpNotIn
}

// Relation compares the attribute value with a single value.
type Relation struct {
	op    RelationOp
	value schema.Value
}

func (Relation) expressionNode() {}

// NewRelation builds a relation. The value must be non-nil.
func NewRelation(op RelationOp, value schema.Value) (Relation, error) {
	r := Relation{op: op, value: value}
	if err := validateRelation(r); err != nil {
		return Relation{}, err
	}
	return r, nil
}

// Eq matches values equal to v.
func Eq(v schema.Value) Relation { return Relation{op: OpEq, value: v} }

// NotEq matches values different from v.
func NotEq(v schema.Value) Relation { return Relation{op: OpNotEq, value: v} }

// Lt matches values strictly less than v.
func Lt(v schema.Value) Relation { return Relation{op: OpLt, value: v} }

// LtEq matches values less than or equal to v.
func LtEq(v schema.Value) Relation { return Relation{op: OpLtEq, value: v} }

// Gt matches values strictly greater than v.
func Gt(v schema.Value) Relation { return Relation{op: OpGt, value: v} }

// GtEq matches values greater than or equal to v.
func GtEq(v schema.Value) Relation { return Relation{op: OpGtEq, value: v} }

// Op returns the relation operator.
func (r Relation) Op() RelationOp { return r.op }

// Value returns the right-hand value.
func (r Relation) Value() schema.Value { return r.value }

// Set tests membership of the attribute value in a list of values that all
// share one type. An empty set is typed string.
type Set struct {
	op       SetOp
	elemType schema.AttributeType
	values   []schema.Value
}

func (Set) expressionNode() {}

// NewSet builds a set constraint, taking the element type from the first
// value. All values must share that type exactly.
func NewSet(op SetOp, values ...schema.Value) (Set, error) {
	elemType := schema.TypeString
	if len(values) > 0 && values[0] != nil {
		elemType = values[0].Type()
	}
	return NewSetOf(op, elemType, values...)
}

// NewSetOf builds a set constraint with an explicit element type, which
// matters only for the empty set.
func NewSetOf(op SetOp, elemType schema.AttributeType, values ...schema.Value) (Set, error) {
	vals := make([]schema.Value, len(values))
	copy(vals, values)
	s := Set{op: op, elemType: elemType, values: vals}
	if err := validateSet(s); err != nil {
		return Set{}, err
	}
	return s, nil
}

// In builds an In set. See NewSet.
func In(values ...schema.Value) (Set, error) { return NewSet(OpIn, values...) }

// NotIn builds a NotIn set. See NewSet.
func NotIn(values ...schema.Value) (Set, error) { return NewSet(OpNotIn, values...) }

// Op returns the set operator.
func (s Set) Op() SetOp { return s.op }

// ElemType returns the type shared by all values.
func (s Set) ElemType() schema.AttributeType { return s.elemType }

// Values returns a copy of the set values in construction order.
func (s Set) Values() []schema.Value {
	out := make([]schema.Value, len(s.values))
	copy(out, s.values)
	return out
}

// Range matches values in the inclusive interval [low, high].
// Bounds are both Int, both Float or both String.
type Range struct {
	low  schema.Value
	high schema.Value
}

func (Range) expressionNode() {}

// NewRange builds a range.
// Fails with TypeMismatch when the bounds differ in type or are bools, and
// with InvalidRange when low > high (or a bound is NaN).
func NewRange(low, high schema.Value) (Range, error) {
	r := Range{low: low, high: high}
	if err := validateRange(r); err != nil {
		return Range{}, err
	}
	return r, nil
}

// Low returns the lower bound.
func (r Range) Low() schema.Value { return r.low }

// High returns the upper bound.
func (r Range) High() schema.Value { return r.high }

// Type returns the bound type.
func (r Range) Type() schema.AttributeType { return r.low.Type() }

// And is satisfied when every operand is.
type And struct {
	operands []Expression
}

func (And) expressionNode() {}

// NewAnd builds a conjunction. Fails with EmptyOperands when no operands are
// given.
func NewAnd(operands ...Expression) (And, error) {
	a := And{operands: copyOperands(operands)}
	if _, err := validateOperands("and", a.operands); err != nil {
		return And{}, err
	}
	return a, nil
}

// Operands returns a copy of the operands in construction order.
func (a And) Operands() []Expression { return copyOperands(a.operands) }

// Or is satisfied when at least one operand is.
type Or struct {
	operands []Expression
}

func (Or) expressionNode() {}

// NewOr builds a disjunction. Fails with EmptyOperands when no operands are
// given.
func NewOr(operands ...Expression) (Or, error) {
	o := Or{operands: copyOperands(operands)}
	if _, err := validateOperands("or", o.operands); err != nil {
		return Or{}, err
	}
	return o, nil
}

// Operands returns a copy of the operands in construction order.
func (o Or) Operands() []Expression { return copyOperands(o.operands) }

func copyOperands(in []Expression) []Expression {
	out := make([]Expression, len(in))
	copy(out, in)
	return out
}

// Must unwraps a constructor result, panicking on error.
// Use only in tests or for package-level fixtures.
func Must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// MaxDepth bounds how many And/Or levels a tree may nest. A leaf sits at
// depth 0.
const MaxDepth = 100

// ValidateExpression checks the structural invariants of a tree: non-nil
// values and operands, declared operators, homogeneous sets, ordered ranges,
// non-empty combinators and nesting within MaxDepth. It is what every
// constructor runs, exposed for trees assembled from the convenience helpers.
func ValidateExpression(expr Expression) error {
	_, err := validate(expr)
	return err
}

// validate checks expr and returns its nesting depth.
func validate(expr Expression) (int, error) {
	switch e := expr.(type) {
	case Relation:
		return 0, validateRelation(e)
	case Set:
		return 0, validateSet(e)
	case Range:
		return 0, validateRange(e)
	case And:
		return validateOperands("and", e.operands)
	case Or:
		return validateOperands("or", e.operands)
	case nil:
		return 0, schema.Errorf(schema.CodeTypeMismatch, "", "nil expression")
	default:
		return 0, schema.Errorf(schema.CodeTypeMismatch, "", "unknown expression type %T", expr)
	}
}

func validateRelation(r Relation) error {
	if !r.op.Valid() {
		return schema.Errorf(schema.CodeTypeMismatch, "", "undeclared relation operator %d", int32(r.op))
	}
	if r.value == nil {
		return schema.Errorf(schema.CodeTypeMismatch, "", "relation %s has no value", r.op)
	}
	return nil
}

func validateSet(s Set) error {
	if !s.op.Valid() {
		return schema.Errorf(schema.CodeTypeMismatch, "", "undeclared set operator %d", int32(s.op))
	}
	if !s.elemType.Valid() {
		return schema.Errorf(schema.CodeTypeMismatch, "", "undeclared set element type %d", int32(s.elemType))
	}
	for i, v := range s.values {
		if v == nil {
			return schema.Errorf(schema.CodeTypeMismatch, "", "set value %d is nil", i)
		}
		if v.Type() != s.elemType {
			return schema.Errorf(schema.CodeTypeMismatch, "",
				"set value %d is %s, set holds %s", i, v.Type(), s.elemType)
		}
	}
	return nil
}

func validateRange(r Range) error {
	if r.low == nil || r.high == nil {
		return schema.Errorf(schema.CodeTypeMismatch, "", "range bounds must be non-nil")
	}
	if r.low.Type() != r.high.Type() {
		return schema.Errorf(schema.CodeTypeMismatch, "",
			"range bounds differ in type: %s and %s", r.low.Type(), r.high.Type())
	}

	switch low := r.low.(type) {
	case schema.Int:
		if low > r.high.(schema.Int) {
			return invalidRange(r)
		}
	case schema.Float:
		high := r.high.(schema.Float)
		if math.IsNaN(float64(low)) || math.IsNaN(float64(high)) || low > high {
			return invalidRange(r)
		}
	case schema.String:
		if low > r.high.(schema.String) {
			return invalidRange(r)
		}
	default:
		return schema.Errorf(schema.CodeTypeMismatch, "", "range over %s is not supported", r.low.Type())
	}
	return nil
}

func invalidRange(r Range) error {
	return schema.Errorf(schema.CodeInvalidRange, "",
		"range low %s exceeds high %s", schema.Format(r.low), schema.Format(r.high))
}

func validateOperands(kind string, operands []Expression) (int, error) {
	if len(operands) == 0 {
		return 0, schema.Errorf(schema.CodeEmptyOperands, "", "%s requires at least one operand", kind)
	}
	deepest := 0
	for _, op := range operands {
		d, err := validate(op)
		if err != nil {
			return 0, err
		}
		deepest = max(deepest, d)
	}
	if deepest+1 > MaxDepth {
		return 0, schema.Errorf(schema.CodeNestingTooDeep, "", "%s nests deeper than %d levels", kind, MaxDepth)
	}
	return deepest + 1, nil
}
