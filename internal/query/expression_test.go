package query

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/oefquery/internal/schema"
)

func TestNewRange_Validation(t *testing.T) {
	tests := []struct {
		name string
		low  schema.Value
		high schema.Value
		code schema.ErrorCode
	}{
		{"low above high", schema.Int(1970), schema.Int(1960), schema.CodeInvalidRange},
		{"string low above high", schema.String("J"), schema.String("I"), schema.CodeInvalidRange},
		{"float NaN", schema.Float(math.NaN()), schema.Float(1), schema.CodeInvalidRange},
		{"mixed types", schema.Int(1), schema.Float(2), schema.CodeTypeMismatch},
		{"bool bounds", schema.Bool(false), schema.Bool(true), schema.CodeTypeMismatch},
		{"nil bound", nil, schema.Int(1), schema.CodeTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRange(tt.low, tt.high)
			require.Error(t, err)
			assert.Equal(t, tt.code, schema.CodeOf(err))
		})
	}

	r, err := NewRange(schema.Int(1960), schema.Int(1960))
	require.NoError(t, err, "a single-point range is valid")
	assert.Equal(t, schema.TypeInt, r.Type())
}

func TestNewSet_Validation(t *testing.T) {
	s, err := In(schema.String("horror"), schema.String("sci-fi"))
	require.NoError(t, err)
	assert.Equal(t, schema.TypeString, s.ElemType())
	assert.Equal(t, []schema.Value{schema.String("horror"), schema.String("sci-fi")}, s.Values())

	_, err = In(schema.String("horror"), schema.Int(1))
	assert.True(t, schema.IsTypeMismatch(err), "set values share one type")

	_, err = NotIn(schema.Int(1), schema.Float(2))
	assert.True(t, schema.IsTypeMismatch(err), "no promotion inside a set")

	empty, err := In()
	require.NoError(t, err)
	assert.Equal(t, schema.TypeString, empty.ElemType(), "empty set is typed string")

	typed, err := NewSetOf(OpNotIn, schema.TypeInt)
	require.NoError(t, err)
	assert.Equal(t, schema.TypeInt, typed.ElemType())

	_, err = NewSetOf(SetOp(7), schema.TypeInt)
	assert.Error(t, err)
}

func TestNewAndOr_EmptyOperands(t *testing.T) {
	_, err := NewAnd()
	assert.True(t, schema.IsEmptyOperands(err))

	_, err = NewOr()
	assert.True(t, schema.IsEmptyOperands(err))

	nested, err := NewOr(Must(NewAnd(Lt(schema.Int(1960)))), Gt(schema.Int(1970)))
	require.NoError(t, err)
	assert.Len(t, nested.Operands(), 2)

	_, err = NewAnd(Eq(schema.Int(1)), And{})
	assert.True(t, schema.IsEmptyOperands(err), "nested empty combinator is rejected")
}

func TestNewAndOr_NestingLimit(t *testing.T) {
	var expr Expression = Eq(schema.Int(1))
	for i := 0; i < MaxDepth; i++ {
		var err error
		if i%2 == 0 {
			expr, err = NewAnd(expr)
		} else {
			expr, err = NewOr(expr, Eq(schema.Int(2)))
		}
		require.NoError(t, err, "level %d", i+1)
	}
	require.NoError(t, ValidateExpression(expr))

	_, err := NewAnd(expr)
	require.Error(t, err)
	assert.True(t, schema.IsNestingTooDeep(err))
	assert.ErrorIs(t, err, schema.ErrNestingTooDeep)

	_, err = NewOr(Eq(schema.Int(3)), expr)
	assert.True(t, schema.IsNestingTooDeep(err), "the deepest operand decides")
}

func TestNewRelation(t *testing.T) {
	r, err := NewRelation(OpGtEq, schema.Int(2000))
	require.NoError(t, err)
	assert.Equal(t, OpGtEq, r.Op())
	assert.Equal(t, schema.Int(2000), r.Value())

	_, err = NewRelation(OpEq, nil)
	assert.Error(t, err)

	_, err = NewRelation(RelationOp(42), schema.Int(1))
	assert.Error(t, err)
}

func TestValidateExpression_ZeroValues(t *testing.T) {
	assert.Error(t, ValidateExpression(Relation{}))
	assert.Error(t, ValidateExpression(Range{}))
	assert.Error(t, ValidateExpression(And{}))
	assert.Error(t, ValidateExpression(Or{}))
	assert.Error(t, ValidateExpression(nil))
	assert.NoError(t, ValidateExpression(Set{}), "zero set is an empty In set")
}

func TestRelationOpWireNumbering(t *testing.T) {
	assert.Equal(t, RelationOp(0), OpEq)
	assert.Equal(t, RelationOp(1), OpLt)
	assert.Equal(t, RelationOp(2), OpLtEq)
	assert.Equal(t, RelationOp(3), OpGt)
	assert.Equal(t, RelationOp(4), OpGtEq)
	assert.Equal(t, RelationOp(5), OpNotEq)
	assert.Equal(t, SetOp(0), OpIn)
	assert.Equal(t, SetOp(1), OpNotIn)
}

func TestEqualExpression(t *testing.T) {
	a := Must(NewAnd(Must(NewRange(schema.String("I"), schema.String("J"))), NotEq(schema.String("It"))))
	b := Must(NewAnd(Must(NewRange(schema.String("I"), schema.String("J"))), NotEq(schema.String("It"))))
	c := Must(NewAnd(NotEq(schema.String("It")), Must(NewRange(schema.String("I"), schema.String("J")))))

	assert.True(t, EqualExpression(a, b))
	assert.False(t, EqualExpression(a, c), "operand order matters")
	assert.False(t, EqualExpression(Eq(schema.Int(1)), Eq(schema.Float(1))), "value type matters")
	assert.False(t, EqualExpression(a, Must(NewOr(a.Operands()...))))
	assert.True(t, EqualExpression(nil, nil))
}

func TestFormatExpression(t *testing.T) {
	tests := []struct {
		name     string
		expr     Expression
		expected string
	}{
		{"relation", Gt(schema.Float(4)), "> 4.0"},
		{"set", Must(In(schema.String("horror"), schema.String("sci-fi"))), `in ["horror", "sci-fi"]`},
		{"not in", Must(NotIn(schema.Int(1990), schema.Int(1995))), "not in [1990, 1995]"},
		{"range", Must(NewRange(schema.Int(1960), schema.Int(1970))), "between 1960 and 1970"},
		{"or", Must(NewOr(Lt(schema.Int(1960)), Gt(schema.Int(1970)))), "(< 1960 or > 1970)"},
		{"nil", nil, "<nil>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatExpression(tt.expr))
		})
	}
}
