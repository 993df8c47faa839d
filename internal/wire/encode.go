package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/roach88/oefquery/internal/query"
	"github.com/roach88/oefquery/internal/schema"
)

// Field numbers, per message.
const (
	attrName        protowire.Number = 1
	attrType        protowire.Number = 2
	attrRequired    protowire.Number = 3
	attrDescription protowire.Number = 4

	modelName        protowire.Number = 1
	modelAttributes  protowire.Number = 2
	modelDescription protowire.Number = 3

	valueString protowire.Number = 1
	valueDouble protowire.Number = 2
	valueBool   protowire.Number = 3
	valueInt    protowire.Number = 4

	kvKey   protowire.Number = 1
	kvValue protowire.Number = 2

	instanceModel  protowire.Number = 1
	instanceValues protowire.Number = 2

	pairFirst  protowire.Number = 1
	pairSecond protowire.Number = 2

	rangeString protowire.Number = 1
	rangeInt    protowire.Number = 2
	rangeDouble protowire.Number = 3

	relationOp  protowire.Number = 1
	relationVal protowire.Number = 2

	setOp   protowire.Number = 1
	setVals protowire.Number = 2

	// Set.Values oneof; each case is a message holding "repeated vals = 1".
	valuesString protowire.Number = 1
	valuesDouble protowire.Number = 2
	valuesBool   protowire.Number = 3
	valuesInt    protowire.Number = 4
	listVals     protowire.Number = 1

	exprOr       protowire.Number = 1
	exprAnd      protowire.Number = 2
	exprSet      protowire.Number = 3
	exprRange    protowire.Number = 4
	exprRelation protowire.Number = 5
	operandsExpr protowire.Number = 1

	constraintAttribute protowire.Number = 1
	constraintExpr      protowire.Number = 2

	queryConstraints protowire.Number = 1
	queryModel       protowire.Number = 2
)

// EncodeDataModel returns the canonical bytes of m.
func EncodeDataModel(m *schema.DataModel) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("encode data model: nil model")
	}
	return appendDataModel(nil, m), nil
}

// EncodeDescription returns the canonical bytes of d. The model field is
// written only when d carries a model.
func EncodeDescription(d *schema.Description) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("encode description: nil description")
	}
	var b []byte
	if m := d.Model(); m != nil {
		b = appendMessage(b, instanceModel, appendDataModel(nil, m))
	}
	for _, p := range d.Pairs() {
		kv, err := appendKeyValue(nil, p)
		if err != nil {
			return nil, fmt.Errorf("encode description: %w", err)
		}
		b = appendMessage(b, instanceValues, kv)
	}
	return b, nil
}

// EncodeExpression returns the canonical bytes of a ConstraintType message.
// The tree is validated first.
func EncodeExpression(expr query.Expression) ([]byte, error) {
	if err := query.ValidateExpression(expr); err != nil {
		return nil, fmt.Errorf("encode expression: %w", err)
	}
	return appendExpression(nil, expr), nil
}

// EncodeConstraint returns the canonical bytes of c.
func EncodeConstraint(c query.Constraint) ([]byte, error) {
	if err := query.ValidateExpression(c.Expression()); err != nil {
		return nil, fmt.Errorf("encode constraint %q: %w", c.Name(), err)
	}
	return appendConstraint(nil, c), nil
}

// EncodeQuery returns the canonical bytes of q.
func EncodeQuery(q *query.Query) ([]byte, error) {
	if q == nil {
		return nil, fmt.Errorf("encode query: nil query")
	}
	var b []byte
	for _, c := range q.Constraints() {
		if err := query.ValidateExpression(c.Expression()); err != nil {
			return nil, fmt.Errorf("encode query: constraint %q: %w", c.Name(), err)
		}
		b = appendMessage(b, queryConstraints, appendConstraint(nil, c))
	}
	if m := q.Model(); m != nil {
		b = appendMessage(b, queryModel, appendDataModel(nil, m))
	}
	return b, nil
}

func appendAttribute(b []byte, a schema.AttributeSchema) []byte {
	b = appendString(b, attrName, a.Name)
	b = appendVarint(b, attrType, uint64(a.Type))
	b = appendBool(b, attrRequired, a.Required)
	if a.Description != "" {
		b = appendString(b, attrDescription, a.Description)
	}
	return b
}

func appendDataModel(b []byte, m *schema.DataModel) []byte {
	b = appendString(b, modelName, m.Name())
	for _, a := range m.Attributes() {
		b = appendMessage(b, modelAttributes, appendAttribute(nil, a))
	}
	if desc := m.Description(); desc != "" {
		b = appendString(b, modelDescription, desc)
	}
	return b
}

func appendValue(b []byte, v schema.Value) ([]byte, error) {
	switch val := v.(type) {
	case schema.String:
		return appendString(b, valueString, string(val)), nil
	case schema.Float:
		return appendDouble(b, valueDouble, float64(val)), nil
	case schema.Bool:
		return appendBool(b, valueBool, bool(val)), nil
	case schema.Int:
		return appendInt64(b, valueInt, int64(val)), nil
	default:
		return nil, schema.Errorf(schema.CodeTypeMismatch, "", "cannot encode value %T", v)
	}
}

func appendKeyValue(b []byte, p schema.Pair) ([]byte, error) {
	val, err := appendValue(nil, p.Value)
	if err != nil {
		return nil, err
	}
	b = appendString(b, kvKey, p.Key)
	return appendMessage(b, kvValue, val), nil
}

// appendExpression writes the ConstraintType oneof. expr must be valid.
func appendExpression(b []byte, expr query.Expression) []byte {
	switch e := expr.(type) {
	case query.Or:
		return appendMessage(b, exprOr, appendOperands(nil, e.Operands()))
	case query.And:
		return appendMessage(b, exprAnd, appendOperands(nil, e.Operands()))
	case query.Set:
		return appendMessage(b, exprSet, appendSet(nil, e))
	case query.Range:
		return appendMessage(b, exprRange, appendRange(nil, e))
	case query.Relation:
		return appendMessage(b, exprRelation, appendRelation(nil, e))
	default:
		return b
	}
}

func appendOperands(b []byte, ops []query.Expression) []byte {
	for _, op := range ops {
		b = appendMessage(b, operandsExpr, appendExpression(nil, op))
	}
	return b
}

func appendRelation(b []byte, r query.Relation) []byte {
	b = appendVarint(b, relationOp, uint64(r.Op()))
	val, _ := appendValue(nil, r.Value())
	return appendMessage(b, relationVal, val)
}

func appendRange(b []byte, r query.Range) []byte {
	var pair []byte
	var num protowire.Number
	switch low := r.Low().(type) {
	case schema.String:
		num = rangeString
		pair = appendString(pair, pairFirst, string(low))
		pair = appendString(pair, pairSecond, string(r.High().(schema.String)))
	case schema.Int:
		num = rangeInt
		pair = appendInt64(pair, pairFirst, int64(low))
		pair = appendInt64(pair, pairSecond, int64(r.High().(schema.Int)))
	case schema.Float:
		num = rangeDouble
		pair = appendDouble(pair, pairFirst, float64(low))
		pair = appendDouble(pair, pairSecond, float64(r.High().(schema.Float)))
	}
	return appendMessage(b, num, pair)
}

func appendSet(b []byte, s query.Set) []byte {
	b = appendVarint(b, setOp, uint64(s.Op()))

	var list []byte
	var num protowire.Number
	for _, v := range s.Values() {
		switch val := v.(type) {
		case schema.String:
			list = appendString(list, listVals, string(val))
		case schema.Float:
			list = appendDouble(list, listVals, float64(val))
		case schema.Bool:
			list = appendBool(list, listVals, bool(val))
		case schema.Int:
			list = appendInt64(list, listVals, int64(val))
		}
	}
	switch s.ElemType() {
	case schema.TypeString:
		num = valuesString
	case schema.TypeFloat:
		num = valuesDouble
	case schema.TypeBool:
		num = valuesBool
	case schema.TypeInt:
		num = valuesInt
	}

	values := appendMessage(nil, num, list)
	return appendMessage(b, setVals, values)
}

func appendConstraint(b []byte, c query.Constraint) []byte {
	b = appendMessage(b, constraintAttribute, appendAttribute(nil, c.Attribute()))
	return appendMessage(b, constraintExpr, appendExpression(nil, c.Expression()))
}
