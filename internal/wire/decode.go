package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/roach88/oefquery/internal/query"
	"github.com/roach88/oefquery/internal/schema"
)

// DecodeDataModel parses a DataModel message.
func DecodeDataModel(b []byte) (*schema.DataModel, error) {
	m, err := decodeDataModel(b)
	if err != nil {
		return nil, fmt.Errorf("decode data model: %w", err)
	}
	return m, nil
}

// DecodeDescription parses an Instance message. The description is
// validated against its embedded model, if any.
func DecodeDescription(b []byte) (*schema.Description, error) {
	d, err := decodeDescription(b)
	if err != nil {
		return nil, fmt.Errorf("decode description: %w", err)
	}
	return d, nil
}

// DecodeExpression parses a ConstraintType message.
func DecodeExpression(b []byte) (query.Expression, error) {
	expr, err := decodeExpression(b, 0)
	if err != nil {
		return nil, fmt.Errorf("decode expression: %w", err)
	}
	return expr, nil
}

// DecodeConstraint parses a Constraint message.
func DecodeConstraint(b []byte) (query.Constraint, error) {
	c, err := decodeConstraint(b)
	if err != nil {
		return query.Constraint{}, fmt.Errorf("decode constraint: %w", err)
	}
	return c, nil
}

// DecodeQuery parses a query Model message.
func DecodeQuery(b []byte) (*query.Query, error) {
	q, err := decodeQuery(b)
	if err != nil {
		return nil, fmt.Errorf("decode query: %w", err)
	}
	return q, nil
}

func decodeAttribute(b []byte) (schema.AttributeSchema, error) {
	const msg = "Attribute"
	fields, err := parseFields(msg, b)
	if err != nil {
		return schema.AttributeSchema{}, err
	}

	var attr schema.AttributeSchema
	var hasName, hasType, hasRequired bool
	for _, f := range fields {
		switch f.num {
		case attrName:
			attr.Name, err = f.asString(msg, "name")
			hasName = true
		case attrType:
			var t int32
			t, err = f.asEnum(msg, "type")
			if err == nil && !schema.AttributeType(t).Valid() {
				err = unknownTag("%s.type: unknown attribute type %d", msg, t)
			}
			attr.Type = schema.AttributeType(t)
			hasType = true
		case attrRequired:
			attr.Required, err = f.asBool(msg, "required")
			hasRequired = true
		case attrDescription:
			attr.Description, err = f.asString(msg, "description")
		}
		if err != nil {
			return schema.AttributeSchema{}, err
		}
	}

	switch {
	case !hasName:
		return schema.AttributeSchema{}, malformed("%s.name missing", msg)
	case !hasType:
		return schema.AttributeSchema{}, malformed("%s.type missing", msg)
	case !hasRequired:
		return schema.AttributeSchema{}, malformed("%s.required missing", msg)
	}
	return attr, nil
}

func decodeDataModel(b []byte) (*schema.DataModel, error) {
	const msg = "DataModel"
	fields, err := parseFields(msg, b)
	if err != nil {
		return nil, err
	}

	var name, desc string
	var hasName bool
	var attrs []schema.AttributeSchema
	for _, f := range fields {
		switch f.num {
		case modelName:
			name, err = f.asString(msg, "name")
			hasName = true
		case modelAttributes:
			var buf []byte
			if buf, err = f.asBytes(msg, "attributes"); err == nil {
				var attr schema.AttributeSchema
				attr, err = decodeAttribute(buf)
				attrs = append(attrs, attr)
			}
		case modelDescription:
			desc, err = f.asString(msg, "description")
		}
		if err != nil {
			return nil, err
		}
	}
	if !hasName {
		return nil, malformed("%s.name missing", msg)
	}
	return schema.NewDataModel(name, attrs, desc)
}

func decodeValue(b []byte) (schema.Value, error) {
	const msg = "Value"
	fields, err := parseFields(msg, b)
	if err != nil {
		return nil, err
	}

	var v schema.Value
	for _, f := range fields {
		switch f.num {
		case valueString:
			var s string
			s, err = f.asString(msg, "s")
			v = schema.String(s)
		case valueDouble:
			var d float64
			d, err = f.asDouble(msg, "d")
			v = schema.Float(d)
		case valueBool:
			var x bool
			x, err = f.asBool(msg, "b")
			v = schema.Bool(x)
		case valueInt:
			var i int64
			i, err = f.asInt64(msg, "i")
			v = schema.Int(i)
		}
		if err != nil {
			return nil, err
		}
	}
	if v == nil {
		return nil, unknownTag("%s: no value case set", msg)
	}
	return v, nil
}

func decodeKeyValue(b []byte) (schema.Pair, error) {
	const msg = "KeyValue"
	fields, err := parseFields(msg, b)
	if err != nil {
		return schema.Pair{}, err
	}

	var p schema.Pair
	var hasKey bool
	for _, f := range fields {
		switch f.num {
		case kvKey:
			p.Key, err = f.asString(msg, "key")
			hasKey = true
		case kvValue:
			var buf []byte
			if buf, err = f.asBytes(msg, "value"); err == nil {
				p.Value, err = decodeValue(buf)
			}
		}
		if err != nil {
			return schema.Pair{}, err
		}
	}
	switch {
	case !hasKey:
		return schema.Pair{}, malformed("%s.key missing", msg)
	case p.Value == nil:
		return schema.Pair{}, malformed("%s.value missing", msg)
	}
	return p, nil
}

func decodeDescription(b []byte) (*schema.Description, error) {
	const msg = "Instance"
	fields, err := parseFields(msg, b)
	if err != nil {
		return nil, err
	}

	var model *schema.DataModel
	var pairs []schema.Pair
	for _, f := range fields {
		var buf []byte
		switch f.num {
		case instanceModel:
			if buf, err = f.asBytes(msg, "model"); err == nil {
				model, err = decodeDataModel(buf)
			}
		case instanceValues:
			if buf, err = f.asBytes(msg, "values"); err == nil {
				var p schema.Pair
				p, err = decodeKeyValue(buf)
				pairs = append(pairs, p)
			}
		}
		if err != nil {
			return nil, err
		}
	}
	return schema.NewDescription(model, pairs...)
}

func decodeExpression(b []byte, depth int) (query.Expression, error) {
	const msg = "ConstraintType"
	if depth > maxDepth {
		return nil, malformed("%s: nesting deeper than %d", msg, maxDepth)
	}
	fields, err := parseFields(msg, b)
	if err != nil {
		return nil, err
	}

	// Oneof: the last case on the wire wins.
	var chosen *field
	for i := range fields {
		switch fields[i].num {
		case exprOr, exprAnd, exprSet, exprRange, exprRelation:
			chosen = &fields[i]
		}
	}
	if chosen == nil {
		return nil, unknownTag("%s: no constraint case set", msg)
	}
	buf, err := chosen.asBytes(msg, "expression")
	if err != nil {
		return nil, err
	}

	switch chosen.num {
	case exprOr:
		ops, err := decodeOperands(buf, depth+1)
		if err != nil {
			return nil, err
		}
		return query.NewOr(ops...)
	case exprAnd:
		ops, err := decodeOperands(buf, depth+1)
		if err != nil {
			return nil, err
		}
		return query.NewAnd(ops...)
	case exprSet:
		return decodeSet(buf)
	case exprRange:
		return decodeRange(buf)
	default:
		return decodeRelation(buf)
	}
}

func decodeOperands(b []byte, depth int) ([]query.Expression, error) {
	const msg = "Operands"
	fields, err := parseFields(msg, b)
	if err != nil {
		return nil, err
	}

	var ops []query.Expression
	for _, f := range fields {
		if f.num != operandsExpr {
			continue
		}
		buf, err := f.asBytes(msg, "expr")
		if err != nil {
			return nil, err
		}
		op, err := decodeExpression(buf, depth)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func decodeRelation(b []byte) (query.Relation, error) {
	const msg = "Relation"
	fields, err := parseFields(msg, b)
	if err != nil {
		return query.Relation{}, err
	}

	var op query.RelationOp
	var val schema.Value
	var hasOp bool
	for _, f := range fields {
		switch f.num {
		case relationOp:
			var n int32
			n, err = f.asEnum(msg, "op")
			op = query.RelationOp(n)
			if err == nil && !op.Valid() {
				err = unknownTag("%s.op: unknown operator %d", msg, n)
			}
			hasOp = true
		case relationVal:
			var buf []byte
			if buf, err = f.asBytes(msg, "val"); err == nil {
				val, err = decodeValue(buf)
			}
		}
		if err != nil {
			return query.Relation{}, err
		}
	}
	switch {
	case !hasOp:
		return query.Relation{}, malformed("%s.op missing", msg)
	case val == nil:
		return query.Relation{}, malformed("%s.val missing", msg)
	}
	return query.NewRelation(op, val)
}

func decodeSet(b []byte) (query.Set, error) {
	const msg = "Set"
	fields, err := parseFields(msg, b)
	if err != nil {
		return query.Set{}, err
	}

	var op query.SetOp
	var elemType schema.AttributeType
	var vals []schema.Value
	var hasOp, hasVals bool
	for _, f := range fields {
		switch f.num {
		case setOp:
			var n int32
			n, err = f.asEnum(msg, "op")
			op = query.SetOp(n)
			if err == nil && !op.Valid() {
				err = unknownTag("%s.op: unknown operator %d", msg, n)
			}
			hasOp = true
		case setVals:
			var buf []byte
			if buf, err = f.asBytes(msg, "vals"); err == nil {
				elemType, vals, err = decodeValues(buf)
			}
			hasVals = true
		}
		if err != nil {
			return query.Set{}, err
		}
	}
	switch {
	case !hasOp:
		return query.Set{}, malformed("%s.op missing", msg)
	case !hasVals:
		return query.Set{}, malformed("%s.vals missing", msg)
	}
	return query.NewSetOf(op, elemType, vals...)
}

// decodeValues parses the Set.Values oneof into its element type and values.
func decodeValues(b []byte) (schema.AttributeType, []schema.Value, error) {
	const msg = "Values"
	fields, err := parseFields(msg, b)
	if err != nil {
		return 0, nil, err
	}

	var chosen *field
	for i := range fields {
		switch fields[i].num {
		case valuesString, valuesDouble, valuesBool, valuesInt:
			chosen = &fields[i]
		}
	}
	if chosen == nil {
		return 0, nil, unknownTag("%s: no list case set", msg)
	}
	buf, err := chosen.asBytes(msg, "list")
	if err != nil {
		return 0, nil, err
	}

	list, err := parseFields(msg, buf)
	if err != nil {
		return 0, nil, err
	}

	var elemType schema.AttributeType
	switch chosen.num {
	case valuesString:
		elemType = schema.TypeString
	case valuesDouble:
		elemType = schema.TypeFloat
	case valuesBool:
		elemType = schema.TypeBool
	default:
		elemType = schema.TypeInt
	}

	vals := []schema.Value{}
	for _, f := range list {
		if f.num != listVals {
			continue
		}
		switch elemType {
		case schema.TypeString:
			s, err := f.asString(msg, "vals")
			if err != nil {
				return 0, nil, err
			}
			vals = append(vals, schema.String(s))
		case schema.TypeFloat:
			ds, err := f.repeatedDoubles(msg, "vals")
			if err != nil {
				return 0, nil, err
			}
			for _, d := range ds {
				vals = append(vals, schema.Float(d))
			}
		default:
			ns, err := f.repeatedVarints(msg, "vals")
			if err != nil {
				return 0, nil, err
			}
			for _, n := range ns {
				if elemType == schema.TypeBool {
					vals = append(vals, schema.Bool(protowire.DecodeBool(n)))
				} else {
					vals = append(vals, schema.Int(int64(n)))
				}
			}
		}
	}
	return elemType, vals, nil
}

func decodeRange(b []byte) (query.Range, error) {
	const msg = "Range"
	fields, err := parseFields(msg, b)
	if err != nil {
		return query.Range{}, err
	}

	var chosen *field
	for i := range fields {
		switch fields[i].num {
		case rangeString, rangeInt, rangeDouble:
			chosen = &fields[i]
		}
	}
	if chosen == nil {
		return query.Range{}, unknownTag("%s: no pair case set", msg)
	}
	buf, err := chosen.asBytes(msg, "pair")
	if err != nil {
		return query.Range{}, err
	}

	pair, err := parseFields("Pair", buf)
	if err != nil {
		return query.Range{}, err
	}

	var low, high schema.Value
	for _, f := range pair {
		if f.num != pairFirst && f.num != pairSecond {
			continue
		}
		var v schema.Value
		switch chosen.num {
		case rangeString:
			var s string
			s, err = f.asString("Pair", "value")
			v = schema.String(s)
		case rangeInt:
			var i int64
			i, err = f.asInt64("Pair", "value")
			v = schema.Int(i)
		default:
			var d float64
			d, err = f.asDouble("Pair", "value")
			v = schema.Float(d)
		}
		if err != nil {
			return query.Range{}, err
		}
		if f.num == pairFirst {
			low = v
		} else {
			high = v
		}
	}
	switch {
	case low == nil:
		return query.Range{}, malformed("Pair.first missing")
	case high == nil:
		return query.Range{}, malformed("Pair.second missing")
	}
	return query.NewRange(low, high)
}

func decodeConstraint(b []byte) (query.Constraint, error) {
	const msg = "Constraint"
	fields, err := parseFields(msg, b)
	if err != nil {
		return query.Constraint{}, err
	}

	var attr schema.AttributeSchema
	var expr query.Expression
	var hasAttr bool
	for _, f := range fields {
		var buf []byte
		switch f.num {
		case constraintAttribute:
			if buf, err = f.asBytes(msg, "attribute"); err == nil {
				attr, err = decodeAttribute(buf)
			}
			hasAttr = true
		case constraintExpr:
			if buf, err = f.asBytes(msg, "constraint"); err == nil {
				expr, err = decodeExpression(buf, 0)
			}
		}
		if err != nil {
			return query.Constraint{}, err
		}
	}
	switch {
	case !hasAttr:
		return query.Constraint{}, malformed("%s.attribute missing", msg)
	case expr == nil:
		return query.Constraint{}, malformed("%s.constraint missing", msg)
	}
	return query.NewConstraint(attr, expr)
}

func decodeQuery(b []byte) (*query.Query, error) {
	const msg = "Model"
	fields, err := parseFields(msg, b)
	if err != nil {
		return nil, err
	}

	var constraints []query.Constraint
	var model *schema.DataModel
	for _, f := range fields {
		var buf []byte
		switch f.num {
		case queryConstraints:
			if buf, err = f.asBytes(msg, "constraints"); err == nil {
				var c query.Constraint
				c, err = decodeConstraint(buf)
				constraints = append(constraints, c)
			}
		case queryModel:
			if buf, err = f.asBytes(msg, "model"); err == nil {
				model, err = decodeDataModel(buf)
			}
		}
		if err != nil {
			return nil, err
		}
	}
	return query.New(constraints, model)
}
