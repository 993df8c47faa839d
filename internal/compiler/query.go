package compiler

import (
	"fmt"
	"slices"
	"strings"

	"cuelang.org/go/cue"

	"github.com/roach88/oefquery/internal/query"
	"github.com/roach88/oefquery/internal/schema"
)

// Operator keys accepted in a constraint or expression node.
const (
	opEq    = "eq"
	opNe    = "ne"
	opLt    = "lt"
	opLe    = "le"
	opGt    = "gt"
	opGe    = "ge"
	opIn    = "in"
	opNotIn = "not_in"
	opRange = "range"
	opAnd   = "and"
	opOr    = "or"
)

var relationOps = map[string]query.RelationOp{
	opEq: query.OpEq,
	opNe: query.OpNotEq,
	opLt: query.OpLt,
	opLe: query.OpLtEq,
	opGt: query.OpGt,
	opGe: query.OpGtEq,
}

// Operators lists every operator key in a stable order, for error messages.
func Operators() []string {
	return []string{opEq, opNe, opLt, opLe, opGt, opGe, opIn, opNotIn, opRange, opAnd, opOr}
}

// maxExpressionDepth bounds and/or nesting in spec files.
const maxExpressionDepth = 64

// CompileQuery parses a CUE value into a Query. Constraints are read in
// list order:
//
//	query: cold: {
//		model: "weather_data"
//		constraints: [
//			{attribute: "temperature", lt: 5.0},
//			{attribute: "year", or: [{lt: 1960}, {gt: 1970}]},
//		]
//	}
//
// An attribute's type comes from the model when the query names one, then
// from an explicit "type" field, and otherwise from the first value in the
// expression.
func CompileQuery(v cue.Value, models map[string]*schema.DataModel) (*query.Query, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	model, err := resolveModel(v, models)
	if err != nil {
		return nil, err
	}

	var constraints []query.Constraint
	if listVal := v.LookupPath(cue.ParsePath("constraints")); listVal.Exists() {
		iter, err := listVal.List()
		if err != nil {
			return nil, wrapError("constraints", listVal.Pos(), err)
		}
		for i := 0; iter.Next(); i++ {
			c, err := compileConstraint(iter.Value(), model, fmt.Sprintf("constraints[%d]", i))
			if err != nil {
				return nil, err
			}
			constraints = append(constraints, c)
		}
	}

	q, err := query.New(constraints, model)
	if err != nil {
		return nil, wrapError("constraints", v.Pos(), err)
	}
	return q, nil
}

func compileConstraint(v cue.Value, model *schema.DataModel, field string) (query.Constraint, error) {
	attrVal := v.LookupPath(cue.ParsePath("attribute"))
	if !attrVal.Exists() {
		return query.Constraint{}, &CompileError{
			Field:   field + ".attribute",
			Message: "attribute is required",
			Pos:     v.Pos(),
		}
	}
	rawName, err := attrVal.String()
	if err != nil {
		return query.Constraint{}, wrapError(field+".attribute", attrVal.Pos(), err)
	}
	name := normalizeName(rawName)

	attr, known := schema.AttributeSchema{Name: name}, false
	if model != nil {
		attr, known = model.Attribute(name)
	}

	if typeVal := v.LookupPath(cue.ParsePath("type")); typeVal.Exists() {
		typ, err := compileType(typeVal, field+".type")
		if err != nil {
			return query.Constraint{}, err
		}
		if known && attr.Type != typ {
			return query.Constraint{}, &CompileError{
				Field:   field + ".type",
				Message: fmt.Sprintf("attribute %q is %s in model %q, not %s", name, attr.Type, model.Name(), typ),
				Pos:     typeVal.Pos(),
				Err:     schema.ErrTypeMismatch,
			}
		}
		if !known {
			attr, known = schema.AttributeSchema{Name: name, Type: typ}, true
		}
	}

	ec := exprCompiler{elemType: schema.TypeString}
	if known {
		ec.elemType = attr.Type
		ec.widen = attr.Type == schema.TypeFloat
	}
	expr, err := ec.compile(v, field, 0, "attribute", "type")
	if err != nil {
		return query.Constraint{}, err
	}

	var c query.Constraint
	if known {
		c, err = query.NewConstraint(attr, expr)
	} else {
		c, err = query.On(name, expr)
	}
	if err != nil {
		return query.Constraint{}, wrapError(field, v.Pos(), err)
	}
	return c, nil
}

// exprCompiler turns operator nodes into expressions. elemType is used for
// empty sets, which carry no value to take a type from. When widen is set,
// int literals in relations and ranges are read as floats.
type exprCompiler struct {
	elemType schema.AttributeType
	widen    bool
}

// promote reads an int literal as a float for a float attribute. CUE keeps
// 4 and 4.0 apart, and a stored float is never compared with an int.
func (ec exprCompiler) promote(v schema.Value) schema.Value {
	if n, ok := v.(schema.Int); ok && ec.widen {
		return schema.Float(float64(n))
	}
	return v
}

// compile reads a node holding exactly one operator key. Keys listed in
// skip belong to the enclosing constraint and are ignored.
func (ec exprCompiler) compile(v cue.Value, field string, depth int, skip ...string) (query.Expression, error) {
	if depth > maxExpressionDepth {
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("expression nested deeper than %d levels", maxExpressionDepth),
			Pos:     v.Pos(),
		}
	}

	iter, err := v.Fields()
	if err != nil {
		return nil, wrapError(field, v.Pos(), err)
	}

	var (
		op    string
		opVal cue.Value
		found []string
	)
	for iter.Next() {
		label := iter.Label()
		if slices.Contains(skip, label) {
			continue
		}
		if !isOperator(label) {
			return nil, &CompileError{
				Field:   field + "." + label,
				Message: fmt.Sprintf("unknown operator %q, expected one of %s", label, strings.Join(Operators(), ", ")),
				Pos:     iter.Value().Pos(),
			}
		}
		found = append(found, label)
		op, opVal = label, iter.Value()
	}

	switch len(found) {
	case 0:
		return nil, &CompileError{Field: field, Message: "no operator given", Pos: v.Pos()}
	case 1:
	default:
		slices.Sort(found)
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("exactly one operator allowed, found %s", strings.Join(found, ", ")),
			Pos:     v.Pos(),
		}
	}

	field = field + "." + op
	expr, err := ec.compileOperator(op, opVal, field, depth)
	if err != nil {
		return nil, wrapError(field, opVal.Pos(), err)
	}
	return expr, nil
}

func (ec exprCompiler) compileOperator(op string, v cue.Value, field string, depth int) (query.Expression, error) {
	if relOp, ok := relationOps[op]; ok {
		val, err := compileValue(v, field)
		if err != nil {
			return nil, err
		}
		return query.NewRelation(relOp, ec.promote(val))
	}

	switch op {
	case opIn, opNotIn:
		vals, err := compileValues(v, field)
		if err != nil {
			return nil, err
		}
		setOp := query.OpIn
		if op == opNotIn {
			setOp = query.OpNotIn
		}
		if len(vals) == 0 {
			return query.NewSetOf(setOp, ec.elemType)
		}
		return query.NewSet(setOp, vals...)

	case opRange:
		vals, err := compileValues(v, field)
		if err != nil {
			return nil, err
		}
		if len(vals) != 2 {
			return nil, &CompileError{
				Field:   field,
				Message: fmt.Sprintf("range takes [low, high], got %d values", len(vals)),
				Pos:     v.Pos(),
			}
		}
		return query.NewRange(ec.promote(vals[0]), ec.promote(vals[1]))

	case opAnd, opOr:
		iter, err := v.List()
		if err != nil {
			return nil, err
		}
		var operands []query.Expression
		for i := 0; iter.Next(); i++ {
			sub, err := ec.compile(iter.Value(), fmt.Sprintf("%s[%d]", field, i), depth+1)
			if err != nil {
				return nil, err
			}
			operands = append(operands, sub)
		}
		if op == opAnd {
			return query.NewAnd(operands...)
		}
		return query.NewOr(operands...)
	}

	return nil, &CompileError{Field: field, Message: fmt.Sprintf("unknown operator %q", op), Pos: v.Pos()}
}

func compileValues(v cue.Value, field string) ([]schema.Value, error) {
	iter, err := v.List()
	if err != nil {
		return nil, wrapError(field, v.Pos(), err)
	}
	var vals []schema.Value
	for i := 0; iter.Next(); i++ {
		val, err := compileValue(iter.Value(), fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
		vals = append(vals, val)
	}
	return vals, nil
}

func isOperator(label string) bool {
	return slices.Contains(Operators(), label)
}
