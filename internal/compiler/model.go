package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/oefquery/internal/schema"
)

// CompileModel parses a CUE value into a DataModel.
//
// The CUE value should be the model struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`model: weather_data: { ... }`)
//	m, err := CompileModel(v.LookupPath(cue.ParsePath("model.weather_data")))
//
// Attributes keep their declaration order.
func CompileModel(v cue.Value) (*schema.DataModel, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	name := labelOf(v)
	description, err := optionalString(v, "description")
	if err != nil {
		return nil, err
	}

	attrsVal := v.LookupPath(cue.ParsePath("attributes"))
	if !attrsVal.Exists() {
		return nil, &CompileError{
			Field:   "attributes",
			Message: "attributes are required",
			Pos:     v.Pos(),
		}
	}

	iter, err := attrsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var attrs []schema.AttributeSchema
	for iter.Next() {
		attr, err := compileAttribute(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)
	}

	model, err := schema.NewDataModel(name, attrs, description)
	if err != nil {
		return nil, wrapError("attributes", attrsVal.Pos(), err)
	}
	return model, nil
}

func compileAttribute(label string, v cue.Value) (schema.AttributeSchema, error) {
	name := normalizeName(label)
	field := "attributes." + name

	typeVal := v.LookupPath(cue.ParsePath("type"))
	if !typeVal.Exists() {
		return schema.AttributeSchema{}, &CompileError{
			Field:   field + ".type",
			Message: "type is required",
			Pos:     v.Pos(),
		}
	}
	typ, err := compileType(typeVal, field+".type")
	if err != nil {
		return schema.AttributeSchema{}, err
	}

	required := false
	if reqVal := v.LookupPath(cue.ParsePath("required")); reqVal.Exists() {
		required, err = reqVal.Bool()
		if err != nil {
			return schema.AttributeSchema{}, wrapError(field+".required", reqVal.Pos(), err)
		}
	}

	description, err := optionalString(v, "description")
	if err != nil {
		return schema.AttributeSchema{}, err
	}

	return schema.Attr(name, typ, required, description), nil
}

// CompileDescription parses a CUE value into a Description. A "model" field
// names an entry of models; without it the description is unscoped.
func CompileDescription(v cue.Value, models map[string]*schema.DataModel) (*schema.Description, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	model, err := resolveModel(v, models)
	if err != nil {
		return nil, err
	}

	valuesVal := v.LookupPath(cue.ParsePath("values"))
	if !valuesVal.Exists() {
		return nil, &CompileError{
			Field:   "values",
			Message: "values are required",
			Pos:     v.Pos(),
		}
	}

	iter, err := valuesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var pairs []schema.Pair
	for iter.Next() {
		key := normalizeName(iter.Label())
		val, err := compileValue(iter.Value(), "values."+key)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, schema.KV(key, val))
	}

	desc, err := schema.NewDescription(model, pairs...)
	if err != nil {
		return nil, wrapError("values", valuesVal.Pos(), err)
	}
	return desc, nil
}

func resolveModel(v cue.Value, models map[string]*schema.DataModel) (*schema.DataModel, error) {
	modelVal := v.LookupPath(cue.ParsePath("model"))
	if !modelVal.Exists() {
		return nil, nil
	}
	ref, err := modelVal.String()
	if err != nil {
		return nil, wrapError("model", modelVal.Pos(), err)
	}
	model, ok := models[normalizeName(ref)]
	if !ok {
		return nil, &CompileError{
			Field:   "model",
			Message: fmt.Sprintf("unknown model %q", ref),
			Pos:     modelVal.Pos(),
		}
	}
	return model, nil
}

// compileValue converts a concrete CUE scalar to an attribute value.
// CUE keeps 4 and 4.0 apart, and so do we.
func compileValue(v cue.Value, field string) (schema.Value, error) {
	switch v.Kind() {
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, wrapError(field, v.Pos(), err)
		}
		return schema.Int(n), nil
	case cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return nil, wrapError(field, v.Pos(), err)
		}
		return schema.Float(f), nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, wrapError(field, v.Pos(), err)
		}
		return schema.Bool(b), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, wrapError(field, v.Pos(), err)
		}
		return schema.String(s), nil
	default:
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("unsupported value kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

func compileType(v cue.Value, field string) (schema.AttributeType, error) {
	s, err := v.String()
	if err != nil {
		return 0, wrapError(field, v.Pos(), err)
	}
	typ, err := schema.ParseType(s)
	if err != nil {
		return 0, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos(), Err: err}
	}
	return typ, nil
}

func optionalString(v cue.Value, path string) (string, error) {
	sv := v.LookupPath(cue.ParsePath(path))
	if !sv.Exists() {
		return "", nil
	}
	s, err := sv.String()
	if err != nil {
		return "", wrapError(path, sv.Pos(), err)
	}
	return s, nil
}

// labelOf returns the last path selector of v, which is the spec name.
func labelOf(v cue.Value) string {
	labels := v.Path().Selectors()
	if len(labels) == 0 {
		return ""
	}
	return normalizeName(labels[len(labels)-1].String())
}

// normalizeName puts model and attribute names into NFC so that visually
// identical names written with different code points compare equal.
func normalizeName(s string) string {
	return norm.NFC.String(s)
}
