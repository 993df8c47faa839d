package wire

import (
	"math"
	"sort"
	"testing"

	"pgregory.net/rapid"

	"github.com/roach88/oefquery/internal/query"
	"github.com/roach88/oefquery/internal/schema"
)

var attrNames = rapid.StringMatching(`[a-z][a-z_]{0,9}`)

func genValueOf(t *rapid.T, typ schema.AttributeType, label string) schema.Value {
	switch typ {
	case schema.TypeInt:
		return schema.Int(rapid.Int64().Draw(t, label))
	case schema.TypeFloat:
		return schema.Float(rapid.OneOf(
			rapid.Float64Range(-1e12, 1e12),
			rapid.Just(math.Copysign(0, -1)),
			rapid.Just(math.NaN()),
		).Draw(t, label))
	case schema.TypeBool:
		return schema.Bool(rapid.Bool().Draw(t, label))
	default:
		return schema.String(rapid.String().Draw(t, label))
	}
}

func genType(t *rapid.T, label string) schema.AttributeType {
	return rapid.SampledFrom([]schema.AttributeType{
		schema.TypeFloat, schema.TypeInt, schema.TypeBool, schema.TypeString,
	}).Draw(t, label)
}

func genDescription(t *rapid.T) *schema.Description {
	keys := rapid.SliceOfNDistinct(attrNames, 0, 6, rapid.ID[string]).Draw(t, "keys")
	pairs := make([]schema.Pair, len(keys))
	for i, k := range keys {
		pairs[i] = schema.KV(k, genValueOf(t, genType(t, "type"), "value"))
	}

	var model *schema.DataModel
	if rapid.Bool().Draw(t, "with_model") {
		var err error
		model, err = schema.GenerateModel(attrNames.Draw(t, "model"), pairs...)
		if err != nil {
			t.Fatalf("GenerateModel: %v", err)
		}
	}
	d, err := schema.NewDescription(model, pairs...)
	if err != nil {
		t.Fatalf("NewDescription: %v", err)
	}
	return d
}

// genExpression draws a valid tree whose leaves all compare against typ.
func genExpression(t *rapid.T, typ schema.AttributeType, depth int) query.Expression {
	kinds := 3
	if depth > 0 {
		kinds = 5
	}
	switch rapid.IntRange(0, kinds-1).Draw(t, "kind") {
	case 0:
		op := query.RelationOp(rapid.IntRange(0, 5).Draw(t, "relop"))
		return query.Must(query.NewRelation(op, genValueOf(t, typ, "relval")))
	case 1:
		n := rapid.IntRange(0, 4).Draw(t, "setlen")
		vals := make([]schema.Value, n)
		for i := range vals {
			vals[i] = genValueOf(t, typ, "setval")
		}
		op := query.SetOp(rapid.IntRange(0, 1).Draw(t, "setop"))
		return query.Must(query.NewSetOf(op, typ, vals...))
	case 2:
		if typ == schema.TypeBool {
			return query.Eq(genValueOf(t, typ, "relval"))
		}
		return genRange(t, typ)
	default:
		n := rapid.IntRange(1, 3).Draw(t, "operands")
		ops := make([]query.Expression, n)
		for i := range ops {
			ops[i] = genExpression(t, typ, depth-1)
		}
		if rapid.Bool().Draw(t, "and") {
			return query.Must(query.NewAnd(ops...))
		}
		return query.Must(query.NewOr(ops...))
	}
}

func genRange(t *rapid.T, typ schema.AttributeType) query.Range {
	switch typ {
	case schema.TypeInt:
		a, b := rapid.Int64().Draw(t, "lo"), rapid.Int64().Draw(t, "hi")
		return query.Must(query.NewRange(schema.Int(min(a, b)), schema.Int(max(a, b))))
	case schema.TypeFloat:
		a, b := rapid.Float64Range(-1e6, 1e6).Draw(t, "lo"), rapid.Float64Range(-1e6, 1e6).Draw(t, "hi")
		return query.Must(query.NewRange(schema.Float(min(a, b)), schema.Float(max(a, b))))
	default:
		bounds := []string{rapid.String().Draw(t, "lo"), rapid.String().Draw(t, "hi")}
		sort.Strings(bounds)
		return query.Must(query.NewRange(schema.String(bounds[0]), schema.String(bounds[1])))
	}
}

func genQuery(t *rapid.T) *query.Query {
	names := rapid.SliceOfNDistinct(attrNames, 0, 4, rapid.ID[string]).Draw(t, "names")
	constraints := make([]query.Constraint, len(names))
	for i, name := range names {
		attr := schema.AttributeSchema{
			Name:        name,
			Type:        genType(t, "attr_type"),
			Required:    rapid.Bool().Draw(t, "required"),
			Description: rapid.SampledFrom([]string{"", "an attribute"}).Draw(t, "attr_desc"),
		}
		constraints[i] = query.MustConstraint(attr, genExpression(t, attr.Type, 2))
	}

	var model *schema.DataModel
	if rapid.Bool().Draw(t, "with_model") {
		attrs := make([]schema.AttributeSchema, len(constraints))
		for i, c := range constraints {
			attrs[i] = c.Attribute()
		}
		model = schema.MustDataModel("scope", attrs, "")
	}
	return query.MustQuery(constraints, model)
}

func TestDescriptionRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d := genDescription(t)

		b, err := EncodeDescription(d)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		got, err := DecodeDescription(b)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !got.Equal(d) {
			t.Fatalf("round trip changed the description")
		}

		again, err := EncodeDescription(got)
		if err != nil {
			t.Fatalf("re-encode: %v", err)
		}
		if string(again) != string(b) {
			t.Fatalf("encoding is not canonical")
		}
	})
}

func TestQueryRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		q := genQuery(t)

		b, err := EncodeQuery(q)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		got, err := DecodeQuery(b)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !got.Equal(q) {
			t.Fatalf("round trip changed the query:\n%s\n---\n%s", q, got)
		}
		if QueryIDBytes(b) != mustQueryID(t, got) {
			t.Fatalf("query id differs after round trip")
		}
	})
}

func TestExpressionRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		expr := genExpression(t, genType(t, "type"), 3)

		b, err := EncodeExpression(expr)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		got, err := DecodeExpression(b)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !query.EqualExpression(got, expr) {
			t.Fatalf("round trip changed %s into %s", query.FormatExpression(expr), query.FormatExpression(got))
		}
	})
}

func TestDataModelRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		names := rapid.SliceOfNDistinct(attrNames, 0, 5, rapid.ID[string]).Draw(t, "names")
		attrs := make([]schema.AttributeSchema, len(names))
		for i, name := range names {
			attrs[i] = schema.Attr(name, genType(t, "type"), rapid.Bool().Draw(t, "required"),
				rapid.String().Draw(t, "attr_desc"))
		}
		m := schema.MustDataModel(attrNames.Draw(t, "name"), attrs, rapid.String().Draw(t, "desc"))

		b, err := EncodeDataModel(m)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		got, err := DecodeDataModel(b)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !got.Equal(m) {
			t.Fatalf("round trip changed the model")
		}
	})
}

func mustQueryID(t *rapid.T, q *query.Query) string {
	id, err := QueryID(q)
	if err != nil {
		t.Fatalf("QueryID: %v", err)
	}
	return id
}
