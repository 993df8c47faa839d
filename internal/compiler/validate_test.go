package compiler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/oefquery/internal/query"
	"github.com/roach88/oefquery/internal/schema"
)

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateModel(t *testing.T) {
	t.Run("clean", func(t *testing.T) {
		m := schema.MustDataModel("books", []schema.AttributeSchema{
			schema.Attr("year", schema.TypeInt, true, "Year of publication."),
		}, "Books for sale.")
		assert.Empty(t, Validate(m))
	})

	t.Run("findings", func(t *testing.T) {
		m := schema.MustDataModel("books", []schema.AttributeSchema{
			schema.Attr("year of print", schema.TypeInt, true, ""),
		}, "  ")

		errs := Validate(m)
		assert.Equal(t, []string{ErrModelDescriptionEmpty, ErrAttributeName, ErrAttributeUndocumented}, codes(errs))
		assert.Equal(t, "attributes.year of print.description", errs[2].Field)
	})

	t.Run("no attributes", func(t *testing.T) {
		m := schema.MustDataModel("empty", nil, "Nothing.")
		assert.Equal(t, []string{ErrModelNoAttributes}, codes(Validate(m)))
	})
}

func TestValidateDescription(t *testing.T) {
	d := schema.MustDescription(nil)
	assert.Equal(t, []string{ErrDescriptionUnscoped, ErrDescriptionEmpty}, codes(Validate(d)))
}

func TestValidateQuery(t *testing.T) {
	year := schema.Attr("year", schema.TypeInt, true, "")
	model := schema.MustDataModel("books", []schema.AttributeSchema{year}, "")

	tests := []struct {
		name        string
		constraints []query.Constraint
		model       *schema.DataModel
		want        []string
	}{
		{
			name:        "clean",
			constraints: []query.Constraint{query.MustConstraint(year, query.Gt(schema.Int(1960)))},
			model:       model,
			want:        []string{},
		},
		{
			name:  "unscoped and empty",
			model: nil,
			want:  []string{ErrQueryUnscoped, ErrQueryEmpty},
		},
		{
			name: "duplicate attribute",
			constraints: []query.Constraint{
				query.MustConstraint(year, query.Gt(schema.Int(1960))),
				query.MustConstraint(year, query.Lt(schema.Int(1970))),
			},
			model: model,
			want:  []string{ErrDuplicateConstraint},
		},
		{
			name:        "empty in",
			constraints: []query.Constraint{query.MustConstraint(year, query.Must(query.NewSetOf(query.OpIn, schema.TypeInt)))},
			model:       model,
			want:        []string{ErrQueryUnsatisfiable},
		},
		{
			name:        "empty not in is fine",
			constraints: []query.Constraint{query.MustConstraint(year, query.Must(query.NewSetOf(query.OpNotIn, schema.TypeInt)))},
			model:       model,
			want:        []string{},
		},
		{
			name: "or of unsatisfiable operands",
			constraints: []query.Constraint{query.MustConstraint(
				schema.Attr("rating", schema.TypeFloat, false, ""),
				query.Must(query.NewOr(query.Eq(schema.Float(math.NaN())), query.Gt(schema.Float(math.NaN())))),
			)},
			want: []string{ErrQueryUnscoped, ErrQueryUnsatisfiable},
		},
		{
			name: "or with one satisfiable operand",
			constraints: []query.Constraint{query.MustConstraint(
				year,
				query.Must(query.NewOr(query.Must(query.NewSetOf(query.OpIn, schema.TypeInt)), query.Eq(schema.Int(1)))),
			)},
			model: model,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := query.New(tt.constraints, tt.model)
			require.NoError(t, err)
			assert.Equal(t, tt.want, codes(Validate(q)))
		})
	}
}

func TestValidateSpecs_PrefixesFields(t *testing.T) {
	specs, errs := CompileSpecs(compile(t, `
model: books: {description: "Books.", attributes: year: {type: "int", description: "Year."}}
query: all: {model: "books"}
`), LoadModeFailFast)
	require.Empty(t, errs)

	found := Validate(specs)
	require.Len(t, found, 1)
	assert.Equal(t, ErrQueryEmpty, found[0].Code)
	assert.Equal(t, "query.all.constraints", found[0].Field)
}

func TestValidate_UnsupportedType(t *testing.T) {
	errs := Validate("not a spec")
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnsupportedType, errs[0].Code)
	assert.Contains(t, errs[0].Error(), "[E100]")
}
