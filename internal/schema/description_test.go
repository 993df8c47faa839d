package schema

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func weatherModel() *DataModel {
	return MustDataModel("weather_data", []AttributeSchema{
		Attr("temperature", TypeBool, true, "Provides temperature measurements."),
		Attr("air_pressure", TypeBool, true, "Provides air pressure measurements."),
		Attr("humidity", TypeBool, true, "Provides humidity measurements."),
		Attr("wind_speed", TypeBool, false, "Provides wind speed measurements."),
	}, "All possible weather data.")
}

func TestNewDescription_WeatherStation(t *testing.T) {
	d, err := NewDescription(weatherModel(),
		KV("temperature", Bool(true)),
		KV("air_pressure", Bool(true)),
		KV("humidity", Bool(true)),
	)
	require.NoError(t, err)

	v, ok := d.Get("humidity")
	require.True(t, ok)
	assert.Equal(t, Bool(true), v)

	_, ok = d.Get("wind_speed")
	assert.False(t, ok, "optional attribute left out")

	assert.Equal(t, []string{"temperature", "air_pressure", "humidity"}, d.Names())
	assert.Equal(t, "weather_data", d.Model().Name())
}

func TestNewDescription_Errors(t *testing.T) {
	tests := []struct {
		name      string
		pairs     []Pair
		code      ErrorCode
		attribute string
	}{
		{
			name:      "missing required",
			pairs:     []Pair{KV("temperature", Bool(true)), KV("air_pressure", Bool(true))},
			code:      CodeMissingAttribute,
			attribute: "humidity",
		},
		{
			name: "unknown attribute",
			pairs: []Pair{
				KV("temperature", Bool(true)), KV("air_pressure", Bool(true)), KV("humidity", Bool(true)),
				KV("rainfall", Bool(true)),
			},
			code:      CodeUnknownAttribute,
			attribute: "rainfall",
		},
		{
			name: "type mismatch",
			pairs: []Pair{
				KV("temperature", Int(21)), KV("air_pressure", Bool(true)), KV("humidity", Bool(true)),
			},
			code:      CodeTypeMismatch,
			attribute: "temperature",
		},
		{
			name: "duplicate key",
			pairs: []Pair{
				KV("temperature", Bool(true)), KV("temperature", Bool(false)),
			},
			code:      CodeDuplicateAttribute,
			attribute: "temperature",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDescription(weatherModel(), tt.pairs...)
			require.Error(t, err)
			assert.Nil(t, d)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.code, ve.Code)
			assert.Equal(t, tt.attribute, ve.Attribute)
		})
	}
}

func TestNewDescription_NumericPromotion(t *testing.T) {
	m := MustDataModel("book", []AttributeSchema{
		Attr("year", TypeInt, true, ""),
		Attr("average_rating", TypeFloat, false, ""),
	}, "")

	d, err := NewDescription(m, KV("year", Int(1986)), KV("average_rating", Int(4)))
	require.NoError(t, err, "int is acceptable where float is declared")
	v, _ := d.Get("average_rating")
	assert.Equal(t, Int(4), v, "runtime type is kept")

	_, err = NewDescription(m, KV("year", Float(1986)))
	assert.True(t, IsTypeMismatch(err), "float is never acceptable where int is declared")
}

func TestNewDescription_NoModelSkipsValidation(t *testing.T) {
	d, err := NewDescription(nil, KV("anything", String("goes")), KV("year", Float(1.5)))
	require.NoError(t, err)
	assert.Nil(t, d.Model())
	assert.Equal(t, 2, d.Len())

	_, err = NewDescription(nil, KV("a", Int(1)), KV("a", Int(2)))
	assert.True(t, IsDuplicateAttribute(err), "keys are unique even without a model")

	_, err = NewDescription(nil, KV("a", nil))
	assert.Error(t, err)
}

func TestDescriptionEqual(t *testing.T) {
	m := weatherModel()
	a := MustDescription(m, KV("temperature", Bool(true)), KV("air_pressure", Bool(true)), KV("humidity", Bool(true)))
	b := MustDescription(weatherModel(), KV("temperature", Bool(true)), KV("air_pressure", Bool(true)), KV("humidity", Bool(true)))
	c := MustDescription(m, KV("temperature", Bool(true)), KV("air_pressure", Bool(true)), KV("humidity", Bool(false)))

	assert.True(t, a.Equal(b), "structurally equal models compare equal")
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(MustDescription(nil, a.Pairs()...)), "model is part of equality")

	nan := MustDescription(nil, KV("reading", Float(math.NaN())))
	assert.True(t, nan.Equal(MustDescription(nil, KV("reading", Float(math.NaN())))))
	zero := MustDescription(nil, KV("reading", Float(0)))
	assert.True(t, zero.Equal(MustDescription(nil, KV("reading", Float(math.Copysign(0, -1))))))
}

// Validation totality: construction either fails with exactly one taxonomy
// error, or succeeds and every invariant holds.
func TestNewDescription_ValidationTotality(t *testing.T) {
	model := MustDataModel("prop", []AttributeSchema{
		Attr("a", TypeInt, true, ""),
		Attr("b", TypeFloat, false, ""),
		Attr("c", TypeBool, true, ""),
		Attr("d", TypeString, false, ""),
	}, "")

	keys := []string{"a", "b", "c", "d", "e"}
	values := rapid.OneOf(
		rapid.Map(rapid.Int64(), func(n int64) Value { return Int(n) }),
		rapid.Map(rapid.Float64Range(-1e6, 1e6), func(f float64) Value { return Float(f) }),
		rapid.Map(rapid.Bool(), func(b bool) Value { return Bool(b) }),
		rapid.Map(rapid.StringN(0, 8, -1), func(s string) Value { return String(s) }),
	)

	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 6).Draw(rt, "n")
		pairs := make([]Pair, n)
		for i := range pairs {
			pairs[i] = KV(rapid.SampledFrom(keys).Draw(rt, "key"), values.Draw(rt, "value"))
		}

		d, err := NewDescription(model, pairs...)
		if err != nil {
			if d != nil {
				rt.Fatalf("error %v returned with a description", err)
			}
			switch CodeOf(err) {
			case CodeDuplicateAttribute, CodeMissingAttribute, CodeUnknownAttribute, CodeTypeMismatch:
			default:
				rt.Fatalf("unexpected error kind: %v", err)
			}
			return
		}

		for _, attr := range model.Attributes() {
			v, ok := d.Get(attr.Name)
			if attr.Required && !ok {
				rt.Fatalf("required %q missing from accepted description", attr.Name)
			}
			if ok && !attr.Type.Accepts(v.Type()) {
				rt.Fatalf("attribute %q has type %s, declared %s", attr.Name, v.Type(), attr.Type)
			}
		}
		for _, name := range d.Names() {
			if _, ok := model.Attribute(name); !ok {
				rt.Fatalf("unknown attribute %q accepted", name)
			}
		}
	})
}
