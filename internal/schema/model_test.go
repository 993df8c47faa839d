package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bookAttributes() []AttributeSchema {
	return []AttributeSchema{
		Attr("title", TypeString, true, "The title of the book."),
		Attr("author", TypeString, true, "The author of the book."),
		Attr("genre", TypeString, true, "The genre of the book."),
		Attr("year", TypeInt, true, "The year of publication of the book."),
		Attr("average_rating", TypeFloat, false, "The average rating of the book."),
		Attr("ISBN", TypeString, true, "The ISBN."),
		Attr("ebook_available", TypeBool, false, "If the book can be sold as an e-book."),
	}
}

func TestNewDataModel_PreservesOrder(t *testing.T) {
	m, err := NewDataModel("book", bookAttributes(), "A data model to describe books.")
	require.NoError(t, err)

	assert.Equal(t, "book", m.Name())
	assert.Equal(t, "A data model to describe books.", m.Description())
	assert.Equal(t, 7, m.Len())

	names := make([]string, 0, m.Len())
	for _, a := range m.Attributes() {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"title", "author", "genre", "year", "average_rating", "ISBN", "ebook_available"}, names)
}

func TestNewDataModel_DuplicateAttribute(t *testing.T) {
	attrs := append(bookAttributes(), Attr("year", TypeString, false, ""))

	m, err := NewDataModel("book", attrs, "")
	require.Error(t, err)
	assert.Nil(t, m, "no partially constructed model")
	assert.True(t, IsDuplicateAttribute(err))
	assert.True(t, errors.Is(err, ErrDuplicateAttribute))
	assert.False(t, errors.Is(err, ErrMissingAttribute))

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "year", ve.Attribute)
}

func TestNewDataModel_InvalidAttribute(t *testing.T) {
	_, err := NewDataModel("m", []AttributeSchema{Attr("", TypeInt, true, "")}, "")
	assert.Equal(t, CodeInvalidAttribute, CodeOf(err))

	_, err = NewDataModel("m", []AttributeSchema{{Name: "x", Type: AttributeType(9)}}, "")
	assert.Equal(t, CodeInvalidAttribute, CodeOf(err))
}

func TestNewDataModel_CopiesInput(t *testing.T) {
	attrs := bookAttributes()
	m := MustDataModel("book", attrs, "")

	attrs[0].Name = "mutated"
	got, ok := m.Attribute("title")
	require.True(t, ok)
	assert.Equal(t, TypeString, got.Type)

	out := m.Attributes()
	out[0].Name = "mutated"
	_, ok = m.Attribute("title")
	assert.True(t, ok, "Attributes returns a copy")
}

func TestDataModelEqual(t *testing.T) {
	a := MustDataModel("book", bookAttributes(), "d")
	b := MustDataModel("book", bookAttributes(), "d")
	assert.True(t, a.Equal(b))
	assert.True(t, a.Equal(a))

	reordered := bookAttributes()
	reordered[0], reordered[1] = reordered[1], reordered[0]
	c := MustDataModel("book", reordered, "d")
	assert.False(t, a.Equal(c), "attribute order is part of the model")

	var nilModel *DataModel
	assert.False(t, a.Equal(nilModel))
	assert.True(t, nilModel.Equal(nil))
}

func TestGenerateModel(t *testing.T) {
	m, err := GenerateModel("book",
		KV("title", String("It")),
		KV("year", Int(1986)),
		KV("average_rating", Float(4.5)),
		KV("ebook_available", Bool(true)),
	)
	require.NoError(t, err)

	assert.Equal(t, []AttributeSchema{
		Attr("title", TypeString, true, ""),
		Attr("year", TypeInt, true, ""),
		Attr("average_rating", TypeFloat, true, ""),
		Attr("ebook_available", TypeBool, true, ""),
	}, m.Attributes())
}
