package schema

// AttributeSchema declares one named, typed field of a data model.
//
// Example:
//
//	AttributeSchema{Name: "year", Type: TypeInt, Required: true, Description: "Year of publication."}
type AttributeSchema struct {
	Name        string
	Type        AttributeType
	Required    bool
	Description string
}

// Attr is a shorthand constructor for AttributeSchema.
func Attr(name string, typ AttributeType, required bool, description string) AttributeSchema {
	return AttributeSchema{Name: name, Type: typ, Required: required, Description: description}
}

// Validate checks that the attribute schema can exist on its own.
func (a AttributeSchema) Validate() error {
	if a.Name == "" {
		return Errorf(CodeInvalidAttribute, "", "attribute name must be non-empty")
	}
	if !a.Type.Valid() {
		return Errorf(CodeInvalidAttribute, a.Name, "undeclared attribute type %d", int32(a.Type))
	}
	return nil
}

// DataModel is a named, ordered set of attribute schemas.
// Build with NewDataModel; the zero value is an empty unnamed model.
type DataModel struct {
	name        string
	attributes  []AttributeSchema
	index       map[string]int
	description string
}

// NewDataModel validates attributes and returns the model.
// Attribute order is kept exactly as given.
func NewDataModel(name string, attributes []AttributeSchema, description string) (*DataModel, error) {
	index := make(map[string]int, len(attributes))
	for i, attr := range attributes {
		if err := attr.Validate(); err != nil {
			return nil, err
		}
		if _, dup := index[attr.Name]; dup {
			return nil, Errorf(CodeDuplicateAttribute, attr.Name,
				"data model %q declares attribute %q twice", name, attr.Name)
		}
		index[attr.Name] = i
	}

	attrs := make([]AttributeSchema, len(attributes))
	copy(attrs, attributes)

	return &DataModel{
		name:        name,
		attributes:  attrs,
		index:       index,
		description: description,
	}, nil
}

// MustDataModel is like NewDataModel but panics on error.
// Use only in tests or for package-level fixtures.
func MustDataModel(name string, attributes []AttributeSchema, description string) *DataModel {
	m, err := NewDataModel(name, attributes, description)
	if err != nil {
		panic(err)
	}
	return m
}

// Name returns the model name.
func (m *DataModel) Name() string { return m.name }

// Description returns the free-text description.
func (m *DataModel) Description() string { return m.description }

// Attributes returns a copy of the attribute schemas in declaration order.
func (m *DataModel) Attributes() []AttributeSchema {
	out := make([]AttributeSchema, len(m.attributes))
	copy(out, m.attributes)
	return out
}

// Len returns the number of attributes.
func (m *DataModel) Len() int { return len(m.attributes) }

// Attribute looks up an attribute schema by name.
func (m *DataModel) Attribute(name string) (AttributeSchema, bool) {
	i, ok := m.index[name]
	if !ok {
		return AttributeSchema{}, false
	}
	return m.attributes[i], true
}

// Equal reports structural equality: same name, description and attributes
// in the same order.
func (m *DataModel) Equal(other *DataModel) bool {
	if m == other {
		return true
	}
	if m == nil || other == nil {
		return false
	}
	if m.name != other.name || m.description != other.description || len(m.attributes) != len(other.attributes) {
		return false
	}
	for i := range m.attributes {
		if m.attributes[i] != other.attributes[i] {
			return false
		}
	}
	return true
}

// GenerateModel derives a data model from values: one required attribute per
// pair, typed after the value, in pair order.
func GenerateModel(name string, pairs ...Pair) (*DataModel, error) {
	attrs := make([]AttributeSchema, 0, len(pairs))
	for _, p := range pairs {
		if p.Value == nil {
			return nil, Errorf(CodeTypeMismatch, p.Key, "attribute %q has no value", p.Key)
		}
		attrs = append(attrs, AttributeSchema{Name: p.Key, Type: p.Value.Type(), Required: true})
	}
	return NewDataModel(name, attrs, "")
}
