package schema

// Pair is a key-value pair for ordered Description construction.
type Pair struct {
	Key   string
	Value Value
}

// KV is a shorthand for Pair.
// Example: NewDescription(model, KV("genre", String("horror")), KV("year", Int(1986)))
func KV(key string, value Value) Pair {
	return Pair{Key: key, Value: value}
}

// Description is a concrete set of attribute values, optionally validated
// against a data model. The model is a lookup reference, never owned.
type Description struct {
	pairs []Pair
	index map[string]int
	model *DataModel
}

// NewDescription validates pairs against model (when non-nil) and returns
// the description. Value order is kept exactly as given.
//
// Validation order: duplicate keys, then per-attribute checks in model
// order (missing required, type), then keys the model does not declare.
func NewDescription(model *DataModel, pairs ...Pair) (*Description, error) {
	index := make(map[string]int, len(pairs))
	for i, p := range pairs {
		if p.Value == nil {
			return nil, Errorf(CodeTypeMismatch, p.Key, "attribute %q has no value", p.Key)
		}
		if _, dup := index[p.Key]; dup {
			return nil, Errorf(CodeDuplicateAttribute, p.Key, "value for %q given twice", p.Key)
		}
		index[p.Key] = i
	}

	if model != nil {
		if err := checkAgainstModel(model, pairs, index); err != nil {
			return nil, err
		}
	}

	values := make([]Pair, len(pairs))
	copy(values, pairs)

	return &Description{pairs: values, index: index, model: model}, nil
}

// MustDescription is like NewDescription but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustDescription(model *DataModel, pairs ...Pair) *Description {
	d, err := NewDescription(model, pairs...)
	if err != nil {
		panic(err)
	}
	return d
}

func checkAgainstModel(model *DataModel, pairs []Pair, index map[string]int) error {
	for _, attr := range model.attributes {
		i, present := index[attr.Name]
		if !present {
			if attr.Required {
				return Errorf(CodeMissingAttribute, attr.Name,
					"required attribute %q of model %q is missing", attr.Name, model.name)
			}
			continue
		}
		actual := pairs[i].Value.Type()
		if !attr.Type.Accepts(actual) {
			return Errorf(CodeTypeMismatch, attr.Name,
				"attribute %q declared %s, got %s", attr.Name, attr.Type, actual)
		}
	}

	for _, p := range pairs {
		if _, ok := model.index[p.Key]; !ok {
			return Errorf(CodeUnknownAttribute, p.Key,
				"attribute %q is not declared by model %q", p.Key, model.name)
		}
	}
	return nil
}

// Get returns the value of an attribute, if present.
func (d *Description) Get(name string) (Value, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.pairs[i].Value, true
}

// Model returns the data model the description was validated against, or nil.
func (d *Description) Model() *DataModel { return d.model }

// Pairs returns a copy of the values in insertion order.
func (d *Description) Pairs() []Pair {
	out := make([]Pair, len(d.pairs))
	copy(out, d.pairs)
	return out
}

// Names returns the attribute names in insertion order.
func (d *Description) Names() []string {
	names := make([]string, len(d.pairs))
	for i, p := range d.pairs {
		names[i] = p.Key
	}
	return names
}

// Len returns the number of values.
func (d *Description) Len() int { return len(d.pairs) }

// Equal reports exact equality of values (type and order included) and of
// the referenced models.
func (d *Description) Equal(other *Description) bool {
	if d == other {
		return true
	}
	if d == nil || other == nil || len(d.pairs) != len(other.pairs) {
		return false
	}
	for i := range d.pairs {
		if d.pairs[i].Key != other.pairs[i].Key || !Identical(d.pairs[i].Value, other.pairs[i].Value) {
			return false
		}
	}
	return d.model.Equal(other.model)
}
