package schema

import (
	"fmt"
	"math"
	"strconv"
)

// Value is a sealed interface representing an attribute value.
// Only Int, Float, Bool and String implement it.
type Value interface {
	// Type reports the runtime type of the value.
	Type() AttributeType
	attributeValue() // Sealed - only these types implement it
}

// Int is a signed 64-bit integer value.
type Int int64

// Type implements Value.
func (Int) Type() AttributeType { return TypeInt }
func (Int) attributeValue()     {}

// Float is a 64-bit floating point value.
type Float float64

// Type implements Value.
func (Float) Type() AttributeType { return TypeFloat }
func (Float) attributeValue()     {}

// Bool is a boolean value.
type Bool bool

// Type implements Value.
func (Bool) Type() AttributeType { return TypeBool }
func (Bool) attributeValue()     {}

// String is a UTF-8 string value.
type String string

// Type implements Value.
func (String) Type() AttributeType { return TypeString }
func (String) attributeValue()     {}

// AttributeType enumerates the declared types of an attribute.
// The numbering matches the wire enum and must not change.
type AttributeType int32

const (
	TypeFloat  AttributeType = 0
	TypeInt    AttributeType = 1
	TypeBool   AttributeType = 2
	TypeString AttributeType = 3
)

// String returns the lowercase name used in spec files and diagnostics.
func (t AttributeType) String() string {
	switch t {
	case TypeFloat:
		return "float"
	case TypeInt:
		return "int"
	case TypeBool:
		return "bool"
	case TypeString:
		return "string"
	default:
		return fmt.Sprintf("type(%d)", int32(t))
	}
}

// Valid reports whether t is one of the four declared types.
func (t AttributeType) Valid() bool {
	return t >= TypeFloat && t <= TypeString
}

// ParseType maps a type name to an AttributeType.
// Accepts common aliases such as "double" and "str".
func ParseType(name string) (AttributeType, error) {
	switch name {
	case "float", "double", "float64":
		return TypeFloat, nil
	case "int", "int64", "integer":
		return TypeInt, nil
	case "bool", "boolean":
		return TypeBool, nil
	case "string", "str":
		return TypeString, nil
	default:
		return 0, fmt.Errorf("unknown attribute type %q", name)
	}
}

// Accepts reports whether a value of type actual may stand where declared
// is expected. Int widens to Float; nothing else converts.
func (declared AttributeType) Accepts(actual AttributeType) bool {
	if declared == actual {
		return true
	}
	return declared == TypeFloat && actual == TypeInt
}

// ValueOf converts a plain Go value to a Value.
// Used at the YAML and CLI boundaries where values arrive untyped.
func ValueOf(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is not an attribute value")
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case int:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d out of int64 range", val)
		}
		return Int(val), nil
	case float32:
		return Float(val), nil
	case float64:
		return Float(val), nil
	default:
		return nil, fmt.Errorf("unsupported attribute value type: %T", v)
	}
}

// Native returns the plain Go value held by v.
func Native(v Value) any {
	switch val := v.(type) {
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case Bool:
		return bool(val)
	case String:
		return string(val)
	default:
		return nil
	}
}

// Format renders a value for diagnostics. Strings are quoted, floats always
// carry a decimal point so they stay distinguishable from ints.
func Format(v Value) string {
	switch val := v.(type) {
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Float:
		s := strconv.FormatFloat(float64(val), 'g', -1, 64)
		if _, err := strconv.ParseInt(s, 10, 64); err == nil {
			s += ".0"
		}
		return s
	case Bool:
		return strconv.FormatBool(bool(val))
	case String:
		return strconv.Quote(string(val))
	default:
		return "<nil>"
	}
}

// Equal reports exact type and value equality. No numeric promotion.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Type() == b.Type() && a == b
}

// Identical is Equal extended so that NaN is identical to NaN. Entity
// equality uses it; matching uses Equal, under which NaN equals nothing.
// Identical values encode to the same bytes.
func Identical(a, b Value) bool {
	if Equal(a, b) {
		return true
	}
	x, okA := a.(Float)
	y, okB := b.(Float)
	return okA && okB && math.IsNaN(float64(x)) && math.IsNaN(float64(y))
}
