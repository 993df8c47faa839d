package wire

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/roach88/oefquery/internal/query"
)

// maxDepth bounds the nesting of And/Or trees accepted by the decoder. It is
// the construction bound, so every tree that encodes also decodes.
const maxDepth = query.MaxDepth

// field is one parsed field of a message. Exactly one of val and buf is
// meaningful, depending on typ.
type field struct {
	num protowire.Number
	typ protowire.Type
	val uint64
	buf []byte
}

// parseFields splits a message into its fields in buffer order.
// Groups are skipped whole; they carry no field this package knows.
func parseFields(msg string, b []byte) ([]field, error) {
	var out []field
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, parseError(msg, protowire.ParseError(n))
		}
		b = b[n:]

		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.val, n = protowire.ConsumeVarint(b)
		case protowire.Fixed64Type:
			f.val, n = protowire.ConsumeFixed64(b)
		case protowire.Fixed32Type:
			var v uint32
			v, n = protowire.ConsumeFixed32(b)
			f.val = uint64(v)
		case protowire.BytesType:
			f.buf, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return nil, parseError(msg, protowire.ParseError(n))
		}
		b = b[n:]

		if typ == protowire.StartGroupType {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

func parseError(msg string, err error) *DecodeError {
	return &DecodeError{Code: CodeMalformed, Message: msg, Err: err}
}

func (f field) want(msg, name string, typ protowire.Type) error {
	if f.typ != typ {
		return malformed("%s.%s: wire type %d, want %d", msg, name, f.typ, typ)
	}
	return nil
}

func (f field) asBytes(msg, name string) ([]byte, error) {
	if err := f.want(msg, name, protowire.BytesType); err != nil {
		return nil, err
	}
	return f.buf, nil
}

func (f field) asString(msg, name string) (string, error) {
	b, err := f.asBytes(msg, name)
	return string(b), err
}

func (f field) asVarint(msg, name string) (uint64, error) {
	if err := f.want(msg, name, protowire.VarintType); err != nil {
		return 0, err
	}
	return f.val, nil
}

func (f field) asInt64(msg, name string) (int64, error) {
	v, err := f.asVarint(msg, name)
	return int64(v), err
}

func (f field) asBool(msg, name string) (bool, error) {
	v, err := f.asVarint(msg, name)
	return protowire.DecodeBool(v), err
}

func (f field) asEnum(msg, name string) (int32, error) {
	v, err := f.asVarint(msg, name)
	return int32(v), err
}

func (f field) asDouble(msg, name string) (float64, error) {
	if err := f.want(msg, name, protowire.Fixed64Type); err != nil {
		return 0, err
	}
	return math.Float64frombits(f.val), nil
}

// repeatedVarints reads one occurrence of a repeated varint field, which
// may be a single unpacked value or a packed run.
func (f field) repeatedVarints(msg, name string) ([]uint64, error) {
	switch f.typ {
	case protowire.VarintType:
		return []uint64{f.val}, nil
	case protowire.BytesType:
		var out []uint64
		for b := f.buf; len(b) > 0; {
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, parseError(msg+"."+name, protowire.ParseError(n))
			}
			out = append(out, v)
			b = b[n:]
		}
		return out, nil
	default:
		return nil, malformed("%s.%s: wire type %d for repeated varint", msg, name, f.typ)
	}
}

// repeatedDoubles is repeatedVarints for fixed64 doubles.
func (f field) repeatedDoubles(msg, name string) ([]float64, error) {
	switch f.typ {
	case protowire.Fixed64Type:
		return []float64{math.Float64frombits(f.val)}, nil
	case protowire.BytesType:
		var out []float64
		for b := f.buf; len(b) > 0; {
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return nil, parseError(msg+"."+name, protowire.ParseError(n))
			}
			out = append(out, math.Float64frombits(v))
			b = b[n:]
		}
		return out, nil
	default:
		return nil, malformed("%s.%s: wire type %d for repeated double", msg, name, f.typ)
	}
}

// Append helpers. All of them write tag then payload.

func appendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendInt64(b []byte, num protowire.Number, v int64) []byte {
	return appendVarint(b, num, uint64(v))
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	return appendVarint(b, num, protowire.EncodeBool(v))
}

// appendDouble writes v in canonical form: -0 as +0 and every NaN as the
// same NaN, so values that compare equal encode the same.
func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	switch {
	case v == 0:
		v = 0
	case math.IsNaN(v):
		v = math.NaN()
	}
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}
