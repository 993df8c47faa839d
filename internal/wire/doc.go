// Package wire implements the canonical binary encoding of data models,
// descriptions, constraint expressions and queries.
//
// The encoding is the protocol-buffers wire format of the registry's proto2
// Query messages, written directly with protowire so that byte output is
// fully determined by this package:
//   - fields are emitted in ascending field number
//   - required fields are always emitted, optional strings only when non-empty
//   - repeated scalars are written unpacked
//
// Decoding accepts packed and unpacked repeated scalars and skips unknown
// fields. Every decoded value is rebuilt through the validating constructors
// of the schema and query packages, so a decoded value satisfies the same
// invariants as one built directly. Structural problems surface as
// *DecodeError; semantic ones as the wrapped *schema.ValidationError.
//
// Content identity (DescriptionID, QueryID, DataModelID) hashes the
// canonical bytes with a per-kind domain prefix.
package wire
