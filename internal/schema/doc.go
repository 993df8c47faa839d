// Package schema provides the typed attribute model shared by agent
// descriptions and search queries.
//
// This package contains value types only. query, wire and everything above
// import schema; schema imports nothing internal.
//
// Key design constraints:
//   - Values are a closed set: Int, Float, Bool, String (sealed interface)
//   - An Int is accepted wherever a Float is declared, never the reverse
//   - DataModel and Description are built by validating constructors and are
//     never mutated afterwards, so they can be shared across goroutines
//   - Attribute and value order is insertion order; nothing here sorts
package schema
