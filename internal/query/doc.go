// Package query provides the constraint language agents use to search for
// each other, and the matching engine that evaluates it.
//
// A Query is an ordered conjunction of Constraints. Each Constraint pairs one
// attribute with an Expression tree:
//
//	Relation  Eq NotEq Lt LtEq Gt GtEq against one value
//	Set       In NotIn over values of one type
//	Range     inclusive [low, high]
//	And / Or  non-empty combinations of the above
//
// SEALED INTERFACE:
//
// Expression is sealed with a marker method, so the matcher is a single
// exhaustive type switch:
//
//	switch e := expr.(type) {
//	case Relation:
//	case Set:
//	case Range:
//	case And:
//	case Or:
//	}
//
// MATCHING:
//
// Matching is total. A constraint on an attribute the description does not
// carry is not satisfied, and a comparison between incomparable types is
// false. Nothing in Check returns an error or panics, so a search over a
// heterogeneous registry yields "no match" instead of aborting.
//
// Numeric comparisons promote Int to Float when the other side is a Float.
// Set membership is exact: type and value must both be equal.
//
// Bool values support Eq and NotEq only; ordering relations on bools are
// never satisfied.
package query
