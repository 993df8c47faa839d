// Package directory is a local registry of agent and service descriptions
// that answers searches with the query engine.
//
// Agents register one description under their public key; registering
// again replaces it. Services may register several descriptions under one
// key. A search returns the public keys whose description (any of them, for
// services) satisfies the query, in byte order with no duplicates.
//
// Registrations are persisted through store.Store as canonical wire bytes.
// Every mutation and every search is stamped with the next value of the
// directory's logical clock; searches are also logged under a search id.
//
// Decoded queries and descriptions are cached by content id, so repeated
// searches with the same encoded query decode it once.
//
// A Directory is safe for concurrent use.
package directory
