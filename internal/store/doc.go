// Package store provides SQLite-backed persistence for the directory.
//
// Two tables:
//   - registrations: agent and service descriptions keyed by public key,
//     stored as canonical wire bytes with their content id
//   - searches: a log of answered searches (search id, query id, hit count)
//
// # Ordering
//
// Every read orders by public_key COLLATE BINARY then seq, or by seq alone
// for the search log. seq comes from the directory's logical clock; the
// store never looks at wall time, so two directories fed the same calls
// hold identical tables.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// The store does not interpret descriptions; decoding and matching live in
// the directory package.
package store
