// Package store provides the relational node store that executes compiled
// specifications.
//
// Nodes live in three tables:
//   - node: identity columns plus code, uri, number and audit dates
//   - node_text_attribute_value: one row per property value, ordered by idx
//   - node_reference_attribute_value: one row per reference, ordered by idx
//
// Ids are stored as canonical text and dates as Unix milliseconds, which is
// the form the specsql compiler emits parameters in.
//
// # Backends
//
// SQLite (mattn/go-sqlite3) is the default and the only backend the tests
// require. PostgreSQL is reached through pgx's database/sql driver. Both share
// the squirrel statement builders; PostgreSQL rewrites "?" placeholders to
// "$n" and uses the "C" collation so ordering matches SQLite's BINARY.
//
// # Deterministic Results
//
// Every key query ends in ORDER BY graph_id, type_id, id under a byte-wise
// collation, so paging is stable across backends.
//
// # Database Configuration (SQLite)
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Value rows cascade with their node
package store
