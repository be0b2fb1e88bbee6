// Package storage defines the ordered key-value abstraction every stored
// relation is built on (spec §4.6): per-relation CRUD keyed by the encoded
// tuple key, prefix scans in key order, and the schema-mutation operations
// behind `:create`/`:replace`/`:rename`/`::remove`. internal/storage/memkv
// supplies the concrete hashicorp/go-memdb-backed implementation.
package storage

import (
	"github.com/cozodb/cozo/internal/value"
)

// KV is the engine's storage backend. A KV is safe for concurrent use;
// isolation between concurrent operations is provided by Begin.
type KV interface {
	// Begin starts a transaction. write selects a read-write transaction;
	// concurrent writers are serialized per relation, matching memdb's own
	// single-writer-per-table discipline.
	Begin(write bool) (Txn, error)
}

// Txn is one transaction against a KV. All methods operate relative to the
// transaction's snapshot until Commit or Abort.
type Txn interface {
	// Get looks up the value columns stored under key in relation. found is
	// false if no row has that key.
	Get(relation string, key []value.Value) (val []value.Value, found bool, err error)

	// Scan returns an Iterator over every row of relation whose key starts
	// with keyPrefix, in ascending key order. An empty keyPrefix scans the
	// whole relation.
	Scan(relation string, keyPrefix []value.Value) (Iterator, error)

	// Put inserts or overwrites the row with the given key.
	Put(relation string, key, val []value.Value) error

	// Delete removes the row with the given key, if present.
	Delete(relation string, key []value.Value) error

	// Create registers a new relation with the given schema. It fails if
	// the relation already exists.
	Create(relation string, schema value.Schema) error

	// Drop removes a relation and all of its rows.
	Drop(relation string) error

	// Rename changes a relation's name, preserving its rows and schema.
	// It fails if newName already names a relation.
	Rename(oldName, newName string) error

	// ListRelations returns the names of every stored relation.
	ListRelations() []string

	// Schema returns the schema of relation, if it exists.
	Schema(relation string) (value.Schema, bool)

	// Commit applies the transaction's writes. Read-only transactions may
	// also call Commit to release resources; it is equivalent to Abort for
	// them.
	Commit() error

	// Abort discards the transaction's writes.
	Abort() error
}

// Iterator walks a Scan's result set in ascending key order. Callers must
// call Close when done, even after Err returns non-nil.
type Iterator interface {
	// Next advances to the next row, returning false when exhausted or on
	// error (check Err to distinguish).
	Next() bool

	// Key returns the current row's key columns.
	Key() []value.Value

	// Value returns the current row's value columns.
	Value() []value.Value

	// Err returns the first error encountered, if any.
	Err() error

	// Close releases resources held by the iterator.
	Close() error
}
