// Package memkv implements storage.KV on top of hashicorp/go-memdb, the way
// the teacher's internal/datastore/memdb package wraps the same library for
// relationship storage: a fixed table/index schema per backing MemDB, a
// struct row type indexed by a string field, and a read/write transaction
// split.
//
// Cozo relations are created and dropped at query time (`:create`,
// `::remove`), which go-memdb's fixed-at-construction DBSchema does not
// allow for a single shared database. memkv works around this the way the
// teacher's schema.go fixes its table set ahead of time: each relation gets
// its own single-table MemDB, built from the same schema template, and a
// Store holds the open set of them behind one lock. The cost is that
// transactions are atomic per relation, not across relations in the same
// script — a limitation worth stating plainly rather than papering over.
package memkv

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-memdb"

	"github.com/cozodb/cozo/internal/cozoerr"
	"github.com/cozodb/cozo/internal/storage"
	"github.com/cozodb/cozo/internal/value"
)

const (
	tableRows = "rows"
	indexID   = "id"
)

// row is the only struct memkv ever stores: the canonical key encoding
// (indexed, unique) and the canonical value encoding (opaque to memdb).
type row struct {
	Key string
	Val string
}

func rowSchema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableRows: {
				Name: tableRows,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {
						Name:    indexID,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Key"},
					},
				},
			},
		},
	}
}

type relationHandle struct {
	schema value.Schema
	db     *memdb.MemDB
}

// Store is the concrete storage.KV: a set of independently-schemaed
// relations, each backed by its own go-memdb instance.
type Store struct {
	mu        sync.RWMutex
	relations map[string]*relationHandle
}

// New returns an empty Store.
func New() *Store {
	return &Store{relations: map[string]*relationHandle{}}
}

var _ storage.KV = (*Store)(nil)

// Begin starts a transaction. write is recorded on the returned Txn but
// schema operations (Create/Drop/Rename) and row operations are otherwise
// symmetric; callers doing only reads should still pass write=false so a
// future implementation can enforce the distinction.
func (s *Store) Begin(write bool) (storage.Txn, error) {
	return &txn{store: s, write: write, subTxns: map[string]*memdb.Txn{}}, nil
}

type txn struct {
	store *Store
	write bool
	// mu guards subTxns: the evaluator runs independent disjuncts of the
	// same rule concurrently (spec §4.4 "intra-stratum parallel disjunct
	// evaluation"), and those goroutines share this one transaction.
	mu      sync.Mutex
	subTxns map[string]*memdb.Txn
	done    bool
}

var _ storage.Txn = (*txn)(nil)

func (t *txn) handle(relation string) (*relationHandle, error) {
	t.store.mu.RLock()
	h, ok := t.store.relations[relation]
	t.store.mu.RUnlock()
	if !ok {
		return nil, cozoerr.NewRuntimeError(cozoerr.StorageIO, "unknown relation %q", relation)
	}
	return h, nil
}

// sub returns this transaction's open go-memdb transaction for relation,
// starting one on first use and reusing it for the rest of the script's
// lifetime so reads see the transaction's own uncommitted writes.
func (t *txn) sub(h *relationHandle, relation string) *memdb.Txn {
	t.mu.Lock()
	defer t.mu.Unlock()
	if mt, ok := t.subTxns[relation]; ok {
		return mt
	}
	mt := h.db.Txn(t.write)
	t.subTxns[relation] = mt
	return mt
}

func (t *txn) Get(relation string, key []value.Value) ([]value.Value, bool, error) {
	h, err := t.handle(relation)
	if err != nil {
		return nil, false, err
	}
	mt := t.sub(h, relation)
	keyStr := string(storage.EncodeKey(key))
	found, err := mt.First(tableRows, indexID, keyStr)
	if err != nil {
		return nil, false, cozoerr.NewRuntimeError(cozoerr.StorageIO, "get %q: %v", relation, err)
	}
	if found == nil {
		return nil, false, nil
	}
	val, err := value.DecodeTuple([]byte(found.(*row).Val), len(h.schema.Value))
	if err != nil {
		return nil, false, cozoerr.NewRuntimeError(cozoerr.StorageIO, "decoding %q: %v", relation, err)
	}
	return val, true, nil
}

func (t *txn) Scan(relation string, keyPrefix []value.Value) (storage.Iterator, error) {
	h, err := t.handle(relation)
	if err != nil {
		return nil, err
	}
	mt := t.sub(h, relation)

	var it memdb.ResultIterator
	if len(keyPrefix) == 0 {
		it, err = mt.Get(tableRows, indexID+"_prefix", "")
	} else {
		prefixStr := string(storage.EncodeKey(keyPrefix))
		it, err = mt.Get(tableRows, indexID+"_prefix", prefixStr)
	}
	if err != nil {
		return nil, cozoerr.NewRuntimeError(cozoerr.StorageIO, "scan %q: %v", relation, err)
	}
	return &iterator{it: it, keyArity: len(h.schema.Key), valArity: len(h.schema.Value)}, nil
}

func (t *txn) Put(relation string, key, val []value.Value) error {
	h, err := t.handle(relation)
	if err != nil {
		return err
	}
	mt := t.sub(h, relation)
	r := &row{Key: string(storage.EncodeKey(key)), Val: string(value.EncodeTuple(val))}
	if err := mt.Insert(tableRows, r); err != nil {
		return cozoerr.NewRuntimeError(cozoerr.StorageIO, "put %q: %v", relation, err)
	}
	return nil
}

func (t *txn) Delete(relation string, key []value.Value) error {
	h, err := t.handle(relation)
	if err != nil {
		return err
	}
	mt := t.sub(h, relation)
	keyStr := string(storage.EncodeKey(key))
	found, err := mt.First(tableRows, indexID, keyStr)
	if err != nil {
		return cozoerr.NewRuntimeError(cozoerr.StorageIO, "delete %q: %v", relation, err)
	}
	if found == nil {
		return nil
	}
	if err := mt.Delete(tableRows, found); err != nil {
		return cozoerr.NewRuntimeError(cozoerr.StorageIO, "delete %q: %v", relation, err)
	}
	return nil
}

func (t *txn) Create(relation string, schema value.Schema) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if _, exists := t.store.relations[relation]; exists {
		return cozoerr.NewSchemaError(cozoerr.CreateExists, relation, "relation %q already exists", relation)
	}
	db, err := memdb.NewMemDB(rowSchema())
	if err != nil {
		return fmt.Errorf("memkv: unable to instantiate relation %q: %w", relation, err)
	}
	t.store.relations[relation] = &relationHandle{schema: schema, db: db}
	return nil
}

func (t *txn) Drop(relation string) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if _, exists := t.store.relations[relation]; !exists {
		return cozoerr.NewSchemaError(cozoerr.UnknownRelation, relation, "relation %q does not exist", relation)
	}
	delete(t.store.relations, relation)
	delete(t.subTxns, relation)
	return nil
}

func (t *txn) Rename(oldName, newName string) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	h, exists := t.store.relations[oldName]
	if !exists {
		return cozoerr.NewSchemaError(cozoerr.UnknownRelation, oldName, "relation %q does not exist", oldName)
	}
	if _, conflict := t.store.relations[newName]; conflict {
		return cozoerr.NewSchemaError(cozoerr.RenameConflict, newName, "relation %q already exists", newName)
	}
	delete(t.store.relations, oldName)
	t.store.relations[newName] = h
	return nil
}

func (t *txn) ListRelations() []string {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	names := make([]string, 0, len(t.store.relations))
	for name := range t.store.relations {
		names = append(names, name)
	}
	return names
}

func (t *txn) Schema(relation string) (value.Schema, bool) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	h, ok := t.store.relations[relation]
	if !ok {
		return value.Schema{}, false
	}
	return h.schema, true
}

func (t *txn) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	for _, mt := range t.subTxns {
		if t.write {
			mt.Commit()
		} else {
			mt.Abort()
		}
	}
	return nil
}

func (t *txn) Abort() error {
	if t.done {
		return nil
	}
	t.done = true
	for _, mt := range t.subTxns {
		mt.Abort()
	}
	return nil
}

type iterator struct {
	it       memdb.ResultIterator
	cur      *row
	keyArity int
	valArity int
	err      error
}

func (i *iterator) Next() bool {
	if i.err != nil {
		return false
	}
	raw := i.it.Next()
	if raw == nil {
		return false
	}
	i.cur = raw.(*row)
	return true
}

func (i *iterator) Key() []value.Value {
	k, err := value.DecodeTuple([]byte(i.cur.Key), i.keyArity)
	if err != nil {
		i.err = err
		return nil
	}
	return k
}

func (i *iterator) Value() []value.Value {
	v, err := value.DecodeTuple([]byte(i.cur.Val), i.valArity)
	if err != nil {
		i.err = err
		return nil
	}
	return v
}

func (i *iterator) Err() error { return i.err }

func (i *iterator) Close() error { return nil }
