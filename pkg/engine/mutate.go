package engine

import (
	"context"

	"github.com/cozodb/cozo/internal/cozoerr"
	"github.com/cozodb/cozo/internal/cozoscript/ast"
	"github.com/cozodb/cozo/internal/plan"
	"github.com/cozodb/cozo/internal/storage"
	"github.com/cozodb/cozo/internal/trigger"
	"github.com/cozodb/cozo/internal/value"
)

// applyMutations runs every `:create|:replace|:put|:rm|:ensure|:ensure_not`
// option against tx, in that verb order, using entryRows as the tuples a
// `:put`-class verb upserts (spec §4.6). `:create`/`:replace` are followed
// immediately by a put of entryRows into the (re)created relation — spec §8
// scenario 4 ("create then put") shows the entry rule's rows ending up in
// the new relation without a separate `:put` in the script.
func (e *Engine) applyMutations(tx storage.Txn, opts plan.Options, entryRows [][]value.Value) ([]trigger.Firing, error) {
	var firings []trigger.Firing

	for _, o := range opts.Create {
		if err := tx.Create(o.Relation, convertSchema(o.Schema)); err != nil {
			return nil, err
		}
		f, err := putRows(tx, o.Relation, entryRows)
		if err != nil {
			return nil, err
		}
		firings = append(firings, f)
	}

	for _, o := range opts.Replace {
		if err := e.access.checkRemovable(o.Relation); err != nil {
			return nil, err
		}
		if _, ok := tx.Schema(o.Relation); ok {
			if err := tx.Drop(o.Relation); err != nil {
				return nil, err
			}
		}
		if err := tx.Create(o.Relation, convertSchema(o.Schema)); err != nil {
			return nil, err
		}
		f, err := putRows(tx, o.Relation, entryRows)
		if err != nil {
			return nil, err
		}
		firings = append(firings, f)
	}

	for _, o := range opts.Put {
		if err := e.access.checkMutable(o.Relation); err != nil {
			return nil, err
		}
		f, err := putRows(tx, o.Relation, entryRows)
		if err != nil {
			return nil, err
		}
		firings = append(firings, f)
	}

	for _, o := range opts.Rm {
		if err := e.access.checkMutable(o.Relation); err != nil {
			return nil, err
		}
		f, err := rmRows(tx, o.Relation, entryRows)
		if err != nil {
			return nil, err
		}
		firings = append(firings, f)
	}

	for _, o := range opts.Ensure {
		if err := ensureRows(tx, o.Relation, entryRows, true); err != nil {
			return nil, err
		}
	}

	for _, o := range opts.EnsureNot {
		if err := ensureRows(tx, o.Relation, entryRows, false); err != nil {
			return nil, err
		}
	}

	return firings, nil
}

func splitRow(schema value.Schema, row []value.Value) (key, val []value.Value, err error) {
	if err := schema.CheckTuple(row); err != nil {
		return nil, nil, cozoerr.NewRuntimeError(cozoerr.TypeCoercion, "%v", err)
	}
	return row[:len(schema.Key)], row[len(schema.Key):], nil
}

func putRows(tx storage.Txn, relation string, rows [][]value.Value) (trigger.Firing, error) {
	schema, ok := tx.Schema(relation)
	if !ok {
		return trigger.Firing{}, cozoerr.NewSchemaError(cozoerr.UnknownRelation, relation, "relation %q does not exist", relation)
	}
	var news [][]value.Value
	for _, row := range rows {
		key, val, err := splitRow(schema, row)
		if err != nil {
			return trigger.Firing{}, err
		}
		if err := tx.Put(relation, key, val); err != nil {
			return trigger.Firing{}, err
		}
		news = append(news, row)
	}
	return trigger.Firing{Relation: relation, Kind: trigger.OnPut, New: news}, nil
}

// rmRows deletes every row of relation whose key matches an entry row's
// leading columns — a `:rm` tuple shorter than the full key still names a
// key prefix to delete (spec §4.6 "delete by key prefix").
func rmRows(tx storage.Txn, relation string, rows [][]value.Value) (trigger.Firing, error) {
	schema, ok := tx.Schema(relation)
	if !ok {
		return trigger.Firing{}, cozoerr.NewSchemaError(cozoerr.UnknownRelation, relation, "relation %q does not exist", relation)
	}
	var olds [][]value.Value
	for _, row := range rows {
		keyLen := len(schema.Key)
		if keyLen > len(row) {
			keyLen = len(row)
		}
		it, err := tx.Scan(relation, row[:keyLen])
		if err != nil {
			return trigger.Firing{}, err
		}
		var toDelete [][]value.Value
		for it.Next() {
			k := it.Key()
			toDelete = append(toDelete, k)
			olds = append(olds, append(append([]value.Value(nil), k...), it.Value()...))
		}
		err = it.Err()
		it.Close()
		if err != nil {
			return trigger.Firing{}, err
		}
		for _, k := range toDelete {
			if err := tx.Delete(relation, k); err != nil {
				return trigger.Firing{}, err
			}
		}
	}
	return trigger.Firing{Relation: relation, Kind: trigger.OnRm, Old: olds}, nil
}

// ensureRows compares the entry relation's tuples against R's actual stored
// contents (spec §4.6 `:ensure`/`:ensure_not`) — unlike `:assert none|some`
// (internal/result.Assemble), which only inspects the entry relation's own
// row count, this needs transaction access to R and so lives here rather
// than in internal/result.
func ensureRows(tx storage.Txn, relation string, rows [][]value.Value, wantPresent bool) error {
	schema, ok := tx.Schema(relation)
	if !ok {
		return cozoerr.NewSchemaError(cozoerr.UnknownRelation, relation, "relation %q does not exist", relation)
	}
	for _, row := range rows {
		key, val, err := splitRow(schema, row)
		if err != nil {
			return err
		}
		got, found, err := tx.Get(relation, key)
		if err != nil {
			return err
		}
		if wantPresent {
			if !found || !tupleEqual(got, val) {
				return cozoerr.NewAssertionError(relation, []string{formatRow(row)}, "ensure: tuple not present in %q", relation)
			}
			continue
		}
		if found {
			return cozoerr.NewAssertionError(relation, []string{formatRow(row)}, "ensure_not: tuple already present in %q", relation)
		}
	}
	return nil
}

func tupleEqual(a, b []value.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !value.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func formatRow(row []value.Value) string {
	s := ""
	for i, v := range row {
		if i > 0 {
			s += ", "
		}
		s += v.String()
	}
	return s
}

// triggerExecutor runs one trigger clause through the same compile /
// stratify / evaluate pipeline as a top-level query, with `_new`/`_old`
// seeded as synthetic relations scoped to this one firing (spec §4.7).
func (e *Engine) triggerExecutor(tx storage.Txn, params map[string]value.Value) trigger.Executor {
	return func(ctx context.Context, script *ast.QueryScript, newRows, oldRows [][]value.Value) ([]trigger.Firing, error) {
		_, innerFirings, err := e.runQuery(ctx, tx, script, params, newRows, oldRows)
		if err != nil {
			return nil, err
		}
		return innerFirings, nil
	}
}
