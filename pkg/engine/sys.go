package engine

import (
	"context"
	"sort"

	"github.com/jzelinskie/stringz"

	"github.com/cozodb/cozo/internal/cozoerr"
	"github.com/cozodb/cozo/internal/cozoscript/ast"
	"github.com/cozodb/cozo/internal/eval"
	"github.com/cozodb/cozo/internal/plan"
	"github.com/cozodb/cozo/internal/storage"
	"github.com/cozodb/cozo/internal/stratify"
	"github.com/cozodb/cozo/internal/trigger"
	"github.com/cozodb/cozo/internal/value"
)

// runSys dispatches one `::`-prefixed system command (spec §4.1, §6).
func (e *Engine) runSys(ctx context.Context, tx storage.Txn, op ast.SysOp, params map[string]value.Value) (*Result, error) {
	switch op.Kind {
	case ast.SysCompact:
		// memkv keeps no compaction state of its own; accepted as a no-op
		// the way an in-process store has nothing to compact.
		return statusResult("ok"), nil

	case ast.SysRelations:
		names := stringz.Dedup(tx.ListRelations())
		sort.Strings(names)
		rows := make([][]value.Value, 0, len(names))
		for _, n := range names {
			if e.access.get(n) == levelHidden {
				continue
			}
			rows = append(rows, []value.Value{value.String(n)})
		}
		return &Result{Headers: []string{"name"}, Rows: rows}, nil

	case ast.SysColumns:
		schema, ok := tx.Schema(op.Relation)
		if !ok {
			return nil, cozoerr.NewSchemaError(cozoerr.UnknownRelation, op.Relation, "relation %q does not exist", op.Relation)
		}
		var rows [][]value.Value
		for _, c := range schema.Key {
			rows = append(rows, []value.Value{value.String(c.Name), value.String(c.Type.String()), value.Bool(true)})
		}
		for _, c := range schema.Value {
			rows = append(rows, []value.Value{value.String(c.Name), value.String(c.Type.String()), value.Bool(false)})
		}
		return &Result{Headers: []string{"column", "type", "key"}, Rows: rows}, nil

	case ast.SysRemove:
		for _, name := range op.Relations {
			if err := e.access.checkRemovable(name); err != nil {
				return nil, err
			}
			if err := tx.Drop(name); err != nil {
				return nil, err
			}
			e.triggers.Remove(name)
			e.access.remove(name)
		}
		return statusResult("ok"), nil

	case ast.SysRename:
		for _, pair := range op.Renames {
			oldName, newName := pair[0], pair[1]
			if err := e.access.checkRemovable(oldName); err != nil {
				return nil, err
			}
			if err := tx.Rename(oldName, newName); err != nil {
				return nil, err
			}
			if set := e.triggers.Get(oldName); set != nil {
				e.triggers.Set(newName, set)
				e.triggers.Remove(oldName)
			}
			e.access.rename(oldName, newName)
		}
		return statusResult("ok"), nil

	case ast.SysRunning:
		handles := e.registry.Handles()
		sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
		rows := make([][]value.Value, len(handles))
		for i, h := range handles {
			rows[i] = []value.Value{value.Int(h)}
		}
		return &Result{Headers: []string{"handle"}, Rows: rows}, nil

	case ast.SysKill:
		killed := e.registry.Kill(op.Handle)
		return &Result{Headers: []string{"killed"}, Rows: [][]value.Value{{value.Bool(killed)}}}, nil

	case ast.SysExplain:
		return e.explain(tx, op.Explained)

	case ast.SysAccessLevel:
		lv, ok := parseAccessLevel(op.AccessLevel)
		if !ok {
			return nil, cozoerr.NewRuntimeError(cozoerr.TypeCoercion, "unknown access level %q", op.AccessLevel)
		}
		for _, name := range op.AccessRelations {
			e.access.set(name, lv)
		}
		return statusResult("ok"), nil

	case ast.SysShowTriggers:
		set := e.triggers.Get(op.Relation)
		rows := [][]value.Value{
			{value.String("put"), value.Int(int64(len(triggerQueries(set, trigger.OnPut))))},
			{value.String("rm"), value.Int(int64(len(triggerQueries(set, trigger.OnRm))))},
			{value.String("replace"), value.Int(int64(len(triggerQueries(set, trigger.OnReplace))))},
		}
		return &Result{Headers: []string{"on", "count"}, Rows: rows}, nil

	case ast.SysSetTriggers:
		e.triggers.Set(op.Relation, &trigger.TriggerSet{
			OnPut:     op.OnPut,
			OnRm:      op.OnRm,
			OnReplace: op.OnReplace,
		})
		return statusResult("ok"), nil
	}
	return nil, cozoerr.NewRuntimeError(cozoerr.StorageIO, "unhandled system command")
}

func triggerQueries(set *trigger.TriggerSet, kind trigger.Kind) []*ast.QueryScript {
	if set == nil {
		return nil
	}
	switch kind {
	case trigger.OnPut:
		return set.OnPut
	case trigger.OnRm:
		return set.OnRm
	case trigger.OnReplace:
		return set.OnReplace
	}
	return nil
}

func statusResult(status string) *Result {
	return &Result{Headers: []string{"status"}, Rows: [][]value.Value{{value.String(status)}}}
}

// explain compiles and stratifies qs without evaluating it, reporting each
// rule's assigned stratum (spec §6 `::explain`).
func (e *Engine) explain(tx storage.Txn, qs *ast.QueryScript) (*Result, error) {
	src := &relationSource{tx: tx, algo: e.algo, extra: map[string]bool{}}
	p, err := plan.Compile(qs, src)
	if err != nil {
		return nil, err
	}
	monotone := make(map[string]bool, len(eval.Aggregators))
	for name, agg := range eval.Aggregators {
		monotone[name] = agg.Monotone
	}
	g := stratify.Build(p, monotone)
	strata, err := stratify.Stratify(g)
	if err != nil {
		return nil, err
	}

	stratumOf := map[string]int{}
	recursiveOf := map[string]bool{}
	for i, st := range strata {
		for _, name := range st.Rules {
			stratumOf[name] = i
			recursiveOf[name] = st.Recursive
		}
	}

	rows := make([][]value.Value, 0, len(p.Rules))
	for _, r := range p.Rules {
		rows = append(rows, []value.Value{
			value.String(r.Name),
			value.Int(int64(stratumOf[r.Name])),
			value.Bool(recursiveOf[r.Name]),
		})
	}
	return &Result{Headers: []string{"rule", "stratum", "recursive"}, Rows: rows}, nil
}
