package engine

import (
	"context"
	"errors"
	"time"

	"github.com/cozodb/cozo/internal/cozoerr"
	"github.com/cozodb/cozo/internal/cozoscript/ast"
	"github.com/cozodb/cozo/internal/eval"
	"github.com/cozodb/cozo/internal/plan"
	"github.com/cozodb/cozo/internal/result"
	"github.com/cozodb/cozo/internal/storage"
	"github.com/cozodb/cozo/internal/stratify"
	"github.com/cozodb/cozo/internal/trigger"
	"github.com/cozodb/cozo/internal/value"
)

// runQuery compiles, stratifies, and evaluates one query script against tx,
// applies its mutation options, and assembles the entry relation's result
// (spec §2 pipeline, §4.8). newRows/oldRows are non-nil only when qs is a
// trigger clause, in which case they seed the `_new`/`_old` pseudo-relations
// (spec §4.7) instead of leaving them absent.
func (e *Engine) runQuery(ctx context.Context, tx storage.Txn, qs *ast.QueryScript, params map[string]value.Value, newRows, oldRows [][]value.Value) (*Result, []trigger.Firing, error) {
	isTrigger := newRows != nil || oldRows != nil

	extra := map[string]bool{}
	if isTrigger {
		extra["_new"] = true
		extra["_old"] = true
	}
	src := &relationSource{tx: tx, algo: e.algo, extra: extra}

	p, err := plan.Compile(qs, src)
	if err != nil {
		return nil, nil, err
	}

	monotone := make(map[string]bool, len(eval.Aggregators))
	for name, agg := range eval.Aggregators {
		monotone[name] = agg.Monotone
	}
	g := stratify.Build(p, monotone)
	strata, err := stratify.Stratify(g)
	if err != nil {
		return nil, nil, err
	}

	evalCtx := ctx
	hasDeadline := false
	if p.Options.HasTimeout {
		var cancel context.CancelFunc
		evalCtx, cancel = context.WithTimeout(ctx, secondsToDuration(p.Options.Timeout))
		defer cancel()
		hasDeadline = true
	} else if e.cfg.DefaultTimeout > 0 {
		var cancel context.CancelFunc
		evalCtx, cancel = context.WithTimeout(ctx, e.cfg.DefaultTimeout)
		defer cancel()
		hasDeadline = true
	}

	ev := eval.New(p, tx, e.algo, params)
	ev.MaxConcurrency = e.cfg.MaxConcurrency
	if isTrigger {
		ev.Seed("_new", rowsToRelation(newRows))
		ev.Seed("_old", rowsToRelation(oldRows))
	}

	for _, st := range strata {
		if err := ev.RunStratum(evalCtx, st); err != nil {
			// A script-level `:timeout` (or the engine's default) firing is
			// reported as Runtime/Timeout, distinct from a caller-initiated
			// ctx cancellation or `::kill`, which surface as the
			// evaluator's own Cancellation kind (spec §5, §7).
			if hasDeadline && errors.Is(evalCtx.Err(), context.DeadlineExceeded) {
				return nil, nil, cozoerr.NewRuntimeError(cozoerr.Timeout, "query exceeded its timeout: %v", err)
			}
			return nil, nil, err
		}
	}

	if p.Options.HasSleep {
		time.Sleep(secondsToDuration(p.Options.Sleep))
	}

	entryRule := p.ByName["?"]
	rel, ok := ev.Result("?")
	if !ok {
		rel = eval.NewRelation(len(entryRule.Aggregations))
	}
	headNames := result.HeadNames(entryRule)

	rawRows := relationToValues(rel)
	firings, err := e.applyMutations(tx, p.Options, rawRows)
	if err != nil {
		return nil, nil, err
	}

	sorted, err := result.Assemble(rel, headNames, p.Options)
	if err != nil {
		return nil, nil, err
	}

	return &Result{Headers: headNames, Rows: rowsFromEval(sorted)}, firings, nil
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

func relationToValues(rel *eval.Relation) [][]value.Value {
	rows := rel.Rows()
	out := make([][]value.Value, len(rows))
	for i, r := range rows {
		out[i] = []value.Value(r)
	}
	return out
}

func rowsFromEval(rows []eval.Row) [][]value.Value {
	out := make([][]value.Value, len(rows))
	for i, r := range rows {
		out[i] = []value.Value(r)
	}
	return out
}

func rowsToRelation(rows [][]value.Value) *eval.Relation {
	arity := 0
	if len(rows) > 0 {
		arity = len(rows[0])
	}
	rel := eval.NewRelation(arity)
	for _, r := range rows {
		rel.Add(eval.Row(r))
	}
	return rel
}
