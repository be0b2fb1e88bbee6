// Package trigger implements the trigger runner: after a stored relation
// is mutated by `:put`/`:rm`/`:replace`, it schedules the queries registered
// against that relation via `::set_triggers` to run on the same transaction
// (spec §4.7).
package trigger

import (
	"context"

	"github.com/cozodb/cozo/internal/cozoerr"
	"github.com/cozodb/cozo/internal/cozoscript/ast"
	"github.com/cozodb/cozo/internal/value"
)

// Kind identifies which mutation caused a firing.
type Kind int

const (
	OnPut Kind = iota
	OnRm
	OnReplace
)

// Firing is one scheduled trigger invocation: relation's rows changed by
// kind, with new/old carrying the tuples involved — exposed to the fired
// query as the `_new`/`_old` pseudo-relations.
type Firing struct {
	Relation string
	Kind     Kind
	New      [][]value.Value
	Old      [][]value.Value
}

// TriggerSet is the registered clauses for one relation.
type TriggerSet struct {
	OnPut     []*ast.QueryScript
	OnRm      []*ast.QueryScript
	OnReplace []*ast.QueryScript
}

func (s *TriggerSet) clauses(k Kind) []*ast.QueryScript {
	switch k {
	case OnPut:
		return s.OnPut
	case OnRm:
		return s.OnRm
	case OnReplace:
		return s.OnReplace
	}
	return nil
}

// Executor runs one trigger clause against the firing transaction's `_new`
// and `_old` pseudo-relations, returning any further firings the clause's
// own mutations produced.
type Executor func(ctx context.Context, script *ast.QueryScript, newRows, oldRows [][]value.Value) ([]Firing, error)

type queued struct {
	firing Firing
	depth  int
}

// Runner holds the triggers catalog — a concurrency-safe map guarded the
// way the teacher guards its namespace cache — and drains a queue of
// firings up to a bounded transitive depth (spec §4.7 "depth counter ...
// default bound 64").
type Runner struct {
	catalog  *Catalog
	maxDepth int
}

// NewRunner returns a Runner backed by catalog, rejecting firing chains
// deeper than maxDepth (0 selects the spec's default of 64).
func NewRunner(catalog *Catalog, maxDepth int) *Runner {
	if maxDepth <= 0 {
		maxDepth = 64
	}
	return &Runner{catalog: catalog, maxDepth: maxDepth}
}

// Drain executes every firing in initial, and every further firing those
// clauses' own mutations produce, until the queue is empty or the depth
// bound is exceeded.
func (r *Runner) Drain(ctx context.Context, initial []Firing, exec Executor) error {
	queue := make([]queued, 0, len(initial))
	for _, f := range initial {
		queue = append(queue, queued{firing: f, depth: 0})
	}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return cozoerr.NewRuntimeError(cozoerr.Cancellation, "trigger execution cancelled: %v", err)
		}
		cur := queue[0]
		queue = queue[1:]
		if cur.depth > r.maxDepth {
			return cozoerr.NewRuntimeError(cozoerr.AlgorithmFailure, "trigger firing depth exceeded %d on relation %q", r.maxDepth, cur.firing.Relation)
		}

		set := r.catalog.Get(cur.firing.Relation)
		if set == nil {
			continue
		}
		for _, clause := range set.clauses(cur.firing.Kind) {
			more, err := exec(ctx, clause, cur.firing.New, cur.firing.Old)
			if err != nil {
				return err
			}
			for _, m := range more {
				queue = append(queue, queued{firing: m, depth: cur.depth + 1})
			}
		}
	}
	return nil
}
