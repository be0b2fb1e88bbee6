// Package algo implements the registry of named graph algorithms an
// algorithm rule's `<~` form dispatches to (spec §3 "Algorithm rule",
// SPEC_FULL.md §9). Each Algorithm receives its input relations already
// fully materialized by internal/eval and returns a single output relation;
// there is no third-party graph library anywhere in the example pack to
// ground a richer implementation on, so every algorithm here is a plain Go
// graph walk (see DESIGN.md).
package algo

import (
	"context"

	goerrors "github.com/go-errors/errors"

	"github.com/cozodb/cozo/internal/cozoerr"
	"github.com/cozodb/cozo/internal/eval"
	"github.com/cozodb/cozo/internal/value"
)

// Algorithm is one named graph operator.
type Algorithm func(ctx context.Context, inputs []*eval.Relation, args map[string]value.Value) (*eval.Relation, error)

// Registry is a name-keyed catalog of algorithms, dispatched to by
// internal/eval.Evaluator through the eval.AlgoRegistry interface.
type Registry struct {
	algos map[string]Algorithm
}

// NewRegistry returns a Registry seeded with the built-in algorithm set.
func NewRegistry() *Registry {
	r := &Registry{algos: map[string]Algorithm{}}
	r.Register("bfs", BFS)
	r.Register("dfs", DFS)
	r.Register("connected_components", ConnectedComponents)
	r.Register("shortest_path_dijkstra", ShortestPathDijkstra)
	r.Register("pagerank", PageRank)
	r.Register("degree_centrality", DegreeCentrality)
	return r
}

// Register adds or replaces the algorithm named name.
func (r *Registry) Register(name string, a Algorithm) {
	r.algos[name] = a
}

// Has reports whether name is a registered algorithm, for the compiler's
// plan.RelationSource check on an algorithm rule's name.
func (r *Registry) Has(name string) bool {
	_, ok := r.algos[name]
	return ok
}

// Invoke implements eval.AlgoRegistry. A panicking algorithm (an
// out-of-range starting node, a malformed argument the algorithm itself
// didn't validate) is recovered and reported as an AlgorithmFailure with
// its stack trace attached, rather than taking the whole engine down.
func (r *Registry) Invoke(ctx context.Context, name string, inputs []*eval.Relation, args map[string]value.Value) (result *eval.Relation, err error) {
	a, ok := r.algos[name]
	if !ok {
		return nil, cozoerr.NewRuntimeError(cozoerr.AlgorithmFailure, "unknown algorithm %q", name)
	}
	defer func() {
		if p := recover(); p != nil {
			stack := goerrors.Wrap(p, 2)
			err = cozoerr.NewRuntimeError(cozoerr.AlgorithmFailure, "algorithm %q panicked: %v\n%s", name, stack, stack.ErrorStack())
		}
	}()
	return a(ctx, inputs, args)
}

var _ eval.AlgoRegistry = (*Registry)(nil)

// edgeInput is the shared expectation of every algorithm here: a single
// input relation of 2 or 3 columns, `(from, to[, weight])`, the shape
// `*R[...]` or a computed rule naturally produces for an edge list.
func edgeInput(inputs []*eval.Relation) (*eval.Relation, error) {
	if len(inputs) != 1 {
		return nil, cozoerr.NewRuntimeError(cozoerr.AlgorithmFailure, "expects exactly one input relation, got %d", len(inputs))
	}
	rel := inputs[0]
	if rel.Arity != 2 && rel.Arity != 3 {
		return nil, cozoerr.NewRuntimeError(cozoerr.AlgorithmFailure, "expects an edge relation of arity 2 or 3, got %d", rel.Arity)
	}
	return rel, nil
}

// adjacency builds an out-neighbor map and a node-key -> original Value
// table, keyed by each node's canonical encoded form so Int, String, and
// other node-identifier types all work (spec's node identifiers are not
// restricted to String).
func adjacency(rel *eval.Relation) (adj map[string][]neighbor, nodeVal map[string]value.Value) {
	adj = map[string][]neighbor{}
	nodeVal = map[string]value.Value{}
	w := 1.0
	for _, row := range rel.Rows() {
		from := nodeKey(row[0])
		to := nodeKey(row[1])
		nodeVal[from] = row[0]
		nodeVal[to] = row[1]
		weight := w
		if rel.Arity == 3 {
			weight, _ = row[2].AsFloat64()
		}
		adj[from] = append(adj[from], neighbor{to: to, weight: weight})
		if _, ok := adj[to]; !ok {
			adj[to] = nil
		}
	}
	return adj, nodeVal
}

func nodeKey(v value.Value) string { return string(value.Encode(v)) }

type neighbor struct {
	to     string
	weight float64
}

func startingNode(args map[string]value.Value, key string) (value.Value, bool) {
	v, ok := args[key]
	return v, ok
}
