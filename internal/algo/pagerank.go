package algo

import (
	"context"
	"sort"

	"github.com/cozodb/cozo/internal/cozoerr"
	"github.com/cozodb/cozo/internal/eval"
	"github.com/cozodb/cozo/internal/value"
)

const (
	defaultDamping    = 0.85
	defaultIterations = 20
)

// PageRank runs the standard power-iteration PageRank over the input edge
// relation (edge weights are ignored), returning `(node, rank)` pairs.
// Accepts optional `damping` (float, default 0.85) and `iterations` (int,
// default 20) args.
func PageRank(ctx context.Context, inputs []*eval.Relation, args map[string]value.Value) (*eval.Relation, error) {
	rel, err := edgeInput(inputs)
	if err != nil {
		return nil, err
	}
	damping := defaultDamping
	if v, ok := args["damping"]; ok {
		f, ok := v.AsFloat64()
		if !ok {
			return nil, cozoerr.NewRuntimeError(cozoerr.AlgorithmFailure, "pagerank `damping` must be numeric")
		}
		damping = f
	}
	iterations := defaultIterations
	if v, ok := args["iterations"]; ok {
		i, ok := v.AsInt()
		if !ok {
			return nil, cozoerr.NewRuntimeError(cozoerr.AlgorithmFailure, "pagerank `iterations` must be an integer")
		}
		iterations = int(i)
	}

	adj, nodeVal := adjacency(rel)
	nodes := make([]string, 0, len(adj))
	for n := range adj {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)
	n := len(nodes)
	if n == 0 {
		return eval.NewRelation(2), nil
	}

	rank := make(map[string]float64, n)
	for _, node := range nodes {
		rank[node] = 1.0 / float64(n)
	}

	for iter := 0; iter < iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, cozoerr.NewRuntimeError(cozoerr.Cancellation, "pagerank cancelled: %v", err)
		}
		next := make(map[string]float64, n)
		base := (1 - damping) / float64(n)
		for _, node := range nodes {
			next[node] = base
		}
		for _, node := range nodes {
			outDeg := len(adj[node])
			if outDeg == 0 {
				share := damping * rank[node] / float64(n)
				for _, node2 := range nodes {
					next[node2] += share
				}
				continue
			}
			share := damping * rank[node] / float64(outDeg)
			for _, nb := range adj[node] {
				next[nb.to] += share
			}
		}
		rank = next
	}

	out := eval.NewRelation(2)
	for _, node := range nodes {
		out.Add(eval.Row{nodeVal[node], value.Float(rank[node])})
	}
	return out, nil
}
