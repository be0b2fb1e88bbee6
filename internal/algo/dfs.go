package algo

import (
	"context"

	"github.com/cozodb/cozo/internal/cozoerr"
	"github.com/cozodb/cozo/internal/eval"
	"github.com/cozodb/cozo/internal/value"
)

// DFS walks the input edge relation depth-first from the `starting` arg,
// returning `(node, order)` pairs numbered in visitation order.
func DFS(ctx context.Context, inputs []*eval.Relation, args map[string]value.Value) (*eval.Relation, error) {
	rel, err := edgeInput(inputs)
	if err != nil {
		return nil, err
	}
	start, ok := startingNode(args, "starting")
	if !ok {
		return nil, cozoerr.NewRuntimeError(cozoerr.AlgorithmFailure, "dfs requires a `starting` node argument")
	}
	adj, nodeVal := adjacency(rel)
	startKey := nodeKey(start)
	nodeVal[startKey] = start

	out := eval.NewRelation(2)
	visited := map[string]bool{}
	var order int64

	var visit func(node string) error
	visit = func(node string) error {
		if err := ctx.Err(); err != nil {
			return cozoerr.NewRuntimeError(cozoerr.Cancellation, "dfs cancelled: %v", err)
		}
		if visited[node] {
			return nil
		}
		visited[node] = true
		out.Add(eval.Row{nodeVal[node], value.Int(order)})
		order++
		for _, nb := range adj[node] {
			if err := visit(nb.to); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(startKey); err != nil {
		return nil, err
	}
	return out, nil
}
