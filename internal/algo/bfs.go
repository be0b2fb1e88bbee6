package algo

import (
	"context"

	"github.com/cozodb/cozo/internal/cozoerr"
	"github.com/cozodb/cozo/internal/eval"
	"github.com/cozodb/cozo/internal/value"
)

// BFS walks the input edge relation breadth-first from the `starting` arg,
// returning `(node, dist)` pairs in visitation order.
func BFS(ctx context.Context, inputs []*eval.Relation, args map[string]value.Value) (*eval.Relation, error) {
	rel, err := edgeInput(inputs)
	if err != nil {
		return nil, err
	}
	start, ok := startingNode(args, "starting")
	if !ok {
		return nil, cozoerr.NewRuntimeError(cozoerr.AlgorithmFailure, "bfs requires a `starting` node argument")
	}
	adj, nodeVal := adjacency(rel)
	startKey := nodeKey(start)
	nodeVal[startKey] = start

	out := eval.NewRelation(2)
	visited := map[string]bool{startKey: true}
	queue := []string{startKey}
	dist := map[string]int64{startKey: 0}
	out.Add(eval.Row{start, value.Int(0)})

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, cozoerr.NewRuntimeError(cozoerr.Cancellation, "bfs cancelled: %v", err)
		}
		cur := queue[0]
		queue = queue[1:]
		for _, nb := range adj[cur] {
			if visited[nb.to] {
				continue
			}
			visited[nb.to] = true
			dist[nb.to] = dist[cur] + 1
			out.Add(eval.Row{nodeVal[nb.to], value.Int(dist[nb.to])})
			queue = append(queue, nb.to)
		}
	}
	return out, nil
}
