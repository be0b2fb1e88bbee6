package algo

import (
	"container/heap"
	"context"
	"math"

	"github.com/cozodb/cozo/internal/cozoerr"
	"github.com/cozodb/cozo/internal/eval"
	"github.com/cozodb/cozo/internal/value"
)

type distItem struct {
	node string
	dist float64
}

type distHeap []distItem

func (h distHeap) Len() int            { return len(h) }
func (h distHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h distHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *distHeap) Push(x interface{}) { *h = append(*h, x.(distItem)) }
func (h *distHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// ShortestPathDijkstra runs Dijkstra's algorithm from the `starting` arg
// over the (possibly weighted) input edge relation, returning `(node,
// dist)` pairs for every reachable node.
func ShortestPathDijkstra(ctx context.Context, inputs []*eval.Relation, args map[string]value.Value) (*eval.Relation, error) {
	rel, err := edgeInput(inputs)
	if err != nil {
		return nil, err
	}
	start, ok := startingNode(args, "starting")
	if !ok {
		return nil, cozoerr.NewRuntimeError(cozoerr.AlgorithmFailure, "shortest_path_dijkstra requires a `starting` node argument")
	}
	adj, nodeVal := adjacency(rel)
	startKey := nodeKey(start)
	nodeVal[startKey] = start

	dist := map[string]float64{startKey: 0}
	h := &distHeap{{node: startKey, dist: 0}}
	visited := map[string]bool{}

	for h.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, cozoerr.NewRuntimeError(cozoerr.Cancellation, "shortest_path_dijkstra cancelled: %v", err)
		}
		cur := heap.Pop(h).(distItem)
		if visited[cur.node] {
			continue
		}
		visited[cur.node] = true
		for _, nb := range adj[cur.node] {
			nd := cur.dist + nb.weight
			if d, ok := dist[nb.to]; !ok || nd < d {
				dist[nb.to] = nd
				heap.Push(h, distItem{node: nb.to, dist: nd})
			}
		}
	}

	out := eval.NewRelation(2)
	for node, d := range dist {
		if math.IsInf(d, 1) {
			continue
		}
		out.Add(eval.Row{nodeVal[node], value.Float(d)})
	}
	return out, nil
}
