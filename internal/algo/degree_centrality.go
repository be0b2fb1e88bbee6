package algo

import (
	"context"
	"sort"

	"github.com/cozodb/cozo/internal/eval"
	"github.com/cozodb/cozo/internal/value"
)

// DegreeCentrality returns `(node, in_degree, out_degree)` for every node
// appearing in the input edge relation.
func DegreeCentrality(ctx context.Context, inputs []*eval.Relation, args map[string]value.Value) (*eval.Relation, error) {
	rel, err := edgeInput(inputs)
	if err != nil {
		return nil, err
	}
	adj, nodeVal := adjacency(rel)
	inDeg := map[string]int64{}
	outDeg := map[string]int64{}
	for node := range adj {
		outDeg[node] = int64(len(adj[node]))
	}
	for _, nbs := range adj {
		for _, nb := range nbs {
			inDeg[nb.to]++
		}
	}

	nodes := make([]string, 0, len(adj))
	for n := range adj {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	out := eval.NewRelation(3)
	for _, node := range nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out.Add(eval.Row{nodeVal[node], value.Int(inDeg[node]), value.Int(outDeg[node])})
	}
	return out, nil
}
