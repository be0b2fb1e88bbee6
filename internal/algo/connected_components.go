package algo

import (
	"context"
	"sort"

	"github.com/cozodb/cozo/internal/eval"
	"github.com/cozodb/cozo/internal/value"
)

// ConnectedComponents treats the input edge relation as undirected and
// returns `(node, component)` pairs, components numbered 0, 1, 2, ... in
// order of the smallest encoded node key each one contains.
func ConnectedComponents(ctx context.Context, inputs []*eval.Relation, args map[string]value.Value) (*eval.Relation, error) {
	rel, err := edgeInput(inputs)
	if err != nil {
		return nil, err
	}
	adj, nodeVal := adjacency(rel)
	undirected := map[string][]string{}
	for from, nbs := range adj {
		for _, nb := range nbs {
			undirected[from] = append(undirected[from], nb.to)
			undirected[nb.to] = append(undirected[nb.to], from)
		}
	}

	nodes := make([]string, 0, len(adj))
	for n := range adj {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	visited := map[string]bool{}
	out := eval.NewRelation(2)
	var compID int64
	for _, n := range nodes {
		if visited[n] {
			continue
		}
		queue := []string{n}
		visited[n] = true
		for len(queue) > 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			cur := queue[0]
			queue = queue[1:]
			out.Add(eval.Row{nodeVal[cur], value.Int(compID)})
			for _, nb := range undirected[cur] {
				if !visited[nb] {
					visited[nb] = true
					queue = append(queue, nb)
				}
			}
		}
		compID++
	}
	return out, nil
}
