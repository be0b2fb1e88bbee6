package stratify

// stronglyConnectedComponents implements Tarjan's algorithm over g (no
// direct teacher analog; SCC detection is standard graph theory — see
// DESIGN.md). Components are returned in the order Tarjan completes
// them, which is exactly "dependencies before dependents" for a graph
// whose edges point from a rule to what it depends on — the order
// Stratify needs to compute each stratum's level from its
// already-processed predecessors.
func stronglyConnectedComponents(g *Graph) [][]string {
	adj := map[string][]string{}
	for _, e := range g.Edges {
		adj[e.From] = append(adj[e.From], e.To)
	}

	t := &tarjanState{
		adj:     adj,
		index:   map[string]int{},
		lowlink: map[string]int{},
		onStack: map[string]bool{},
	}

	for _, n := range g.Nodes {
		if _, seen := t.index[n]; !seen {
			t.strongconnect(n)
		}
	}
	return t.result
}

type tarjanState struct {
	adj     map[string][]string
	index   map[string]int
	lowlink map[string]int
	onStack map[string]bool
	stack   []string
	counter int
	result  [][]string
}

// strongconnect is the classic recursive Tarjan visit, rewritten as an
// explicit work-list to avoid recursion depth concerns on large rule
// graphs, while preserving the recursive algorithm's semantics exactly.
func (t *tarjanState) strongconnect(v string) {
	type frame struct {
		node    string
		iter    int
		parent  string
		hasPar  bool
	}

	var work []*frame
	push := func(n string, parent string, hasParent bool) {
		t.index[n] = t.counter
		t.lowlink[n] = t.counter
		t.counter++
		t.stack = append(t.stack, n)
		t.onStack[n] = true
		work = append(work, &frame{node: n, parent: parent, hasPar: hasParent})
	}
	push(v, "", false)

	for len(work) > 0 {
		f := work[len(work)-1]
		neighbors := t.adj[f.node]
		advanced := false
		for f.iter < len(neighbors) {
			w := neighbors[f.iter]
			f.iter++
			if _, seen := t.index[w]; !seen {
				push(w, f.node, true)
				advanced = true
				break
			} else if t.onStack[w] {
				if t.index[w] < t.lowlink[f.node] {
					t.lowlink[f.node] = t.index[w]
				}
			}
		}
		if advanced {
			continue
		}

		// All neighbors processed; pop this frame.
		work = work[:len(work)-1]
		if f.hasPar {
			if t.lowlink[f.node] < t.lowlink[f.parent] {
				t.lowlink[f.parent] = t.lowlink[f.node]
			}
		}
		if t.lowlink[f.node] == t.index[f.node] {
			var scc []string
			for {
				n := t.stack[len(t.stack)-1]
				t.stack = t.stack[:len(t.stack)-1]
				t.onStack[n] = false
				scc = append(scc, n)
				if n == f.node {
					break
				}
			}
			t.result = append(t.result, scc)
		}
	}
}
