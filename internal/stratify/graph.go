// Package stratify builds the rule-dependency graph, computes its
// strongly connected components via Tarjan's algorithm, and assigns each
// rule a stratum index, rejecting programs where negation or
// non-monotone aggregation occurs inside a recursive SCC (spec §4.3).
package stratify

import (
	"github.com/cozodb/cozo/internal/cozoerr"
	"github.com/cozodb/cozo/internal/cozoscript/ast"
	"github.com/cozodb/cozo/internal/plan"
)

// EdgeKind distinguishes a plain dependency from a negative one.
type EdgeKind int

const (
	EdgeNormal EdgeKind = iota
	EdgeNegative
)

// Edge is one dependency: From's body references To.
type Edge struct {
	From, To string
	Kind     EdgeKind
}

// Graph is the rule-dependency digraph for one compiled query (spec §4.3).
type Graph struct {
	Nodes []string
	Edges []Edge

	byName map[string]bool
}

// Build constructs the dependency graph for p's rules. Monotone
// aggregators listed in monotoneAggregators are exempted from the
// negative-edge labeling their non-monotone counterparts get.
func Build(p *plan.Plan, monotoneAggregators map[string]bool) *Graph {
	g := &Graph{byName: map[string]bool{}}
	for _, r := range p.Rules {
		g.Nodes = append(g.Nodes, r.Name)
		g.byName[r.Name] = true
	}

	for _, r := range p.Rules {
		switch r.Kind {
		case ast.RuleDatalog:
			aggNegative := r.IsAggregate && hasNonMonotoneAggregation(r, monotoneAggregators)
			for _, conj := range r.Disjuncts {
				for _, a := range conj.Atoms {
					g.addAtomEdges(r.Name, a, aggNegative)
				}
			}
		case ast.RuleAlgo:
			// Algorithm rule inputs are evaluated as opaque bulk operators;
			// the spec labels their input side negative so a rule cannot be
			// both an algorithm's input and live inside the same SCC.
			for _, arg := range r.AlgoArgs {
				if arg.RelationRef != "" && g.byName[arg.RelationRef] {
					g.Edges = append(g.Edges, Edge{From: r.Name, To: arg.RelationRef, Kind: EdgeNegative})
				}
			}
		}
	}
	return g
}

func (g *Graph) addAtomEdges(from string, a plan.PlanAtom, aggNegative bool) {
	src := a.Source
	switch src.Kind {
	case ast.AtomRuleApp:
		if g.byName[src.Name] {
			kind := EdgeNormal
			if aggNegative {
				kind = EdgeNegative
			}
			g.Edges = append(g.Edges, Edge{From: from, To: src.Name, Kind: kind})
		}
	case ast.AtomNegation:
		inner := src.Negated
		if (inner.Kind == ast.AtomRuleApp) && g.byName[inner.Name] {
			g.Edges = append(g.Edges, Edge{From: from, To: inner.Name, Kind: EdgeNegative})
		}
	}
}

func hasNonMonotoneAggregation(r *plan.Rule, monotone map[string]bool) bool {
	for _, agg := range r.Aggregations {
		if agg == nil {
			continue
		}
		if !monotone[agg.Name] {
			return true
		}
	}
	return false
}

// Stratum is one strongly connected component of the dependency graph,
// assigned an evaluation level (spec §4.3 "each stratum inherits the
// maximum dependency-level of its predecessors plus one").
type Stratum struct {
	Rules []string
	Level int
	// Recursive is true when the SCC contains more than one rule, or a
	// single rule with a self-edge (spec §4.4 "recursive SCC").
	Recursive bool
}

// Stratify computes SCCs, checks the negative-edge-in-cycle restriction,
// and returns strata in dependency order (predecessors before
// dependents, so index 0 evaluates first).
func Stratify(g *Graph) ([]Stratum, error) {
	sccs := stronglyConnectedComponents(g)

	inSCC := map[string]int{}
	for i, scc := range sccs {
		for _, n := range scc {
			inSCC[n] = i
		}
	}

	for i, scc := range sccs {
		recursive := len(scc) > 1 || hasSelfEdge(g, scc[0])
		if !recursive {
			continue
		}
		sccSet := map[string]bool{}
		for _, n := range scc {
			sccSet[n] = true
		}
		for _, e := range g.Edges {
			if e.Kind != EdgeNegative {
				continue
			}
			if sccSet[e.From] && sccSet[e.To] {
				return nil, cozoerr.NewCompileError(cozoerr.StratificationViolation, e.From, cozoerr.SourcePosition{}, "negation or non-monotone aggregation of %q occurs inside a recursive dependency cycle", e.To)
			}
		}
		_ = i
	}

	levels := make([]int, len(sccs))
	for i, scc := range sccs {
		sccSet := map[string]bool{}
		for _, n := range scc {
			sccSet[n] = true
		}
		maxPred := -1
		for _, e := range g.Edges {
			if !sccSet[e.From] {
				continue
			}
			if sccSet[e.To] {
				continue
			}
			if predLevel, ok := inSCC[e.To]; ok && levels[predLevel] > maxPred {
				maxPred = levels[predLevel]
			}
		}
		levels[i] = maxPred + 1
	}

	strata := make([]Stratum, len(sccs))
	for i, scc := range sccs {
		strata[i] = Stratum{
			Rules:     scc,
			Level:     levels[i],
			Recursive: len(scc) > 1 || hasSelfEdge(g, scc[0]),
		}
	}
	return strata, nil
}

func hasSelfEdge(g *Graph, node string) bool {
	for _, e := range g.Edges {
		if e.From == node && e.To == node {
			return true
		}
	}
	return false
}
