package eval

import (
	"context"

	"github.com/cozodb/cozo/internal/cozoerr"
	"github.com/cozodb/cozo/internal/cozoscript/ast"
	"github.com/cozodb/cozo/internal/plan"
)

// evalSemiNaive computes the fixpoint of one recursive SCC's rules (spec
// §4.4 "recursive SCC ... semi-naive evaluation"). Each round, a plain
// rule's delta is the union, over every occurrence of an internal relation
// reference in its body, of evaluating the rule with that one occurrence
// bound to the prior round's delta and every other internal reference bound
// to the accumulated known set, minus rows already known (ΔR⋈). An
// aggregating rule inside the SCC cannot be delta-substituted the same way
// — a monotone aggregator's finalized value for a group can change as new
// contributing rows arrive, not just grow — so it is instead recomputed in
// full against known∪delta each round and upserted by group; this is a
// documented simplification (see DESIGN.md) that trades incrementality for
// a much simpler, still-correct implementation.
func (e *Evaluator) evalSemiNaive(ctx context.Context, ruleNames []string) error {
	internal := map[string]bool{}
	for _, n := range ruleNames {
		internal[n] = true
	}

	rules := map[string]*plan.Rule{}
	known := map[string]*Relation{}
	delta := map[string]*Relation{}
	for _, n := range ruleNames {
		r := e.Plan.ByName[n]
		rules[n] = r
		arity := len(r.HeadVars)
		if r.IsAggregate {
			arity = len(r.Aggregations)
		}
		known[n] = NewRelation(arity)
		delta[n] = NewRelation(arity)
	}

	resolveKnown := func(a *ast.Atom) (*Relation, error) {
		if internal[a.Name] {
			return known[a.Name], nil
		}
		return e.getRelation(a.Name)
	}

	// Seed round: internal references all resolve to an empty known set, so
	// only the rule's non-recursive base case fires.
	for _, n := range ruleNames {
		rows, err := e.evalRuleRows(rules[n], resolveKnown)
		if err != nil {
			return err
		}
		for _, row := range rows {
			delta[n].Add(row)
			if !rules[n].IsAggregate {
				known[n].Add(row)
			}
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return cozoerr.NewRuntimeError(cozoerr.Cancellation, "evaluation cancelled: %v", err)
		}
		anyDelta := false
		for _, n := range ruleNames {
			if delta[n].Len() > 0 {
				anyDelta = true
				break
			}
		}
		if !anyDelta {
			break
		}

		nextDelta := map[string]*Relation{}
		for _, n := range ruleNames {
			nextDelta[n] = NewRelation(known[n].Arity)
		}

		for _, n := range ruleNames {
			r := rules[n]

			if r.IsAggregate {
				resolveUnion := func(a *ast.Atom) (*Relation, error) {
					if internal[a.Name] {
						return unionRelations(known[a.Name], delta[a.Name]), nil
					}
					return e.getRelation(a.Name)
				}
				rows, err := e.evalAggregationRows(r, resolveUnion)
				if err != nil {
					return err
				}
				groupCols := len(r.HeadVars)
				for _, row := range rows {
					if known[n].ReplaceGroup(groupCols, row) {
						nextDelta[n].Add(row)
					}
				}
				continue
			}

			occurrences := internalOccurrences(r, internal)
			if len(occurrences) == 0 {
				// A rule in a recursive SCC with no internal reference
				// doesn't actually depend on the recursion; evaluate it
				// once against known, which is already the fixpoint.
				continue
			}

			seen := map[string]bool{}
			for _, occ := range occurrences {
				resolve := func(a *ast.Atom) (*Relation, error) {
					if a == occ {
						return delta[a.Name], nil
					}
					if internal[a.Name] {
						return known[a.Name], nil
					}
					return e.getRelation(a.Name)
				}
				rows, err := e.evalRuleRows(r, resolve)
				if err != nil {
					return err
				}
				for _, row := range rows {
					key := rowKey(row)
					if seen[key] {
						continue
					}
					seen[key] = true
					if known[n].Add(row) {
						nextDelta[n].Add(row)
					}
				}
			}
		}

		delta = nextDelta
	}

	for _, n := range ruleNames {
		e.results[n] = known[n]
	}
	return nil
}

// internalOccurrences returns every atom in r's body that applies a
// relation or rule named in internal, in the order it appears. Each one is
// a distinct ΔR⋈ substitution site for semi-naive evaluation.
func internalOccurrences(r *plan.Rule, internal map[string]bool) []*ast.Atom {
	var out []*ast.Atom
	for _, conj := range r.Disjuncts {
		for _, pa := range conj.Atoms {
			a := pa.Source
			if (a.Kind == ast.AtomRelationApp || a.Kind == ast.AtomRuleApp) && internal[a.Name] {
				out = append(out, a)
			}
		}
	}
	return out
}
