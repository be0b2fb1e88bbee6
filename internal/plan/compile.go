package plan

import (
	"github.com/cozodb/cozo/internal/cozoerr"
	"github.com/cozodb/cozo/internal/cozoscript/ast"
	"github.com/cozodb/cozo/internal/expr"
)

// RelationSource reports whether name is a known stored relation or
// algorithm, for reference-resolution checks that can't be answered from
// the script alone.
type RelationSource interface {
	HasRelation(name string) bool
	HasAlgorithm(name string) bool
}

// Compile resolves and reorders qs into a Plan. A rule name may be declared
// by more than one top-level statement (spec §3 "Rule": each statement
// contributes its disjuncts to the same named rule, the same as writing
// them as one declaration joined by `or`).
func Compile(qs *ast.QueryScript, src RelationSource) (*Plan, error) {
	p := &Plan{ByName: map[string]*Rule{}}

	ruleNames := map[string]bool{}
	for _, r := range qs.Rules {
		ruleNames[r.Name] = true
	}

	var order []string
	grouped := map[string][]*ast.Rule{}
	for _, r := range qs.Rules {
		if _, ok := grouped[r.Name]; !ok {
			order = append(order, r.Name)
		}
		grouped[r.Name] = append(grouped[r.Name], r)
	}

	for _, name := range order {
		cr, err := compileRuleGroup(name, grouped[name], ruleNames, src)
		if err != nil {
			return nil, err
		}
		p.Rules = append(p.Rules, cr)
		p.ByName[cr.Name] = cr
	}

	if _, ok := p.ByName["?"]; !ok {
		return nil, cozoerr.NewCompileError(cozoerr.UnresolvedVariable, "?", qs.Pos, "query has no entry rule `?`")
	}

	opts, err := compileOptions(qs.Options)
	if err != nil {
		return nil, err
	}
	p.Options = opts
	return p, nil
}

// compileRuleGroup compiles every statement declaring name and merges their
// bodies into one Rule: a Datalog rule's disjuncts concatenate across
// statements, a constant rule's rows concatenate, and an algorithm rule may
// only be declared once.
func compileRuleGroup(name string, rules []*ast.Rule, ruleNames map[string]bool, src RelationSource) (*Rule, error) {
	var merged *Rule
	for _, r := range rules {
		cr, err := compileRule(r, ruleNames, src)
		if err != nil {
			return nil, err
		}
		if merged == nil {
			merged = cr
			continue
		}
		if merged.Kind != cr.Kind {
			return nil, cozoerr.NewCompileError(cozoerr.UnresolvedVariable, name, r.Pos, "rule %q is declared with inconsistent body forms across its statements", name)
		}
		switch cr.Kind {
		case ast.RuleDatalog:
			merged.Disjuncts = append(merged.Disjuncts, cr.Disjuncts...)
		case ast.RuleConst:
			merged.ConstRows = append(merged.ConstRows, cr.ConstRows...)
		case ast.RuleAlgo:
			return nil, cozoerr.NewCompileError(cozoerr.UnresolvedVariable, name, r.Pos, "algorithm rule %q is declared more than once", name)
		}
	}
	return merged, nil
}

func compileRule(r *ast.Rule, ruleNames map[string]bool, src RelationSource) (*Rule, error) {
	cr := &Rule{Name: r.Name, Kind: r.Kind}

	for _, h := range r.Head {
		if h.IsAggregate() {
			cr.IsAggregate = true
			agg := &Aggregation{Var: h.Var, Name: h.Aggregate}
			for _, extra := range h.ExtraArgs {
				ce, err := expr.Compile(r.Name, extra)
				if err != nil {
					return nil, err
				}
				agg.ExtraArgs = append(agg.ExtraArgs, ce)
			}
			cr.Aggregations = append(cr.Aggregations, agg)
		} else {
			cr.HeadVars = append(cr.HeadVars, h.Var)
			cr.Aggregations = append(cr.Aggregations, nil)
		}
	}

	switch r.Kind {
	case ast.RuleDatalog:
		for _, conj := range r.Disjuncts {
			pc, bound, err := compileConjunct(r.Name, conj, ruleNames, src)
			if err != nil {
				return nil, err
			}
			if err := checkHeadVarsBound(r, bound); err != nil {
				return nil, err
			}
			cr.Disjuncts = append(cr.Disjuncts, pc)
		}
	case ast.RuleConst:
		for _, row := range r.ConstRows {
			var crow []*expr.CompiledExpr
			for _, v := range row.Values {
				ce, err := expr.Compile(r.Name, v)
				if err != nil {
					return nil, err
				}
				crow = append(crow, ce)
			}
			cr.ConstRows = append(cr.ConstRows, crow)
		}
	case ast.RuleAlgo:
		if src != nil && !src.HasAlgorithm(r.AlgoName) {
			return nil, cozoerr.NewCompileError(cozoerr.UnknownAlgorithm, r.Name, r.Pos, "unknown algorithm %q", r.AlgoName)
		}
		cr.AlgoName = r.AlgoName
		cr.AlgoArgs = r.AlgoArgs
		for _, a := range r.AlgoArgs {
			if a.RelationRef != "" && src != nil && !ruleNames[a.RelationRef] && !src.HasRelation(a.RelationRef) {
				return nil, cozoerr.NewCompileError(cozoerr.UnresolvedVariable, r.Name, a.Pos, "unknown relation or rule %q", a.RelationRef)
			}
		}
	}

	return cr, nil
}

// compileConjunct reorders conj's atoms into an evaluable sequence: each
// atom must only reference variables already bound by an earlier atom (or
// be the one that binds a variable for the first time), and at the end
// every declared head variable must be bound (spec §4.2).
func compileConjunct(rule string, conj *ast.Conjunct, ruleNames map[string]bool, src RelationSource) (PlanConjunct, map[string]bool, error) {
	remaining := append([]*ast.Atom(nil), conj.Atoms...)
	bound := map[string]bool{}
	var ordered []PlanAtom

	for len(remaining) > 0 {
		progressed := false
		for i, atom := range remaining {
			newlyBound, ready, err := atomReadiness(rule, atom, bound, ruleNames, src)
			if err != nil {
				return PlanConjunct{}, nil, err
			}
			if !ready {
				continue
			}
			pa := PlanAtom{Source: atom, BoundHere: newlyBound}
			if atom.Kind == ast.AtomUnify || atom.Kind == ast.AtomMembership {
				ce, err := expr.Compile(rule, atom.Expr)
				if err != nil {
					return PlanConjunct{}, nil, err
				}
				pa.Compiled = ce
			}
			if atom.Kind == ast.AtomExpr {
				ce, err := expr.Compile(rule, atom.Guard)
				if err != nil {
					return PlanConjunct{}, nil, err
				}
				pa.Compiled = ce
			}
			ordered = append(ordered, pa)
			for _, v := range newlyBound {
				bound[v] = true
			}
			remaining = append(remaining[:i], remaining[i+1:]...)
			progressed = true
			break
		}
		if !progressed {
			return PlanConjunct{}, nil, cozoerr.NewCompileError(cozoerr.NoEvaluableOrder, rule, conj.Pos, "no evaluable order exists for this conjunction: remaining atoms have unbound free variables")
		}
	}

	return PlanConjunct{Atoms: ordered}, bound, nil
}

// checkHeadVarsBound verifies every plain head variable, and every
// aggregation's source variable, is bound by the conjunction (spec §4.2
// "rejects rules where a head variable does not appear positively in the
// body").
func checkHeadVarsBound(r *ast.Rule, bound map[string]bool) error {
	for _, h := range r.Head {
		if !bound[h.Var] {
			return cozoerr.NewCompileError(cozoerr.UnboundHeadVariable, r.Name, h.Pos, "head variable %q is not bound by the rule body", h.Var)
		}
	}
	return nil
}

// atomReadiness reports whether atom can be placed next given bound, and
// which variables it would newly bind if placed.
func atomReadiness(rule string, atom *ast.Atom, bound map[string]bool, ruleNames map[string]bool, src RelationSource) ([]string, bool, error) {
	switch atom.Kind {
	case ast.AtomRelationApp, ast.AtomRuleApp:
		if atom.IsStored {
			if src != nil && !src.HasRelation(atom.Name) {
				return nil, false, cozoerr.NewCompileError(cozoerr.UnresolvedVariable, rule, atom.Pos, "unknown stored relation %q", atom.Name)
			}
		} else if !ruleNames[atom.Name] {
			return nil, false, cozoerr.NewCompileError(cozoerr.UnresolvedVariable, rule, atom.Pos, "unknown rule %q", atom.Name)
		}
		var newly []string
		for _, v := range atom.FreeVars() {
			if !bound[v] {
				newly = append(newly, v)
			}
		}
		return newly, true, nil

	case ast.AtomNegation:
		inner := atom.Negated
		if inner.Kind == ast.AtomRelationApp || inner.Kind == ast.AtomRuleApp {
			if inner.IsStored {
				if src != nil && !src.HasRelation(inner.Name) {
					return nil, false, cozoerr.NewCompileError(cozoerr.UnresolvedVariable, rule, inner.Pos, "unknown stored relation %q", inner.Name)
				}
			} else if !ruleNames[inner.Name] {
				return nil, false, cozoerr.NewCompileError(cozoerr.UnresolvedVariable, rule, inner.Pos, "unknown rule %q", inner.Name)
			}
		}
		// Every variable referenced inside a negated atom must already be
		// bound; negation binds nothing (spec §4.3 negative edge).
		for _, v := range inner.FreeVars() {
			if !bound[v] {
				return nil, false, nil
			}
		}
		return nil, true, nil

	case ast.AtomUnify:
		freeInExpr := expr.FreeVars(atom.Expr)
		for _, v := range freeInExpr {
			if !bound[v] {
				return nil, false, nil
			}
		}
		if bound[atom.Var] {
			return nil, true, nil
		}
		return []string{atom.Var}, true, nil

	case ast.AtomMembership:
		freeInExpr := expr.FreeVars(atom.Expr)
		for _, v := range freeInExpr {
			if !bound[v] {
				return nil, false, nil
			}
		}
		if !bound[atom.Var] {
			return []string{atom.Var}, true, nil
		}
		return nil, true, nil

	case ast.AtomExpr:
		for _, v := range expr.FreeVars(atom.Guard) {
			if !bound[v] {
				return nil, false, nil
			}
		}
		return nil, true, nil
	}
	return nil, false, nil
}

func compileOptions(opts []*ast.Option) (Options, error) {
	var out Options
	for _, o := range opts {
		switch o.Kind {
		case ast.OptLimit:
			out.Limit, out.HasLimit = o.IntValue, true
		case ast.OptOffset:
			out.Offset, out.HasOffset = o.IntValue, true
		case ast.OptSort:
			out.SortKeys = o.SortKeys
		case ast.OptTimeout:
			out.Timeout, out.HasTimeout = optFloat(o), true
		case ast.OptSleep:
			out.Sleep, out.HasSleep = optFloat(o), true
		case ast.OptAssert:
			out.HasAssert, out.AssertSome = true, o.AssertSome
		case ast.OptCreate:
			out.Create = append(out.Create, o)
		case ast.OptReplace:
			out.Replace = append(out.Replace, o)
		case ast.OptPut:
			out.Put = append(out.Put, o)
		case ast.OptRm:
			out.Rm = append(out.Rm, o)
		case ast.OptEnsure:
			out.Ensure = append(out.Ensure, o)
		case ast.OptEnsureNot:
			out.EnsureNot = append(out.EnsureNot, o)
		}
	}
	return out, nil
}

func optFloat(o *ast.Option) float64 {
	if o.FloatValue != 0 {
		return o.FloatValue
	}
	return float64(o.IntValue)
}
