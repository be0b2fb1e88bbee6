// Package eval implements the semi-naïve Datalog evaluator: stratum
// dispatch (non-recursive union, recursive semi-naïve fixpoint,
// aggregation fold, algorithm invocation), grounded on spec.md §4.4 and
// SPEC_FULL.md §4.4.
package eval

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/cozodb/cozo/internal/cozoerr"
	"github.com/cozodb/cozo/internal/cozoscript/ast"
	"github.com/cozodb/cozo/internal/expr"
	"github.com/cozodb/cozo/internal/plan"
	"github.com/cozodb/cozo/internal/storage"
	"github.com/cozodb/cozo/internal/stratify"
	"github.com/cozodb/cozo/internal/value"
)

// AlgoRegistry invokes a registered graph algorithm by name. It is an
// interface rather than a concrete dependency on internal/algo so that
// package can depend on eval.Relation without an import cycle;
// internal/algo.Registry implements it.
type AlgoRegistry interface {
	Invoke(ctx context.Context, name string, inputs []*Relation, args map[string]value.Value) (*Relation, error)
}

// Evaluator runs one compiled Plan's strata against a storage transaction.
type Evaluator struct {
	Plan        *plan.Plan
	Tx          storage.Txn
	Algo        AlgoRegistry
	Aggregators map[string]*Aggregator
	// MaxConcurrency bounds the goroutines used to evaluate a rule's
	// disjuncts concurrently (0 means unbounded); sourced from
	// internal/config (spec §4.4 "intra-stratum parallel disjunct
	// evaluation").
	MaxConcurrency int
	params         map[string]value.Value
	results        map[string]*Relation
}

// New returns an Evaluator for p, reading/writing through tx and dispatching
// algorithm rules to algo.
func New(p *plan.Plan, tx storage.Txn, algo AlgoRegistry, params map[string]value.Value) *Evaluator {
	return &Evaluator{
		Plan:        p,
		Tx:          tx,
		Algo:        algo,
		Aggregators: Aggregators,
		params:      params,
		results:     map[string]*Relation{},
	}
}

// Result returns a previously-evaluated rule's relation.
func (e *Evaluator) Result(name string) (*Relation, bool) {
	r, ok := e.results[name]
	return r, ok
}

// Seed pre-populates name's relation, shadowing any stored relation of the
// same name for the rest of this Evaluator's lifetime (spec §4.7: a
// triggered query's `_new`/`_old` pseudo-relations are synthetic, scoped to
// one firing, and never touch storage).
func (e *Evaluator) Seed(name string, rel *Relation) {
	e.results[name] = rel
}

// RunStratum evaluates every rule in st, in the appropriate mode for
// st.Recursive (spec §4.4).
func (e *Evaluator) RunStratum(ctx context.Context, st stratify.Stratum) error {
	if err := ctx.Err(); err != nil {
		return cozoerr.NewRuntimeError(cozoerr.Cancellation, "evaluation cancelled: %v", err)
	}
	if !st.Recursive {
		for _, name := range st.Rules {
			r := e.Plan.ByName[name]
			if r == nil {
				continue
			}
			if err := e.evalRuleOnce(ctx, r); err != nil {
				return err
			}
		}
		return nil
	}
	return e.evalSemiNaive(ctx, st.Rules)
}

func (e *Evaluator) evalRuleOnce(ctx context.Context, r *plan.Rule) error {
	switch r.Kind {
	case ast.RuleConst:
		return e.evalConst(r)
	case ast.RuleAlgo:
		return e.evalAlgo(ctx, r)
	case ast.RuleDatalog:
		if r.IsAggregate {
			return e.evalAggregation(r)
		}
		return e.evalPlainDatalog(r)
	}
	return nil
}

// evalConst materializes a `<-` constant rule's literal rows (spec §3
// "Constant rule").
func (e *Evaluator) evalConst(r *plan.Rule) error {
	arity := len(r.HeadVars)
	if len(r.ConstRows) > 0 {
		arity = len(r.ConstRows[0])
	}
	rel := NewRelation(arity)
	env := expr.NewEnv(e.params)
	for _, crow := range r.ConstRows {
		row := make(Row, len(crow))
		for i, ce := range crow {
			v, err := ce.Eval(env)
			if err != nil {
				return err
			}
			row[i] = v
		}
		rel.Add(row)
	}
	e.results[r.Name] = rel
	return nil
}

// evalAlgo materializes an algorithm rule's inputs and dispatches to the
// algorithm registry (spec §3 "Algorithm rule", §4.4).
func (e *Evaluator) evalAlgo(ctx context.Context, r *plan.Rule) error {
	var inputs []*Relation
	args := map[string]value.Value{}
	env := expr.NewEnv(e.params)
	for _, a := range r.AlgoArgs {
		if a.RelationRef != "" {
			rel, err := e.getRelation(a.RelationRef)
			if err != nil {
				return err
			}
			inputs = append(inputs, rel)
			continue
		}
		ce, err := expr.Compile(r.Name, a.OptionValue)
		if err != nil {
			return err
		}
		v, err := ce.Eval(env)
		if err != nil {
			return err
		}
		args[a.OptionName] = v
	}

	if e.Algo == nil {
		return cozoerr.NewRuntimeError(cozoerr.AlgorithmFailure, "no algorithm registry configured")
	}
	out, err := e.Algo.Invoke(ctx, r.AlgoName, inputs, args)
	if err != nil {
		return cozoerr.NewRuntimeError(cozoerr.AlgorithmFailure, "algorithm %q: %v", r.AlgoName, err)
	}
	e.results[r.Name] = out
	return nil
}

// getRelation resolves name to its tuples, either a previously evaluated
// rule of this script or a stored relation read through Tx.
func (e *Evaluator) getRelation(name string) (*Relation, error) {
	if rel, ok := e.results[name]; ok {
		return rel, nil
	}
	schema, ok := e.Tx.Schema(name)
	if !ok {
		return nil, cozoerr.NewRuntimeError(cozoerr.StorageIO, "unknown relation %q", name)
	}
	it, err := e.Tx.Scan(name, nil)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	rel := NewRelation(schema.Arity())
	for it.Next() {
		row := make(Row, 0, schema.Arity())
		row = append(row, it.Key()...)
		row = append(row, it.Value()...)
		rel.Add(row)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return rel, nil
}

// relationResolver resolves the relation an atom references. It is keyed by
// the *ast.Atom node itself, not just its name, so a semi-naive fixpoint
// round can resolve one specific occurrence of an internal relation against
// its delta while every other occurrence of the same relation resolves
// against its accumulated known set (spec §4.4 "ΔR⋈").
type relationResolver func(a *ast.Atom) (*Relation, error)

// byName adapts a name-keyed lookup (e.g. Evaluator.getRelation) to a
// relationResolver for callers that don't need per-occurrence resolution.
func byName(f func(name string) (*Relation, error)) relationResolver {
	return func(a *ast.Atom) (*Relation, error) { return f(a.Name) }
}

// evalConjunctGeneric walks conj's atoms in their already-evaluable order
// (spec §4.2), resolving every relation/rule-application atom through
// resolve so callers can supply known, delta, or known∪delta substitutions.
func (e *Evaluator) evalConjunctGeneric(conj plan.PlanConjunct, resolve relationResolver) ([]*expr.Env, error) {
	envs := []*expr.Env{expr.NewEnv(e.params)}
	for _, pa := range conj.Atoms {
		if len(envs) == 0 {
			break
		}
		var err error
		a := pa.Source
		switch a.Kind {
		case ast.AtomRelationApp, ast.AtomRuleApp:
			var rel *Relation
			rel, err = resolve(a)
			if err == nil {
				envs, err = e.joinRelation(a, rel, envs)
			}
		case ast.AtomNegation:
			envs, err = e.filterNegation(a.Negated, envs)
		case ast.AtomUnify:
			envs, err = e.evalUnify(pa, envs)
		case ast.AtomMembership:
			envs, err = e.evalMembership(pa, envs)
		case ast.AtomExpr:
			envs, err = e.filterGuard(pa, envs)
		}
		if err != nil {
			return nil, err
		}
	}
	return envs, nil
}

func (e *Evaluator) joinRelation(a *ast.Atom, rel *Relation, envs []*expr.Env) ([]*expr.Env, error) {
	var out []*expr.Env
	for _, env := range envs {
		for _, row := range rel.Rows() {
			next, ok, err := e.matchRow(a, row, env)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, next)
			}
		}
	}
	return out, nil
}

func (e *Evaluator) matchRow(a *ast.Atom, row Row, env *expr.Env) (*expr.Env, bool, error) {
	cur := env
	if len(a.NamedArgs) > 0 {
		schema, ok := e.Tx.Schema(a.Name)
		if !ok {
			return nil, false, cozoerr.NewRuntimeError(cozoerr.TypeCoercion, "named-column binding requires a stored relation with a known schema: %q", a.Name)
		}
		cols := append(append([]value.ColumnSpec{}, schema.Key...), schema.Value...)
		for colName, varName := range a.NamedArgs {
			idx := -1
			for i, c := range cols {
				if c.Name == colName {
					idx = i
					break
				}
			}
			if idx < 0 || idx >= len(row) {
				return nil, false, cozoerr.NewRuntimeError(cozoerr.TypeCoercion, "unknown column %q on %q", colName, a.Name)
			}
			next, ok := bindOrCheck(cur, varName, row[idx])
			if !ok {
				return nil, false, nil
			}
			cur = next
		}
		return cur, true, nil
	}

	if len(a.PosArgs) != len(row) {
		return nil, false, cozoerr.NewRuntimeError(cozoerr.TypeCoercion, "%q has arity %d, but %d positional arguments were given", a.Name, len(row), len(a.PosArgs))
	}
	for i, varName := range a.PosArgs {
		next, ok := bindOrCheck(cur, varName, row[i])
		if !ok {
			return nil, false, nil
		}
		cur = next
	}
	return cur, true, nil
}

func bindOrCheck(env *expr.Env, name string, v value.Value) (*expr.Env, bool) {
	if bound, ok := env.Vars[name]; ok {
		return env, value.Equal(bound, v)
	}
	return env.Bind(name, v), true
}

// filterNegation implements `not atom` (spec §4.2, §4.3): every atom it
// negates must already have every free variable bound, so negation only
// ever filters, never binds. Negation of a relation/rule application is
// the case the stratifier labels as a negative edge; the other atom forms
// are evaluated directly as an inline boolean check.
func (e *Evaluator) filterNegation(inner *ast.Atom, envs []*expr.Env) ([]*expr.Env, error) {
	switch inner.Kind {
	case ast.AtomRelationApp, ast.AtomRuleApp:
		rel, err := e.getRelation(inner.Name)
		if err != nil {
			return nil, err
		}
		var out []*expr.Env
		for _, env := range envs {
			found := false
			for _, row := range rel.Rows() {
				_, ok, err := e.matchRow(inner, row, env)
				if err != nil {
					return nil, err
				}
				if ok {
					found = true
					break
				}
			}
			if !found {
				out = append(out, env)
			}
		}
		return out, nil
	case ast.AtomUnify:
		var out []*expr.Env
		for _, env := range envs {
			v, err := expr.Eval("not", inner.Expr, env)
			if err != nil {
				return nil, err
			}
			bound, isBound := env.Vars[inner.Var]
			if isBound && value.Equal(bound, v) {
				continue
			}
			out = append(out, env)
		}
		return out, nil
	case ast.AtomMembership:
		var out []*expr.Env
		for _, env := range envs {
			v, err := expr.Eval("not", inner.Expr, env)
			if err != nil {
				return nil, err
			}
			elems, ok := v.AsList()
			if !ok {
				elems, ok = v.AsTuple()
			}
			if !ok {
				return nil, cozoerr.NewRuntimeError(cozoerr.TypeCoercion, "'in' requires a List or Tuple, got %s", v)
			}
			bound, isBound := env.Vars[inner.Var]
			member := false
			if isBound {
				for _, elem := range elems {
					if value.Equal(bound, elem) {
						member = true
						break
					}
				}
			}
			if !member {
				out = append(out, env)
			}
		}
		return out, nil
	case ast.AtomExpr:
		var out []*expr.Env
		for _, env := range envs {
			v, err := expr.Eval("not", inner.Guard, env)
			if err != nil {
				return nil, err
			}
			b, ok := v.AsBool()
			if !ok {
				return nil, cozoerr.NewRuntimeError(cozoerr.TypeCoercion, "guard expression must be Bool, got %s", v)
			}
			if !b {
				out = append(out, env)
			}
		}
		return out, nil
	default:
		return envs, nil
	}
}

func (e *Evaluator) evalUnify(pa plan.PlanAtom, envs []*expr.Env) ([]*expr.Env, error) {
	var out []*expr.Env
	for _, env := range envs {
		v, err := pa.Compiled.Eval(env)
		if err != nil {
			return nil, err
		}
		if bound, ok := env.Vars[pa.Source.Var]; ok {
			if value.Equal(bound, v) {
				out = append(out, env)
			}
			continue
		}
		out = append(out, env.Bind(pa.Source.Var, v))
	}
	return out, nil
}

func (e *Evaluator) evalMembership(pa plan.PlanAtom, envs []*expr.Env) ([]*expr.Env, error) {
	var out []*expr.Env
	for _, env := range envs {
		v, err := pa.Compiled.Eval(env)
		if err != nil {
			return nil, err
		}
		elems, ok := v.AsList()
		if !ok {
			elems, ok = v.AsTuple()
		}
		if !ok {
			return nil, cozoerr.NewRuntimeError(cozoerr.TypeCoercion, "'in' requires a List or Tuple, got %s", v)
		}
		if bound, isBound := env.Vars[pa.Source.Var]; isBound {
			for _, elem := range elems {
				if value.Equal(bound, elem) {
					out = append(out, env)
					break
				}
			}
			continue
		}
		for _, elem := range elems {
			out = append(out, env.Bind(pa.Source.Var, elem))
		}
	}
	return out, nil
}

func (e *Evaluator) filterGuard(pa plan.PlanAtom, envs []*expr.Env) ([]*expr.Env, error) {
	var out []*expr.Env
	for _, env := range envs {
		v, err := pa.Compiled.Eval(env)
		if err != nil {
			return nil, err
		}
		b, ok := v.AsBool()
		if !ok {
			return nil, cozoerr.NewRuntimeError(cozoerr.TypeCoercion, "guard expression must be Bool, got %s", v)
		}
		if b {
			out = append(out, env)
		}
	}
	return out, nil
}

func projectHead(r *plan.Rule, env *expr.Env) (Row, error) {
	row := make(Row, len(r.HeadVars))
	for i, v := range r.HeadVars {
		val, ok := env.Vars[v]
		if !ok {
			return nil, cozoerr.NewRuntimeError(cozoerr.TypeCoercion, "head variable %q is not bound", v)
		}
		row[i] = val
	}
	return row, nil
}

// evalPlainDatalog evaluates a non-aggregating, non-recursive rule: all
// disjuncts (concurrently, via evalDisjuncts), unioned and deduplicated (spec §4.4 "Non-recursive
// SCC").
func (e *Evaluator) evalPlainDatalog(r *plan.Rule) error {
	rows, err := e.evalRuleRows(r, byName(e.getRelation))
	if err != nil {
		return err
	}
	rel := NewRelation(len(r.HeadVars))
	for _, row := range rows {
		rel.Add(row)
	}
	e.results[r.Name] = rel
	return nil
}

// evalDisjuncts evaluates every one of r's disjuncts concurrently
// (spec §4.4, SPEC_FULL.md §4.4 "intra-stratum parallel disjunct
// evaluation"), returning each disjunct's envs in declaration order. The
// first error is returned once all disjuncts finish; a failing disjunct
// does not stop the others.
func (e *Evaluator) evalDisjuncts(disjuncts []plan.PlanConjunct, resolve relationResolver) ([][]*expr.Env, error) {
	out := make([][]*expr.Env, len(disjuncts))
	var g errgroup.Group
	if e.MaxConcurrency > 0 {
		g.SetLimit(e.MaxConcurrency)
	}
	for i, conj := range disjuncts {
		i, conj := i, conj
		g.Go(func() error {
			envs, err := e.evalConjunctGeneric(conj, resolve)
			if err != nil {
				return err
			}
			out[i] = envs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Evaluator) evalRuleRows(r *plan.Rule, resolve relationResolver) ([]Row, error) {
	perDisjunct, err := e.evalDisjuncts(r.Disjuncts, resolve)
	if err != nil {
		return nil, err
	}
	var rows []Row
	for _, envs := range perDisjunct {
		for _, env := range envs {
			row, err := projectHead(r, env)
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// evalAggregation evaluates an aggregating rule: group by the non-aggregate
// head positions, fold each aggregate position with its registered
// Aggregator (spec §4.4 "Aggregation rule").
func (e *Evaluator) evalAggregation(r *plan.Rule) error {
	rows, err := e.evalAggregationRows(r, byName(e.getRelation))
	if err != nil {
		return err
	}
	rel := NewRelation(len(r.Aggregations))
	for _, row := range rows {
		rel.Add(row)
	}
	e.results[r.Name] = rel
	return nil
}

func (e *Evaluator) evalAggregationRows(r *plan.Rule, resolve relationResolver) ([]Row, error) {
	type group struct {
		vals  []value.Value
		state []any
		// seen holds every distinct head-projected row already folded into
		// state, so two envs agreeing on every head position (plain group
		// columns and aggregated variables alike) contribute once — the
		// same set semantics a plain rule gets for free from Relation.Add
		// (spec §4.4 "union into the rule's relation; deduplicate").
		seen map[string]bool
	}
	groups := map[string]*group{}

	perDisjunct, err := e.evalDisjuncts(r.Disjuncts, resolve)
	if err != nil {
		return nil, err
	}
	for _, envs := range perDisjunct {
		for _, env := range envs {
			groupVals := make([]value.Value, len(r.HeadVars))
			for i, v := range r.HeadVars {
				val, ok := env.Vars[v]
				if !ok {
					return nil, cozoerr.NewRuntimeError(cozoerr.TypeCoercion, "head variable %q is not bound", v)
				}
				groupVals[i] = val
			}
			key := rowKey(groupVals)
			g, ok := groups[key]
			if !ok {
				g = &group{vals: groupVals, state: make([]any, len(r.Aggregations)), seen: map[string]bool{}}
				for i, agg := range r.Aggregations {
					if agg != nil {
						aggregator, ok := e.Aggregators[agg.Name]
						if !ok {
							return nil, cozoerr.NewRuntimeError(cozoerr.TypeCoercion, "unknown aggregator %q", agg.Name)
						}
						g.state[i] = aggregator.Init()
					}
				}
				groups[key] = g
			}

			projected := make(Row, len(r.Aggregations))
			gi := 0
			for i, agg := range r.Aggregations {
				if agg == nil {
					projected[i] = groupVals[gi]
					gi++
					continue
				}
				v, ok := env.Vars[agg.Var]
				if !ok {
					return nil, cozoerr.NewRuntimeError(cozoerr.TypeCoercion, "aggregated variable %q is not bound", agg.Var)
				}
				projected[i] = v
			}
			dupKey := rowKey(projected)
			if g.seen[dupKey] {
				continue
			}
			g.seen[dupKey] = true

			gi = 0
			for i, agg := range r.Aggregations {
				if agg == nil {
					gi++
					continue
				}
				aggregator := e.Aggregators[agg.Name]
				extra := make([]value.Value, 0, len(agg.ExtraArgs))
				for _, ce := range agg.ExtraArgs {
					ev, err := ce.Eval(env)
					if err != nil {
						return nil, err
					}
					extra = append(extra, ev)
				}
				g.state[i] = aggregator.Combine(g.state[i], projected[i], extra)
			}
		}
	}

	rows := make([]Row, 0, len(groups))
	for _, g := range groups {
		row := make(Row, len(r.Aggregations))
		gi := 0
		for i, agg := range r.Aggregations {
			if agg == nil {
				row[i] = g.vals[gi]
				gi++
				continue
			}
			row[i] = e.Aggregators[agg.Name].Finalize(g.state[i])
		}
		rows = append(rows, row)
	}
	return rows, nil
}
