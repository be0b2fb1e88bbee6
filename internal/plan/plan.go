// Package plan implements the compiler (spec §4.2): it resolves rule-name
// references, reorders each conjunction into an evaluable sequence, checks
// that every head variable is bound, and compiles embedded expressions
// through internal/expr. The output is a Plan ready for
// internal/stratify and internal/eval.
package plan

import (
	"github.com/cozodb/cozo/internal/cozoscript/ast"
	"github.com/cozodb/cozo/internal/expr"
)

// PlanAtom wraps one ast.Atom; after evaluable-order compilation each
// PlanAtom additionally knows which of its free variables are newly bound
// by it versus already bound by an earlier atom.
type PlanAtom struct {
	Source *ast.Atom

	// BoundHere are the free variables this atom binds given the order it
	// was placed in (relation/rule application atoms bind all of their
	// PosArgs/NamedArgs values; unify/membership bind Var if it was free).
	BoundHere []string

	// Guard/Unify/Membership atoms carry a compiled expression.
	Compiled *expr.CompiledExpr
}

// PlanConjunct is one conjunction of a rule body, reordered into an
// evaluable sequence (spec §4.2 "evaluable sequence").
type PlanConjunct struct {
	Atoms []PlanAtom
}

// Aggregation describes one aggregating head position.
type Aggregation struct {
	Var       string
	Name      string
	ExtraArgs []*expr.CompiledExpr
}

// Rule is a compiled rule, ready for stratification and evaluation.
type Rule struct {
	Name string
	Kind ast.RuleKind

	// HeadVars are the plain (non-aggregated) head variables, in head
	// order; Aggregations has one entry per head slot, nil for a plain var
	// and non-nil for an aggregation.
	HeadVars     []string
	Aggregations []*Aggregation
	IsAggregate  bool

	Disjuncts []PlanConjunct

	ConstRows [][]*expr.CompiledExpr

	AlgoName string
	AlgoArgs []*ast.AlgoArg
}

// Options is the decoded `:verb ...` directive set attached to a query.
type Options struct {
	Limit, Offset     int64
	HasLimit          bool
	HasOffset         bool
	SortKeys          []ast.SortKey
	Timeout           float64
	HasTimeout        bool
	Sleep             float64
	HasSleep          bool
	HasAssert         bool
	AssertSome        bool
	Create, Replace   []*ast.Option
	Put, Rm           []*ast.Option
	Ensure, EnsureNot []*ast.Option
}

// Plan is the compiled form of one ast.QueryScript.
type Plan struct {
	Rules   []*Rule
	ByName  map[string]*Rule
	Options Options
}
