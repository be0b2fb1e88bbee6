// Package ast defines the typed abstract syntax produced by the parser: a
// script is either a system command, a single query, or a multi-query
// sequence sharing one transaction (spec §3 "Script", §4.1, §6).
package ast

import "github.com/cozodb/cozo/internal/cozoerr"

// Pos is the source position of a node, used for compile-error reporting.
type Pos = cozoerr.SourcePosition

// Script is the root of a parsed program: exactly one of SysScript,
// QueryScript, or MultiScript is non-nil.
type Script struct {
	Sys    *SysScript
	Query  *QueryScript
	Multi  *MultiScript
}

// SysScript is a `::`-prefixed system command (spec §4.1, §6).
type SysScript struct {
	Pos Pos
	Op  SysOp
}

// SysOpKind enumerates the system operations named in spec §6.
type SysOpKind int

const (
	SysCompact SysOpKind = iota
	SysRelations
	SysColumns
	SysRemove
	SysRename
	SysRunning
	SysKill
	SysExplain
	SysAccessLevel
	SysShowTriggers
	SysSetTriggers
)

// SysOp is the parsed body of one system command; only the fields relevant
// to Kind are populated.
type SysOp struct {
	Kind SysOpKind

	// SysColumns / SysShowTriggers / SysSetTriggers
	Relation string

	// SysRename: pairs of old->new names.
	Renames [][2]string

	// SysRemove: multiple relation names.
	Relations []string

	// SysKill: running-query handle.
	Handle int64

	// SysExplain: the wrapped query script.
	Explained *QueryScript

	// SysAccessLevel
	AccessLevel string
	AccessRelations []string

	// SysSetTriggers
	OnPut     []*QueryScript
	OnRm      []*QueryScript
	OnReplace []*QueryScript
}

// MultiScript is a brace-delimited sequence of query scripts sharing one
// transaction; the final query's `?` relation is the script's result
// (spec §3 "Script").
type MultiScript struct {
	Pos     Pos
	Queries []*QueryScript
}

// QueryScript is one or more rule definitions plus an option set.
type QueryScript struct {
	Pos     Pos
	Rules   []*Rule
	Options []*Option
}

// RuleKind distinguishes the three rule body forms (spec §3 "Rule").
type RuleKind int

const (
	RuleDatalog RuleKind = iota
	RuleConst
	RuleAlgo
)

// Rule is one `name[...] := ...;` / `name[...] <- ...;` / `name[...] <~
// algo(...);` definition. Name is "?" for the entry rule.
type Rule struct {
	Pos  Pos
	Name string
	Head []*HeadArg
	Kind RuleKind

	// RuleDatalog: one or more disjuncts (the rule body's DNF top level,
	// spec §3 "disjunction of conjunctions").
	Disjuncts []*Conjunct

	// RuleConst: the bound value-list expression, one row per element.
	ConstRows []*ConstRow

	// RuleAlgo
	AlgoName string
	AlgoArgs []*AlgoArg
}

// HeadArg is one head position: a plain variable, or an aggregation form
// `agg(var, ...extra)` (spec §3 "Head args").
type HeadArg struct {
	Pos       Pos
	Var       string
	Aggregate string // empty if this is a plain variable
	ExtraArgs []Expr
}

// IsAggregate reports whether this head position is an aggregation form.
func (h *HeadArg) IsAggregate() bool { return h.Aggregate != "" }

// ConstRow is one row of a constant rule's value-list expression.
type ConstRow struct {
	Pos    Pos
	Values []Expr
}

// AlgoArg is one input-relation or option argument to an algorithm rule.
type AlgoArg struct {
	Pos  Pos
	// Relation/RuleRef: the name of a stored relation or in-script rule
	// supplied positionally as algorithm input.
	RelationRef string
	// Bindings, for a `*Rel{col: var}` style named-column binding.
	Bindings map[string]string
	// OptionName/OptionValue: a `key: value` option pair.
	OptionName  string
	OptionValue Expr
}

// Conjunct is one `,`-separated conjunction of atoms within a rule body
// (spec §3, §4.2 "DNF").
type Conjunct struct {
	Pos   Pos
	Atoms []*Atom
}

// AtomKind enumerates the atom forms named in spec §6.
type AtomKind int

const (
	AtomRelationApp AtomKind = iota // *R[...] or *R{col: var, ...}
	AtomRuleApp                     // r[...]
	AtomNegation                    // not atom
	AtomUnify                       // x = expr
	AtomMembership                  // x in expr
	AtomExpr                        // bare boolean guard expression
)

// Atom is a single body element.
type Atom struct {
	Pos  Pos
	Kind AtomKind

	// AtomRelationApp / AtomRuleApp
	Name         string
	IsStored     bool // true for *R[...] / *R{...}
	PosArgs      []string
	NamedArgs    map[string]string // column name -> bound variable

	// AtomNegation
	Negated *Atom

	// AtomUnify / AtomMembership
	Var  string
	Expr Expr

	// AtomExpr
	Guard Expr
}

// FreeVars returns the variable names this atom introduces or references
// positionally, used by the compiler's variable-binding analysis (spec
// §4.2).
func (a *Atom) FreeVars() []string {
	switch a.Kind {
	case AtomRelationApp, AtomRuleApp:
		vars := append([]string(nil), a.PosArgs...)
		for _, v := range a.NamedArgs {
			vars = append(vars, v)
		}
		return vars
	case AtomUnify, AtomMembership:
		return []string{a.Var}
	default:
		return nil
	}
}

// Option is one `:verb ...` directive attached to a QueryScript (spec §6).
type OptionKind int

const (
	OptLimit OptionKind = iota
	OptOffset
	OptSort
	OptTimeout
	OptSleep
	OptAssert
	OptCreate
	OptReplace
	OptPut
	OptRm
	OptEnsure
	OptEnsureNot
)

type SortKey struct {
	Var  string
	Desc bool
}

type Option struct {
	Pos  Pos
	Kind OptionKind

	IntValue   int64
	FloatValue float64
	SortKeys   []SortKey
	AssertSome bool // for OptAssert: true = "some", false = "none"

	// OptCreate / OptReplace / OptPut / OptRm / OptEnsure / OptEnsureNot
	Relation string
	Schema   *SchemaDecl // nil for :put/:rm/:ensure/:ensure_not
}

// SchemaDecl is the `{k1: T?, ... => v1: T?, ...}` schema syntax (spec §6).
type SchemaDecl struct {
	Pos   Pos
	Key   []ColumnDecl
	Value []ColumnDecl
}

type ColumnDecl struct {
	Name     string
	Type     TypeExpr
	Nullable bool
}

// TypeExprKind mirrors the grammar's type syntax.
type TypeExprKind int

const (
	TypeAny TypeExprKind = iota
	TypeBool
	TypeInt
	TypeFloat
	TypeString
	TypeBytes
	TypeUuid
	TypeList
	TypeTuple
)

type TypeExpr struct {
	Kind     TypeExprKind
	ListElem *TypeExpr
	ListLen  int // -1 if unbounded
	Tuple    []TypeExpr
}
