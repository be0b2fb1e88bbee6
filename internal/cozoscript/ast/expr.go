package ast

import "github.com/cozodb/cozo/internal/value"

// Expr is the expression AST produced by the precedence-climbing expression
// parser (spec §4.2 operator precedence table). It is a closed sum type
// over the handful of expression forms CozoScript supports.
type Expr interface {
	ExprPos() Pos
}

// Literal is a constant Value appearing directly in source.
type Literal struct {
	Pos Pos
	Val value.Value
}

func (e *Literal) ExprPos() Pos { return e.Pos }

// VarRef is a reference to a bound variable.
type VarRef struct {
	Pos  Pos
	Name string
}

func (e *VarRef) ExprPos() Pos { return e.Pos }

// ParamRef is a reference to a late-bound `$name` script parameter.
type ParamRef struct {
	Pos  Pos
	Name string
}

func (e *ParamRef) ExprPos() Pos { return e.Pos }

// ListExpr is a `[e1, e2, ...]` list literal expression.
type ListExpr struct {
	Pos   Pos
	Elems []Expr
}

func (e *ListExpr) ExprPos() Pos { return e.Pos }

// UnaryOp is one of the two unary operators: `-` (negate) and `!` (not).
type UnaryOp int

const (
	UnaryNeg UnaryOp = iota
	UnaryNot
)

type Unary struct {
	Pos Pos
	Op  UnaryOp
	X   Expr
}

func (e *Unary) ExprPos() Pos { return e.Pos }

// BinaryOp enumerates the infix operators, ordered here by the precedence
// table in spec §4.2: unary first (not represented as a BinaryOp), then ^,
// then * / %, then + -, then ++, then comparisons, then &&, then ||.
type BinaryOp int

const (
	OpPow BinaryOp = iota
	OpMul
	OpDiv
	OpMod
	OpAdd
	OpSub
	OpConcat
	OpEq
	OpNeq
	OpGt
	OpLt
	OpGe
	OpLe
	OpAnd
	OpOr
)

type Binary struct {
	Pos   Pos
	Op    BinaryOp
	X, Y  Expr
}

func (e *Binary) ExprPos() Pos { return e.Pos }

// Call is a built-in function application, e.g. `regex_matches(s, pat)`.
type Call struct {
	Pos  Pos
	Name string
	Args []Expr
}

func (e *Call) ExprPos() Pos { return e.Pos }
