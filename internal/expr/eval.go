package expr

import (
	"github.com/cozodb/cozo/internal/cozoerr"
	"github.com/cozodb/cozo/internal/cozoscript/ast"
	"github.com/cozodb/cozo/internal/value"
)

// Eval evaluates the compiled expression against env.
func (c *CompiledExpr) Eval(env *Env) (value.Value, error) {
	return evalNode(c.node, env)
}

// Eval compiles and evaluates e in one step; used by callers that do not
// need to reuse the compiled form across many bindings.
func Eval(rule string, e ast.Expr, env *Env) (value.Value, error) {
	c, err := Compile(rule, e)
	if err != nil {
		return value.Null(), err
	}
	return c.Eval(env)
}

func evalNode(e ast.Expr, env *Env) (value.Value, error) {
	switch n := e.(type) {
	case *ast.Literal:
		return n.Val, nil

	case *ast.VarRef:
		if v, ok := env.lookupVar(n.Name); ok {
			return v, nil
		}
		return value.Null(), cozoerr.NewRuntimeError(cozoerr.TypeCoercion, "unbound variable %q", n.Name)

	case *ast.ParamRef:
		return env.lookupParam(n.Name)

	case *ast.ListExpr:
		vals := make([]value.Value, len(n.Elems))
		for i, el := range n.Elems {
			v, err := evalNode(el, env)
			if err != nil {
				return value.Null(), err
			}
			vals[i] = v
		}
		return value.List(vals), nil

	case *ast.Unary:
		x, err := evalNode(n.X, env)
		if err != nil {
			return value.Null(), err
		}
		if n.Op == ast.UnaryNeg {
			return negate(x)
		}
		return not(x)

	case *ast.Binary:
		return evalBinary(n, env)

	case *ast.Call:
		return evalCall(n, env)
	}
	return value.Null(), cozoerr.NewRuntimeError(cozoerr.TypeCoercion, "unsupported expression node %T", e)
}

func evalBinary(n *ast.Binary, env *Env) (value.Value, error) {
	// && and || short-circuit (spec §4.2).
	if n.Op == ast.OpAnd || n.Op == ast.OpOr {
		x, err := evalNode(n.X, env)
		if err != nil {
			return value.Null(), err
		}
		xb, ok := x.AsBool()
		if !ok {
			return value.Null(), typeErr("&&/||", x)
		}
		if n.Op == ast.OpAnd && !xb {
			return value.Bool(false), nil
		}
		if n.Op == ast.OpOr && xb {
			return value.Bool(true), nil
		}
		y, err := evalNode(n.Y, env)
		if err != nil {
			return value.Null(), err
		}
		yb, ok := y.AsBool()
		if !ok {
			return value.Null(), typeErr("&&/||", y)
		}
		return value.Bool(yb), nil
	}

	x, err := evalNode(n.X, env)
	if err != nil {
		return value.Null(), err
	}
	y, err := evalNode(n.Y, env)
	if err != nil {
		return value.Null(), err
	}

	switch n.Op {
	case ast.OpAdd:
		return add(x, y)
	case ast.OpSub:
		return sub(x, y)
	case ast.OpMul:
		return mul(x, y)
	case ast.OpDiv:
		return div(x, y)
	case ast.OpMod:
		return mod(x, y)
	case ast.OpPow:
		return pow(x, y)
	case ast.OpConcat:
		return concat(x, y)
	case ast.OpEq:
		return cmp("==", x, y)
	case ast.OpNeq:
		return cmp("!=", x, y)
	case ast.OpGt:
		return cmp(">", x, y)
	case ast.OpLt:
		return cmp("<", x, y)
	case ast.OpGe:
		return cmp(">=", x, y)
	case ast.OpLe:
		return cmp("<=", x, y)
	}
	return value.Null(), cozoerr.NewRuntimeError(cozoerr.TypeCoercion, "unsupported operator")
}

func evalCall(n *ast.Call, env *Env) (value.Value, error) {
	b, ok := Builtins[n.Name]
	if !ok {
		return value.Null(), cozoerr.NewRuntimeError(cozoerr.TypeCoercion, "unknown function %q", n.Name)
	}
	args := make([]value.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := evalNode(a, env)
		if err != nil {
			return value.Null(), err
		}
		args[i] = v
	}
	return b.Fn(args)
}
