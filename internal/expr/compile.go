package expr

import (
	"github.com/cozodb/cozo/internal/cozoerr"
	"github.com/cozodb/cozo/internal/cozoscript/ast"
)

// CompiledExpr is an expression AST validated against the builtin function
// catalog: every ast.Call resolves to a registered Builtin at a matching
// arity. Compile does not know the rule's bound-variable set — that check
// is the evaluable-sequence ordering job of internal/plan — so a VarRef
// here is left unresolved until Eval time.
type CompiledExpr struct {
	node ast.Expr
}

// Compile validates e against the builtin catalog and returns a
// CompiledExpr ready for repeated evaluation.
func Compile(rule string, e ast.Expr) (*CompiledExpr, error) {
	if err := checkCalls(rule, e); err != nil {
		return nil, err
	}
	return &CompiledExpr{node: e}, nil
}

func checkCalls(rule string, e ast.Expr) error {
	switch n := e.(type) {
	case *ast.Call:
		b, ok := Builtins[n.Name]
		if !ok {
			return cozoerr.NewCompileError(cozoerr.UnknownFunction, rule, n.Pos, "unknown function %q", n.Name)
		}
		argc := len(n.Args)
		if argc < b.MinArity || (b.MaxArity >= 0 && argc > b.MaxArity) {
			return cozoerr.NewCompileError(cozoerr.ArityMismatch, rule, n.Pos, "%q expects between %d and %d arguments, got %d", n.Name, b.MinArity, b.MaxArity, argc)
		}
		for _, arg := range n.Args {
			if err := checkCalls(rule, arg); err != nil {
				return err
			}
		}
	case *ast.Unary:
		return checkCalls(rule, n.X)
	case *ast.Binary:
		if err := checkCalls(rule, n.X); err != nil {
			return err
		}
		return checkCalls(rule, n.Y)
	case *ast.ListExpr:
		for _, el := range n.Elems {
			if err := checkCalls(rule, el); err != nil {
				return err
			}
		}
	}
	return nil
}

// FreeVars returns the variable names e references, used by the compiler's
// evaluable-sequence ordering (spec §4.2).
func FreeVars(e ast.Expr) []string {
	var out []string
	collectFreeVars(e, &out)
	return out
}

func collectFreeVars(e ast.Expr, out *[]string) {
	switch n := e.(type) {
	case *ast.VarRef:
		*out = append(*out, n.Name)
	case *ast.Unary:
		collectFreeVars(n.X, out)
	case *ast.Binary:
		collectFreeVars(n.X, out)
		collectFreeVars(n.Y, out)
	case *ast.Call:
		for _, arg := range n.Args {
			collectFreeVars(arg, out)
		}
	case *ast.ListExpr:
		for _, el := range n.Elems {
			collectFreeVars(el, out)
		}
	}
}
