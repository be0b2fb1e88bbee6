package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cozodb/cozo/internal/cozoscript/ast"
	"github.com/cozodb/cozo/internal/cozoscript/parser"
	"github.com/cozodb/cozo/internal/value"
)

func guardExpr(t *testing.T, src string) ast.Expr {
	t.Helper()
	script, err := parser.Parse("?[a] := " + src + ";")
	require.NoError(t, err)
	return script.Query.Rules[0].Disjuncts[0].Atoms[0].Guard
}

func unifyExpr(t *testing.T, src string) ast.Expr {
	t.Helper()
	script, err := parser.Parse("?[a] := " + src + ";")
	require.NoError(t, err)
	return script.Query.Rules[0].Disjuncts[0].Atoms[0].Expr
}

func TestEvalArithmeticPrecedence(t *testing.T) {
	e := unifyExpr(t, "a = 1 + 2 * 3")
	v, err := Eval("?", e, NewEnv(nil))
	require.NoError(t, err)
	i, ok := v.AsInt()
	require.True(t, ok)
	assert.EqualValues(t, 7, i)
}

func TestEvalComparisonAndLogical(t *testing.T) {
	e := unifyExpr(t, "a = (1 < 2) && (3 >= 3)")
	v, err := Eval("?", e, NewEnv(nil))
	require.NoError(t, err)
	b, ok := v.AsBool()
	require.True(t, ok)
	assert.True(t, b)
}

func TestEvalShortCircuitOr(t *testing.T) {
	e := unifyExpr(t, `a = true || (1 / 0 == 0)`)
	v, err := Eval("?", e, NewEnv(nil))
	require.NoError(t, err)
	b, ok := v.AsBool()
	require.True(t, ok)
	assert.True(t, b)
}

func TestEvalConcat(t *testing.T) {
	e := unifyExpr(t, `a = "foo" ++ "bar"`)
	v, err := Eval("?", e, NewEnv(nil))
	require.NoError(t, err)
	s, ok := v.AsString()
	require.True(t, ok)
	assert.Equal(t, "foobar", s)
}

func TestEvalVarRefAndParam(t *testing.T) {
	e := unifyExpr(t, "a = x + $y")
	env := NewEnv(map[string]value.Value{"y": value.Int(10)}).Bind("x", value.Int(5))
	v, err := Eval("?", e, env)
	require.NoError(t, err)
	i, ok := v.AsInt()
	require.True(t, ok)
	assert.EqualValues(t, 15, i)
}

func TestEvalBuiltinCall(t *testing.T) {
	e := unifyExpr(t, "a = max(1, 2, 3)")
	v, err := Eval("?", e, NewEnv(nil))
	require.NoError(t, err)
	i, ok := v.AsInt()
	require.True(t, ok)
	assert.EqualValues(t, 3, i)
}

func TestEvalDivisionByZero(t *testing.T) {
	e := unifyExpr(t, "a = 1 / 0")
	_, err := Eval("?", e, NewEnv(nil))
	require.Error(t, err)
}

func TestCompileUnknownFunctionFails(t *testing.T) {
	e := unifyExpr(t, "a = nope(1)")
	_, err := Compile("?", e)
	require.Error(t, err)
}

func TestCompileArityMismatchFails(t *testing.T) {
	e := unifyExpr(t, "a = abs(1, 2)")
	_, err := Compile("?", e)
	require.Error(t, err)
}

func TestFreeVars(t *testing.T) {
	e := guardExpr(t, "x + y * z == 0")
	vars := FreeVars(e)
	assert.ElementsMatch(t, []string{"x", "y", "z"}, vars)
}
