package parser

import (
	"testing"

	"github.com/cozodb/cozo/internal/cozoscript/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSimpleQuery(t *testing.T) {
	script, err := Parse(`?[a, b] := *edge[a, b];`)
	require.NoError(t, err)
	require.NotNil(t, script.Query)
	require.Len(t, script.Query.Rules, 1)

	rule := script.Query.Rules[0]
	assert.Equal(t, "?", rule.Name)
	assert.Equal(t, ast.RuleDatalog, rule.Kind)
	require.Len(t, rule.Head, 2)
	assert.Equal(t, "a", rule.Head[0].Var)
	assert.Equal(t, "b", rule.Head[1].Var)

	require.Len(t, rule.Disjuncts, 1)
	require.Len(t, rule.Disjuncts[0].Atoms, 1)
	atom := rule.Disjuncts[0].Atoms[0]
	assert.Equal(t, ast.AtomRelationApp, atom.Kind)
	assert.True(t, atom.IsStored)
	assert.Equal(t, "edge", atom.Name)
	assert.Equal(t, []string{"a", "b"}, atom.PosArgs)
}

func TestParseMultipleDisjunctsAndNegation(t *testing.T) {
	script, err := Parse(`reachable[a, b] := *edge[a, b] or reachable[a, c], *edge[c, b], not blocked[a, b];`)
	require.NoError(t, err)
	require.Len(t, script.Query.Rules, 1)
	rule := script.Query.Rules[0]
	require.Len(t, rule.Disjuncts, 2)
	require.Len(t, rule.Disjuncts[1].Atoms, 3)
	assert.Equal(t, ast.AtomNegation, rule.Disjuncts[1].Atoms[2].Kind)
	assert.Equal(t, "blocked", rule.Disjuncts[1].Atoms[2].Negated.Name)
}

func TestParseAggregationHead(t *testing.T) {
	script, err := Parse(`?[a, count(b)] := *edge[a, b];`)
	require.NoError(t, err)
	rule := script.Query.Rules[0]
	require.Len(t, rule.Head, 2)
	assert.True(t, rule.Head[1].IsAggregate())
	assert.Equal(t, "count", rule.Head[1].Aggregate)
	assert.Equal(t, "b", rule.Head[1].Var)
}

func TestParseConstRule(t *testing.T) {
	script, err := Parse(`?[a, b] <- [[1, 2], [3, 4]];`)
	require.NoError(t, err)
	rule := script.Query.Rules[0]
	assert.Equal(t, ast.RuleConst, rule.Kind)
	require.Len(t, rule.ConstRows, 2)
	require.Len(t, rule.ConstRows[0].Values, 2)
}

func TestParseAlgoRule(t *testing.T) {
	script, err := Parse(`?[node, dist] <~ shortest_path_dijkstra(*edge[], starting: [1]);`)
	require.NoError(t, err)
	rule := script.Query.Rules[0]
	assert.Equal(t, ast.RuleAlgo, rule.Kind)
	assert.Equal(t, "shortest_path_dijkstra", rule.AlgoName)
	require.Len(t, rule.AlgoArgs, 2)
	assert.Equal(t, "edge", rule.AlgoArgs[0].RelationRef)
	assert.Equal(t, "starting", rule.AlgoArgs[1].OptionName)
}

func TestParseUnifyAndMembership(t *testing.T) {
	script, err := Parse(`?[a] := *edge[a, b], c = a + 1, c in [1, 2, 3];`)
	require.NoError(t, err)
	atoms := script.Query.Rules[0].Disjuncts[0].Atoms
	require.Len(t, atoms, 3)
	assert.Equal(t, ast.AtomUnify, atoms[1].Kind)
	assert.Equal(t, "c", atoms[1].Var)
	assert.Equal(t, ast.AtomMembership, atoms[2].Kind)
	assert.Equal(t, "c", atoms[2].Var)
}

func TestParseExprPrecedence(t *testing.T) {
	script, err := Parse(`?[a] := a = 1 + 2 * 3;`)
	require.NoError(t, err)
	unify := script.Query.Rules[0].Disjuncts[0].Atoms[0]
	bin, ok := unify.Expr.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.OpAdd, bin.Op)
	rhs, ok := bin.Y.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.OpMul, rhs.Op)
}

func TestParseOptions(t *testing.T) {
	script, err := Parse(`?[a] := *edge[a, b]; :limit 10; :offset 5; :sort a;`)
	require.NoError(t, err)
	require.Len(t, script.Query.Options, 3)
	assert.Equal(t, ast.OptLimit, script.Query.Options[0].Kind)
	assert.EqualValues(t, 10, script.Query.Options[0].IntValue)
	assert.Equal(t, ast.OptOffset, script.Query.Options[1].Kind)
	assert.Equal(t, ast.OptSort, script.Query.Options[2].Kind)
	assert.Equal(t, "a", script.Query.Options[2].SortKeys[0].Var)
}

func TestParseCreateWithSchema(t *testing.T) {
	script, err := Parse(`?[a, b] := *edge[a, b]; :create edge {fst: Int, snd: Int => weight: Float?};`)
	require.NoError(t, err)
	opt := script.Query.Options[0]
	assert.Equal(t, ast.OptCreate, opt.Kind)
	assert.Equal(t, "edge", opt.Relation)
	require.Len(t, opt.Schema.Key, 2)
	require.Len(t, opt.Schema.Value, 1)
	assert.True(t, opt.Schema.Value[0].Nullable)
	assert.Equal(t, ast.TypeFloat, opt.Schema.Value[0].Type.Kind)
}

func TestParseSysRelations(t *testing.T) {
	script, err := Parse(`::relations`)
	require.NoError(t, err)
	require.NotNil(t, script.Sys)
	assert.Equal(t, ast.SysRelations, script.Sys.Op.Kind)
}

func TestParseSysRemove(t *testing.T) {
	script, err := Parse(`::remove edge, node`)
	require.NoError(t, err)
	assert.Equal(t, ast.SysRemove, script.Sys.Op.Kind)
	assert.Equal(t, []string{"edge", "node"}, script.Sys.Op.Relations)
}

func TestParseSysSetTriggers(t *testing.T) {
	script, err := Parse(`::set_triggers edge on put{?[a] := *edge[a, b]} on rm{?[a] := *edge[a, b]}`)
	require.NoError(t, err)
	assert.Equal(t, ast.SysSetTriggers, script.Sys.Op.Kind)
	assert.Equal(t, "edge", script.Sys.Op.Relation)
	assert.Len(t, script.Sys.Op.OnPut, 1)
	assert.Len(t, script.Sys.Op.OnRm, 1)
}

func TestParseMultiScript(t *testing.T) {
	script, err := Parse(`{ ?[a] := *edge[a, b]; ?[a] := *node[a]; }`)
	require.NoError(t, err)
	require.NotNil(t, script.Multi)
	assert.Len(t, script.Multi.Queries, 2)
}

func TestParseErrorReportsPosition(t *testing.T) {
	_, err := Parse(`?[a] := *edge[a, b`)
	require.Error(t, err)
}
