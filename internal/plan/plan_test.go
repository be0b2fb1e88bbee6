package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cozodb/cozo/internal/cozoscript/parser"
)

type fakeSource struct {
	relations  map[string]bool
	algorithms map[string]bool
}

func (f *fakeSource) HasRelation(name string) bool  { return f.relations[name] }
func (f *fakeSource) HasAlgorithm(name string) bool { return f.algorithms[name] }

func newFakeSource(relations ...string) *fakeSource {
	f := &fakeSource{relations: map[string]bool{}, algorithms: map[string]bool{"shortest_path_dijkstra": true}}
	for _, r := range relations {
		f.relations[r] = true
	}
	return f
}

func TestCompileSimpleQuery(t *testing.T) {
	script, err := parser.Parse(`?[a, b] := *edge[a, b];`)
	require.NoError(t, err)
	p, err := Compile(script.Query, newFakeSource("edge"))
	require.NoError(t, err)
	require.Contains(t, p.ByName, "?")
	rule := p.ByName["?"]
	require.Len(t, rule.Disjuncts, 1)
	require.Len(t, rule.Disjuncts[0].Atoms, 1)
}

func TestCompileReordersAtoms(t *testing.T) {
	// c = a + b must be placed after *edge[a, b] binds a and b.
	script, err := parser.Parse(`?[a, b, c] := c = a + b, *edge[a, b];`)
	require.NoError(t, err)
	p, err := Compile(script.Query, newFakeSource("edge"))
	require.NoError(t, err)
	rule := p.ByName["?"]
	atoms := rule.Disjuncts[0].Atoms
	require.Len(t, atoms, 2)
	assert.Equal(t, "edge", atoms[0].Source.Name)
	assert.Equal(t, "c", atoms[1].Source.Var)
}

func TestCompileUnboundHeadVariableFails(t *testing.T) {
	script, err := parser.Parse(`?[a, b] := *edge[a, a];`)
	require.NoError(t, err)
	_, err = Compile(script.Query, newFakeSource("edge"))
	require.Error(t, err)
}

func TestCompileNoEvaluableOrderFails(t *testing.T) {
	script, err := parser.Parse(`?[a] := a = b + 1, b = a + 1;`)
	require.NoError(t, err)
	_, err = Compile(script.Query, newFakeSource())
	require.Error(t, err)
}

func TestCompileUnknownRelationFails(t *testing.T) {
	script, err := parser.Parse(`?[a, b] := *nope[a, b];`)
	require.NoError(t, err)
	_, err = Compile(script.Query, newFakeSource())
	require.Error(t, err)
}

func TestCompileAggregation(t *testing.T) {
	script, err := parser.Parse(`?[a, count(b)] := *edge[a, b];`)
	require.NoError(t, err)
	p, err := Compile(script.Query, newFakeSource("edge"))
	require.NoError(t, err)
	rule := p.ByName["?"]
	assert.True(t, rule.IsAggregate)
	require.Len(t, rule.Aggregations, 2)
	assert.Nil(t, rule.Aggregations[0])
	require.NotNil(t, rule.Aggregations[1])
	assert.Equal(t, "count", rule.Aggregations[1].Name)
}

func TestCompileAlgoRule(t *testing.T) {
	script, err := parser.Parse(`?[node, dist] <~ shortest_path_dijkstra(*edge[], starting: [1]);`)
	require.NoError(t, err)
	p, err := Compile(script.Query, newFakeSource("edge"))
	require.NoError(t, err)
	rule := p.ByName["?"]
	assert.Equal(t, "shortest_path_dijkstra", rule.AlgoName)
}

func TestCompileUnknownAlgorithmFails(t *testing.T) {
	script, err := parser.Parse(`?[node] <~ nonexistent_algo(*edge[]);`)
	require.NoError(t, err)
	_, err = Compile(script.Query, newFakeSource("edge"))
	require.Error(t, err)
}

func TestCompileNegationRequiresBoundVars(t *testing.T) {
	script, err := parser.Parse(`?[a, b] := *edge[a, b], not *blocked[a, b];`)
	require.NoError(t, err)
	p, err := Compile(script.Query, newFakeSource("edge", "blocked"))
	require.NoError(t, err)
	rule := p.ByName["?"]
	require.Len(t, rule.Disjuncts[0].Atoms, 2)
}

func TestCompileMissingEntryRuleFails(t *testing.T) {
	script, err := parser.Parse(`foo[a, b] := *edge[a, b];`)
	require.NoError(t, err)
	_, err = Compile(script.Query, newFakeSource("edge"))
	require.Error(t, err)
}

func TestCompileOptions(t *testing.T) {
	script, err := parser.Parse(`?[a] := *edge[a, b]; :limit 10; :sort a;`)
	require.NoError(t, err)
	p, err := Compile(script.Query, newFakeSource("edge"))
	require.NoError(t, err)
	assert.True(t, p.Options.HasLimit)
	assert.EqualValues(t, 10, p.Options.Limit)
	require.Len(t, p.Options.SortKeys, 1)
}
