package stratify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cozodb/cozo/internal/cozoscript/parser"
	"github.com/cozodb/cozo/internal/plan"
)

type fakeSource struct{ relations map[string]bool }

func (f *fakeSource) HasRelation(name string) bool  { return f.relations[name] }
func (f *fakeSource) HasAlgorithm(string) bool      { return true }

func newFakeSource(rels ...string) *fakeSource {
	f := &fakeSource{relations: map[string]bool{}}
	for _, r := range rels {
		f.relations[r] = true
	}
	return f
}

func compileScript(t *testing.T, src string, rels ...string) *plan.Plan {
	t.Helper()
	script, err := parser.Parse(src)
	require.NoError(t, err)
	p, err := plan.Compile(script.Query, newFakeSource(rels...))
	require.NoError(t, err)
	return p
}

func TestStratifyAcyclicGraph(t *testing.T) {
	p := compileScript(t, `
base[a, b] := *edge[a, b];
?[a, b] := base[a, b];
`, "edge")
	g := Build(p, nil)
	strata, err := Stratify(g)
	require.NoError(t, err)
	require.Len(t, strata, 2)
	assert.False(t, strata[0].Recursive)
	assert.Less(t, strata[0].Level, strata[1].Level)
}

func TestStratifyRecursiveSCC(t *testing.T) {
	p := compileScript(t, `
reachable[a, b] := *edge[a, b];
reachable[a, b] := reachable[a, c], *edge[c, b];
?[a, b] := reachable[a, b];
`, "edge")
	g := Build(p, nil)
	strata, err := Stratify(g)
	require.NoError(t, err)
	var foundRecursive bool
	for _, s := range strata {
		if s.Recursive {
			foundRecursive = true
			assert.Contains(t, s.Rules, "reachable")
		}
	}
	assert.True(t, foundRecursive)
}

func TestStratifyRejectsNegationInCycle(t *testing.T) {
	p := compileScript(t, `
live[a] := *node[a], not dead[a];
dead[a] := live[a];
?[a] := live[a];
`, "node")
	g := Build(p, nil)
	_, err := Stratify(g)
	require.Error(t, err)
}

func TestStratifyAllowsNegationAcrossStrata(t *testing.T) {
	p := compileScript(t, `
live[a] := *node[a], not *dead[a];
?[a] := live[a];
`, "node", "dead")
	g := Build(p, nil)
	strata, err := Stratify(g)
	require.NoError(t, err)
	require.Len(t, strata, 2)
}
