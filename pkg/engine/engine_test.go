package engine_test

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cozodb/cozo/internal/cozoerr"
	"github.com/cozodb/cozo/internal/storage/memkv"
	"github.com/cozodb/cozo/internal/value"
	"github.com/cozodb/cozo/pkg/engine"
)

func intRows(t *testing.T, res *engine.Result) [][]int64 {
	t.Helper()
	out := make([][]int64, len(res.Rows))
	for i, row := range res.Rows {
		out[i] = make([]int64, len(row))
		for j, v := range row {
			n, ok := v.AsInt()
			require.Truef(t, ok, "row %d col %d is not an int: %v", i, j, v)
			out[i][j] = n
		}
	}
	sort.Slice(out, func(i, j int) bool {
		for k := range out[i] {
			if out[i][k] != out[j][k] {
				return out[i][k] < out[j][k]
			}
		}
		return false
	})
	return out
}

// scenario 1: a recursive rule written as a base-case statement plus a
// recursive-case statement computes transitive closure.
func TestTransitiveClosure(t *testing.T) {
	e := engine.Open(memkv.New())
	ctx := context.Background()

	_, err := e.Run(ctx, `?[a, b] <- [[1, 2], [2, 3], [3, 4]]; :create edge {fst: Int, snd: Int};`, nil)
	require.NoError(t, err)

	res, err := e.Run(ctx, `
		reach[a, b] := *edge[a, b];
		reach[a, b] := reach[a, m], *edge[m, b];
		?[a, b] := reach[a, b];
		:sort a, b;
	`, nil)
	require.NoError(t, err)

	assert.Equal(t, [][]int64{
		{1, 2}, {1, 3}, {1, 4},
		{2, 3}, {2, 4},
		{3, 4},
	}, intRows(t, res))
}

// scenario 2: a plain rule dedups tuples on its full row (spec §4.4
// "union into the rule's relation; deduplicate") before an aggregation
// consuming it folds over the deduplicated set, not the raw contributions.
func TestAggregationDedup(t *testing.T) {
	e := engine.Open(memkv.New())
	ctx := context.Background()

	_, err := e.Run(ctx, `?[x, y] <- [[1, 10], [1, 20], [2, 30]]; :create pair {x: Int, y: Int};`, nil)
	require.NoError(t, err)

	res, err := e.Run(ctx, `
		dup[x] := *pair[x, y];
		?[count(x)] := dup[x];
	`, nil)
	require.NoError(t, err)

	require.Len(t, res.Rows, 1)
	require.Len(t, res.Rows[0], 1)
	n, ok := res.Rows[0][0].AsInt()
	require.True(t, ok)
	// dup[x] holds two distinct rows (x=1, x=2), even though pair
	// contributes x=1 twice under two different y's.
	assert.EqualValues(t, 2, n)
}

// The spec's own literal form of scenario 2: a membership atom's repeated
// list element must still dedup before count folds over it, the same as
// any other rule body (spec §4.4, §8 "set semantics dedup before count").
func TestAggregationDedupMembershipLiteral(t *testing.T) {
	e := engine.Open(memkv.New())
	ctx := context.Background()

	res, err := e.Run(ctx, `?[count(x)] := x in [1, 2, 2, 3];`, nil)
	require.NoError(t, err)

	require.Len(t, res.Rows, 1)
	require.Len(t, res.Rows[0], 1)
	n, ok := res.Rows[0][0].AsInt()
	require.True(t, ok)
	assert.EqualValues(t, 3, n)
}

// scenario 3: stratified negation evaluates a negated dependency in an
// earlier stratum than the rule that negates it, while a cycle of negative
// edges between mutually negating rules is rejected at compile time.
func TestStratifiedNegation(t *testing.T) {
	e := engine.Open(memkv.New())
	ctx := context.Background()

	_, err := e.Run(ctx, `?[a, b] <- [[1, 2], [2, 3], [3, 4]]; :create edge {fst: Int, snd: Int};`, nil)
	require.NoError(t, err)
	_, err = e.Run(ctx, `?[a, b] <- [[2, 3]]; :create forbidden {fst: Int, snd: Int};`, nil)
	require.NoError(t, err)

	res, err := e.Run(ctx, `
		reach[a, b] := *edge[a, b];
		reach[a, b] := reach[a, m], *edge[m, b];
		blocked[a, b] := *forbidden[a, b];
		?[a, b] := reach[a, b], not blocked[a, b];
		:sort a, b;
	`, nil)
	require.NoError(t, err)

	assert.Equal(t, [][]int64{
		{1, 2}, {1, 3}, {1, 4},
		{2, 4},
		{3, 4},
	}, intRows(t, res))
}

func TestCyclicNegationRejected(t *testing.T) {
	e := engine.Open(memkv.New())
	ctx := context.Background()

	_, err := e.Run(ctx, `?[x] <- [[1], [2]]; :create item {x: Int};`, nil)
	require.NoError(t, err)

	_, err = e.Run(ctx, `
		p[x] := *item[x], not q[x];
		q[x] := *item[x], not p[x];
		?[x] := p[x];
	`, nil)
	require.Error(t, err)

	var ce *cozoerr.CompileError
	require.True(t, errors.As(err, &ce), "expected a *cozoerr.CompileError, got %T: %v", err, err)
	assert.Equal(t, cozoerr.StratificationViolation, ce.Kind)
}

// scenario 4: `:create` immediately followed by a put of the entry
// relation's own rows into the newly created relation, with no separate
// `:put` in the script.
func TestCreateThenPut(t *testing.T) {
	e := engine.Open(memkv.New())
	ctx := context.Background()

	_, err := e.Run(ctx, `?[k, v] <- [[1, 100], [2, 200]]; :create kv {k: Int => v: Int};`, nil)
	require.NoError(t, err)

	res, err := e.Run(ctx, `?[k, v] := *kv[k, v]; :sort k;`, nil)
	require.NoError(t, err)
	assert.Equal(t, [][]int64{{1, 100}, {2, 200}}, intRows(t, res))
}

// scenario 5: `:assert some|none` checks the entry relation's row count and
// fails the whole script (and its transaction) when it doesn't hold.
func TestAssert(t *testing.T) {
	e := engine.Open(memkv.New())
	ctx := context.Background()

	_, err := e.Run(ctx, `?[x] <- []; :assert none;`, nil)
	require.NoError(t, err)

	_, err = e.Run(ctx, `?[x] <- [[1]]; :assert none;`, nil)
	require.Error(t, err)
	var ae *cozoerr.AssertionError
	require.True(t, errors.As(err, &ae), "expected a *cozoerr.AssertionError, got %T: %v", err, err)

	_, err = e.Run(ctx, `?[x] <- [[1]]; :assert some;`, nil)
	require.NoError(t, err)
}

// scenario 6: a `:timeout`-bounded query that can never reach a fixpoint is
// interrupted promptly and reported as Runtime/Timeout, distinct from a
// caller-initiated cancellation.
func TestTimeout(t *testing.T) {
	e := engine.Open(memkv.New())
	ctx := context.Background()

	_, err := e.Run(ctx, `
		inc[x] := x = 0;
		inc[y] := inc[x], y = x + 1;
		?[x] := inc[x];
		:timeout 0.05;
	`, nil)
	require.Error(t, err)

	var re *cozoerr.RuntimeError
	require.True(t, errors.As(err, &re), "expected a *cozoerr.RuntimeError, got %T: %v", err, err)
	assert.Equal(t, cozoerr.Timeout, re.Kind)
}

// A parameter bound with `$name` in the script resolves from the params map
// passed to Run (spec §4.1 "Parameters").
func TestParams(t *testing.T) {
	e := engine.Open(memkv.New())
	ctx := context.Background()

	res, err := e.Run(ctx, `?[x] := x = $n;`, map[string]value.Value{"n": value.Int(42)})
	require.NoError(t, err)
	assert.Equal(t, [][]int64{{42}}, intRows(t, res))
}
