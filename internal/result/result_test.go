package result

import (
	"testing"

	"github.com/cozodb/cozo/internal/cozoerr"
	"github.com/cozodb/cozo/internal/cozoscript/ast"
	"github.com/cozodb/cozo/internal/eval"
	"github.com/cozodb/cozo/internal/plan"
	"github.com/cozodb/cozo/internal/value"
)

func relOf(rows ...eval.Row) *eval.Relation {
	arity := 0
	if len(rows) > 0 {
		arity = len(rows[0])
	}
	rel := eval.NewRelation(arity)
	for _, r := range rows {
		rel.Add(r)
	}
	return rel
}

func TestAssembleSort(t *testing.T) {
	rel := relOf(
		eval.Row{value.String("b"), value.Int(2)},
		eval.Row{value.String("a"), value.Int(1)},
		eval.Row{value.String("c"), value.Int(3)},
	)
	opts := plan.Options{SortKeys: []ast.SortKey{{Var: "name"}}}
	rows, err := Assemble(rel, []string{"name", "n"}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for i, want := range []string{"a", "b", "c"} {
		got, _ := rows[i][0].AsString()
		if got != want {
			t.Fatalf("row %d: expected %q, got %q", i, want, got)
		}
	}
}

func TestAssembleSortDescending(t *testing.T) {
	rel := relOf(
		eval.Row{value.Int(1)},
		eval.Row{value.Int(3)},
		eval.Row{value.Int(2)},
	)
	opts := plan.Options{SortKeys: []ast.SortKey{{Var: "n", Desc: true}}}
	rows, err := Assemble(rel, []string{"n"}, opts)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []int64{3, 2, 1} {
		got, _ := rows[i][0].AsInt()
		if got != want {
			t.Fatalf("row %d: expected %d, got %d", i, want, got)
		}
	}
}

func TestAssembleOffsetLimit(t *testing.T) {
	rel := relOf(
		eval.Row{value.Int(1)},
		eval.Row{value.Int(2)},
		eval.Row{value.Int(3)},
		eval.Row{value.Int(4)},
	)
	opts := plan.Options{
		SortKeys:  []ast.SortKey{{Var: "n"}},
		HasOffset: true, Offset: 1,
		HasLimit: true, Limit: 2,
	}
	rows, err := Assemble(rel, []string{"n"}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	got0, _ := rows[0][0].AsInt()
	got1, _ := rows[1][0].AsInt()
	if got0 != 2 || got1 != 3 {
		t.Fatalf("expected [2,3], got [%d,%d]", got0, got1)
	}
}

func TestAssembleOffsetPastEnd(t *testing.T) {
	rel := relOf(eval.Row{value.Int(1)})
	opts := plan.Options{HasOffset: true, Offset: 5}
	rows, err := Assemble(rel, []string{"n"}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected 0 rows, got %d", len(rows))
	}
}

func TestAssembleAssertSomeFails(t *testing.T) {
	rel := relOf()
	opts := plan.Options{HasAssert: true, AssertSome: true}
	_, err := Assemble(rel, nil, opts)
	if err == nil {
		t.Fatal("expected an assertion error for :assert some with no rows")
	}
	var ae *cozoerr.AssertionError
	if !assertAs(err, &ae) {
		t.Fatalf("expected *cozoerr.AssertionError, got %T", err)
	}
}

func TestAssembleAssertNoneFails(t *testing.T) {
	rel := relOf(eval.Row{value.Int(1)})
	opts := plan.Options{HasAssert: true, AssertSome: false}
	_, err := Assemble(rel, []string{"n"}, opts)
	if err == nil {
		t.Fatal("expected an assertion error for :assert none with rows present")
	}
}

func TestAssembleAssertPasses(t *testing.T) {
	rel := relOf(eval.Row{value.Int(1)})
	opts := plan.Options{HasAssert: true, AssertSome: true}
	rows, err := Assemble(rel, []string{"n"}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
}

func TestAssembleUnknownSortKey(t *testing.T) {
	rel := relOf(eval.Row{value.Int(1)})
	opts := plan.Options{SortKeys: []ast.SortKey{{Var: "nope"}}}
	if _, err := Assemble(rel, []string{"n"}, opts); err == nil {
		t.Fatal("expected an error for a :sort key that is not a head variable")
	}
}

func assertAs(err error, target **cozoerr.AssertionError) bool {
	if ae, ok := err.(*cozoerr.AssertionError); ok {
		*target = ae
		return true
	}
	return false
}
