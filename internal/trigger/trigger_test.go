package trigger

import (
	"context"
	"testing"

	"github.com/cozodb/cozo/internal/cozoscript/ast"
	"github.com/cozodb/cozo/internal/value"
)

func TestCatalogSetGetRemove(t *testing.T) {
	c := NewCatalog()
	clause := &ast.QueryScript{}
	c.Set("logs", &TriggerSet{OnPut: []*ast.QueryScript{clause}})
	if got := c.Get("logs"); got == nil || len(got.OnPut) != 1 {
		t.Fatalf("expected one OnPut clause, got %v", got)
	}
	c.Remove("logs")
	if got := c.Get("logs"); got != nil {
		t.Fatalf("expected no trigger set after Remove, got %v", got)
	}
}

func TestCatalogSetEmptyClears(t *testing.T) {
	c := NewCatalog()
	c.Set("logs", &TriggerSet{OnPut: []*ast.QueryScript{{}}})
	c.Set("logs", &TriggerSet{})
	if got := c.Get("logs"); got != nil {
		t.Fatalf("expected empty TriggerSet to clear the entry, got %v", got)
	}
}

func TestDrainRunsRegisteredClause(t *testing.T) {
	c := NewCatalog()
	clause := &ast.QueryScript{}
	c.Set("logs", &TriggerSet{OnPut: []*ast.QueryScript{clause}})
	r := NewRunner(c, 0)

	var ran []*ast.QueryScript
	exec := func(ctx context.Context, script *ast.QueryScript, newRows, oldRows [][]value.Value) ([]Firing, error) {
		ran = append(ran, script)
		return nil, nil
	}

	firing := Firing{Relation: "logs", Kind: OnPut, New: [][]value.Value{{value.Int(1)}}}
	if err := r.Drain(context.Background(), []Firing{firing}, exec); err != nil {
		t.Fatal(err)
	}
	if len(ran) != 1 || ran[0] != clause {
		t.Fatalf("expected the registered clause to run once, ran %d times", len(ran))
	}
}

func TestDrainChainsFirings(t *testing.T) {
	c := NewCatalog()
	c.Set("a", &TriggerSet{OnPut: []*ast.QueryScript{{}}})
	c.Set("b", &TriggerSet{OnPut: []*ast.QueryScript{{}}})
	r := NewRunner(c, 0)

	count := 0
	exec := func(ctx context.Context, script *ast.QueryScript, newRows, oldRows [][]value.Value) ([]Firing, error) {
		count++
		if count == 1 {
			return []Firing{{Relation: "b", Kind: OnPut}}, nil
		}
		return nil, nil
	}

	firing := Firing{Relation: "a", Kind: OnPut}
	if err := r.Drain(context.Background(), []Firing{firing}, exec); err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("expected the chained firing on b to also run, count=%d", count)
	}
}

func TestDrainDepthExceeded(t *testing.T) {
	c := NewCatalog()
	c.Set("a", &TriggerSet{OnPut: []*ast.QueryScript{{}}})
	r := NewRunner(c, 2)

	exec := func(ctx context.Context, script *ast.QueryScript, newRows, oldRows [][]value.Value) ([]Firing, error) {
		return []Firing{{Relation: "a", Kind: OnPut}}, nil
	}

	firing := Firing{Relation: "a", Kind: OnPut}
	if err := r.Drain(context.Background(), []Firing{firing}, exec); err == nil {
		t.Fatal("expected a depth-exceeded error for a self-perpetuating trigger chain")
	}
}

func TestDrainUnknownRelationIsNoop(t *testing.T) {
	c := NewCatalog()
	r := NewRunner(c, 0)
	firing := Firing{Relation: "nothing_registered", Kind: OnPut}
	if err := r.Drain(context.Background(), []Firing{firing}, func(ctx context.Context, script *ast.QueryScript, newRows, oldRows [][]value.Value) ([]Firing, error) {
		t.Fatal("exec should not be called for an unregistered relation")
		return nil, nil
	}); err != nil {
		t.Fatal(err)
	}
}
