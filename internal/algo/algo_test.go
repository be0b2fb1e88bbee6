package algo

import (
	"context"
	"testing"

	"github.com/cozodb/cozo/internal/eval"
	"github.com/cozodb/cozo/internal/value"
)

func edgeRel(pairs [][2]string) *eval.Relation {
	rel := eval.NewRelation(2)
	for _, p := range pairs {
		rel.Add(eval.Row{value.String(p[0]), value.String(p[1])})
	}
	return rel
}

func TestBFS(t *testing.T) {
	rel := edgeRel([][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}})
	out, err := BFS(context.Background(), []*eval.Relation{rel}, map[string]value.Value{"starting": value.String("a")})
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 3 {
		t.Fatalf("expected 3 reachable nodes, got %d", out.Len())
	}
	for _, row := range out.Rows() {
		name, _ := row[0].AsString()
		d, _ := row[1].AsInt()
		if name == "a" && d != 0 {
			t.Fatalf("expected a at distance 0, got %d", d)
		}
		if name == "c" && d != 1 {
			t.Fatalf("expected c at distance 1 (direct edge a->c), got %d", d)
		}
	}
}

func TestConnectedComponents(t *testing.T) {
	rel := edgeRel([][2]string{{"a", "b"}, {"c", "d"}})
	out, err := ConnectedComponents(context.Background(), []*eval.Relation{rel}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 4 {
		t.Fatalf("expected 4 nodes, got %d", out.Len())
	}
	comp := map[string]int64{}
	for _, row := range out.Rows() {
		name, _ := row[0].AsString()
		c, _ := row[1].AsInt()
		comp[name] = c
	}
	if comp["a"] != comp["b"] {
		t.Fatal("a and b should share a component")
	}
	if comp["c"] != comp["d"] {
		t.Fatal("c and d should share a component")
	}
	if comp["a"] == comp["c"] {
		t.Fatal("a and c should be in different components")
	}
}

func TestShortestPathDijkstra(t *testing.T) {
	rel := eval.NewRelation(3)
	rel.Add(eval.Row{value.String("a"), value.String("b"), value.Float(1)})
	rel.Add(eval.Row{value.String("b"), value.String("c"), value.Float(1)})
	rel.Add(eval.Row{value.String("a"), value.String("c"), value.Float(5)})

	out, err := ShortestPathDijkstra(context.Background(), []*eval.Relation{rel}, map[string]value.Value{"starting": value.String("a")})
	if err != nil {
		t.Fatal(err)
	}
	dist := map[string]float64{}
	for _, row := range out.Rows() {
		name, _ := row[0].AsString()
		d, _ := row[1].AsFloat()
		dist[name] = d
	}
	if dist["c"] != 2 {
		t.Fatalf("expected shortest path to c to be 2 (via b), got %v", dist["c"])
	}
}

func TestDegreeCentrality(t *testing.T) {
	rel := edgeRel([][2]string{{"a", "b"}, {"a", "c"}, {"b", "c"}})
	out, err := DegreeCentrality(context.Background(), []*eval.Relation{rel}, nil)
	if err != nil {
		t.Fatal(err)
	}
	deg := map[string][2]int64{}
	for _, row := range out.Rows() {
		name, _ := row[0].AsString()
		in, _ := row[1].AsInt()
		outDeg, _ := row[2].AsInt()
		deg[name] = [2]int64{in, outDeg}
	}
	if deg["a"][1] != 2 {
		t.Fatalf("expected a's out-degree to be 2, got %d", deg["a"][1])
	}
	if deg["c"][0] != 2 {
		t.Fatalf("expected c's in-degree to be 2, got %d", deg["c"][0])
	}
}

func TestRegistryInvokeUnknown(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Invoke(context.Background(), "no_such_algo", nil, nil); err == nil {
		t.Fatal("expected an error for an unknown algorithm")
	}
}

func TestRegistryInvokeBFS(t *testing.T) {
	reg := NewRegistry()
	rel := edgeRel([][2]string{{"a", "b"}})
	out, err := reg.Invoke(context.Background(), "bfs", []*eval.Relation{rel}, map[string]value.Value{"starting": value.String("a")})
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 2 {
		t.Fatalf("expected 2 nodes, got %d", out.Len())
	}
}
