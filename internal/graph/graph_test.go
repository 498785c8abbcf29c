package graph

import (
	"reflect"
	"testing"
)

func TestGraph_AddEdge(t *testing.T) {
	g := NewGraph()

	if err := g.AddEdge("b", "a", 3); err != nil {
		t.Fatalf("failed to add edge: %v", err)
	}
	if err := g.AddEdge("a", "b", 2); err != nil {
		t.Fatalf("failed to add edge: %v", err)
	}
	if err := g.AddEdge("a", "c", 1); err != nil {
		t.Fatalf("failed to add edge: %v", err)
	}

	if g.NodeCount() != 3 {
		t.Errorf("expected 3 nodes, got %d", g.NodeCount())
	}
	if g.EdgeCount() != 2 {
		t.Errorf("expected 2 edges, got %d", g.EdgeCount())
	}

	w, ok := g.Weight("b", "a")
	if !ok || w != 5 {
		t.Errorf("expected accumulated weight 5, got %d (ok=%v)", w, ok)
	}

	want := []Edge{{A: "a", B: "b", Weight: 5}, {A: "a", B: "c", Weight: 1}}
	if got := g.Edges(); !reflect.DeepEqual(got, want) {
		t.Errorf("Edges() = %v, want %v", got, want)
	}
}

func TestGraph_AddEdge_SelfLoop(t *testing.T) {
	g := NewGraph()

	if err := g.AddEdge("a", "a", 1); err == nil {
		t.Error("expected error for self-loop")
	}
	if g.EdgeCount() != 0 {
		t.Errorf("self-loop must not be recorded, got %d edges", g.EdgeCount())
	}
}

func TestGraph_NodesAndNeighbors(t *testing.T) {
	g := NewGraph()
	_ = g.AddEdge("c", "a", 1)
	_ = g.AddEdge("b", "c", 1)
	g.AddNode("d")

	if got, want := g.Nodes(), []string{"a", "b", "c", "d"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Nodes() = %v, want %v", got, want)
	}
	if got, want := g.Neighbors("c"), []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Neighbors(c) = %v, want %v", got, want)
	}
	if got := g.Neighbors("d"); len(got) != 0 {
		t.Errorf("expected no neighbors for isolated node, got %v", got)
	}
}

func TestGraph_TopEdges(t *testing.T) {
	g := NewGraph()
	_ = g.AddEdge("x", "y", 5)
	_ = g.AddEdge("c", "d", 10)
	_ = g.AddEdge("a", "b", 5)
	_ = g.AddEdge("e", "f", 1)

	got := g.TopEdges(3)
	want := []Edge{
		{A: "c", B: "d", Weight: 10},
		{A: "a", B: "b", Weight: 5},
		{A: "x", B: "y", Weight: 5},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TopEdges(3) = %v, want %v", got, want)
	}

	if got := g.TopEdges(10); len(got) != 4 {
		t.Errorf("expected all 4 edges, got %d", len(got))
	}
}

func TestGraph_Subgraph(t *testing.T) {
	g := NewGraph()
	_ = g.AddEdge("a", "b", 1)
	_ = g.AddEdge("b", "c", 2)
	_ = g.AddEdge("c", "d", 3)

	sub := g.Subgraph([]string{"a", "b", "c", "missing"})
	if sub.NodeCount() != 3 {
		t.Errorf("expected 3 nodes, got %d", sub.NodeCount())
	}
	if sub.EdgeCount() != 2 {
		t.Errorf("expected 2 edges, got %d", sub.EdgeCount())
	}
	if sub.HasEdge("c", "d") {
		t.Error("edge c-d must not be in the induced subgraph")
	}
	if w, _ := sub.Weight("b", "c"); w != 2 {
		t.Errorf("expected weight 2 carried over, got %d", w)
	}
}

func TestGraph_MaximalCliques(t *testing.T) {
	tests := []struct {
		name  string
		edges [][2]string
		want  [][]string
	}{
		{
			name:  "triangle",
			edges: [][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}},
			want:  [][]string{{"a", "b", "c"}},
		},
		{
			name:  "path",
			edges: [][2]string{{"a", "b"}, {"b", "c"}},
			want:  [][]string{{"a", "b"}, {"b", "c"}},
		},
		{
			name:  "triangle with tail",
			edges: [][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}, {"c", "d"}},
			want:  [][]string{{"a", "b", "c"}, {"c", "d"}},
		},
		{
			name:  "two disjoint edges",
			edges: [][2]string{{"x", "y"}, {"a", "b"}},
			want:  [][]string{{"a", "b"}, {"x", "y"}},
		},
		{
			name:  "complete graph on four nodes",
			edges: [][2]string{{"a", "b"}, {"a", "c"}, {"a", "d"}, {"b", "c"}, {"b", "d"}, {"c", "d"}},
			want:  [][]string{{"a", "b", "c", "d"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGraph()
			for _, e := range tt.edges {
				_ = g.AddEdge(e[0], e[1], 1)
			}
			got := g.MaximalCliques()
			if !sameCliques(got, tt.want) {
				t.Errorf("MaximalCliques() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGraph_MaximalCliques_Deterministic(t *testing.T) {
	build := func() *Graph {
		g := NewGraph()
		_ = g.AddEdge("t1", "t2", 1)
		_ = g.AddEdge("t2", "t3", 1)
		_ = g.AddEdge("t1", "t3", 1)
		_ = g.AddEdge("t3", "t4", 1)
		_ = g.AddEdge("t4", "t5", 1)
		return g
	}

	first := build().MaximalCliques()
	for i := 0; i < 10; i++ {
		if got := build().MaximalCliques(); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d: got %v, want %v", i, got, first)
		}
	}
}

func TestGraph_HotCliques(t *testing.T) {
	g := NewGraph()
	_ = g.AddEdge("a", "b", 10)
	_ = g.AddEdge("b", "c", 9)
	_ = g.AddEdge("a", "c", 8)
	_ = g.AddEdge("c", "d", 7)
	_ = g.AddEdge("x", "y", 6)
	_ = g.AddEdge("y", "z", 1)

	got := g.HotCliques(5, 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 cliques, got %v", got)
	}
	if !reflect.DeepEqual(got[0], []string{"a", "b", "c"}) {
		t.Errorf("largest clique = %v, want [a b c]", got[0])
	}
	for _, c := range got {
		if containsNode(c, "z") {
			t.Errorf("node z is outside the top edges and must not appear: %v", c)
		}
	}

	if got := g.HotCliques(1, 3); !reflect.DeepEqual(got, [][]string{{"a", "b"}}) {
		t.Errorf("HotCliques(1, 3) = %v, want [[a b]]", got)
	}
}

func TestGraph_HotCliques_Empty(t *testing.T) {
	got := NewGraph().HotCliques(5, 3)
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil result, got %#v", got)
	}
}

// sameCliques compares clique sets ignoring discovery order.
func sameCliques(got, want [][]string) bool {
	if len(got) != len(want) {
		return false
	}
	used := make([]bool, len(got))
	for _, w := range want {
		found := false
		for i, g := range got {
			if !used[i] && reflect.DeepEqual(g, w) {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsNode(clique []string, id string) bool {
	for _, n := range clique {
		if n == id {
			return true
		}
	}
	return false
}
