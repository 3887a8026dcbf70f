package layout

import (
	"math"
	"testing"

	"github.com/glimmerlab/graphview/pkg/graph"
)

func testGraph() *graph.Graph {
	g := &graph.Graph{
		Nodes: []graph.Node{
			{ID: "a", Size: 5, Color: "red", Text: "A"},
			{ID: "b", Size: 5, Color: "blue", Text: "B"},
			{ID: "c", Size: 5, Color: "green", Text: "C"},
		},
		Edges: []graph.Edge{
			{Source: graph.RefID("a"), Target: graph.RefID("b"), Width: 1, Color: "gray"},
			{Source: graph.RefID("b"), Target: graph.RefIndex(2), Width: 1, Color: "gray"},
		},
	}
	return g
}

func TestConfig_Iterations(t *testing.T) {
	if got := DefaultConfig().Iterations(); got != 300 {
		t.Errorf("Iterations() = %d, want 300", got)
	}
}

func TestLayout_AssignsPositions(t *testing.T) {
	g := testGraph()
	if err := NewDefaultEngine().Layout(g); err != nil {
		t.Fatalf("Layout() error: %v", err)
	}
	for i, n := range g.Nodes {
		if !n.Positioned {
			t.Errorf("node %d not marked positioned", i)
		}
		if math.IsNaN(n.X) || math.IsNaN(n.Y) || math.IsInf(n.X, 0) || math.IsInf(n.Y, 0) {
			t.Errorf("node %d has degenerate position (%v, %v)", i, n.X, n.Y)
		}
	}
}

func TestLayout_Deterministic(t *testing.T) {
	e := NewDefaultEngine()
	g1 := testGraph()
	g2 := testGraph()
	if err := e.Layout(g1); err != nil {
		t.Fatal(err)
	}
	if err := e.Layout(g2); err != nil {
		t.Fatal(err)
	}
	for i := range g1.Nodes {
		if g1.Nodes[i].X != g2.Nodes[i].X || g1.Nodes[i].Y != g2.Nodes[i].Y {
			t.Errorf("node %d positions differ across identical runs: (%v,%v) vs (%v,%v)",
				i, g1.Nodes[i].X, g1.Nodes[i].Y, g2.Nodes[i].X, g2.Nodes[i].Y)
		}
	}
}

func TestLayout_CenteredOnOrigin(t *testing.T) {
	g := testGraph()
	if err := NewDefaultEngine().Layout(g); err != nil {
		t.Fatal(err)
	}
	var cx, cy float64
	for _, n := range g.Nodes {
		cx += n.X
		cy += n.Y
	}
	cx /= float64(len(g.Nodes))
	cy /= float64(len(g.Nodes))
	if math.Abs(cx) > 1e-6 || math.Abs(cy) > 1e-6 {
		t.Errorf("layout centroid (%v, %v) not at origin", cx, cy)
	}
}

func TestLayout_RepulsionSeparatesNodes(t *testing.T) {
	g := testGraph()
	if err := NewDefaultEngine().Layout(g); err != nil {
		t.Fatal(err)
	}
	for i := range g.Nodes {
		for j := i + 1; j < len(g.Nodes); j++ {
			dx := g.Nodes[i].X - g.Nodes[j].X
			dy := g.Nodes[i].Y - g.Nodes[j].Y
			if math.Hypot(dx, dy) < 1 {
				t.Errorf("nodes %d and %d ended up nearly coincident", i, j)
			}
		}
	}
}

func TestLayout_EmptyGraph(t *testing.T) {
	g := &graph.Graph{}
	if err := NewDefaultEngine().Layout(g); err != nil {
		t.Errorf("Layout(empty) error: %v", err)
	}
}

func TestLayout_DanglingEdgeFails(t *testing.T) {
	g := testGraph()
	g.Edges = append(g.Edges, graph.Edge{
		Source: graph.RefID("ghost"), Target: graph.RefID("a"), Width: 1, Color: "x",
	})
	if err := NewDefaultEngine().Layout(g); err == nil {
		t.Error("Layout() with dangling edge should fail")
	}
}

func TestLayout_SingleNodeLandsAtOrigin(t *testing.T) {
	g := &graph.Graph{Nodes: []graph.Node{{ID: "solo", Size: 3, Color: "red", Text: "S"}}}
	if err := NewDefaultEngine().Layout(g); err != nil {
		t.Fatal(err)
	}
	if math.Abs(g.Nodes[0].X) > 1e-9 || math.Abs(g.Nodes[0].Y) > 1e-9 {
		t.Errorf("single node at (%v, %v), want origin", g.Nodes[0].X, g.Nodes[0].Y)
	}
}
