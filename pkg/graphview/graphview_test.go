package graphview

import (
	"strings"
	"testing"

	"github.com/glimmerlab/graphview/pkg/graph"
	"github.com/glimmerlab/graphview/pkg/scene"
)

// recordingSurface captures applied patch batches.
type recordingSurface struct {
	batches [][]scene.Patch
}

func (s *recordingSurface) Apply(patches []scene.Patch) error {
	s.batches = append(s.batches, patches)
	return nil
}

func (s *recordingSurface) all() []scene.Patch {
	var out []scene.Patch
	for _, b := range s.batches {
		out = append(out, b...)
	}
	return out
}

func testGraph() *graph.Graph {
	return &graph.Graph{
		Nodes: []graph.Node{
			{ID: "a", Size: 6, Color: "red", Text: "A", Tooltip: "node a"},
			{ID: "b", Size: 6, Color: "blue", Text: "B"},
			{ID: "c", Size: 8, Color: "green", Text: "C"},
		},
		Edges: []graph.Edge{
			{Source: graph.RefID("a"), Target: graph.RefID("b"), Width: 2, Color: "gray", Tooltip: "a to b"},
			{Source: graph.RefID("b"), Target: graph.RefID("c"), Width: 1, Color: "black", Directed: graph.Forwards},
		},
	}
}

func TestRenderElementCounts(t *testing.T) {
	v := New(500, 500)
	if err := v.Render(testGraph()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	tree := v.Tree()
	if tree == nil {
		t.Fatal("no tree after render")
	}
	if got := tree.CountElements("circle"); got != 3 {
		t.Errorf("circles = %d, want 3", got)
	}
	if got := tree.CountElements("line"); got != 2 {
		t.Errorf("lines = %d, want 2", got)
	}
	if got := tree.CountElements("marker"); got != 6 {
		t.Errorf("markers = %d, want 6", got)
	}
	if tree.FindByKey("n:a") == nil || tree.FindByKey("n:b") == nil || tree.FindByKey("n:c") == nil {
		t.Error("missing keyed node group")
	}
	if tree.FindByKey("e:a>b") == nil || tree.FindByKey("e:b>c") == nil {
		t.Error("missing keyed edge line")
	}
}

func TestRenderRemovesStaleElements(t *testing.T) {
	v := New(500, 500)
	if err := v.Render(testGraph()); err != nil {
		t.Fatalf("first render: %v", err)
	}

	shrunk := &graph.Graph{
		Nodes: []graph.Node{{ID: "a", Size: 6, Color: "red", Text: "A"}},
	}
	patches, err := v.Sync(shrunk)
	if err != nil {
		t.Fatalf("second render: %v", err)
	}

	tree := v.Tree()
	if got := tree.CountElements("circle"); got != 1 {
		t.Errorf("circles = %d, want 1", got)
	}
	if got := tree.CountElements("line"); got != 0 {
		t.Errorf("lines = %d, want 0", got)
	}

	removes := 0
	for _, p := range patches {
		if p.Op == scene.OpRemoveNode {
			removes++
		}
	}
	if removes == 0 {
		t.Error("expected remove patches for dropped elements")
	}
}

func TestRenderIdempotent(t *testing.T) {
	v := New(500, 500)
	g := testGraph()
	if _, err := v.Sync(g); err != nil {
		t.Fatalf("first render: %v", err)
	}
	patches, err := v.Sync(g)
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if len(patches) != 0 {
		for _, p := range patches {
			t.Logf("unexpected patch: %s", p)
		}
		t.Fatalf("re-render of identical data produced %d patches, want 0", len(patches))
	}
}

func TestRenderDoesNotMutateInput(t *testing.T) {
	g := testGraph()
	v := New(500, 500)
	if err := v.Render(g); err != nil {
		t.Fatalf("Render: %v", err)
	}
	for i := range g.Nodes {
		if g.Nodes[i].X != 0 || g.Nodes[i].Y != 0 || g.Nodes[i].Positioned {
			t.Fatalf("node %d mutated by render: %+v", i, g.Nodes[i])
		}
	}
}

func TestRenderRejectsBadInput(t *testing.T) {
	v := New(500, 500)
	if err := v.Render(nil); err == nil {
		t.Error("nil graph accepted")
	}
	bad := &graph.Graph{
		Nodes: []graph.Node{{ID: "a", Size: 6, Color: "red", Text: "A"}},
		Edges: []graph.Edge{{Source: graph.RefID("a"), Target: graph.RefID("ghost"), Width: 1, Color: "gray"}},
	}
	if err := v.Render(bad); err == nil {
		t.Error("dangling edge accepted")
	}
	if v.Tree() != nil {
		t.Error("failed render left a partial scene")
	}
}

func TestEdgeMarkerAttributes(t *testing.T) {
	cases := []struct {
		name      string
		directed  graph.Direction
		size      graph.MarkerSize
		wantStart string
		wantEnd   string
	}{
		{"undirected", graph.None, graph.MarkerDefault, "", ""},
		{"forwards", graph.Forwards, graph.MarkerDefault, "", "url(#end)"},
		{"backwards", graph.Backwards, graph.MarkerDefault, "url(#start)", ""},
		{"both", graph.Both, graph.MarkerDefault, "url(#start)", "url(#end)"},
		{"forwards large", graph.Forwards, graph.MarkerLarge, "", "url(#endlarge)"},
		{"backwards xl", graph.Backwards, graph.MarkerXL, "url(#startxl)", ""},
		{"both xl", graph.Both, graph.MarkerXL, "url(#startxl)", "url(#endxl)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := &graph.Graph{
				Nodes: []graph.Node{
					{ID: "a", Size: 6, Color: "red", Text: "A"},
					{ID: "b", Size: 6, Color: "blue", Text: "B"},
				},
				Edges: []graph.Edge{{
					Source: graph.RefID("a"), Target: graph.RefID("b"),
					Width: 1, Color: "gray",
					Directed: tc.directed, MarkerSize: tc.size,
				}},
			}
			v := New(500, 500)
			if err := v.Render(g); err != nil {
				t.Fatalf("Render: %v", err)
			}
			line := v.Tree().FindByKey("e:a>b")
			if line == nil {
				t.Fatal("edge line not found")
			}
			gotStart := scene.AttrString(line.Attrs["marker-start"])
			gotEnd := scene.AttrString(line.Attrs["marker-end"])
			if gotStart != tc.wantStart {
				t.Errorf("marker-start = %q, want %q", gotStart, tc.wantStart)
			}
			if gotEnd != tc.wantEnd {
				t.Errorf("marker-end = %q, want %q", gotEnd, tc.wantEnd)
			}
		})
	}
}

func TestParallelEdgeKeys(t *testing.T) {
	g := &graph.Graph{
		Nodes: []graph.Node{
			{ID: "a", Size: 6, Color: "red", Text: "A"},
			{ID: "b", Size: 6, Color: "blue", Text: "B"},
		},
		Edges: []graph.Edge{
			{Source: graph.RefID("a"), Target: graph.RefID("b"), Width: 1, Color: "gray"},
			{Source: graph.RefID("a"), Target: graph.RefID("b"), Width: 2, Color: "black"},
		},
	}
	v := New(500, 500)
	if err := v.Render(g); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if v.Tree().FindByKey("e:a>b") == nil {
		t.Error("first parallel edge missing")
	}
	if v.Tree().FindByKey("e:a>b#1") == nil {
		t.Error("second parallel edge missing disambiguated key")
	}
}

func TestLabelAutoFit(t *testing.T) {
	long := fitLabel("a rather long node label", 6)
	if long <= 0 {
		t.Fatalf("fitted size = %v, want > 0", long)
	}
	if long >= nominalFontSize {
		t.Errorf("long label size = %v, want < %v", long, nominalFontSize)
	}
	short := fitLabel("A", 6)
	if short <= long {
		t.Errorf("short label %v not larger than long label %v", short, long)
	}
	if got := fitLabel("", 6); got != nominalFontSize {
		t.Errorf("empty label size = %v, want nominal %v", got, nominalFontSize)
	}
}

func TestZoomTransformPersistsAcrossRenders(t *testing.T) {
	surface := &recordingSurface{}
	v := New(400, 300, WithSurface(surface))
	g := testGraph()
	if err := v.Render(g); err != nil {
		t.Fatalf("Render: %v", err)
	}

	root := v.Tree().Find(func(n *scene.Node) bool { return n.Attrs["class"] == "zoom-root" })
	if root == nil {
		t.Fatal("zoom root not found")
	}
	if got := scene.AttrString(root.Attrs["transform"]); got != "translate(200,150) scale(1)" {
		t.Errorf("initial transform = %q", got)
	}

	before := len(surface.batches)
	v.Zoom().Wheel(200, 150, -100)
	if len(surface.batches) != before+1 {
		t.Fatal("wheel gesture emitted no patch batch")
	}
	gesture := surface.batches[before]
	if len(gesture) != 1 || gesture[0].Op != scene.OpSetAttr || gesture[0].Attr != "transform" {
		t.Fatalf("wheel patch = %v", gesture)
	}
	if !strings.Contains(gesture[0].Value, "scale(1.2)") {
		t.Errorf("wheel patch value = %q, want scale(1.2)", gesture[0].Value)
	}

	// The transform survives a re-render of the same data untouched.
	patches, err := v.Sync(g)
	if err != nil {
		t.Fatalf("re-render: %v", err)
	}
	root = v.Tree().Find(func(n *scene.Node) bool { return n.Attrs["class"] == "zoom-root" })
	if got := scene.AttrString(root.Attrs["transform"]); !strings.Contains(got, "scale(1.2)") {
		t.Errorf("transform after re-render = %q, want scale(1.2)", got)
	}
	for _, p := range patches {
		if p.Op == scene.OpRemoveNode || p.Op == scene.OpInsertNode {
			t.Errorf("re-render after zoom rebuilt elements: %s", p)
		}
	}
}

func TestWheelScaleClamped(t *testing.T) {
	z := newZoom(100, 100)
	for i := 0; i < 50; i++ {
		z.Wheel(50, 50, -1000)
	}
	if got := z.Transform().K; got != 5 {
		t.Errorf("scale after zooming in = %v, want clamp at 5", got)
	}
	for i := 0; i < 50; i++ {
		z.Wheel(50, 50, 1000)
	}
	if got := z.Transform().K; got != 0.2 {
		t.Errorf("scale after zooming out = %v, want clamp at 0.2", got)
	}
}

func TestHoverShowsTooltip(t *testing.T) {
	surface := &recordingSurface{}
	v := New(500, 500, WithSurface(surface))
	if err := v.Render(testGraph()); err != nil {
		t.Fatalf("Render: %v", err)
	}

	v.Hover("n:a", 120, 80)
	if !v.Tooltip().Visible() {
		t.Fatal("tooltip not visible after hover")
	}
	if got := v.Tooltip().Text(); got != "node a" {
		t.Errorf("tooltip text = %q, want %q", got, "node a")
	}

	var styleSet bool
	for _, p := range surface.all() {
		if p.Op == scene.OpSetAttr && p.Attr == "style" && strings.Contains(p.Value, "opacity:0.9") {
			styleSet = true
			if !strings.Contains(p.Value, "left:130px") || !strings.Contains(p.Value, "top:70px") {
				t.Errorf("tooltip style offset wrong: %q", p.Value)
			}
		}
	}
	if !styleSet {
		t.Error("no tooltip style patch reached the surface")
	}

	v.Unhover("n:a")
	if v.Tooltip().Visible() {
		t.Error("tooltip still visible after unhover")
	}
}

func TestHoverEdgeTooltip(t *testing.T) {
	v := New(500, 500)
	if err := v.Render(testGraph()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	v.Hover("e:a>b", 10, 10)
	if got := v.Tooltip().Text(); got != "a to b" {
		t.Errorf("tooltip text = %q, want %q", got, "a to b")
	}
}

func TestResetLeavesViewIntact(t *testing.T) {
	v := New(500, 500)
	if err := v.Render(testGraph()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	before := v.Tree().CountElements("circle")
	v.Reset()
	if got := v.Tree().CountElements("circle"); got != before {
		t.Errorf("Reset changed the scene: %d -> %d circles", before, got)
	}
}
