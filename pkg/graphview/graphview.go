// Package graphview renders an interactive force-directed network diagram.
//
// A GraphView owns a fixed-size vector surface, a pan/zoom transform and a
// tooltip overlay. Each Render call is a full resynchronization: the input
// snapshot is copied, laid out by the force engine, and joined against the
// previously rendered scene so that new elements appear, surviving elements
// update in place and stale elements are removed. View state (the zoom
// transform) persists across renders; tooltip state is transient per hover.
package graphview

import (
	"fmt"

	"github.com/glimmerlab/graphview/pkg/graph"
	"github.com/glimmerlab/graphview/pkg/layout"
	"github.com/glimmerlab/graphview/pkg/scene"
)

// ContainerID is the page element the view mounts into.
const ContainerID = "elements"

// Surface receives patch batches. The browser applier and the live push
// channel both satisfy it.
type Surface interface {
	Apply(patches []scene.Patch) error
}

// Option configures a GraphView.
type Option func(*GraphView)

// WithEngine replaces the default force layout strategy.
func WithEngine(e layout.Engine) Option {
	return func(v *GraphView) { v.engine = e }
}

// WithSurface attaches a surface that receives patches as they are produced.
func WithSurface(s Surface) Option {
	return func(v *GraphView) { v.surface = s }
}

// GraphView is an interactive network diagram bound to one drawing surface.
type GraphView struct {
	width   float64
	height  float64
	engine  layout.Engine
	differ  *scene.Differ
	tree    *scene.Node
	zoom    *Zoom
	tooltip *Tooltip
	surface Surface

	// last laid-out snapshot, for callers that serve it back out
	snapshot *graph.Graph
}

// New creates a view with a bordered surface of the given pixel size, arrow
// head marker definitions, a zoom behavior centered on the surface midpoint
// and a hidden tooltip overlay.
func New(width, height float64, opts ...Option) *GraphView {
	v := &GraphView{
		width:   width,
		height:  height,
		engine:  layout.NewDefaultEngine(),
		differ:  scene.NewDiffer(),
		tooltip: &Tooltip{},
	}
	v.zoom = newZoom(width, height)
	v.zoom.onChange = v.patchZoom
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Render synchronizes the surface with a snapshot. The input graph is never
// mutated. Malformed snapshots fail fast before anything is drawn.
func (v *GraphView) Render(g *graph.Graph) error {
	_, err := v.Sync(g)
	return err
}

// Sync performs a render and returns the patch batch that transformed the
// previous scene into the new one. Callers streaming updates to a remote
// surface use the patches directly.
func (v *GraphView) Sync(g *graph.Graph) ([]scene.Patch, error) {
	if g == nil {
		return nil, fmt.Errorf("graphview: nil graph")
	}

	// Snapshot semantics: the simulation writes positions into a private
	// copy so the caller's data stays intact.
	working := g.Clone()
	working.Normalize()
	if err := working.Validate(); err != nil {
		return nil, fmt.Errorf("graphview: %w", err)
	}
	if err := v.engine.Layout(working); err != nil {
		return nil, fmt.Errorf("graphview: %w", err)
	}

	next := v.buildScene(working)
	patches := v.differ.Diff(v.tree, next)
	v.tree = next
	v.snapshot = working

	if v.surface != nil && len(patches) > 0 {
		if err := v.surface.Apply(patches); err != nil {
			return nil, fmt.Errorf("graphview: apply patches: %w", err)
		}
	}
	return patches, nil
}

// Reset is a reserved hook. It currently leaves the view untouched.
func (v *GraphView) Reset() {}

// Tree returns the current scene, or nil before the first render.
func (v *GraphView) Tree() *scene.Node { return v.tree }

// Snapshot returns the last laid-out graph copy, or nil before the first
// render.
func (v *GraphView) Snapshot() *graph.Graph { return v.snapshot }

// Zoom returns the view's pan/zoom behavior.
func (v *GraphView) Zoom() *Zoom { return v.zoom }

// Tooltip returns the view's tooltip overlay.
func (v *GraphView) Tooltip() *Tooltip { return v.tooltip }

// Size returns the surface dimensions in pixels.
func (v *GraphView) Size() (width, height float64) { return v.width, v.height }

// buildScene produces the scene tree for a laid-out snapshot: the svg surface
// with marker defs and the zoomable root layer holding edge lines and node
// groups, plus the tooltip overlay.
func (v *GraphView) buildScene(g *graph.Graph) *scene.Node {
	edgeKids := make([]*scene.Node, 0, len(g.Edges))
	seen := make(map[string]int, len(g.Edges))
	for i := range g.Edges {
		edgeKids = append(edgeKids, v.buildEdge(g, &g.Edges[i], seen))
	}

	nodeKids := make([]*scene.Node, 0, len(g.Nodes))
	for i := range g.Nodes {
		nodeKids = append(nodeKids, v.buildNode(&g.Nodes[i]))
	}

	root := scene.Element("g", scene.Attrs{
		"class":     "zoom-root",
		"transform": v.zoom.Transform().String(),
	},
		scene.Element("g", scene.Attrs{"class": "edges"}, edgeKids...),
		scene.Element("g", scene.Attrs{"class": "nodes"}, nodeKids...),
	)

	svg := scene.Element("svg", scene.Attrs{
		"xmlns":  "http://www.w3.org/2000/svg",
		"width":  fmtCoord(v.width),
		"height": fmtCoord(v.height),
		"style":  "border:1px dotted",
	}, markerDefs(), root)

	return scene.Element("div", scene.Attrs{"id": ContainerID, "class": "graphview"},
		svg,
		v.tooltip.Node(),
	)
}

// buildEdge renders one edge as a keyed line with endpoint coordinates from
// the layout, stroke attributes from the edge, and direction markers.
func (v *GraphView) buildEdge(g *graph.Graph, e *graph.Edge, seen map[string]int) *scene.Node {
	si := e.Source.Resolve(g)
	ti := e.Target.Resolve(g)
	src := &g.Nodes[si]
	dst := &g.Nodes[ti]

	base := "e:" + src.ID + ">" + dst.ID
	key := base
	if n := seen[base]; n > 0 {
		key = fmt.Sprintf("%s#%d", base, n)
	}
	seen[base]++

	attrs := scene.Attrs{
		"x1":           fmtCoord(src.X),
		"y1":           fmtCoord(src.Y),
		"x2":           fmtCoord(dst.X),
		"y2":           fmtCoord(dst.Y),
		"stroke":       e.Color,
		"stroke-width": fmtCoord(e.Width),
	}
	if start, end := edgeMarkers(e); start != "" || end != "" {
		if start != "" {
			attrs["marker-start"] = start
		}
		if end != "" {
			attrs["marker-end"] = end
		}
	}
	v.bindHover(attrs, e.Tooltip)
	return scene.Keyed(key, "line", attrs)
}

// buildNode renders one node as a keyed group translated to its layout
// position, containing the circle and the auto-fitted centered label.
func (v *GraphView) buildNode(n *graph.Node) *scene.Node {
	attrs := scene.Attrs{
		"transform": fmt.Sprintf("translate(%s,%s)", fmtCoord(n.X), fmtCoord(n.Y)),
	}
	v.bindHover(attrs, n.Tooltip)

	circle := scene.Element("circle", scene.Attrs{
		"r":    fmtCoord(n.Size),
		"fill": n.Color,
	})
	label := scene.Element("text", scene.Attrs{
		"text-anchor":       "middle",
		"dominant-baseline": "central",
		"font-size":         fmtCoord(fitLabel(n.Text, n.Size)),
	}, scene.Text(n.Text))

	return scene.Keyed("n:"+n.ID, "g", attrs, circle, label)
}

// bindHover attaches the tooltip handlers for an element.
func (v *GraphView) bindHover(attrs scene.Attrs, tooltip string) {
	attrs["onmouseover"] = scene.HandlerFunc(func(x, y float64) {
		v.tooltip.Show(tooltip, x, y)
		v.patchTooltip()
	})
	attrs["onmouseout"] = scene.HandlerFunc(func(x, y float64) {
		v.tooltip.Hide()
		v.patchTooltip()
	})
}

// Hover dispatches a pointer-enter on the element with the given key.
// The browser applier routes real events here; tests drive it directly.
func (v *GraphView) Hover(key string, x, y float64) {
	v.dispatch(key, "onmouseover", x, y)
}

// Unhover dispatches a pointer-leave on the element with the given key.
func (v *GraphView) Unhover(key string) {
	v.dispatch(key, "onmouseout", 0, 0)
}

// DispatchNode routes an event from a remote surface to the handler on the
// element with the given patch identity. Unknown ids and unbound events are
// ignored.
func (v *GraphView) DispatchNode(nodeID uint32, event string, x, y float64) {
	if v.tree == nil || nodeID == 0 {
		return
	}
	el := v.tree.Find(func(n *scene.Node) bool { return v.differ.NodeID(n) == nodeID })
	if el == nil {
		return
	}
	if h := el.Handler(event); h != nil {
		h(x, y)
	}
}

func (v *GraphView) dispatch(key, event string, x, y float64) {
	if v.tree == nil {
		return
	}
	if el := v.tree.FindByKey(key); el != nil {
		if h := el.Handler(event); h != nil {
			h(x, y)
		}
	}
}

// patchZoom pushes the updated root transform to the surface. Only the
// transform attribute changes; graph data and the rest of the scene are
// untouched.
func (v *GraphView) patchZoom(t Transform) {
	v.patchAttr("zoom-root", "transform", t.String())
}

// patchTooltip pushes the overlay's current style and content.
func (v *GraphView) patchTooltip() {
	if v.tree == nil {
		return
	}
	el := v.tree.Find(func(n *scene.Node) bool { return n.Attrs["class"] == "graphview-tooltip" })
	if el == nil {
		return
	}
	fresh := v.tooltip.Node()
	patches := []scene.Patch{
		{Op: scene.OpSetAttr, NodeID: v.differ.NodeID(el), Attr: "style", Value: scene.AttrString(fresh.Attrs["style"])},
	}
	if len(el.Kids) > 0 && el.Kids[0].IsText() {
		patches = append(patches, scene.Patch{
			Op: scene.OpReplaceText, NodeID: v.differ.NodeID(&el.Kids[0]), Value: v.tooltip.Text(),
		})
	}
	v.apply(patches)
}

func (v *GraphView) patchAttr(class, attr, value string) {
	if v.tree == nil {
		return
	}
	el := v.tree.Find(func(n *scene.Node) bool { return n.Attrs["class"] == class })
	if el == nil {
		return
	}
	v.apply([]scene.Patch{{Op: scene.OpSetAttr, NodeID: v.differ.NodeID(el), Attr: attr, Value: value}})
}

func (v *GraphView) apply(patches []scene.Patch) {
	if v.surface == nil || len(patches) == 0 {
		return
	}
	// Interaction patches are fire and forget; a broken surface surfaces
	// on the next Render.
	_ = v.surface.Apply(patches)
}
