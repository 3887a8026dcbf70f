// Package graph defines the snapshot data model consumed by the view: a flat
// list of nodes and edges with visual attributes. Snapshots are supplied
// wholesale on every render and treated as immutable by the caller; the view
// clones them before the layout engine mutates positions.
package graph

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Direction controls which arrow-head markers an edge receives.
type Direction string

const (
	// Forwards draws an arrow head at the target end.
	Forwards Direction = "forwards"
	// Backwards draws an arrow head at the source end.
	Backwards Direction = "backwards"
	// Both draws arrow heads at both ends.
	Both Direction = "both"
	// None draws no arrow heads. Any unrecognized value behaves the same.
	None Direction = ""
)

// MarkerSize selects one of the three arrow-head size classes. The value is
// appended to the marker identifier, so "" yields "end", "large" yields
// "endlarge" and "xl" yields "endxl".
type MarkerSize string

const (
	// MarkerDefault is the standard arrow head.
	MarkerDefault MarkerSize = ""
	// MarkerLarge is the mid-size arrow head.
	MarkerLarge MarkerSize = "large"
	// MarkerXL is the largest arrow head.
	MarkerXL MarkerSize = "xl"
)

// Node is a graph vertex with its visual attributes. X and Y are assigned by
// the layout engine; values present in the input seed the simulation.
type Node struct {
	ID      string  `yaml:"id" json:"id"`
	Size    float64 `yaml:"size" json:"size"`
	Color   string  `yaml:"color" json:"color"`
	Text    string  `yaml:"text" json:"text"`
	Tooltip string  `yaml:"tooltip,omitempty" json:"tooltip,omitempty"`

	X float64 `yaml:"x,omitempty" json:"x,omitempty"`
	Y float64 `yaml:"y,omitempty" json:"y,omitempty"`

	// Positioned marks X and Y as meaningful. Decoded snapshots set it when
	// coordinates were present; the layout engine sets it on output.
	Positioned bool `yaml:"-" json:"-"`
}

// Edge is a graph link between two nodes, referenced by ID or by index into
// the node list.
type Edge struct {
	Source     NodeRef    `yaml:"source" json:"source"`
	Target     NodeRef    `yaml:"target" json:"target"`
	Width      float64    `yaml:"width" json:"width"`
	Color      string     `yaml:"color" json:"color"`
	Directed   Direction  `yaml:"directed,omitempty" json:"directed,omitempty"`
	MarkerSize MarkerSize `yaml:"marker_size,omitempty" json:"marker_size,omitempty"`
	Tooltip    string     `yaml:"tooltip,omitempty" json:"tooltip,omitempty"`
}

// Graph is a complete snapshot of the network to display.
type Graph struct {
	Nodes []Node `yaml:"nodes" json:"nodes"`
	Edges []Edge `yaml:"edges" json:"edges"`
}

// NodeRef names a node either by ID or by position in the node list.
// Snapshots produced by other tools commonly use integer indices, so the
// decoder accepts both forms.
type NodeRef struct {
	ID    string
	Index int
	byID  bool
}

// RefID returns a reference by node ID.
func RefID(id string) NodeRef { return NodeRef{ID: id, byID: true} }

// RefIndex returns a reference by node position.
func RefIndex(i int) NodeRef { return NodeRef{Index: i} }

// String returns the readable form of the reference.
func (r NodeRef) String() string {
	if r.byID {
		return r.ID
	}
	return fmt.Sprintf("#%d", r.Index)
}

// ByID reports whether the reference names a node by ID.
func (r NodeRef) ByID() bool { return r.byID }

// UnmarshalYAML accepts either a scalar string (node ID) or an integer
// (node index).
func (r *NodeRef) UnmarshalYAML(value *yaml.Node) error {
	var idx int
	if err := value.Decode(&idx); err == nil {
		*r = RefIndex(idx)
		return nil
	}
	var id string
	if err := value.Decode(&id); err != nil {
		return fmt.Errorf("node reference must be a string ID or integer index: %w", err)
	}
	*r = RefID(id)
	return nil
}

// MarshalYAML emits the compact scalar form.
func (r NodeRef) MarshalYAML() (any, error) {
	if r.byID {
		return r.ID, nil
	}
	return r.Index, nil
}

// UnmarshalJSON accepts either a JSON string or number.
func (r *NodeRef) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		id := string(data[1 : len(data)-1])
		*r = RefID(id)
		return nil
	}
	var idx int
	if _, err := fmt.Sscanf(string(data), "%d", &idx); err != nil {
		return fmt.Errorf("node reference must be a string ID or integer index: %q", data)
	}
	*r = RefIndex(idx)
	return nil
}

// MarshalJSON emits the compact scalar form.
func (r NodeRef) MarshalJSON() ([]byte, error) {
	if r.byID {
		return []byte(fmt.Sprintf("%q", r.ID)), nil
	}
	return []byte(fmt.Sprintf("%d", r.Index)), nil
}

// Resolve returns the index of the referenced node, or -1 when the reference
// does not match any node in the snapshot.
func (r NodeRef) Resolve(g *Graph) int {
	if r.byID {
		for i := range g.Nodes {
			if g.Nodes[i].ID == r.ID {
				return i
			}
		}
		return -1
	}
	if r.Index < 0 || r.Index >= len(g.Nodes) {
		return -1
	}
	return r.Index
}

// Clone returns a deep copy of the snapshot. The view clones input graphs so
// the layout engine's position writes never reach the caller's data.
func (g *Graph) Clone() *Graph {
	if g == nil {
		return nil
	}
	out := &Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: make([]Edge, len(g.Edges)),
	}
	copy(out.Nodes, g.Nodes)
	copy(out.Edges, g.Edges)
	return out
}

// Normalize assigns index-derived IDs to nodes that lack one. IDs double as
// join keys for the rendered elements, so every node needs a stable one.
func (g *Graph) Normalize() {
	for i := range g.Nodes {
		if g.Nodes[i].ID == "" {
			g.Nodes[i].ID = fmt.Sprintf("%d", i)
		}
	}
}
