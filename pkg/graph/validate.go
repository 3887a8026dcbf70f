package graph

import "fmt"

// Validate checks that every attribute the renderer binds is present, and
// that edge endpoints resolve to nodes. It fails fast with a descriptive
// error instead of letting a missing field surface as a blank attribute
// deep inside a render.
func (g *Graph) Validate() error {
	if g == nil {
		return fmt.Errorf("graph is nil")
	}

	seen := make(map[string]int, len(g.Nodes))
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.Size <= 0 {
			return fmt.Errorf("node %d (%q): size must be positive, got %v", i, n.ID, n.Size)
		}
		if n.Color == "" {
			return fmt.Errorf("node %d (%q): missing color", i, n.ID)
		}
		if n.Text == "" {
			return fmt.Errorf("node %d (%q): missing label text", i, n.ID)
		}
		if n.ID != "" {
			if prev, dup := seen[n.ID]; dup {
				return fmt.Errorf("node %d: duplicate id %q (first at %d)", i, n.ID, prev)
			}
			seen[n.ID] = i
		}
	}

	for i := range g.Edges {
		e := &g.Edges[i]
		if e.Width <= 0 {
			return fmt.Errorf("edge %d: width must be positive, got %v", i, e.Width)
		}
		if e.Color == "" {
			return fmt.Errorf("edge %d: missing color", i)
		}
		if e.Source.Resolve(g) < 0 {
			return fmt.Errorf("edge %d: source %s does not match any node", i, e.Source)
		}
		if e.Target.Resolve(g) < 0 {
			return fmt.Errorf("edge %d: target %s does not match any node", i, e.Target)
		}
		switch e.MarkerSize {
		case MarkerDefault, MarkerLarge, MarkerXL:
		default:
			return fmt.Errorf("edge %d: unknown marker_size %q", i, e.MarkerSize)
		}
	}

	return nil
}
