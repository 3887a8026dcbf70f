package graph

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Decode reads a snapshot from YAML (or JSON, which YAML subsumes).
func Decode(r io.Reader) (*Graph, error) {
	var g Graph
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&g); err != nil {
		return nil, fmt.Errorf("decode graph: %w", err)
	}
	g.Normalize()
	for i := range g.Nodes {
		if g.Nodes[i].X != 0 || g.Nodes[i].Y != 0 {
			g.Nodes[i].Positioned = true
		}
	}
	return &g, nil
}

// Load reads and validates a snapshot file.
func Load(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open graph file: %w", err)
	}
	defer f.Close()

	g, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}
