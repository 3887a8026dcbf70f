// Package layout computes 2D positions for graph snapshots.
//
// The view treats layout as a swappable strategy: anything that can place
// nodes given the node and edge lists satisfies Engine. The default
// implementation is a force-directed simulation with many-body repulsion,
// link attraction and a centering pull, run synchronously for a fixed number
// of cooling iterations.
package layout

import (
	"math"

	"github.com/glimmerlab/graphview/pkg/graph"
)

// Engine assigns positions to every node of a snapshot. Implementations
// mutate the passed graph in place; callers hand in a private copy.
type Engine interface {
	Layout(g *graph.Graph) error
}

// Config holds the tunable parameters of the force simulation. The zero
// value is not useful; start from DefaultConfig.
type Config struct {
	// ChargeStrength is the many-body force applied between every node
	// pair. Negative values repel.
	ChargeStrength float64

	// ChargeDistanceMin clamps the minimum separation considered by the
	// many-body force, avoiding singular forces between coincident nodes.
	ChargeDistanceMin float64

	// LinkDistance is the rest length of the spring pulling connected
	// nodes together.
	LinkDistance float64

	// AlphaMin is the cooling threshold the simulation runs down to.
	AlphaMin float64

	// AlphaDecay is the per-tick cooling rate.
	AlphaDecay float64

	// VelocityDecay is the per-tick velocity damping factor (the fraction
	// of velocity retained).
	VelocityDecay float64

	// InitialRadius scales the deterministic spiral used to seed
	// unpositioned nodes.
	InitialRadius float64
}

// DefaultConfig returns the standard simulation parameters: repulsion −80
// with minimum distance 2, link rest length 30, and cooling settings that
// yield 300 ticks.
func DefaultConfig() Config {
	return Config{
		ChargeStrength:    -80,
		ChargeDistanceMin: 2,
		LinkDistance:      30,
		AlphaMin:          0.001,
		AlphaDecay:        1 - math.Pow(0.001, 1.0/300),
		VelocityDecay:     0.6,
		InitialRadius:     10,
	}
}

// Iterations returns the number of ticks a simulation with this config runs:
// the count after which the cooling parameter alpha would decay below
// AlphaMin.
func (c Config) Iterations() int {
	return int(math.Ceil(math.Log(c.AlphaMin) / math.Log(1-c.AlphaDecay)))
}
