package layout

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/glimmerlab/graphview/pkg/graph"
)

// initialAngle is the golden angle, used for the phyllotaxis seeding spiral.
var initialAngle = math.Pi * (3 - math.Sqrt(5))

// ForceEngine is a deterministic force-directed layout. Each tick applies
// link attraction, many-body repulsion and a centering pull scaled by a
// cooling parameter alpha, then integrates damped velocities. The run is
// synchronous: Layout blocks until alpha would fall below its minimum.
//
// Determinism: unpositioned nodes are seeded on a phyllotaxis spiral and
// coincident points are separated by a seeded pseudo-random nudge, so
// identical input always produces identical positions.
type ForceEngine struct {
	cfg Config
	rnd uint64
}

// NewForceEngine creates an engine with the given configuration.
func NewForceEngine(cfg Config) *ForceEngine {
	return &ForceEngine{cfg: cfg}
}

// NewDefaultEngine creates an engine with DefaultConfig.
func NewDefaultEngine() *ForceEngine {
	return NewForceEngine(DefaultConfig())
}

type link struct {
	source, target int
	bias           float64
	strength       float64
}

// Layout positions every node of g in place and marks them Positioned.
func (e *ForceEngine) Layout(g *graph.Graph) error {
	n := len(g.Nodes)
	if n == 0 {
		return nil
	}
	e.rnd = 0x2545f4914f6cdd1d // fixed seed, reset per run

	pos := make([]r2.Vec, n)
	vel := make([]r2.Vec, n)
	for i := range g.Nodes {
		if g.Nodes[i].Positioned {
			pos[i] = r2.Vec{X: g.Nodes[i].X, Y: g.Nodes[i].Y}
			continue
		}
		radius := e.cfg.InitialRadius * math.Sqrt(0.5+float64(i))
		angle := float64(i) * initialAngle
		pos[i] = r2.Vec{X: radius * math.Cos(angle), Y: radius * math.Sin(angle)}
	}

	links, err := e.resolveLinks(g)
	if err != nil {
		return err
	}

	alpha := 1.0
	iterations := e.cfg.Iterations()
	for tick := 0; tick < iterations; tick++ {
		alpha += (0 - alpha) * e.cfg.AlphaDecay

		e.applyLinks(alpha, links, pos, vel)
		e.applyCharge(alpha, pos, vel)
		e.applyCenter(pos)

		for i := range vel {
			vel[i] = r2.Scale(e.cfg.VelocityDecay, vel[i])
			pos[i] = r2.Add(pos[i], vel[i])
		}
	}

	// The last integration step runs after the in-tick centering, so settle
	// the centroid exactly on the origin before handing positions back.
	e.applyCenter(pos)

	for i := range g.Nodes {
		g.Nodes[i].X = pos[i].X
		g.Nodes[i].Y = pos[i].Y
		g.Nodes[i].Positioned = true
	}
	return nil
}

// resolveLinks turns edge references into index pairs and computes the
// degree-derived bias and strength for each link.
func (e *ForceEngine) resolveLinks(g *graph.Graph) ([]link, error) {
	degree := make([]int, len(g.Nodes))
	links := make([]link, 0, len(g.Edges))
	for i := range g.Edges {
		s := g.Edges[i].Source.Resolve(g)
		t := g.Edges[i].Target.Resolve(g)
		if s < 0 {
			return nil, fmt.Errorf("layout: edge %d source %s does not resolve", i, g.Edges[i].Source)
		}
		if t < 0 {
			return nil, fmt.Errorf("layout: edge %d target %s does not resolve", i, g.Edges[i].Target)
		}
		degree[s]++
		degree[t]++
		links = append(links, link{source: s, target: t})
	}
	for i := range links {
		l := &links[i]
		l.bias = float64(degree[l.source]) / float64(degree[l.source]+degree[l.target])
		l.strength = 1.0 / math.Min(float64(degree[l.source]), float64(degree[l.target]))
	}
	return links, nil
}

// applyLinks pulls connected nodes toward the configured rest length. The
// bias shifts more of the correction onto the lower-degree endpoint.
func (e *ForceEngine) applyLinks(alpha float64, links []link, pos, vel []r2.Vec) {
	for _, l := range links {
		d := r2.Sub(r2.Add(pos[l.target], vel[l.target]), r2.Add(pos[l.source], vel[l.source]))
		if d.X == 0 {
			d.X = e.jiggle()
		}
		if d.Y == 0 {
			d.Y = e.jiggle()
		}
		dist := math.Hypot(d.X, d.Y)
		k := (dist - e.cfg.LinkDistance) / dist * alpha * l.strength
		d = r2.Scale(k, d)
		vel[l.target] = r2.Sub(vel[l.target], r2.Scale(l.bias, d))
		vel[l.source] = r2.Add(vel[l.source], r2.Scale(1-l.bias, d))
	}
}

// applyCharge applies pairwise many-body force. Distances below the
// configured minimum are inflated toward it so coincident nodes do not
// produce singular forces.
func (e *ForceEngine) applyCharge(alpha float64, pos, vel []r2.Vec) {
	minDist2 := e.cfg.ChargeDistanceMin * e.cfg.ChargeDistanceMin
	for i := range pos {
		for j := range pos {
			if i == j {
				continue
			}
			d := r2.Sub(pos[j], pos[i])
			if d.X == 0 {
				d.X = e.jiggle()
			}
			if d.Y == 0 {
				d.Y = e.jiggle()
			}
			l := d.X*d.X + d.Y*d.Y
			if l < minDist2 {
				l = math.Sqrt(minDist2 * l)
			}
			w := e.cfg.ChargeStrength * alpha / l
			vel[i] = r2.Add(vel[i], r2.Scale(w, d))
		}
	}
}

// applyCenter translates all positions so their mean sits at the origin.
// This acts on positions directly, not velocities.
func (e *ForceEngine) applyCenter(pos []r2.Vec) {
	var c r2.Vec
	for i := range pos {
		c = r2.Add(c, pos[i])
	}
	c = r2.Scale(1/float64(len(pos)), c)
	for i := range pos {
		pos[i] = r2.Sub(pos[i], c)
	}
}

// jiggle returns a tiny deterministic offset used to separate coincident
// points. xorshift keeps the sequence reproducible across runs.
func (e *ForceEngine) jiggle() float64 {
	e.rnd ^= e.rnd << 13
	e.rnd ^= e.rnd >> 7
	e.rnd ^= e.rnd << 17
	return (float64(e.rnd%1000)/1000 - 0.5) * 1e-6
}
