package graphview

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Transform is the pan/zoom state applied to the root layer. It persists
// across renders; gestures are the only writer.
type Transform struct {
	X float64
	Y float64
	K float64
}

// String returns the SVG transform attribute value.
func (t Transform) String() string {
	return fmt.Sprintf("translate(%s,%s) scale(%s)", fmtCoord(t.X), fmtCoord(t.Y), fmtCoord(t.K))
}

// Zoom owns the view transform and interprets pan/zoom gestures. It is a
// field of the view instance, not shared state; the single writer is the
// event dispatch.
type Zoom struct {
	transform Transform
	minScale  float64
	maxScale  float64
	onChange  func(Transform)
}

// newZoom creates a zoom behavior centered on the surface midpoint.
func newZoom(width, height float64) *Zoom {
	return &Zoom{
		transform: Transform{X: width / 2, Y: height / 2, K: 1},
		minScale:  0.2,
		maxScale:  5,
	}
}

// Transform returns the current pan/zoom transform.
func (z *Zoom) Transform() Transform { return z.transform }

// Pan translates the view by a pointer drag delta.
func (z *Zoom) Pan(dx, dy float64) {
	z.transform.X += dx
	z.transform.Y += dy
	z.changed()
}

// Wheel scales the view around the pointer position, clamped to the scale
// bounds, keeping the point under the pointer fixed.
func (z *Zoom) Wheel(x, y, deltaY float64) {
	factor := 1 - math.Max(-0.5, math.Min(0.5, deltaY/500))
	k := z.transform.K * factor
	if k < z.minScale {
		k = z.minScale
	}
	if k > z.maxScale {
		k = z.maxScale
	}
	// World coordinates of the pointer before rescaling.
	wx := (x - z.transform.X) / z.transform.K
	wy := (y - z.transform.Y) / z.transform.K
	z.transform.K = k
	z.transform.X = x - wx*k
	z.transform.Y = y - wy*k
	z.changed()
}

func (z *Zoom) changed() {
	if z.onChange != nil {
		z.onChange(z.transform)
	}
}

// fmtCoord renders a coordinate with millipixel precision and no trailing
// zeroes, keeping attribute output stable and readable.
func fmtCoord(v float64) string {
	s := strconv.FormatFloat(v, 'f', 3, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	if s == "-0" || s == "" {
		s = "0"
	}
	return s
}
