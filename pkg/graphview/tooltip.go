package graphview

import (
	"fmt"

	"github.com/glimmerlab/graphview/pkg/scene"
)

// Tooltip is the hover overlay anchored to the page. State is transient per
// hover: enter shows the content at the pointer, leave fades it out. The
// overlay is owned by its view instance; the hover handlers are the single
// writer.
type Tooltip struct {
	visible bool
	text    string
	x, y    float64
}

// Show places the tooltip near the pointer with the given content.
func (t *Tooltip) Show(text string, x, y float64) {
	t.visible = true
	t.text = text
	t.x = x
	t.y = y
}

// Hide starts the fade-out. Content and position are retained so the fade
// does not jump.
func (t *Tooltip) Hide() {
	t.visible = false
}

// Visible reports whether the tooltip is currently shown.
func (t *Tooltip) Visible() bool { return t.visible }

// Text returns the current tooltip content.
func (t *Tooltip) Text() string { return t.text }

// Node renders the overlay. Opacity transitions give the fade-out on hide.
func (t *Tooltip) Node() *scene.Node {
	opacity := "0"
	if t.visible {
		opacity = "0.9"
	}
	style := fmt.Sprintf(
		"position:absolute;pointer-events:none;left:%spx;top:%spx;opacity:%s;transition:opacity 0.5s",
		fmtCoord(t.x+10), fmtCoord(t.y-10), opacity,
	)
	return scene.Element("div", scene.Attrs{
		"class": "graphview-tooltip",
		"style": style,
	}, scene.Text(t.text))
}
