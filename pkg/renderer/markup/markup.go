// Package markup serializes scene trees to SVG/HTML text. It is the
// server-side renderer: the page handler writes the initial scene as markup
// and the browser client takes over with patches.
package markup

import (
	"fmt"
	"html"
	"io"
	"sort"
	"strings"

	"github.com/glimmerlab/graphview/pkg/scene"
)

// voidElements cannot carry children or closing tags.
var voidElements = map[string]bool{
	"br":    true,
	"hr":    true,
	"img":   true,
	"input": true,
	"link":  true,
	"meta":  true,
}

// Option configures a Writer.
type Option func(*Writer)

// WithIDs annotates each element with a data-gv identity attribute. The live
// client resolves patch targets against these, so the lookup must come from
// the same Differ that will produce the patches.
func WithIDs(lookup func(*scene.Node) uint32) Option {
	return func(w *Writer) { w.ids = lookup }
}

// Writer streams scene trees as markup.
type Writer struct {
	w   io.Writer
	ids func(*scene.Node) uint32
	err error
}

// NewWriter creates a markup writer.
func NewWriter(w io.Writer, opts ...Option) *Writer {
	wr := &Writer{w: w}
	for _, opt := range opts {
		opt(wr)
	}
	return wr
}

// Render writes the subtree rooted at n.
func (wr *Writer) Render(n *scene.Node) error {
	wr.renderNode(n)
	return wr.err
}

func (wr *Writer) write(s string) {
	if wr.err != nil {
		return
	}
	_, wr.err = io.WriteString(wr.w, s)
}

func (wr *Writer) renderNode(n *scene.Node) {
	if n == nil || wr.err != nil {
		return
	}
	switch n.Kind {
	case scene.KindText:
		wr.write(html.EscapeString(n.Text))
	case scene.KindElement:
		wr.renderElement(n)
	}
}

func (wr *Writer) renderElement(n *scene.Node) {
	wr.write("<")
	wr.write(n.Tag)

	if wr.ids != nil {
		wr.write(fmt.Sprintf(` data-gv="%d"`, wr.ids(n)))
	}

	for _, name := range sortedAttrNames(n.Attrs) {
		if name == "key" || scene.IsEventAttr(name) {
			continue
		}
		wr.write(" ")
		wr.write(name)
		wr.write(`="`)
		wr.write(html.EscapeString(scene.AttrString(n.Attrs[name])))
		wr.write(`"`)
	}
	wr.write(">")

	if voidElements[n.Tag] {
		return
	}

	// Script and style content passes through unescaped.
	raw := n.Tag == "script" || n.Tag == "style"
	for i := range n.Kids {
		kid := &n.Kids[i]
		if raw && kid.IsText() {
			wr.write(kid.Text)
			continue
		}
		wr.renderNode(kid)
	}

	wr.write("</")
	wr.write(n.Tag)
	wr.write(">")
}

// RenderToString serializes a scene tree to a markup string.
func RenderToString(n *scene.Node, opts ...Option) (string, error) {
	var buf strings.Builder
	if err := NewWriter(&buf, opts...).Render(n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func sortedAttrNames(a scene.Attrs) []string {
	if len(a) == 0 {
		return nil
	}
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
