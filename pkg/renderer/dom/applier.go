//go:build js && wasm

// Package dom applies scene patches to the browser DOM. It runs inside the
// wasm client; server builds compile the stub instead.
package dom

import (
	"fmt"
	"strings"
	"syscall/js"

	"github.com/glimmerlab/graphview/pkg/scene"
)

const svgNamespace = "http://www.w3.org/2000/svg"

// svgTags are created in the SVG namespace; everything else is plain HTML.
var svgTags = map[string]bool{
	"svg": true, "g": true, "defs": true, "marker": true,
	"path": true, "line": true, "circle": true, "text": true,
	"rect": true, "ellipse": true, "polyline": true, "polygon": true,
}

// EventFunc receives events from the page. The wasm client forwards them to
// the session over the live connection.
type EventFunc func(nodeID uint32, event string, x, y float64)

// Applier maintains the identity map between patch node ids and live DOM
// nodes, mirroring the numbering of the server-side differ.
type Applier struct {
	document js.Value
	nodes    map[uint32]js.Value
	handlers map[uint32]map[string]js.Func
	onEvent  EventFunc
}

// NewApplier creates an applier bound to the page document.
func NewApplier(onEvent EventFunc) *Applier {
	return &Applier{
		document: js.Global().Get("document"),
		nodes:    make(map[uint32]js.Value),
		handlers: make(map[uint32]map[string]js.Func),
		onEvent:  onEvent,
	}
}

// Mount registers the container element the first inserted subtree attaches
// under, clearing any server-rendered placeholder content.
func (a *Applier) Mount(containerID string) error {
	el := a.document.Call("getElementById", containerID)
	if !el.Truthy() {
		return fmt.Errorf("container #%s not found", containerID)
	}
	el.Set("innerHTML", "")
	a.nodes[0] = el
	return nil
}

// Apply applies a patch batch in order.
func (a *Applier) Apply(patches []scene.Patch) error {
	for _, p := range patches {
		if err := a.applyPatch(p); err != nil {
			return fmt.Errorf("apply %s: %w", p, err)
		}
	}
	return nil
}

func (a *Applier) applyPatch(p scene.Patch) error {
	switch p.Op {
	case scene.OpReplaceText:
		return a.replaceText(p)
	case scene.OpSetAttr:
		return a.setAttr(p)
	case scene.OpRemoveAttr:
		return a.removeAttr(p)
	case scene.OpRemoveNode:
		return a.removeNode(p)
	case scene.OpInsertNode:
		return a.insertNode(p)
	case scene.OpSetEvents:
		return a.setEvents(p)
	case scene.OpMoveNode:
		return a.moveNode(p)
	default:
		return fmt.Errorf("unknown op %d", p.Op)
	}
}

func (a *Applier) lookup(id uint32) (js.Value, error) {
	node, ok := a.nodes[id]
	if !ok {
		return js.Undefined(), fmt.Errorf("node %d not tracked", id)
	}
	return node, nil
}

func (a *Applier) replaceText(p scene.Patch) error {
	node, err := a.lookup(p.NodeID)
	if err != nil {
		return err
	}
	node.Set("textContent", p.Value)
	return nil
}

func (a *Applier) setAttr(p scene.Patch) error {
	node, err := a.lookup(p.NodeID)
	if err != nil {
		return err
	}
	node.Call("setAttribute", p.Attr, p.Value)
	return nil
}

func (a *Applier) removeAttr(p scene.Patch) error {
	node, err := a.lookup(p.NodeID)
	if err != nil {
		return err
	}
	node.Call("removeAttribute", p.Attr)
	return nil
}

func (a *Applier) removeNode(p scene.Patch) error {
	node, err := a.lookup(p.NodeID)
	if err != nil {
		return err
	}
	if parent := node.Get("parentNode"); parent.Truthy() {
		parent.Call("removeChild", node)
	}
	a.releaseHandlers(p.NodeID)
	delete(a.nodes, p.NodeID)
	return nil
}

func (a *Applier) insertNode(p scene.Patch) error {
	if p.Node == nil {
		return fmt.Errorf("insert without subtree")
	}
	parent, err := a.lookup(p.ParentID)
	if err != nil {
		return err
	}

	// Subtree ids are contiguous from the root id in document order,
	// matching the differ's pre-assignment.
	created, _ := a.createTree(p.Node, p.NodeID)

	if p.BeforeID != 0 {
		if before, ok := a.nodes[p.BeforeID]; ok {
			parent.Call("insertBefore", created, before)
			return nil
		}
	}
	parent.Call("appendChild", created)
	return nil
}

func (a *Applier) createTree(n *scene.Node, id uint32) (js.Value, uint32) {
	switch n.Kind {
	case scene.KindText:
		text := a.document.Call("createTextNode", n.Text)
		a.nodes[id] = text
		return text, id + 1

	case scene.KindElement:
		var el js.Value
		if svgTags[n.Tag] {
			el = a.document.Call("createElementNS", svgNamespace, n.Tag)
		} else {
			el = a.document.Call("createElement", n.Tag)
		}
		a.nodes[id] = el

		var events []string
		for name, value := range n.Attrs {
			if scene.IsEventAttr(name) {
				events = append(events, name)
				continue
			}
			el.Call("setAttribute", name, scene.AttrString(value))
		}
		a.attach(id, el, events)

		next := id + 1
		for i := range n.Kids {
			var kid js.Value
			kid, next = a.createTree(&n.Kids[i], next)
			el.Call("appendChild", kid)
		}
		return el, next

	default:
		return js.Undefined(), id
	}
}

func (a *Applier) setEvents(p scene.Patch) error {
	node, err := a.lookup(p.NodeID)
	if err != nil {
		return err
	}
	a.attach(p.NodeID, node, p.Events)
	return nil
}

// attach replaces the listeners on an element with the given event set. Each
// listener forwards the pointer position to the event sink.
func (a *Applier) attach(id uint32, el js.Value, events []string) {
	a.releaseHandlersOn(id, el)
	if len(events) == 0 || a.onEvent == nil {
		return
	}

	set := make(map[string]js.Func, len(events))
	for _, attr := range events {
		attr := attr
		name := strings.TrimPrefix(attr, "on")
		fn := js.FuncOf(func(this js.Value, args []js.Value) any {
			var x, y float64
			if len(args) > 0 {
				ev := args[0]
				if v := ev.Get("pageX"); v.Type() == js.TypeNumber {
					x = v.Float()
				}
				if v := ev.Get("pageY"); v.Type() == js.TypeNumber {
					y = v.Float()
				}
				// Wheel events ride deltaY in y.
				if name == "wheel" {
					if v := ev.Get("deltaY"); v.Type() == js.TypeNumber {
						y = v.Float()
					}
					ev.Call("preventDefault")
				}
			}
			a.onEvent(id, attr, x, y)
			return nil
		})
		el.Call("addEventListener", name, fn)
		set[name] = fn
	}
	a.handlers[id] = set
}

func (a *Applier) releaseHandlers(id uint32) {
	if node, ok := a.nodes[id]; ok {
		a.releaseHandlersOn(id, node)
	}
}

func (a *Applier) releaseHandlersOn(id uint32, el js.Value) {
	for name, fn := range a.handlers[id] {
		el.Call("removeEventListener", name, fn)
		fn.Release()
	}
	delete(a.handlers, id)
}

func (a *Applier) moveNode(p scene.Patch) error {
	node, err := a.lookup(p.NodeID)
	if err != nil {
		return err
	}
	parent, err := a.lookup(p.ParentID)
	if err != nil {
		return err
	}
	if cur := node.Get("parentNode"); cur.Truthy() {
		cur.Call("removeChild", node)
	}
	if p.BeforeID != 0 {
		if before, ok := a.nodes[p.BeforeID]; ok {
			parent.Call("insertBefore", node, before)
			return nil
		}
	}
	parent.Call("appendChild", node)
	return nil
}
