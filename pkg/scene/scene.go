// Package scene provides a retained-mode scene graph for vector surfaces.
//
// A scene is an immutable tree of elements and text nodes. Synchronizing a
// surface with fresh data is a two step process: build the next tree, then
// Diff it against the previous one to obtain the minimal set of mutations.
// Children carry string keys so collections bound to data identity are
// reconciled as a join: new keys insert, surviving keys update in place,
// missing keys remove.
package scene

// Kind discriminates node types in the tree.
type Kind uint8

const (
	// KindElement is a vector/markup element such as "svg", "g" or "circle".
	KindElement Kind = iota
	// KindText is a raw text node.
	KindText
)

// Attrs holds element attributes. Values are stringified when applied to a
// surface; handler values (HandlerFunc) are dispatched as events instead.
type Attrs map[string]any

// HandlerFunc is an event callback carried on an element. The two floats are
// the pointer position in page coordinates; events without a pointer pass
// zeroes.
type HandlerFunc func(x, y float64)

// Node is a node in the scene tree. Once built it must not be mutated;
// Diff relies on prev trees staying untouched.
type Node struct {
	Kind Kind

	// Tag is the element name. Element nodes only.
	Tag string

	// Key identifies this node among its siblings for join reconciliation.
	// Empty means positional matching.
	Key string

	Attrs Attrs

	Kids []Node

	// Text content. Text nodes only.
	Text string
}

// Element builds an element node.
func Element(tag string, attrs Attrs, kids ...*Node) *Node {
	n := &Node{Kind: KindElement, Tag: tag, Attrs: attrs}
	n.Kids = make([]Node, 0, len(kids))
	for _, k := range kids {
		if k != nil {
			n.Kids = append(n.Kids, *k)
		}
	}
	return n
}

// Keyed builds an element node with a reconciliation key.
func Keyed(key, tag string, attrs Attrs, kids ...*Node) *Node {
	n := Element(tag, attrs, kids...)
	n.Key = key
	return n
}

// Text builds a text node.
func Text(text string) *Node {
	return &Node{Kind: KindText, Text: text}
}

// IsElement reports whether the node is an element.
func (n *Node) IsElement() bool { return n.Kind == KindElement }

// IsText reports whether the node is a text node.
func (n *Node) IsText() bool { return n.Kind == KindText }

// Handler returns the handler registered under the given event attribute
// ("onmouseover", "onmouseout", "onwheel", ...) or nil.
func (n *Node) Handler(event string) HandlerFunc {
	if n.Attrs == nil {
		return nil
	}
	switch h := n.Attrs[event].(type) {
	case HandlerFunc:
		return h
	case func(x, y float64):
		return h
	}
	return nil
}

// Find walks the tree and returns the first element matching the predicate,
// or nil. Useful for tests and event routing.
func (n *Node) Find(match func(*Node) bool) *Node {
	if n == nil {
		return nil
	}
	if n.IsElement() && match(n) {
		return n
	}
	for i := range n.Kids {
		if found := n.Kids[i].Find(match); found != nil {
			return found
		}
	}
	return nil
}

// FindByKey returns the first element with the given key, or nil.
func (n *Node) FindByKey(key string) *Node {
	return n.Find(func(e *Node) bool { return e.Key == key })
}

// CountElements returns the number of elements with the given tag in the
// subtree rooted at n.
func (n *Node) CountElements(tag string) int {
	if n == nil {
		return 0
	}
	count := 0
	if n.IsElement() && n.Tag == tag {
		count++
	}
	for i := range n.Kids {
		count += n.Kids[i].CountElements(tag)
	}
	return count
}

// IsEventAttr reports whether an attribute name carries an event handler
// rather than a serializable value.
func IsEventAttr(name string) bool {
	return len(name) > 2 && name[0] == 'o' && name[1] == 'n'
}
