package scene

import (
	"fmt"
	"sort"
)

// Op is a patch operation type.
type Op uint8

const (
	// OpReplaceText replaces the content of a text node.
	OpReplaceText Op = 0x01
	// OpSetAttr sets or replaces an attribute.
	OpSetAttr Op = 0x02
	// OpRemoveNode removes a node and its subtree.
	OpRemoveNode Op = 0x03
	// OpInsertNode inserts a new subtree.
	OpInsertNode Op = 0x04
	// OpSetEvents replaces the set of subscribed events.
	OpSetEvents Op = 0x05
	// OpRemoveAttr removes an attribute.
	OpRemoveAttr Op = 0x06
	// OpMoveNode moves a node to a new position among its siblings.
	OpMoveNode Op = 0x07
)

// Patch is a single surface mutation.
type Patch struct {
	Op       Op
	NodeID   uint32
	ParentID uint32 // insert/move target
	BeforeID uint32 // insert/move anchor; 0 appends
	Attr     string
	Value    string
	Node     *Node    // inserted subtree
	Events   []string // subscribed event attribute names, sorted
}

// String returns a readable form for logs and test failures.
func (p Patch) String() string {
	switch p.Op {
	case OpReplaceText:
		return fmt.Sprintf("ReplaceText(node=%d, text=%q)", p.NodeID, p.Value)
	case OpSetAttr:
		return fmt.Sprintf("SetAttr(node=%d, %s=%q)", p.NodeID, p.Attr, p.Value)
	case OpRemoveAttr:
		return fmt.Sprintf("RemoveAttr(node=%d, attr=%q)", p.NodeID, p.Attr)
	case OpRemoveNode:
		return fmt.Sprintf("RemoveNode(node=%d)", p.NodeID)
	case OpInsertNode:
		return fmt.Sprintf("InsertNode(node=%d, parent=%d, before=%d)", p.NodeID, p.ParentID, p.BeforeID)
	case OpSetEvents:
		return fmt.Sprintf("SetEvents(node=%d, events=%v)", p.NodeID, p.Events)
	case OpMoveNode:
		return fmt.Sprintf("MoveNode(node=%d, parent=%d, before=%d)", p.NodeID, p.ParentID, p.BeforeID)
	default:
		return fmt.Sprintf("Unknown(op=%d)", p.Op)
	}
}

// Differ computes patches between successive scene trees. Node identities are
// stable across calls on the same Differ, so a surface that applied earlier
// patch batches can apply later ones.
type Differ struct {
	ids     map[*Node]uint32
	counter uint32
	patches []Patch
}

// NewDiffer creates a Differ with an empty identity map.
func NewDiffer() *Differ {
	return &Differ{ids: make(map[*Node]uint32), counter: 1}
}

// Diff is a convenience wrapper for one-shot diffing with fresh identities.
func Diff(prev, next *Node) []Patch {
	return NewDiffer().Diff(prev, next)
}

// NodeID returns the identity assigned to a node, allocating one if needed.
func (d *Differ) NodeID(n *Node) uint32 {
	if n == nil {
		return 0
	}
	if id, ok := d.ids[n]; ok {
		return id
	}
	id := d.counter
	d.counter++
	d.ids[n] = id
	return id
}

// Diff computes the patches that transform prev into next.
func (d *Differ) Diff(prev, next *Node) []Patch {
	d.patches = d.patches[:0]
	d.diffNode(prev, next, 0)
	out := make([]Patch, len(d.patches))
	copy(out, d.patches)
	return out
}

func (d *Differ) emit(p Patch) {
	d.patches = append(d.patches, p)
}

func (d *Differ) diffNode(prev, next *Node, parentID uint32) {
	if prev == nil && next == nil {
		return
	}

	if prev != nil && next == nil {
		d.emit(Patch{Op: OpRemoveNode, NodeID: d.NodeID(prev)})
		delete(d.ids, prev)
		return
	}

	if prev == nil {
		d.insert(next, parentID, 0)
		return
	}

	// Incompatible nodes are replaced wholesale.
	if prev.Kind != next.Kind || (prev.Kind == KindElement && prev.Tag != next.Tag) {
		d.emit(Patch{Op: OpRemoveNode, NodeID: d.NodeID(prev)})
		delete(d.ids, prev)
		d.insert(next, parentID, 0)
		return
	}

	// Carry the identity forward to the surviving node.
	id := d.NodeID(prev)
	delete(d.ids, prev)
	d.ids[next] = id

	switch prev.Kind {
	case KindText:
		if prev.Text != next.Text {
			d.emit(Patch{Op: OpReplaceText, NodeID: id, Value: next.Text})
		}
	case KindElement:
		d.diffAttrs(id, prev.Attrs, next.Attrs)
		d.diffKids(id, prev.Kids, next.Kids)
	}
}

func (d *Differ) diffAttrs(nodeID uint32, prev, next Attrs) {
	// Removed or changed.
	for _, name := range sortedAttrNames(prev) {
		if IsEventAttr(name) {
			continue
		}
		nextVal, ok := next[name]
		if !ok {
			d.emit(Patch{Op: OpRemoveAttr, NodeID: nodeID, Attr: name})
			continue
		}
		if s := AttrString(nextVal); s != AttrString(prev[name]) {
			d.emit(Patch{Op: OpSetAttr, NodeID: nodeID, Attr: name, Value: s})
		}
	}

	// Added.
	for _, name := range sortedAttrNames(next) {
		if IsEventAttr(name) {
			continue
		}
		if _, ok := prev[name]; !ok {
			d.emit(Patch{Op: OpSetAttr, NodeID: nodeID, Attr: name, Value: AttrString(next[name])})
		}
	}

	prevEvents := eventSet(prev)
	nextEvents := eventSet(next)
	if !stringSlicesEqual(prevEvents, nextEvents) {
		d.emit(Patch{Op: OpSetEvents, NodeID: nodeID, Events: nextEvents})
	}
}

func (d *Differ) diffKids(parentID uint32, prev, next []Node) {
	if len(prev) == 0 && len(next) == 0 {
		return
	}

	if hasKeys(next) || hasKeys(prev) {
		d.diffKeyedKids(parentID, prev, next)
		return
	}

	// Positional reconciliation for unkeyed lists.
	n := len(prev)
	if len(next) < n {
		n = len(next)
	}
	for i := 0; i < n; i++ {
		d.diffNode(&prev[i], &next[i], parentID)
	}
	for i := n; i < len(prev); i++ {
		d.diffNode(&prev[i], nil, parentID)
	}
	for i := n; i < len(next); i++ {
		d.diffNode(nil, &next[i], parentID)
	}
}

// diffKeyedKids joins the two child lists by key: matched keys update in
// place, new keys insert, dropped keys remove, and matched keys that changed
// position move.
func (d *Differ) diffKeyedKids(parentID uint32, prev, next []Node) {
	prevByKey := make(map[string]int, len(prev))
	for i := range prev {
		if k := prev[i].Key; k != "" {
			prevByKey[k] = i
		}
	}

	// Pair the lists up front so inserts can anchor on the nearest following
	// survivor; survivors already sit on the surface when the batch applies.
	pairs := make([]int, len(next))
	for i := range next {
		pairs[i] = -1
		key := next[i].Key
		if key == "" {
			// Unkeyed child among keyed siblings: match positionally.
			if i < len(prev) && prev[i].Key == "" {
				pairs[i] = i
			}
			continue
		}
		if prevIdx, ok := prevByKey[key]; ok {
			pairs[i] = prevIdx
		}
	}
	anchor := func(from int) uint32 {
		for j := from; j < len(next); j++ {
			if pairs[j] >= 0 {
				return d.NodeID(&prev[pairs[j]])
			}
		}
		return 0
	}

	matched := make([]bool, len(prev))
	type move struct {
		nodeID uint32
		index  int
	}
	var moves []move

	for nextIdx := range next {
		child := &next[nextIdx]
		prevIdx := pairs[nextIdx]

		if prevIdx < 0 {
			d.insert(child, parentID, anchor(nextIdx+1))
			continue
		}
		matched[prevIdx] = true
		nodeID := d.NodeID(&prev[prevIdx])
		d.diffNode(&prev[prevIdx], child, parentID)
		if prevIdx != nextIdx && child.Key != "" {
			moves = append(moves, move{nodeID: nodeID, index: nextIdx})
		}
	}

	for i := range prev {
		if !matched[i] {
			d.diffNode(&prev[i], nil, parentID)
		}
	}

	for _, m := range moves {
		var beforeID uint32
		if m.index+1 < len(next) {
			beforeID = d.NodeID(&next[m.index+1])
		}
		d.emit(Patch{Op: OpMoveNode, NodeID: m.nodeID, ParentID: parentID, BeforeID: beforeID})
	}
}

// insert emits the patches for a fresh subtree: the insert itself, anchored
// before an existing sibling (0 appends), and its event subscriptions.
func (d *Differ) insert(n *Node, parentID, beforeID uint32) {
	id := d.NodeID(n)
	d.assignSubtree(n)
	d.emit(Patch{Op: OpInsertNode, NodeID: id, ParentID: parentID, BeforeID: beforeID, Node: n})
	if events := eventSet(n.Attrs); len(events) > 0 {
		d.emit(Patch{Op: OpSetEvents, NodeID: id, Events: events})
	}
}

// assignSubtree allocates identities for an inserted subtree in document
// order, so an applier materializing the insert can reproduce the numbering.
func (d *Differ) assignSubtree(n *Node) {
	d.NodeID(n)
	for i := range n.Kids {
		d.assignSubtree(&n.Kids[i])
	}
}

// AttrString converts an attribute value to its serialized form.
func AttrString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

func sortedAttrNames(a Attrs) []string {
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

func eventSet(a Attrs) []string {
	var events []string
	for name := range a {
		if IsEventAttr(name) {
			events = append(events, name)
		}
	}
	sort.Strings(events)
	return events
}

func hasKeys(kids []Node) bool {
	for i := range kids {
		if kids[i].Key != "" {
			return true
		}
	}
	return false
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
