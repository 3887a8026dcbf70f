package live

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/glimmerlab/graphview/pkg/scene"
)

// Encoder writes the binary live protocol primitives.
type Encoder struct {
	w io.Writer
}

// NewEncoder creates an encoder.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// WriteByte writes a single byte.
func (e *Encoder) WriteByte(b byte) error {
	_, err := e.w.Write([]byte{b})
	return err
}

// WriteUvarint writes an unsigned varint.
func (e *Encoder) WriteUvarint(v uint64) error {
	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(buf, v)
	_, err := e.w.Write(buf[:n])
	return err
}

// WriteString writes a length-prefixed string.
func (e *Encoder) WriteString(s string) error {
	if err := e.WriteUvarint(uint64(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(e.w, s)
	return err
}

// WriteFloat writes a float64 as its IEEE 754 bits, little endian.
func (e *Encoder) WriteFloat(v float64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	_, err := e.w.Write(buf[:])
	return err
}

// Decoder reads the binary live protocol primitives.
type Decoder struct {
	r io.Reader

	// limit bounds length prefixes. Frames arrive from untrusted peers, so
	// a prefix is never allowed to exceed the frame that carries it.
	limit uint64
}

// NewDecoder creates a decoder.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// newFrameDecoder decodes one received frame payload, rejecting length
// prefixes larger than the payload itself.
func newFrameDecoder(payload []byte) *Decoder {
	return &Decoder{r: bytes.NewReader(payload), limit: uint64(len(payload))}
}

// ReadByte implements io.ByteReader for varint decoding.
func (d *Decoder) ReadByte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(d.r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadUvarint reads an unsigned varint.
func (d *Decoder) ReadUvarint() (uint64, error) {
	return binary.ReadUvarint(d)
}

// ReadString reads a length-prefixed string.
func (d *Decoder) ReadString() (string, error) {
	length, err := d.ReadUvarint()
	if err != nil {
		return "", err
	}
	if d.limit != 0 && length > d.limit {
		return "", fmt.Errorf("decode: string length %d exceeds frame size %d", length, d.limit)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// ReadFloat reads a float64 written by WriteFloat.
func (d *Decoder) ReadFloat() (float64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(d.r, buf[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[:])), nil
}

// EncodePatches serializes a patch batch as one patches frame.
func EncodePatches(patches []scene.Patch) ([]byte, error) {
	var buf bytes.Buffer
	e := NewEncoder(&buf)

	if err := e.WriteByte(byte(FramePatches)); err != nil {
		return nil, err
	}
	if err := e.WriteUvarint(uint64(len(patches))); err != nil {
		return nil, err
	}
	for _, p := range patches {
		if err := encodePatch(e, p); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func encodePatch(e *Encoder, p scene.Patch) error {
	if err := e.WriteByte(byte(p.Op)); err != nil {
		return err
	}
	if err := e.WriteUvarint(uint64(p.NodeID)); err != nil {
		return err
	}
	switch p.Op {
	case scene.OpReplaceText:
		return e.WriteString(p.Value)

	case scene.OpSetAttr:
		if err := e.WriteString(p.Attr); err != nil {
			return err
		}
		return e.WriteString(p.Value)

	case scene.OpRemoveAttr:
		return e.WriteString(p.Attr)

	case scene.OpRemoveNode:
		return nil

	case scene.OpInsertNode:
		if err := e.WriteUvarint(uint64(p.ParentID)); err != nil {
			return err
		}
		if err := e.WriteUvarint(uint64(p.BeforeID)); err != nil {
			return err
		}
		return encodeNode(e, p.Node)

	case scene.OpSetEvents:
		if err := e.WriteUvarint(uint64(len(p.Events))); err != nil {
			return err
		}
		for _, name := range p.Events {
			if err := e.WriteString(name); err != nil {
				return err
			}
		}
		return nil

	case scene.OpMoveNode:
		if err := e.WriteUvarint(uint64(p.ParentID)); err != nil {
			return err
		}
		return e.WriteUvarint(uint64(p.BeforeID))

	default:
		return fmt.Errorf("encode: unknown op %d", p.Op)
	}
}

// encodeNode serializes a subtree. Attribute values travel as their string
// form; event attributes travel as names only, handlers stay server side.
func encodeNode(e *Encoder, n *scene.Node) error {
	if n == nil {
		return fmt.Errorf("encode: nil subtree")
	}
	if err := e.WriteByte(byte(n.Kind)); err != nil {
		return err
	}

	if n.Kind == scene.KindText {
		return e.WriteString(n.Text)
	}

	if err := e.WriteString(n.Tag); err != nil {
		return err
	}

	var attrs, events []string
	for name := range n.Attrs {
		if scene.IsEventAttr(name) {
			events = append(events, name)
		} else {
			attrs = append(attrs, name)
		}
	}
	sort.Strings(attrs)
	sort.Strings(events)

	if err := e.WriteUvarint(uint64(len(attrs))); err != nil {
		return err
	}
	for _, name := range attrs {
		if err := e.WriteString(name); err != nil {
			return err
		}
		if err := e.WriteString(scene.AttrString(n.Attrs[name])); err != nil {
			return err
		}
	}

	if err := e.WriteUvarint(uint64(len(events))); err != nil {
		return err
	}
	for _, name := range events {
		if err := e.WriteString(name); err != nil {
			return err
		}
	}

	if err := e.WriteUvarint(uint64(len(n.Kids))); err != nil {
		return err
	}
	for i := range n.Kids {
		if err := encodeNode(e, &n.Kids[i]); err != nil {
			return err
		}
	}
	return nil
}

// DecodePatches parses a patches frame.
func DecodePatches(data []byte) ([]scene.Patch, error) {
	if len(data) == 0 || FrameType(data[0]) != FramePatches {
		return nil, fmt.Errorf("decode: not a patches frame")
	}
	d := newFrameDecoder(data[1:])

	count, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	patches := make([]scene.Patch, 0, count)
	for i := uint64(0); i < count; i++ {
		p, err := decodePatch(d)
		if err != nil {
			return nil, fmt.Errorf("decode patch %d: %w", i, err)
		}
		patches = append(patches, p)
	}
	return patches, nil
}

func decodePatch(d *Decoder) (scene.Patch, error) {
	var p scene.Patch

	op, err := d.ReadByte()
	if err != nil {
		return p, err
	}
	p.Op = scene.Op(op)

	nodeID, err := d.ReadUvarint()
	if err != nil {
		return p, err
	}
	p.NodeID = uint32(nodeID)

	switch p.Op {
	case scene.OpReplaceText:
		p.Value, err = d.ReadString()
		return p, err

	case scene.OpSetAttr:
		if p.Attr, err = d.ReadString(); err != nil {
			return p, err
		}
		p.Value, err = d.ReadString()
		return p, err

	case scene.OpRemoveAttr:
		p.Attr, err = d.ReadString()
		return p, err

	case scene.OpRemoveNode:
		return p, nil

	case scene.OpInsertNode:
		parentID, err := d.ReadUvarint()
		if err != nil {
			return p, err
		}
		beforeID, err := d.ReadUvarint()
		if err != nil {
			return p, err
		}
		p.ParentID = uint32(parentID)
		p.BeforeID = uint32(beforeID)
		p.Node, err = decodeNode(d)
		return p, err

	case scene.OpSetEvents:
		count, err := d.ReadUvarint()
		if err != nil {
			return p, err
		}
		p.Events = make([]string, 0, count)
		for i := uint64(0); i < count; i++ {
			name, err := d.ReadString()
			if err != nil {
				return p, err
			}
			p.Events = append(p.Events, name)
		}
		return p, nil

	case scene.OpMoveNode:
		parentID, err := d.ReadUvarint()
		if err != nil {
			return p, err
		}
		beforeID, err := d.ReadUvarint()
		if err != nil {
			return p, err
		}
		p.ParentID = uint32(parentID)
		p.BeforeID = uint32(beforeID)
		return p, nil

	default:
		return p, fmt.Errorf("unknown op %d", p.Op)
	}
}

func decodeNode(d *Decoder) (*scene.Node, error) {
	kind, err := d.ReadByte()
	if err != nil {
		return nil, err
	}

	if scene.Kind(kind) == scene.KindText {
		text, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		return scene.Text(text), nil
	}

	tag, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	n := &scene.Node{Kind: scene.KindElement, Tag: tag}

	attrCount, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	if attrCount > 0 {
		n.Attrs = make(scene.Attrs, attrCount)
	}
	for i := uint64(0); i < attrCount; i++ {
		name, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		value, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		n.Attrs[name] = value
	}

	eventCount, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	if eventCount > 0 && n.Attrs == nil {
		n.Attrs = make(scene.Attrs, eventCount)
	}
	for i := uint64(0); i < eventCount; i++ {
		name, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		// The handler stays on the server; the name alone subscribes
		// the event on the client.
		n.Attrs[name] = true
	}

	kidCount, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	n.Kids = make([]scene.Node, 0, kidCount)
	for i := uint64(0); i < kidCount; i++ {
		kid, err := decodeNode(d)
		if err != nil {
			return nil, err
		}
		n.Kids = append(n.Kids, *kid)
	}
	return n, nil
}

// EncodeEvent serializes an interaction event frame.
func EncodeEvent(ev Event) ([]byte, error) {
	var buf bytes.Buffer
	e := NewEncoder(&buf)

	if err := e.WriteByte(byte(FrameEvent)); err != nil {
		return nil, err
	}
	if err := e.WriteUvarint(uint64(ev.NodeID)); err != nil {
		return nil, err
	}
	if err := e.WriteString(ev.Name); err != nil {
		return nil, err
	}
	if err := e.WriteFloat(ev.X); err != nil {
		return nil, err
	}
	if err := e.WriteFloat(ev.Y); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeEvent parses an interaction event frame.
func DecodeEvent(data []byte) (Event, error) {
	var ev Event
	if len(data) == 0 || FrameType(data[0]) != FrameEvent {
		return ev, fmt.Errorf("decode: not an event frame")
	}
	d := newFrameDecoder(data[1:])

	nodeID, err := d.ReadUvarint()
	if err != nil {
		return ev, err
	}
	ev.NodeID = uint32(nodeID)

	if ev.Name, err = d.ReadString(); err != nil {
		return ev, err
	}
	if ev.X, err = d.ReadFloat(); err != nil {
		return ev, err
	}
	if ev.Y, err = d.ReadFloat(); err != nil {
		return ev, err
	}
	return ev, nil
}
