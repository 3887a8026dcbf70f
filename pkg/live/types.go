// Package live streams scene patches to browser clients over a websocket and
// routes interaction events back to the owning view session.
//
// The wire protocol carries three frame kinds. Patch frames are binary:
// varint-length framed mutations the client applies in order. Event frames are
// binary: a node id, an event attribute name and the pointer position. Control
// frames are JSON text, used for the session handshake and for gestures that
// have no single target node.
package live

// MountID is the page element the client mounts into. The session's scene
// root is inserted as its only child, replacing the server-rendered copy.
const MountID = "app"

// FrameType is the first byte of every binary frame.
type FrameType uint8

const (
	// FramePatches carries an ordered batch of scene mutations.
	FramePatches FrameType = 0x00
	// FrameEvent carries one interaction event from the client.
	FrameEvent FrameType = 0x01
)

// Event is an interaction forwarded from the page: which element, which event
// attribute, and the pointer position. Wheel events carry deltaY in Y.
type Event struct {
	NodeID uint32
	Name   string
	X      float64
	Y      float64
}

// Control is a JSON control message. The zero values of unused fields are
// omitted on the wire.
type Control struct {
	Type  string  `json:"type"`
	ID    string  `json:"id,omitempty"`
	X     float64 `json:"x,omitempty"`
	Y     float64 `json:"y,omitempty"`
	Delta float64 `json:"delta,omitempty"`
}

// Control message types.
const (
	// ControlHello is sent by the server after the upgrade, carrying the
	// session id.
	ControlHello = "hello"
	// ControlReady is sent by the client once its surface is mounted; the
	// server answers with the full initial patch frame.
	ControlReady = "ready"
	// ControlReset asks the server to reset the session view and resend
	// the scene from scratch.
	ControlReset = "reset"
	// ControlPan is a drag gesture: delta in X/Y.
	ControlPan = "pan"
	// ControlWheel is a zoom gesture: pointer in X/Y, deltaY in Delta.
	ControlWheel = "wheel"
)
