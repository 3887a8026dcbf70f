//go:build js && wasm

package live

import (
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/glimmerlab/graphview/pkg/renderer/dom"
	"github.com/glimmerlab/graphview/pkg/scene"
)

// Client runs in the browser: it connects to the live endpoint, applies patch
// frames to the page and forwards interaction back to the session.
type Client struct {
	url       string
	container string
	ws        js.Value
	applier   *dom.Applier
	sessionID string
}

// NewClient creates a client that mounts into the given container element.
func NewClient(url, containerID string) *Client {
	c := &Client{url: url, container: containerID}
	c.applier = dom.NewApplier(c.sendEvent)
	return c
}

// Connect opens the websocket and wires the message handlers. It returns
// immediately; frames are handled as they arrive.
func (c *Client) Connect() error {
	ws := js.Global().Get("WebSocket")
	if !ws.Truthy() {
		return fmt.Errorf("live: WebSocket unavailable")
	}
	c.ws = ws.New(c.url)
	c.ws.Set("binaryType", "arraybuffer")

	c.ws.Set("onmessage", js.FuncOf(func(this js.Value, args []js.Value) any {
		data := args[0].Get("data")
		if data.Type() == js.TypeString {
			c.handleControl(data.String())
			return nil
		}
		buf := js.Global().Get("Uint8Array").New(data)
		raw := make([]byte, buf.Get("length").Int())
		js.CopyBytesToGo(raw, buf)
		c.handleBinary(raw)
		return nil
	}))

	c.ws.Set("onclose", js.FuncOf(func(this js.Value, args []js.Value) any {
		js.Global().Get("console").Call("warn", "live connection closed")
		return nil
	}))

	return nil
}

// Close shuts the connection down.
func (c *Client) Close() {
	if c.ws.Truthy() {
		c.ws.Call("close")
	}
}

func (c *Client) handleControl(text string) {
	var ctl Control
	if err := json.Unmarshal([]byte(text), &ctl); err != nil {
		return
	}
	if ctl.Type != ControlHello {
		return
	}
	c.sessionID = ctl.ID
	if err := c.applier.Mount(c.container); err != nil {
		js.Global().Get("console").Call("error", err.Error())
		return
	}
	c.bindGestures()
	c.sendControl(Control{Type: ControlReady})
}

func (c *Client) handleBinary(data []byte) {
	if len(data) == 0 || FrameType(data[0]) != FramePatches {
		return
	}
	patches, err := DecodePatches(data)
	if err != nil {
		js.Global().Get("console").Call("error", "bad patch frame: "+err.Error())
		return
	}
	// A root-level insert means the session restarted its scene; remount so
	// the container and the identity map start clean.
	if len(patches) > 0 && patches[0].Op == scene.OpInsertNode && patches[0].ParentID == 0 {
		c.applier = dom.NewApplier(c.sendEvent)
		if err := c.applier.Mount(c.container); err != nil {
			js.Global().Get("console").Call("error", err.Error())
			return
		}
	}
	if err := c.applier.Apply(patches); err != nil {
		js.Global().Get("console").Call("error", "patch apply failed: "+err.Error())
	}
}

func (c *Client) sendEvent(nodeID uint32, event string, x, y float64) {
	data, err := EncodeEvent(Event{NodeID: nodeID, Name: event, X: x, Y: y})
	if err != nil {
		return
	}
	buf := js.Global().Get("Uint8Array").New(len(data))
	js.CopyBytesToJS(buf, data)
	c.ws.Call("send", buf)
}

func (c *Client) sendControl(ctl Control) {
	data, err := json.Marshal(ctl)
	if err != nil {
		return
	}
	c.ws.Call("send", string(data))
}

// bindGestures captures pan and zoom on the container. These have no single
// target element, so they travel as control messages.
func (c *Client) bindGestures() {
	doc := js.Global().Get("document")
	el := doc.Call("getElementById", c.container)
	if !el.Truthy() {
		return
	}

	el.Call("addEventListener", "wheel", js.FuncOf(func(this js.Value, args []js.Value) any {
		ev := args[0]
		ev.Call("preventDefault")
		c.sendControl(Control{
			Type:  ControlWheel,
			X:     ev.Get("offsetX").Float(),
			Y:     ev.Get("offsetY").Float(),
			Delta: ev.Get("deltaY").Float(),
		})
		return nil
	}))

	var dragging bool
	var lastX, lastY float64

	el.Call("addEventListener", "pointerdown", js.FuncOf(func(this js.Value, args []js.Value) any {
		ev := args[0]
		dragging = true
		lastX = ev.Get("clientX").Float()
		lastY = ev.Get("clientY").Float()
		el.Call("setPointerCapture", ev.Get("pointerId"))
		return nil
	}))

	el.Call("addEventListener", "pointermove", js.FuncOf(func(this js.Value, args []js.Value) any {
		if !dragging {
			return nil
		}
		ev := args[0]
		x := ev.Get("clientX").Float()
		y := ev.Get("clientY").Float()
		c.sendControl(Control{Type: ControlPan, X: x - lastX, Y: y - lastY})
		lastX, lastY = x, y
		return nil
	}))

	el.Call("addEventListener", "pointerup", js.FuncOf(func(this js.Value, args []js.Value) any {
		dragging = false
		return nil
	}))
}
