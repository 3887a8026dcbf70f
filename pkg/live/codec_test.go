package live

import (
	"encoding/binary"
	"reflect"
	"testing"

	"github.com/glimmerlab/graphview/pkg/scene"
)

func TestPatchesRoundTrip(t *testing.T) {
	subtree := scene.Keyed("n:a", "g", scene.Attrs{
		"transform":   "translate(10,20)",
		"onmouseover": scene.HandlerFunc(func(x, y float64) {}),
	},
		scene.Element("circle", scene.Attrs{"r": "6", "fill": "red"}),
		scene.Element("text", scene.Attrs{"font-size": "8"}, scene.Text("A")),
	)

	in := []scene.Patch{
		{Op: scene.OpReplaceText, NodeID: 4, Value: "hello"},
		{Op: scene.OpSetAttr, NodeID: 7, Attr: "stroke", Value: "gray"},
		{Op: scene.OpRemoveAttr, NodeID: 7, Attr: "marker-end"},
		{Op: scene.OpRemoveNode, NodeID: 9},
		{Op: scene.OpInsertNode, NodeID: 12, ParentID: 3, BeforeID: 5, Node: subtree},
		{Op: scene.OpSetEvents, NodeID: 12, Events: []string{"onmouseout", "onmouseover"}},
		{Op: scene.OpMoveNode, NodeID: 6, ParentID: 3, BeforeID: 12},
	}

	data, err := EncodePatches(in)
	if err != nil {
		t.Fatalf("EncodePatches: %v", err)
	}
	if FrameType(data[0]) != FramePatches {
		t.Fatalf("frame type = %d, want patches", data[0])
	}

	out, err := DecodePatches(data)
	if err != nil {
		t.Fatalf("DecodePatches: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("decoded %d patches, want %d", len(out), len(in))
	}

	for i := range in {
		if in[i].Op == scene.OpInsertNode {
			continue
		}
		if !reflect.DeepEqual(in[i], out[i]) {
			t.Errorf("patch %d: got %v, want %v", i, out[i], in[i])
		}
	}

	// The inserted subtree carries structure, attributes and event names.
	got := out[4].Node
	if got == nil {
		t.Fatal("insert patch lost its subtree")
	}
	if got.Tag != "g" || len(got.Kids) != 2 {
		t.Fatalf("subtree shape wrong: tag=%q kids=%d", got.Tag, len(got.Kids))
	}
	if got.Attrs["transform"] != "translate(10,20)" {
		t.Errorf("transform attr = %v", got.Attrs["transform"])
	}
	if _, ok := got.Attrs["onmouseover"]; !ok {
		t.Error("event subscription name dropped")
	}
	if got.Handler("onmouseover") != nil {
		t.Error("handler crossed the wire; only the name should")
	}
	text := got.Kids[1]
	if len(text.Kids) != 1 || !text.Kids[0].IsText() || text.Kids[0].Text != "A" {
		t.Errorf("nested text lost: %+v", text.Kids)
	}
}

func TestEncodePatchesEmpty(t *testing.T) {
	data, err := EncodePatches(nil)
	if err != nil {
		t.Fatalf("EncodePatches: %v", err)
	}
	out, err := DecodePatches(data)
	if err != nil {
		t.Fatalf("DecodePatches: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("decoded %d patches, want 0", len(out))
	}
}

func TestEventRoundTrip(t *testing.T) {
	in := Event{NodeID: 42, Name: "onmouseover", X: 120.5, Y: -3.25}
	data, err := EncodeEvent(in)
	if err != nil {
		t.Fatalf("EncodeEvent: %v", err)
	}
	out, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}
	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}
}

func TestDecodeRejectsOversizedLengthPrefix(t *testing.T) {
	// An event frame whose name length claims far more bytes than the frame
	// holds. The decoder must reject the prefix instead of allocating for it.
	frame := []byte{byte(FrameEvent)}
	var buf [binary.MaxVarintLen64]byte
	frame = append(frame, buf[:binary.PutUvarint(buf[:], 42)]...)    // node id
	frame = append(frame, buf[:binary.PutUvarint(buf[:], 1<<40)]...) // hostile length
	frame = append(frame, []byte("onmouseover")...)

	if _, err := DecodeEvent(frame); err == nil {
		t.Error("oversized length prefix accepted")
	}

	patchFrame := []byte{byte(FramePatches)}
	patchFrame = append(patchFrame, buf[:binary.PutUvarint(buf[:], 1)]...) // one patch
	patchFrame = append(patchFrame, byte(scene.OpReplaceText))
	patchFrame = append(patchFrame, buf[:binary.PutUvarint(buf[:], 7)]...)     // node id
	patchFrame = append(patchFrame, buf[:binary.PutUvarint(buf[:], 1<<40)]...) // hostile length

	if _, err := DecodePatches(patchFrame); err == nil {
		t.Error("oversized patch string accepted")
	}
}

func TestDecodeRejectsWrongFrame(t *testing.T) {
	if _, err := DecodePatches([]byte{byte(FrameEvent), 0}); err == nil {
		t.Error("event frame accepted as patches")
	}
	if _, err := DecodeEvent([]byte{byte(FramePatches), 0}); err == nil {
		t.Error("patches frame accepted as event")
	}
	if _, err := DecodePatches(nil); err == nil {
		t.Error("empty data accepted")
	}
}
