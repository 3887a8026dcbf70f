//go:build !js || !wasm

package live

import (
	"testing"

	"github.com/glimmerlab/graphview/pkg/scene"
)

func TestApplyClosesSlowSession(t *testing.T) {
	s := &Session{
		send: make(chan []byte, 1),
		text: make(chan []byte, 1),
		done: make(chan struct{}),
	}
	patches := []scene.Patch{
		{Op: scene.OpSetAttr, NodeID: 1, Attr: "transform", Value: "scale(1)"},
	}

	if err := s.Apply(patches); err != nil {
		t.Fatalf("first Apply: %v", err)
	}

	// The buffer is full and nothing drains it. Dropping the batch would
	// desync the client, so the session must go down instead.
	if err := s.Apply(patches); err == nil {
		t.Fatal("Apply on a full buffer should fail")
	}
	select {
	case <-s.done:
	default:
		t.Error("slow session left open")
	}

	// Applying after close is a quiet no-op.
	if err := s.Apply(patches); err != nil {
		t.Errorf("Apply after close: %v", err)
	}
}
