//go:build !js || !wasm

// Package dom applies scene patches to the browser DOM. It runs inside the
// wasm client; server builds compile the stub instead.
package dom

import (
	"fmt"

	"github.com/glimmerlab/graphview/pkg/scene"
)

// EventFunc receives events from the page.
type EventFunc func(nodeID uint32, event string, x, y float64)

// Applier is the non-wasm stub.
type Applier struct{}

// NewApplier creates a stub applier.
func NewApplier(onEvent EventFunc) *Applier { return &Applier{} }

// Mount reports that DOM access needs a wasm build.
func (a *Applier) Mount(containerID string) error {
	return fmt.Errorf("dom applier requires a js/wasm build")
}

// Apply reports that DOM access needs a wasm build.
func (a *Applier) Apply(patches []scene.Patch) error {
	return fmt.Errorf("dom applier requires a js/wasm build")
}
