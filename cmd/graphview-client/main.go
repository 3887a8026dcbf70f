//go:build js && wasm

// The browser client: connects back to the serving origin's websocket
// endpoint and keeps the page in sync with its session.
package main

import (
	"syscall/js"

	"github.com/glimmerlab/graphview/pkg/live"
)

func main() {
	location := js.Global().Get("window").Get("location")
	scheme := "ws"
	if location.Get("protocol").String() == "https:" {
		scheme = "wss"
	}
	url := scheme + "://" + location.Get("host").String() + "/ws"

	client := live.NewClient(url, live.MountID)
	if err := client.Connect(); err != nil {
		js.Global().Get("console").Call("error", err.Error())
		return
	}

	// Keep the wasm runtime alive; everything happens in callbacks.
	select {}
}
