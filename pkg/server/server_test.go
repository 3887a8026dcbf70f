package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/glimmerlab/graphview/pkg/graph"
	"github.com/glimmerlab/graphview/pkg/live"
)

func testProvider() live.Provider {
	return func() (*graph.Graph, error) {
		return &graph.Graph{
			Nodes: []graph.Node{
				{ID: "a", Size: 6, Color: "red", Text: "A"},
				{ID: "b", Size: 6, Color: "blue", Text: "B"},
			},
			Edges: []graph.Edge{
				{Source: graph.RefID("a"), Target: graph.RefID("b"), Width: 1, Color: "gray", Directed: graph.Forwards},
			},
		}, nil
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := log.New(io.Discard)
	srv := New(Config{Width: 500, Height: 500}, testProvider(), logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestIndexServesScene(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	page := string(body)

	for _, want := range []string{"<svg", "<circle", "<line", `marker-end="url(#end)"`, "<defs"} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(page, "app.wasm") {
		t.Error("client loader present without an assets dir")
	}
}

func TestGraphJSONIncludesPositions(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/graph.json")
	if err != nil {
		t.Fatalf("GET /graph.json: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var g graph.Graph
	if err := json.NewDecoder(resp.Body).Decode(&g); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(g.Nodes) != 2 || len(g.Edges) != 1 {
		t.Fatalf("snapshot shape: %d nodes, %d edges", len(g.Nodes), len(g.Edges))
	}
	if g.Nodes[0].X == 0 && g.Nodes[0].Y == 0 && g.Nodes[1].X == 0 && g.Nodes[1].Y == 0 {
		t.Error("snapshot has no layout positions")
	}
}

func TestWebsocketSession(t *testing.T) {
	ts := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Server greets with a hello control message carrying the session id.
	msgType, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read hello: %v", err)
	}
	if msgType != websocket.TextMessage {
		t.Fatalf("hello message type = %d", msgType)
	}
	var hello live.Control
	if err := json.Unmarshal(data, &hello); err != nil {
		t.Fatalf("decode hello: %v", err)
	}
	if hello.Type != live.ControlHello || hello.ID == "" {
		t.Fatalf("hello = %+v", hello)
	}

	// Ready triggers the initial patch frame with the full scene.
	if err := conn.WriteJSON(live.Control{Type: live.ControlReady}); err != nil {
		t.Fatalf("send ready: %v", err)
	}
	msgType, data, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("read patches: %v", err)
	}
	if msgType != websocket.BinaryMessage {
		t.Fatalf("patch message type = %d", msgType)
	}
	patches, err := live.DecodePatches(data)
	if err != nil {
		t.Fatalf("decode patches: %v", err)
	}
	if len(patches) == 0 {
		t.Fatal("initial frame empty")
	}
	root := patches[0].Node
	if root == nil || root.CountElements("circle") != 2 || root.CountElements("line") != 1 {
		t.Fatalf("initial scene wrong: %+v", patches[0])
	}

	// A wheel gesture produces a transform update.
	if err := conn.WriteJSON(live.Control{Type: live.ControlWheel, X: 250, Y: 250, Delta: -100}); err != nil {
		t.Fatalf("send wheel: %v", err)
	}
	_, data, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("read zoom patch: %v", err)
	}
	patches, err = live.DecodePatches(data)
	if err != nil {
		t.Fatalf("decode zoom patch: %v", err)
	}
	found := false
	for _, p := range patches {
		if p.Attr == "transform" && strings.Contains(p.Value, "scale(1.2)") {
			found = true
		}
	}
	if !found {
		t.Errorf("no transform patch after wheel: %v", patches)
	}
}
