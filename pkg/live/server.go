//go:build !js || !wasm

package live

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/glimmerlab/graphview/pkg/graph"
	"github.com/glimmerlab/graphview/pkg/graphview"
	"github.com/glimmerlab/graphview/pkg/scene"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 256
)

// Provider supplies the current graph snapshot for a render.
type Provider func() (*graph.Graph, error)

// Server upgrades websocket connections and gives each one its own view
// session. Sessions render independently, so every client carries its own
// zoom transform and tooltip state.
type Server struct {
	upgrader websocket.Upgrader
	provider Provider
	width    float64
	height   float64
	logger   *log.Logger
	viewOpts []graphview.Option

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewServer creates a live server rendering views of the given size from the
// provider. View options apply to every session's view, on top of the
// session's own surface binding.
func NewServer(width, height float64, provider Provider, logger *log.Logger, viewOpts ...graphview.Option) *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		provider: provider,
		width:    width,
		height:   height,
		logger:   logger,
		viewOpts: viewOpts,
		sessions: make(map[string]*Session),
	}
}

// HandleWebSocket upgrades the request and runs the session until the peer
// disconnects.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "err", err)
		return
	}

	sess := s.newSession(conn)
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	s.logger.Info("session connected", "session", sess.id, "remote", r.RemoteAddr)

	sess.run()

	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.mu.Unlock()
	s.logger.Info("session closed", "session", sess.id)
}

// SessionCount returns the number of connected sessions.
func (s *Server) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Broadcast re-renders every session against the provider's current snapshot.
// Called when the underlying data changes, for example on a watched file
// write.
func (s *Server) Broadcast() {
	g, err := s.provider()
	if err != nil {
		s.logger.Error("broadcast: loading graph failed", "err", err)
		return
	}

	s.mu.RLock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	for _, sess := range sessions {
		if err := sess.render(g); err != nil {
			s.logger.Error("broadcast render failed", "session", sess.id, "err", err)
		}
	}
}

func (s *Server) newSession(conn *websocket.Conn) *Session {
	sess := &Session{
		id:     uuid.NewString(),
		conn:   conn,
		server: s,
		send:   make(chan []byte, sendBuffer),
		text:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
	sess.view = graphview.New(s.width, s.height, s.sessionOpts(sess)...)
	return sess
}

func (s *Server) sessionOpts(sess *Session) []graphview.Option {
	opts := make([]graphview.Option, 0, len(s.viewOpts)+1)
	opts = append(opts, s.viewOpts...)
	return append(opts, graphview.WithSurface(sess))
}

// Session is one connected client: a websocket and a private view.
type Session struct {
	id     string
	conn   *websocket.Conn
	server *Server
	view   *graphview.GraphView

	send chan []byte
	text chan []byte
	done chan struct{}

	closeOnce sync.Once

	// viewMu serializes view access between the read loop and Broadcast.
	viewMu sync.Mutex
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Apply satisfies graphview.Surface: patch batches the view produces are
// framed and queued for the client. A session too slow to drain its buffer is
// closed: every batch builds on the one before it, so skipping one would leave
// the client's surface permanently out of step. Reconnecting starts clean.
func (s *Session) Apply(patches []scene.Patch) error {
	data, err := EncodePatches(patches)
	if err != nil {
		return err
	}
	select {
	case s.send <- data:
		return nil
	case <-s.done:
		return nil
	default:
		s.close()
		return errSendBufferFull
	}
}

var errSendBufferFull = &bufferFullError{}

type bufferFullError struct{}

func (*bufferFullError) Error() string { return "live: send buffer full, session closed" }

func (s *Session) run() {
	defer s.close()

	go s.writer()

	s.sendControl(Control{Type: ControlHello, ID: s.id})

	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.server.logger.Warn("session read error", "session", s.id, "err", err)
			}
			return
		}
		switch messageType {
		case websocket.BinaryMessage:
			s.handleBinary(data)
		case websocket.TextMessage:
			s.handleControl(data)
		}
	}
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.conn != nil {
			s.conn.Close()
		}
	})
}

func (s *Session) writer() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				s.close()
				return
			}
		case data := <-s.text:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.close()
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.close()
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *Session) sendControl(c Control) {
	data, err := json.Marshal(c)
	if err != nil {
		return
	}
	select {
	case s.text <- data:
	case <-s.done:
	}
}

func (s *Session) handleBinary(data []byte) {
	if len(data) == 0 || FrameType(data[0]) != FrameEvent {
		return
	}
	ev, err := DecodeEvent(data)
	if err != nil {
		s.server.logger.Warn("bad event frame", "session", s.id, "err", err)
		return
	}
	s.viewMu.Lock()
	s.view.DispatchNode(ev.NodeID, ev.Name, ev.X, ev.Y)
	s.viewMu.Unlock()
}

func (s *Session) handleControl(data []byte) {
	var c Control
	if err := json.Unmarshal(data, &c); err != nil {
		s.server.logger.Warn("bad control message", "session", s.id, "err", err)
		return
	}

	switch c.Type {
	case ControlReady:
		if err := s.renderCurrent(); err != nil {
			s.server.logger.Error("initial render failed", "session", s.id, "err", err)
		}

	case ControlReset:
		// A fresh view resends the whole scene from scratch.
		s.viewMu.Lock()
		s.view.Reset()
		s.view = graphview.New(s.server.width, s.server.height, s.server.sessionOpts(s)...)
		s.viewMu.Unlock()
		if err := s.renderCurrent(); err != nil {
			s.server.logger.Error("reset render failed", "session", s.id, "err", err)
		}

	case ControlPan:
		s.viewMu.Lock()
		s.view.Zoom().Pan(c.X, c.Y)
		s.viewMu.Unlock()

	case ControlWheel:
		s.viewMu.Lock()
		s.view.Zoom().Wheel(c.X, c.Y, c.Delta)
		s.viewMu.Unlock()

	default:
		s.server.logger.Warn("unknown control type", "session", s.id, "type", c.Type)
	}
}

func (s *Session) renderCurrent() error {
	g, err := s.server.provider()
	if err != nil {
		return err
	}
	return s.render(g)
}

func (s *Session) render(g *graph.Graph) error {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()
	return s.view.Render(g)
}
