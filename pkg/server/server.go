// Package server exposes the view over HTTP: the page with the
// server-rendered scene, the live websocket endpoint and the raw snapshot.
package server

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/glimmerlab/graphview/pkg/graphview"
	"github.com/glimmerlab/graphview/pkg/live"
	"github.com/glimmerlab/graphview/pkg/renderer/markup"
)

// Config holds the HTTP server settings.
type Config struct {
	Host   string
	Port   int
	Width  float64
	Height float64

	// AssetsDir, when set, is served under /assets/ and is expected to
	// hold the wasm client build.
	AssetsDir string

	// Title is the page title. Empty falls back to "graphview".
	Title string
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Server serves the diagram page and its live sessions.
type Server struct {
	cfg      Config
	provider live.Provider
	logger   *log.Logger
	live     *live.Server
	viewOpts []graphview.Option
}

// New creates a server rendering snapshots from the provider. View options
// apply to the page render and to every live session.
func New(cfg Config, provider live.Provider, logger *log.Logger, viewOpts ...graphview.Option) *Server {
	if cfg.Title == "" {
		cfg.Title = "graphview"
	}
	return &Server{
		cfg:      cfg,
		provider: provider,
		logger:   logger,
		live:     live.NewServer(cfg.Width, cfg.Height, provider, logger, viewOpts...),
		viewOpts: viewOpts,
	}
}

// Live returns the live session server, for broadcasting data changes.
func (s *Server) Live() *live.Server { return s.live }

// Config returns the server settings.
func (s *Server) Config() Config { return s.cfg }

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/ws", s.live.HandleWebSocket)
	r.Get("/graph.json", s.handleGraphJSON)

	if s.cfg.AssetsDir != "" {
		fs := http.StripPrefix("/assets/", http.FileServer(http.Dir(s.cfg.AssetsDir)))
		r.Handle("/assets/*", fs)
	}

	return r
}

// ListenAndServe runs the server until it fails.
func (s *Server) ListenAndServe() error {
	s.logger.Info("listening", "addr", s.cfg.Addr())
	return http.ListenAndServe(s.cfg.Addr(), s.Handler())
}

// handleIndex serves the page with the scene rendered server side. The wasm
// client replaces it once the live connection is up.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	g, err := s.provider()
	if err != nil {
		s.logger.Error("snapshot load failed", "err", err)
		http.Error(w, "failed to load graph", http.StatusInternalServerError)
		return
	}

	view := graphview.New(s.cfg.Width, s.cfg.Height, s.viewOpts...)
	if err := view.Render(g); err != nil {
		s.logger.Error("render failed", "err", err)
		http.Error(w, "failed to render graph", http.StatusInternalServerError)
		return
	}

	svg, err := markup.RenderToString(view.Tree())
	if err != nil {
		s.logger.Error("markup render failed", "err", err)
		http.Error(w, "failed to render graph", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := writePage(w, pageData{
		Title:      s.cfg.Title,
		Scene:      template.HTML(svg),
		WithClient: s.cfg.AssetsDir != "",
	}); err != nil {
		s.logger.Error("page write failed", "err", err)
	}
}

// handleGraphJSON serves the laid-out snapshot, positions included.
func (s *Server) handleGraphJSON(w http.ResponseWriter, r *http.Request) {
	g, err := s.provider()
	if err != nil {
		http.Error(w, "failed to load graph", http.StatusInternalServerError)
		return
	}

	view := graphview.New(s.cfg.Width, s.cfg.Height, s.viewOpts...)
	if err := view.Render(g); err != nil {
		http.Error(w, "failed to render graph", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(view.Snapshot()); err != nil {
		s.logger.Error("snapshot encode failed", "err", err)
	}
}
