// Package server provides the HTTP server for the signlens recognizer.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/signlens/internal/app"
	"github.com/ayusman/signlens/internal/server/api"
	"github.com/ayusman/signlens/internal/store"
)

// Snapshotter provides the latest camera frame as JPEG.
type Snapshotter interface {
	Snapshot() []byte
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	App       *app.App
	Preview   Snapshotter
}

// Server represents the HTTP server for the signlens application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	hub    *RecognitionHub
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Store != nil {
		sessions := api.NewSessionHandler(s.config.Store)
		s.mux.Handle("/api/sessions", sessions)
		s.mux.Handle("/api/sessions/", sessions)
	}

	if s.config.App != nil {
		s.mux.Handle("/api/text", api.NewTextHandler(s.config.App))
		s.mux.Handle("/api/enabled", api.NewEnabledHandler(s.config.App))

		s.hub = NewRecognitionHub()
		s.config.App.Subscribe(s.hub.Broadcast)
		s.mux.Handle("/api/recognition", s.hub)
	}

	if s.config.Preview != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Preview))
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if a := s.config.App; a != nil {
		response["mode"] = a.Mode()
		response["enabled"] = a.IsEnabled()
		response["running"] = a.Running()
		if id := a.SessionID(); id != "" {
			response["session"] = id
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// Close disconnects websocket clients.
func (s *Server) Close() {
	if s.hub != nil {
		s.hub.Close()
	}
}
