// Package debugserver is an optional, separately-importable HTTP/WebSocket
// front end for watching a running simulation. Nothing in desim or
// modules/tshare imports this package; a host wires it in only when it
// wants live visibility during development.
package debugserver

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/desimkit/desim"
)

// EventTrace is one delivered event, as reported to a Server by a
// wrapping EventHandler (see ObservingHandler and Server.Observe) — the
// kernel never talks to this package directly.
type EventTrace struct {
	EventID desim.EventID     `json:"event_id"`
	Time    float64           `json:"time"`
	Src     desim.ComponentID `json:"src"`
	Dst     desim.ComponentID `json:"dst"`
	Type    string            `json:"type"`
}

// statsSource is the minimal kernel surface the server's /stats endpoint
// needs, kept as an interface so tests can supply a fake without spinning
// up a real Kernel.
type statsSource interface {
	Clock() float64
	Stats() desim.Stats
}

// Server exposes a kernel's current time and Stats() over HTTP, and
// streams delivered-event traces over WebSocket to any connected client.
type Server struct {
	kernel   statsSource
	router   chi.Router
	upgrader websocket.Upgrader

	mu   sync.Mutex
	subs map[*websocket.Conn]struct{}
}

// New builds a Server backed by kernel. Call ServeHTTP (or mount Router()
// in an existing mux) to expose it.
func New(kernel statsSource) *Server {
	s := &Server{
		kernel: kernel,
		subs:   make(map[*websocket.Conn]struct{}),
	}
	r := chi.NewRouter()
	r.Get("/stats", s.handleStats)
	r.Get("/events", s.handleEvents)
	s.router = r
	return s
}

// Router returns the underlying chi.Router, for mounting under a larger
// application mux.
func (s *Server) Router() chi.Router { return s.router }

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	payload := struct {
		Time  float64     `json:"time"`
		Stats desim.Stats `json:"stats"`
	}{
		Time:  s.kernel.Clock(),
		Stats: s.kernel.Stats(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.subs[conn] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.subs, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	// The client doesn't send anything meaningful; block on reads purely
	// to detect disconnects, the same idle-read pattern gorilla's own
	// examples use for a push-only socket.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Observe broadcasts trace to every currently connected WebSocket client.
// A host calls this from its own EventHandler wrapper, once per delivered
// event, so the kernel itself never needs network awareness.
func (s *Server) Observe(trace EventTrace) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.subs {
		if err := conn.WriteJSON(trace); err != nil {
			conn.Close()
			delete(s.subs, conn)
		}
	}
}
