// Package api serves read-only observation of a running simulation over
// HTTP, plus a bearer-token-gated shock injection endpoint. The server never
// touches the lattice directly: the driver publishes a snapshot after each
// sweep, and shock requests are queued for the driver to apply between
// sweeps, so sweep invocations stay serialized.
package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sugawarayuuta/sonnet"
)

// Snapshot is the published view of the simulation after one sweep.
type Snapshot struct {
	Sweep          int      `json:"sweep"`
	Magnetization  float64  `json:"magnetization"`
	MarketCoupling float64  `json:"market_coupling"`
	Grid           [][]int8 `json:"grid"`
}

// ShockRequest is a validated shock injection queued for the driver.
type ShockRequest struct {
	Fraction float64 `json:"fraction"`
	Region   string  `json:"region"`
}

// Server serves the simulation state over HTTP.
type Server struct {
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	mu     sync.RWMutex
	latest Snapshot
	ready  bool

	shockCh chan ShockRequest
}

// NewServer creates an observation server. Snapshots arrive via Publish.
func NewServer(port int, adminKey string) *Server {
	return &Server{
		Port:     port,
		AdminKey: adminKey,
		shockCh:  make(chan ShockRequest, 16),
	}
}

// Publish replaces the served snapshot. Called by the driver after each
// sweep, never concurrently with itself.
func (s *Server) Publish(snap Snapshot) {
	s.mu.Lock()
	s.latest = snap
	s.ready = true
	s.mu.Unlock()
}

// ShockRequests returns the queue of validated shock requests. The driver
// drains it between sweeps.
func (s *Server) ShockRequests() <-chan ShockRequest { return s.shockCh }

func (s *Server) snapshot() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.ready
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	shockLimiter := NewRateLimiter(30, time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/grid", s.handleGrid)
	mux.HandleFunc("/api/v1/stream", s.handleStream)
	mux.HandleFunc("/api/v1/shock", RateLimitMiddleware(shockLimiter, s.handleShock))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("API server starting", "addr", addr, "admin", s.AdminKey != "")

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot()
	if !ok {
		http.Error(w, "no sweep completed yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]any{
		"sweep":           snap.Sweep,
		"magnetization":   snap.Magnetization,
		"market_coupling": snap.MarketCoupling,
		"height":          len(snap.Grid),
	})
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot()
	if !ok {
		http.Error(w, "no sweep completed yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, snap)
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

func writeJSON(w http.ResponseWriter, v any) {
	b, err := sonnet.Marshal(v)
	if err != nil {
		http.Error(w, "encode error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(b)
}
