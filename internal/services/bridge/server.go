// Package bridge exposes the latest quota snapshot over a loopback
// HTTP endpoint so the dashboard, which has no process-introspection
// capability, can read it.
package bridge

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"github.com/may1350/vibelens/internal/logger"
	"github.com/may1350/vibelens/internal/models"
)

// DefaultPort is the loopback port the dashboard expects.
const DefaultPort = 48829

// livenessBody answers every path except /sync-data.
const livenessBody = "VibeLens Bridge Active"

// Poller produces a fresh snapshot on demand.
type Poller interface {
	Poll() models.Snapshot
}

// Server is the loopback bridge. Each /sync-data request triggers an
// independent poll; polls are idempotent reads, so no queuing.
type Server struct {
	poller   Poller
	listener net.Listener
	srv      *http.Server
}

// NewServer binds the bridge to 127.0.0.1:port. Port 0 picks a free
// port, which tests use.
func NewServer(poller Poller, port int) (*Server, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to bind bridge port %d: %w", port, err)
	}

	s := &Server{poller: poller, listener: ln}

	mux := http.NewServeMux()
	mux.HandleFunc("/sync-data", s.handleSyncData)
	mux.HandleFunc("/", s.handleRoot)
	s.srv = &http.Server{Handler: mux}

	return s, nil
}

// Start serves requests until Close. It returns immediately; serving
// happens on a background goroutine.
func (s *Server) Start() {
	go func() {
		if err := s.srv.Serve(s.listener); err != nil && err != http.ErrServerClosed {
			logger.Error("bridge server stopped", "error", err)
		}
	}()
	logger.Info("bridge listening", "addr", s.Addr())
}

// Addr returns the bound address, e.g. "127.0.0.1:48829".
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Port returns the bound port.
func (s *Server) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

// Close shuts the server down.
func (s *Server) Close() error {
	return s.srv.Close()
}

func (s *Server) handleSyncData(w http.ResponseWriter, r *http.Request) {
	setCORS(w)

	snap := s.poller.Poll()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		logger.Error("failed to encode snapshot", "error", err)
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	fmt.Fprint(w, livenessBody)
}

// setCORS allows the separate-origin dashboard to read responses.
func setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
}
