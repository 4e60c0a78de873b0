// Package brokerd runs a localhost HTTP daemon in front of a simulated
// health-data broker. It lets the orchestrator exercise the same wire
// path an out-of-process broker would use.
package brokerd

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"github.com/pulsegate-dev/pulsegate/internal/broker"
)

// Server serves the broker daemon protocol over localhost HTTP.
type Server struct {
	sim      *broker.Sim
	listener net.Listener
	server   *http.Server
}

// NewServer creates a daemon bound to addr, serving the given simulator.
// Pass "127.0.0.1:0" to bind a random port.
func NewServer(addr string, sim *broker.Sim) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("brokerd: binding listener: %w", err)
	}

	s := &Server{
		sim:      sim,
		listener: ln,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/initialize", s.handleInitialize)
	mux.HandleFunc("/request_permission", s.handleRequestPermission)

	s.server = &http.Server{Handler: mux}
	return s, nil
}

// Addr returns the address the daemon is listening on (e.g. "127.0.0.1:7345").
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Start begins serving HTTP requests. Call in a goroutine.
func (s *Server) Start() error {
	return s.server.Serve(s.listener)
}

// Stop shuts down the daemon.
func (s *Server) Stop() error {
	return s.server.Close()
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.sim.GetStatus(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, broker.StatusResponse{Status: status})
}

func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	ok, err := s.sim.Initialize(r.Context())
	if err != nil {
		writeJSON(w, broker.InitializeResponse{OK: false, Reason: err.Error()})
		return
	}
	writeJSON(w, broker.InitializeResponse{OK: ok})
}

func (s *Server) handleRequestPermission(w http.ResponseWriter, r *http.Request) {
	var body broker.PermissionRequestBody
	if !readJSON(w, r, &body) {
		return
	}

	req := broker.NewRequest(body.Pairs...)
	if req.Len() == 0 {
		http.Error(w, "empty permission request", http.StatusBadRequest)
		return
	}

	grant, err := s.sim.RequestPermission(r.Context(), req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, broker.PermissionResponse{Granted: grant.Pairs})
}

// --- Helpers ---

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil {
		return true
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, fmt.Sprintf("invalid JSON: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("encoding response: %v", err), http.StatusInternalServerError)
	}
}
