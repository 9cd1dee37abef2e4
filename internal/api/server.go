// Package api serves the player UI and the operator console over HTTP:
// engine status, save management, a live event stream over WebSocket,
// and operator interventions. Everything is injected through the Server
// struct; there is no package-level state.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/lanternworks/storyloom/internal/engine"
	"github.com/lanternworks/storyloom/internal/events"
	"github.com/lanternworks/storyloom/internal/storage/saves"
)

// GameEngine is the engine surface the API needs.
type GameEngine interface {
	Status() engine.Status
	HandleSignal(now time.Time, name string, payload map[string]interface{})
	Save(slot int, now time.Time) error
	Load(slot int, now time.Time) error
	Saves() ([]saves.Record, error)
	DeleteSave(slot int) error
	Recent(n int) []events.Event
}

// Server is the HTTP API. Construct with NewServer and mount Routes.
type Server struct {
	engine GameEngine
	bus    *events.Bus
	auth   *authConfig
	tls    *TLSConfig
}

// NewServer builds a server around an engine and its event bus.
// Credentials and TLS paths come from the environment (see initAuth,
// initTLS).
func NewServer(eng GameEngine, bus *events.Bus) (*Server, error) {
	auth, err := initAuth()
	if err != nil {
		return nil, err
	}
	return &Server{
		engine: eng,
		bus:    bus,
		auth:   auth,
		tls:    initTLS(),
	}, nil
}

// Routes returns the server's mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/events", s.eventsHandler)
	mux.HandleFunc("/status", s.statusHandler)
	mux.HandleFunc("/ws", s.wsHandler)
	mux.HandleFunc("/input", s.inputHandler)
	mux.HandleFunc("/saves", s.savesListHandler)
	mux.HandleFunc("/saves/save", s.saveHandler)
	mux.HandleFunc("/saves/load", s.loadHandler)
	mux.HandleFunc("/saves/delete", s.requireAnyRole(s.deleteSaveHandler))
	mux.HandleFunc("/operator/skip", s.requireAnyRole(s.operatorSkipHandler))
	mux.HandleFunc("/operator/reset", s.requireAnyRole(s.operatorResetHandler))
	mux.HandleFunc("/operator/hint", s.requireAnyRole(s.operatorHintHandler))
	mux.HandleFunc("/", s.uiHandler)
	return mux
}

// ListenAndServe starts the API server on the given port and blocks.
// Serves TLS when cert and key are configured.
func (s *Server) ListenAndServe(port int) error {
	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
	}
	if s.tls != nil {
		log.Printf("API listening on %s (TLS)\n", addr)
		return srv.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
	}
	log.Printf("API listening on %s\n", addr)
	return srv.ListenAndServe()
}

// Start runs the server in a goroutine. Errors are logged but do not
// stop the caller.
func (s *Server) Start(port int) {
	go func() {
		if err := s.ListenAndServe(port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("api server error: %v", err)
		}
	}()
}

type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Hostname  string `json:"hostname"`
	Timestamp string `json:"ts"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	host, _ := os.Hostname()
	resp := HealthResponse{
		Status:    "ok",
		Service:   "storyloom",
		Hostname:  host,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) eventsHandler(w http.ResponseWriter, r *http.Request) {
	limit := 200
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	writeJSON(w, http.StatusOK, s.engine.Recent(limit))
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Status())
}

type inputRequest struct {
	Signal  string                 `json:"signal"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// inputHandler accepts a player input signal over plain HTTP, for UIs
// that do not hold a WebSocket.
func (s *Server) inputHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, apiResponse{OK: false, Error: "method not allowed"})
		return
	}
	var req inputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid JSON"})
		return
	}
	if req.Signal == "" {
		writeJSON(w, http.StatusBadRequest, apiResponse{OK: false, Error: "signal required"})
		return
	}
	s.engine.HandleSignal(time.Now(), req.Signal, req.Payload)
	writeJSON(w, http.StatusOK, apiResponse{OK: true})
}

func (s *Server) savesListHandler(w http.ResponseWriter, r *http.Request) {
	recs, err := s.engine.Saves()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, apiResponse{OK: false, Error: err.Error()})
		return
	}
	if recs == nil {
		recs = []saves.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

type slotRequest struct {
	Slot int `json:"slot"`
}

// decodeSlot parses a slot-addressed POST body. A nil return means the
// response is already written.
func decodeSlot(w http.ResponseWriter, r *http.Request) *slotRequest {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, apiResponse{OK: false, Error: "method not allowed"})
		return nil
	}
	var req slotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid JSON"})
		return nil
	}
	if req.Slot < saves.AutosaveSlot || req.Slot > saves.MaxSlot {
		writeJSON(w, http.StatusBadRequest, apiResponse{OK: false, Error: "slot out of range"})
		return nil
	}
	return &req
}

func (s *Server) saveHandler(w http.ResponseWriter, r *http.Request) {
	req := decodeSlot(w, r)
	if req == nil {
		return
	}
	if req.Slot == saves.AutosaveSlot {
		writeJSON(w, http.StatusBadRequest, apiResponse{OK: false, Error: "slot 0 is reserved for the autosave"})
		return
	}
	if err := s.engine.Save(req.Slot, time.Now()); err != nil {
		writeJSON(w, http.StatusInternalServerError, apiResponse{OK: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{OK: true})
}

func (s *Server) loadHandler(w http.ResponseWriter, r *http.Request) {
	req := decodeSlot(w, r)
	if req == nil {
		return
	}
	if err := s.engine.Load(req.Slot, time.Now()); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, saves.ErrNoSave) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, apiResponse{OK: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{OK: true})
}

func (s *Server) deleteSaveHandler(w http.ResponseWriter, r *http.Request) {
	req := decodeSlot(w, r)
	if req == nil {
		return
	}
	if err := s.engine.DeleteSave(req.Slot); err != nil {
		writeJSON(w, http.StatusInternalServerError, apiResponse{OK: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{OK: true})
}

// operatorSkipHandler skips the current dialogue suspension on a stuck
// kiosk session.
func (s *Server) operatorSkipHandler(w http.ResponseWriter, r *http.Request) {
	s.operatorSignal(w, r, "skip")
}

// operatorResetHandler resets the current puzzle.
func (s *Server) operatorResetHandler(w http.ResponseWriter, r *http.Request) {
	s.operatorSignal(w, r, "puzzle.reset")
}

// operatorHintHandler spends a hint on the player's behalf.
func (s *Server) operatorHintHandler(w http.ResponseWriter, r *http.Request) {
	s.operatorSignal(w, r, "puzzle.hint")
}

func (s *Server) operatorSignal(w http.ResponseWriter, r *http.Request, signal string) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, apiResponse{OK: false, Error: "method not allowed"})
		return
	}
	s.engine.HandleSignal(time.Now(), signal, nil)
	writeJSON(w, http.StatusOK, apiResponse{OK: true})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
