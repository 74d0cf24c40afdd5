// Package control exposes the intersection control loop over a small
// JSON HTTP API built on net/http.ServeMux, with rs/cors providing the
// cross-origin handling a browser-facing dashboard needs.
package control

import (
	"encoding/json"
	"net/http"

	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/junctionlab/signalcore/controlloop"
)

var log = logrus.WithField("module", "control")

// Server is the HTTP control interface bound to one controlloop.Loop.
type Server struct {
	loop *controlloop.Loop
}

// NewServer creates a control server for loop.
func NewServer(loop *controlloop.Loop) *Server {
	return &Server{loop: loop}
}

// Handler builds the CORS-wrapped http.Handler exposing every control
// operation, suitable for http.ListenAndServe.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", s.handleStart)
	mux.HandleFunc("/stop", s.handleStop)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/mode", s.handleMode) // GET: get_mode, POST: set_mode
	mux.HandleFunc("/manual", s.handleManual)
	mux.HandleFunc("/manual/cancel", s.handleCancelManual)

	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}).Handler(mux)
}

// ListenAndServe starts the control HTTP server on addr; it blocks until
// the server stops, matching ecosim.RunServer's shape.
func (s *Server) ListenAndServe(addr string) error {
	log.WithField("addr", addr).Info("control interface listening")
	return http.ListenAndServe(addr, s.Handler())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Debug("encode response failed")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
