package httpserver

import (
	"net/http"

	"github.com/gorilla/mux"

	"formnotif/internal/observability"
)

type Server struct {
	Mux *mux.Router
}

// New returns a router with request ids, request logging and the
// per-route request counter installed.
func New() *Server {
	m := mux.NewRouter()
	m.Use(RequestID, Logging, Metrics(observability.APIRequests))
	m.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, ErrNotFound, http.StatusNotFound)
	})
	return &Server{Mux: m}
}
