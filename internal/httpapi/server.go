package httpapi

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the operational listener every binary runs next to its main
// port: /metrics, /healthz and /readyz.
type Server struct {
	Mux *http.ServeMux
}

func New(gatherer prometheus.Gatherer, checks ...Check) *Server {
	m := http.NewServeMux()
	m.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	m.Handle("/healthz", healthz())
	m.Handle("/readyz", readyz(2*time.Second, checks...))
	return &Server{Mux: m}
}
