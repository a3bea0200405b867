package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Check reports whether one dependency (log store, queue) can serve traffic.
type Check func(ctx context.Context) error

type status struct {
	Status string   `json:"status"`
	Errors []string `json:"errors,omitempty"`
}

func healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, status{Status: "ok"})
	}
}

// readyz runs every check under one deadline and reports all failures, not
// just the first.
func readyz(timeout time.Duration, checks ...Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		var failed []string
		for i, check := range checks {
			if err := check(ctx); err != nil {
				slog.Warn("readiness check failed", "check", i, "err", err)
				failed = append(failed, err.Error())
			}
		}
		if len(failed) > 0 {
			writeStatus(w, http.StatusServiceUnavailable, status{Status: "not_ready", Errors: failed})
			return
		}
		writeStatus(w, http.StatusOK, status{Status: "ready"})
	}
}

func writeStatus(w http.ResponseWriter, code int, s status) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(s)
}
