package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"formnotif/internal/domain"
	"formnotif/internal/observability"
	"formnotif/internal/service"
)

// Webhook receives submission events pushed by the host form framework. The
// body must be signed with the shared secret (see Sign).
type Webhook struct {
	Svc    *service.SubmissionService
	Secret string
}

func (w *Webhook) Register(mux *mux.Router) {
	mux.HandleFunc("/v1/webhooks/submissions", w.handleSubmission).Methods(http.MethodPost)
}

func (w *Webhook) handleSubmission(rw http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(rw, r.Body, maxBodyBytes))
	if err != nil {
		observability.WebhookEvents.WithLabelValues("bad_body").Inc()
		http.Error(rw, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	if !VerifySignature(w.Secret, body, r.Header.Get(SignatureHeader)) {
		observability.WebhookEvents.WithLabelValues("invalid_signature").Inc()
		http.Error(rw, ErrInvalidSignature, http.StatusUnauthorized)
		return
	}

	var ev domain.SubmissionEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		observability.WebhookEvents.WithLabelValues("invalid_json").Inc()
		http.Error(rw, ErrInvalidJSON, http.StatusBadRequest)
		return
	}

	res, err := w.Svc.Accept(r.Context(), ev)
	if err != nil {
		if errors.Is(err, domain.ErrMissingFields) || errors.Is(err, domain.ErrDuplicateFieldID) {
			observability.WebhookEvents.WithLabelValues("invalid_event").Inc()
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		observability.WebhookEvents.WithLabelValues("error").Inc()
		slog.Error("webhook accept failed", "err", err, "form_id", ev.Form.ID, "request_id", RequestIDFrom(r.Context()))
		http.Error(rw, ErrDependency, http.StatusInternalServerError)
		return
	}

	observability.WebhookEvents.WithLabelValues("accepted").Inc()
	status := http.StatusOK
	if res.Queued {
		status = http.StatusAccepted
	}
	writeJSON(rw, status, res)
}
