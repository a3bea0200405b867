package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"formnotif/internal/config"
	"formnotif/internal/domain"
	"formnotif/internal/fields"
	"formnotif/internal/observability"
	"formnotif/internal/phone"
	"formnotif/internal/providers/starsender"
	"formnotif/internal/service"
	"formnotif/internal/util"
)

const maxBodyBytes = 1 << 20

// Starsender is the client surface the handlers use.
type Starsender interface {
	Send(ctx context.Context, req starsender.SendRequest) starsender.Result
	GetMessage(ctx context.Context, id string) starsender.Result
	TestConnection(ctx context.Context) starsender.Result
}

type API struct {
	Svc      *service.SubmissionService
	Settings *config.Settings
	// Client returns a Starsender client that authenticates with apiKey.
	Client   func(apiKey string) Starsender
	Limiter  *ClientLimiter
	SiteName string
	Location *time.Location
}

func (a *API) Register(mux *mux.Router) {
	mux.HandleFunc("/v1/submissions", a.handleSubmit).Methods(http.MethodPost)
	mux.HandleFunc("/v1/submissions/{id}/logs", a.handleLogs).Methods(http.MethodGet)
	mux.HandleFunc("/v1/connection/test", a.handleConnectionTest).Methods(http.MethodPost)
	mux.HandleFunc("/v1/test-message", a.handleTestMessage).Methods(http.MethodPost)
	mux.HandleFunc("/v1/messages/{id}", a.handleGetMessage).Methods(http.MethodGet)
}

func (a *API) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var ev domain.SubmissionEvent
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&ev); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}

	res, err := a.Svc.Accept(r.Context(), ev)
	if err != nil {
		if errors.Is(err, domain.ErrMissingFields) || errors.Is(err, domain.ErrDuplicateFieldID) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("accept submission failed", "err", err, "form_id", ev.Form.ID, "request_id", RequestIDFrom(r.Context()))
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}

	status := http.StatusOK
	if res.Queued {
		status = http.StatusAccepted
	}
	writeJSON(w, status, res)
}

func (a *API) handleLogs(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, ErrMissingID, http.StatusBadRequest)
		return
	}
	logs, err := a.Svc.Logs(r.Context(), id)
	if errors.Is(err, service.ErrNotFound) {
		http.Error(w, ErrNotFound, http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("list dispatch log failed", "err", err, "submission_id", id)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

type connectionTestRequest struct {
	APIKey string `json:"apiKey"`
}

func (a *API) handleConnectionTest(w http.ResponseWriter, r *http.Request) {
	if !a.Limiter.Allow(r) {
		http.Error(w, ErrTooManyTests, http.StatusTooManyRequests)
		return
	}
	var req connectionTestRequest
	if err := decodeOptional(w, r, &req); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}

	key, ok := a.apiKey(w, req.APIKey)
	if !ok {
		return
	}

	res := a.Client(key).TestConnection(r.Context())
	status := http.StatusOK
	if res.Success {
		observability.ConnectionTests.WithLabelValues("ok").Inc()
	} else {
		observability.ConnectionTests.WithLabelValues("error").Inc()
		status = http.StatusBadGateway
	}
	writeJSON(w, status, res)
}

type testMessageRequest struct {
	APIKey       string      `json:"apiKey"`
	AdminNumbers numberInput `json:"adminNumbers"`
}

// numberInput accepts a JSON array or a newline-delimited string.
type numberInput []string

func (n *numberInput) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*n = phone.SplitLines(s)
		return nil
	}
	var items []string
	if err := json.Unmarshal(b, &items); err != nil {
		return err
	}
	*n = items
	return nil
}

type testMessageResponse struct {
	Success bool                         `json:"success"`
	Message string                       `json:"message"`
	Details map[string]starsender.Result `json:"details"`
}

// handleTestMessage sends a connectivity message to every admin number
// whose digit count is within bounds. Numbers are sent as typed.
func (a *API) handleTestMessage(w http.ResponseWriter, r *http.Request) {
	if !a.Limiter.Allow(r) {
		http.Error(w, ErrTooManyTests, http.StatusTooManyRequests)
		return
	}
	var req testMessageRequest
	if err := decodeOptional(w, r, &req); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}

	key, ok := a.apiKey(w, req.APIKey)
	if !ok {
		return
	}

	numbers := []string(req.AdminNumbers)
	if len(numbers) == 0 && a.Settings != nil {
		numbers = a.Settings.AdminNumbers
	}
	if len(numbers) == 0 {
		http.Error(w, ErrNoAdminNumbers, http.StatusBadRequest)
		return
	}
	valid := make([]string, 0, len(numbers))
	for _, n := range numbers {
		if phone.InBounds(phone.Digits(n)) {
			valid = append(valid, n)
		}
	}
	if len(valid) == 0 {
		http.Error(w, ErrNoValidNumbers, http.StatusBadRequest)
		return
	}

	client := a.Client(key)
	body := a.testMessage()
	out := testMessageResponse{Success: true, Details: make(map[string]starsender.Result, len(valid))}
	for _, n := range valid {
		res := client.Send(r.Context(), starsender.SendRequest{To: n, Body: body, Type: starsender.TypeText})
		out.Details[n] = res
		if !res.Success {
			out.Success = false
		}
	}

	status := http.StatusOK
	out.Message = "Test message sent to all admin numbers"
	if !out.Success {
		status = http.StatusBadGateway
		out.Message = "Some messages failed to send"
	}
	writeJSON(w, status, out)
}

func (a *API) testMessage() string {
	loc := a.Location
	if loc == nil {
		loc = time.UTC
	}
	return fmt.Sprintf("Connectivity test passed. %s is now successfully integrated with WhatsApp. "+
		"The Starsender global config is enabled, and messages are being delivered without issues.\n\nRef Id: %s",
		fields.SanitizeText(a.SiteName), util.NowUTC().In(loc).Format("2006-01-02 15:04:05"))
}

func (a *API) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, ErrMissingID, http.StatusBadRequest)
		return
	}
	key := ""
	if a.Settings != nil {
		key = a.Settings.APIKey
	}
	if key == "" {
		http.Error(w, ErrAPIKeyRequired, http.StatusServiceUnavailable)
		return
	}
	res := a.Client(key).GetMessage(r.Context(), id)
	status := http.StatusOK
	if !res.Success {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, res)
}

// apiKey picks the request key or falls back to the configured one and
// checks its format. It writes the error response itself.
func (a *API) apiKey(w http.ResponseWriter, provided string) (string, bool) {
	key := fields.SanitizeText(provided)
	if key == "" && a.Settings != nil {
		key = a.Settings.APIKey
	}
	if key == "" {
		http.Error(w, ErrAPIKeyRequired, http.StatusBadRequest)
		return "", false
	}
	if !starsender.ValidateAPIKey(key) {
		http.Error(w, ErrInvalidAPIKey, http.StatusBadRequest)
		return "", false
	}
	return key, true
}

// decodeOptional decodes a JSON body into v; an empty body leaves v as is.
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) error {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	return json.Unmarshal(b, v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
