package main

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"

	"formnotif/internal/config"
	"formnotif/internal/util"
)

// server imitates the Starsender REST API closely enough for local runs:
// POST /api/send, GET /api/devices and GET /api/messages/{id}.
type server struct {
	apiKey      string
	mode        string
	outcomes    []string
	successRate float64
	delay       time.Duration

	idx   uint64
	rngMu sync.Mutex
	rng   *rand.Rand

	mu       sync.Mutex
	messages map[string]storedMessage
}

type storedMessage struct {
	ID     string    `json:"id"`
	To     string    `json:"to"`
	Type   string    `json:"messageType"`
	Status string    `json:"status"`
	SentAt time.Time `json:"sentAt"`
}

type sendBody struct {
	MessageType string `json:"messageType"`
	To          string `json:"to"`
	Body        string `json:"body"`
	File        string `json:"file"`
	Delay       *int   `json:"delay"`
	Schedule    *int64 `json:"schedule"`
}

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func newServer(cfg config.MockProviderConfig) *server {
	return &server{
		apiKey:      cfg.APIKey,
		mode:        strings.ToLower(strings.TrimSpace(cfg.OutcomeMode)),
		outcomes:    parseCSV(cfg.OutcomesRaw),
		successRate: cfg.SuccessRate,
		delay:       time.Duration(cfg.DelayMs) * time.Millisecond,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		messages:    make(map[string]storedMessage),
	}
}

func (s *server) register(r *mux.Router) {
	r.HandleFunc("/api/send", s.handleSend).Methods(http.MethodPost)
	r.HandleFunc("/api/devices", s.handleDevices).Methods(http.MethodGet)
	r.HandleFunc("/api/messages/{id}", s.handleMessage).Methods(http.MethodGet)
}

func (s *server) authorized(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("Authorization") != s.apiKey {
		writeJSON(w, http.StatusUnauthorized, apiResponse{Message: "Unauthorized"})
		return false
	}
	return true
}

func (s *server) handleSend(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	var body sendBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, apiResponse{Message: "invalid body"})
		return
	}
	if body.To == "" || body.Body == "" {
		writeJSON(w, http.StatusBadRequest, apiResponse{Message: "to and body are required"})
		return
	}
	if !s.wait(r.Context()) {
		return
	}

	switch kind := s.nextOutcome(); kind {
	case "failed":
		writeJSON(w, http.StatusOK, apiResponse{Message: "Number not registered on WhatsApp"})
	case "invalid_json":
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>error</html>"))
	case "server_error", "500":
		writeJSON(w, http.StatusInternalServerError, apiResponse{Message: "Internal server error"})
	default:
		msg := storedMessage{
			ID:     util.NewID("msg_"),
			To:     body.To,
			Type:   body.MessageType,
			Status: "sent",
			SentAt: util.NowUTC(),
		}
		s.mu.Lock()
		s.messages[msg.ID] = msg
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "Message sent", Data: msg})
	}
}

func (s *server) handleDevices(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{
		Success: true,
		Message: "ok",
		Data:    []map[string]string{{"id": "device-1", "status": "connected"}},
	})
}

func (s *server) handleMessage(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	msg, ok := s.messages[id]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, apiResponse{Message: "Message not found"})
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "ok", Data: msg})
}

// wait applies the configured response delay; false means the client left.
func (s *server) wait(ctx context.Context) bool {
	if s.delay <= 0 {
		return true
	}
	t := time.NewTimer(s.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (s *server) nextOutcome() string {
	switch s.mode {
	case "round_robin":
		idx := atomic.AddUint64(&s.idx, 1) - 1
		return s.outcomes[int(idx)%len(s.outcomes)]
	case "weighted":
		s.rngMu.Lock()
		ok := s.rng.Float64() <= s.successRate
		s.rngMu.Unlock()
		if ok {
			return "ok"
		}
		return "failed"
	case "random":
		s.rngMu.Lock()
		i := s.rng.Intn(len(s.outcomes))
		s.rngMu.Unlock()
		return s.outcomes[i]
	default:
		return s.outcomes[0]
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return []string{"ok"}
	}
	return out
}
