package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formnotif/internal/domain"
	"formnotif/internal/service"
)

type recordingQueue struct{ events []domain.SubmissionEvent }

func (q *recordingQueue) EnqueueSubmission(_ context.Context, ev domain.SubmissionEvent) error {
	q.events = append(q.events, ev)
	return nil
}

func newWebhookServer(q *recordingQueue) *Server {
	srv := New()
	(&Webhook{Svc: &service.SubmissionService{Queue: q}, Secret: "s3cret"}).Register(srv.Mux)
	return srv
}

func post(srv *Server, body, sig string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/submissions", strings.NewReader(body))
	if sig != "" {
		req.Header.Set(SignatureHeader, sig)
	}
	rec := httptest.NewRecorder()
	srv.Mux.ServeHTTP(rec, req)
	return rec
}

func TestWebhookEnqueuesSignedEvent(t *testing.T) {
	q := &recordingQueue{}
	srv := newWebhookServer(q)

	rec := post(srv, submissionBody, Sign("s3cret", []byte(submissionBody)))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	require.Len(t, q.events, 1)
	assert.Equal(t, "77", q.events[0].Entry.ID)
	assert.Equal(t, 3, q.events[0].Entry.FormID)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	q := &recordingQueue{}
	srv := newWebhookServer(q)

	assert.Equal(t, http.StatusUnauthorized, post(srv, submissionBody, "").Code)
	assert.Equal(t, http.StatusUnauthorized, post(srv, submissionBody, Sign("other", []byte(submissionBody))).Code)
	assert.Equal(t, http.StatusUnauthorized, post(srv, submissionBody, "zz-not-hex").Code)
	assert.Empty(t, q.events)
}

func TestWebhookRejectsInvalidEvent(t *testing.T) {
	q := &recordingQueue{}
	srv := newWebhookServer(q)

	body := `{"form":{"id":0}}`
	assert.Equal(t, http.StatusBadRequest, post(srv, body, Sign("s3cret", []byte(body))).Code)

	body = `not json`
	assert.Equal(t, http.StatusBadRequest, post(srv, body, Sign("s3cret", []byte(body))).Code)
}

func TestVerifySignaturePrefixed(t *testing.T) {
	body := []byte(`{"a":1}`)
	assert.True(t, VerifySignature("k", body, "sha256="+Sign("k", body)))
	assert.False(t, VerifySignature("", body, Sign("", body)))
}
