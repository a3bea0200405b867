package main

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formnotif/internal/config"
	"formnotif/internal/providers/starsender"
)

func newMock(t *testing.T, mode, outcomes string) *httptest.Server {
	t.Helper()
	s := newServer(config.MockProviderConfig{APIKey: "mock-api-key-0001", OutcomeMode: mode, OutcomesRaw: outcomes})
	r := mux.NewRouter()
	s.register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestMockSpeaksStarsenderProtocol(t *testing.T) {
	srv := newMock(t, "round_robin", "ok,failed,invalid_json,server_error")
	c := starsender.New("mock-api-key-0001", srv.URL+"/api")
	ctx := context.Background()

	ok := c.Send(ctx, starsender.SendRequest{To: "0812345678", Body: "hi"})
	require.True(t, ok.Success, ok.Message)
	assert.Contains(t, string(ok.Data), `"to":"62812345678"`)

	failed := c.Send(ctx, starsender.SendRequest{To: "0812345678", Body: "hi"})
	assert.False(t, failed.Success)
	assert.Equal(t, "Number not registered on WhatsApp", failed.Message)

	invalid := c.Send(ctx, starsender.SendRequest{To: "0812345678", Body: "hi"})
	assert.False(t, invalid.Success)
	assert.Equal(t, starsender.MsgInvalidJSON, invalid.Message)

	broken := c.Send(ctx, starsender.SendRequest{To: "0812345678", Body: "hi"})
	assert.False(t, broken.Success)
	assert.Equal(t, 500, broken.HTTPStatus)

	assert.True(t, c.TestConnection(ctx).Success)
	assert.False(t, c.WithAPIKey("wrong-key-000").TestConnection(ctx).Success)
}

func TestMockMessageLookup(t *testing.T) {
	srv := newMock(t, "fixed", "ok")
	c := starsender.New("mock-api-key-0001", srv.URL+"/api")
	ctx := context.Background()

	assert.False(t, c.GetMessage(ctx, "msg_unknown").Success)
	sent := c.Send(ctx, starsender.SendRequest{To: "+15551234567", Body: "hi"})
	require.True(t, sent.Success)
	assert.Contains(t, string(sent.Data), `"id":"msg_`)
}
