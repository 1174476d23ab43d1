package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	contractx "github.com/tanpawarit/link-companion-assistant/agent/contract"
)

type fakeChatter struct {
	got  []contractx.ChatRequest
	resp *contractx.ChatResponse
	err  error
}

func (f *fakeChatter) Chat(_ context.Context, req contractx.ChatRequest) (*contractx.ChatResponse, error) {
	f.got = append(f.got, req)
	return f.resp, f.err
}

func newTestServer(t *testing.T, chat Chatter) *Server {
	t.Helper()
	srv, err := New(Config{Addr: ":0", BodyLimit: 1 << 20, CorsOrigins: "*"}, chat)
	require.NoError(t, err)
	return srv
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &fakeChatter{})

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"status": "ok"}, decodeBody(t, resp))
}

func TestChatForwardsRequest(t *testing.T) {
	found := true
	chat := &fakeChatter{resp: &contractx.ChatResponse{
		RequestID: "req-1",
		Route:     "tool",
		Answer:    "P0123 is a throttle position sensor circuit fault.",
		Citations: []contractx.Citation{{Type: "tool", Tool: "lookup_fault_code", Found: &found}},
		Telemetry: contractx.Telemetry{LatencyMS: 12, Route: "tool"},
	}}
	srv := newTestServer(t, chat)

	body := `{"message":"what does P0123 mean","session_id":"s-1","ecu_context":{"ecu":"G4X"}}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.App().Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decodeBody(t, resp)
	assert.Equal(t, "req-1", out["request_id"])
	assert.Equal(t, "tool", out["route"])
	assert.Len(t, out["citations"], 1)

	require.Len(t, chat.got, 1)
	assert.Equal(t, "what does P0123 mean", chat.got[0].Message)
	assert.Equal(t, "s-1", chat.got[0].SessionID)
	assert.Equal(t, "G4X", chat.got[0].ECUContext["ecu"])
}

func TestChatAllowsEmptyMessage(t *testing.T) {
	chat := &fakeChatter{resp: &contractx.ChatResponse{Route: "direct_answer", Citations: []contractx.Citation{}}}
	srv := newTestServer(t, chat)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":""}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, chat.got, 1)
}

func TestChatRejectsMalformedJSON(t *testing.T) {
	chat := &fakeChatter{}
	srv := newTestServer(t, chat)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeBody(t, resp), "error")
	assert.Empty(t, chat.got)
}

func TestChatPipelineErrorIsInternal(t *testing.T) {
	srv := newTestServer(t, &fakeChatter{err: errors.New("graph exploded")})

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "internal server error", decodeBody(t, resp)["error"])
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, &fakeChatter{})

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/nope", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNewRequiresChatter(t *testing.T) {
	_, err := New(Config{}, nil)
	assert.Error(t, err)
}
