package google

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startedFlow(t *testing.T, timeout time.Duration) *Flow {
	t.Helper()
	flow, err := New(Config{
		ClientID:   "client-id.apps.googleusercontent.com",
		ListenAddr: "127.0.0.1:0",
		Timeout:    timeout,
	}, nil)
	require.NoError(t, err)
	require.NoError(t, flow.Start())
	t.Cleanup(func() { flow.Close() })
	return flow
}

func postComplete(t *testing.T, flow *Flow, body map[string]string) *http.Response {
	t.Helper()
	encoded, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post("http://"+flow.Addr()+"/complete", "application/json", bytes.NewReader(encoded))
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func TestNewRequiresClientID(t *testing.T) {
	_, err := New(Config{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestBeginBuildsAuthorizeURL(t *testing.T) {
	flow := startedFlow(t, time.Minute)

	attempt, err := flow.Begin(context.Background())
	require.NoError(t, err)

	parsed, err := url.Parse(attempt.URL)
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", parsed.Host)

	q := parsed.Query()
	assert.Equal(t, "id_token", q.Get("response_type"))
	assert.Equal(t, "client-id.apps.googleusercontent.com", q.Get("client_id"))
	assert.Equal(t, "http://"+flow.Addr()+"/callback", q.Get("redirect_uri"))
	assert.Equal(t, "openid email profile", q.Get("scope"))
	assert.NotEmpty(t, q.Get("state"))
	assert.NotEmpty(t, q.Get("nonce"))
}

func TestCompleteResolvesWait(t *testing.T) {
	flow := startedFlow(t, time.Minute)

	attempt, err := flow.Begin(context.Background())
	require.NoError(t, err)

	parsed, err := url.Parse(attempt.URL)
	require.NoError(t, err)

	resp := postComplete(t, flow, map[string]string{
		"state":    parsed.Query().Get("state"),
		"id_token": "header.payload.sig",
		"email":    "maria@example.com",
		"name":     "Maria Silva",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result, err := attempt.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "header.payload.sig", result.IDToken)
	assert.Equal(t, "maria@example.com", result.Email)
	assert.Equal(t, "Maria Silva", result.FullName)
}

func TestCompleteRejectsUnknownState(t *testing.T) {
	flow := startedFlow(t, time.Minute)

	_, err := flow.Begin(context.Background())
	require.NoError(t, err)

	resp := postComplete(t, flow, map[string]string{
		"state":    "not-a-registered-state",
		"id_token": "header.payload.sig",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCompleteRejectsMissingState(t *testing.T) {
	flow := startedFlow(t, time.Minute)
	resp := postComplete(t, flow, map[string]string{"id_token": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWaitTimesOut(t *testing.T) {
	flow := startedFlow(t, 50*time.Millisecond)

	attempt, err := flow.Begin(context.Background())
	require.NoError(t, err)

	_, err = attempt.Wait(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")

	flow.mu.Lock()
	pending := len(flow.pending)
	flow.mu.Unlock()
	assert.Zero(t, pending, "abandoned attempt must be released")
}

func TestWaitHonorsContextCancel(t *testing.T) {
	flow := startedFlow(t, time.Minute)

	attempt, err := flow.Begin(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = attempt.Wait(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cancelled")
}

func TestWaitRejectsEmptyIDToken(t *testing.T) {
	flow := startedFlow(t, time.Minute)

	attempt, err := flow.Begin(context.Background())
	require.NoError(t, err)

	parsed, _ := url.Parse(attempt.URL)
	postComplete(t, flow, map[string]string{"state": parsed.Query().Get("state")})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = attempt.Wait(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id_token")
}

func TestCloseRejectsPendingAttempts(t *testing.T) {
	flow := startedFlow(t, time.Minute)

	attempt, err := flow.Begin(context.Background())
	require.NoError(t, err)

	require.NoError(t, flow.Close())

	_, err = attempt.Wait(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cancelled")
}

func TestCallbackServesShimPage(t *testing.T) {
	flow := startedFlow(t, time.Minute)

	resp, err := http.Get("http://" + flow.Addr() + "/callback")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}
