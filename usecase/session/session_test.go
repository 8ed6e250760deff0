package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarhub/client/api/backend"
	"github.com/scholarhub/client/domain"
	"github.com/scholarhub/client/internal/credstore"
)

const signingSecret = "test-signing-secret"

// fakeBackend is a minimal auth server issuing and checking HS256 tokens,
// counting calls per endpoint so tests can assert how many network round
// trips a flow made.
type fakeBackend struct {
	mu     sync.Mutex
	calls  map[string]int
	server *httptest.Server
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{calls: map[string]int{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/token/verify/", fb.handleVerify)
	mux.HandleFunc("/api/auth/token/refresh/", fb.handleRefresh)
	mux.HandleFunc("/api/auth/me/", fb.handleMe)
	mux.HandleFunc("/api/auth/login/", fb.handleLogin)
	fb.server = httptest.NewServer(mux)
	t.Cleanup(fb.server.Close)
	return fb
}

func (fb *fakeBackend) count(endpoint string) int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.calls[endpoint]
}

func (fb *fakeBackend) record(endpoint string) {
	fb.mu.Lock()
	fb.calls[endpoint]++
	fb.mu.Unlock()
}

func (fb *fakeBackend) handleVerify(w http.ResponseWriter, r *http.Request) {
	fb.record("verify")
	var req struct {
		Token string `json:"token"`
	}
	json.NewDecoder(r.Body).Decode(&req)
	if !tokenValid(req.Token) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{})
}

func (fb *fakeBackend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	fb.record("refresh")
	var req struct {
		Refresh string `json:"refresh"`
	}
	json.NewDecoder(r.Body).Decode(&req)
	if !tokenValid(req.Refresh) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access": mintToken(time.Hour)})
}

func (fb *fakeBackend) handleMe(w http.ResponseWriter, r *http.Request) {
	fb.record("me")
	bearer := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if bearer == "" || !tokenValid(bearer) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":        "u-1",
		"email":     "maria@example.com",
		"full_name": "Maria Silva",
	})
}

func (fb *fakeBackend) handleLogin(w http.ResponseWriter, r *http.Request) {
	fb.record("login")
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	json.NewDecoder(r.Body).Decode(&req)
	if req.Email != "maria@example.com" || req.Password != "correct-horse1" {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"non_field_errors": []string{"Invalid credentials"},
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access":  mintToken(time.Hour),
		"refresh": mintToken(24 * time.Hour),
		"user": map[string]any{
			"id":        "u-1",
			"email":     req.Email,
			"full_name": "Maria Silva",
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func mintToken(ttl time.Duration) string {
	claims := jwt.RegisteredClaims{
		Subject:   "u-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingSecret))
	if err != nil {
		panic(err)
	}
	return token
}

func tokenValid(raw string) bool {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return []byte(signingSecret), nil
	})
	return err == nil && token.Valid
}

func newManager(t *testing.T, fb *fakeBackend) (*Manager, credstore.Store) {
	t.Helper()
	store := credstore.NewMemory()
	api := backend.New(backend.Config{BaseURL: fb.server.URL + "/api", Timeout: 5 * time.Second}, store, nil)
	return NewManager(store, api, nil), store
}

func TestBootstrapNoTokenMakesNoNetworkCalls(t *testing.T) {
	fb := newFakeBackend(t)
	mgr, _ := newManager(t, fb)

	session := mgr.Bootstrap(context.Background())

	assert.False(t, session.Authenticated)
	assert.Nil(t, session.User)
	assert.Zero(t, fb.count("verify"))
	assert.Zero(t, fb.count("refresh"))
	assert.Zero(t, fb.count("me"))
}

func TestBootstrapValidToken(t *testing.T) {
	fb := newFakeBackend(t)
	mgr, store := newManager(t, fb)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, domain.SlotAuthToken, mintToken(time.Hour)))

	session := mgr.Bootstrap(ctx)

	require.True(t, session.Authenticated)
	assert.Equal(t, "maria@example.com", session.User.Email)
	assert.Equal(t, 1, fb.count("verify"))
	assert.Zero(t, fb.count("refresh"))
	assert.Equal(t, 1, fb.count("me"))
}

func TestBootstrapExpiredTokenRefreshesOnce(t *testing.T) {
	fb := newFakeBackend(t)
	mgr, store := newManager(t, fb)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, domain.SlotAuthToken, mintToken(-time.Hour)))
	require.NoError(t, store.Set(ctx, domain.SlotRefreshToken, mintToken(24*time.Hour)))

	session := mgr.Bootstrap(ctx)

	require.True(t, session.Authenticated)
	assert.Equal(t, 1, fb.count("verify"))
	assert.Equal(t, 1, fb.count("refresh"))
	assert.Equal(t, 1, fb.count("me"))

	stored, err := store.Get(ctx, domain.SlotAuthToken)
	require.NoError(t, err)
	assert.True(t, tokenValid(stored), "refreshed access token should be persisted")
}

func TestBootstrapBothTokensInvalidClearsStore(t *testing.T) {
	fb := newFakeBackend(t)
	mgr, store := newManager(t, fb)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, domain.SlotAuthToken, mintToken(-time.Hour)))
	require.NoError(t, store.Set(ctx, domain.SlotRefreshToken, mintToken(-time.Hour)))

	session := mgr.Bootstrap(ctx)

	assert.False(t, session.Authenticated)
	assert.Equal(t, 1, fb.count("verify"))
	assert.Equal(t, 1, fb.count("refresh"))
	assert.Zero(t, fb.count("me"))

	_, err := store.Get(ctx, domain.SlotAuthToken)
	assert.ErrorIs(t, err, credstore.ErrNotFound)
	_, err = store.Get(ctx, domain.SlotRefreshToken)
	assert.ErrorIs(t, err, credstore.ErrNotFound)
}

func TestBootstrapExpiredTokenNoRefreshSlot(t *testing.T) {
	fb := newFakeBackend(t)
	mgr, store := newManager(t, fb)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, domain.SlotAuthToken, mintToken(-time.Hour)))

	session := mgr.Bootstrap(ctx)

	assert.False(t, session.Authenticated)
	assert.Equal(t, 1, fb.count("verify"))
	assert.Zero(t, fb.count("refresh"))

	_, err := store.Get(ctx, domain.SlotAuthToken)
	assert.ErrorIs(t, err, credstore.ErrNotFound)
}

func TestBootstrapUnreachableBackendClearsStore(t *testing.T) {
	store := credstore.NewMemory()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, domain.SlotAuthToken, mintToken(time.Hour)))

	api := backend.New(backend.Config{BaseURL: "http://127.0.0.1:1/api", Timeout: time.Second}, store, nil)
	mgr := NewManager(store, api, nil)

	session := mgr.Bootstrap(ctx)

	assert.False(t, session.Authenticated)
	_, err := store.Get(ctx, domain.SlotAuthToken)
	assert.ErrorIs(t, err, credstore.ErrNotFound)
	_, err = store.Get(ctx, domain.SlotRefreshToken)
	assert.ErrorIs(t, err, credstore.ErrNotFound)
}

func TestLoginStoresTokensAndUser(t *testing.T) {
	fb := newFakeBackend(t)
	mgr, store := newManager(t, fb)
	ctx := context.Background()

	session, err := mgr.Login(ctx, "maria@example.com", "correct-horse1")
	require.NoError(t, err)

	assert.True(t, session.Authenticated)
	assert.Equal(t, "Maria Silva", session.User.FullName)
	assert.Equal(t, session, mgr.Current())

	access, err := store.Get(ctx, domain.SlotAuthToken)
	require.NoError(t, err)
	assert.True(t, tokenValid(access))
	refresh, err := store.Get(ctx, domain.SlotRefreshToken)
	require.NoError(t, err)
	assert.True(t, tokenValid(refresh))
}

func TestLoginRejectedClearsStaleTokens(t *testing.T) {
	fb := newFakeBackend(t)
	mgr, store := newManager(t, fb)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, domain.SlotAuthToken, "stale"))

	session, err := mgr.Login(ctx, "maria@example.com", "wrong")
	require.Error(t, err)
	assert.False(t, session.Authenticated)

	var derr *domain.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrCodeUnauthorized, derr.Code)
	assert.Equal(t, "Invalid credentials", derr.Message)

	_, err = store.Get(ctx, domain.SlotAuthToken)
	assert.ErrorIs(t, err, credstore.ErrNotFound)
}

func TestLogoutClearsEverythingWithoutNetwork(t *testing.T) {
	fb := newFakeBackend(t)
	mgr, store := newManager(t, fb)
	ctx := context.Background()

	_, err := mgr.Login(ctx, "maria@example.com", "correct-horse1")
	require.NoError(t, err)
	loginCalls := fb.count("login")

	require.NoError(t, mgr.Logout(ctx))

	assert.False(t, mgr.Current().Authenticated)
	assert.Equal(t, loginCalls, fb.count("login"))
	assert.Zero(t, fb.count("verify"))
	_, err = store.Get(ctx, domain.SlotAuthToken)
	assert.ErrorIs(t, err, credstore.ErrNotFound)
	_, err = store.Get(ctx, domain.SlotRefreshToken)
	assert.ErrorIs(t, err, credstore.ErrNotFound)
}

func TestAdoptTokensMarksAuthenticated(t *testing.T) {
	fb := newFakeBackend(t)
	mgr, store := newManager(t, fb)
	ctx := context.Background()

	user := &domain.User{Email: "maria@example.com", FullName: "Maria Silva"}
	session, err := mgr.AdoptTokens(ctx, domain.TokenPair{Access: "a-1", Refresh: "r-1"}, user)
	require.NoError(t, err)

	assert.True(t, session.Authenticated)
	access, err := store.Get(ctx, domain.SlotAuthToken)
	require.NoError(t, err)
	assert.Equal(t, "a-1", access)
	refresh, err := store.Get(ctx, domain.SlotRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "r-1", refresh)
}
