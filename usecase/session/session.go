// Package session owns the client-side session state and its lifecycle: the
// startup bootstrap, login, logout, and Google sign-in completion. It is the
// single writer of session state; everything else reads a copy.
package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/scholarhub/client/api/backend"
	"github.com/scholarhub/client/api/transport"
	"github.com/scholarhub/client/domain"
	"github.com/scholarhub/client/internal/credstore"
)

// Manager coordinates the credential store and the backend auth endpoints.
type Manager struct {
	store  credstore.Store
	api    *backend.Client
	logger *zap.Logger

	mu      sync.RWMutex
	session domain.Session
}

// NewManager builds a Manager. The session starts empty until Bootstrap or a
// login flow populates it.
func NewManager(store credstore.Store, api *backend.Client, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:  store,
		api:    api,
		logger: logger,
	}
}

// Current returns a copy of the session state.
func (m *Manager) Current() domain.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// Bootstrap decides the initial session state. It runs the fixed sequence:
// verify the stored access token, on rejection attempt exactly one refresh,
// then fetch the current user. Any transport failure is treated the same as
// a server rejection, so the result is never left pending. Without a stored
// token no network call is made.
func (m *Manager) Bootstrap(ctx context.Context) domain.Session {
	token, err := m.store.Get(ctx, domain.SlotAuthToken)
	if err != nil {
		if !errors.Is(err, credstore.ErrNotFound) {
			m.logger.Warn("credential store read failed", zap.Error(err))
		}
		return m.setUnauthenticated()
	}

	verifyErr := m.api.Post(ctx, backend.EndpointTokenVerify, transport.TokenVerifyRequest{Token: token}, false, nil)
	if verifyErr == nil {
		return m.fetchUser(ctx)
	}
	m.logger.Debug("access token rejected", zap.Error(verifyErr))

	refresh, err := m.store.Get(ctx, domain.SlotRefreshToken)
	if err != nil || refresh == "" {
		return m.clearSession(ctx)
	}

	var refreshed transport.AuthResponse
	if err := m.api.Post(ctx, backend.EndpointTokenRefresh, transport.TokenRefreshRequest{Refresh: refresh}, false, &refreshed); err != nil || refreshed.AccessToken() == "" {
		m.logger.Debug("token refresh failed", zap.Error(err))
		return m.clearSession(ctx)
	}

	if err := m.store.Set(ctx, domain.SlotAuthToken, refreshed.AccessToken()); err != nil {
		m.logger.Warn("failed to persist refreshed token", zap.Error(err))
		return m.clearSession(ctx)
	}
	return m.fetchUser(ctx)
}

// fetchUser loads the current user with the stored access token. A verified
// but unfetchable user is not trusted: the tokens are cleared.
func (m *Manager) fetchUser(ctx context.Context) domain.Session {
	var user domain.User
	if err := m.api.Get(ctx, backend.EndpointMe, true, &user); err != nil {
		m.logger.Debug("current user fetch failed", zap.Error(err))
		return m.clearSession(ctx)
	}
	return m.setAuthenticated(&user)
}

// Login exchanges credentials for a token pair. Existing tokens are cleared
// first so a failed attempt never leaves stale credentials behind.
func (m *Manager) Login(ctx context.Context, email, password string) (domain.Session, error) {
	m.clearTokens(ctx)

	var resp transport.AuthResponse
	err := m.api.Post(ctx, backend.EndpointLogin, transport.LoginRequest{Email: email, Password: password}, false, &resp)
	if err != nil {
		return m.setUnauthenticated(), err
	}
	return m.adopt(ctx, resp, email)
}

// LoginWithGoogle exchanges a verified Google id_token for backend
// credentials and adopts them.
func (m *Manager) LoginWithGoogle(ctx context.Context, idToken, email, fullName string) (domain.Session, error) {
	var resp transport.AuthResponse
	err := m.api.Post(ctx, backend.EndpointGoogleToken, transport.GoogleTokenRequest{
		IDToken:  idToken,
		Email:    email,
		FullName: fullName,
	}, false, &resp)
	if err != nil {
		return m.Current(), err
	}
	return m.adopt(ctx, resp, email)
}

// AdoptTokens persists a token pair issued outside Login (registration may
// return one) and marks the session authenticated for the given user.
func (m *Manager) AdoptTokens(ctx context.Context, pair domain.TokenPair, user *domain.User) (domain.Session, error) {
	return m.adopt(ctx, transport.AuthResponse{Access: pair.Access, Refresh: pair.Refresh, User: user}, "")
}

func (m *Manager) adopt(ctx context.Context, resp transport.AuthResponse, fallbackEmail string) (domain.Session, error) {
	access := resp.AccessToken()
	if access != "" {
		if err := m.store.Set(ctx, domain.SlotAuthToken, access); err != nil {
			return m.setUnauthenticated(), domain.WrapError(domain.ErrCodeInternal, "persist access token", err)
		}
	}
	if resp.Refresh != "" {
		if err := m.store.Set(ctx, domain.SlotRefreshToken, resp.Refresh); err != nil {
			return m.setUnauthenticated(), domain.WrapError(domain.ErrCodeInternal, "persist refresh token", err)
		}
	}

	user := resp.User
	if user == nil {
		user = &domain.User{Email: fallbackEmail}
	} else if user.Email == "" {
		user.Email = fallbackEmail
	}
	return m.setAuthenticated(user), nil
}

// Logout clears both token slots and resets the session. No network call is
// involved; the server-side tokens simply age out.
func (m *Manager) Logout(ctx context.Context) error {
	m.clearTokens(ctx)
	m.setUnauthenticated()
	return nil
}

func (m *Manager) clearSession(ctx context.Context) domain.Session {
	m.clearTokens(ctx)
	return m.setUnauthenticated()
}

func (m *Manager) clearTokens(ctx context.Context) {
	if err := m.store.Delete(ctx, domain.SlotAuthToken); err != nil {
		m.logger.Warn("failed to clear access token", zap.Error(err))
	}
	if err := m.store.Delete(ctx, domain.SlotRefreshToken); err != nil {
		m.logger.Warn("failed to clear refresh token", zap.Error(err))
	}
}

func (m *Manager) setAuthenticated(user *domain.User) domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = domain.Session{User: user, Authenticated: true}
	return m.session
}

func (m *Manager) setUnauthenticated() domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = domain.Session{}
	return m.session
}
