// Package google drives browser-based Google sign-in. Each attempt gets a
// correlation id carried in the OAuth state parameter; the loopback callback
// server resolves the matching pending channel and nothing else, so
// concurrent attempts cannot cross-talk and an abandoned attempt is always
// unsubscribed on timeout or cancellation.
package google

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"time"

	"github.com/fasthttp/router"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/scholarhub/client/domain"
)

const authURL = "https://accounts.google.com/o/oauth2/v2/auth"

// Config carries the sign-in settings.
type Config struct {
	ClientID   string
	ListenAddr string
	Timeout    time.Duration
}

// Result is what the browser hands back after a successful consent screen.
// The id_token is forwarded to the backend for verification; the client does
// not validate it.
type Result struct {
	IDToken  string
	Email    string
	FullName string
}

// Flow owns the loopback callback server and the pending attempts.
type Flow struct {
	cfg    Config
	logger *zap.Logger

	mu      sync.Mutex
	pending map[string]chan Result

	server *fasthttp.Server
	ln     net.Listener
	addr   string
}

// New builds a Flow. Start must be called before Begin.
func New(cfg Config, logger *zap.Logger) (*Flow, error) {
	if cfg.ClientID == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "google sign-in is not configured")
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = "127.0.0.1:8123"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Flow{
		cfg:     cfg,
		logger:  logger,
		pending: make(map[string]chan Result),
	}, nil
}

// Start binds the loopback listener and serves the callback routes.
func (f *Flow) Start() error {
	ln, err := net.Listen("tcp", f.cfg.ListenAddr)
	if err != nil {
		return domain.WrapError(domain.ErrCodeUnavailable, "cannot bind sign-in callback address", err)
	}
	f.ln = ln
	f.addr = ln.Addr().String()

	r := router.New()
	r.GET("/callback", f.handleCallback)
	r.POST("/complete", f.handleComplete)

	f.server = &fasthttp.Server{
		Handler: r.Handler,
		Name:    "scholarhub-google-callback",
	}

	go func() {
		if err := f.server.Serve(ln); err != nil {
			f.logger.Debug("callback server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound callback address, empty before Start.
func (f *Flow) Addr() string {
	return f.addr
}

// Close stops the callback server and rejects every pending attempt.
func (f *Flow) Close() error {
	f.mu.Lock()
	for id, ch := range f.pending {
		close(ch)
		delete(f.pending, id)
	}
	f.mu.Unlock()

	if f.server == nil {
		return nil
	}
	return f.server.Shutdown()
}

// Attempt is one tracked sign-in. Wait must be called to consume the result
// and release the subscription.
type Attempt struct {
	URL string

	id   string
	ch   chan Result
	flow *Flow
}

// Begin registers a pending attempt and returns the authorize URL to open in
// a browser.
func (f *Flow) Begin(ctx context.Context) (*Attempt, error) {
	if f.ln == nil {
		return nil, domain.NewError(domain.ErrCodeInternal, "sign-in callback server not started")
	}

	id := uuid.NewString()
	ch := make(chan Result, 1)

	f.mu.Lock()
	f.pending[id] = ch
	f.mu.Unlock()

	oauthCfg := &oauth2.Config{
		ClientID:    f.cfg.ClientID,
		RedirectURL: "http://" + f.addr + "/callback",
		Scopes:      []string{"openid", "email", "profile"},
		Endpoint:    oauth2.Endpoint{AuthURL: authURL},
	}

	// The implicit id_token response is what the backend exchange expects,
	// so the default code response type is overridden.
	url := oauthCfg.AuthCodeURL(id,
		oauth2.SetAuthURLParam("response_type", "id_token"),
		oauth2.SetAuthURLParam("nonce", uuid.NewString()),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)

	return &Attempt{
		URL:  url,
		id:   id,
		ch:   ch,
		flow: f,
	}, nil
}

// Wait blocks until the browser completes the attempt, the context is
// cancelled, or the flow timeout passes. The subscription is released on
// every path.
func (a *Attempt) Wait(ctx context.Context) (Result, error) {
	defer a.flow.release(a.id)

	timer := time.NewTimer(a.flow.cfg.Timeout)
	defer timer.Stop()

	select {
	case result, ok := <-a.ch:
		if !ok {
			return Result{}, domain.NewError(domain.ErrCodeUnavailable, "sign-in was cancelled")
		}
		if result.IDToken == "" {
			return Result{}, domain.NewError(domain.ErrCodeInvalid, "Google did not return an id_token")
		}
		return result, nil
	case <-ctx.Done():
		return Result{}, domain.WrapError(domain.ErrCodeUnavailable, "sign-in was cancelled", ctx.Err())
	case <-timer.C:
		return Result{}, domain.NewError(domain.ErrCodeUnavailable, "sign-in timed out")
	}
}

func (f *Flow) release(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pending, id)
}

// handleCallback serves the shim page. Google returns the id_token in the
// URL fragment, which never reaches the server, so a script re-posts it.
func (f *Flow) handleCallback(ctx *fasthttp.RequestCtx) {
	ctx.SetContentType("text/html; charset=utf-8")
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBodyString(callbackPage)
}

type completeRequest struct {
	State   string `json:"state"`
	IDToken string `json:"id_token"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

// handleComplete resolves the pending attempt matching the state value.
// Unknown state is rejected so stale or foreign callbacks cannot complete a
// sign-in.
func (f *Flow) handleComplete(ctx *fasthttp.RequestCtx) {
	var req completeRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.State == "" {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		return
	}

	f.mu.Lock()
	ch, ok := f.pending[req.State]
	if ok {
		delete(f.pending, req.State)
	}
	f.mu.Unlock()

	if !ok {
		f.logger.Warn("sign-in callback with unknown state")
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		return
	}

	ch <- Result{
		IDToken:  req.IDToken,
		Email:    req.Email,
		FullName: req.Name,
	}
	ctx.SetStatusCode(fasthttp.StatusOK)
}

const callbackPage = `<!DOCTYPE html>
<html>
<body>
<p>Completing sign-in&hellip;</p>
<script>
(function () {
  var params = new URLSearchParams(window.location.hash.replace(/^#/, ""));
  var idToken = params.get("id_token") || "";
  var state = params.get("state") || "";
  var email = "";
  var name = "";
  try {
    var payload = JSON.parse(atob(idToken.split(".")[1].replace(/-/g, "+").replace(/_/g, "/")));
    email = payload.email || "";
    name = payload.name || "";
  } catch (e) {}
  fetch("/complete", {
    method: "POST",
    headers: {"Content-Type": "application/json"},
    body: JSON.stringify({state: state, id_token: idToken, email: email, name: name})
  }).then(function () {
    document.body.textContent = "Sign-in complete. You may close this window.";
  }, function () {
    document.body.textContent = "Sign-in failed. Please return to the terminal.";
  });
})();
</script>
</body>
</html>`
