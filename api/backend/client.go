// Package backend is the outbound REST client for the ScholarHub API. It
// attaches the stored access token as a bearer credential, propagates request
// ids, and reduces error responses to single user-facing messages. It never
// refreshes tokens on 401; that recovery step belongs to the session
// bootstrap alone.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/scholarhub/client/api/transport"
	"github.com/scholarhub/client/domain"
	"github.com/scholarhub/client/internal/credstore"
	"github.com/scholarhub/client/pkg/logger"
)

const fallbackMessage = "request failed"

// Config carries the client settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Name    string
}

// Client performs HTTP calls against the backend REST API.
type Client struct {
	http    *fasthttp.Client
	baseURL string
	timeout time.Duration
	store   credstore.Store
	logger  *zap.Logger
}

// New builds a Client. The credential store supplies the bearer token for
// authenticated calls.
func New(cfg Config, store credstore.Store, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	name := cfg.Name
	if name == "" {
		name = "scholarhub-client"
	}
	return &Client{
		http: &fasthttp.Client{
			Name:         name,
			ReadTimeout:  cfg.Timeout,
			WriteTimeout: cfg.Timeout,
		},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
		store:   store,
		logger:  log,
	}
}

// Get performs a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, authenticated bool, out any) error {
	body, err := c.Do(ctx, fasthttp.MethodGet, path, nil, authenticated)
	if err != nil {
		return err
	}
	return decode(body, out)
}

// Post marshals payload as JSON, performs a POST and decodes the response.
func (c *Client) Post(ctx context.Context, path string, payload any, authenticated bool, out any) error {
	return c.send(ctx, fasthttp.MethodPost, path, payload, authenticated, out)
}

// Put marshals payload as JSON, performs a PUT and decodes the response.
func (c *Client) Put(ctx context.Context, path string, payload any, authenticated bool, out any) error {
	return c.send(ctx, fasthttp.MethodPut, path, payload, authenticated, out)
}

// Delete performs a DELETE request. The response body is discarded.
func (c *Client) Delete(ctx context.Context, path string, authenticated bool) error {
	_, err := c.Do(ctx, fasthttp.MethodDelete, path, nil, authenticated)
	return err
}

func (c *Client) send(ctx context.Context, method, path string, payload any, authenticated bool, out any) error {
	var body []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return domain.WrapError(domain.ErrCodeInternal, "encode request", err)
		}
		body = encoded
	}
	respBody, err := c.Do(ctx, method, path, body, authenticated)
	if err != nil {
		return err
	}
	return decode(respBody, out)
}

// Do performs a request with a JSON content type and returns the raw
// response body. Non-2xx statuses come back as *domain.Error with the parsed
// backend message.
func (c *Client) Do(ctx context.Context, method, path string, body []byte, authenticated bool) ([]byte, error) {
	return c.do(ctx, method, path, body, "application/json", authenticated)
}

// UploadFile sends a multipart request carrying one file field, used for the
// profile picture update.
func (c *Client) UploadFile(ctx context.Context, method, path, field, filename string, file io.Reader, out any) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		return domain.WrapError(domain.ErrCodeInternal, "encode upload", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return domain.WrapError(domain.ErrCodeInternal, "read upload", err)
	}
	if err := writer.Close(); err != nil {
		return domain.WrapError(domain.ErrCodeInternal, "encode upload", err)
	}

	respBody, err := c.do(ctx, method, path, buf.Bytes(), writer.FormDataContentType(), true)
	if err != nil {
		return err
	}
	return decode(respBody, out)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, contentType string, authenticated bool) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrCodeUnavailable, fallbackMessage, err)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.url(path))
	req.Header.SetMethod(method)
	req.Header.SetContentType(contentType)
	req.Header.Set("X-Request-ID", requestID(ctx))
	if len(body) > 0 {
		req.SetBody(body)
	}

	if authenticated {
		if token := c.accessToken(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}

	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		logger.WithRequestID(ctx, c.logger).Warn("backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return nil, domain.WrapError(domain.ErrCodeUnavailable, fallbackMessage, err)
	}

	status := resp.StatusCode()
	respBody := append([]byte(nil), resp.Body()...)

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		msg := transport.ErrorMessage(respBody, fmt.Sprintf("%s (status %d)", fallbackMessage, status))
		return nil, domain.NewError(codeForStatus(status), msg)
	}
	return respBody, nil
}

// accessToken reads the stored access token. Absence is not an error here;
// the caller owns the unauthenticated case.
func (c *Client) accessToken(ctx context.Context) string {
	if c.store == nil {
		return ""
	}
	token, err := c.store.Get(ctx, domain.SlotAuthToken)
	if err != nil {
		if !errors.Is(err, credstore.ErrNotFound) {
			c.logger.Warn("credential store read failed", zap.Error(err))
		}
		return ""
	}
	return token
}

func (c *Client) url(path string) string {
	return c.baseURL + "/" + strings.TrimPrefix(path, "/")
}

func requestID(ctx context.Context) string {
	if id := logger.RequestIDFromContext(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}

func decode(body []byte, out any) error {
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return domain.WrapError(domain.ErrCodeInternal, "decode response", err)
	}
	return nil
}

func codeForStatus(status int) domain.ErrorCode {
	switch status {
	case http.StatusUnauthorized:
		return domain.ErrCodeUnauthorized
	case http.StatusForbidden:
		return domain.ErrCodeForbidden
	case http.StatusNotFound:
		return domain.ErrCodeNotFound
	case http.StatusConflict:
		return domain.ErrCodeConflict
	default:
		if status >= http.StatusInternalServerError {
			return domain.ErrCodeInternal
		}
		return domain.ErrCodeInvalid
	}
}
