// Package api implements the authenticated HTTP client for the GIA backend.
// It attaches the current bearer token to outgoing requests and transparently
// recovers from access-token expiry with a single, strictly sequenced
// refresh-then-retry cycle.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"giafashion/internal/models"
	"giafashion/internal/observability"
)

// refreshPath is the one endpoint that must never itself trigger a refresh.
const refreshPath = "/auth/refresh"

// Credentials supplies tokens to the client and receives token lifecycle
// events. The session store is the only implementation outside tests.
type Credentials interface {
	AccessToken() string
	RefreshToken() string
	// StoreAccessToken atomically persists a newly minted access token.
	StoreAccessToken(token string) error
	// SessionExpired tears the session down after an unrecoverable refresh
	// failure.
	SessionExpired()
}

// Client executes requests against the backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      Credentials
	apiLog     *observability.APILogger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the structured logger for request logging.
func WithLogger(logger *observability.Logger) Option {
	return func(c *Client) { c.apiLog = observability.NewAPILogger("gia-client", logger) }
}

// New creates a Client for the given base URL (e.g. http://host/api/v1).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		apiLog:     observability.NewAPILogger("gia-client", observability.NopLogger()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetCredentials wires the token source. Done after construction because the
// session store itself needs the client for login/refresh calls.
func (c *Client) SetCredentials(creds Credentials) {
	c.creds = creds
}

// envelope is the backend's uniform response shape.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// call is the per-request state threaded through do. The retried flag is an
// explicit field rather than hidden mutation of a shared request object, so
// the refresh-exactly-once guarantee is carried in values.
type call struct {
	method  string
	path    string
	body    []byte
	retried bool
}

// Do executes method path against the backend. body (nil for none) is JSON
// encoded; on success the envelope's data field is decoded into out (nil to
// discard). Failures are classified into the models error taxonomy.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return models.NewValidationError(0, fmt.Sprintf("encode request body: %v", err))
		}
	}
	return c.do(ctx, call{method: method, path: path, body: payload}, out)
}

func (c *Client) do(ctx context.Context, cl call, out any) error {
	spanCtx, span := observability.TraceAPICall(ctx, cl.method, cl.path)
	start := time.Now()

	var reqBody io.Reader
	if cl.body != nil {
		reqBody = bytes.NewReader(cl.body)
	}
	req, err := http.NewRequestWithContext(spanCtx, cl.method, c.baseURL+cl.path, reqBody)
	if err != nil {
		observability.EndAPICall(span, 0, err)
		return models.NewValidationError(0, fmt.Sprintf("build request: %v", err))
	}
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	tokenAttached := false
	if c.creds != nil {
		if tok := c.creds.AccessToken(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
			tokenAttached = true
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		connErr := models.NewConnectionError(err)
		c.apiLog.LogError(ctx, cl.method, cl.path, connErr)
		observability.EndAPICall(span, 0, connErr)
		return connErr
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		connErr := models.NewConnectionError(readErr)
		c.apiLog.LogError(ctx, cl.method, cl.path, connErr)
		observability.EndAPICall(span, resp.StatusCode, connErr)
		return connErr
	}

	c.apiLog.LogRequest(ctx, cl.method, cl.path, resp.StatusCode, time.Since(start), cl.retried)
	observability.EndAPICall(span, resp.StatusCode, nil)

	// Silent refresh: only for requests that actually carried a token, never
	// for the refresh endpoint, and at most once per logical request. The
	// refresh completes (success or failure) before the retry is issued.
	if resp.StatusCode == http.StatusUnauthorized &&
		tokenAttached && !cl.retried && cl.path != refreshPath {
		if c.refreshOnce(ctx) {
			cl.retried = true
			return c.do(ctx, cl, out)
		}
		// session torn down; surface the original 401
		return decodeError(resp.StatusCode, respBody)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, respBody)
	}

	if out == nil {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return models.NewServerError(resp.StatusCode, "unexpected response shape")
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return models.NewServerError(resp.StatusCode, "unexpected response shape")
	}
	return nil
}

// refreshOnce attempts the one-time silent refresh. Returns true when a new
// access token was obtained and persisted; on any failure the session is torn
// down and false is returned.
func (c *Client) refreshOnce(ctx context.Context) bool {
	rt := c.creds.RefreshToken()
	if rt == "" {
		c.creds.SessionExpired()
		return false
	}
	token, err := c.Refresh(ctx, rt)
	if err != nil {
		c.creds.SessionExpired()
		return false
	}
	if err := c.creds.StoreAccessToken(token); err != nil {
		c.creds.SessionExpired()
		return false
	}
	return true
}

// Refresh exchanges a refresh token for a new access token. The call carries
// no bearer credential and is never retried.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, error) {
	payload, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return "", models.NewValidationError(0, fmt.Sprintf("encode request body: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+refreshPath, bytes.NewReader(payload))
	if err != nil {
		return "", models.NewValidationError(0, fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", models.NewConnectionError(err)
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return "", models.NewConnectionError(readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", decodeError(resp.StatusCode, respBody)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return "", models.NewServerError(resp.StatusCode, "unexpected response shape")
	}
	var res struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(env.Data, &res); err != nil || res.AccessToken == "" {
		return "", models.NewServerError(resp.StatusCode, "unexpected response shape")
	}
	return res.AccessToken, nil
}

// decodeError maps a non-2xx response onto the client error taxonomy, keeping
// the server-provided message when the envelope carries one.
func decodeError(status int, body []byte) error {
	message := ""
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil {
		message = env.Error
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		if message == "" {
			message = "authentication required"
		}
		return models.NewAuthError(status, message)
	case status == http.StatusNotFound:
		if message == "" {
			message = "not found"
		}
		return models.NewNotFoundError(message)
	case status >= 400 && status < 500:
		if message == "" {
			message = fmt.Sprintf("request rejected (%d)", status)
		}
		return models.NewValidationError(status, message)
	default:
		if message == "" {
			message = fmt.Sprintf("server error (%d)", status)
		}
		return models.NewServerError(status, message)
	}
}
