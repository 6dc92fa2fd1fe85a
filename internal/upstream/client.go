// Package upstream is the portal's thin REST client for its external
// collaborators: the authentication endpoint and the generic list-fetch
// contract page handlers consume.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"peopledesk.org/internal/rbac"
	"peopledesk.org/internal/session"
)

const loginPath = "/auth/login"

// Client talks JSON over HTTP to the backend.
type Client struct {
	base   string
	apiKey string
	http   *http.Client
	now    func() time.Time
}

// ClientOption configures Client behavior.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithAPIKey sets the x-api-key header sent on every request.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) { c.apiKey = strings.TrimSpace(key) }
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ClientOption {
	return func(c *Client) {
		if fn != nil {
			c.now = fn
		}
	}
}

// NewClient constructs a Client for the given base URL.
func NewClient(base string, opts ...ClientOption) (*Client, error) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return nil, errors.New("upstream: base URL is required")
	}
	c := &Client{
		base: base,
		http: &http.Client{Timeout: 10 * time.Second},
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool `json:"success"`
	User    struct {
		Email string `json:"email"`
		Name  string `json:"name"`
		Role  string `json:"role"`
	} `json:"user"`
	Token string `json:"token"`
	Error string `json:"error"`
}

var _ session.Authenticator = (*Client)(nil)

// Exchange implements session.Authenticator over POST /auth/login. Every
// failure mode is folded into the typed outcome: credential rejections keep
// the endpoint's message, transport faults and protocol violations become
// the generic network error. Nothing escapes as a Go error.
func (c *Client) Exchange(ctx context.Context, email, password string) session.AuthOutcome {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return networkFailure()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+loginPath, bytes.NewReader(body))
	if err != nil {
		return networkFailure()
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return networkFailure()
	}
	defer resp.Body.Close()

	var parsed loginResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&parsed); err != nil {
		// Non-2xx without a parseable body is a transport fault, not a
		// credential rejection.
		return networkFailure()
	}

	if !parsed.Success {
		msg := strings.TrimSpace(parsed.Error)
		if msg == "" {
			msg = session.ErrMsgInvalidCredentials
		}
		return session.AuthOutcome{Success: false, Error: msg}
	}

	role, err := rbac.Parse(parsed.User.Role)
	if err != nil {
		return networkFailure()
	}
	sess := &session.Session{
		Email:    strings.TrimSpace(strings.ToLower(parsed.User.Email)),
		Name:     strings.TrimSpace(parsed.User.Name),
		Role:     role,
		Token:    strings.TrimSpace(parsed.Token),
		IssuedAt: c.now().UTC(),
	}
	if !sess.Valid() {
		return networkFailure()
	}
	return session.AuthOutcome{Success: true, Session: sess}
}

// FetchList performs the generic list-fetch contract: GET path, decode the
// JSON body into dst. Errors here are ordinary Go errors; page handlers
// decide how to present them.
func (c *Client) FetchList(ctx context.Context, path string, dst any) error {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("upstream: build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("upstream: fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("upstream: fetch %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(dst); err != nil {
		return fmt.Errorf("upstream: decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
}

func networkFailure() session.AuthOutcome {
	return session.AuthOutcome{Success: false, Error: session.ErrMsgNetwork}
}
