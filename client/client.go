// Package client is the Go SDK for the back-office API: the order
// query/filter service, the status transition gateway and the auth flow
// used by the admin screens in client/screens.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to one deployment of the back-office API. The base URL is
// injected, never hardcoded, so the same client runs against local and
// hosted backends.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, e.g. to set timeouts.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSession injects an existing session, e.g. tokens restored from disk.
func WithSession(s *Session) Option {
	return func(c *Client) { c.session = s }
}

// New creates a Client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		session:    NewSession(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session exposes the client's session for persistence and inspection.
func (c *Client) Session() *Session {
	return c.session
}

// --- Auth ---

// LoginResult reports either a completed login or a pending 2FA handshake.
type LoginResult struct {
	RequireTwoFactor bool
	User             User
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	TotpCode string `json:"totpCode,omitempty"`
}

type tokenResponse struct {
	AccessToken      string `json:"accessToken"`
	RefreshToken     string `json:"refreshToken"`
	User             User   `json:"user"`
	RequireTwoFactor bool   `json:"requireTwoFactor"`
}

// Login authenticates and stores the token pair in the session. When the
// account has 2FA enabled and no code was supplied, the result carries
// RequireTwoFactor and the session is left untouched.
func (c *Client) Login(ctx context.Context, username, password, totpCode string) (*LoginResult, error) {
	if username == "" || password == "" {
		return nil, &ValidationError{Message: "username and password are required"}
	}

	var resp tokenResponse
	if err := c.doUnauthenticated(ctx, http.MethodPost, "/api/auth/login",
		loginRequest{Username: username, Password: password, TotpCode: totpCode}, &resp); err != nil {
		return nil, err
	}

	if resp.RequireTwoFactor {
		return &LoginResult{RequireTwoFactor: true}, nil
	}

	c.session.Set(resp.AccessToken, resp.RefreshToken, resp.User)
	return &LoginResult{User: resp.User}, nil
}

// refresh exchanges the stored refresh token for a new pair.
func (c *Client) refresh(ctx context.Context) error {
	token := c.session.RefreshToken()
	if token == "" {
		return &AuthError{Message: "no refresh token"}
	}

	var resp tokenResponse
	err := c.doUnauthenticated(ctx, http.MethodPost, "/api/auth/refresh",
		map[string]string{"refreshToken": token}, &resp)
	if err != nil {
		return err
	}

	c.session.Set(resp.AccessToken, resp.RefreshToken, resp.User)
	return nil
}

// --- Request engine ---

// do issues one authenticated request. On 401 it attempts a single token
// refresh and replays the request; a second 401 clears the session and
// surfaces as AuthError. All other failures map onto the typed error
// taxonomy and are never retried.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	payload, err := encodeBody(body)
	if err != nil {
		return err
	}

	resp, err := c.send(ctx, method, path, query, payload, c.session.AccessToken())
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		if err := c.refresh(ctx); err != nil {
			c.session.Clear()
			return &AuthError{Message: "session expired"}
		}
		resp, err = c.send(ctx, method, path, query, payload, c.session.AccessToken())
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			drain(resp)
			c.session.Clear()
			return &AuthError{Message: "session expired"}
		}
	}

	return decodeResponse(resp, out)
}

// doUnauthenticated issues one request without a bearer token and without
// the refresh-replay logic. Used by the auth endpoints themselves.
func (c *Client) doUnauthenticated(ctx context.Context, method, path string, body, out interface{}) error {
	payload, err := encodeBody(body)
	if err != nil {
		return err
	}
	resp, err := c.send(ctx, method, path, nil, payload, "")
	if err != nil {
		return err
	}
	return decodeResponse(resp, out)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte, token string) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	return resp, nil
}

func encodeBody(body interface{}) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &ValidationError{Message: "unencodable request body"}
	}
	return payload, nil
}

func decodeResponse(resp *http.Response, out interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&errBody)
		if errBody.Error == "" {
			errBody.Error = http.StatusText(resp.StatusCode)
		}
		return &ServerError{StatusCode: resp.StatusCode, Message: errBody.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ServerError{StatusCode: resp.StatusCode, Message: "malformed response body"}
	}
	return nil
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
