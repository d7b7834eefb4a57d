// Package client implements the SPA-side auth flow as a Go library: a cached
// current-user snapshot, bearer credential handling, and the route guard.
// The cache has two states, Anonymous and Authenticated, and the methods here
// are its only transition surface.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/jomko/go-session-api/users"
	"github.com/pkg/errors"
)

// StatusSessionExpired is the session-expiry signal some backends return in
// place of 401. It is treated exactly like an authorization failure.
const StatusSessionExpired = 419

// ErrUnauthenticated is returned when the server rejects the client's
// credential. The local state has already been cleared when it surfaces.
var ErrUnauthenticated = errors.New("unauthenticated")

// Client talks to the auth API and caches the authenticated account
// snapshot. The zero state is Anonymous: no token, no cached user.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
	user  *users.PublicUser
}

// Option defines a function type to modify the Client instance.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func New(baseURL string, options ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Authenticated reports whether a current-user snapshot is cached.
func (c *Client) Authenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user != nil
}

// User returns the cached account snapshot, nil when Anonymous.
func (c *Client) User() *users.PublicUser {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return nil
	}
	snapshot := *c.user
	return &snapshot
}

// Login exchanges credentials for a bearer token and transitions to
// Authenticated on success.
func (c *Client) Login(ctx context.Context, email, password string) (*users.PublicUser, error) {
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Login] marshal")
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/login", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp)
	}

	var body struct {
		Token string           `json:"token"`
		User  users.PublicUser `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.Wrap(err, "[Client.Login] decode")
	}

	c.mu.Lock()
	c.token = body.Token
	c.user = &body.User
	c.mu.Unlock()
	return &body.User, nil
}

// FetchUser runs the identity check and refreshes the cached snapshot. An
// authorization failure clears the cache and returns ErrUnauthenticated;
// other failures leave the state untouched.
func (c *Client) FetchUser(ctx context.Context) (*users.PublicUser, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/user", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if isAuthFailure(resp.StatusCode) {
		c.clear()
		return nil, ErrUnauthenticated
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp)
	}

	var body struct {
		User users.PublicUser `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.Wrap(err, "[Client.FetchUser] decode")
	}

	c.mu.Lock()
	c.user = &body.User
	c.mu.Unlock()
	return &body.User, nil
}

// Logout sends the logout request and clears the local state. The network
// call is best-effort: a 401/419 from the server means the session was
// already invalid, so the local state is cleared and no error is returned.
// Any other failure class propagates and leaves the state untouched.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/logout", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		c.clear()
		return nil
	case isAuthFailure(resp.StatusCode):
		// Session already invalid server-side
		c.clear()
		return nil
	default:
		return c.statusError(resp)
	}
}

// AuthorizedRequest issues an arbitrary API request with the bearer
// credential attached when one is held. The caller owns the response body.
func (c *Client) AuthorizedRequest(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	return c.do(ctx, method, path, body)
}

// do issues a request with the bearer credential attached when present.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.Wrapf(err, "[Client.do] %s %s", method, path)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "[Client.do] %s %s", method, path)
	}
	return resp, nil
}

// clear drops the token and cached user: the Authenticated -> Anonymous
// transition.
func (c *Client) clear() {
	c.mu.Lock()
	c.token = ""
	c.user = nil
	c.mu.Unlock()
}

func (c *Client) statusError(resp *http.Response) error {
	var body struct {
		Message string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body.Message == "" {
		body.Message = http.StatusText(resp.StatusCode)
	}
	return fmt.Errorf("%s: %s", resp.Status, body.Message)
}

func isAuthFailure(status int) bool {
	return status == http.StatusUnauthorized || status == StatusSessionExpired
}
