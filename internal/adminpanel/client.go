package adminpanel

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

	"go.uber.org/zap"
)

// APIError is a typed failure from the backend carrying the HTTP status and
// the server-supplied message when one was present.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error %d", e.Status)
}

// IsMissingEndpoint reports whether err means "this server build does not
// expose this path" rather than a real application failure.
func IsMissingEndpoint(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusNotFound || apiErr.Status == http.StatusMethodNotAllowed
}

// ClientConfig configures the panel's HTTP adapter.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	// OnAuthFailure runs after the session has been cleared because the
	// server rejected the credentials. The login-redirect analogue.
	OnAuthFailure func()
	// Transport overrides the default HTTP transport when set.
	Transport http.RoundTripper
	Logger    *zap.Logger
}

// Client issues authenticated REST calls against the admin API.
type Client struct {
	baseURL       string
	http          *http.Client
	store         *Store
	onAuthFailure func()
	logger        *zap.Logger
}

// NewClient builds a Client bound to the given session store.
func NewClient(store *Store, cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		http:          &http.Client{Timeout: timeout, Transport: cfg.Transport},
		store:         store,
		onAuthFailure: cfg.OnAuthFailure,
		logger:        logger,
	}
}

// Get issues a GET and decodes the response data into out when non-nil.
func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

// Login authenticates against the API and persists the issued token and
// profile in the session store.
func (c *Client) Login(ctx context.Context, email, password string) (Profile, error) {
	var out struct {
		AccessToken string  `json:"access_token"`
		User        Profile `json:"user"`
	}
	err := c.Post(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return Profile{}, err
	}
	if err := c.store.SetToken(out.AccessToken); err != nil {
		return Profile{}, err
	}
	if err := c.store.SetProfile(out.User); err != nil {
		return Profile{}, err
	}
	return out.User, nil
}

// Logout clears the persisted session.
func (c *Client) Logout() error {
	return c.store.Clear()
}

// envelope is the wire shape every endpoint responds with.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.store.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Status: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Status: resp.StatusCode, Message: err.Error()}
	}

	var env envelope
	_ = json.Unmarshal(raw, &env)

	message := env.Message
	if message == "" && env.Error != nil {
		message = env.Error.Message
	}

	if c.isAuthFailure(resp.StatusCode, message) {
		c.logger.Warn("session rejected by server",
			zap.Int("status", resp.StatusCode),
			zap.String("path", path))
		_ = c.store.Clear()
		if c.onAuthFailure != nil {
			c.onAuthFailure()
		}
		return &APIError{Status: resp.StatusCode, Message: message}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: message}
	}
	if env.Success != nil && !*env.Success {
		return &APIError{Status: resp.StatusCode, Message: message}
	}

	if out == nil {
		return nil
	}
	data := env.Data
	if data == nil {
		// some endpoints answer with a bare object instead of an envelope
		data = raw
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) isAuthFailure(status int, message string) bool {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return true
	}
	return strings.Contains(strings.ToLower(message), "not authorized")
}
