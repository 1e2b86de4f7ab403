// Package client is the Go client of the project tracker API. It keeps the
// sign-in session on disk between runs and attaches it to every request.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sakif/pm-tracker/internal/model"
)

const defaultTimeout = 15 * time.Second

// Client talks to the API under baseURL, e.g. http://localhost:5000/api.
type Client struct {
	baseURL string
	http    *http.Client
	store   SessionStore

	mu      sync.RWMutex
	session *Session
}

type Option func(*Client)

// WithHTTPClient replaces the default client, which has a 15s timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New restores any stored session from store.
func New(baseURL string, store SessionStore, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		store:   store,
	}
	for _, opt := range opts {
		opt(c)
	}

	session, err := store.Load()
	if err != nil {
		return nil, err
	}
	c.session = session
	return c, nil
}

// Login persists the token and user and makes them the current identity.
func (c *Client) Login(token string, user model.PublicUser) error {
	s := Session{Token: token, User: user}
	if err := c.store.Save(s); err != nil {
		return err
	}

	c.mu.Lock()
	c.session = &s
	c.mu.Unlock()
	return nil
}

// Logout forgets the session locally. Tokens are not revoked server side.
func (c *Client) Logout() error {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
	return c.store.Clear()
}

func (c *Client) IsAuthenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session != nil
}

// CurrentUser returns the stored identity without a network call.
func (c *Client) CurrentUser() (model.PublicUser, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return model.PublicUser{}, false
	}
	return c.session.User, true
}

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return ""
	}
	return c.session.Token
}

// AuthResult is the body of a successful register or sign-in.
type AuthResult struct {
	Token string           `json:"token"`
	User  model.PublicUser `json:"user"`
}

type RegisterInput struct {
	Name     *string `json:"name,omitempty"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
}

// Register creates an account and signs in as it.
func (c *Client) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	var out AuthResult
	if err := c.send(ctx, http.MethodPost, "/auth/register", "", in, &out); err != nil {
		return nil, err
	}
	if err := c.Login(out.Token, out.User); err != nil {
		return nil, err
	}
	return &out, nil
}

// SignIn exchanges credentials for a token and stores the session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	body := map[string]string{"email": email, "password": password}

	var out AuthResult
	if err := c.send(ctx, http.MethodPost, "/auth/login", "", body, &out); err != nil {
		return nil, err
	}
	if err := c.Login(out.Token, out.User); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me asks the server who the token belongs to.
func (c *Client) Me(ctx context.Context) (*model.PublicUser, error) {
	if !c.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	var out struct {
		User model.PublicUser `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) Health(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.send(ctx, http.MethodGet, "/health", "", nil, &out); err != nil {
		return err
	}
	if out.Status != "ok" {
		return fmt.Errorf("client: health status %q", out.Status)
	}
	return nil
}

// NewProject is the body of a create request. Nil fields are omitted and
// take the server defaults.
type NewProject struct {
	Title       string        `json:"title"`
	Description *string       `json:"description,omitempty"`
	Status      *model.Status `json:"status,omitempty"`
}

type projectEnvelope struct {
	Project model.Project `json:"project"`
}

func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	if !c.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	var out struct {
		Projects []model.Project `json:"projects"`
	}
	if err := c.do(ctx, http.MethodGet, "/projects", nil, &out); err != nil {
		return nil, err
	}
	if out.Projects == nil {
		out.Projects = []model.Project{}
	}
	return out.Projects, nil
}

func (c *Client) GetProject(ctx context.Context, id int64) (*model.Project, error) {
	return c.projectCall(ctx, http.MethodGet, id, nil)
}

func (c *Client) CreateProject(ctx context.Context, in NewProject) (*model.Project, error) {
	if !c.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	var out projectEnvelope
	if err := c.do(ctx, http.MethodPost, "/projects", in, &out); err != nil {
		return nil, err
	}
	return &out.Project, nil
}

// UpdateProject sends only the non-nil fields of patch.
func (c *Client) UpdateProject(ctx context.Context, id int64, patch model.ProjectPatch) (*model.Project, error) {
	body := map[string]any{}
	if patch.Title != nil {
		body["title"] = *patch.Title
	}
	if patch.Description != nil {
		body["description"] = *patch.Description
	}
	if patch.Status != nil {
		body["status"] = *patch.Status
	}
	return c.projectCall(ctx, http.MethodPut, id, body)
}

func (c *Client) DeleteProject(ctx context.Context, id int64) error {
	if !c.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	var out struct {
		Success bool `json:"success"`
	}
	if err := c.do(ctx, http.MethodDelete, projectPath(id), nil, &out); err != nil {
		return err
	}
	if !out.Success {
		return errors.New(genericErrorMessage)
	}
	return nil
}

func (c *Client) projectCall(ctx context.Context, method string, id int64, body any) (*model.Project, error) {
	if !c.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	var out projectEnvelope
	if err := c.do(ctx, method, projectPath(id), body, &out); err != nil {
		return nil, err
	}
	return &out.Project, nil
}

func projectPath(id int64) string {
	return "/projects/" + strconv.FormatInt(id, 10)
}

// do sends an authenticated request.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	return c.send(ctx, method, path, c.token(), in, out)
}

// send performs one round trip. Any 401 clears the session; when the request
// carried a token the result is ErrSessionExpired. Other failures are *APIError.
func (c *Client) send(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("client: encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("client: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		apiErr := decodeError(resp)
		if clearErr := c.Logout(); clearErr != nil {
			return clearErr
		}
		if token != "" {
			return ErrSessionExpired
		}
		return apiErr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decoding %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode, Message: genericErrorMessage}

	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil {
		apiErr.Code = body.Error
		if body.Message != "" {
			apiErr.Message = body.Message
		}
	}
	return apiErr
}
