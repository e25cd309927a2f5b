// Package api talks to the remote todo backend over REST/JSON.
package api

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
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/Makepad-fr/tada-board/internal/model"
)

const todosPath = "/todos"

// ErrMissingID is returned when a create response carries no id.
var ErrMissingID = errors.New("backend returned a todo without id")

// StatusError reports a non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string // first bytes of the response body, for logs
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: backend responded with status %d", e.Method, e.Path, e.Status)
}

// StatusCode returns the HTTP status carried by err, or 0 if err is not a
// StatusError.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool { return StatusCode(err) == http.StatusNotFound }

// Client is a typed client for the /todos resource.
type Client struct {
	base      string
	http      *http.Client
	token     string
	userAgent string
	log       *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client (timeouts live there).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithToken sends token as a bearer credential on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New returns a client for the backend at baseURL. One trailing slash is
// stripped from baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base:      strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		http:      &http.Client{Timeout: 10 * time.Second},
		userAgent: "tada",
		log:       log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalized backend address.
func (c *Client) BaseURL() string { return c.base }

// List fetches every todo, normalized.
func (c *Client) List(ctx context.Context) ([]model.Todo, error) {
	var records []model.Record
	if err := c.do(ctx, http.MethodGet, todosPath, nil, &records); err != nil {
		return nil, err
	}
	todos := make([]model.Todo, 0, len(records))
	for _, r := range records {
		todos = append(todos, r.Normalize())
	}
	return todos, nil
}

type createRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// Create stores a new open todo and returns it with the backend-assigned id.
// Fields missing from the response fall back to the submitted values.
func (c *Client) Create(ctx context.Context, title, description string) (model.Todo, error) {
	req := createRequest{Title: title, Description: description}
	var rec model.Record
	if err := c.do(ctx, http.MethodPost, todosPath, req, &rec); err != nil {
		return model.Todo{}, err
	}
	if !rec.HasID() {
		return model.Todo{}, ErrMissingID
	}
	return rec.NormalizeWith(model.Todo{Title: title, Description: description}), nil
}

// Update replaces the stored todo with t.
//
// The backend's PUT /todos/{id} cannot decode JSON bodies, but its POST
// handler saves records with an existing id in place, so updates go there.
func (c *Client) Update(ctx context.Context, t model.Todo) error {
	return c.do(ctx, http.MethodPost, todosPath, t, nil)
}

// Delete removes the todo with id. A missing todo surfaces as a 404
// StatusError; callers decide whether that matters.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, todosPath+"/"+strconv.FormatInt(id, 10), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("request failed", "method", method, "path", path, "request_id", reqID, "err", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("request", "method", method, "path", path, "status", resp.StatusCode,
		"request_id", reqID, "took", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
