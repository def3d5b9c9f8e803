// Package remote talks to the placeholder user API: one seed listing and a best-effort mirror on create.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/userdir/internal/model"
)

// DefaultSeedURL is the placeholder endpoint the directory is seeded from.
const DefaultSeedURL = "https://jsonplaceholder.typicode.com/users"

// User is a record as returned by the seed endpoint. Unknown fields are ignored.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Client fetches seed users and mirrors creates.
type Client struct {
	http      *http.Client
	seedURL   string
	mirrorURL string
	log       *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient replaces the underlying *http.Client entirely.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client. An empty mirrorURL falls back to seedURL.
func New(seedURL, mirrorURL string, opts ...Option) *Client {
	if mirrorURL == "" {
		mirrorURL = seedURL
	}
	c := &Client{
		http:      &http.Client{},
		seedURL:   seedURL,
		mirrorURL: mirrorURL,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchUsers GETs the seed listing.
func (c *Client) FetchUsers(ctx context.Context) ([]User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.seedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("remote: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	reqID := setRequestID(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote: fetch users: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("remote: fetch users: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out []User
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("remote: decode users: %w", err)
	}
	c.log.Debug("seed fetched", zap.String("request_id", reqID), zap.Int("count", len(out)))
	return out, nil
}

// Mirror POSTs u to the mirror endpoint. The response body is ignored.
func (c *Client) Mirror(ctx context.Context, u model.User) error {
	body, err := json.Marshal(u)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.mirrorURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("remote: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	reqID := setRequestID(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("remote: mirror user: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("remote: mirror user: HTTP %d", resp.StatusCode)
	}
	c.log.Debug("user mirrored", zap.String("request_id", reqID), zap.Int("id", u.ID))
	return nil
}

func setRequestID(req *http.Request) string {
	id, err := uuid.NewV4()
	if err != nil {
		return ""
	}
	req.Header.Set("X-Request-ID", id.String())
	return id.String()
}

// SplitName returns the first and second whitespace-separated tokens of name.
// Missing tokens are empty; anything past the second token is dropped.
func SplitName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) > 0 {
		first = parts[0]
	}
	if len(parts) > 1 {
		last = parts[1]
	}
	return first, last
}

// ToUser maps a seed record to a directory user with an unknown department.
func ToUser(r User) model.User {
	first, last := SplitName(r.Name)
	return model.User{
		ID:         r.ID,
		FirstName:  first,
		LastName:   last,
		Email:      r.Email,
		Department: model.UnknownDepartment,
	}
}
