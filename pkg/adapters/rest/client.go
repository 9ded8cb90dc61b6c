// Package rest implements the hosted backend ports over a JSON REST
// API, the shape exposed by self-hostable backend-as-a-service stacks.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sangamhq/vivah/pkg/domain"
	"github.com/sangamhq/vivah/pkg/ports"
)

// Client talks to the hosted backend. It implements ports.AccountService,
// ports.DocumentService and ports.FileService.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client

	// sessionToken is the bearer for session-scoped calls, set by
	// CreateSession. The backend's notion of "current session" is
	// whatever this client authenticated last.
	sessionToken string
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a backend client for the given base URL.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Services bundles the client into the ports wiring struct.
func (c *Client) Services() *ports.Backend {
	return &ports.Backend{Accounts: c, Documents: c, Files: c}
}

// do performs a JSON request and decodes the response into out (when
// non-nil). Conflict and not-found statuses map onto the domain
// sentinels so callers can use errors.Is.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	return c.doRaw(ctx, method, path, "application/json", reader, out)
}

func (c *Client) doRaw(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	if c.sessionToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.sessionToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, path, domain.ErrNotFound)
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%s %s: %w", method, path, domain.ErrConflict)
	case resp.StatusCode == http.StatusNoContent:
		return nil
	case resp.StatusCode >= 400:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// --- ports.AccountService ---

func (c *Client) CreateAccount(ctx context.Context, id, email, password, name string) (*ports.Account, error) {
	var acct ports.Account
	err := c.do(ctx, http.MethodPost, "/v1/accounts", map[string]string{
		"id":       id,
		"email":    email,
		"password": password,
		"name":     name,
	}, &acct)
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

func (c *Client) CreateSession(ctx context.Context, email, password string) (*ports.Session, error) {
	var sess ports.Session
	err := c.do(ctx, http.MethodPost, "/v1/sessions", map[string]string{
		"email":    email,
		"password": password,
	}, &sess)
	if err != nil {
		return nil, err
	}
	c.sessionToken = sess.Token
	return &sess, nil
}

func (c *Client) CurrentSession(ctx context.Context) (*ports.Session, error) {
	if c.sessionToken == "" {
		return nil, nil
	}
	var sess ports.Session
	err := c.do(ctx, http.MethodGet, "/v1/sessions/current", nil, &sess)
	if err != nil {
		if domain.IsConflict(err) {
			return nil, err
		}
		// An expired or revoked token means no current session.
		c.sessionToken = ""
		return nil, nil
	}
	return &sess, nil
}

func (c *Client) DeleteSession(ctx context.Context, token string) error {
	err := c.do(ctx, http.MethodDelete, "/v1/sessions/"+url.PathEscape(token), nil, nil)
	if err == nil && c.sessionToken == token {
		c.sessionToken = ""
	}
	return err
}

// --- ports.DocumentService ---

func (c *Client) documentsPath(collection string) string {
	return "/v1/databases/" + url.PathEscape(collection) + "/documents"
}

func (c *Client) CreateDocument(ctx context.Context, collection, id string, fields map[string]any) (*ports.Document, error) {
	var doc ports.Document
	err := c.do(ctx, http.MethodPost, c.documentsPath(collection), map[string]any{
		"id":     id,
		"fields": fields,
	}, &doc)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) UpdateDocument(ctx context.Context, collection, id string, fields map[string]any) (*ports.Document, error) {
	var doc ports.Document
	err := c.do(ctx, http.MethodPatch, c.documentsPath(collection)+"/"+url.PathEscape(id), map[string]any{
		"fields": fields,
	}, &doc)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) GetDocument(ctx context.Context, collection, id string) (*ports.Document, error) {
	var doc ports.Document
	err := c.do(ctx, http.MethodGet, c.documentsPath(collection)+"/"+url.PathEscape(id), nil, &doc)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) ListDocuments(ctx context.Context, collection string, filters map[string]any) ([]*ports.Document, error) {
	var result struct {
		Documents []*ports.Document `json:"documents"`
	}
	err := c.do(ctx, http.MethodPost, c.documentsPath(collection)+"/query", map[string]any{
		"filters": filters,
	}, &result)
	if err != nil {
		return nil, err
	}
	return result.Documents, nil
}

// --- ports.FileService ---

func (c *Client) filePath(bucket, id string) string {
	return "/v1/storage/" + url.PathEscape(bucket) + "/files/" + url.PathEscape(id)
}

func (c *Client) Upload(ctx context.Context, bucket, id string, data []byte) (*ports.FileRef, error) {
	var ref ports.FileRef
	err := c.doRaw(ctx, http.MethodPut, c.filePath(bucket, id), "application/octet-stream", bytes.NewReader(data), &ref)
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

func (c *Client) Delete(ctx context.Context, bucket, id string) error {
	return c.do(ctx, http.MethodDelete, c.filePath(bucket, id), nil, nil)
}

func (c *Client) ViewURL(ctx context.Context, bucket, id string) (string, error) {
	var result struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodGet, c.filePath(bucket, id)+"/view", nil, &result); err != nil {
		return "", err
	}
	return result.URL, nil
}
