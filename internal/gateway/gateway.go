// Package gateway is the Request Gateway: the single HTTP client every
// workflow uses to reach the student API. It resolves paths against the
// configured base URL, bounds each call with a fixed timeout and attaches the
// bearer token of the session it is bound to.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/keyxmakerx/studentdesk/internal/config"
	"github.com/keyxmakerx/studentdesk/internal/requestid"
)

// maxBodyBytes caps how much of a response body is read into memory.
const maxBodyBytes = 1 << 20

// TokenSource yields the bearer token to attach, or "" for anonymous calls.
type TokenSource interface {
	Token(ctx context.Context) string
}

// Response is a fully read 2xx response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}

// Client issues requests to the student API. The zero value is not usable;
// create one with New. A Client is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	tokens  TokenSource
}

// New creates an anonymous client from cfg. Bind it to a session with
// WithTokens.
func New(cfg config.APIConfig) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing API base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("API base URL %q must be absolute", cfg.BaseURL)
	}

	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// WithTokens returns a copy of c that authenticates with ts. The underlying
// connection pool is shared.
func (c *Client) WithTokens(ts TokenSource) *Client {
	cp := *c
	cp.tokens = ts
	return &cp
}

// Send issues method against path. A non-nil body is sent as JSON. Non-2xx
// responses come back as *HTTPError; transport failures as *NetworkError.
// Nothing is retried.
func (c *Client) Send(ctx context.Context, method, path string, body any) (*Response, error) {
	target := c.resolve(path)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("building %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	if id := requestid.From(ctx); id != "" {
		req.Header.Set(requestid.Header, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Method: method, Path: path, Timeout: isTimeout(err), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &NetworkError{Method: method, Path: path, Timeout: isTimeout(err), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{Method: method, Path: path, Status: resp.StatusCode, Body: data}
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// resolve joins path onto the base URL, keeping any base path prefix. path
// is used as-is, so callers escape dynamic segments themselves.
func (c *Client) resolve(path string) string {
	return strings.TrimRight(c.baseURL.String(), "/") + "/" + strings.TrimLeft(path, "/")
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value. Returns "" when the scheme is missing.
func BearerToken(h http.Header) string {
	token, found := strings.CutPrefix(h.Get("Authorization"), "Bearer ")
	if !found {
		return ""
	}
	return strings.TrimSpace(token)
}
