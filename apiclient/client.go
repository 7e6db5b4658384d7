package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const maxErrorBody = 64 << 10

// HTTPError is a non-2xx response that survived the refresh-and-replay cycle
type HTTPError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("apiclient: %d %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("apiclient: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// IsUnauthorized reports whether err is a 401 from the backend
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

type Client struct {
	baseURL   string
	http      *http.Client
	transport *Transport
}

type Option func(*Client)

// WithBaseTransport sets the round tripper under the refreshing transport
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.transport.Base = rt
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.transport.Logger = logger
	}
}

func New(baseURL string, session Session, opts ...Option) *Client {
	transport := NewTransport(session, nil)
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		transport: transport,
		http:      &http.Client{Transport: transport, Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HTTPClient exposes the refreshing client for callers building their own requests
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// Do sends req through the refreshing transport. The response is returned
// whatever its status.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("apiclient: %s %s: %w", req.Method, req.URL.Path, err)
	}
	return resp, nil
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.send(ctx, http.MethodGet, path, nil, "", out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.send(ctx, http.MethodDelete, path, nil, "", out)
}

func (c *Client) PostForm(ctx context.Context, path string, form url.Values, out any) error {
	return c.send(ctx, http.MethodPost, path, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", out)
}

func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	body, err := encodeJSON(in)
	if err != nil {
		return err
	}
	return c.send(ctx, http.MethodPost, path, body, "application/json", out)
}

func (c *Client) Put(ctx context.Context, path string, in, out any) error {
	body, err := encodeJSON(in)
	if err != nil {
		return err
	}
	return c.send(ctx, http.MethodPut, path, body, "application/json", out)
}

func encodeJSON(in any) (io.Reader, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("apiclient: encode body: %w", err)
	}
	return bytes.NewReader(data), nil
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("apiclient: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{StatusCode: resp.StatusCode, Message: errorMessage(data), Body: data}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("apiclient: decode %s %s: %w", method, path, err)
	}
	return nil
}

func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if json.Unmarshal(data, &body) != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Detail
}
