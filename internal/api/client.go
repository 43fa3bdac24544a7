package api

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

	"github.com/sumit-bhole/Acadlinker-NPAI/internal/logging"
	"go.uber.org/zap"
)

// Client talks to the Acadlinker REST backend. It keeps the session cookies
// in a jar so every call after Login is authenticated.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	jar     *sessionJar
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its Jar is replaced by
// the client's own cookie jar.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		cp := *hc
		c.http = &cp
	}
}

// WithTimeout bounds each HTTP exchange.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger sets the client logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = logging.OrNop(l) }
}

// New creates a client for the API rooted at baseURL, for example
// "http://localhost:5000/api".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	jar, err := newSessionJar()
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.jar = jar
	c.http.Jar = jar
	return c, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.String() + path
}

// do sends req and decodes a JSON success body into out (if non-nil).
// Non-2xx responses become *StatusError, transport failures *NetworkError.
func (c *Client) do(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Error(err))
		return &NetworkError{Op: req.Method + " " + req.URL.Path, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.handleErrorResponse(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return &NetworkError{Op: req.Method + " " + req.URL.Path, Err: err}
		}
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

// handleErrorResponse extracts the server message from {"error": ...} or
// {"message": ...} bodies, falling back to the raw body.
func (c *Client) handleErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	serr := &StatusError{Code: resp.StatusCode}
	var errResp errorBody
	if json.Unmarshal(body, &errResp) == nil {
		serr.Message = errResp.text()
	}
	if serr.Message == "" {
		serr.Message = strings.TrimSpace(string(body))
	}
	if serr.Message == "" {
		serr.Message = http.StatusText(resp.StatusCode)
	}
	return serr
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

// resolve turns a server-relative file URL into an absolute one.
func (c *Client) resolve(ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return ref
	}
	return c.baseURL.ResolveReference(u).String()
}
