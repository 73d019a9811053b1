// Package webdav forwards requests to a single configured WebDAV server.
//
// Paths are always interpreted relative to the configured base URL: they are
// NFC-normalised, checked for traversal and percent-encoded on the way out.
// Non-success HTTP statuses are returned as responses, not errors, so callers
// can show the server's multistatus or error body verbatim.
package webdav

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	apperrors "github.com/bmordue/webdav-mcp/internal/errors"
	"github.com/bmordue/webdav-mcp/internal/logging"
	"github.com/bmordue/webdav-mcp/internal/validation"
	"github.com/bmordue/webdav-mcp/internal/version"
)

// DefaultMaxResponseBytes caps buffered response bodies.
const DefaultMaxResponseBytes = 10 << 20

// Options configures a Client.
type Options struct {
	BaseURL            string
	Username           string
	Password           string
	Timeout            time.Duration
	InsecureSkipVerify bool
	MaxResponseBytes   int64
	// HTTPClient replaces the client built from Timeout and
	// InsecureSkipVerify.
	HTTPClient *http.Client
	Logger     logging.Logger
}

// Request is one call to the server.
type Request struct {
	Method  string
	Path    string
	Headers map[string]string
	Body    string
}

// Response is the buffered reply.
type Response struct {
	Status     int
	StatusText string
	Headers    http.Header
	Body       []byte
	Truncated  bool
	Duration   time.Duration
	URL        string
}

// OK reports whether the status is 2xx, which includes 207 Multi-Status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Err returns nil for a 2xx response and an upstream error carrying the
// status otherwise.
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	return apperrors.NewUpstreamError(apperrors.ErrCodeUpstreamStatus,
		fmt.Sprintf("server answered %d %s", r.Status, r.StatusText)).
		WithContext("status", r.Status)
}

// Client sends requests to one WebDAV server.
type Client struct {
	base     *url.URL
	username string
	password string
	maxBytes int64
	http     *http.Client
	logger   logging.Logger
}

// NewClient validates opts and builds a Client.
func NewClient(opts Options) (*Client, error) {
	if err := validation.ValidateServerURL(opts.BaseURL); err != nil {
		return nil, err
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, apperrors.WrapValidation(err, apperrors.ErrCodeInvalidURL, "invalid server URL")
	}
	// Credentials in the URL are used only when no explicit username is given.
	username, password := opts.Username, opts.Password
	if base.User != nil {
		if username == "" {
			username = base.User.Username()
			password, _ = base.User.Password()
		}
		base.User = nil
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	base.RawPath = ""

	maxBytes := opts.MaxResponseBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxResponseBytes
	}

	hc := opts.HTTPClient
	if hc == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if opts.InsecureSkipVerify {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		}
		hc = &http.Client{Timeout: opts.Timeout, Transport: transport}
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	return &Client{
		base:     base,
		username: username,
		password: password,
		maxBytes: maxBytes,
		http:     hc,
		logger:   logger.WithComponent("webdav"),
	}, nil
}

// BaseURL returns the server root without credentials.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// ResolveURL maps a resource path onto the server. A trailing slash is kept
// so that collections can be addressed explicitly.
func (c *Client) ResolveURL(p string) (*url.URL, error) {
	p = norm.NFC.String(p)
	if err := validation.ValidateResourcePath(p); err != nil {
		return nil, err
	}

	rel := strings.TrimLeft(p, "/")
	u := *c.base
	u.Path = c.base.Path + rel
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return &u, nil
}

// Do sends req and buffers the response, up to the configured limit.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	method, err := ValidateMethod(req.Method)
	if err != nil {
		return nil, err
	}
	target, err := c.ResolveURL(req.Path)
	if err != nil {
		return nil, err
	}
	for name, value := range req.Headers {
		if err := validation.ValidateHeader(name, value); err != nil {
			return nil, err
		}
	}

	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, apperrors.NewInternalError(apperrors.ErrCodeInternalError, "cannot build request", err)
	}

	httpReq.Header.Set("User-Agent", version.UserAgent())
	if req.Body != "" && xmlBodyMethods[method] {
		httpReq.Header.Set("Content-Type", "application/xml; charset=utf-8")
	}
	for name, value := range req.Headers {
		httpReq.Header.Set(name, value)
	}
	if c.username != "" {
		httpReq.SetBasicAuth(c.username, c.password)
	}

	start := time.Now()
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Warn(ctx, err, "WebDAV request failed", "method", method, "path", target.Path)
		return nil, apperrors.NewNetworkError(apperrors.ErrCodeRequestFailed,
			fmt.Sprintf("%s %s failed", method, target.Path), err)
	}
	defer httpResp.Body.Close()

	data, truncated, err := readLimited(httpResp.Body, c.maxBytes)
	if err != nil {
		return nil, apperrors.NewNetworkError(apperrors.ErrCodeResponseRead,
			fmt.Sprintf("reading %s %s response", method, target.Path), err)
	}

	resp := &Response{
		Status:     httpResp.StatusCode,
		StatusText: http.StatusText(httpResp.StatusCode),
		Headers:    httpResp.Header,
		Body:       data,
		Truncated:  truncated,
		Duration:   time.Since(start),
		URL:        target.String(),
	}
	c.logger.Debug(ctx, "WebDAV request completed",
		"method", method,
		"path", target.Path,
		"status", resp.Status,
		"bytes", len(data),
		"truncated", truncated,
		"duration_ms", resp.Duration.Milliseconds(),
	)
	if err := resp.Err(); err != nil {
		c.logger.Warn(ctx, err, "WebDAV server rejected request", "method", method, "path", target.Path)
	}
	return resp, nil
}

func readLimited(r io.Reader, limit int64) ([]byte, bool, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, limit+1))
	if err != nil {
		return nil, false, err
	}
	if n > limit {
		return buf.Bytes()[:limit], true, nil
	}
	return buf.Bytes(), false, nil
}
