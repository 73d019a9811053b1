package webdav

import (
	"context"
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/bmordue/webdav-mcp/internal/errors"
)

// Depth header values.
const (
	DepthZero     = "0"
	DepthOne      = "1"
	DepthInfinity = "infinity"
)

var allowedMethods = map[string]bool{
	"PROPFIND":  true,
	"PROPPATCH": true,
	"MKCOL":     true,
	"GET":       true,
	"HEAD":      true,
	"PUT":       true,
	"DELETE":    true,
	"COPY":      true,
	"MOVE":      true,
	"LOCK":      true,
	"UNLOCK":    true,
	"OPTIONS":   true,
}

var xmlBodyMethods = map[string]bool{
	"PROPFIND":  true,
	"PROPPATCH": true,
	"LOCK":      true,
}

// AllowedMethods lists the methods accepted by Do, sorted.
func AllowedMethods() []string {
	out := make([]string, 0, len(allowedMethods))
	for m := range allowedMethods {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// ValidateMethod upper-cases m and checks it against AllowedMethods.
func ValidateMethod(m string) (string, error) {
	upper := strings.ToUpper(strings.TrimSpace(m))
	if !allowedMethods[upper] {
		return "", apperrors.NewValidationError(apperrors.ErrCodeInvalidMethod,
			fmt.Sprintf("method %q is not allowed (allowed: %s)", m, strings.Join(AllowedMethods(), ", ")))
	}
	return upper, nil
}

// ValidateDepth normalises a Depth header value. An empty value yields def.
func ValidateDepth(depth, def string) (string, error) {
	d := strings.ToLower(strings.TrimSpace(depth))
	if d == "" {
		d = def
	}
	switch d {
	case DepthZero, DepthOne, DepthInfinity:
		return d, nil
	}
	return "", apperrors.NewValidationError(apperrors.ErrCodeInvalidDepth,
		fmt.Sprintf("depth %q is invalid (expected 0, 1 or infinity)", depth))
}

// Propfind sends a PROPFIND with the given Depth and XML body. An empty body
// is sent as-is, which servers treat as allprop.
func (c *Client) Propfind(ctx context.Context, path, depth, body string) (*Response, error) {
	d, err := ValidateDepth(depth, DepthOne)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, Request{Method: "PROPFIND", Path: path, Headers: map[string]string{"Depth": d}, Body: body})
}

// Proppatch sends a PROPPATCH with the given XML body.
func (c *Client) Proppatch(ctx context.Context, path, body string) (*Response, error) {
	if strings.TrimSpace(body) == "" {
		return nil, apperrors.NewValidationError(apperrors.ErrCodeValidationFailed, "PROPPATCH requires a body")
	}
	return c.Do(ctx, Request{Method: "PROPPATCH", Path: path, Body: body})
}

// Get fetches a resource.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, Request{Method: "GET", Path: path})
}

// Put uploads content. An empty contentType lets the server decide.
func (c *Client) Put(ctx context.Context, path, content, contentType string) (*Response, error) {
	req := Request{Method: "PUT", Path: path, Body: content}
	if contentType != "" {
		req.Headers = map[string]string{"Content-Type": contentType}
	}
	return c.Do(ctx, req)
}

// Delete removes a resource or collection.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, Request{Method: "DELETE", Path: path})
}

// Mkcol creates a collection.
func (c *Client) Mkcol(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, Request{Method: "MKCOL", Path: path})
}

// Copy copies src to dst on the same server.
func (c *Client) Copy(ctx context.Context, src, dst string, overwrite bool) (*Response, error) {
	return c.transfer(ctx, "COPY", src, dst, overwrite)
}

// Move moves src to dst on the same server.
func (c *Client) Move(ctx context.Context, src, dst string, overwrite bool) (*Response, error) {
	return c.transfer(ctx, "MOVE", src, dst, overwrite)
}

func (c *Client) transfer(ctx context.Context, method, src, dst string, overwrite bool) (*Response, error) {
	dest, err := c.ResolveURL(dst)
	if err != nil {
		return nil, err
	}
	ow := "F"
	if overwrite {
		ow = "T"
	}
	return c.Do(ctx, Request{
		Method:  method,
		Path:    src,
		Headers: map[string]string{"Destination": dest.String(), "Overwrite": ow},
	})
}
