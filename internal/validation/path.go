package validation

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	apperrors "github.com/bmordue/webdav-mcp/internal/errors"
)

// ValidateResourcePath checks a path relative to the server root. Absolute
// URLs, control characters, backslashes and ".." segments (also in
// percent-encoded form) are rejected. A "%" that does not start a valid
// escape is an ordinary character.
func ValidateResourcePath(p string) error {
	if strings.Contains(p, "://") {
		return apperrors.ErrInvalidPath(p, "absolute URLs are not allowed")
	}
	for _, r := range p {
		if unicode.IsControl(r) {
			return apperrors.ErrInvalidPath(p, "contains control characters")
		}
	}
	if strings.Contains(p, `\`) {
		return apperrors.ErrInvalidPath(p, "contains a backslash")
	}

	// Paths are sent escaped, so "%" is literal; the decoded form is still
	// checked because some servers decode twice.
	candidates := []string{p}
	if decoded, err := url.PathUnescape(p); err == nil {
		candidates = append(candidates, decoded)
	}
	for _, candidate := range candidates {
		for _, seg := range strings.Split(candidate, "/") {
			if seg == ".." {
				return apperrors.ErrPathTraversal(p)
			}
		}
	}
	return nil
}

// ValidateHeader checks a caller-supplied request header.
func ValidateHeader(name, value string) error {
	if name == "" {
		return apperrors.NewValidationError(apperrors.ErrCodeInvalidHeader, "header name cannot be empty")
	}
	for _, r := range name {
		if r > unicode.MaxASCII || !isTokenChar(byte(r)) {
			return apperrors.NewValidationError(apperrors.ErrCodeInvalidHeader,
				fmt.Sprintf("invalid character in header name %q", name))
		}
	}
	if strings.ContainsAny(value, "\r\n\x00") {
		return apperrors.NewValidationError(apperrors.ErrCodeInvalidHeader,
			fmt.Sprintf("header %s contains a line break", name))
	}
	return nil
}

func isTokenChar(c byte) bool {
	if c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' {
		return true
	}
	return strings.IndexByte("!#$%&'*+-.^_`|~", c) >= 0
}
