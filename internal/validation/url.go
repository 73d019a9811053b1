// Package validation checks user-supplied URLs, paths and headers before they
// reach the WebDAV server.
package validation

import (
	"fmt"
	"net/url"
	"strings"

	apperrors "github.com/bmordue/webdav-mcp/internal/errors"
)

// ValidateServerURL checks the configured WebDAV base URL. Only http and https
// are accepted and a host is required.
func ValidateServerURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return apperrors.NewValidationError(apperrors.ErrCodeInvalidURL, "server URL cannot be empty")
	}
	if strings.ContainsAny(rawURL, " \t\r\n") {
		return apperrors.NewValidationError(apperrors.ErrCodeInvalidURL, "server URL contains whitespace")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return apperrors.WrapValidation(err, apperrors.ErrCodeInvalidURL, "invalid server URL")
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return apperrors.NewValidationError(apperrors.ErrCodeInvalidURL,
			fmt.Sprintf("invalid URL scheme: %q (only http/https allowed)", parsed.Scheme))
	}

	if parsed.Host == "" {
		return apperrors.NewValidationError(apperrors.ErrCodeInvalidURL, "URL must have a valid hostname")
	}

	if parsed.Fragment != "" || parsed.RawQuery != "" {
		return apperrors.NewValidationError(apperrors.ErrCodeInvalidURL, "server URL must not carry a query or fragment")
	}

	return nil
}

// RedactURL returns rawURL with any password replaced, for logging.
func RedactURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	return parsed.Redacted()
}
