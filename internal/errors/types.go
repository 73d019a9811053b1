// Package errors defines the structured error type shared by webdav-mcp
// packages and helpers for classifying errors.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeUpstream   ErrorType = "upstream"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeInternal   ErrorType = "internal"
)

// AppError is a structured error type with context.
type AppError struct {
	Type    ErrorType
	Code    string
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *AppError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}
	parts = append(parts, e.Message)

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		kv := make([]string, len(keys))
		for i, k := range keys {
			kv[i] = fmt.Sprintf("%s=%v", k, e.Context[k])
		}
		parts = append(parts, "("+strings.Join(kv, " ")+")")
	}

	result := strings.Join(parts, " ")
	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}
	return result
}

// Unwrap returns the underlying cause error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison on type and code.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}
	return false
}

// WithContext adds context information to the error.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *AppError {
	return &AppError{Type: ErrorTypeValidation, Code: code, Message: message}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *AppError {
	return &AppError{Type: ErrorTypeConfig, Code: code, Message: message}
}

// NewNetworkError creates an error for a failed round trip to the server.
func NewNetworkError(code, message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeNetwork, Code: code, Message: message, Cause: cause}
}

// NewUpstreamError creates an error for a request the WebDAV server answered
// with a non-2xx status.
func NewUpstreamError(code, message string) *AppError {
	return &AppError{Type: ErrorTypeUpstream, Code: code, Message: message}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeIO, Code: code, Message: message, Cause: cause}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeInternal, Code: code, Message: message, Cause: cause}
}

func hasType(err error, t ErrorType) bool {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Type == t
	}
	return false
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	return hasType(err, ErrorTypeValidation)
}

// IsConfigError checks if an error is a configuration error.
func IsConfigError(err error) bool {
	return hasType(err, ErrorTypeConfig)
}

// IsNetworkError checks if an error is a transport failure.
func IsNetworkError(err error) bool {
	return hasType(err, ErrorTypeNetwork)
}

// IsUpstreamError checks if an error is a status reported by the WebDAV
// server.
func IsUpstreamError(err error) bool {
	return hasType(err, ErrorTypeUpstream)
}

// GetErrorType returns the type of the outermost AppError in err's chain, or
// ErrorTypeInternal when there is none.
func GetErrorType(err error) ErrorType {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Type
	}
	return ErrorTypeInternal
}

// Common error codes.
const (
	ErrCodeInvalidPath      = "ERR_INVALID_PATH"
	ErrCodePathTraversal    = "ERR_PATH_TRAVERSAL"
	ErrCodeInvalidMethod    = "ERR_INVALID_METHOD"
	ErrCodeInvalidDepth     = "ERR_INVALID_DEPTH"
	ErrCodeInvalidHeader    = "ERR_INVALID_HEADER"
	ErrCodeInvalidURL       = "ERR_INVALID_URL"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeServerMissing    = "ERR_SERVER_NOT_CONFIGURED"
	ErrCodeRequestFailed    = "ERR_REQUEST_FAILED"
	ErrCodeResponseRead     = "ERR_RESPONSE_READ"
	ErrCodeUpstreamStatus   = "ERR_UPSTREAM_STATUS"
	ErrCodePresetRead       = "ERR_PRESET_READ"
	ErrCodePresetNotFound   = "ERR_PRESET_NOT_FOUND"
	ErrCodePresetDirRead    = "ERR_PRESET_DIR_READ"
	ErrCodeInternalError    = "ERR_INTERNAL"
	ErrCodeValidationFailed = "ERR_VALIDATION_FAILED"
)

// FieldValidationError reports one invalid field.
type FieldValidationError struct {
	FieldName    string
	FieldValue   interface{}
	ErrorMessage string
	HelpText     []string
}

// Error implements the error interface.
func (fve *FieldValidationError) Error() string {
	return fmt.Sprintf("validation error in field '%s': %s", fve.FieldName, fve.ErrorMessage)
}

// NewFieldValidationError creates a new field validation error.
func NewFieldValidationError(
	field string,
	value interface{},
	message string,
	suggestions ...string,
) *FieldValidationError {
	return &FieldValidationError{
		FieldName:    field,
		FieldValue:   value,
		ErrorMessage: message,
		HelpText:     suggestions,
	}
}

// ValidationErrorCollection represents a collection of validation errors.
type ValidationErrorCollection struct {
	Errors []*FieldValidationError
}

// Error implements the error interface.
func (vec *ValidationErrorCollection) Error() string {
	switch len(vec.Errors) {
	case 0:
		return "no validation errors"
	case 1:
		return vec.Errors[0].Error()
	}
	msgs := make([]string, len(vec.Errors))
	for i, e := range vec.Errors {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("validation failed with %d errors: %s", len(vec.Errors), strings.Join(msgs, "; "))
}

// AddField adds a field validation error to the collection.
func (vec *ValidationErrorCollection) AddField(
	field string,
	value interface{},
	message string,
	suggestions ...string,
) {
	vec.Errors = append(vec.Errors, NewFieldValidationError(field, value, message, suggestions...))
}

// HasErrors returns true if there are any validation errors.
func (vec *ValidationErrorCollection) HasErrors() bool {
	return len(vec.Errors) > 0
}

// ToAppError converts the collection to a config error, or nil when empty.
func (vec *ValidationErrorCollection) ToAppError() *AppError {
	if !vec.HasErrors() {
		return nil
	}
	ae := &AppError{
		Type:    ErrorTypeConfig,
		Code:    ErrCodeConfigInvalid,
		Message: vec.Error(),
	}
	for _, e := range vec.Errors {
		ae.WithContext(e.FieldName, e.FieldValue)
	}
	return ae
}

// ErrInvalidPath creates a path validation error.
func ErrInvalidPath(path, reason string) *AppError {
	return NewValidationError(ErrCodeInvalidPath, "invalid path "+fmt.Sprintf("%q", path)+": "+reason)
}

// ErrPathTraversal creates a path traversal error.
func ErrPathTraversal(path string) *AppError {
	return NewValidationError(ErrCodePathTraversal, fmt.Sprintf("path %q escapes the server root", path))
}
