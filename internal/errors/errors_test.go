package errors

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorError(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "message only",
			err:  &AppError{Message: "boom"},
			want: "boom",
		},
		{
			name: "with code",
			err:  NewValidationError(ErrCodeInvalidDepth, "bad depth"),
			want: "[ERR_INVALID_DEPTH] bad depth",
		},
		{
			name: "with cause",
			err:  NewNetworkError(ErrCodeRequestFailed, "request failed", io.ErrUnexpectedEOF),
			want: "[ERR_REQUEST_FAILED] request failed: unexpected EOF",
		},
		{
			name: "context sorted by key",
			err:  NewValidationError(ErrCodeInvalidHeader, "bad header").WithContext("value", "a b").WithContext("name", "X-Foo"),
			want: "[ERR_INVALID_HEADER] bad header (name=X-Foo value=a b)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppErrorUnwrapAndIs(t *testing.T) {
	cause := fmt.Errorf("dial tcp: refused")
	err := NewNetworkError(ErrCodeRequestFailed, "request failed", cause)

	assert.Same(t, cause, errors.Unwrap(err))
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, &AppError{Type: ErrorTypeNetwork, Code: ErrCodeRequestFailed})
	assert.NotErrorIs(t, err, &AppError{Type: ErrorTypeNetwork, Code: ErrCodeResponseRead})
}

func TestClassification(t *testing.T) {
	validation := NewValidationError(ErrCodeInvalidPath, "bad")
	config := NewConfigError(ErrCodeConfigInvalid, "bad")
	network := NewNetworkError(ErrCodeRequestFailed, "bad", nil)
	upstream := NewUpstreamError(ErrCodeUpstreamStatus, "server answered 404 Not Found")
	plain := errors.New("plain")

	assert.True(t, IsValidationError(validation))
	assert.True(t, IsConfigError(config))
	assert.True(t, IsNetworkError(network))
	assert.False(t, IsValidationError(plain))
	assert.False(t, IsNetworkError(validation))
	assert.True(t, IsUpstreamError(upstream))
	assert.False(t, IsUpstreamError(network))

	wrapped := fmt.Errorf("outer: %w", validation)
	assert.True(t, IsValidationError(wrapped))

	assert.Equal(t, ErrorTypeValidation, GetErrorType(wrapped))
	assert.Equal(t, ErrorTypeIO, GetErrorType(WrapIO(plain, ErrCodePresetDirRead, "x")))
	assert.Equal(t, ErrorTypeInternal, GetErrorType(plain))
	assert.Equal(t, ErrorTypeUpstream, GetErrorType(fmt.Errorf("get: %w", upstream)))
	assert.Equal(t, ErrorTypeIO, GetErrorType(NewIOError(ErrCodePresetRead, "cannot read", plain)))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeIO, "X", "y"))

	plain := errors.New("disk full")
	w := WrapIO(plain, "ERR_WRITE", "write failed")
	require.NotNil(t, w)
	assert.Equal(t, ErrorTypeIO, w.Type)
	assert.ErrorIs(t, w, plain)

	inner := NewValidationError(ErrCodeInvalidPath, "bad path").WithContext("path", "/x")
	outer := WrapConfig(inner, ErrCodeConfigInvalid, "config rejected")
	assert.Equal(t, ErrorTypeConfig, outer.Type)
	assert.Equal(t, "/x", outer.Context["path"])
	assert.True(t, IsValidationError(outer.Cause))

	v := WrapValidation(plain, ErrCodeValidationFailed, "nope")
	assert.True(t, IsValidationError(v))
}

func TestCombine(t *testing.T) {
	a := errors.New("a")
	b := errors.New("b")

	assert.NoError(t, Combine())
	assert.NoError(t, Combine(nil, nil))
	assert.Same(t, a, Combine(nil, a))

	joined := Combine(a, nil, b)
	assert.ErrorIs(t, joined, a)
	assert.ErrorIs(t, joined, b)
}

func TestValidationErrorCollection(t *testing.T) {
	var vec ValidationErrorCollection
	assert.False(t, vec.HasErrors())
	assert.Nil(t, vec.ToAppError())
	assert.Equal(t, "no validation errors", vec.Error())

	vec.AddField("server.url", "ftp://x", "scheme must be http or https")
	assert.Equal(t, "validation error in field 'server.url': scheme must be http or https", vec.Error())

	vec.AddField("server.timeout", "-1s", "must be positive", "use a value like 30s")
	assert.Contains(t, vec.Error(), "validation failed with 2 errors")
	assert.Equal(t, []string{"use a value like 30s"}, vec.Errors[1].HelpText)

	ae := vec.ToAppError()
	require.NotNil(t, ae)
	assert.True(t, IsConfigError(ae))
	assert.Equal(t, ErrCodeConfigInvalid, ae.Code)
	assert.Equal(t, "ftp://x", ae.Context["server.url"])
}

func TestPathErrors(t *testing.T) {
	err := ErrInvalidPath("a\x00b", "contains NUL")
	assert.True(t, IsValidationError(err))
	assert.Equal(t, ErrCodeInvalidPath, err.Code)
	assert.Contains(t, err.Error(), "contains NUL")

	tr := ErrPathTraversal("/../etc")
	assert.Equal(t, ErrCodePathTraversal, tr.Code)
	assert.Contains(t, tr.Error(), `"/../etc"`)
}
