// Package testutils holds fixtures shared by tests in several packages.
package testutils

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/webdav"
)

// NewDAVServer starts an in-memory WebDAV server. Resources live under
// prefix, which may be empty to serve from the root. The server is closed
// when the test ends.
func NewDAVServer(t *testing.T, prefix string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(&webdav.Handler{
		Prefix:     prefix,
		FileSystem: webdav.NewMemFS(),
		LockSystem: webdav.NewMemLS(),
	})
	t.Cleanup(srv.Close)
	return srv
}

// CreatePresetDir returns a fresh, empty preset directory.
func CreatePresetDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "presets")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	return dir
}

// WritePresetFile writes content to dir/name and returns the path.
func WritePresetFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// PresetJSON renders a preset file holding one preset that requests the given
// DAV: properties.
func PresetJSON(t *testing.T, name, description string, davProps ...string) string {
	t.Helper()
	type prop struct {
		Namespace string `json:"namespace"`
		Name      string `json:"name"`
	}
	doc := struct {
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
		Properties  []prop `json:"properties"`
	}{Name: name, Description: description}
	for _, p := range davProps {
		doc.Properties = append(doc.Properties, prop{Namespace: "DAV:", Name: p})
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return string(data)
}

// PathTraversal lists resource paths that must never reach the server.
var PathTraversal = []string{
	"../../../etc/passwd",
	`..\..\..\windows\system32\config\sam`,
	"..%2F..%2F..%2Fetc%2Fpasswd",
	"/%2e%2e/%2e%2e/%2e%2e/etc/passwd",
	"/%2E%2E/secret",
	"/./../../etc/passwd",
	"/a/b/../../../etc/passwd",
	"http://evil.example/steal",
	"/a\r\nX-Injected: 1",
}
