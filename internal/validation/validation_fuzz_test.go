package validation

import (
	"net/url"
	"strings"
	"testing"
)

// FuzzValidateResourcePath checks that accepted paths never climb above the
// server root.
func FuzzValidateResourcePath(f *testing.F) {
	f.Add("/")
	f.Add("/a/b.txt")
	f.Add("../etc/passwd")
	f.Add("/a/%2e%2e/b")
	f.Add("/a/%2E%2E/b")
	f.Add("http://evil/x")
	f.Add("/a\x00")
	f.Add(`..\..\windows`)

	f.Fuzz(func(t *testing.T, p string) {
		if len(p) > 4096 {
			t.Skip("path too long")
		}
		if ValidateResourcePath(p) != nil {
			return
		}
		forms := []string{p}
		if decoded, err := url.PathUnescape(p); err == nil {
			forms = append(forms, decoded)
		}
		for _, form := range forms {
			for _, seg := range strings.Split(form, "/") {
				if seg == ".." {
					t.Fatalf("accepted traversal: %q", p)
				}
			}
		}
		if strings.Contains(p, "://") {
			t.Fatalf("accepted absolute URL: %q", p)
		}
	})
}

// FuzzValidateServerURL checks that accepted URLs are http or https with a host.
func FuzzValidateServerURL(f *testing.F) {
	f.Add("http://localhost:8080")
	f.Add("https://example.com/dav")
	f.Add("javascript:alert(1)")
	f.Add("http://")
	f.Add("")

	f.Fuzz(func(t *testing.T, raw string) {
		if ValidateServerURL(raw) != nil {
			return
		}
		parsed, err := url.Parse(raw)
		if err != nil {
			t.Fatalf("accepted unparsable URL %q", raw)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			t.Fatalf("accepted scheme %q", parsed.Scheme)
		}
		if parsed.Host == "" {
			t.Fatalf("accepted URL without host %q", raw)
		}
	})
}
