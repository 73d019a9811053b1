// Package internal contains the core implementation packages for webdav-mcp.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - config: Layered configuration (flags, environment, file, defaults)
//   - di: Service container wiring the packages below together
//   - errors: Typed application errors and HTTP status classification
//   - logging: Structured logging on log/slog
//   - mcpserver: MCP tool definitions and their handlers
//   - preset: Property presets, the file loader and the cached registry
//   - validation: Resource path, header and URL checks
//   - version: Build information
//   - watcher: Debounced file system notifications for the preset directory
//   - webdav: HTTP client for the WebDAV methods
//
// # Request Flow
//
// An MCP tool call arrives at mcpserver, which validates its arguments,
// resolves a PROPFIND body through the preset registry when needed and hands
// the request to the webdav client. The response is formatted as tool text;
// non-2xx statuses are returned as tool errors rather than protocol errors.
//
// The watcher only invalidates the registry. The next lookup reloads the
// preset directory.
package internal
