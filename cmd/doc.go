// Package cmd provides the command-line interface for webdav-mcp.
//
// This package implements the CLI using the Cobra framework.
//
// # Available Commands
//
//   - serve: Serve the WebDAV tools to an MCP client over stdio
//   - presets list: List the property presets with their origin
//   - presets show: Print one preset as JSON or YAML
//   - presets render: Print the PROPFIND body a preset produces
//   - presets validate: Check preset files the way the loader reads them
//   - config show: Print the resolved configuration with credentials redacted
//   - version: Print build information
//
// # Command Examples
//
//	// Serve against a Nextcloud instance, reloading presets on change
//	WEBDAV_MCP_SERVER_URL=https://cloud.example.com/remote.php/dav/files/me \
//	  webdav-mcp serve --watch
//
//	// Inspect presets from a team directory
//	webdav-mcp presets list --presets-dir ./team-presets -o yaml
//
//	// Render a preset with an extra property
//	webdav-mcp presets render basic --property DAV:::getetag
//
// # Output Streams
//
// serve uses stdout exclusively for the MCP protocol; logs and diagnostics go
// to stderr. Every other command writes its result to stdout.
package cmd
