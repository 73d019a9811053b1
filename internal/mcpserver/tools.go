package mcpserver

import (
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/bmordue/webdav-mcp/internal/webdav"
)

// Tool names.
const (
	ToolPropfind     = "webdav_propfind"
	ToolGet          = "webdav_get"
	ToolPut          = "webdav_put"
	ToolDelete       = "webdav_delete"
	ToolMkcol        = "webdav_mkcol"
	ToolCopy         = "webdav_copy"
	ToolMove         = "webdav_move"
	ToolProppatch    = "webdav_proppatch"
	ToolRequest      = "webdav_request"
	ToolListPresets  = "list_property_presets"
	ToolGetPreset    = "get_property_preset"
	ToolRenderPreset = "render_property_preset"
)

const propertiesArgument = "properties"

var propertyItemSchema = map[string]any{
	"oneOf": []any{
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"namespace": map[string]any{"type": "string"},
				"name":      map[string]any{"type": "string"},
			},
			"required": []string{"namespace", "name"},
		},
		map[string]any{
			"type":        "string",
			"description": "namespace::name, e.g. DAV:::getetag",
		},
	},
}

func pathArg(desc string) mcp.ToolOption {
	return mcp.WithString("path", mcp.Required(), mcp.Description(desc))
}

func propertiesArg(desc string) mcp.ToolOption {
	return mcp.WithArray(propertiesArgument, mcp.Description(desc), mcp.Items(propertyItemSchema))
}

func transferTool(name, verb string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(verb+" a resource to another path on the same server"),
		mcp.WithString("source", mcp.Required(), mcp.Description("Source path")),
		mcp.WithString("destination", mcp.Required(), mcp.Description("Destination path")),
		mcp.WithBoolean("overwrite", mcp.Description("Replace an existing destination (default false)")),
	)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool(ToolPropfind,
		mcp.WithDescription("Query properties of a resource or collection with PROPFIND. "+
			"The request body is taken from body, else from the named preset (plus any extra properties), "+
			"else from properties alone, else allprop."),
		mcp.WithReadOnlyHintAnnotation(true),
		pathArg("Resource path relative to the server root"),
		mcp.WithString("depth", mcp.Description("Depth header: 0, 1 or infinity"), mcp.Enum("0", "1", "infinity"), mcp.DefaultString("1")),
		mcp.WithString("preset", mcp.Description("Name of a property preset; see list_property_presets")),
		propertiesArg("Extra properties to request"),
		mcp.WithString("body", mcp.Description("Raw XML request body; overrides preset and properties")),
	), s.withRequestID(ToolPropfind, s.handlePropfind))

	s.mcp.AddTool(mcp.NewTool(ToolGet,
		mcp.WithDescription("Download a resource with GET"),
		mcp.WithReadOnlyHintAnnotation(true),
		pathArg("Resource path relative to the server root"),
	), s.withRequestID(ToolGet, s.handleGet))

	s.mcp.AddTool(mcp.NewTool(ToolPut,
		mcp.WithDescription("Upload text content with PUT, creating or replacing the resource"),
		mcp.WithDestructiveHintAnnotation(true),
		pathArg("Resource path relative to the server root"),
		mcp.WithString("content", mcp.Required(), mcp.Description("Content to store")),
		mcp.WithString("content_type", mcp.Description("Content-Type header, e.g. text/plain")),
	), s.withRequestID(ToolPut, s.handlePut))

	s.mcp.AddTool(mcp.NewTool(ToolDelete,
		mcp.WithDescription("Delete a resource or collection"),
		mcp.WithDestructiveHintAnnotation(true),
		pathArg("Resource path relative to the server root"),
	), s.withRequestID(ToolDelete, s.handleDelete))

	s.mcp.AddTool(mcp.NewTool(ToolMkcol,
		mcp.WithDescription("Create a collection with MKCOL"),
		pathArg("Collection path relative to the server root"),
	), s.withRequestID(ToolMkcol, s.handleMkcol))

	s.mcp.AddTool(transferTool(ToolCopy, "Copy"), s.withRequestID(ToolCopy, s.handleCopy))
	s.mcp.AddTool(transferTool(ToolMove, "Move"), s.withRequestID(ToolMove, s.handleMove))

	s.mcp.AddTool(mcp.NewTool(ToolProppatch,
		mcp.WithDescription("Set or remove properties with PROPPATCH"),
		pathArg("Resource path relative to the server root"),
		mcp.WithString("body", mcp.Required(), mcp.Description("propertyupdate XML body")),
	), s.withRequestID(ToolProppatch, s.handleProppatch))

	s.mcp.AddTool(mcp.NewTool(ToolRequest,
		mcp.WithDescription("Send an arbitrary WebDAV request. Allowed methods: "+strings.Join(webdav.AllowedMethods(), ", ")),
		mcp.WithString("method", mcp.Required(), mcp.Description("HTTP method"), mcp.Enum(webdav.AllowedMethods()...)),
		pathArg("Resource path relative to the server root"),
		mcp.WithObject("headers", mcp.Description("Extra request headers as a name to value map")),
		mcp.WithString("body", mcp.Description("Request body")),
	), s.withRequestID(ToolRequest, s.handleRequest))

	s.mcp.AddTool(mcp.NewTool(ToolListPresets,
		mcp.WithDescription("List the available property presets"),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.withRequestID(ToolListPresets, s.handleListPresets))

	s.mcp.AddTool(mcp.NewTool(ToolGetPreset,
		mcp.WithDescription("Show the properties of one preset"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("name", mcp.Required(), mcp.Description("Preset name")),
	), s.withRequestID(ToolGetPreset, s.handleGetPreset))

	s.mcp.AddTool(mcp.NewTool(ToolRenderPreset,
		mcp.WithDescription("Render the PROPFIND body a preset produces, without contacting the server"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("name", mcp.Required(), mcp.Description("Preset name")),
		propertiesArg("Extra properties to merge in"),
	), s.withRequestID(ToolRenderPreset, s.handleRenderPreset))
}
