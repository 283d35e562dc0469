// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes literate-programming tools for LLM integration via
// stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mossdal/loom/internal/archive"
	"github.com/mossdal/loom/internal/extract"
	"github.com/mossdal/loom/internal/placeholder"
	"github.com/mossdal/loom/internal/tangle"
)

// Server wraps the MCP server with loom tools.
type Server struct {
	mcp   *server.MCPServer
	store archive.Store
}

// New creates a new MCP server with all loom tools registered.
func New(store archive.Store) *Server {
	s := &Server{store: store}

	s.mcp = server.NewMCPServer(
		"Loom",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("extract_definition",
		mcp.WithDescription("Extract a single top-level definition (function or class) from a source file by name."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the source file (.py or .rs)")),
		mcp.WithString("identifier", mcp.Required(), mcp.Description("Name of the definition to extract")),
	), s.extractDefinition)

	s.mcp.AddTool(mcp.NewTool("resolve_placeholders",
		mcp.WithDescription("Resolve @{file} and @{file:identifier} placeholders in a Markdown document. "+
			"Placeholders that cannot be resolved are left untouched. Read the format contract first via "+
			"the get_format_contract tool or the loom://literate-format resource."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Markdown text containing placeholders")),
		mcp.WithString("base_dir", mcp.Description("Directory placeholder paths are resolved against (default: current directory)")),
	), s.resolvePlaceholders)

	s.mcp.AddTool(mcp.NewTool("tangle_document",
		mcp.WithDescription("Extract source files from a literate Markdown document. "+
			"Returns a JSON object mapping output filenames to file contents."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the literate Markdown document")),
	), s.tangleDocument)

	s.mcp.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Read an archived document by path."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the archived document")),
	), s.getDocument)

	s.mcp.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Search archived documents by path and content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchDocuments)

	s.mcp.AddTool(mcp.NewTool("get_format_contract",
		mcp.WithDescription("Returns the canonical literate document format contract. "+
			"Call this before writing literate Markdown documents."),
	), s.getFormatContract)

	// Resource: literate document format contract.
	s.mcp.AddResource(
		mcp.NewResource("loom://literate-format", "Literate Document Format Contract",
			mcp.WithResourceDescription("Canonical literate Markdown format that all documents must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) extractDefinition(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	identifier, err := req.RequireString("identifier")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, found, err := extract.Definition(path, identifier)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("definition not found: %s in %s", identifier, path)), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) resolvePlaceholders(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	baseDir := "."
	if d, dirErr := req.RequireString("base_dir"); dirErr == nil && d != "" {
		baseDir = d
	}
	return mcp.NewToolResultText(placeholder.Resolve(text, baseDir)), nil
}

func (s *Server) tangleDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	files, err := tangle.File(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(files, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := s.store.Get(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.store.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getFormatContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(LiterateFormatContract), nil
}

func (s *Server) readFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "loom://literate-format",
			MIMEType: "text/markdown",
			Text:     LiterateFormatContract,
		},
	}, nil
}
