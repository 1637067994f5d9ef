// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes feedpost publishing tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/feedpost/internal/assemble"
	"github.com/starford/feedpost/internal/ledger"
	"github.com/starford/feedpost/internal/microfeed"
	"github.com/starford/feedpost/internal/publisher"
	"github.com/starford/feedpost/internal/storage"
)

// ContractURI identifies the front-matter contract resource.
const ContractURI = "feedpost://frontmatter"

// Publisher is the subset of publisher.Service the tools use.
type Publisher interface {
	Publish(ctx context.Context, notePath string, ov assemble.Overrides) (*publisher.Result, error)
	Preview(notePath string) (*publisher.Preview, error)
}

// Server wraps the MCP server with feedpost tools.
type Server struct {
	mcp    *server.MCPServer
	store  storage.Provider
	pub    Publisher
	ledger ledger.Store
}

// New creates an MCP server with all tools registered. ledger may be nil.
func New(store storage.Provider, pub Publisher, l ledger.Store, version string) *Server {
	s := &Server{store: store, pub: pub, ledger: l}

	s.mcp = server.NewMCPServer(
		"feedpost",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("preview_note",
		mcp.WithDescription("Parse a note and show its title, front matter, media and the attachment that would be chosen. Makes no network calls."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. podcast/episode-1.md)")),
	), s.previewNote)

	s.mcp.AddTool(mcp.NewTool("publish_note",
		mcp.WithDescription("Upload the note's media and create or update its Microfeed item. "+
			"Read the front-matter contract first via get_frontmatter_contract or the "+ContractURI+" resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note")),
		mcp.WithString("status", mcp.Description("Override status: published, unpublished or unlisted")),
		mcp.WithString("title", mcp.Description("Override title")),
	), s.publishNote)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List all notes or notes in a specific folder."),
		mcp.WithString("folder", mcp.Description("Optional folder to list (empty for all)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("list_published",
		mcp.WithDescription("List notes that have been published, newest first."),
	), s.listPublished)

	s.mcp.AddTool(mcp.NewTool("get_frontmatter_contract",
		mcp.WithDescription("Returns the front-matter fields feedpost reads when publishing a note."),
	), s.getContract)

	s.mcp.AddTool(mcp.NewTool("save_attachment",
		mcp.WithDescription("Store a base64 data URI in the vault so a note can embed it. "+
			"Returns the embed to paste into the note body."),
		mcp.WithString("data", mcp.Required(), mcp.Description("data:<mime>;base64,<payload>")),
		mcp.WithString("filename", mcp.Description("Optional file name; derived from the MIME type when empty")),
		mcp.WithString("folder", mcp.Description("Vault folder to save into (default "+defaultAttachmentDir+")")),
	), s.saveAttachment)

	s.mcp.AddResource(
		mcp.NewResource(ContractURI, "Front-matter Contract",
			mcp.WithResourceDescription("Front-matter fields and media conventions feedpost understands."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
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

func (s *Server) previewNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.pub.Preview(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(p)
}

func (s *Server) publishNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var ov assemble.Overrides
	if v, err := req.RequireString("status"); err == nil && v != "" {
		st, ok := microfeed.ParseStatus(v)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("invalid status %q", v)), nil
		}
		ov.Status = &st
	}
	if v, err := req.RequireString("title"); err == nil && v != "" {
		ov.Title = &v
	}

	res, err := s.pub.Publish(ctx, path, ov)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := ""
	if f, err := req.RequireString("folder"); err == nil {
		folder = f
	}

	metas, err := s.store.List(folder)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	paths := make([]string, 0, len(metas))
	for _, m := range metas {
		paths = append(paths, m.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) listPublished(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.ledger == nil {
		return mcp.NewToolResultError("publish ledger is disabled"), nil
	}
	recs, err := s.ledger.List()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(recs)
}

func (s *Server) getContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(FrontmatterContract), nil
}

func (s *Server) readContractResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ContractURI,
			MIMEType: "text/markdown",
			Text:     FrontmatterContract,
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
