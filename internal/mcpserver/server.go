// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes StickIt note tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/stickit/internal/apperr"
	"github.com/starford/stickit/internal/markdown"
	"github.com/starford/stickit/internal/models"
	"github.com/starford/stickit/internal/noteservice"
)

// FormatResourceURI is the URI of the markdown format resource.
const FormatResourceURI = "stickit://markdown-format"

const searchLimit = 20

// Server wraps the MCP server with StickIt tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all StickIt tools registered.
func New(svc *noteservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"StickIt",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)
	s.mcp.AddTools(s.Tools()...)

	s.mcp.AddResource(
		mcp.NewResource(FormatResourceURI, "Markdown Format",
			mcp.WithResourceDescription("Line grammar of StickIt notes: headers, checkboxes, links and code blocks."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

	return s
}

// Tools returns every tool definition paired with its handler.
func (s *Server) Tools() []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: mcp.NewTool("list_notes",
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithDescription("List notes, pinned first, most recently modified next."),
				mcp.WithBoolean("pinned", mcp.Description("Only list pinned notes")),
				mcp.WithNumber("limit", mcp.Description("Maximum number of notes (default 50)")),
			),
			Handler: s.listNotes,
		},
		{
			Tool: mcp.NewTool("read_note",
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithDescription("Read a note with its content and checksum."),
				mcp.WithString("id", mcp.Required(), mcp.Description("Note ID")),
			),
			Handler: s.readNote,
		},
		{
			Tool: mcp.NewTool("create_note",
				mcp.WithDescription("Create a new note. Content MUST follow the StickIt markdown format; "+
					"read it first via get_markdown_contract or the "+FormatResourceURI+" resource."),
				mcp.WithString("name", mcp.Required(), mcp.Description("Note title")),
				mcp.WithString("content", mcp.Description("Note body in StickIt markdown")),
				mcp.WithString("color", mcp.Description("Note colour"), mcp.Enum(models.Palette...)),
			),
			Handler: s.createNote,
		},
		{
			Tool: mcp.NewTool("update_note",
				mcp.WithDescription("Replace the content of a note. Pass the checksum from read_note as "+
					"if_match to fail instead of overwriting a concurrent edit."),
				mcp.WithString("id", mcp.Required(), mcp.Description("Note ID")),
				mcp.WithString("content", mcp.Required(), mcp.Description("New note body")),
				mcp.WithString("if_match", mcp.Description("Expected checksum of the current content")),
			),
			Handler: s.updateNote,
		},
		{
			Tool: mcp.NewTool("get_note_nodes",
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithDescription("Parse a note into its node sequence (headers, checkboxes, links, code blocks, paragraphs)."),
				mcp.WithString("id", mcp.Required(), mcp.Description("Note ID")),
			),
			Handler: s.getNoteNodes,
		},
		{
			Tool: mcp.NewTool("toggle_checkbox",
				mcp.WithDescription("Flip the checkbox at a node index returned by get_note_nodes."),
				mcp.WithString("id", mcp.Required(), mcp.Description("Note ID")),
				mcp.WithNumber("index", mcp.Required(), mcp.Description("Node index of the checkbox")),
				mcp.WithString("if_match", mcp.Description("Expected checksum of the current content")),
			),
			Handler: s.toggleCheckbox,
		},
		{
			Tool: mcp.NewTool("search_notes",
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithDescription("Search note names and content."),
				mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
			),
			Handler: s.searchNotes,
		},
		{
			Tool: mcp.NewTool("get_markdown_contract",
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithDescription("Returns the StickIt markdown format. "+
					"Call this before creating or updating notes to ensure correct structure."),
			),
			Handler: s.getMarkdownContract,
		},
	}
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type noteSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Color        string    `json:"color"`
	Pinned       bool      `json:"pinned"`
	LastModified time.Time `json:"last_modified"`
}

type noteDetail struct {
	models.Note
	Checksum string `json:"checksum"`
}

type toggleResult struct {
	ID       string `json:"id"`
	Checksum string `json:"checksum"`
	Label    string `json:"label"`
	Checked  bool   `json:"checked"`
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 0)
	pinned := req.GetBool("pinned", false)

	notes, total, err := s.svc.ListNotes(ctx, limit, 0, pinned)
	if err != nil {
		return toolError(err), nil
	}
	out := struct {
		Notes []noteSummary `json:"notes"`
		Total int           `json:"total"`
	}{Notes: make([]noteSummary, len(notes)), Total: total}
	for i, n := range notes {
		out.Notes[i] = noteSummary{ID: n.ID, Name: n.Name, Color: n.Color, Pinned: n.Pinned, LastModified: n.LastModified}
	}
	return jsonResult(out)
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.GetNote(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(noteDetail{Note: *n, Checksum: n.Checksum()})
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.CreateNote(ctx, name, req.GetString("content", ""), req.GetString("color", ""))
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", n.ID)), nil
}

func (s *Server) updateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.UpdateContent(ctx, id, content, req.GetString("if_match", ""))
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated: %s (checksum %s)", n.ID, n.Checksum())), nil
}

func (s *Server) getNoteNodes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, nodes, err := s.svc.Document(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	total, completed := markdown.TaskStats(nodes)
	return jsonResult(map[string]any{
		"id":              n.ID,
		"checksum":        n.Checksum(),
		"tasks_total":     total,
		"tasks_completed": completed,
		"nodes":           nodes,
	})
}

func (s *Server) toggleCheckbox(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	index, err := req.RequireInt("index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.ToggleCheckbox(ctx, id, index, req.GetString("if_match", ""))
	if err != nil {
		return toolError(err), nil
	}
	res := toggleResult{ID: n.ID, Checksum: n.Checksum()}
	if nodes := markdown.Parse(n.Content); index < len(nodes) {
		if cb, ok := nodes[index].Kind.(markdown.Checkbox); ok {
			res.Label, res.Checked = cb.Label, cb.Checked
		}
	}
	return jsonResult(res)
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, searchLimit)
	if err != nil {
		return toolError(err), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("no notes found"), nil
	}
	return jsonResult(results)
}

func (s *Server) getMarkdownContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(MarkdownFormatContract), nil
}

func (s *Server) readFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      FormatResourceURI,
			MIMEType: "text/markdown",
			Text:     MarkdownFormatContract,
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

// toolError turns a service error into a tool error result. Known sentinel
// errors are reported with their message; anything else is opaque.
func toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("note not found")
	case errors.Is(err, apperr.ErrConflict):
		return mcp.NewToolResultError("checksum mismatch: the note changed, read it again")
	case errors.Is(err, apperr.ErrInvalid), errors.Is(err, apperr.ErrAlreadyExists):
		return mcp.NewToolResultError(err.Error())
	default:
		slog.Error("mcp tool failed", slog.String("error", err.Error()))
		return mcp.NewToolResultError("internal error")
	}
}
