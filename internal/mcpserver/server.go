// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes quick-note tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/quicknote/internal/apperr"
	"github.com/starford/quicknote/internal/history"
	"github.com/starford/quicknote/internal/noteservice"
	"github.com/starford/quicknote/internal/query"
)

// GrammarURI identifies the query grammar resource.
const GrammarURI = "quicknote://query-grammar"

// Server wraps the MCP server with quicknote tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all quicknote tools registered.
func New(svc *noteservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"quicknote",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("quick_note",
		mcp.WithDescription("Create a Joplin note, or append to the note with the same title. "+
			"Query format: <title> <content> [!notebook]. Quote multi-word titles and "+
			"notebooks: \"My title\" text !\"My notebook\". Read "+GrammarURI+" for details."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Launcher query line")),
	), s.quickNote)

	s.mcp.AddTool(mcp.NewTool("parse_query",
		mcp.WithDescription("Show how a query line splits into title, content and notebook without touching Joplin."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Launcher query line")),
	), s.parseQuery)

	s.mcp.AddTool(mcp.NewTool("recent_runs",
		mcp.WithDescription("List recent quick-note runs, newest first."),
		mcp.WithNumber("limit", mcp.Description(fmt.Sprintf("Maximum runs (default %d)", history.DefaultLimit))),
	), s.recentRuns)

	s.mcp.AddTool(mcp.NewTool("get_run",
		mcp.WithDescription("Get one recorded run by id, for example the id returned by an async submission."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Run id")),
	), s.getRun)

	s.mcp.AddResource(
		mcp.NewResource(GrammarURI, "Query Grammar",
			mcp.WithResourceDescription("How a quick-note query is split into title, content and notebook."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readGrammarResource,
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

func (s *Server) quickNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	run := s.svc.Submit(ctx, raw)
	text := run.Message.Title + ": " + run.Message.Text
	if !run.Outcome.Succeeded() {
		return mcp.NewToolResultError(text), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) parseQuery(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	q := query.Parse(raw)
	if !q.Valid() {
		return mcp.NewToolResultError(query.Usage), nil
	}
	out, _ := json.MarshalIndent(q, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) recentRuns(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runs, err := s.svc.History(ctx, req.GetInt("limit", history.DefaultLimit))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(runs) == 0 {
		return mcp.NewToolResultText("no runs recorded"), nil
	}
	out, _ := json.MarshalIndent(runs, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getRun(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	run, err := s.svc.Lookup(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("run not found: %s", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(run, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readGrammarResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      GrammarURI,
			MIMEType: "text/markdown",
			Text:     QueryGrammar,
		},
	}, nil
}
