// Package mcp exposes the launcher's search and window control as Model
// Context Protocol tools over stdio.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/sparknova/internal/logging"
	"github.com/1broseidon/sparknova/internal/search"
)

const (
	ServerName    = "sparknova"
	ServerVersion = "0.1.0"
)

// Launcher is what the tools operate on: the running launcher over IPC, or a
// local store when it is not running.
type Launcher interface {
	Search(ctx context.Context, query string) ([]search.Item, error)
	History(ctx context.Context) ([]string, error)
	ClearHistory(ctx context.Context) error
	Show(ctx context.Context) error
	Hide(ctx context.Context) error
}

// Server is the MCP server for sparknova.
type Server struct {
	mcpServer *mcpsdk.Server
	launcher  Launcher
	logger    *slog.Logger
}

// NewServer creates a new MCP server backed by launcher.
func NewServer(launcher Launcher, logger *slog.Logger) (*Server, error) {
	if launcher == nil {
		return nil, errors.New("mcp server requires a launcher")
	}
	if logger == nil {
		logger = logging.Discard()
	}

	s := &Server{launcher: launcher, logger: logger}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "search",
		Description: "Search installed applications, files, $PATH commands and configured plugins. Results are ranked best first and the query is recorded in the launcher history.",
	}, s.handleSearch)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_history",
		Description: "List recent launcher queries, most recent first (at most 50).",
	}, s.handleGetHistory)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "clear_history",
		Description: "Clear the launcher query history.",
	}, s.handleClearHistory)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "show_window",
		Description: "Show the launcher window and focus its search input. Requires the launcher to be running.",
	}, s.handleShowWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "hide_window",
		Description: "Hide the launcher window. Requires the launcher to be running.",
	}, s.handleHideWindow)
}

func (s *Server) handleSearch(ctx context.Context, _ *mcpsdk.CallToolRequest, args SearchInput) (*mcpsdk.CallToolResult, SearchOutput, error) {
	query := strings.TrimSpace(args.Query)
	if query == "" {
		return nil, SearchOutput{}, fmt.Errorf("query is required")
	}
	if args.Limit < 0 {
		return nil, SearchOutput{}, fmt.Errorf("limit must be >= 0")
	}

	results, err := s.launcher.Search(ctx, query)
	if err != nil {
		s.logger.Warn("mcp search failed", "query", query, "error", err)
		return nil, SearchOutput{}, fmt.Errorf("search failed: %w", err)
	}
	if results == nil {
		results = []search.Item{}
	}
	if args.Limit > 0 && len(results) > args.Limit {
		results = results[:args.Limit]
	}
	s.logger.Debug("mcp search", "query", query, "results", len(results))
	return nil, SearchOutput{Query: query, Results: results}, nil
}

func (s *Server) handleGetHistory(ctx context.Context, _ *mcpsdk.CallToolRequest, args GetHistoryInput) (*mcpsdk.CallToolResult, GetHistoryOutput, error) {
	history, err := s.launcher.History(ctx)
	if err != nil {
		return nil, GetHistoryOutput{}, fmt.Errorf("failed to read history: %w", err)
	}
	if history == nil {
		history = []string{}
	}
	if args.Limit > 0 && len(history) > args.Limit {
		history = history[:args.Limit]
	}
	return nil, GetHistoryOutput{History: history}, nil
}

func (s *Server) handleClearHistory(ctx context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if err := s.launcher.ClearHistory(ctx); err != nil {
		return nil, ActionOutput{}, fmt.Errorf("failed to clear history: %w", err)
	}
	return nil, ActionOutput{OK: true, Message: "history cleared"}, nil
}

func (s *Server) handleShowWindow(ctx context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if err := s.launcher.Show(ctx); err != nil {
		return nil, ActionOutput{}, fmt.Errorf("failed to show window: %w", err)
	}
	return nil, ActionOutput{OK: true, Message: "window shown"}, nil
}

func (s *Server) handleHideWindow(ctx context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if err := s.launcher.Hide(ctx); err != nil {
		return nil, ActionOutput{}, fmt.Errorf("failed to hide window: %w", err)
	}
	return nil, ActionOutput{OK: true, Message: "window hidden"}, nil
}
