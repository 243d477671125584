// Package mcp exposes the sales assistant as Model Context Protocol tools so
// an agent can hold customer conversations and browse the catalogue.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/pneumabot/internal/catalog"
	"github.com/ziadkadry99/pneumabot/internal/dialogue"
	"github.com/ziadkadry99/pneumabot/internal/session"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Conversation is the part of the dialogue engine the tools drive.
type Conversation interface {
	HandleTurn(ctx context.Context, sessionID, text string) (dialogue.Reply, error)
	Reset(ctx context.Context, sessionID string) error
	State(ctx context.Context, sessionID string) (*session.Context, error)
}

// Server wraps an MCP server over the dialogue engine and catalogue.
type Server struct {
	conv    Conversation
	catalog catalog.Port
	mcp     *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(conv Conversation, c catalog.Port) *Server {
	s := &Server{conv: conv, catalog: c}
	s.mcp = server.NewMCPServer(
		"pneumabot",
		Version,
		server.WithToolCapabilities(false),
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.mcp.AddTool(sendMessageTool, s.handleSendMessage)
	s.mcp.AddTool(searchCatalogTool, s.handleSearchCatalog)
	s.mcp.AddTool(strokeOptionsTool, s.handleStrokeOptions)
	s.mcp.AddTool(getSessionTool, s.handleGetSession)
	s.mcp.AddTool(resetSessionTool, s.handleResetSession)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
