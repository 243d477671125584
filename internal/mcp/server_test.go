package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/pneumabot/internal/catalog"
	"github.com/ziadkadry99/pneumabot/internal/catalog/catalogtest"
	"github.com/ziadkadry99/pneumabot/internal/dialogue"
	"github.com/ziadkadry99/pneumabot/internal/session"
	"github.com/ziadkadry99/pneumabot/internal/spec"
)

// mockConversation implements Conversation for testing.
type mockConversation struct {
	sessions map[string]*session.Context
	err      error
}

func newMockConversation() *mockConversation {
	return &mockConversation{sessions: map[string]*session.Context{}}
}

func (m *mockConversation) HandleTurn(_ context.Context, id, text string) (dialogue.Reply, error) {
	if m.err != nil {
		return dialogue.Reply{}, m.err
	}
	c := session.New(id, time.Now())
	c.Stage = session.StageSpecGathering
	c.Spec.Diameter = spec.Int(100)
	m.sessions[id] = c
	return dialogue.Reply{
		Text:          "100 mm çap için hangi strok?",
		Stage:         c.Stage,
		Specification: c.Spec,
		Confidence:    0.6,
	}, nil
}

func (m *mockConversation) Reset(_ context.Context, id string) error {
	delete(m.sessions, id)
	return m.err
}

func (m *mockConversation) State(_ context.Context, id string) (*session.Context, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.sessions[id], nil
}

func newTestServer() (*Server, *mockConversation) {
	conv := newMockConversation()
	svc, _ := catalogtest.NewService(
		catalog.ProductRef{Code: "A1", DisplayName: "ANS 100*200 SIL", Brand: "ACME", Stock: 5, UnitPrice: 1200},
		catalog.ProductRef{Code: "A2", DisplayName: "ANS 100*300 SIL", Stock: 2},
		catalog.ProductRef{Code: "T1", DisplayName: "KÖR TAPA 1/4", Stock: 12, UnitPrice: 15},
		catalog.ProductRef{Code: "T2", DisplayName: "KÖR TAPA 1/8", Stock: 4, UnitPrice: 12},
	)
	return NewServer(conv, svc), conv
}

func call(t *testing.T, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	result, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want text", result.Content[0])
	}
	return text.Text, result.IsError
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		tool     mcp.Tool
		wantName string
	}{
		{"send_message", sendMessageTool, "send_message"},
		{"search_catalog", searchCatalogTool, "search_catalog"},
		{"stroke_options", strokeOptionsTool, "stroke_options"},
		{"get_session", getSessionTool, "get_session"},
		{"reset_session", resetSessionTool, "reset_session"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	srv, _ := newTestServer()
	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
}

func TestHandleSendMessage(t *testing.T) {
	srv, _ := newTestServer()

	text, isErr := call(t, srv.handleSendMessage, map[string]any{"session_id": "agent:1", "message": "100 çap silindir"})
	if isErr {
		t.Fatalf("tool error: %s", text)
	}
	if !strings.Contains(text, "hangi strok") || !strings.Contains(text, "Stage: spec_gathering") {
		t.Errorf("text = %q", text)
	}

	if _, isErr := call(t, srv.handleSendMessage, map[string]any{"session_id": "agent:1"}); !isErr {
		t.Error("expected error for missing message")
	}
}

func TestHandleSendMessageFailure(t *testing.T) {
	srv, conv := newTestServer()
	conv.err = errors.New("store offline")
	text, isErr := call(t, srv.handleSendMessage, map[string]any{"session_id": "a", "message": "x"})
	if !isErr || !strings.Contains(text, "store offline") {
		t.Errorf("result = %q, %v", text, isErr)
	}
}

func TestHandleSearchCatalog(t *testing.T) {
	srv, _ := newTestServer()

	text, isErr := call(t, srv.handleSearchCatalog, map[string]any{"query": "kör tapa"})
	if isErr {
		t.Fatalf("tool error: %s", text)
	}
	if !strings.Contains(text, "Found 2 product(s)") || !strings.Contains(text, "T1 | KÖR TAPA 1/4") {
		t.Errorf("text = %q", text)
	}

	text, _ = call(t, srv.handleSearchCatalog, map[string]any{"query": "kör tapa", "limit": 1})
	if !strings.Contains(text, "Found 1 product(s)") {
		t.Errorf("limit ignored: %q", text)
	}

	text, _ = call(t, srv.handleSearchCatalog, map[string]any{"query": "hortum"})
	if text != "No products found." {
		t.Errorf("text = %q", text)
	}

	if _, isErr := call(t, srv.handleSearchCatalog, map[string]any{}); !isErr {
		t.Error("expected error for missing query")
	}
}

func TestHandleStrokeOptions(t *testing.T) {
	srv, _ := newTestServer()

	text, isErr := call(t, srv.handleStrokeOptions, map[string]any{"diameter": 100})
	if isErr {
		t.Fatalf("tool error: %s", text)
	}
	if !strings.Contains(text, "- 200 mm: 5 in stock") || !strings.Contains(text, "- 300 mm: 2 in stock") {
		t.Errorf("text = %q", text)
	}

	text, _ = call(t, srv.handleStrokeOptions, map[string]any{"diameter": 40})
	if !strings.Contains(text, "No 40 mm cylinders") {
		t.Errorf("text = %q", text)
	}

	if _, isErr := call(t, srv.handleStrokeOptions, map[string]any{"diameter": -1}); !isErr {
		t.Error("expected error for a negative diameter")
	}
}

func TestHandleSessionTools(t *testing.T) {
	srv, conv := newTestServer()

	if _, isErr := call(t, srv.handleGetSession, map[string]any{"session_id": "agent:1"}); !isErr {
		t.Error("expected error for an unknown session")
	}

	call(t, srv.handleSendMessage, map[string]any{"session_id": "agent:1", "message": "100 çap"})
	text, isErr := call(t, srv.handleGetSession, map[string]any{"session_id": "agent:1"})
	if isErr || !strings.Contains(text, `"stage": "spec_gathering"`) || !strings.Contains(text, `"diameter": 100`) {
		t.Errorf("get_session = %q, %v", text, isErr)
	}

	text, isErr = call(t, srv.handleResetSession, map[string]any{"session_id": "agent:1"})
	if isErr || !strings.Contains(text, "reset") {
		t.Errorf("reset_session = %q, %v", text, isErr)
	}
	if _, ok := conv.sessions["agent:1"]; ok {
		t.Error("session survived reset")
	}
}
