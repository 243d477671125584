package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/pneumabot/internal/catalog"
)

func (s *Server) handleSendMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: message"), nil
	}

	reply, err := s.conv.HandleTurn(ctx, id, message)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("turn failed: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString(reply.Text)
	sb.WriteString("\n\n---\n")
	fmt.Fprintf(&sb, "Stage: %s\n", reply.Stage)
	fmt.Fprintf(&sb, "Specification: %s\n", reply.Specification)
	fmt.Fprintf(&sb, "Confidence: %.2f\n", reply.Confidence)
	if reply.OrderID != "" {
		fmt.Fprintf(&sb, "Order: %s\n", reply.OrderID)
	}
	if reply.Error != "" {
		fmt.Fprintf(&sb, "Rejected: %s\n", reply.Error)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleSearchCatalog(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	limit := request.GetInt("limit", 10)
	if limit <= 0 {
		limit = 10
	}

	products, err := s.catalog.KeywordSearch(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(products) == 0 {
		return mcp.NewToolResultText("No products found."), nil
	}
	if len(products) > limit {
		products = products[:limit]
	}
	return mcp.NewToolResultText(formatProducts(products)), nil
}

func (s *Server) handleStrokeOptions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	diameter := request.GetInt("diameter", 0)
	if diameter <= 0 {
		return mcp.NewToolResultError("diameter must be a positive number of millimetres"), nil
	}

	opts, err := s.catalog.StrokeOptionsFor(ctx, diameter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
	}
	if len(opts) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No %d mm cylinders in stock.", diameter)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d stroke option(s) for %d mm bore, %s unit(s) in stock:\n", len(opts), diameter, formatQty(opts.TotalStock()))
	for _, o := range opts {
		fmt.Fprintf(&sb, "- %d mm: %s in stock across %d product(s)\n", o.Value, formatQty(o.TotalStock), len(o.Products))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}
	c, err := s.conv.State(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reading session: %v", err)), nil
	}
	if c == nil {
		return mcp.NewToolResultError(fmt.Sprintf("no session %q", id)), nil
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding session: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleResetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}
	if err := s.conv.Reset(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reset failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Session %s reset.", id)), nil
}

// formatProducts renders products as a compact list for agents.
func formatProducts(products []catalog.ProductRef) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d product(s):\n", len(products))
	for _, p := range products {
		fmt.Fprintf(&sb, "- %s | %s", p.Code, p.DisplayName)
		if p.Brand != "" {
			fmt.Fprintf(&sb, " | %s", p.Brand)
		}
		fmt.Fprintf(&sb, " | stock %s | %.2f TL\n", formatQty(p.Stock), p.UnitPrice)
	}
	return sb.String()
}

func formatQty(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
