package toolproxy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MCPHandlers adapts the service to MCP tool calls.
type MCPHandlers struct {
	service *Service
}

// NewMCPHandlers creates the MCP tool handlers.
func NewMCPHandlers(service *Service) *MCPHandlers {
	return &MCPHandlers{service: service}
}

// HandleUserProfile serves get_user_profile.
func (h *MCPHandlers) HandleUserProfile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := req.GetString("user_id", "")
	if userID == "" {
		return mcp.NewToolResultError("user_id is required"), nil
	}
	return jsonResult(h.service.GetUserProfile(ctx, userID))
}

// HandleTransactions serves get_transactions.
func (h *MCPHandlers) HandleTransactions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := req.GetString("user_id", "")
	if userID == "" {
		return mcp.NewToolResultError("user_id is required"), nil
	}
	limit := req.GetInt("limit", DefaultTransactionLimit)
	return jsonResult(h.service.GetTransactions(ctx, userID, limit))
}

// HandleFlag serves flag_transaction.
func (h *MCPHandlers) HandleFlag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	txnID := req.GetString("txn_id", "")
	reason := req.GetString("reason", "")
	if txnID == "" || reason == "" {
		return mcp.NewToolResultError("txn_id and reason are required"), nil
	}

	ack, err := h.service.FlagTransaction(ctx, txnID, reason)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to flag transaction: %v", err)), nil
	}
	return jsonResult(ack)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// NewMCPServer creates an MCP server exposing the three tools.
func NewMCPServer(service *Service, version string) *server.MCPServer {
	s := server.NewMCPServer("fraudgate-tools", version)
	h := NewMCPHandlers(service)

	s.AddTool(ToolUserProfile, h.HandleUserProfile)
	s.AddTool(ToolTransactions, h.HandleTransactions)
	s.AddTool(ToolFlag, h.HandleFlag)

	return s
}

// NewMCPHTTPHandler serves the MCP server over streamable HTTP without sessions.
func NewMCPHTTPHandler(s *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(s, server.WithStateLess(true))
}
