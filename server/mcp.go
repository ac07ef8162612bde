package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/chatmem/pkg/session"
)

const (
	mcpName    = "chatmem"
	mcpVersion = "0.1.0"
)

type sendMessageInput struct {
	Message string `json:"message" jsonschema:"the message to send to the assistant"`
}

type clearHistoryInput struct{}

// mcpHandler exposes the session as MCP tools. Tool calls go through the
// same dispatcher as form posts, so they share its turn ordering.
func (s *Server) mcpHandler() http.Handler {
	srv := mcp.NewServer(&mcp.Implementation{Name: mcpName, Version: mcpVersion}, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "send_message",
		Description: "Send one message to the assistant. The exchange is added to the persisted conversation.",
	}, s.sendMessageTool)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "clear_history",
		Description: "Forget the conversation so far and start fresh.",
	}, s.clearHistoryTool)

	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return srv
	}, &mcp.StreamableHTTPOptions{
		Stateless:    true,
		JSONResponse: true,
	})
}

func (s *Server) sendMessageTool(ctx context.Context, _ *mcp.CallToolRequest, in sendMessageInput) (*mcp.CallToolResult, ChatResponse, error) {
	if session.Classify(in.Message) == session.KindEmpty {
		return nil, ChatResponse{}, errors.New("message is required")
	}
	return s.toolResult(s.dispatch(ctx, in.Message))
}

func (s *Server) clearHistoryTool(ctx context.Context, _ *mcp.CallToolRequest, _ clearHistoryInput) (*mcp.CallToolResult, ChatResponse, error) {
	return s.toolResult(s.dispatch(ctx, "clear"))
}

func (s *Server) toolResult(status int, resp ChatResponse) (*mcp.CallToolResult, ChatResponse, error) {
	if status != fiber.StatusOK {
		return nil, ChatResponse{}, errors.New(resp.Response)
	}
	return nil, resp, nil
}
