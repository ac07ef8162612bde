package server

import (
	"context"
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/chatmem/pkg/logger"
	"github.com/papercomputeco/chatmem/pkg/session"
)

// ChatResponse is the JSON body of every POST reply.
type ChatResponse struct {
	Response string `json:"response"`
	Shutdown bool   `json:"shutdown,omitempty"`
}

// handleChat runs one turn for the form field "message". The body is parsed
// as a form whatever its Content-Type; a missing field is empty input.
func (s *Server) handleChat(c *fiber.Ctx) error {
	// A malformed body still yields whatever pairs parsed cleanly.
	values, _ := url.ParseQuery(string(c.Body()))
	message := values.Get("message")

	s.logger.Debug("received chat request",
		zap.String("path", c.Path()),
		zap.String("message_preview", logger.Preview(message, 100)),
	)

	status, resp := s.dispatch(c.UserContext(), message)
	return c.Status(status).JSON(resp)
}

// dispatch maps a session outcome onto an HTTP status and body. It is shared
// by the form endpoint and the MCP tools.
func (s *Server) dispatch(ctx context.Context, message string) (int, ChatResponse) {
	outcome := s.session.Handle(ctx, message)

	if outcome.Err != nil {
		if errors.Is(outcome.Err, session.ErrStopped) {
			return fiber.StatusServiceUnavailable, ChatResponse{Response: "Error: server is shutting down"}
		}
		return fiber.StatusInternalServerError, ChatResponse{Response: "Error: " + outcome.Err.Error()}
	}

	switch outcome.Kind {
	case session.KindExit:
		s.logger.Info("exit command received, no longer accepting connections")
		s.shutdownAsync()
		return fiber.StatusOK, ChatResponse{Response: outcome.Reply, Shutdown: true}
	default:
		return fiber.StatusOK, ChatResponse{Response: outcome.Reply}
	}
}
