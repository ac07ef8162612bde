package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/chatmem/pkg/archive"
	"github.com/papercomputeco/chatmem/pkg/llm"
)

// HistoryResponse contains the archived conversation leading to a node.
type HistoryResponse struct {
	// Messages in chronological order (oldest first, up to and including the requested node)
	Messages []HistoryMessage `json:"messages"`
	// HeadHash is the hash of the node that was requested
	HeadHash string `json:"head_hash"`
	// Depth is the number of messages in the history
	Depth int `json:"depth"`
}

// HistoryMessage is one archived turn.
type HistoryMessage struct {
	Hash       string  `json:"hash"`
	ParentHash *string `json:"parent_hash,omitempty"`
	Role       string  `json:"role"`
	Content    string  `json:"content"`
	Model      string  `json:"model,omitempty"`
}

func (s *Server) storer() archive.Storer {
	if rec := s.session.Recorder(); rec != nil {
		return rec.Storer()
	}
	return nil
}

func archiveDisabled(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "archive is not enabled"})
}

// handleArchiveStats returns node, root and leaf counts.
func (s *Server) handleArchiveStats(c *fiber.Ctx) error {
	storer := s.storer()
	if storer == nil {
		return archiveDisabled(c)
	}
	ctx := c.UserContext()

	nodes, err := storer.List(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to list nodes"})
	}

	roots, err := storer.Roots(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to get roots"})
	}

	leaves, err := storer.Leaves(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to get leaves"})
	}

	return c.JSON(map[string]any{
		"total_nodes": len(nodes),
		"root_count":  len(roots),
		"leaf_count":  len(leaves),
	})
}

// handleListHistories returns one history per leaf node. Every cleared
// conversation ends in its own leaf.
func (s *Server) handleListHistories(c *fiber.Ctx) error {
	storer := s.storer()
	if storer == nil {
		return archiveDisabled(c)
	}
	ctx := c.UserContext()

	leaves, err := storer.Leaves(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to get leaves"})
	}

	histories := make([]HistoryResponse, 0, len(leaves))
	for _, leaf := range leaves {
		history, err := buildHistory(ctx, storer, leaf.Hash)
		if err != nil {
			s.logger.Warn("failed to build history for leaf", zap.String("hash", leaf.Hash), zap.Error(err))
			continue
		}
		histories = append(histories, *history)
	}

	return c.JSON(map[string]any{
		"count":     len(histories),
		"histories": histories,
	})
}

// handleGetHistory returns the conversation leading up to a given node.
func (s *Server) handleGetHistory(c *fiber.Ctx) error {
	storer := s.storer()
	if storer == nil {
		return archiveDisabled(c)
	}

	hash := c.Params("hash")
	if hash == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "hash parameter required"})
	}

	history, err := buildHistory(c.UserContext(), storer, hash)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "node not found"})
	}

	return c.JSON(history)
}

func buildHistory(ctx context.Context, storer archive.Storer, hash string) (*HistoryResponse, error) {
	chain, err := archive.History(ctx, storer, hash)
	if err != nil {
		return nil, err
	}

	messages := make([]HistoryMessage, len(chain))
	for i, node := range chain {
		messages[i] = HistoryMessage{
			Hash:       node.Hash,
			ParentHash: node.ParentHash,
			Role:       node.Entry.Role,
			Content:    node.Entry.Content,
			Model:      node.Entry.Model,
		}
	}

	return &HistoryResponse{
		Messages: messages,
		HeadHash: hash,
		Depth:    len(messages),
	}, nil
}
