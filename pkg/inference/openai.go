package inference

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/papercomputeco/chatmem/pkg/llm"
)

// OpenAI talks to any OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI returns an OpenAI gateway. An empty BaseURL keeps the client's
// default (api.openai.com).
func NewOpenAI(cfg Config) *OpenAI {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(config),
		model:  cfg.Model,
	}
}

// Invoke creates a single chat completion.
func (o *OpenAI) Invoke(ctx context.Context, messages []llm.Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", &InferenceError{Model: o.model, Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &InferenceError{Model: o.model, Err: errors.New("no choices in completion response")}
	}
	return resp.Choices[0].Message.Content, nil
}

// Ping retrieves the configured model.
func (o *OpenAI) Ping(ctx context.Context) error {
	if _, err := o.client.GetModel(ctx, o.model); err != nil {
		return fmt.Errorf("get model: %w", err)
	}
	return nil
}
