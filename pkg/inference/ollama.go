package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/papercomputeco/chatmem/pkg/llm"
)

// Ollama talks to an Ollama server's native chat API.
type Ollama struct {
	baseURL    string
	model      string
	options    *llm.Options
	httpClient *http.Client
}

// NewOllama returns an Ollama gateway. Calls are bounded only by the
// context passed to Invoke.
func NewOllama(cfg Config) *Ollama {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &Ollama{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      cfg.Model,
		options:    cfg.Options,
		httpClient: &http.Client{},
	}
}

// Invoke sends a non-streaming /api/chat request.
func (o *Ollama) Invoke(ctx context.Context, messages []llm.Message) (string, error) {
	req := llm.NewChatRequest(o.model, messages)
	if !o.options.IsZero() {
		req.Options = o.options
	}

	var resp llm.ChatResponse
	if err := o.post(ctx, "/api/chat", req, &resp); err != nil {
		return "", &InferenceError{Model: o.model, Err: err}
	}
	return resp.Message.Content, nil
}

// Ping asks /api/show for the configured model, which fails when the server
// is down or the model is not installed.
func (o *Ollama) Ping(ctx context.Context) error {
	var resp llm.ShowResponse
	return o.post(ctx, "/api/show", &llm.ShowRequest{Name: o.model}, &resp)
}

func (o *Ollama) post(ctx context.Context, path string, body, out any) error {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var apiErr llm.ErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("ollama returned %d: %s", httpResp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("ollama returned %d: %s", httpResp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
