package llm

// ChatRequest represents a chat completion request (Ollama-compatible).
type ChatRequest struct {
	Model    string    `json:"model"`            // Model name (e.g., "llama3", "mistral")
	Messages []Message `json:"messages"`         // System instruction, history and the new message
	Stream   *bool     `json:"stream,omitempty"` // Ollama streams unless this is explicitly false

	// Generation options
	Options *Options `json:"options,omitempty"`

	// Keep model loaded
	KeepAlive string `json:"keep_alive,omitempty"`
}

// NewChatRequest builds a non-streaming request for model.
func NewChatRequest(model string, messages []Message) *ChatRequest {
	stream := false
	return &ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   &stream,
	}
}

// ShowRequest asks Ollama for the details of a locally installed model.
type ShowRequest struct {
	Name string `json:"name"`
}
