package llm

// Roles understood by Ollama and OpenAI-compatible chat endpoints.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single message in a chat request or response.
type Message struct {
	Role    string `json:"role"`    // one of RoleSystem, RoleUser, RoleAssistant
	Content string `json:"content"` // The message content
}
