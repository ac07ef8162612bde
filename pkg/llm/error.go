// Package llm holds the Ollama chat wire types spoken by the inference gateway.
package llm

// ErrorResponse is the JSON error body returned by Ollama on non-2xx
// responses. The archive endpoints reply with the same shape.
type ErrorResponse struct {
	Error string `json:"error"`
}
