package llm

import "time"

// ChatResponse represents a non-streaming chat completion response (Ollama-compatible).
type ChatResponse struct {
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	Message   Message   `json:"message"`
	Done      bool      `json:"done"`

	// Metrics, in nanoseconds and tokens
	TotalDuration   int64 `json:"total_duration,omitempty"`
	LoadDuration    int64 `json:"load_duration,omitempty"`
	PromptEvalCount int   `json:"prompt_eval_count,omitempty"`
	EvalCount       int   `json:"eval_count,omitempty"`
	EvalDuration    int64 `json:"eval_duration,omitempty"`
}

// ShowResponse is the subset of Ollama's /api/show reply used to confirm a model exists.
type ShowResponse struct {
	Modelfile string `json:"modelfile"`
	Template  string `json:"template"`
	Details   struct {
		Family            string `json:"family"`
		ParameterSize     string `json:"parameter_size"`
		QuantizationLevel string `json:"quantization_level"`
	} `json:"details"`
}
