// Package inference is the boundary to the external text-generation engine.
package inference

import (
	"context"
	"fmt"

	"github.com/papercomputeco/chatmem/pkg/llm"
)

// Providers understood by New.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Gateway sends an assembled prompt to an inference engine and returns the
// generated text. Implementations do not retry.
type Gateway interface {
	// Invoke returns the reply for messages, or an *InferenceError.
	Invoke(ctx context.Context, messages []llm.Message) (string, error)

	// Ping confirms the engine is reachable and the model is available.
	Ping(ctx context.Context) error
}

// InferenceError wraps any failure of a generation call.
type InferenceError struct {
	Model string
	Err   error
}

func (e *InferenceError) Error() string {
	return e.Err.Error()
}

func (e *InferenceError) Unwrap() error { return e.Err }

// StartupError reports that the inference engine is unusable at process
// start. It is the only error that terminates chatmem.
type StartupError struct {
	Model string
	Err   error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("error initializing model %q: %v", e.Model, e.Err)
}

func (e *StartupError) Unwrap() error { return e.Err }

// Hint is the operator-facing advice printed alongside a StartupError.
func (e *StartupError) Hint() string {
	return fmt.Sprintf("Ensure Ollama is running and '%s' is installed (check with 'ollama list').", e.Model)
}

// Config selects and configures a Gateway.
type Config struct {
	// Provider is ProviderOllama (default) or ProviderOpenAI.
	Provider string

	// Model is the model name passed to the engine.
	Model string

	// BaseURL is the engine endpoint, e.g. "http://localhost:11434" for Ollama
	// or "http://localhost:11434/v1" for an OpenAI-compatible server.
	BaseURL string

	// APIKey is sent by the OpenAI provider. Ollama ignores it.
	APIKey string

	// Options are generation parameters for the Ollama provider.
	Options *llm.Options
}

// New returns the Gateway for cfg.Provider.
func New(cfg Config) (Gateway, error) {
	switch cfg.Provider {
	case "", ProviderOllama:
		return NewOllama(cfg), nil
	case ProviderOpenAI:
		return NewOpenAI(cfg), nil
	default:
		return nil, fmt.Errorf("unknown inference provider %q", cfg.Provider)
	}
}

// Start pings g and converts any failure into a *StartupError.
func Start(ctx context.Context, g Gateway, model string) error {
	if err := g.Ping(ctx); err != nil {
		return &StartupError{Model: model, Err: err}
	}
	return nil
}
