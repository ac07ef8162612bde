// Package config loads chatmem settings from an optional TOML file.
//
//	provider = "ollama"
//	model = "llama3"
//	upstream = "http://localhost:11434"
//	transcript = "conversation_memory.json"
//
//	[options]
//	temperature = 0.7
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/chatmem/pkg/inference"
	"github.com/papercomputeco/chatmem/pkg/llm"
	"github.com/papercomputeco/chatmem/pkg/prompt"
)

// DefaultPath is read when no config file is given explicitly.
const DefaultPath = "chatmem.toml"

// Config is the complete chatmem configuration.
type Config struct {
	// Provider selects the inference backend: "ollama" or "openai".
	Provider string `toml:"provider"`

	// Model is the model name handed to the engine.
	Model string `toml:"model"`

	// UpstreamURL is the inference engine endpoint.
	UpstreamURL string `toml:"upstream"`

	// APIKey is used by the openai provider.
	APIKey string `toml:"api_key"`

	// Timeout bounds each inference call; zero disables the limit.
	Timeout Duration `toml:"timeout"`

	// SystemPrompt is the system instruction (a text/template with sprig functions).
	SystemPrompt string `toml:"system_prompt"`

	// SystemPromptFile, when set, replaces SystemPrompt and is reloaded on change.
	SystemPromptFile string `toml:"system_prompt_file"`

	// TranscriptPath is the persisted conversation.
	TranscriptPath string `toml:"transcript"`

	// ArchivePath enables the SQLite turn archive when non-empty.
	ArchivePath string `toml:"archive"`

	// ListenAddr is the HTTP server address.
	ListenAddr string `toml:"listen"`

	// StaticDir is served for GET requests.
	StaticDir string `toml:"static_dir"`

	// RenderMarkdown renders replies with glamour when stdout is a terminal.
	RenderMarkdown bool `toml:"render_markdown"`

	Debug bool `toml:"debug"`

	Options Options `toml:"options"`
}

// Options are generation parameters passed to Ollama.
type Options struct {
	Temperature *float64 `toml:"temperature"`
	TopP        *float64 `toml:"top_p"`
	Seed        *int     `toml:"seed"`
	NumPredict  *int     `toml:"num_predict"`
	NumCtx      *int     `toml:"num_ctx"`
	Stop        []string `toml:"stop"`
}

// Duration is a time.Duration written as a string ("90s", "5m") in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Provider:       inference.ProviderOllama,
		Model:          "ai-model",
		UpstreamURL:    "http://localhost:11434",
		SystemPrompt:   prompt.DefaultSystemInstruction,
		TranscriptPath: "conversation_memory.json",
		ListenAddr:     "localhost:8000",
		StaticDir:      ".",
		RenderMarkdown: true,
	}
}

// Load reads path over the defaults. An empty path falls back to
// DefaultPath when that file exists, and to the defaults otherwise.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultPath); errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		path = DefaultPath
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("could not load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside a command.
func (c *Config) Validate() error {
	switch c.Provider {
	case inference.ProviderOllama, inference.ProviderOpenAI:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if c.Model == "" {
		return errors.New("model must not be empty")
	}
	if c.TranscriptPath == "" {
		return errors.New("transcript path must not be empty")
	}
	if c.Timeout.Duration < 0 {
		return errors.New("timeout must not be negative")
	}
	return nil
}

// Gateway returns the inference gateway configuration.
func (c *Config) Gateway() inference.Config {
	return inference.Config{
		Provider: c.Provider,
		Model:    c.Model,
		BaseURL:  c.UpstreamURL,
		APIKey:   c.APIKey,
		Options: &llm.Options{
			Temperature: c.Options.Temperature,
			TopP:        c.Options.TopP,
			Seed:        c.Options.Seed,
			NumPredict:  c.Options.NumPredict,
			NumCtx:      c.Options.NumCtx,
			Stop:        c.Options.Stop,
		},
	}
}
