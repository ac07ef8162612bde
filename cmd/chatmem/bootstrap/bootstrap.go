// Package bootstrap builds the session shared by the chat and serve commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/chatmem/pkg/archive"
	"github.com/papercomputeco/chatmem/pkg/config"
	"github.com/papercomputeco/chatmem/pkg/inference"
	"github.com/papercomputeco/chatmem/pkg/prompt"
	"github.com/papercomputeco/chatmem/pkg/session"
)

// Flags are the settings every command accepts on top of the config file.
type Flags struct {
	ConfigPath string
	Debug      bool
	Model      string
	Upstream   string
	Transcript string
	Archive    string
}

// Register adds f to cmd as persistent flags.
func (f *Flags) Register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&f.ConfigPath, "config", "c", "", "Path to a TOML config file (default: ./"+config.DefaultPath+" if present)")
	pf.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	pf.StringVarP(&f.Model, "model", "m", "", "Model name to chat with")
	pf.StringVarP(&f.Upstream, "upstream", "u", "", "Inference engine URL")
	pf.StringVarP(&f.Transcript, "transcript", "t", "", "Path to the persisted conversation")
	pf.StringVar(&f.Archive, "archive", "", "Path to a SQLite turn archive (disabled when empty)")
}

// Load reads the config file and applies the flags the user set explicitly.
func (f *Flags) Load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(f.ConfigPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("debug") {
		cfg.Debug = f.Debug
	}
	if flags.Changed("model") {
		cfg.Model = f.Model
	}
	if flags.Changed("upstream") {
		cfg.UpstreamURL = f.Upstream
	}
	if flags.Changed("transcript") {
		cfg.TranscriptPath = f.Transcript
	}
	if flags.Changed("archive") {
		cfg.ArchivePath = f.Archive
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}

// App holds a ready session and the resources behind it.
type App struct {
	Session *session.Session
	storer  archive.Storer
}

// Open connects to the inference engine, restores the transcript and
// builds the session. A *inference.StartupError means the engine is not
// usable and the command must exit.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	gateway, err := inference.New(cfg.Gateway())
	if err != nil {
		return nil, err
	}

	logger.Info("initializing model",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model),
		zap.String("upstream", cfg.UpstreamURL),
	)
	if err := inference.Start(ctx, gateway, cfg.Model); err != nil {
		return nil, err
	}

	assembler, err := newAssembler(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	t := session.Restore(cfg.TranscriptPath, logger)

	app := &App{}
	var recorder *archive.Recorder
	if cfg.ArchivePath != "" {
		storer, err := archive.NewSQLiteStorer(cfg.ArchivePath)
		if err != nil {
			return nil, fmt.Errorf("could not open archive: %w", err)
		}
		app.storer = storer

		recorder = archive.NewRecorder(storer, cfg.Model)
		if err := recorder.Sync(ctx, t.Turns()); err != nil {
			logger.Warn("could not archive restored conversation", zap.Error(err))
		}
	}

	app.Session = session.New(t, assembler, gateway, session.Options{
		Path:     cfg.TranscriptPath,
		Timeout:  cfg.Timeout.Duration,
		Recorder: recorder,
		Logger:   logger,
	})
	return app, nil
}

func newAssembler(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*prompt.Assembler, error) {
	instruction := cfg.SystemPrompt
	if cfg.SystemPromptFile != "" {
		loaded, err := prompt.LoadInstructionFile(cfg.SystemPromptFile)
		if err != nil {
			return nil, err
		}
		instruction = loaded
	}

	assembler, err := prompt.NewAssembler(cfg.Model, instruction)
	if err != nil {
		return nil, fmt.Errorf("invalid system prompt: %w", err)
	}

	if cfg.SystemPromptFile != "" {
		if err := prompt.Watch(ctx, assembler, cfg.SystemPromptFile, logger); err != nil {
			logger.Warn("system prompt will not be reloaded", zap.Error(err))
		}
	}
	return assembler, nil
}

// Close releases the archive.
func (a *App) Close() error {
	if a.storer != nil {
		return a.storer.Close()
	}
	return nil
}

// Report prints a command failure to w. Startup failures also get the
// operator hint.
func Report(w io.Writer, err error) {
	var startErr *inference.StartupError
	if errors.As(err, &startErr) {
		fmt.Fprintln(w, startErr.Error())
		fmt.Fprintln(w, startErr.Hint())
		return
	}
	fmt.Fprintln(w, "Error:", err)
}
