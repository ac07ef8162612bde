package prompt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// LoadInstructionFile reads a system instruction from path, trimming
// surrounding whitespace.
func LoadInstructionFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("could not read system prompt %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Watch reloads the assembler's instruction whenever path is written or
// recreated, until ctx is done. The parent directory is watched so editors
// that replace the file atomically are handled.
func Watch(ctx context.Context, a *Assembler, path string, logger *zap.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not create watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return fmt.Errorf("could not resolve %s: %w", path, err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return fmt.Errorf("could not watch %s: %w", filepath.Dir(abs), err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs || !event.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				reload(a, abs, logger)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("system prompt watcher error", zap.Error(err))
			}
		}
	}()

	return nil
}

func reload(a *Assembler, path string, logger *zap.Logger) {
	instruction, err := LoadInstructionFile(path)
	if err != nil {
		logger.Warn("could not reload system prompt", zap.Error(err))
		return
	}
	if err := a.SetInstruction(instruction); err != nil {
		logger.Warn("system prompt is not a valid template, using it verbatim", zap.Error(err))
		return
	}
	logger.Info("system prompt reloaded", zap.String("path", path))
}
