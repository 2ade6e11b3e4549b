package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/guilhermegouw/siaka/internal/debug"
)

// DefaultWatchDebounce groups the bursts of events one save produces.
const DefaultWatchDebounce = 150 * time.Millisecond

// ChangeFunc receives the reloaded configuration, or the error that
// prevented loading it.
type ChangeFunc func(cfg *Config, err error)

// Watch reloads the config file at path whenever it changes and passes the
// result to onChange, until ctx is done. The parent directory is watched so
// atomic replacements and a file created later are both seen.
func Watch(ctx context.Context, path string, debounce time.Duration, onChange ChangeFunc) error {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	path = filepath.Clean(path)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	go runWatch(ctx, w, path, debounce, onChange)
	return nil
}

func runWatch(ctx context.Context, w *fsnotify.Watcher, path string, debounce time.Duration, onChange ChangeFunc) {
	defer w.Close()

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			timer.Reset(debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			debug.Error("config", err, "watching config file")

		case <-timer.C:
			debug.Event("config", "reload", path)
			cfg, err := LoadFromFile(path)
			onChange(cfg, err)
		}
	}
}
