package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce collapses the write bursts editors produce on save.
const reloadDebounce = 100 * time.Millisecond

// Watch reloads path whenever it changes and hands every valid result to
// onChange. Invalid files are logged and skipped. The parent directory is
// watched so atomic replace-by-rename saves are seen. Watch blocks until ctx
// is cancelled.
func Watch(ctx context.Context, path string, onChange func(Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watch: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("config watch %s: %w", filepath.Dir(target), err)
	}

	var debounce *time.Timer
	fire := make(chan struct{}, 1)
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			cfg, err := Load(path)
			if err != nil {
				slog.Warn("[WARN-CONFIG] reload skipped", "path", path, "error", err)
				continue
			}
			slog.Debug("[DEBUG-CONFIG] config reloaded", "path", path)
			onChange(cfg)
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("[WARN-CONFIG] watcher error", "error", werr)
		}
	}
}
