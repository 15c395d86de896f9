package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/san-kum/gatesim/internal/circuit"
)

const debounceDelay = 200 * time.Millisecond

// Watch reloads path with load whenever it is written and sends the
// result as a ReloadMsg. The parent directory is watched so editors
// that save by rename are still seen. Watch blocks until ctx ends.
func Watch(ctx context.Context, path string, load func(string) (circuit.Snapshot, error), send func(tea.Msg), logger *log.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	logger.Debug("watching circuit file", "path", abs)

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("circuit file changed", "path", event.Name, "op", event.Op.String())
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, func() {
				snap, err := load(abs)
				if err != nil {
					logger.Warn("reload failed", "path", abs, "err", err)
				}
				send(ReloadMsg{Snapshot: snap, Err: err})
			})

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("file watcher error", "err", err)

		case <-ctx.Done():
			return nil
		}
	}
}
