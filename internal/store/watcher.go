package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceInterval is the delay after a filesystem event before the document
// is read back.
const DebounceInterval = 200 * time.Millisecond

// Watcher reports changes to a local document file made by another writer,
// such as an operator editing it by hand.
type Watcher struct {
	path     string
	ours     func(data []byte) bool
	onChange func(ctx context.Context)
	debounce time.Duration
}

// NewWatcher watches path. ours identifies content written by this process
// and onChange is called for everything else.
func NewWatcher(path string, ours func(data []byte) bool, onChange func(ctx context.Context)) *Watcher {
	return &Watcher{path: path, ours: ours, onChange: onChange, debounce: DebounceInterval}
}

// Run blocks until ctx is done. The parent directory is watched rather than
// the file because every save replaces the file by rename.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	name := filepath.Base(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}
	slog.InfoContext(ctx, "watching document", "path", w.path)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() { w.check(ctx) })
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "fsnotify error", "error", err)
		case <-ctx.Done():
			return nil
		}
	}
}

func (w *Watcher) check(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	data, err := os.ReadFile(w.path)
	if err != nil {
		slog.DebugContext(ctx, "document unreadable after change", "path", w.path, "error", err)
		return
	}
	if w.ours(data) {
		return
	}
	slog.InfoContext(ctx, "document changed outside this process", "path", w.path)
	w.onChange(ctx)
}
