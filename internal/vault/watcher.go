package vault

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Sink receives vault changes picked up by the watcher. Events can be stale
// by the time they are handled, so a sink reads the file itself.
type Sink interface {
	// FileChanged is called when a note file is created or written.
	FileChanged(ctx context.Context, path string) error
	// FileRemoved is called when a note file disappears (removed or renamed away).
	FileRemoved(ctx context.Context, path string) error
}

// Watch starts an fsnotify watcher on the vault root and forwards note file
// changes to sink until ctx is cancelled. Temporary files and anything that
// is not a note file are ignored; a rename arrives as a removal of the old
// name followed by a create of the new one.
func Watch(ctx context.Context, store Provider, sink Sink, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(store.Root()); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", store.Root()))

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if !IsNoteFile(name) {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				if impErr := sink.FileChanged(ctx, name); impErr != nil {
					logger.Warn("watcher: import failed", slog.String("path", name), slog.String("error", impErr.Error()))
					continue
				}
				logger.Debug("watcher: imported", slog.String("path", name), slog.String("op", ev.Op.String()))

			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				if rmErr := sink.FileRemoved(ctx, name); rmErr != nil {
					logger.Warn("watcher: remove failed", slog.String("path", name), slog.String("error", rmErr.Error()))
					continue
				}
				logger.Debug("watcher: removed", slog.String("path", name))
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
