package api

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/vjranagit/touchdown/pkg/storage"
)

// LoadFunc produces a fresh table from the watched source
type LoadFunc func(ctx context.Context) (*storage.Store, error)

// Watch reloads the served table each time the file at path is written or
// replaced, until ctx is cancelled. A failed reload is logged and the previous
// table stays.
//
// The parent directory is watched rather than the file, so a save that
// renames a new file over path keeps being seen.
func (s *Server) Watch(ctx context.Context, path string, load LoadFunc) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return err
	}

	slog.Info("api: watching source", "path", target)

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
			// a rename over target arrives as Create
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			store, err := load(ctx)
			if err != nil {
				slog.Error("api: reload failed, keeping previous table", "path", target, "err", err)
				continue
			}

			s.Replace(store)
			slog.Info("api: reloaded", "path", target, "rows", store.Len())

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("api: watcher error", "err", err)
		}
	}
}
