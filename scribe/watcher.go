package scribe

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Audio formats the backend accepts for upload.
var watchedExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".flac": true,
	".ogg":  true,
	".aac":  true,
}

func (s *Scribe) watchFiles(ctx context.Context) {
	if err := os.MkdirAll(s.config.WatchDir, 0755); err != nil {
		slog.Error("Failed to create watch directory",
			"error", err,
			"path", s.config.WatchDir)
		return
	}

	if err := s.watcher.Add(s.config.WatchDir); err != nil {
		slog.Error("Failed to start watching drop directory",
			"error", err,
			"path", s.config.WatchDir)
		return
	}

	slog.Info("Watching drop directory", "path", s.config.WatchDir)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}

			if err := s.handleFSEvent(event); err != nil {
				slog.Error("Failed to handle file system event",
					"error", err,
					"event", event)
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", "error", err)
		}
	}
}

func (s *Scribe) handleFSEvent(event fsnotify.Event) error {
	// Files still being copied show up as Create then Write; queueing on
	// Create alone is enough since the upload re-reads from disk.
	if event.Op != fsnotify.Create {
		return nil
	}

	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".tmp") {
		return nil
	}

	ext := strings.ToLower(filepath.Ext(name))
	if !watchedExtensions[ext] {
		slog.Debug("Ignoring non-audio file in drop directory", "file", name)
		return nil
	}

	if info, err := os.Stat(event.Name); err != nil || info.IsDir() {
		return nil
	}

	return s.enqueue(event.Name)
}
