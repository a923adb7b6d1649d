package scribe

import (
	"context"
	"log/slog"
	"path/filepath"
)

func (s *Scribe) worker(ctx context.Context) {
	slog.Debug("Worker starting")
	defer func() {
		slog.Debug("Worker shutting down")
		s.workers.Done()
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Debug("Worker context cancelled")
			return

		case job, ok := <-s.queue:
			if !ok {
				slog.Debug("Worker queue closed")
				return
			}

			// Dropped files belong to the user; never delete them.
			resp := s.TranscribeFile(ctx, job.FilePath, false)
			if !resp.Success {
				slog.Error("Failed to process queued file",
					"file", filepath.Base(job.FilePath),
					"kind", resp.Error,
					"message", resp.Message)
			}
		}
	}
}
