package scribe

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/websocket"

	"github.com/bosley/murmur/catalog"
	"github.com/bosley/murmur/history"
	"github.com/bosley/murmur/whisper"
)

// Configuration for the Scribe service
type Config struct {
	// HTTP address of the local web panel
	PanelAddr string

	// Directory to monitor for dropped audio files; empty disables
	// watch mode
	WatchDir string

	// Number of worker threads for watch-mode processing
	Workers int

	// Transcription parameters sent with every upload
	Language  string
	ModelSize string
}

// Scribe coordinates uploads, history, and the web panel. It owns the
// only transcription client in the process.
type Scribe struct {
	mu     sync.RWMutex
	config Config

	client *whisper.Client
	store  *history.History

	// File system watcher, nil when watch mode is off
	watcher *fsnotify.Watcher

	// Processing queue
	queue   chan TranscriptionJob
	workers sync.WaitGroup

	// At most one interactive upload at a time; the panel reads this
	transcribing atomic.Bool

	// HTTP/Websocket
	server      *http.Server
	upgrader    websocket.Upgrader
	subscribers sync.Map // map[*wsConnection]struct{}
}

// New creates a new Scribe instance around the given backend client.
func New(cfg Config, client *whisper.Client, store *history.History) (*Scribe, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	cfg.Language = catalog.NormalizeLanguage(cfg.Language)
	cfg.ModelSize = catalog.NormalizeModel(cfg.ModelSize)

	if store == nil {
		store = history.New(history.DefaultCapacity)
	}

	s := &Scribe{
		config: cfg,
		client: client,
		store:  store,
		queue:  make(chan TranscriptionJob, 100),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // panel binds to localhost
			},
		},
	}

	if cfg.WatchDir != "" {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("failed to create watcher: %w", err)
		}
		s.watcher = watcher
	}

	return s, nil
}

// Start begins the Scribe service and blocks until ctx is cancelled.
func (s *Scribe) Start(ctx context.Context) error {
	for i := 0; i < s.config.Workers; i++ {
		s.workers.Add(1)
		go s.worker(ctx)
	}

	if s.watcher != nil {
		go s.watchFiles(ctx)
	}

	return s.startHTTP(ctx)
}

// Stop gracefully shuts down the Scribe service
func (s *Scribe) Stop(ctx context.Context) error {
	// Stop accepting new jobs
	close(s.queue)

	// Wait for workers to finish
	done := make(chan struct{})
	go func() {
		s.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("shutdown timed out")
	}

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to stop HTTP server: %w", err)
		}
	}

	if s.watcher != nil {
		if err := s.watcher.Close(); err != nil {
			return fmt.Errorf("failed to close file watcher: %w", err)
		}
	}

	return nil
}

// Transcribing reports whether an upload is currently in flight.
func (s *Scribe) Transcribing() bool {
	return s.transcribing.Load()
}

// History exposes the transcription store.
func (s *Scribe) History() *history.History {
	return s.store
}

// Settings returns the current runtime configuration.
func (s *Scribe) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Settings{
		ServerURL: s.client.BaseURL(),
		Language:  s.config.Language,
		ModelSize: s.config.ModelSize,
	}
}

// UpdateSettings applies the panel's settings dialog. Empty fields keep
// their current value; unknown language or model names fall back to the
// catalog defaults.
func (s *Scribe) UpdateSettings(in Settings) Settings {
	s.mu.Lock()
	if in.ServerURL != "" {
		s.client.SetBaseURL(in.ServerURL)
	}
	if in.Language != "" {
		s.config.Language = catalog.NormalizeLanguage(in.Language)
	}
	if in.ModelSize != "" {
		s.config.ModelSize = catalog.NormalizeModel(in.ModelSize)
	}
	s.mu.Unlock()

	out := s.Settings()
	slog.Info("Settings updated",
		"serverUrl", out.ServerURL,
		"language", out.Language,
		"modelSize", out.ModelSize)
	return out
}

func (s *Scribe) transcriptionParams() (language, modelSize string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.Language, s.config.ModelSize
}

// TranscribeFile uploads one audio file and records the outcome. When
// deleteAfter is set the file is removed on every exit path, success or
// not; that is the cleanup contract for capture temp files.
func (s *Scribe) TranscribeFile(ctx context.Context, path string, deleteAfter bool) *whisper.Response {
	s.transcribing.Store(true)
	defer s.transcribing.Store(false)

	if deleteAfter {
		defer func() {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				slog.Debug("Failed to remove temp audio file",
					"error", err,
					"file", path)
			}
		}()
	}

	language, modelSize := s.transcriptionParams()

	slog.Info("Uploading audio for transcription",
		"file", filepath.Base(path),
		"language", language,
		"modelSize", modelSize)

	resp := s.client.Transcribe(ctx, path, language, modelSize)
	if !resp.Success {
		slog.Error("Transcription failed",
			"file", filepath.Base(path),
			"kind", resp.Error,
			"message", resp.Message)
		return resp
	}

	entry := s.store.Add(*resp.Result)
	s.broadcast(Event{
		Type:      "transcription",
		Timestamp: entry.Timestamp,
		Payload:   entry,
	})

	slog.Info("Transcription recorded",
		"file", filepath.Base(path),
		"language", resp.Result.Language,
		"segments", len(resp.Result.Segments),
		"historySize", s.store.Len())

	return resp
}

// enqueue adds a watch-mode job to the processing queue.
func (s *Scribe) enqueue(path string) error {
	job := TranscriptionJob{
		FilePath:   path,
		EnqueuedAt: time.Now(),
	}

	select {
	case s.queue <- job:
		slog.Info("Queued audio file for processing",
			"file", filepath.Base(path))
		return nil
	default:
		return fmt.Errorf("job queue is full")
	}
}
