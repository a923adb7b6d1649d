// Package whisper is the HTTP client for the speech-to-text backend. Each
// call is one-shot: no retries, no backoff. Failures come back as a tagged
// Response rather than an error so callers can surface them directly.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	DefaultBaseURL = "http://localhost:8000"

	// MaxUploadBytes is the backend's upload cap. Oversized files are
	// rejected locally without touching the network.
	MaxUploadBytes = 25 * 1024 * 1024
)

// Config carries the per-client settings. There is no process-wide state;
// two clients with different base URLs do not affect each other.
type Config struct {
	BaseURL string

	// Stage timeouts. ConnectTimeout bounds the TCP dial,
	// ReceiveTimeout bounds the wait for response headers, and
	// SendTimeout+ReceiveTimeout together bound the whole exchange.
	ConnectTimeout time.Duration
	SendTimeout    time.Duration
	ReceiveTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 30 * time.Second
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 60 * time.Second
	}
	if c.ReceiveTimeout <= 0 {
		c.ReceiveTimeout = 120 * time.Second
	}
}

// Client talks to one transcription backend.
type Client struct {
	mu      sync.RWMutex
	baseURL string

	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

// Option adjusts a Client at construction time.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Intended for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// New creates a client for the backend named by cfg.BaseURL.
func New(cfg Config, opts ...Option) *Client {
	cfg.applyDefaults()

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		cfg:     cfg,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.log == nil {
		c.log = slog.Default()
	}
	if c.httpClient == nil {
		dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
		c.httpClient = &http.Client{
			Transport: &http.Transport{
				DialContext:           dialer.DialContext,
				ResponseHeaderTimeout: cfg.ReceiveTimeout,
			},
		}
	}

	return c
}

// BaseURL reports the backend address currently in use.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// SetBaseURL points this client at a different backend. Only this client
// instance is affected.
func (c *Client) SetBaseURL(baseURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = strings.TrimRight(baseURL, "/")
}

func (c *Client) url(path string) string {
	return c.BaseURL() + path
}

// Transcribe uploads the audio file at path and returns the backend's
// parsed result, or a classified failure. The file must exist, be
// non-empty, and be at most MaxUploadBytes; violations are rejected
// without a network call.
func (c *Client) Transcribe(ctx context.Context, path, language, modelSize string) *Response {
	info, err := os.Stat(path)
	if err != nil {
		return failure(ErrorValidation, "Audio file not found.")
	}
	if info.Size() == 0 {
		return failure(ErrorValidation, "Audio file is empty.")
	}
	if info.Size() > MaxUploadBytes {
		return failure(ErrorValidation, "Audio file is too large (max 25 MB).")
	}

	if language == "" {
		language = "auto"
	}
	if modelSize == "" {
		modelSize = "base"
	}

	body, contentType, err := c.buildUpload(path, language, modelSize)
	if err != nil {
		c.log.Error("Failed to build upload body", "error", err, "file", path)
		return failure(ErrorUnknown, ErrorUnknown.Message())
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.SendTimeout+c.cfg.ReceiveTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/transcribe"), body)
	if err != nil {
		return failure(ErrorUnknown, ErrorUnknown.Message())
	}
	req.Header.Set("Content-Type", contentType)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		kind := classifyTransport(err)
		c.log.Error("Transcription request failed",
			"error", err,
			"kind", kind,
			"file", filepath.Base(path))
		return failure(kind, kind.Message())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("Transcription rejected by server",
			"status", resp.StatusCode,
			"file", filepath.Base(path))
		return failure(ErrorBadResponse, fmt.Sprintf("HTTP %d: %s",
			resp.StatusCode, http.StatusText(resp.StatusCode)))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		kind := classifyTransport(err)
		return failure(kind, kind.Message())
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return failure(ErrorParse, ErrorParse.Message())
	}

	var parsed Response
	if err := json.Unmarshal(raw, &parsed); err != nil {
		c.log.Error("Failed to decode transcription response", "error", err)
		return failure(ErrorParse, ErrorParse.Message())
	}
	if parsed.Success && parsed.Result == nil {
		return failure(ErrorParse, ErrorParse.Message())
	}

	c.log.Info("Transcription completed",
		"file", filepath.Base(path),
		"success", parsed.Success,
		"elapsed", time.Since(started).Round(time.Millisecond))

	return &parsed
}

func (c *Client) buildUpload(path, language, modelSize string) (io.Reader, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	b := &bytes.Buffer{}
	mp := multipart.NewWriter(b)

	fw, err := mp.CreateFormFile("audio_file", filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return nil, "", fmt.Errorf("failed to read audio file: %w", err)
	}

	if err := mp.WriteField("language", language); err != nil {
		return nil, "", err
	}
	if err := mp.WriteField("model_size", modelSize); err != nil {
		return nil, "", err
	}

	if err := mp.Close(); err != nil {
		return nil, "", err
	}

	return b, mp.FormDataContentType(), nil
}

// Health reports whether the backend answers GET /health with 200. Any
// transport error counts as unhealthy and is swallowed.
func (c *Client) Health(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/health"), nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("Health check failed", "error", err)
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}

// Languages fetches the backend's language map as opaque JSON.
func (c *Client) Languages(ctx context.Context) (json.RawMessage, error) {
	return c.getJSON(ctx, "/languages")
}

// Models fetches the backend's model map as opaque JSON.
func (c *Client) Models(ctx context.Context) (json.RawMessage, error) {
	return c.getJSON(ctx, "/models")
}

func (c *Client) getJSON(ctx context.Context, path string) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ReceiveTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status for %s: %s", path, resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", path, err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("invalid JSON from %s", path)
	}

	return json.RawMessage(raw), nil
}
