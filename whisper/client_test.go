package whisper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempAudio(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "note.wav")
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0644))
	return path
}

func successBody() string {
	return `{
		"success": true,
		"result": {
			"text": "hello world",
			"language": "en",
			"detected_language": "en",
			"language_confidence": 0.97,
			"segments": [
				{"start": 0.0, "end": 1.2, "text": "hello", "confidence": -0.2},
				{"start": 1.2, "end": 2.0, "text": "world", "confidence": -0.3}
			],
			"model_size": "base",
			"overall_confidence": -0.25,
			"segment_count": 2,
			"audio_duration": 2.0
		},
		"message": "Transcription completed successfully"
	}`
}

func TestTranscribeSuccess(t *testing.T) {
	var gotLanguage, gotModel, gotFilename string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/transcribe", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(32<<20))

		gotLanguage = r.FormValue("language")
		gotModel = r.FormValue("model_size")

		file, header, err := r.FormFile("audio_file")
		require.NoError(t, err)
		file.Close()
		gotFilename = header.Filename

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(successBody()))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	path := writeTempAudio(t, 2*1024*1024)

	resp := c.Transcribe(context.Background(), path, "en", "base")

	require.True(t, resp.Success)
	require.NotNil(t, resp.Result)
	assert.Equal(t, "hello world", resp.Result.Text)
	assert.Equal(t, "en", resp.Result.Language)
	assert.Len(t, resp.Result.Segments, 2)
	assert.Equal(t, "en", gotLanguage)
	assert.Equal(t, "base", gotModel)
	assert.Equal(t, "note.wav", gotFilename)
}

func TestTranscribeRejectsEmptyFileWithoutNetworkCall(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	path := writeTempAudio(t, 0)

	resp := c.Transcribe(context.Background(), path, "en", "base")

	assert.False(t, resp.Success)
	assert.Nil(t, resp.Result)
	assert.Equal(t, string(ErrorValidation), resp.Error)
	assert.Equal(t, int32(0), calls.Load())
}

func TestTranscribeRejectsOversizedFileWithoutNetworkCall(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "big.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(MaxUploadBytes+1))
	require.NoError(t, f.Close())

	c := New(Config{BaseURL: srv.URL})
	resp := c.Transcribe(context.Background(), path, "en", "base")

	assert.False(t, resp.Success)
	assert.Equal(t, string(ErrorValidation), resp.Error)
	assert.Equal(t, int32(0), calls.Load())
}

func TestTranscribeRejectsMissingFile(t *testing.T) {
	c := New(Config{BaseURL: "http://localhost:1"})
	resp := c.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.wav"), "en", "base")

	assert.False(t, resp.Success)
	assert.Equal(t, string(ErrorValidation), resp.Error)
}

func TestTranscribeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	resp := c.Transcribe(context.Background(), writeTempAudio(t, 1024), "en", "base")

	assert.False(t, resp.Success)
	assert.Nil(t, resp.Result)
	assert.Equal(t, string(ErrorBadResponse), resp.Error)
	assert.Equal(t, "HTTP 500: Internal Server Error", resp.Message)
}

func TestTranscribeConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	c := New(Config{BaseURL: srv.URL})
	resp := c.Transcribe(context.Background(), writeTempAudio(t, 1024), "en", "base")

	assert.False(t, resp.Success)
	assert.Equal(t, string(ErrorConnection), resp.Error)
	assert.Contains(t, resp.Message, "Cannot connect to server")
}

func TestTranscribeSuccessWithoutResultIsParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true, "message": "ok"}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	resp := c.Transcribe(context.Background(), writeTempAudio(t, 1024), "en", "base")

	assert.False(t, resp.Success)
	assert.Nil(t, resp.Result)
	assert.Equal(t, string(ErrorParse), resp.Error)
}

func TestTranscribeEmptyBodyIsParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	resp := c.Transcribe(context.Background(), writeTempAudio(t, 1024), "en", "base")

	assert.False(t, resp.Success)
	assert.Equal(t, string(ErrorParse), resp.Error)
}

func TestTranscribeDefaultsLanguageAndModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(32<<20))
		assert.Equal(t, "auto", r.FormValue("language"))
		assert.Equal(t, "base", r.FormValue("model_size"))
		w.Write([]byte(successBody()))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	resp := c.Transcribe(context.Background(), writeTempAudio(t, 1024), "", "")
	require.True(t, resp.Success)
}

func TestHealth(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.Write([]byte(`{"success": true}`))
	}))
	defer healthy.Close()

	unhealthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer unhealthy.Close()

	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead.Close()

	assert.True(t, New(Config{BaseURL: healthy.URL}).Health(context.Background()))
	assert.False(t, New(Config{BaseURL: unhealthy.URL}).Health(context.Background()))
	assert.False(t, New(Config{BaseURL: dead.URL}).Health(context.Background()))
}

func TestSetBaseURLIsPerInstance(t *testing.T) {
	a := New(Config{BaseURL: "http://a.example:8000"})
	b := New(Config{BaseURL: "http://b.example:8000"})

	a.SetBaseURL("http://c.example:9000/")

	assert.Equal(t, "http://c.example:9000", a.BaseURL())
	assert.Equal(t, "http://b.example:8000", b.BaseURL())
}

func TestLanguagesPassthrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/languages", r.URL.Path)
		w.Write([]byte(`{"success": true, "languages": {"en": {"name": "English"}}}`))
	}))
	defer srv.Close()

	raw, err := New(Config{BaseURL: srv.URL}).Languages(context.Background())
	require.NoError(t, err)

	var parsed struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.Unmarshal(raw, &parsed))
	assert.True(t, parsed.Success)
}

func TestModelsPassthroughErrorOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(Config{BaseURL: srv.URL}).Models(context.Background())
	assert.Error(t, err)
}
