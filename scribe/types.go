package scribe

import (
	"time"
)

// TranscriptionJob is one audio file waiting for the worker pool.
type TranscriptionJob struct {
	FilePath   string
	EnqueuedAt time.Time
}

// Event is a message pushed to panel WebSocket subscribers.
type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// Settings is the runtime-adjustable configuration exposed by the panel.
type Settings struct {
	ServerURL string `json:"serverUrl"`
	Language  string `json:"language"`
	ModelSize string `json:"modelSize"`
}
