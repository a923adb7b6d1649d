// Package history keeps the most recent transcriptions in memory. Nothing
// is persisted; the list is gone on process exit.
package history

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bosley/murmur/whisper"
)

// DefaultCapacity is how many transcriptions are retained before the
// oldest is evicted.
const DefaultCapacity = 20

// Entry is one completed transcription with its arrival time.
type Entry struct {
	ID        uuid.UUID      `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Result    whisper.Result `json:"result"`
}

// History is a capped, newest-first list of transcription entries. Safe
// for concurrent use; the web panel reads it from handler goroutines.
type History struct {
	mu       sync.RWMutex
	capacity int
	entries  []Entry
}

// New creates a history with the given capacity. Zero or negative means
// DefaultCapacity.
func New(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &History{
		capacity: capacity,
		entries:  make([]Entry, 0, capacity),
	}
}

// Add prepends a result and returns the stored entry. When the list is
// full the oldest entry is dropped.
func (h *History) Add(result whisper.Result) Entry {
	entry := Entry{
		ID:        uuid.New(),
		Timestamp: time.Now(),
		Result:    result,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append([]Entry{entry}, h.entries...)
	if len(h.entries) > h.capacity {
		h.entries = h.entries[:h.capacity]
	}

	return entry
}

// Entries returns a snapshot of the list, newest first.
func (h *History) Entries() []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len reports how many entries are held.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Clear drops every entry.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = h.entries[:0]
}
