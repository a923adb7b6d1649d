package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Tests that exercise actual PortAudio streams need a capture device and
// are not run here; these cover the session-free paths.

func TestStopWithoutSessionIsAbsentNotError(t *testing.T) {
	r := NewRecorder(Config{}, nil)

	path, ok, err := r.Stop()

	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, path)
}

func TestCancelWithoutSessionIsNoop(t *testing.T) {
	r := NewRecorder(Config{}, nil)
	r.Cancel()
	assert.False(t, r.Recording())
	assert.Nil(t, r.Active())
}

func TestChunkAmplitude(t *testing.T) {
	assert.Equal(t, 0.0, chunkAmplitude(nil))
	assert.Equal(t, 0.0, chunkAmplitude([]int16{0, 0, 0}))
	assert.Equal(t, 100.0, chunkAmplitude([]int16{100, -100}))
	assert.Equal(t, 50.0, chunkAmplitude([]int16{100, 0}))
}
