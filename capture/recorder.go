// Package capture manages microphone recording sessions. A Recorder owns
// at most one active session; starting a new one quietly finalizes the
// previous session rather than failing.
package capture

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gordonklaus/portaudio"

	"github.com/bosley/murmur/audio"
)

const framesPerBuffer = 1024

// Config controls where and how recordings are made.
type Config struct {
	// DeviceID selects the input device; 0 means the system default.
	DeviceID int

	// Dir is where temporary WAV files are written. Empty means the
	// platform temp directory.
	Dir string
}

// Recorder hands out recording sessions, one at a time.
type Recorder struct {
	cfg Config
	log *slog.Logger

	mu      sync.Mutex
	session *Session
}

// Session is a single in-progress recording. Create one via
// Recorder.Start; it is finished by Stop or Cancel and not reusable.
type Session struct {
	path      string
	file      *os.File
	stream    *portaudio.Stream
	startedAt time.Time

	dataSize  atomic.Uint32
	amplitude atomic.Uint64 // math.Float64bits of the last chunk average
	writeErr  atomic.Value  // error
}

// NewRecorder creates a recorder writing into cfg.Dir.
func NewRecorder(cfg Config, log *slog.Logger) *Recorder {
	if cfg.Dir == "" {
		cfg.Dir = os.TempDir()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{cfg: cfg, log: log}
}

// Recording reports whether a session is currently active.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session != nil
}

// Active returns the in-progress session, or nil.
func (r *Recorder) Active() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session
}

// Start begins a new recording session and returns it. An already active
// session is stopped first; that is recovery, not an error.
func (r *Recorder) Start() (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session != nil {
		r.log.Warn("Recording already active, stopping previous session",
			"file", filepath.Base(r.session.path))
		if _, _, err := r.stopLocked(); err != nil {
			r.log.Error("Failed to stop previous session", "error", err)
		}
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	s, err := r.openSession()
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}

	r.session = s
	r.log.Info("Recording started", "file", filepath.Base(s.path))
	return s, nil
}

func (r *Recorder) openSession() (*Session, error) {
	path := filepath.Join(r.cfg.Dir, "murmur_"+uuid.NewString()+".wav")
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording file: %w", err)
	}

	// Placeholder header, patched with the real data size on stop.
	if err := audio.WriteWavHeader(file, 0); err != nil {
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to write wav header: %w", err)
	}

	s := &Session{
		path:      path,
		file:      file,
		startedAt: time.Now(),
	}

	params, err := r.streamParameters()
	if err != nil {
		file.Close()
		os.Remove(path)
		return nil, err
	}

	stream, err := portaudio.OpenStream(params, s.handleChunk)
	if err != nil {
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to open audio stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to start audio stream: %w", err)
	}

	s.stream = stream
	return s, nil
}

func (r *Recorder) streamParameters() (portaudio.StreamParameters, error) {
	var device *portaudio.DeviceInfo

	if r.cfg.DeviceID > 0 {
		devices, err := portaudio.Devices()
		if err != nil {
			return portaudio.StreamParameters{}, fmt.Errorf("failed to get audio devices: %w", err)
		}
		if r.cfg.DeviceID >= len(devices) {
			return portaudio.StreamParameters{}, fmt.Errorf("invalid device ID %d", r.cfg.DeviceID)
		}
		device = devices[r.cfg.DeviceID]
		if device.MaxInputChannels == 0 {
			return portaudio.StreamParameters{}, fmt.Errorf("device %q is not an input device", device.Name)
		}
	} else {
		defaultDevice, err := portaudio.DefaultInputDevice()
		if err != nil {
			return portaudio.StreamParameters{}, fmt.Errorf("failed to get default input device: %w", err)
		}
		device = defaultDevice
	}

	r.log.Debug("Using audio device",
		"deviceName", device.Name,
		"sampleRate", audio.SampleRate,
		"inputChannels", audio.Channels)

	return portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: audio.Channels,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      audio.SampleRate,
		FramesPerBuffer: framesPerBuffer,
	}, nil
}

// Stop finalizes the active session. When no session is active it returns
// ("", false, nil). A recording that captured no audio is deleted and
// reported absent as well.
func (r *Recorder) Stop() (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopLocked()
}

func (r *Recorder) stopLocked() (string, bool, error) {
	s := r.session
	if s == nil {
		return "", false, nil
	}
	r.session = nil
	defer portaudio.Terminate()

	if err := s.stream.Stop(); err != nil {
		r.log.Error("Failed to stop audio stream", "error", err)
	}
	s.stream.Close()

	dataSize := s.dataSize.Load()
	if err := audio.UpdateWavHeader(s.file, dataSize); err != nil {
		s.file.Close()
		os.Remove(s.path)
		return "", false, fmt.Errorf("failed to finalize wav header: %w", err)
	}
	if err := s.file.Close(); err != nil {
		os.Remove(s.path)
		return "", false, fmt.Errorf("failed to close recording file: %w", err)
	}

	if err, ok := s.writeErr.Load().(error); ok && err != nil {
		os.Remove(s.path)
		return "", false, fmt.Errorf("recording failed mid-session: %w", err)
	}

	if dataSize == 0 {
		r.log.Error("Recording produced no audio data, discarding",
			"file", filepath.Base(s.path))
		os.Remove(s.path)
		return "", false, nil
	}

	r.log.Info("Recording stopped",
		"file", filepath.Base(s.path),
		"dataBytes", dataSize,
		"duration", audio.Duration(dataSize).Round(time.Millisecond))

	return s.path, true, nil
}

// Cancel stops the active session, if any, and deletes its partial file.
// Best effort; errors are logged and swallowed.
func (r *Recorder) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.session
	if s == nil {
		return
	}
	r.session = nil
	defer portaudio.Terminate()

	if err := s.stream.Stop(); err != nil {
		r.log.Debug("Failed to stop audio stream on cancel", "error", err)
	}
	s.stream.Close()
	s.file.Close()
	if err := os.Remove(s.path); err != nil {
		r.log.Debug("Failed to remove cancelled recording", "error", err, "file", s.path)
	}

	r.log.Info("Recording cancelled", "file", filepath.Base(s.path))
}

// handleChunk runs on the PortAudio callback thread.
func (s *Session) handleChunk(in []int16) {
	if err := binary.Write(s.file, binary.LittleEndian, in); err != nil {
		s.writeErr.Store(err)
		return
	}
	s.dataSize.Add(uint32(len(in) * 2))
	s.amplitude.Store(math.Float64bits(chunkAmplitude(in)))
}

// Path returns the file the session records into.
func (s *Session) Path() string {
	return s.path
}

// Elapsed reports how long the session has been recording, sampled from a
// monotonic start time.
func (s *Session) Elapsed() time.Duration {
	return time.Since(s.startedAt)
}

// Amplitude reports the average absolute amplitude of the most recent
// audio chunk.
func (s *Session) Amplitude() float64 {
	return math.Float64frombits(s.amplitude.Load())
}

func chunkAmplitude(chunk []int16) float64 {
	if len(chunk) == 0 {
		return 0
	}
	var total float64
	for _, sample := range chunk {
		total += math.Abs(float64(sample))
	}
	return total / float64(len(chunk))
}
