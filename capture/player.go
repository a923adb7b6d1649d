package capture

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/youpy/go-wav"
)

// Play streams a WAV file to the default output device and returns when
// playback finishes or ctx is cancelled.
func Play(ctx context.Context, filename string) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	defer portaudio.Terminate()

	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	reader := wav.NewReader(file)

	format, err := reader.Format()
	if err != nil {
		return fmt.Errorf("failed to read wav format: %w", err)
	}

	done := make(chan struct{})
	var once sync.Once
	closeDone := func() { once.Do(func() { close(done) }) }

	stream, err := portaudio.OpenDefaultStream(
		0,
		int(format.NumChannels),
		float64(format.SampleRate),
		framesPerBuffer,
		func(out []int16) {
			samples, err := reader.ReadSamples(uint32(len(out)))
			if err == io.EOF {
				for i := range out {
					out[i] = 0
				}
				closeDone()
				return
			}
			if err != nil {
				slog.Error("Error reading from WAV file", "error", err)
				closeDone()
				return
			}

			for i := 0; i < len(samples) && i < len(out); i++ {
				out[i] = int16(samples[i].Values[0])
			}
			// Fill remaining buffer with silence if needed
			for i := len(samples); i < len(out); i++ {
				out[i] = 0
			}
		},
	)
	if err != nil {
		return fmt.Errorf("failed to open audio stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("failed to start audio stream: %w", err)
	}

	select {
	case <-done:
	case <-ctx.Done():
	}

	return stream.Stop()
}
