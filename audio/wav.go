package audio

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"
)

const (
	// SampleRate is the capture rate. The transcription backend wants
	// 16kHz mono, so we record at that rate directly instead of
	// resampling afterwards.
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16

	headerSize = 44
)

type WavHeader struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

func WriteWavHeader(file *os.File, dataSize uint32) error {
	header := WavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     dataSize + 36,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   Channels,
		SampleRate:    SampleRate,
		ByteRate:      SampleRate * uint32(Channels) * uint32(BitsPerSample) / 8,
		BlockAlign:    Channels * BitsPerSample / 8,
		BitsPerSample: BitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	return binary.Write(file, binary.LittleEndian, header)
}

func UpdateWavHeader(file *os.File, dataSize uint32) error {
	// Update ChunkSize (file size - 8)
	if _, err := file.Seek(4, 0); err != nil {
		return fmt.Errorf("failed to seek to ChunkSize: %w", err)
	}
	if err := binary.Write(file, binary.LittleEndian, uint32(dataSize+36)); err != nil {
		return fmt.Errorf("failed to write ChunkSize: %w", err)
	}

	// Update Subchunk2Size (data size)
	if _, err := file.Seek(40, 0); err != nil {
		return fmt.Errorf("failed to seek to Subchunk2Size: %w", err)
	}
	if err := binary.Write(file, binary.LittleEndian, dataSize); err != nil {
		return fmt.Errorf("failed to write Subchunk2Size: %w", err)
	}

	return nil
}

// Duration reports the playback length of a recording given its PCM data
// size in bytes.
func Duration(dataSize uint32) time.Duration {
	byteRate := SampleRate * Channels * BitsPerSample / 8
	return time.Duration(float64(dataSize) / float64(byteRate) * float64(time.Second))
}

// DataSize reports the PCM payload size of a WAV file on disk, excluding
// the 44 byte header. Returns 0 for files smaller than a header.
func DataSize(path string) (uint32, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat wav file: %w", err)
	}
	if info.Size() <= headerSize {
		return 0, nil
	}
	return uint32(info.Size() - headerSize), nil
}
