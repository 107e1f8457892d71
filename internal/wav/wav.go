// Package wav reads and writes 16-bit PCM mono WAV files.
package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	ErrNotWAV            = errors.New("wav: not a RIFF/WAVE file")
	ErrUnsupportedFormat = errors.New("wav: only 16-bit PCM mono is supported")
	ErrMissingDataChunk  = errors.New("wav: missing data chunk")
	ErrInvalidSampleRate = errors.New("wav: sample rate must be positive")
)

// header is the canonical 44-byte header written by Write.
type header struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // File size - 8 bytes
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32
}

// format is the body of the "fmt " chunk.
type format struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// Write writes samples as a mono 16-bit WAV file.
func Write(w io.Writer, samples []int16, sampleRate int) error {
	if sampleRate <= 0 {
		return ErrInvalidSampleRate
	}
	dataSize := uint32(len(samples) * 2)
	h := header{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   1,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * 2,
		BlockAlign:    2,
		BitsPerSample: 16,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}
	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return fmt.Errorf("failed to write WAV header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, samples); err != nil {
		return fmt.Errorf("failed to write audio data: %w", err)
	}
	return nil
}

// Read parses a WAV file and returns its samples and sample rate. Chunks
// other than "fmt " and "data" are skipped.
func Read(r io.Reader) ([]int16, int, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrNotWAV, err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, 0, ErrNotWAV
	}

	var (
		fmtChunk format
		haveFmt  bool
	)
	for {
		var chunk struct {
			ID   [4]byte
			Size uint32
		}
		if err := binary.Read(r, binary.LittleEndian, &chunk); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, 0, ErrMissingDataChunk
			}
			return nil, 0, fmt.Errorf("failed to read chunk header: %w", err)
		}

		switch string(chunk.ID[:]) {
		case "fmt ":
			if chunk.Size < 16 {
				return nil, 0, ErrUnsupportedFormat
			}
			if err := binary.Read(r, binary.LittleEndian, &fmtChunk); err != nil {
				return nil, 0, fmt.Errorf("failed to read fmt chunk: %w", err)
			}
			if err := skip(r, int64(chunk.Size)-16+int64(chunk.Size&1)); err != nil {
				return nil, 0, err
			}
			if fmtChunk.AudioFormat != 1 || fmtChunk.NumChannels != 1 || fmtChunk.BitsPerSample != 16 {
				return nil, 0, ErrUnsupportedFormat
			}
			haveFmt = true

		case "data":
			if !haveFmt {
				return nil, 0, ErrUnsupportedFormat
			}
			samples := make([]int16, chunk.Size/2)
			if err := binary.Read(r, binary.LittleEndian, samples); err != nil {
				return nil, 0, fmt.Errorf("failed to read audio data: %w", err)
			}
			return samples, int(fmtChunk.SampleRate), nil

		default:
			if err := skip(r, int64(chunk.Size)+int64(chunk.Size&1)); err != nil {
				return nil, 0, err
			}
		}
	}
}

func skip(r io.Reader, n int64) error {
	if n <= 0 {
		return nil
	}
	if _, err := io.CopyN(io.Discard, r, n); err != nil {
		return fmt.Errorf("failed to skip chunk: %w", err)
	}
	return nil
}
