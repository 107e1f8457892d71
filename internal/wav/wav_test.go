package wav

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/gosilk/internal/testsignal"
)

func TestWriteRead(t *testing.T) {
	samples := testsignal.Sine(16000, 440, 16383, 1600)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, samples, 16000))
	assert.Equal(t, 44+2*len(samples), buf.Len())

	got, rate, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, 16000, rate)
	assert.Equal(t, samples, got)
}

func TestReadSkipsUnknownChunks(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(0))
	buf.WriteString("WAVE")

	// Extended fmt chunk with two trailing bytes.
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(18))
	binary.Write(&buf, binary.LittleEndian, format{
		AudioFormat:   1,
		NumChannels:   1,
		SampleRate:    8000,
		ByteRate:      16000,
		BlockAlign:    2,
		BitsPerSample: 16,
	})
	buf.Write([]byte{0, 0})

	// Odd-sized LIST chunk with its pad byte.
	buf.WriteString("LIST")
	binary.Write(&buf, binary.LittleEndian, uint32(3))
	buf.Write([]byte{'a', 'b', 'c', 0})

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(6))
	binary.Write(&buf, binary.LittleEndian, []int16{1, -2, 3})

	got, rate, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, 8000, rate)
	assert.Equal(t, []int16{1, -2, 3}, got)
}

func TestReadErrors(t *testing.T) {
	stereo := func() []byte {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, []int16{1, 2}, 8000))
		b := buf.Bytes()
		binary.LittleEndian.PutUint16(b[22:], 2)
		return b
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrNotWAV},
		{"not riff", []byte("RIFX\x00\x00\x00\x00WAVE"), ErrNotWAV},
		{"no data", []byte("RIFF\x04\x00\x00\x00WAVE"), ErrMissingDataChunk},
		{"stereo", stereo(), ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Read(bytes.NewReader(tt.data))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestWriteInvalidRate(t *testing.T) {
	assert.ErrorIs(t, Write(&bytes.Buffer{}, nil, 0), ErrInvalidSampleRate)
}
