package silkfile

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, r *Reader) [][]byte {
	t.Helper()
	var out [][]byte
	for {
		p, err := r.ReadPacket()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, append([]byte{}, p...))
	}
}

func TestRoundTrip(t *testing.T) {
	packets := [][]byte{
		{0x01, 0x02, 0x03},
		{},
		bytes.Repeat([]byte{0xAA}, MaxPacketSize),
		{0x7F},
	}
	for _, tencent := range []bool{false, true} {
		var buf bytes.Buffer
		w, err := NewWriterWithConfig(&buf, WriterConfig{Tencent: tencent})
		require.NoError(t, err)
		for _, p := range packets {
			require.NoError(t, w.WritePacket(p))
		}
		require.NoError(t, w.Close())
		assert.Equal(t, len(packets), w.PacketCount())

		if tencent {
			assert.Equal(t, byte(TencentPrefix), buf.Bytes()[0])
		} else {
			assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte(Magic)))
			assert.True(t, bytes.HasSuffix(buf.Bytes(), []byte{0xFF, 0xFF}))
		}

		r, err := NewReader(&buf)
		require.NoError(t, err)
		assert.Equal(t, tencent, r.Tencent())
		assert.Equal(t, packets, readAll(t, r))

		_, err = r.ReadPacket()
		assert.ErrorIs(t, err, io.EOF)
	}
}

func TestEmptySlotIsNotNil(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)
	require.NoError(t, w.WritePacket(nil))
	require.NoError(t, w.Close())

	r, err := NewReader(&buf)
	require.NoError(t, err)
	p, err := r.ReadPacket()
	require.NoError(t, err)
	assert.NotNil(t, p)
	assert.Empty(t, p)
}

func TestReaderErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrBadMagic},
		{"wrong magic", []byte("#!SILK_V2"), ErrBadMagic},
		{"short magic", []byte("#!SIL"), ErrBadMagic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(bytes.NewReader(tt.data))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestReadPacketErrors(t *testing.T) {
	tests := []struct {
		name string
		body []byte
		want error
	}{
		{"half length", []byte{0x05}, ErrTruncated},
		{"short payload", []byte{0x05, 0x00, 0x01, 0x02}, ErrTruncated},
		{"too large", []byte{0x01, 0x08}, ErrPacketTooLarge},
		{"no end marker", nil, io.EOF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewReader(bytes.NewReader(append([]byte(Magic), tt.body...)))
			require.NoError(t, err)
			_, err = r.ReadPacket()
			assert.ErrorIs(t, err, tt.want)

			// Errors are final.
			_, err = r.ReadPacket()
			assert.ErrorIs(t, err, io.EOF)
		})
	}
}

func TestWriterErrors(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)
	assert.ErrorIs(t, w.WritePacket(make([]byte, MaxPacketSize+1)), ErrPacketTooLarge)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.WritePacket([]byte{1}), ErrClosed)
	assert.Equal(t, 0, w.PacketCount())
}
