package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/gosilk/container/silkfile"
	"github.com/thesyncim/gosilk/internal/testsignal"
	"github.com/thesyncim/gosilk/internal/wav"
)

func writeWAV(t *testing.T, dir string, rate, samples int) string {
	t.Helper()
	path := filepath.Join(dir, "in.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, wav.Write(f, testsignal.Speech(rate, samples, 7), rate))
	require.NoError(t, f.Close())
	return path
}

func readWAV(t *testing.T, path string) ([]int16, int) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	pcm, rate, err := wav.Read(f)
	require.NoError(t, err)
	return pcm, rate
}

func TestParseArgsOverridesConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "c.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("encoder:\n  bitrate: 12000\n  complexity: 1\n"), 0o600))

	opts, err := parseArgs([]string{
		"encode", "-config", cfgPath, "-in", "a.wav", "-out", "a.silk",
		"-bitrate", "30000", "-fec", "-loss", "5", "-log-format", "json",
	}, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, "encode", opts.command)
	assert.Equal(t, 30000, opts.cfg.Encoder.Bitrate, "flag wins over file")
	assert.Equal(t, 1, opts.cfg.Encoder.Complexity, "file value kept")
	assert.True(t, opts.cfg.Encoder.InbandFEC)
	assert.True(t, opts.cfg.Decoder.UseFEC)
	assert.Equal(t, 5.0, opts.cfg.Channel.LossPercentage)
	assert.Equal(t, "json", opts.cfg.Logging.Format)
}

func TestParseArgsErrors(t *testing.T) {
	tests := [][]string{
		nil,
		{"transcode", "-in", "a", "-out", "b"},
		{"encode", "-in", "a"},
		{"encode", "-in", "a", "-out", "b", "-complexity", "9"},
		{"decode", "-in", "a", "-out", "b", "-rate", "11025"},
		{"encode", "-nope"},
	}
	for _, args := range tests {
		_, err := parseArgs(args, &bytes.Buffer{})
		assert.Error(t, err, "args %q", args)
	}
}

func TestEncodeDecode(t *testing.T) {
	dir := t.TempDir()
	in := writeWAV(t, dir, 16000, 16000)
	silk := filepath.Join(dir, "out.silk")
	out := filepath.Join(dir, "out.wav")

	var logs bytes.Buffer
	require.NoError(t, run([]string{"encode", "-in", in, "-out", silk, "-log-format", "json"}, &logs))
	assert.Contains(t, logs.String(), `"msg":"done"`)

	f, err := os.Open(silk)
	require.NoError(t, err)
	r, err := silkfile.NewReader(f)
	require.NoError(t, err)
	packets := 0
	for {
		if _, err := r.ReadPacket(); err != nil {
			break
		}
		packets++
	}
	f.Close()
	assert.Equal(t, 50, packets)

	require.NoError(t, run([]string{"decode", "-in", silk, "-out", out, "-rate", "8000"}, &logs))
	pcm, rate := readWAV(t, out)
	assert.Equal(t, 8000, rate)
	assert.Len(t, pcm, 8000)
}

func TestEncodeTencentLayout(t *testing.T) {
	dir := t.TempDir()
	in := writeWAV(t, dir, 24000, 4800)
	silk := filepath.Join(dir, "out.silk")
	require.NoError(t, run([]string{"encode", "-in", in, "-out", silk, "-tencent"}, &bytes.Buffer{}))

	data, err := os.ReadFile(silk)
	require.NoError(t, err)
	assert.Equal(t, byte(silkfile.TencentPrefix), data[0])
	assert.True(t, strings.HasPrefix(string(data[1:]), silkfile.Magic))
}

func TestRoundTripWithLoss(t *testing.T) {
	dir := t.TempDir()
	in := writeWAV(t, dir, 16000, 32000)
	out := filepath.Join(dir, "out.wav")

	var logs bytes.Buffer
	require.NoError(t, run([]string{
		"roundtrip", "-in", in, "-out", out,
		"-fec", "-loss-hint", "20", "-bitrate", "32000",
		"-loss", "30", "-seed", "3", "-packet-ms", "40",
	}, &logs))

	pcm, rate := readWAV(t, out)
	assert.Equal(t, 16000, rate)
	assert.Len(t, pcm, 32000)
	assert.Contains(t, logs.String(), "lost=")
}

func TestDTXWritesEmptySlots(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "silence.wav")
	f, err := os.Create(in)
	require.NoError(t, err)
	require.NoError(t, wav.Write(f, make([]int16, 16000), 16000))
	require.NoError(t, f.Close())

	silk := filepath.Join(dir, "out.silk")
	require.NoError(t, run([]string{"encode", "-in", in, "-out", silk, "-dtx"}, &bytes.Buffer{}))

	f, err = os.Open(silk)
	require.NoError(t, err)
	defer f.Close()
	r, err := silkfile.NewReader(f)
	require.NoError(t, err)
	var slots, empty int
	for {
		p, err := r.ReadPacket()
		if err != nil {
			break
		}
		slots++
		if len(p) == 0 {
			empty++
		}
	}
	assert.Equal(t, 50, slots)
	assert.Greater(t, empty, 25)
}
