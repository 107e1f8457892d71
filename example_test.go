package gosilk_test

import (
	"fmt"
	"log"
	"math"

	"github.com/thesyncim/gosilk"
)

func ExampleNewEncoder() {
	// Wideband encoder fed with 48 kHz audio
	cfg := gosilk.DefaultEncoderConfig(48000)
	cfg.MaxInternalSampleRate = 16000
	enc, err := gosilk.NewEncoder(cfg)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Frame: %d samples\n", enc.FrameSize())
	// Output: Frame: 960 samples
}

func ExampleNewDecoder() {
	dec, err := gosilk.NewDecoder(gosilk.DefaultDecoderConfig(16000))
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Frame: %d samples\n", dec.FrameSize())
	// Output: Frame: 320 samples
}

func ExampleEncoder_Encode() {
	enc, err := gosilk.NewEncoder(gosilk.DefaultEncoderConfig(16000))
	if err != nil {
		log.Fatal(err)
	}

	// 20ms of a 440 Hz tone
	pcm := make([]int16, enc.FrameSize())
	for i := range pcm {
		pcm[i] = int16(8000 * math.Sin(2*math.Pi*440*float64(i)/16000))
	}

	packet := make([]byte, 1024)
	n, err := enc.Encode(pcm, packet)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(n > 0)
	// Output: true
}

func ExampleDecoder_Decode() {
	enc, _ := gosilk.NewEncoder(gosilk.DefaultEncoderConfig(16000))
	dec, _ := gosilk.NewDecoder(gosilk.DefaultDecoderConfig(16000))

	packet := make([]byte, 1024)
	n, _ := enc.Encode(make([]int16, enc.FrameSize()), packet)

	pcm := make([]int16, dec.FrameSize())
	samples, _, err := dec.Decode(packet[:n], pcm)
	if err != nil {
		log.Fatal(err)
	}

	// A nil packet conceals a loss.
	lost, _, _ := dec.Decode(nil, pcm)

	fmt.Println(samples, lost)
	// Output: 320 320
}
