package silkfile_test

import (
	"bytes"
	"fmt"
	"io"
	"log"

	"github.com/thesyncim/gosilk"
	"github.com/thesyncim/gosilk/container/silkfile"
	"github.com/thesyncim/gosilk/internal/testsignal"
)

func Example() {
	enc, err := gosilk.NewEncoder(gosilk.DefaultEncoderConfig(16000))
	if err != nil {
		log.Fatal(err)
	}

	var file bytes.Buffer
	w, err := silkfile.NewWriter(&file)
	if err != nil {
		log.Fatal(err)
	}
	in := testsignal.Speech(16000, 16000, 1)
	packet := make([]byte, silkfile.MaxPacketSize)
	for _, frame := range testsignal.Frames(in, enc.FrameSize()) {
		n, err := enc.Encode(frame, packet)
		if err != nil {
			log.Fatal(err)
		}
		if err := w.WritePacket(packet[:n]); err != nil {
			log.Fatal(err)
		}
	}
	w.Close()

	dec, err := gosilk.NewDecoder(gosilk.DefaultDecoderConfig(16000))
	if err != nil {
		log.Fatal(err)
	}
	r, err := silkfile.NewReader(&file)
	if err != nil {
		log.Fatal(err)
	}
	pcm := make([]int16, 5*dec.FrameSize())
	total := 0
	for {
		p, err := r.ReadPacket()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatal(err)
		}
		n, err := dec.DecodePacket(p, pcm)
		if err != nil {
			log.Fatal(err)
		}
		total += n
	}
	fmt.Println(total)
	// Output: 16000
}
