// Command silkcodec encodes WAV files to SILK v3 files and back.
//
// Usage:
//
//	silkcodec encode -in speech.wav -out speech.silk -bitrate 20000 -dtx
//	silkcodec decode -in speech.silk -out decoded.wav -rate 16000 -loss 10
//	silkcodec roundtrip -in speech.wav -out decoded.wav -fec -loss 10
//
// Settings are read from an optional YAML file (-config) and overridden by
// flags. With -metrics-addr the codec counters are served for Prometheus.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/thesyncim/gosilk/internal/config"
	"github.com/thesyncim/gosilk/metrics"
)

// options holds the command line.
type options struct {
	command string
	in      string
	out     string
	tencent bool
	cfg     *config.Config
}

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "silkcodec:", err)
		os.Exit(1)
	}
}

func run(args []string, stderr io.Writer) error {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}

	logger, err := opts.cfg.Logging.NewLogger(stderr)
	if err != nil {
		return err
	}
	log := logger.WithField("command", opts.command)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := metrics.New(reg)
	if addr := opts.cfg.Metrics.Address; addr != "" {
		serveMetrics(addr, opts.cfg.Metrics.Path, reg, log)
	}

	in, err := os.Open(opts.in)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(opts.out)
	if err != nil {
		return err
	}

	s := &session{cfg: opts.cfg, log: log, obs: m}
	switch opts.command {
	case "encode":
		err = s.encode(in, out, opts.tencent)
	case "decode":
		err = s.decode(in, out)
	case "roundtrip":
		err = s.roundtrip(in, out)
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields(s.stats.fields())).Info("done")
	return nil
}

func serveMetrics(addr, path string, g prometheus.Gatherer, log logrus.FieldLogger) {
	mux := http.NewServeMux()
	mux.Handle(path, metrics.Handler(g))
	go func() {
		log.WithField("addr", addr).Info("serving metrics")
		if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server stopped")
		}
	}()
}

var errUsage = errors.New("usage: silkcodec encode|decode|roundtrip -in FILE -out FILE [flags]")

// parseArgs loads the configuration file and applies the flags that were
// set on top of it.
func parseArgs(args []string, stderr io.Writer) (*options, error) {
	if len(args) == 0 {
		return nil, errUsage
	}
	opts := &options{command: args[0]}
	switch opts.command {
	case "encode", "decode", "roundtrip":
	default:
		return nil, errUsage
	}

	fs := flag.NewFlagSet(opts.command, flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML configuration file")
	fs.StringVar(&opts.in, "in", "", "Input file")
	fs.StringVar(&opts.out, "out", "", "Output file")
	fs.BoolVar(&opts.tencent, "tencent", false, "Write the WeChat/QQ file layout")

	var (
		bitrate    = fs.Int("bitrate", 0, "Target bitrate in bps")
		complexity = fs.Int("complexity", 0, "Complexity 0-2")
		packetMs   = fs.Int("packet-ms", 0, "Packet duration in ms")
		maxRate    = fs.Int("max-internal-rate", 0, "Highest internal sample rate in Hz")
		fec        = fs.Bool("fec", false, "Enable in-band FEC")
		dtx        = fs.Bool("dtx", false, "Enable DTX")
		lossHint   = fs.Int("loss-hint", 0, "Expected packet loss percentage")
		rate       = fs.Int("rate", 0, "Decoder output sample rate in Hz")
		loss       = fs.Float64("loss", 0, "Simulated packet loss percentage")
		seed       = fs.Int64("seed", 0, "Seed of the simulated loss")
		logLevel   = fs.String("log-level", "", "Log level")
		logFormat  = fs.String("log-format", "", "Log format: text or json")
		metricAddr = fs.String("metrics-addr", "", "Address to serve Prometheus metrics on")
	)
	if err := fs.Parse(args[1:]); err != nil {
		return nil, err
	}
	if opts.in == "" || opts.out == "" {
		return nil, errUsage
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return nil, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "bitrate":
			cfg.Encoder.Bitrate = *bitrate
		case "complexity":
			cfg.Encoder.Complexity = *complexity
		case "packet-ms":
			cfg.Encoder.PacketSizeMs = *packetMs
		case "max-internal-rate":
			cfg.Encoder.MaxInternalSampleRate = *maxRate
		case "fec":
			cfg.Encoder.InbandFEC = *fec
			cfg.Decoder.UseFEC = *fec
		case "dtx":
			cfg.Encoder.DTX = *dtx
		case "loss-hint":
			cfg.Encoder.PacketLossPercentage = *lossHint
		case "rate":
			cfg.Decoder.SampleRate = *rate
		case "loss":
			cfg.Channel.LossPercentage = *loss
		case "seed":
			cfg.Channel.Seed = *seed
		case "log-level":
			cfg.Logging.Level = *logLevel
		case "log-format":
			cfg.Logging.Format = *logFormat
		case "metrics-addr":
			cfg.Metrics.Address = *metricAddr
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts.cfg = cfg
	return opts, nil
}
