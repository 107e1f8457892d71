// Package config loads the YAML configuration of the silkcodec tool.
package config

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/thesyncim/gosilk"
)

// Config represents the complete tool configuration
type Config struct {
	Encoder EncoderConfig `yaml:"encoder"`
	Decoder DecoderConfig `yaml:"decoder"`
	Channel ChannelConfig `yaml:"channel"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// EncoderConfig contains the encoder settings
type EncoderConfig struct {
	MaxInternalSampleRate int  `yaml:"max_internal_sample_rate"` // Hz, 0 selects the input rate
	PacketSizeMs          int  `yaml:"packet_size_ms"`
	Bitrate               int  `yaml:"bitrate"` // bits per second
	Complexity            int  `yaml:"complexity"`
	PacketLossPercentage  int  `yaml:"packet_loss_percentage"`
	InbandFEC             bool `yaml:"inband_fec"`
	DTX                   bool `yaml:"dtx"`
}

// DecoderConfig contains the decoder settings
type DecoderConfig struct {
	SampleRate     int  `yaml:"sample_rate"` // Hz, 0 keeps the input rate
	CNGEnterFrames int  `yaml:"cng_enter_frames"`
	CNGExitFrames  int  `yaml:"cng_exit_frames"`
	UseFEC         bool `yaml:"use_fec"`
}

// ChannelConfig describes the simulated network between encoder and
// decoder
type ChannelConfig struct {
	LossPercentage float64 `yaml:"loss_percentage"`
	Seed           int64   `yaml:"seed"`
}

// MetricsConfig contains the Prometheus endpoint configuration
type MetricsConfig struct {
	Address string `yaml:"address"` // empty disables the endpoint
	Path    string `yaml:"path"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Encoder: EncoderConfig{
			MaxInternalSampleRate: 0,
			PacketSizeMs:          20,
			Bitrate:               25000,
			Complexity:            2,
		},
		Decoder: DecoderConfig{
			CNGEnterFrames: 5,
			CNGExitFrames:  2,
			UseFEC:         true,
		},
		Metrics: MetricsConfig{
			Path: "/metrics",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the configuration file at path. Fields missing from the file
// keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate performs validation of the configuration
func (c *Config) Validate() error {
	if err := c.Encoder.Validate(); err != nil {
		return fmt.Errorf("encoder config: %w", err)
	}

	if err := c.Decoder.Validate(); err != nil {
		return fmt.Errorf("decoder config: %w", err)
	}

	if err := c.Channel.Validate(); err != nil {
		return fmt.Errorf("channel config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates the encoder settings against a 16 kHz input; the
// sample rate itself comes from the input file.
func (e *EncoderConfig) Validate() error {
	return e.Codec(16000).Validate()
}

// Codec returns the codec configuration for input at sampleRate.
func (e *EncoderConfig) Codec(sampleRate int) gosilk.EncoderConfig {
	return gosilk.EncoderConfig{
		SampleRate:            sampleRate,
		MaxInternalSampleRate: e.MaxInternalSampleRate,
		Channels:              1,
		PacketSizeMs:          e.PacketSizeMs,
		Bitrate:               e.Bitrate,
		Complexity:            e.Complexity,
		PacketLossPercentage:  e.PacketLossPercentage,
		InbandFEC:             e.InbandFEC,
		DTX:                   e.DTX,
	}
}

// Validate validates the decoder settings
func (d *DecoderConfig) Validate() error {
	if d.SampleRate != 0 {
		if err := d.Codec(d.SampleRate).Validate(); err != nil {
			return err
		}
	}
	if d.CNGEnterFrames < 0 || d.CNGExitFrames < 0 {
		return gosilk.ErrInvalidCNGFrames
	}
	return nil
}

// Codec returns the codec configuration. inputRate is used when no output
// rate is configured.
func (d *DecoderConfig) Codec(inputRate int) gosilk.DecoderConfig {
	rate := d.SampleRate
	if rate == 0 {
		rate = inputRate
	}
	return gosilk.DecoderConfig{
		SampleRate:     rate,
		Channels:       1,
		CNGEnterFrames: d.CNGEnterFrames,
		CNGExitFrames:  d.CNGExitFrames,
	}
}

// Validate validates the channel simulation
func (c *ChannelConfig) Validate() error {
	if c.LossPercentage < 0 || c.LossPercentage > 100 {
		return fmt.Errorf("loss_percentage must be between 0 and 100, got %g", c.LossPercentage)
	}
	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	if _, err := logrus.ParseLevel(l.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", l.Level, err)
	}
	switch l.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", l.Format)
	}
	return nil
}

// NewLogger builds a logger writing to w.
func (l *LoggingConfig) NewLogger(w io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(l.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", l.Level, err)
	}
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(level)
	if l.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}
