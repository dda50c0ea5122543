// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

// Detector names accepted by the DETECTOR variable.
const (
	// DetectorFFmpeg selects silence detection via ffmpeg's silencedetect filter.
	DetectorFFmpeg = "ffmpeg"
	// DetectorPCM selects in-process silence detection over decoded WAV samples.
	DetectorPCM = "pcm"
)

// Static errors for configuration validation.
var (
	// ErrInvalidDetector is returned when DETECTOR names an unknown implementation.
	ErrInvalidDetector = errors.New("config: DETECTOR must be \"ffmpeg\" or \"pcm\"")
	// ErrThresholdOutOfRange is returned when SILENCE_THRESHOLD_DB is outside [-120, 0].
	ErrThresholdOutOfRange = errors.New("config: SILENCE_THRESHOLD_DB must be between -120 and 0")
	// ErrMinSilenceNotPositive is returned when MIN_SILENCE_MS is zero or negative.
	ErrMinSilenceNotPositive = errors.New("config: MIN_SILENCE_MS must be positive")
	// ErrQueueSizeNotPositive is returned when JOB_QUEUE_SIZE is zero or negative.
	ErrQueueSizeNotPositive = errors.New("config: JOB_QUEUE_SIZE must be positive")
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Host string `env:"HOST, default=127.0.0.1" json:"host"`
	Port int    `env:"PORT, default=8080" json:"port"`

	// Storage settings
	TempDir string `env:"TEMP_DIR, default=/tmp/silencecut" json:"temp_dir"`

	// External tool paths
	FFmpegPath  string `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path"`
	FFprobePath string `env:"FFPROBE_PATH, default=ffprobe" json:"ffprobe_path"`

	// Silence detection settings
	Detector           string  `env:"DETECTOR, default=ffmpeg" json:"detector"` // "ffmpeg" or "pcm"
	SilenceThresholdDB float64 `env:"SILENCE_THRESHOLD_DB, default=-40" json:"silence_threshold_db"`
	MinSilenceMs       int     `env:"MIN_SILENCE_MS, default=500" json:"min_silence_ms"`

	// Encoding settings
	VideoCodec string `env:"VIDEO_CODEC, default=libx264" json:"video_codec"`
	AudioCodec string `env:"AUDIO_CODEC, default=aac" json:"audio_codec"`

	// Processing settings
	JobQueueSize int `env:"JOB_QUEUE_SIZE, default=16" json:"job_queue_size"`

	// Optional S3 settings
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"` // Optional: S3-compatible endpoint
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Addr returns the host:port address the HTTP server binds to.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Load reads configuration from environment variables using go-envconfig
// and validates the result. Every variable has a default, so Load only
// fails on unparsable or out-of-range values.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all configuration values are within their allowed ranges.
func (c *Config) Validate() error {
	switch c.Detector {
	case DetectorFFmpeg, DetectorPCM:
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidDetector, c.Detector)
	}
	if c.SilenceThresholdDB < -120 || c.SilenceThresholdDB > 0 {
		return fmt.Errorf("%w: got %.1f", ErrThresholdOutOfRange, c.SilenceThresholdDB)
	}
	if c.MinSilenceMs <= 0 {
		return fmt.Errorf("%w: got %d", ErrMinSilenceNotPositive, c.MinSilenceMs)
	}
	if c.JobQueueSize <= 0 {
		return fmt.Errorf("%w: got %d", ErrQueueSizeNotPositive, c.JobQueueSize)
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Host: %s, Port: %d, TempDir: %s, FFmpegPath: %s, FFprobePath: %s, Detector: %s, SilenceThresholdDB: %.1f, MinSilenceMs: %d, VideoCodec: %s, AudioCodec: %s, JobQueueSize: %d, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.Host,
		c.Port,
		c.TempDir,
		c.FFmpegPath,
		c.FFprobePath,
		c.Detector,
		c.SilenceThresholdDB,
		c.MinSilenceMs,
		c.VideoCodec,
		c.AudioCodec,
		c.JobQueueSize,
		c.S3Bucket,
		c.S3Region,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
