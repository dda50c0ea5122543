// Package silence finds silent passages in an audio file.
// Two implementations are provided: one shelling out to ffmpeg's
// silencedetect filter and a pure Go detector over decoded PCM samples.
package silence

import (
	"context"
	"errors"

	"github.com/maauso/silencecut/internal/segment"
)

// Options configures silence detection.
type Options struct {
	// SilenceThreshDB is the volume threshold in dBFS at or below which
	// audio is considered silence.
	// Default: -40 dBFS.
	SilenceThreshDB float64

	// MinSilenceMs is the minimum duration in milliseconds a quiet stretch
	// must last to count as silence.
	// Default: 500 milliseconds.
	MinSilenceMs int
}

// DefaultOptions returns the default detection options.
func DefaultOptions() Options {
	return Options{
		SilenceThreshDB: -40,
		MinSilenceMs:    500,
	}
}

// Static errors for option validation.
var (
	// ErrThresholdOutOfRange is returned when the silence threshold is
	// outside [-120, 0] dBFS.
	ErrThresholdOutOfRange = errors.New("silence: threshold must be between -120 and 0 dBFS")
	// ErrMinSilenceNotPositive is returned when the minimum silence
	// duration is zero or negative.
	ErrMinSilenceNotPositive = errors.New("silence: minimum silence duration must be positive")
)

// Validate checks that the options are within usable bounds.
func (o Options) Validate() error {
	if o.SilenceThreshDB < -120 || o.SilenceThreshDB > 0 {
		return ErrThresholdOutOfRange
	}
	if o.MinSilenceMs <= 0 {
		return ErrMinSilenceNotPositive
	}
	return nil
}

// Detector finds silence intervals in an audio file.
type Detector interface {
	// Detect returns the silence intervals of the audio file at audioPath,
	// in seconds, ordered by start time. total is the media duration in
	// seconds and is used to close a silence that runs to the end of the
	// stream.
	Detect(ctx context.Context, audioPath string, total float64, opts Options) ([]segment.Interval, error)
}
