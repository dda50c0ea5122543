// Package media provides the transcoding operations the processing
// pipeline needs.
package media

import (
	"context"

	"github.com/maauso/silencecut/internal/segment"
)

// Engine defines the interface for transcoding operations.
// Implementations should use ffmpeg or similar tools.
type Engine interface {
	// ExtractAudio decodes the audio stream of videoPath into a mono
	// 44.1 kHz signed 16-bit PCM WAV file at wavPath, overwriting any
	// existing file.
	ExtractAudio(ctx context.Context, videoPath, wavPath string) error

	// ProbeDuration returns the duration of a media file in seconds.
	ProbeDuration(ctx context.Context, path string) (float64, error)

	// ExtractSegment re-encodes the given time range of videoPath into
	// partPath with the configured codecs, overwriting any existing file.
	ExtractSegment(ctx context.Context, videoPath string, seg segment.Interval, partPath string) error

	// Concat joins previously extracted parts into output without
	// re-encoding, overwriting any existing file. Parts must share codecs
	// and container.
	Concat(ctx context.Context, parts []string, output string) error

	// CopyFile copies src to dst unchanged.
	CopyFile(ctx context.Context, src, dst string) error
}
