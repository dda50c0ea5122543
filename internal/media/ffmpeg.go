package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/maauso/silencecut/internal/segment"
)

// Static errors for media operations.
var (
	// ErrNoParts is returned when no part files are provided for joining.
	ErrNoParts = errors.New("no parts provided")
	// ErrInvalidSegment is returned when a segment has no positive duration.
	ErrInvalidSegment = errors.New("invalid segment: duration must be positive")
	// ErrFFprobeExecution is returned when the ffprobe command fails.
	ErrFFprobeExecution = errors.New("ffprobe execution failed")
)

// FFmpegEngine implements Engine using the ffmpeg CLI.
type FFmpegEngine struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
	// ffprobePath is the path to the ffprobe binary. Defaults to "ffprobe".
	ffprobePath string
	// videoCodec is the codec used when re-encoding segments. Defaults to "libx264".
	videoCodec string
	// audioCodec is the codec used when re-encoding segments. Defaults to "aac".
	audioCodec string
}

// EngineOption is a function that configures an FFmpegEngine.
type EngineOption func(*FFmpegEngine)

// WithFFmpegPath sets the path to the ffmpeg binary.
func WithFFmpegPath(path string) EngineOption {
	return func(e *FFmpegEngine) {
		if path != "" {
			e.ffmpegPath = path
		}
	}
}

// WithFFprobePath sets the path to the ffprobe binary.
func WithFFprobePath(path string) EngineOption {
	return func(e *FFmpegEngine) {
		if path != "" {
			e.ffprobePath = path
		}
	}
}

// WithCodecs sets the video and audio codecs used when re-encoding.
func WithCodecs(video, audio string) EngineOption {
	return func(e *FFmpegEngine) {
		if video != "" {
			e.videoCodec = video
		}
		if audio != "" {
			e.audioCodec = audio
		}
	}
}

// NewFFmpegEngine creates a new FFmpegEngine with libx264/aac defaults.
func NewFFmpegEngine(opts ...EngineOption) *FFmpegEngine {
	e := &FFmpegEngine{
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
		videoCodec:  "libx264",
		audioCodec:  "aac",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractAudio decodes the input's audio stream to a mono 44.1 kHz
// signed 16-bit PCM WAV file.
func (e *FFmpegEngine) ExtractAudio(ctx context.Context, videoPath, wavPath string) error {
	args := []string{
		"-y",
		"-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "44100",
		"-ac", "1",
		wavPath,
	}
	return e.runFFmpeg(ctx, args)
}

// ProbeDuration returns the duration in seconds of a media file using
// ffprobe format metadata.
func (e *FFmpegEngine) ProbeDuration(ctx context.Context, path string) (float64, error) {
	// #nosec G204 - ffprobePath is set by the application, not user input
	cmd := exec.CommandContext(ctx, e.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("ffprobe cancelled: %w", ctx.Err())
		}
		return 0, fmt.Errorf("%w: %w, stderr: %s", ErrFFprobeExecution, err, stderr.String())
	}

	var duration float64
	if _, err := fmt.Sscanf(strings.TrimSpace(stdout.String()), "%f", &duration); err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}

	return duration, nil
}

// ExtractSegment re-encodes one time range of the input into partPath.
// Seeking happens before the input is opened, so cuts land on the
// requested timestamps regardless of keyframe placement.
func (e *FFmpegEngine) ExtractSegment(ctx context.Context, videoPath string, seg segment.Interval, partPath string) error {
	if seg.Duration() <= 0 {
		return fmt.Errorf("%w: start=%.3f end=%.3f", ErrInvalidSegment, seg.Start, seg.End)
	}

	args := []string{
		"-y",
		"-ss", fmt.Sprintf("%.3f", seg.Start),
		"-t", fmt.Sprintf("%.3f", seg.Duration()),
		"-i", videoPath,
		"-c:v", e.videoCodec,
		"-preset", "fast",
		"-crf", "23",
		"-c:a", e.audioCodec,
		"-b:a", "128k",
		partPath,
	}
	return e.runFFmpeg(ctx, args)
}

// Concat joins the part files into output with the concat demuxer. The
// parts were re-encoded with identical codecs, so the streams are copied.
func (e *FFmpegEngine) Concat(ctx context.Context, parts []string, output string) error {
	if len(parts) == 0 {
		return ErrNoParts
	}

	if len(parts) == 1 {
		return e.CopyFile(ctx, parts[0], output)
	}

	listFile, err := e.createConcatList(parts)
	if err != nil {
		return fmt.Errorf("create concat list: %w", err)
	}
	defer func() { _ = os.Remove(listFile) }()

	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c", "copy",
		output,
	}
	return e.runFFmpeg(ctx, args)
}

// createConcatList creates a temporary file listing the part files in the
// format required by ffmpeg's concat demuxer.
func (e *FFmpegEngine) createConcatList(parts []string) (string, error) {
	f, err := os.CreateTemp("", "silencecut-concat-*.txt")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = f.Close() }()

	for _, path := range parts {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("get absolute path for %s: %w", path, err)
		}
		// Escape single quotes in path
		escapedPath := strings.ReplaceAll(absPath, "'", "'\\''")
		if _, err := fmt.Fprintf(f, "file '%s'\n", escapedPath); err != nil {
			return "", fmt.Errorf("write to concat list: %w", err)
		}
	}

	return f.Name(), nil
}

// CopyFile copies a file from src to dst unchanged.
func (e *FFmpegEngine) CopyFile(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	in, err := os.Open(src) // #nosec G304 - src is provided by trusted internal code
	if err != nil {
		return fmt.Errorf("open source file: %w", err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst) // #nosec G304 - dst is provided by trusted internal code
	if err != nil {
		return fmt.Errorf("create destination file: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy file contents: %w", err)
	}
	return out.Close()
}

// runFFmpeg executes ffmpeg with the given arguments and returns an error
// containing stderr output if the command fails.
func (e *FFmpegEngine) runFFmpeg(ctx context.Context, args []string) error {
	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return &FFmpegError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return nil
}

// FFmpegError represents an error from running ffmpeg, including the stderr output.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}

// Verify interface implementation at compile time.
var _ Engine = (*FFmpegEngine)(nil)
