package silence

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/maauso/silencecut/internal/segment"
)

// FFmpegDetector implements Detector using the ffmpeg silencedetect filter.
type FFmpegDetector struct {
	ffmpegPath string
}

// NewFFmpegDetector creates a new FFmpegDetector.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found in PATH).
func NewFFmpegDetector(ffmpegPath string) *FFmpegDetector {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegDetector{ffmpegPath: ffmpegPath}
}

// silencedetect reports interval boundaries on stderr.
var (
	silenceStartRe = regexp.MustCompile(`silence_start:\s*(-?[\d.]+)`)
	silenceEndRe   = regexp.MustCompile(`silence_end:\s*(-?[\d.]+)`)
)

// Detect implements Detector by running ffmpeg with the silencedetect
// filter and parsing the interval boundaries it logs.
func (d *FFmpegDetector) Detect(ctx context.Context, audioPath string, total float64, opts Options) ([]segment.Interval, error) {
	if _, err := os.Stat(audioPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("input file does not exist: %s", audioPath)
	}

	filter := fmt.Sprintf("silencedetect=noise=%ddB:d=%f",
		int(opts.SilenceThreshDB),
		float64(opts.MinSilenceMs)/1000.0,
	)

	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, d.ffmpegPath,
		"-i", audioPath,
		"-af", filter,
		"-f", "null",
		"-hide_banner",
		"-",
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	// The exit code is irrelevant with the null muxer; the silencedetect
	// log on stderr is what matters.
	_ = cmd.Run()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return parseSilenceOutput(stderr.String(), total), nil
}

// parseSilenceOutput pairs silence_start and silence_end lines from
// ffmpeg stderr. A silence still open at the end of the log is closed at
// total.
func parseSilenceOutput(output string, total float64) []segment.Interval {
	var intervals []segment.Interval

	var currentStart float64
	hasStart := false

	for _, line := range strings.Split(output, "\n") {
		if m := silenceStartRe.FindStringSubmatch(line); len(m) > 1 {
			val, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			currentStart = val
			hasStart = true
		}

		if m := silenceEndRe.FindStringSubmatch(line); len(m) > 1 && hasStart {
			val, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			intervals = append(intervals, segment.Interval{Start: currentStart, End: val})
			hasStart = false
		}
	}

	if hasStart && total > currentStart {
		intervals = append(intervals, segment.Interval{Start: currentStart, End: total})
	}

	return intervals
}

// Verify interface implementation at compile time.
var _ Detector = (*FFmpegDetector)(nil)
