package silence

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-audio/wav"

	"github.com/maauso/silencecut/internal/segment"
)

// ErrNoAudioData is returned when the WAV file decodes to zero samples.
var ErrNoAudioData = errors.New("silence: no audio data")

// windowMs is the analysis window size in milliseconds.
const windowMs = 10

// PCMDetector implements Detector in pure Go. It decodes the WAV file and
// measures the RMS level of fixed 10 ms windows, reporting runs of quiet
// windows that last at least MinSilenceMs. No subprocess is involved.
type PCMDetector struct{}

// NewPCMDetector creates a new PCMDetector.
func NewPCMDetector() *PCMDetector {
	return &PCMDetector{}
}

// Detect implements Detector over decoded PCM samples. The total parameter
// is unused; the duration is derived from the decoded sample count.
func (d *PCMDetector) Detect(ctx context.Context, audioPath string, total float64, opts Options) ([]segment.Interval, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(audioPath) // #nosec G304 - path is provided by trusted internal code
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	buf, err := wav.NewDecoder(f).FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return nil, ErrNoAudioData
	}

	sampleRate := buf.Format.SampleRate
	channels := buf.Format.NumChannels
	if sampleRate <= 0 || channels < 1 {
		return nil, ErrNoAudioData
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = 16
	}
	maxAmp := float64(int64(1) << (bitDepth - 1))

	windowFrames := sampleRate * windowMs / 1000
	if windowFrames < 1 {
		windowFrames = 1
	}
	windowSamples := windowFrames * channels
	minWindows := (opts.MinSilenceMs + windowMs - 1) / windowMs

	totalFrames := len(buf.Data) / channels
	windows := (len(buf.Data) + windowSamples - 1) / windowSamples

	frameTime := func(frame int) float64 {
		return float64(frame) / float64(sampleRate)
	}

	var intervals []segment.Interval
	runStart := -1
	for w := 0; w < windows; w++ {
		lo := w * windowSamples
		hi := lo + windowSamples
		if hi > len(buf.Data) {
			hi = len(buf.Data)
		}

		if isSilentWindow(buf.Data[lo:hi], maxAmp, opts.SilenceThreshDB) {
			if runStart < 0 {
				runStart = w
			}
			continue
		}
		if runStart >= 0 && w-runStart >= minWindows {
			intervals = append(intervals, segment.Interval{
				Start: frameTime(runStart * windowFrames),
				End:   frameTime(w * windowFrames),
			})
		}
		runStart = -1
	}
	if runStart >= 0 && windows-runStart >= minWindows {
		intervals = append(intervals, segment.Interval{
			Start: frameTime(runStart * windowFrames),
			End:   frameTime(totalFrames),
		})
	}

	return intervals, nil
}

// isSilentWindow reports whether the RMS level of the window is at or
// below threshDB relative to full scale.
func isSilentWindow(samples []int, maxAmp, threshDB float64) bool {
	if len(samples) == 0 {
		return true
	}

	var sumSq float64
	for _, s := range samples {
		v := float64(s) / maxAmp
		sumSq += v * v
	}
	rms := math.Sqrt(sumSq / float64(len(samples)))
	if rms == 0 {
		return true
	}
	return 20*math.Log10(rms) <= threshDB
}

// Verify interface implementation at compile time.
var _ Detector = (*PCMDetector)(nil)
