package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/maauso/silencecut/internal/event"
	"github.com/maauso/silencecut/internal/media"
	"github.com/maauso/silencecut/internal/metrics"
	"github.com/maauso/silencecut/internal/segment"
	"github.com/maauso/silencecut/internal/silence"
	"github.com/maauso/silencecut/internal/storage"
)

// ErrQueueFull is returned by Submit when the job queue is at capacity.
var ErrQueueFull = errors.New("job queue is full")

// defaultQueueSize is the queue capacity used when none is configured.
const defaultQueueSize = 16

// CutParams contains the input parameters for a silence removal job.
type CutParams struct {
	// InputPath is the path to the source video.
	InputPath string
	// OutputPath is the path where the cut video is written.
	OutputPath string
	// SilenceThreshDB is the silence threshold in dBFS.
	SilenceThreshDB float64
	// MinSilenceMs is the minimum silence duration in milliseconds.
	MinSilenceMs int
}

// CutService orchestrates the silence removal workflow.
// It coordinates audio extraction, silence detection, segment re-encoding
// and concatenation to produce a video with its silent stretches cut out.
// Jobs are queued and processed one at a time by Run.
type CutService struct {
	repo     Repository
	engine   media.Engine
	detector silence.Detector
	store    storage.Storage
	events   event.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
	queue    chan string
}

// ServiceOption configures a CutService.
type ServiceOption func(*CutService)

// WithQueueSize sets the capacity of the job queue.
func WithQueueSize(n int) ServiceOption {
	return func(s *CutService) {
		if n > 0 {
			s.queue = make(chan string, n)
		}
	}
}

// WithEventPublisher sets the publisher jobs report log lines, progress and
// state changes to.
func WithEventPublisher(p event.Publisher) ServiceOption {
	return func(s *CutService) {
		if p != nil {
			s.events = p
		}
	}
}

// WithMetrics enables Prometheus metrics collection.
func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *CutService) {
		s.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *CutService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewCutService creates a new CutService.
func NewCutService(repo Repository, engine media.Engine, detector silence.Detector, store storage.Storage, opts ...ServiceOption) *CutService {
	s := &CutService{
		repo:     repo,
		engine:   engine,
		detector: detector,
		store:    store,
		events:   event.NopPublisher{},
		logger:   slog.Default(),
		queue:    make(chan string, defaultQueueSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates the parameters, persists a new job in IN_QUEUE status and
// enqueues it for the worker. Returns ErrQueueFull when the queue is at
// capacity; the job is not persisted in that case.
func (s *CutService) Submit(ctx context.Context, params CutParams) (*Job, error) {
	opts := silence.Options{
		SilenceThreshDB: params.SilenceThreshDB,
		MinSilenceMs:    params.MinSilenceMs,
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	j := New()
	j.InputPath = params.InputPath
	j.OutputPath = params.OutputPath
	j.SilenceThreshDB = params.SilenceThreshDB
	j.MinSilenceMs = params.MinSilenceMs

	s.logger.Info("creating new job",
		slog.String("job_id", j.ID),
		slog.String("input", params.InputPath),
		slog.String("output", params.OutputPath),
		slog.Float64("silence_threshold_db", params.SilenceThreshDB),
		slog.Int("min_silence_ms", params.MinSilenceMs),
	)

	if err := s.repo.Save(ctx, j); err != nil {
		s.logger.Error("failed to save job",
			slog.String("job_id", j.ID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	select {
	case s.queue <- j.ID:
	default:
		if err := s.repo.Delete(ctx, j.ID); err != nil {
			s.logger.Error("failed to delete rejected job",
				slog.String("job_id", j.ID),
				slog.String("error", err.Error()),
			)
		}
		return nil, ErrQueueFull
	}

	s.events.Update(j.ID, false, j.Snapshot())
	return j, nil
}

// GetJob retrieves a job by ID.
func (s *CutService) GetJob(ctx context.Context, id string) (*Job, error) {
	return s.repo.FindByID(ctx, id)
}

// ListJobs returns all known jobs ordered by creation time.
func (s *CutService) ListJobs(ctx context.Context) ([]*Job, error) {
	return s.repo.List(ctx)
}

// Run processes queued jobs one at a time until ctx is cancelled.
// It is intended to run in its own goroutine, started once at boot.
func (s *CutService) Run(ctx context.Context) {
	s.logger.Info("job worker started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("job worker stopped")
			return
		case jobID := <-s.queue:
			s.process(ctx, jobID)
		}
	}
}

// process runs the full cut pipeline for one job. Any step failure marks the
// job FAILED; temporary files are removed in all cases.
func (s *CutService) process(ctx context.Context, jobID string) {
	j, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		s.logger.Error("failed to load queued job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := j.Start(); err != nil {
		s.logger.Error("failed to start job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		return
	}
	s.saveJob(ctx, j)
	s.events.Update(j.ID, false, j.Snapshot())
	if s.metrics != nil {
		s.metrics.RecordJobStarted()
	}
	started := time.Now()

	wavPath := s.store.TempAudioPath(j.ID)
	cleanup := []string{wavPath}
	defer func() {
		// Cleanup must run even when ctx is already cancelled.
		if err := s.store.CleanupTemp(context.Background(), cleanup); err != nil {
			s.logger.Warn("failed to clean up temp files",
				slog.String("job_id", j.ID),
				slog.String("error", err.Error()),
			)
		}
	}()

	s.events.Log(j.ID, "Extracting audio...")
	s.setProgress(ctx, j, 10)

	if err := s.engine.ExtractAudio(ctx, j.InputPath, wavPath); err != nil {
		s.failJob(ctx, j, started, fmt.Errorf("extracting audio: %w", err))
		return
	}

	total, err := s.engine.ProbeDuration(ctx, wavPath)
	if err != nil {
		s.failJob(ctx, j, started, fmt.Errorf("probing audio duration: %w", err))
		return
	}

	s.events.Log(j.ID, "Analyzing silences...")
	s.setProgress(ctx, j, 30)

	detected, err := s.detector.Detect(ctx, wavPath, total, silence.Options{
		SilenceThreshDB: j.SilenceThreshDB,
		MinSilenceMs:    j.MinSilenceMs,
	})
	if err != nil {
		s.failJob(ctx, j, started, fmt.Errorf("detecting silences: %w", err))
		return
	}

	silences := segment.Normalize(detected, total)
	keeps := segment.Complement(silences, total)
	removed := segment.Total(silences)

	if len(keeps) == 0 {
		// Nothing to keep means nothing gets cut either.
		removed = 0
		s.events.Log(j.ID, "Input is silent throughout, copying original video unchanged...")
		if err := s.engine.CopyFile(ctx, j.InputPath, j.OutputPath); err != nil {
			s.failJob(ctx, j, started, fmt.Errorf("copying original video: %w", err))
			return
		}
	} else {
		s.events.Log(j.ID, fmt.Sprintf("Assembling video with %d segments...", len(keeps)))
		s.setProgress(ctx, j, 40)

		partsDir, err := s.store.PartsDir(j.ID)
		if err != nil {
			s.failJob(ctx, j, started, fmt.Errorf("creating parts directory: %w", err))
			return
		}
		cleanup = append(cleanup, partsDir)

		parts := make([]string, 0, len(keeps))
		for i, keep := range keeps {
			partPath := filepath.Join(partsDir, fmt.Sprintf("part_%03d.mp4", i))
			if err := s.engine.ExtractSegment(ctx, j.InputPath, keep, partPath); err != nil {
				s.failJob(ctx, j, started, fmt.Errorf("extracting segment %d: %w", i, err))
				return
			}
			parts = append(parts, partPath)
			s.setProgress(ctx, j, 40+(i+1)*55/len(keeps))
		}

		if err := s.engine.Concat(ctx, parts, j.OutputPath); err != nil {
			s.failJob(ctx, j, started, fmt.Errorf("joining segments: %w", err))
			return
		}
	}

	j.SetStats(total, len(silences), len(keeps), removed)

	if url, err := s.store.ArchiveOutput(ctx, j.OutputPath); err != nil {
		if !errors.Is(err, storage.ErrS3NotConfigured) {
			s.logger.Warn("failed to archive output video",
				slog.String("job_id", j.ID),
				slog.String("error", err.Error()),
			)
		}
	} else {
		j.SetVideoURL(url)
	}

	if err := j.Complete(); err != nil {
		s.logger.Error("failed to complete job",
			slog.String("job_id", j.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	j.UpdateProgress(100)
	s.saveJob(ctx, j)
	s.events.Progress(j.ID, 100)
	s.events.Log(j.ID, "Processing complete!")
	s.events.Update(j.ID, true, j.Snapshot())
	if s.metrics != nil {
		s.metrics.RecordJobCompleted(time.Since(started).Seconds(), removed, len(keeps))
	}

	s.logger.Info("job completed",
		slog.String("job_id", j.ID),
		slog.Int("segments_kept", len(keeps)),
		slog.Float64("silence_removed_seconds", removed),
		slog.Duration("elapsed", time.Since(started)),
	)
}

// setProgress records progress on the job and broadcasts it.
func (s *CutService) setProgress(ctx context.Context, j *Job, percent int) {
	j.UpdateProgress(percent)
	s.saveJob(ctx, j)
	s.events.Progress(j.ID, percent)
}

// failJob marks the job FAILED and reports the error to the server log and
// the event stream.
func (s *CutService) failJob(ctx context.Context, j *Job, started time.Time, err error) {
	s.logger.Error("job failed",
		slog.String("job_id", j.ID),
		slog.String("error", err.Error()),
	)
	s.events.Log(j.ID, "Critical error: "+err.Error())
	if ferr := j.Fail(err.Error()); ferr != nil {
		s.logger.Error("failed to mark job failed",
			slog.String("job_id", j.ID),
			slog.String("error", ferr.Error()),
		)
	}
	s.saveJob(ctx, j)
	s.events.Update(j.ID, true, j.Snapshot())
	if s.metrics != nil {
		s.metrics.RecordJobFailed(time.Since(started).Seconds())
	}
}

// saveJob persists the job, logging instead of failing on repository errors.
func (s *CutService) saveJob(ctx context.Context, j *Job) {
	if err := s.repo.Save(ctx, j); err != nil {
		s.logger.Error("failed to save job",
			slog.String("job_id", j.ID),
			slog.String("error", err.Error()),
		)
	}
}
