// Package job provides the Job aggregate for managing silence removal jobs.
// It includes the Job entity with state machine transitions, repository
// interfaces for persistence, and the CutService that runs the cut pipeline.
package job

import (
	"errors"
	"sync"
	"time"

	"github.com/maauso/silencecut/internal/job/id"
)

// Status represents the current state of a Job.
type Status string

const (
	// StatusInQueue indicates the job is waiting for the worker.
	StatusInQueue Status = "IN_QUEUE"
	// StatusRunning indicates the job is being processed by the worker.
	StatusRunning Status = "RUNNING"
	// StatusCompleted indicates the job finished successfully.
	StatusCompleted Status = "COMPLETED"
	// StatusFailed indicates the job encountered an error during execution.
	StatusFailed Status = "FAILED"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed.
var validTransitions = map[Status][]Status{
	StatusInQueue:   {StatusRunning},
	StatusRunning:   {StatusCompleted, StatusFailed},
	StatusCompleted: {},
	StatusFailed:    {},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Job represents a silence removal job aggregate.
// It contains all state related to cutting the silent stretches out of a
// single video file.
type Job struct {
	mu sync.RWMutex

	// ID is the unique identifier for this job.
	ID string
	// Status is the current job state.
	Status Status
	// Progress is the percentage of completion (0-100).
	Progress int
	// Error contains any error message if the job failed.
	Error string
	// InputPath is the path to the source video.
	InputPath string
	// OutputPath is the path where the cut video is written.
	OutputPath string
	// SilenceThreshDB is the silence threshold in dBFS.
	SilenceThreshDB float64
	// MinSilenceMs is the minimum silence duration in milliseconds.
	MinSilenceMs int
	// Duration is the length of the source audio track in seconds.
	Duration float64
	// SilencesFound is the number of silent ranges detected.
	SilencesFound int
	// SegmentsKept is the number of segments kept in the output.
	SegmentsKept int
	// SilenceRemoved is the total silent time removed, in seconds.
	SilenceRemoved float64
	// VideoURL is the archive URL if the output was uploaded.
	VideoURL string
	// CreatedAt is when the job was created.
	CreatedAt time.Time
	// UpdatedAt is when the job was last updated.
	UpdatedAt time.Time
	// StartedAt is when processing started.
	StartedAt time.Time
	// CompletedAt is when processing finished.
	CompletedAt time.Time
}

// New creates a new Job with a generated ID and initial IN_QUEUE status.
func New() *Job {
	return NewWithID(id.Generate())
}

// NewWithID creates a new Job with the specified ID and initial IN_QUEUE status.
// Useful for testing or when the ID needs to be externally generated.
func NewWithID(jobID string) *Job {
	now := time.Now()
	return &Job{
		ID:        jobID,
		Status:    StatusInQueue,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TransitionTo attempts to change the job status to the specified state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *Job) TransitionTo(status Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !canTransition(j.Status, status) {
		return ErrInvalidTransition
	}

	j.Status = status
	j.UpdatedAt = time.Now()

	// Set timestamps based on state
	switch status {
	case StatusRunning:
		j.StartedAt = j.UpdatedAt
	case StatusCompleted, StatusFailed:
		j.CompletedAt = j.UpdatedAt
	}

	return nil
}

// Start transitions the job from IN_QUEUE to RUNNING.
// Returns ErrInvalidTransition if the job is not in IN_QUEUE state.
func (j *Job) Start() error {
	return j.TransitionTo(StatusRunning)
}

// Complete transitions the job to COMPLETED state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *Job) Complete() error {
	return j.TransitionTo(StatusCompleted)
}

// Fail transitions the job to FAILED state with an error message.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *Job) Fail(errMsg string) error {
	j.mu.Lock()
	j.Error = errMsg
	j.mu.Unlock()
	return j.TransitionTo(StatusFailed)
}

// GetStatus returns the current job status (thread-safe).
func (j *Job) GetStatus() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// UpdateProgress sets the progress percentage (0-100).
func (j *Job) UpdateProgress(progress int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	j.Progress = progress
	j.UpdatedAt = time.Now()
}

// SetStats records the measurements gathered while analyzing the video.
func (j *Job) SetStats(duration float64, silencesFound, segmentsKept int, silenceRemoved float64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Duration = duration
	j.SilencesFound = silencesFound
	j.SegmentsKept = segmentsKept
	j.SilenceRemoved = silenceRemoved
	j.UpdatedAt = time.Now()
}

// SetVideoURL sets the archive URL of the uploaded output video.
func (j *Job) SetVideoURL(url string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.VideoURL = url
	j.UpdatedAt = time.Now()
}

// IsTerminal returns true if the job is in a terminal state.
func (j *Job) IsTerminal() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// Clone creates a deep copy of the job for safe reads.
func (j *Job) Clone() *Job {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return &Job{
		ID:              j.ID,
		Status:          j.Status,
		Progress:        j.Progress,
		Error:           j.Error,
		InputPath:       j.InputPath,
		OutputPath:      j.OutputPath,
		SilenceThreshDB: j.SilenceThreshDB,
		MinSilenceMs:    j.MinSilenceMs,
		Duration:        j.Duration,
		SilencesFound:   j.SilencesFound,
		SegmentsKept:    j.SegmentsKept,
		SilenceRemoved:  j.SilenceRemoved,
		VideoURL:        j.VideoURL,
		CreatedAt:       j.CreatedAt,
		UpdatedAt:       j.UpdatedAt,
		StartedAt:       j.StartedAt,
		CompletedAt:     j.CompletedAt,
	}
}

// Snapshot is an immutable point-in-time view of a Job, used for HTTP
// responses and event payloads.
type Snapshot struct {
	ID              string    `json:"id"`
	Status          Status    `json:"status"`
	Progress        int       `json:"progress"`
	Error           string    `json:"error,omitempty"`
	InputPath       string    `json:"input_path"`
	OutputPath      string    `json:"output_path"`
	SilenceThreshDB float64   `json:"silence_threshold_db"`
	MinSilenceMs    int       `json:"min_silence_ms"`
	Duration        float64   `json:"duration_seconds"`
	SilencesFound   int       `json:"silences_found"`
	SegmentsKept    int       `json:"segments_kept"`
	SilenceRemoved  float64   `json:"silence_removed_seconds"`
	VideoURL        string    `json:"video_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	StartedAt       time.Time `json:"started_at,omitzero"`
	CompletedAt     time.Time `json:"completed_at,omitzero"`
}

// Snapshot returns a point-in-time copy of the job state (thread-safe).
func (j *Job) Snapshot() Snapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return Snapshot{
		ID:              j.ID,
		Status:          j.Status,
		Progress:        j.Progress,
		Error:           j.Error,
		InputPath:       j.InputPath,
		OutputPath:      j.OutputPath,
		SilenceThreshDB: j.SilenceThreshDB,
		MinSilenceMs:    j.MinSilenceMs,
		Duration:        j.Duration,
		SilencesFound:   j.SilencesFound,
		SegmentsKept:    j.SegmentsKept,
		SilenceRemoved:  j.SilenceRemoved,
		VideoURL:        j.VideoURL,
		CreatedAt:       j.CreatedAt,
		StartedAt:       j.StartedAt,
		CompletedAt:     j.CompletedAt,
	}
}
