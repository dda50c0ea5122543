package job

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	job := New()

	if job.ID == "" {
		t.Error("expected job to have an ID")
	}
	if job.Status != StatusInQueue {
		t.Errorf("expected status %s, got %s", StatusInQueue, job.Status)
	}
	if job.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
	if job.UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt to be set")
	}
}

func TestNewWithID(t *testing.T) {
	id := "test-job-123"
	job := NewWithID(id)

	if job.ID != id {
		t.Errorf("expected ID %s, got %s", id, job.ID)
	}
	if job.Status != StatusInQueue {
		t.Errorf("expected status %s, got %s", StatusInQueue, job.Status)
	}
}

func TestJob_ValidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		wantErr bool
	}{
		// Valid transitions
		{"IN_QUEUE to RUNNING", StatusInQueue, StatusRunning, false},
		{"RUNNING to COMPLETED", StatusRunning, StatusCompleted, false},
		{"RUNNING to FAILED", StatusRunning, StatusFailed, false},
		// Invalid transitions
		{"IN_QUEUE to COMPLETED", StatusInQueue, StatusCompleted, true},
		{"IN_QUEUE to FAILED", StatusInQueue, StatusFailed, true},
		{"RUNNING to IN_QUEUE", StatusRunning, StatusInQueue, true},
		{"COMPLETED to IN_QUEUE", StatusCompleted, StatusInQueue, true},
		{"COMPLETED to RUNNING", StatusCompleted, StatusRunning, true},
		{"FAILED to RUNNING", StatusFailed, StatusRunning, true},
		{"FAILED to COMPLETED", StatusFailed, StatusCompleted, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewWithID("test")
			job.Status = tt.from

			err := job.TransitionTo(tt.to)

			if tt.wantErr && err == nil {
				t.Errorf("expected error for transition %s -> %s", tt.from, tt.to)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error for transition %s -> %s: %v", tt.from, tt.to, err)
			}
		})
	}
}

func TestJob_Start(t *testing.T) {
	job := New()
	beforeStart := time.Now()

	err := job.Start()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if job.Status != StatusRunning {
		t.Errorf("expected status %s, got %s", StatusRunning, job.Status)
	}
	if job.StartedAt.Before(beforeStart) {
		t.Error("expected StartedAt to be set after test start")
	}
}

func TestJob_Complete(t *testing.T) {
	job := New()
	_ = job.Start()

	err := job.Complete()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if job.Status != StatusCompleted {
		t.Errorf("expected status %s, got %s", StatusCompleted, job.Status)
	}
	if job.CompletedAt.IsZero() {
		t.Error("expected CompletedAt to be set")
	}
}

func TestJob_Fail(t *testing.T) {
	job := New()
	_ = job.Start()

	errMsg := "something went wrong"
	err := job.Fail(errMsg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if job.Status != StatusFailed {
		t.Errorf("expected status %s, got %s", StatusFailed, job.Status)
	}
	if job.Error != errMsg {
		t.Errorf("expected error %q, got %q", errMsg, job.Error)
	}
	if job.CompletedAt.IsZero() {
		t.Error("expected CompletedAt to be set on failure")
	}
}

func TestJob_CannotTransitionFromTerminalState(t *testing.T) {
	terminalStates := []Status{StatusCompleted, StatusFailed}
	allStates := []Status{StatusInQueue, StatusRunning, StatusCompleted, StatusFailed}

	for _, terminal := range terminalStates {
		for _, target := range allStates {
			t.Run(string(terminal)+"_to_"+string(target), func(t *testing.T) {
				job := NewWithID("test")
				job.Status = terminal

				err := job.TransitionTo(target)
				if err == nil {
					t.Errorf("expected error when transitioning from %s to %s", terminal, target)
				}
				if err != ErrInvalidTransition {
					t.Errorf("expected ErrInvalidTransition, got %v", err)
				}
			})
		}
	}
}

func TestJob_IsTerminal(t *testing.T) {
	tests := []struct {
		status   Status
		terminal bool
	}{
		{StatusInQueue, false},
		{StatusRunning, false},
		{StatusCompleted, true},
		{StatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			job := NewWithID("test")
			job.Status = tt.status

			if got := job.IsTerminal(); got != tt.terminal {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.terminal)
			}
		})
	}
}

func TestJob_UpdateProgress(t *testing.T) {
	job := New()

	tests := []struct {
		input    int
		expected int
	}{
		{50, 50},
		{0, 0},
		{100, 100},
		{-10, 0},   // Clamped to 0
		{150, 100}, // Clamped to 100
	}

	for _, tt := range tests {
		job.UpdateProgress(tt.input)
		if job.Progress != tt.expected {
			t.Errorf("UpdateProgress(%d): expected %d, got %d", tt.input, tt.expected, job.Progress)
		}
	}
}

func TestJob_SetStats(t *testing.T) {
	job := New()

	job.SetStats(12.5, 3, 4, 2.75)

	if job.Duration != 12.5 {
		t.Errorf("expected duration 12.5, got %f", job.Duration)
	}
	if job.SilencesFound != 3 {
		t.Errorf("expected 3 silences found, got %d", job.SilencesFound)
	}
	if job.SegmentsKept != 4 {
		t.Errorf("expected 4 segments kept, got %d", job.SegmentsKept)
	}
	if job.SilenceRemoved != 2.75 {
		t.Errorf("expected 2.75 seconds removed, got %f", job.SilenceRemoved)
	}
}

func TestJob_SetVideoURL(t *testing.T) {
	job := New()

	job.SetVideoURL("https://s3.example.com/video.mp4")

	if job.VideoURL != "https://s3.example.com/video.mp4" {
		t.Errorf("expected VideoURL https://s3.example.com/video.mp4, got %s", job.VideoURL)
	}
}

func TestJob_Clone(t *testing.T) {
	job := New()
	job.Status = StatusRunning
	job.Progress = 50
	job.SetStats(30, 2, 3, 5.5)

	clone := job.Clone()

	// Verify clone has same values
	if clone.ID != job.ID {
		t.Errorf("expected ID %s, got %s", job.ID, clone.ID)
	}
	if clone.Status != job.Status {
		t.Errorf("expected Status %s, got %s", job.Status, clone.Status)
	}
	if clone.Progress != job.Progress {
		t.Errorf("expected Progress %d, got %d", job.Progress, clone.Progress)
	}
	if clone.SilenceRemoved != job.SilenceRemoved {
		t.Errorf("expected SilenceRemoved %f, got %f", job.SilenceRemoved, clone.SilenceRemoved)
	}

	// Verify clone is independent
	clone.Status = StatusCompleted
	clone.SegmentsKept = 99
	if job.Status == StatusCompleted {
		t.Error("modifying clone should not affect original")
	}
	if job.SegmentsKept == 99 {
		t.Error("modifying clone stats should not affect original")
	}
}

func TestJob_Snapshot(t *testing.T) {
	job := NewWithID("job-snap")
	job.InputPath = "/videos/in.mp4"
	job.OutputPath = "/videos/out.mp4"
	job.SilenceThreshDB = -35
	job.MinSilenceMs = 250
	_ = job.Start()
	job.SetStats(60, 2, 3, 10.5)
	job.UpdateProgress(80)

	snap := job.Snapshot()

	if snap.ID != "job-snap" {
		t.Errorf("expected ID job-snap, got %s", snap.ID)
	}
	if snap.Status != StatusRunning {
		t.Errorf("expected status %s, got %s", StatusRunning, snap.Status)
	}
	if snap.Progress != 80 {
		t.Errorf("expected progress 80, got %d", snap.Progress)
	}
	if snap.InputPath != "/videos/in.mp4" {
		t.Errorf("expected input path /videos/in.mp4, got %s", snap.InputPath)
	}
	if snap.SilenceThreshDB != -35 {
		t.Errorf("expected threshold -35, got %f", snap.SilenceThreshDB)
	}
	if snap.MinSilenceMs != 250 {
		t.Errorf("expected min silence 250, got %d", snap.MinSilenceMs)
	}
	if snap.Duration != 60 {
		t.Errorf("expected duration 60, got %f", snap.Duration)
	}
	if snap.SilenceRemoved != 10.5 {
		t.Errorf("expected 10.5 seconds removed, got %f", snap.SilenceRemoved)
	}
	if snap.StartedAt.IsZero() {
		t.Error("expected StartedAt to be set")
	}
	if !snap.CompletedAt.IsZero() {
		t.Error("expected CompletedAt to be zero while running")
	}
}

func TestJob_SnapshotJSON_OmitsZeroTimestamps(t *testing.T) {
	job := NewWithID("job-json")

	data, err := json.Marshal(job.Snapshot())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body := string(data)
	if strings.Contains(body, "started_at") {
		t.Error("expected started_at to be omitted for a queued job")
	}
	if strings.Contains(body, "completed_at") {
		t.Error("expected completed_at to be omitted for a queued job")
	}
	if !strings.Contains(body, `"status":"IN_QUEUE"`) {
		t.Errorf("expected status IN_QUEUE in body, got %s", body)
	}
}

func TestJob_GetStatus_ThreadSafe(t *testing.T) {
	job := New()

	done := make(chan bool)
	go func() {
		for i := 0; i < 100; i++ {
			_ = job.GetStatus()
		}
		done <- true
	}()

	go func() {
		for i := 0; i < 100; i++ {
			_ = job.Start()
		}
		done <- true
	}()

	<-done
	<-done
	// If no race conditions, test passes
}
