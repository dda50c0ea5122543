// Package server provides the HTTP server for the silence cutting service.
// It includes handlers, middleware, routes, DTOs separated from domain types,
// and the embedded web control panel.
package server

import "github.com/maauso/silencecut/internal/job"

// CreateJobRequest is the HTTP request body for creating a new job.
// The tuning fields accept JSON numbers as well as numeric strings, which is
// how the web form submits them; omitted fields fall back to the configured
// defaults.
type CreateJobRequest struct {
	// InputPath is the path of the source video on the server host.
	InputPath string `json:"input_path" validate:"required"`
	// OutputPath is the destination path for the cut video.
	OutputPath string `json:"output_path" validate:"required"`
	// SilenceThresholdDB is the silence threshold in dBFS.
	SilenceThresholdDB any `json:"silence_threshold_db,omitempty"`
	// MinSilenceMs is the minimum silence duration in milliseconds.
	MinSilenceMs any `json:"min_silence_ms,omitempty"`
}

// CreateJobResponse is the HTTP response after creating a job.
type CreateJobResponse struct {
	// ID is the unique identifier for the created job.
	ID string `json:"id"`
	// Status is the initial job status.
	Status string `json:"status"`
}

// JobListResponse is the HTTP response for listing jobs.
type JobListResponse struct {
	// Jobs holds the job snapshots ordered by creation time, oldest first.
	Jobs []job.Snapshot `json:"jobs"`
}

// DefaultsResponse is the HTTP response for the detection defaults endpoint.
type DefaultsResponse struct {
	// SilenceThresholdDB is the default silence threshold in dBFS.
	SilenceThresholdDB float64 `json:"silence_threshold_db"`
	// MinSilenceMs is the default minimum silence duration in milliseconds.
	MinSilenceMs int `json:"min_silence_ms"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
