// Package storage provides the temporary file lifecycle for processing
// jobs and optional archival of finished outputs. It defines the Storage
// interface (port) and implementations for local disk and S3.
package storage

import (
	"context"
)

// Storage defines the interface for per-job temporary files and optional
// archival of completed outputs.
type Storage interface {
	// TempDir returns the root directory for temporary files.
	TempDir() string

	// TempAudioPath returns the WAV path reserved for one job's
	// extracted audio. Paths are unique per job.
	TempAudioPath(jobID string) string

	// PartsDir creates and returns the directory holding one job's
	// re-encoded segment parts.
	PartsDir(jobID string) (string, error)

	// CleanupTemp removes the given files or directories.
	// Missing paths are ignored and cleanup continues past failures,
	// returning the first error encountered.
	CleanupTemp(ctx context.Context, paths []string) error

	// ArchiveOutput uploads a finished output file and returns its URL.
	// Returns ErrS3NotConfigured when no archive backend is configured.
	ArchiveOutput(ctx context.Context, path string) (url string, err error)
}
