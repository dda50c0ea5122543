package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrS3NotConfigured is returned when archival is attempted without
// S3 configuration.
var ErrS3NotConfigured = errors.New("S3 storage is not configured")

// LocalStorage implements the Storage interface using local disk.
// It keeps per-job temporary files in a configurable directory and does
// not support archival unless wrapped with S3Storage.
type LocalStorage struct {
	tempDir string
}

// NewLocalStorage creates a new LocalStorage instance.
// The tempDir parameter specifies where temporary files are stored.
// If tempDir is empty, a directory under os.TempDir() is used.
// The directory is created if it doesn't exist.
func NewLocalStorage(tempDir string) (*LocalStorage, error) {
	if tempDir == "" {
		tempDir = filepath.Join(os.TempDir(), "silencecut")
	}

	if err := os.MkdirAll(tempDir, 0750); err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}

	return &LocalStorage{tempDir: tempDir}, nil
}

// TempDir returns the temporary directory path.
func (s *LocalStorage) TempDir() string {
	return s.tempDir
}

// TempAudioPath returns the WAV path reserved for one job's extracted audio.
func (s *LocalStorage) TempAudioPath(jobID string) string {
	return filepath.Join(s.tempDir, fmt.Sprintf("audio_%s.wav", jobID))
}

// PartsDir creates and returns the directory holding one job's segment parts.
func (s *LocalStorage) PartsDir(jobID string) (string, error) {
	dir := filepath.Join(s.tempDir, fmt.Sprintf("parts_%s", jobID))
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("create parts directory: %w", err)
	}
	return dir, nil
}

// CleanupTemp removes the specified temporary files or directories.
// It continues cleanup even if some paths fail to delete,
// returning the first error encountered. Missing paths are ignored.
func (s *LocalStorage) CleanupTemp(ctx context.Context, paths []string) error {
	var firstErr error
	for _, p := range paths {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		if err := os.RemoveAll(p); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("remove temp path %s: %w", p, err)
			}
		}
	}
	return firstErr
}

// ArchiveOutput is not supported by LocalStorage and returns ErrS3NotConfigured.
func (s *LocalStorage) ArchiveOutput(_ context.Context, _ string) (string, error) {
	return "", ErrS3NotConfigured
}

var _ Storage = (*LocalStorage)(nil)
