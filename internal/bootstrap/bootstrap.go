// Package bootstrap provides dependency initialization for the silencecut server.
package bootstrap

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/maauso/silencecut/internal/config"
	"github.com/maauso/silencecut/internal/event"
	"github.com/maauso/silencecut/internal/job"
	"github.com/maauso/silencecut/internal/media"
	"github.com/maauso/silencecut/internal/metrics"
	"github.com/maauso/silencecut/internal/server"
	"github.com/maauso/silencecut/internal/silence"
	"github.com/maauso/silencecut/internal/storage"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	// CutService processes submitted jobs. Its Run method must be started
	// on a background goroutine.
	CutService *job.CutService
	// Router is the fully wired HTTP handler.
	Router http.Handler
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	// Initialize storage
	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	// Initialize the transcoding engine
	engine := media.NewFFmpegEngine(
		media.WithFFmpegPath(cfg.FFmpegPath),
		media.WithFFprobePath(cfg.FFprobePath),
		media.WithCodecs(cfg.VideoCodec, cfg.AudioCodec),
	)

	// Initialize the silence detector
	detector, err := initDetector(cfg)
	if err != nil {
		return nil, err
	}

	// Initialize job repository, event hub and metrics
	repo := job.NewMemoryRepository()
	hub := event.NewHub(logger)
	m := metrics.NewMetrics(prometheus.DefaultRegisterer)

	// Initialize CutService
	svc := job.NewCutService(repo, engine, detector, store,
		job.WithQueueSize(cfg.JobQueueSize),
		job.WithEventPublisher(hub),
		job.WithMetrics(m),
		job.WithLogger(logger),
	)

	handlers := server.NewHandlers(svc, logger, server.WithDefaults(silence.Options{
		SilenceThreshDB: cfg.SilenceThresholdDB,
		MinSilenceMs:    cfg.MinSilenceMs,
	}))

	router := server.NewRouter(handlers, hub, m, logger, server.DefaultConfig())

	return &Dependencies{
		CutService: svc,
		Router:     router,
	}, nil
}

// initDetector selects the silence detector implementation.
func initDetector(cfg *config.Config) (silence.Detector, error) {
	switch cfg.Detector {
	case config.DetectorFFmpeg:
		return silence.NewFFmpegDetector(cfg.FFmpegPath), nil
	case config.DetectorPCM:
		return silence.NewPCMDetector(), nil
	default:
		return nil, fmt.Errorf("%w: got %q", config.ErrInvalidDetector, cfg.Detector)
	}
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(cfg.TempDir, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("temp_dir", cfg.TempDir),
	)
	return localStore, nil
}
