package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"

	"github.com/maauso/silencecut/internal/job"
	"github.com/maauso/silencecut/internal/silence"
)

// supportedInputExts lists the video containers accepted as job input.
var supportedInputExts = map[string]bool{
	".mp4": true,
	".avi": true,
	".mov": true,
}

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service   *job.CutService
	validator *validator.Validate
	logger    *slog.Logger
	defaults  silence.Options
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithDefaults sets the detection parameters applied when a request
// omits them.
func WithDefaults(defaults silence.Options) HandlerOption {
	return func(h *Handlers) {
		h.defaults = defaults
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *job.CutService, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		service:   service,
		validator: validator.New(),
		logger:    logger,
		defaults:  silence.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Defaults handles GET /api/defaults requests. The web form uses it to
// prefill the tuning fields.
func (h *Handlers) Defaults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, DefaultsResponse{
		SilenceThresholdDB: h.defaults.SilenceThreshDB,
		MinSilenceMs:       h.defaults.MinSilenceMs,
	})
}

// CreateJob handles POST /api/jobs requests.
func (h *Handlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	// Validate request
	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "Select an input video and an output destination first", "VALIDATION_ERROR")
		return
	}

	if !supportedInputExts[strings.ToLower(filepath.Ext(req.InputPath))] {
		writeError(w, http.StatusBadRequest, "input must be an .mp4, .avi or .mov file", "UNSUPPORTED_FORMAT")
		return
	}
	if !strings.EqualFold(filepath.Ext(req.OutputPath), ".mp4") {
		writeError(w, http.StatusBadRequest, "output must be an .mp4 file", "UNSUPPORTED_FORMAT")
		return
	}

	params := job.CutParams{
		InputPath:       req.InputPath,
		OutputPath:      req.OutputPath,
		SilenceThreshDB: h.defaults.SilenceThreshDB,
		MinSilenceMs:    h.defaults.MinSilenceMs,
	}
	if req.SilenceThresholdDB != nil {
		v, err := cast.ToFloat64E(req.SilenceThresholdDB)
		if err != nil {
			writeError(w, http.StatusBadRequest, "silence_threshold_db must be a number", "INVALID_PARAMETER")
			return
		}
		params.SilenceThreshDB = v
	}
	if req.MinSilenceMs != nil {
		v, err := cast.ToIntE(req.MinSilenceMs)
		if err != nil {
			writeError(w, http.StatusBadRequest, "min_silence_ms must be an integer", "INVALID_PARAMETER")
			return
		}
		params.MinSilenceMs = v
	}

	createdJob, err := h.service.Submit(r.Context(), params)
	if err != nil {
		switch {
		case errors.Is(err, job.ErrQueueFull):
			writeError(w, http.StatusServiceUnavailable, "job queue is full, retry later", "QUEUE_FULL")
		case errors.Is(err, silence.ErrThresholdOutOfRange), errors.Is(err, silence.ErrMinSilenceNotPositive):
			writeError(w, http.StatusBadRequest, err.Error(), "INVALID_PARAMETER")
		default:
			h.logger.Error("failed to create job",
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "failed to create job", "JOB_CREATION_FAILED")
		}
		return
	}

	h.logger.Info("job created",
		slog.String("job_id", createdJob.ID),
		slog.String("input_path", params.InputPath),
		slog.String("output_path", params.OutputPath),
	)

	writeJSON(w, http.StatusAccepted, CreateJobResponse{
		ID:     createdJob.ID,
		Status: string(createdJob.Status),
	})
}

// GetJob handles GET /api/jobs/{id} requests.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job ID is required", "MISSING_JOB_ID")
		return
	}

	foundJob, err := h.service.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "job not found", "JOB_NOT_FOUND")
			return
		}
		h.logger.Error("failed to get job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get job", "JOB_FETCH_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, foundJob.Snapshot())
}

// ListJobs handles GET /api/jobs requests.
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.service.ListJobs(r.Context())
	if err != nil {
		h.logger.Error("failed to list jobs",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list jobs", "JOB_LIST_FAILED")
		return
	}

	snapshots := make([]job.Snapshot, 0, len(jobs))
	for _, j := range jobs {
		snapshots = append(snapshots, j.Snapshot())
	}
	writeJSON(w, http.StatusOK, JobListResponse{Jobs: snapshots})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
