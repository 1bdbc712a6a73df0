// Package handlers exposes the insight engine over HTTP. Handlers are thin:
// decode input, call the engine or the job queue, encode output.
package handlers

import (
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mdejong/fininsight/internal/api/middleware"
	"github.com/mdejong/fininsight/internal/ingest"
	"github.com/mdejong/fininsight/internal/insight"
	"github.com/mdejong/fininsight/internal/jobs"
)

// maxDatasetBytes bounds ad hoc dataset uploads.
const maxDatasetBytes = 32 << 20

// ReportCache holds the most recent report produced by a refresh cycle.
// This is shell state, not engine state: the engine stays pure and the cache
// is replaced wholesale on every refresh.
type ReportCache struct {
	mu          sync.RWMutex
	report      *insight.Report
	generatedAt time.Time
}

// NewReportCache creates an empty cache.
func NewReportCache() *ReportCache {
	return &ReportCache{}
}

// Set replaces the cached report.
func (c *ReportCache) Set(r *insight.Report) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report = r
	c.generatedAt = time.Now()
}

// Latest returns the cached report and when it was generated.
func (c *ReportCache) Latest() (*insight.Report, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.report, c.generatedAt
}

// ReportHandler serves report and refresh endpoints.
type ReportHandler struct {
	cache     *ReportCache
	publisher jobs.Publisher
	store     jobs.JobStore
	opts      insight.Options
	source    string
	log       zerolog.Logger
}

// NewReportHandler creates a report handler. publisher and store may be nil
// when no refresh source is configured; the refresh endpoints then 503.
func NewReportHandler(cache *ReportCache, publisher jobs.Publisher, store jobs.JobStore, opts insight.Options, source string, log zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		cache:     cache,
		publisher: publisher,
		store:     store,
		opts:      opts,
		source:    source,
		log:       log,
	}
}

// Register wires the handler's routes onto the mux.
func (h *ReportHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", h.Health)
	mux.HandleFunc("GET /api/report", h.LatestReport)
	mux.HandleFunc("POST /api/report", h.AnalyzeDataset)
	mux.HandleFunc("POST /api/refresh", h.Refresh)
	mux.HandleFunc("GET /api/jobs", h.ListJobs)
	mux.HandleFunc("GET /api/jobs/{id}", h.GetJob)
}

// Health handles GET /api/health.
func (h *ReportHandler) Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// LatestReport handles GET /api/report: the most recent refresh result.
func (h *ReportHandler) LatestReport(w http.ResponseWriter, r *http.Request) {
	report, generatedAt := h.cache.Latest()
	if report == nil {
		middleware.WriteError(w, http.StatusNotFound, "No report available yet; trigger a refresh first")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"report":       report,
		"generated_at": generatedAt.Format(time.RFC3339),
	})
}

// AnalyzeDataset handles POST /api/report: run the engine over a dataset
// supplied in the request body, without touching the cached report.
func (h *ReportHandler) AnalyzeDataset(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxDatasetBytes))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	ds, err := ingest.ParseJSON(data)
	if err != nil {
		h.log.Warn().Err(err).Msg("Rejected dataset upload")
		middleware.WriteError(w, http.StatusBadRequest, "Invalid dataset payload")
		return
	}

	report := insight.Analyze(insight.Input{
		Transactions:  ds.Transactions,
		Accounts:      ds.Accounts,
		History:       ds.History,
		ServerQuality: ds.ServerQuality,
	}, h.opts)

	middleware.WriteJSON(w, http.StatusOK, report)
}

// Refresh handles POST /api/refresh: enqueue a recompute of the configured
// dataset source.
func (h *ReportHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "No dataset source configured")
		return
	}

	job := &jobs.RefreshJob{
		Source:    h.source,
		Requested: middleware.RequestIDFrom(r.Context()),
	}
	if err := h.publisher.PublishRefresh(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue refresh job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue refresh")
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}

// GetJob handles GET /api/jobs/{id}.
func (h *ReportHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Job tracking not configured")
		return
	}

	job, err := h.store.GetJob(r.Context(), r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs.
func (h *ReportHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Job tracking not configured")
		return
	}

	filter := jobs.JobFilter{Limit: 50}
	if s := r.URL.Query().Get("status"); s != "" {
		filter.Status = jobs.JobStatus(s)
	}

	list, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  list,
		"count": len(list),
	})
}
