package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stylearchive/catalog-scraper/internal/extractor"
	"github.com/stylearchive/catalog-scraper/internal/models"
	"github.com/stylearchive/catalog-scraper/internal/queue"
)

type Handlers struct {
	extractor *extractor.Extractor
	tasks     queue.Queue
	logger    *slog.Logger
}

// NewHandlers builds the handler set. tasks may be nil when no queue
// backend is configured; the enqueue endpoint then reports unavailable.
func NewHandlers(ext *extractor.Extractor, tasks queue.Queue, logger *slog.Logger) *Handlers {
	return &Handlers{
		extractor: ext,
		tasks:     tasks,
		logger:    logger.With("component", "api"),
	}
}

// DiscoverRequest asks for strategy calibration of a domain from sample
// product pages.
type DiscoverRequest struct {
	Domain     string   `json:"domain"`
	SampleURLs []string `json:"sample_urls"`
	Force      bool     `json:"force"`
}

type DiscoverResponse struct {
	Domain   string                    `json:"domain"`
	Strategy models.ExtractionStrategy `json:"strategy"`
	Verified bool                      `json:"verified"`
	Scores   []int                     `json:"scores,omitempty"`
	Error    string                    `json:"error,omitempty"`
}

// Discover runs strategy discovery against the supplied sample pages and
// persists the winning BrandConfig.
func (h *Handlers) Discover(w http.ResponseWriter, r *http.Request) {
	var req DiscoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Domain == "" {
		h.respondError(w, http.StatusBadRequest, "domain is required")
		return
	}
	if len(req.SampleURLs) < 2 {
		h.respondError(w, http.StatusBadRequest, "at least 2 sample_urls are required")
		return
	}

	cfg, err := h.extractor.DiscoverAndVerify(r.Context(), req.Domain, req.SampleURLs, req.Force)
	if err != nil {
		h.logger.Error("discovery failed", "error", err, "domain", req.Domain)
		h.respondJSON(w, http.StatusOK, DiscoverResponse{
			Domain: req.Domain,
			Error:  err.Error(),
		})
		return
	}

	h.respondJSON(w, http.StatusOK, DiscoverResponse{
		Domain:   cfg.Domain,
		Strategy: cfg.Strategy,
		Verified: cfg.Verified,
		Scores:   cfg.DiscoveryScores,
	})
}

type ExtractRequest struct {
	URL string `json:"url"`
}

// Extract extracts a single product page. Extraction failures are still
// 200s: the failure is data, not a transport error.
func (h *Handlers) Extract(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.URL == "" {
		h.respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	result := h.extractor.ExtractSingle(r.Context(), req.URL)
	h.respondJSON(w, http.StatusOK, result)
}

type BatchRequest struct {
	URLs []string `json:"urls"`
}

type BatchResponse struct {
	Results      []models.ExtractionResult `json:"results"`
	Total        int                       `json:"total"`
	Succeeded    int                       `json:"succeeded"`
	Failed       int                       `json:"failed"`
	AverageScore int                       `json:"average_score"`
	DurationMS   int64                     `json:"duration_ms"`
}

// Batch extracts many pages concurrently. Results preserve input order.
func (h *Handlers) Batch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.URLs) == 0 {
		h.respondError(w, http.StatusBadRequest, "urls is required")
		return
	}

	results, stats := h.extractor.ExtractBatch(r.Context(), req.URLs)

	h.respondJSON(w, http.StatusOK, BatchResponse{
		Results:      results,
		Total:        len(results),
		Succeeded:    stats.Succeeded(),
		Failed:       stats.Failed(),
		AverageScore: stats.AverageScore(),
		DurationMS:   stats.Duration().Milliseconds(),
	})
}

type EnqueueRequest struct {
	URLs     []string `json:"urls"`
	Priority int      `json:"priority"`
}

type EnqueueResponse struct {
	Enqueued int `json:"enqueued"`
}

// Enqueue pushes pages onto the task queue for the background worker
// instead of extracting inline.
func (h *Handlers) Enqueue(w http.ResponseWriter, r *http.Request) {
	if h.tasks == nil {
		h.respondError(w, http.StatusServiceUnavailable, "no task queue configured")
		return
	}

	var req EnqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.URLs) == 0 {
		h.respondError(w, http.StatusBadRequest, "urls is required")
		return
	}

	enqueued := 0
	for _, u := range req.URLs {
		task := &queue.Task{
			ID:        uuid.NewString(),
			URL:       u,
			Domain:    extractor.DomainOf(u),
			Priority:  req.Priority,
			CreatedAt: time.Now().UTC(),
		}
		if err := h.tasks.Push(r.Context(), task); err != nil {
			h.logger.Error("failed to enqueue task", "error", err, "url", u)
			h.respondError(w, http.StatusInternalServerError, "failed to enqueue")
			return
		}
		enqueued++
	}

	h.respondJSON(w, http.StatusAccepted, EnqueueResponse{Enqueued: enqueued})
}

type StatsResponse struct {
	Extractions  int  `json:"extractions"`
	Succeeded    int  `json:"succeeded"`
	Failed       int  `json:"failed"`
	AverageScore int  `json:"average_score"`
	QueueDepth   *int `json:"queue_depth,omitempty"`
}

// Stats reports the engine's cumulative extraction counters and, when a
// task queue is configured, its current depth.
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	snap := h.extractor.Totals()
	resp := StatsResponse{
		Extractions:  snap.Extractions,
		Succeeded:    snap.Succeeded,
		Failed:       snap.Failed,
		AverageScore: snap.AverageScore,
	}

	if h.tasks != nil {
		if depth, err := h.tasks.Size(r.Context()); err == nil {
			resp.QueueDepth = &depth
		} else {
			h.logger.Warn("failed to read queue depth", "error", err)
		}
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// GetConfig returns the stored BrandConfig for a domain.
func (h *Handlers) GetConfig(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")
	if domain == "" {
		h.respondError(w, http.StatusBadRequest, "domain is required")
		return
	}

	cfg, err := h.extractor.Config(r.Context(), domain)
	if err != nil {
		h.logger.Error("failed to load brand config", "error", err, "domain", domain)
		h.respondError(w, http.StatusInternalServerError, "failed to load config")
		return
	}
	if cfg == nil {
		h.respondError(w, http.StatusNotFound, "no config for domain")
		return
	}

	h.respondJSON(w, http.StatusOK, cfg)
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
