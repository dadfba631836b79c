// Package handler implements the HTTP surface of the ranking service:
// ad-hoc scoring, ranked search over stored documents, document ingest, and
// cache administration.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/analytics"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/rank"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/rankd/cache"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/rankd/docstore"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/rankd/executor"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/textproc"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/tsquery"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/tsvector"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/pkg/config"
	apperrors "github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/pkg/errors"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/pkg/logger"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/pkg/metrics"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/pkg/tracing"
)

// RankExecutor runs a ranked search over the stored documents.
type RankExecutor interface {
	Execute(ctx context.Context, queryText string, kernel executor.Kernel, method int, weights []float32, limit int) (*executor.RankResult, error)
}

// DocumentStore is the subset of the docstore used by the handler.
type DocumentStore interface {
	Upsert(ctx context.Context, doc docstore.Document) error
	Get(ctx context.Context, id string) (*docstore.Document, error)
	Delete(ctx context.Context, id string) error
}

// Handler wires the rank pipeline to HTTP.
type Handler struct {
	executor  RankExecutor
	store     DocumentStore
	cache     *cache.ScoreCache
	collector *analytics.Collector
	metrics   *metrics.Metrics
	cfg       config.RankerConfig
	logger    *slog.Logger
}

// New creates a Handler. cache and collector may be nil, in which case
// caching and event tracking are skipped.
func New(exec RankExecutor, store DocumentStore, scoreCache *cache.ScoreCache, collector *analytics.Collector, m *metrics.Metrics, cfg config.RankerConfig) *Handler {
	return &Handler{
		executor:  exec,
		store:     store,
		cache:     scoreCache,
		collector: collector,
		metrics:   m,
		cfg:       cfg,
		logger:    slog.Default().With("component", "rank-handler"),
	}
}

type rankRequest struct {
	Vector  string          `json:"vector"`
	Query   string          `json:"query"`
	Kernel  string          `json:"kernel"`
	Method  *int            `json:"method"`
	Weights json.RawMessage `json:"weights"`
}

type rankResponse struct {
	Score  float32 `json:"score"`
	Kernel string  `json:"kernel"`
	Method int     `json:"method"`
}

// Rank scores a single ad-hoc vector against a query without touching the
// document store.
func (h *Handler) Rank(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)
	if !h.cfg.Enabled {
		h.writeAppError(w, log, apperrors.New(apperrors.ErrRankingDisabled, http.StatusServiceUnavailable, "ranking is disabled"))
		return
	}

	var req rankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Query == "" {
		h.writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	vec, err := tsvector.Parse(req.Vector)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("parsing vector: %v", err))
		return
	}
	q, err := tsquery.Parse(req.Query)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("parsing query: %v", err))
		return
	}
	weights, err := decodeWeights(req.Weights)
	if err != nil {
		h.writeAppError(w, log, err)
		return
	}
	kernel := h.resolveKernel(req.Kernel)
	method := h.cfg.DefaultMethod
	if req.Method != nil {
		method = *req.Method
	}

	start := time.Now()
	var score float32
	switch kernel {
	case executor.KernelCoverDensity:
		score, err = rank.RankCDWeightedMethod(weights, vec, q, method)
	default:
		score, err = rank.RankWeightedMethod(weights, vec, q, method)
	}
	if err != nil {
		h.recordRankOutcome(kernel, "error")
		h.writeAppError(w, log, err)
		return
	}
	h.recordRankOutcome(kernel, "ok")
	if h.metrics != nil {
		h.metrics.RankLatency.WithLabelValues(string(kernel)).Observe(time.Since(start).Seconds())
		h.metrics.RankScores.Observe(float64(score))
	}

	h.writeJSON(w, http.StatusOK, rankResponse{
		Score:  score,
		Kernel: string(kernel),
		Method: method,
	})
}

// Search ranks the stored documents against a query and returns the top-k.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)
	if !h.cfg.Enabled {
		h.writeAppError(w, log, apperrors.New(apperrors.ErrRankingDisabled, http.StatusServiceUnavailable, "ranking is disabled"))
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	kernel := h.resolveKernel(r.URL.Query().Get("kernel"))

	method := h.cfg.DefaultMethod
	if methodStr := r.URL.Query().Get("method"); methodStr != "" {
		parsed, err := strconv.Atoi(methodStr)
		if err != nil || parsed < 0 {
			h.writeError(w, http.StatusBadRequest, "method must be a non-negative integer")
			return
		}
		method = parsed
	}

	limit := h.cfg.DefaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if parsed > h.cfg.MaxLimit {
			parsed = h.cfg.MaxLimit
		}
		limit = parsed
	}

	weights := h.cfg.DefaultWeights

	traceCtx, trace := tracing.Begin(ctx, "rank.search", logger.RequestIDFromContext(ctx))
	defer trace.Finish()
	trace.Annotate("query", query)
	trace.Annotate("kernel", string(kernel))

	req := cache.Request{Query: query, Kernel: kernel, Method: method, Weights: weights, Limit: limit}
	var result *executor.RankResult
	var err error
	cacheHit := false
	if h.cache != nil {
		result, cacheHit, err = h.cache.GetOrCompute(traceCtx, req, func() (*executor.RankResult, error) {
			return h.executor.Execute(traceCtx, query, kernel, method, weights, limit)
		})
	} else {
		result, err = h.executor.Execute(traceCtx, query, kernel, method, weights, limit)
	}
	if err != nil {
		log.Error("rank search failed", "query", query, "error", err)
		h.writeAppError(w, log, err)
		return
	}

	latencyMs := time.Since(start).Milliseconds()
	log.Info("rank search completed",
		"query", query,
		"kernel", kernel,
		"matched", result.TotalMatched,
		"returned", len(result.Results),
		"cache_hit", cacheHit,
		"latency_ms", latencyMs,
	)
	if h.collector != nil {
		eventType := analytics.EventCacheMiss
		if cacheHit {
			eventType = analytics.EventCacheHit
		}
		h.collector.Track(analytics.RankEvent{
			Type:         eventType,
			Query:        query,
			Kernel:       string(kernel),
			Method:       method,
			TotalMatched: result.TotalMatched,
			Returned:     len(result.Results),
			LatencyMs:    latencyMs,
			CacheHit:     cacheHit,
			Timestamp:    time.Now().UTC(),
			RequestID:    logger.RequestIDFromContext(ctx),
		})
	}

	h.writeJSON(w, http.StatusOK, result)
}

type ingestRequest struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	Vector string `json:"vector"`
}

// IngestDocument stores a document. The lexeme vector may be supplied
// directly in text form; otherwise it is built from the title and body.
func (h *Handler) IngestDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ID == "" {
		h.writeError(w, http.StatusBadRequest, "document id is required")
		return
	}

	var vec *tsvector.TSVector
	var err error
	if req.Vector != "" {
		vec, err = tsvector.Parse(req.Vector)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, fmt.Sprintf("parsing vector: %v", err))
			return
		}
	} else {
		if req.Title == "" && req.Body == "" {
			h.writeError(w, http.StatusBadRequest, "either vector or title/body is required")
			return
		}
		vec = textproc.BuildVector(req.Title, req.Body)
	}

	doc := docstore.Document{ID: req.ID, Title: req.Title, Body: req.Body, Vector: vec}
	if err := h.store.Upsert(ctx, doc); err != nil {
		log.Error("document ingest failed", "id", req.ID, "error", err)
		h.writeAppError(w, log, err)
		return
	}
	if h.metrics != nil {
		h.metrics.DocumentsIngested.Inc()
	}
	if h.collector != nil {
		h.collector.Track(analytics.IngestEvent{
			Type:        analytics.EventIngest,
			DocumentID:  req.ID,
			LexemeCount: vec.Size(),
			Timestamp:   time.Now().UTC(),
		})
	}
	log.Info("document ingested", "id", req.ID, "lexemes", vec.Size())

	h.writeJSON(w, http.StatusCreated, map[string]any{
		"id":      req.ID,
		"lexemes": vec.Size(),
		"vector":  vec.String(),
	})
}

// GetDocument returns a stored document including its vector text form.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	doc, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.writeAppError(w, logger.FromContext(r.Context()), err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"id":         doc.ID,
		"title":      doc.Title,
		"body":       doc.Body,
		"vector":     doc.Vector.String(),
		"updated_at": doc.UpdatedAt,
	})
}

// DeleteDocument removes a stored document.
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.store.Delete(r.Context(), id); err != nil {
		h.writeAppError(w, logger.FromContext(r.Context()), err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// CacheStats reports score-cache hit and miss totals.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

// CacheInvalidate drops every cached rank result.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) resolveKernel(name string) executor.Kernel {
	switch name {
	case string(executor.KernelCoverDensity), "cd":
		return executor.KernelCoverDensity
	default:
		return executor.KernelStandard
	}
}

func (h *Handler) recordRankOutcome(kernel executor.Kernel, outcome string) {
	if h.metrics != nil {
		h.metrics.RankRequestsTotal.WithLabelValues(string(kernel), outcome).Inc()
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func (h *Handler) writeAppError(w http.ResponseWriter, log *slog.Logger, err error) {
	status := apperrors.HTTPStatusCode(err)
	if status >= 500 {
		log.Error("request failed", "error", err)
	}
	h.writeError(w, status, err.Error())
}
