package analytics

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// Handler serves the aggregated rank-traffic stats over HTTP.
type Handler struct {
	aggregator *Aggregator
	logger     *slog.Logger
}

func NewHandler(aggregator *Aggregator) *Handler {
	return &Handler{
		aggregator: aggregator,
		logger:     slog.Default().With("component", "analytics-handler"),
	}
}

// statsResponse wraps the stats with the time they were computed, since the
// aggregate is a point-in-time snapshot of a moving window.
type statsResponse struct {
	GeneratedAt time.Time `json:"generated_at"`
	AggregatedStats
}

// Stats returns the current aggregate. An optional top query parameter trims
// the query leaderboards below their default size.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats := h.aggregator.Stats()

	if raw := r.URL.Query().Get("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, `{"error":"top must be a non-negative integer"}`, http.StatusBadRequest)
			return
		}
		if n < len(stats.TopQueries) {
			stats.TopQueries = stats.TopQueries[:n]
		}
		if n < len(stats.ZeroResultQueries) {
			stats.ZeroResultQueries = stats.ZeroResultQueries[:n]
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	resp := statsResponse{GeneratedAt: time.Now().UTC(), AggregatedStats: stats}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to write analytics response", "error", err)
	}
}
