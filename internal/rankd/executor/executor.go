// Package executor runs rank requests end to end: fetch candidate documents,
// score each against the query, and keep the top-k results.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/rank"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/rankd/docstore"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/tsquery"
	apperrors "github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/pkg/errors"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/pkg/metrics"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/pkg/resilience"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/pkg/tracing"
)

// Kernel selects the scoring function applied to each document.
type Kernel string

const (
	KernelStandard     Kernel = "standard"
	KernelCoverDensity Kernel = "cover_density"
)

// ScoredDoc is one ranked result.
type ScoredDoc struct {
	DocID string  `json:"doc_id"`
	Title string  `json:"title"`
	Score float32 `json:"score"`
}

// RankResult is the response for a search-rank request.
type RankResult struct {
	Query        string      `json:"query"`
	Kernel       Kernel      `json:"kernel"`
	Method       int         `json:"method"`
	TotalMatched int         `json:"total_matched"`
	Results      []ScoredDoc `json:"results"`
}

// DocumentSource supplies the candidate set to score.
type DocumentSource interface {
	FetchAll(ctx context.Context) ([]docstore.Document, error)
}

// Executor scores stored documents against parsed queries.
type Executor struct {
	store   DocumentSource
	metrics *metrics.Metrics
	timeout time.Duration
	logger  *slog.Logger
}

// New creates an Executor. timeout bounds a single rank execution; zero
// disables the bound.
func New(store DocumentSource, m *metrics.Metrics, timeout time.Duration) *Executor {
	return &Executor{
		store:   store,
		metrics: m,
		timeout: timeout,
		logger:  slog.Default().With("component", "rank-executor"),
	}
}

// Execute parses queryText, scores every stored document with the selected
// kernel, and returns the limit highest-scoring documents. Documents scoring
// zero are excluded from both the results and TotalMatched.
func (e *Executor) Execute(ctx context.Context, queryText string, kernel Kernel, method int, weights []float32, limit int) (*RankResult, error) {
	q, err := tsquery.Parse(queryText)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, 400, "parsing query: %v", err)
	}

	result := &RankResult{
		Query:   queryText,
		Kernel:  kernel,
		Method:  method,
		Results: []ScoredDoc{},
	}

	err = resilience.WithDeadline(ctx, e.timeout, "rank-execute", func(ctx context.Context) error {
		fetchCtx, fetchStage := tracing.StartStage(ctx, "docstore.fetch")
		docs, err := e.store.FetchAll(fetchCtx)
		fetchStage.Annotate("documents", len(docs))
		fetchStage.End()
		if err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
		}

		_, scoreStage := tracing.StartStage(ctx, "rank.score")
		defer scoreStage.End()

		start := time.Now()
		top := newTopK(limit)
		matched := 0
		for i, doc := range docs {
			if i%256 == 0 && ctx.Err() != nil {
				return ctx.Err()
			}
			score, err := e.score(doc, q, kernel, method, weights)
			if err != nil {
				return err
			}
			if score <= 0 {
				continue
			}
			matched++
			if e.metrics != nil {
				e.metrics.RankScores.Observe(float64(score))
			}
			top.Push(ScoredDoc{DocID: doc.ID, Title: doc.Title, Score: score})
		}
		scoreStage.Annotate("matched", matched)

		result.TotalMatched = matched
		result.Results = top.Sorted()
		if e.metrics != nil {
			e.metrics.RankLatency.WithLabelValues(string(kernel)).Observe(time.Since(start).Seconds())
		}
		return nil
	})
	if err != nil {
		if e.metrics != nil {
			e.metrics.RankRequestsTotal.WithLabelValues(string(kernel), "error").Inc()
		}
		return nil, err
	}

	if e.metrics != nil {
		e.metrics.RankRequestsTotal.WithLabelValues(string(kernel), "ok").Inc()
	}
	e.logger.Debug("rank executed",
		"query", queryText,
		"kernel", kernel,
		"matched", result.TotalMatched,
		"returned", len(result.Results),
	)
	return result, nil
}

func (e *Executor) score(doc docstore.Document, q *tsquery.TSQuery, kernel Kernel, method int, weights []float32) (float32, error) {
	switch kernel {
	case KernelCoverDensity:
		return rank.RankCDWeightedMethod(weights, doc.Vector, q, method)
	default:
		return rank.RankWeightedMethod(weights, doc.Vector, q, method)
	}
}
