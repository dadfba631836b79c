// Package docstore persists documents and their lexeme vectors in
// PostgreSQL. Reads and writes go through a circuit breaker so a struggling
// database degrades rank requests instead of hanging them.
package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/tsvector"
	apperrors "github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/pkg/errors"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/pkg/postgres"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/pkg/resilience"
)

// Document is a stored document together with its parsed lexeme vector.
type Document struct {
	ID        string
	Title     string
	Body      string
	Vector    *tsvector.TSVector
	UpdatedAt time.Time
}

// Store reads and writes documents in the documents table. The vector is
// persisted in its text form and re-parsed on load.
type Store struct {
	db      *postgres.Client
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryConfig
	logger  *slog.Logger
	onCount func(n int64)
}

// Option customises a Store.
type Option func(*Store)

// WithCountGauge registers a callback invoked with the document count after
// every mutation, used to keep a metrics gauge current.
func WithCountGauge(fn func(n int64)) Option {
	return func(s *Store) { s.onCount = fn }
}

// WithBreakerStateHook forwards circuit breaker state transitions, used to
// mirror the state into a metrics gauge.
func WithBreakerStateHook(fn func(name string, state resilience.State)) Option {
	return func(s *Store) {
		s.breaker = resilience.NewCircuitBreaker("docstore", resilience.CircuitBreakerConfig{
			OnStateChange: fn,
		})
	}
}

// New creates a Store backed by the given PostgreSQL client.
func New(db *postgres.Client, opts ...Option) *Store {
	s := &Store{
		db:      db,
		breaker: resilience.NewCircuitBreaker("docstore", resilience.CircuitBreakerConfig{}),
		retry:   resilience.RetryConfig{MaxAttempts: 3},
		logger:  slog.Default().With("component", "docstore"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	body       TEXT NOT NULL DEFAULT '',
	vector     TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// EnsureSchema creates the documents table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating documents table: %w", err)
	}
	return nil
}

// Upsert inserts or replaces a document. The write is retried with backoff
// before the error is surfaced.
func (s *Store) Upsert(ctx context.Context, doc Document) error {
	if doc.ID == "" {
		return apperrors.New(apperrors.ErrInvalidInput, 400, "document id is required")
	}
	vectorText := ""
	if doc.Vector != nil {
		vectorText = doc.Vector.String()
	}
	err := resilience.Retry(ctx, "docstore.upsert", s.retry, func(ctx context.Context) error {
		err := s.breaker.Execute(func() error {
			return s.db.InTx(ctx, func(tx *sql.Tx) error {
				_, err := tx.ExecContext(ctx, `
					INSERT INTO documents (id, title, body, vector, updated_at)
					VALUES ($1, $2, $3, $4, now())
					ON CONFLICT (id) DO UPDATE
					SET title = EXCLUDED.title,
					    body = EXCLUDED.body,
					    vector = EXCLUDED.vector,
					    updated_at = now()`,
					doc.ID, doc.Title, doc.Body, vectorText,
				)
				return err
			})
		})
		if errors.Is(err, resilience.ErrCircuitOpen) {
			// Retrying into an open circuit just burns the backoff budget.
			return resilience.Permanent(err)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("upserting document %s: %w", doc.ID, err)
	}
	s.refreshCount(ctx)
	return nil
}

// Get loads a single document by id.
func (s *Store) Get(ctx context.Context, id string) (*Document, error) {
	var doc Document
	var vectorText string
	err := s.breaker.Execute(func() error {
		row := s.db.DB.QueryRowContext(ctx, `
			SELECT id, title, body, vector, updated_at
			FROM documents WHERE id = $1`, id)
		return row.Scan(&doc.ID, &doc.Title, &doc.Body, &vectorText, &doc.UpdatedAt)
	})
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.Newf(apperrors.ErrDocumentNotFound, 404, "document %s not found", id)
		}
		return nil, fmt.Errorf("loading document %s: %w", id, err)
	}
	vec, err := tsvector.Parse(vectorText)
	if err != nil {
		return nil, fmt.Errorf("parsing stored vector for %s: %w", id, err)
	}
	doc.Vector = vec
	return &doc, nil
}

// Delete removes a document by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	var affected int64
	err := s.breaker.Execute(func() error {
		res, err := s.db.DB.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("deleting document %s: %w", id, err)
	}
	if affected == 0 {
		return apperrors.Newf(apperrors.ErrDocumentNotFound, 404, "document %s not found", id)
	}
	s.refreshCount(ctx)
	return nil
}

// FetchAll loads every document. Rows whose stored vector no longer parses
// are skipped with a log line rather than failing the whole fetch.
func (s *Store) FetchAll(ctx context.Context) ([]Document, error) {
	var docs []Document
	err := s.breaker.Execute(func() error {
		rows, err := s.db.DB.QueryContext(ctx, `
			SELECT id, title, body, vector, updated_at
			FROM documents ORDER BY id`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var doc Document
			var vectorText string
			if err := rows.Scan(&doc.ID, &doc.Title, &doc.Body, &vectorText, &doc.UpdatedAt); err != nil {
				return err
			}
			vec, err := tsvector.Parse(vectorText)
			if err != nil {
				s.logger.Error("skipping document with unparsable vector", "id", doc.ID, "error", err)
				continue
			}
			doc.Vector = vec
			docs = append(docs, doc)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("fetching documents: %w", err)
	}
	return docs, nil
}

// Count returns the number of stored documents.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.breaker.Execute(func() error {
		return s.db.DB.QueryRowContext(ctx, `SELECT count(*) FROM documents`).Scan(&n)
	})
	if err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

func (s *Store) refreshCount(ctx context.Context) {
	if s.onCount == nil {
		return
	}
	n, err := s.Count(ctx)
	if err != nil {
		s.logger.Debug("document count refresh failed", "error", err)
		return
	}
	s.onCount(n)
}
