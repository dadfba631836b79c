package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/pkg/logger"
)

// Deadline aborts requests that run past limit with a 504 JSON error.
// Health probes are exempt so a slow dependency check cannot starve the
// kubelet. The handler keeps running on its own goroutine after expiry but
// its writes are discarded.
func Deadline(limit time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/health/") {
				next.ServeHTTP(w, r)
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), limit)
			defer cancel()

			gw := &guardedWriter{inner: w}
			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(gw, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if gw.abandon() {
					slog.Warn("request deadline exceeded",
						"method", r.Method,
						"path", r.URL.Path,
						"request_id", logger.RequestIDFromContext(ctx),
						"limit", limit,
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusGatewayTimeout)
					w.Write([]byte(`{"error":"deadline exceeded"}`))
				}
			}
		})
	}
}

// guardedWriter serialises the handler goroutine and the deadline branch.
// Once abandoned, handler writes are dropped instead of corrupting the 504
// response already sent.
type guardedWriter struct {
	inner http.ResponseWriter
	mu    sync.Mutex
	wrote bool
	dead  bool
}

// abandon marks the response as taken over by the deadline branch. It
// reports false when the handler already started writing.
func (g *guardedWriter) abandon() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.wrote {
		return false
	}
	g.dead = true
	return true
}

func (g *guardedWriter) Header() http.Header {
	return g.inner.Header()
}

func (g *guardedWriter) WriteHeader(code int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.dead {
		return
	}
	g.wrote = true
	g.inner.WriteHeader(code)
}

func (g *guardedWriter) Write(b []byte) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.dead {
		return len(b), nil
	}
	g.wrote = true
	return g.inner.Write(b)
}
