// Package tracing times the stages of a rank request and emits the result
// as structured slog lines. A Trace covers one request; Stages mark the
// pipeline steps inside it (fetch, score) with their offset from the start
// of the trace. Traces are sampled; an unsampled request costs a nil check.
package tracing

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"
)

type contextKey struct{}

var traceKey contextKey

var (
	cfgMu      sync.RWMutex
	cfgEnabled = true
	cfgRate    = 1.0
)

// Configure sets whether traces are recorded and the fraction of requests
// that get one. Call once at startup.
func Configure(enabled bool, sampleRate float64) {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	cfgEnabled = enabled
	if sampleRate < 0 {
		sampleRate = 0
	}
	if sampleRate > 1 {
		sampleRate = 1
	}
	cfgRate = sampleRate
}

func sampled() bool {
	cfgMu.RLock()
	defer cfgMu.RUnlock()
	if !cfgEnabled {
		return false
	}
	return cfgRate >= 1 || rand.Float64() < cfgRate
}

type stageRecord struct {
	name     string
	offset   time.Duration
	duration time.Duration
	attrs    []any
}

// Trace records the timed stages of one request.
type Trace struct {
	op        string
	requestID string
	start     time.Time

	mu     sync.Mutex
	stages []stageRecord
	attrs  []any
}

// Stage is one in-progress step of a Trace.
type Stage struct {
	trace *Trace
	name  string
	start time.Time
	attrs []any
}

// Begin starts a Trace for the named operation if this request is sampled.
// It returns a nil Trace otherwise; all Trace and Stage methods are nil-safe
// so callers never branch on sampling.
func Begin(ctx context.Context, op string, requestID string) (context.Context, *Trace) {
	if !sampled() {
		return ctx, nil
	}
	t := &Trace{op: op, requestID: requestID, start: time.Now()}
	return context.WithValue(ctx, traceKey, t), t
}

// StartStage opens a named stage on the Trace carried by ctx. Without a
// trace in ctx it returns a nil Stage.
func StartStage(ctx context.Context, name string) (context.Context, *Stage) {
	t, _ := ctx.Value(traceKey).(*Trace)
	if t == nil {
		return ctx, nil
	}
	return ctx, &Stage{trace: t, name: name, start: time.Now()}
}

// Annotate attaches a key-value pair to the stage's log line.
func (s *Stage) Annotate(key string, value any) {
	if s == nil {
		return
	}
	s.attrs = append(s.attrs, key, value)
}

// End closes the stage and records it on its trace.
func (s *Stage) End() {
	if s == nil {
		return
	}
	now := time.Now()
	s.trace.mu.Lock()
	s.trace.stages = append(s.trace.stages, stageRecord{
		name:     s.name,
		offset:   s.start.Sub(s.trace.start),
		duration: now.Sub(s.start),
		attrs:    s.attrs,
	})
	s.trace.mu.Unlock()
}

// Annotate attaches a key-value pair to the trace's summary line.
func (t *Trace) Annotate(key string, value any) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.attrs = append(t.attrs, key, value)
	t.mu.Unlock()
}

// Finish closes the trace and writes one summary line plus one line per
// recorded stage.
func (t *Trace) Finish() {
	if t == nil {
		return
	}
	total := time.Since(t.start)
	t.mu.Lock()
	stages := t.stages
	attrs := t.attrs
	t.mu.Unlock()

	summary := []any{
		"op", t.op,
		"request_id", t.requestID,
		"total_ms", total.Milliseconds(),
		"stages", len(stages),
	}
	summary = append(summary, attrs...)
	slog.Info("trace", summary...)

	for _, st := range stages {
		line := []any{
			"op", t.op,
			"request_id", t.requestID,
			"stage", st.name,
			"offset_ms", st.offset.Milliseconds(),
			"duration_ms", st.duration.Milliseconds(),
		}
		line = append(line, st.attrs...)
		slog.Info("trace stage", line...)
	}
}
