package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/rankd/docstore"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/tsvector"
	apperrors "github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/pkg/errors"
)

type fakeSource struct {
	docs []docstore.Document
	err  error
}

func (f *fakeSource) FetchAll(ctx context.Context) ([]docstore.Document, error) {
	return f.docs, f.err
}

func doc(t *testing.T, id, title, vec string) docstore.Document {
	t.Helper()
	parsed, err := tsvector.Parse(vec)
	if err != nil {
		t.Fatalf("parsing vector %q: %v", vec, err)
	}
	return docstore.Document{ID: id, Title: title, Vector: parsed}
}

func TestExecuteRanksMatchesDescending(t *testing.T) {
	source := &fakeSource{docs: []docstore.Document{
		doc(t, "low", "low", "cat:1"),
		doc(t, "high", "high", "cat:1A"),
		doc(t, "none", "none", "dog:2"),
	}}
	exec := New(source, nil, 0)

	result, err := exec.Execute(context.Background(), "cat", KernelStandard, 0, nil, 10)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.TotalMatched != 2 {
		t.Errorf("TotalMatched = %d, want 2", result.TotalMatched)
	}
	if len(result.Results) != 2 {
		t.Fatalf("result count = %d, want 2 (%v)", len(result.Results), result.Results)
	}
	if result.Results[0].DocID != "high" || result.Results[1].DocID != "low" {
		t.Errorf("order = %s, %s; want high, low", result.Results[0].DocID, result.Results[1].DocID)
	}
	if result.Results[0].Score <= result.Results[1].Score {
		t.Errorf("scores not descending: %v", result.Results)
	}
}

func TestExecuteHonorsLimit(t *testing.T) {
	source := &fakeSource{docs: []docstore.Document{
		doc(t, "a", "", "cat:1"),
		doc(t, "b", "", "cat:1A"),
		doc(t, "c", "", "cat:1B"),
	}}
	exec := New(source, nil, 0)

	result, err := exec.Execute(context.Background(), "cat", KernelStandard, 0, nil, 2)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.TotalMatched != 3 {
		t.Errorf("TotalMatched = %d, want 3", result.TotalMatched)
	}
	if len(result.Results) != 2 {
		t.Fatalf("result count = %d, want 2", len(result.Results))
	}
	if result.Results[0].DocID != "b" {
		t.Errorf("top result = %s, want b", result.Results[0].DocID)
	}
}

func TestExecuteCoverDensityKernel(t *testing.T) {
	source := &fakeSource{docs: []docstore.Document{
		doc(t, "pair", "", "a:1 b:2"),
	}}
	exec := New(source, nil, 0)

	result, err := exec.Execute(context.Background(), "a & b", KernelCoverDensity, 0, nil, 10)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(result.Results) != 1 {
		t.Fatalf("result count = %d, want 1", len(result.Results))
	}
	got := result.Results[0].Score
	if got < 0.0999 || got > 0.1001 {
		t.Errorf("cover density score = %v, want 0.1", got)
	}
}

func TestExecuteNoMatches(t *testing.T) {
	source := &fakeSource{docs: []docstore.Document{
		doc(t, "a", "", "dog:1"),
	}}
	exec := New(source, nil, 0)

	result, err := exec.Execute(context.Background(), "cat", KernelStandard, 0, nil, 10)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.TotalMatched != 0 || len(result.Results) != 0 {
		t.Errorf("result = %+v, want empty", result)
	}
	if result.Results == nil {
		t.Error("Results should be an empty slice, not nil")
	}
}

func TestExecuteInvalidQuery(t *testing.T) {
	exec := New(&fakeSource{}, nil, 0)
	_, err := exec.Execute(context.Background(), "cat &", KernelStandard, 0, nil, 10)
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestExecuteWeightsValidation(t *testing.T) {
	source := &fakeSource{docs: []docstore.Document{doc(t, "a", "", "cat:1")}}
	exec := New(source, nil, 0)

	_, err := exec.Execute(context.Background(), "cat", KernelStandard, 0, []float32{0.1, 0.2}, 10)
	if !errors.Is(err, apperrors.ErrWeightsTooShort) {
		t.Errorf("err = %v, want ErrWeightsTooShort", err)
	}

	_, err = exec.Execute(context.Background(), "cat", KernelStandard, 0, []float32{0.1, 0.2, 0.4, 2}, 10)
	if !errors.Is(err, apperrors.ErrWeightOutOfRange) {
		t.Errorf("err = %v, want ErrWeightOutOfRange", err)
	}
}

func TestExecuteStoreFailure(t *testing.T) {
	exec := New(&fakeSource{err: errors.New("connection refused")}, nil, 0)
	_, err := exec.Execute(context.Background(), "cat", KernelStandard, 0, nil, 10)
	if !errors.Is(err, apperrors.ErrStoreUnavailable) {
		t.Errorf("err = %v, want ErrStoreUnavailable", err)
	}
}

func TestTopKTieBreaksOnDocID(t *testing.T) {
	top := newTopK(2)
	top.Push(ScoredDoc{DocID: "b", Score: 0.5})
	top.Push(ScoredDoc{DocID: "a", Score: 0.5})
	top.Push(ScoredDoc{DocID: "c", Score: 0.1})

	sorted := top.Sorted()
	if len(sorted) != 2 {
		t.Fatalf("len = %d, want 2", len(sorted))
	}
	if sorted[0].DocID != "a" || sorted[1].DocID != "b" {
		t.Errorf("order = %s, %s; want a, b", sorted[0].DocID, sorted[1].DocID)
	}
}
