package benchmark

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/rank"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/rankd/docstore"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/rankd/executor"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/textproc"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/tsquery"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/tsvector"
)

// BenchmarkQueryParse measures query parsing latency for queries of varying
// complexity.
func BenchmarkQueryParse(b *testing.B) {
	queries := []struct {
		name  string
		query string
	}{
		{"single", "ranking"},
		{"boolean_and", "text & ranking & relevance"},
		{"boolean_or", "indexing | caching | ranking"},
		{"with_not", "ranking & !deprecated"},
		{"phrase", "text <-> search <2> ranking"},
		{"complex", "(text | document) & ranking & !(legacy | deprecated)"},
	}

	for _, q := range queries {
		b.Run(q.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				parsed, err := tsquery.Parse(q.query)
				if err != nil {
					b.Fatal(err)
				}
				_ = parsed
			}
		})
	}
}

// BenchmarkVectorParse measures lexeme-vector text parsing for vectors of
// increasing entry counts.
func BenchmarkVectorParse(b *testing.B) {
	sizes := []int{10, 100, 1000}
	for _, size := range sizes {
		b.Run(fmt.Sprintf("entries_%d", size), func(b *testing.B) {
			var sb strings.Builder
			for i := 0; i < size; i++ {
				fmt.Fprintf(&sb, "lexeme%04d:%d,%dA ", i, i*2+1, i*2+2)
			}
			text := sb.String()

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				vec, err := tsvector.Parse(text)
				if err != nil {
					b.Fatal(err)
				}
				_ = vec
			}
		})
	}
}

func buildVector(b *testing.B, entries, positionsPerEntry int) *tsvector.TSVector {
	b.Helper()
	var sb strings.Builder
	pos := 1
	for i := 0; i < entries; i++ {
		fmt.Fprintf(&sb, "lexeme%04d:", i)
		for p := 0; p < positionsPerEntry; p++ {
			if p > 0 {
				sb.WriteByte(',')
			}
			fmt.Fprintf(&sb, "%d", pos)
			pos += 3
		}
		sb.WriteByte(' ')
	}
	vec, err := tsvector.Parse(sb.String())
	if err != nil {
		b.Fatal(err)
	}
	return vec
}

// BenchmarkRankStandard measures standard-kernel scoring against vectors of
// varying sizes.
func BenchmarkRankStandard(b *testing.B) {
	sizes := []int{10, 100, 1000}
	q, err := tsquery.Parse("lexeme0001 & lexeme0002 | lexeme0003")
	if err != nil {
		b.Fatal(err)
	}
	for _, size := range sizes {
		b.Run(fmt.Sprintf("entries_%d", size), func(b *testing.B) {
			vec := buildVector(b, size, 4)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				score := rank.Rank(vec, q)
				_ = score
			}
		})
	}
}

// BenchmarkRankCoverDensity measures cover-density scoring, which walks the
// document representation per cover.
func BenchmarkRankCoverDensity(b *testing.B) {
	positionCounts := []int{2, 16, 64}
	q, err := tsquery.Parse("lexeme0001 & lexeme0002")
	if err != nil {
		b.Fatal(err)
	}
	for _, positions := range positionCounts {
		b.Run(fmt.Sprintf("positions_%d", positions), func(b *testing.B) {
			vec := buildVector(b, 8, positions)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				score := rank.RankCD(vec, q)
				_ = score
			}
		})
	}
}

// BenchmarkBuildVector measures tokenizing raw text into a lexeme vector.
func BenchmarkBuildVector(b *testing.B) {
	body := strings.Repeat("ranking relevance scoring documents queries lexemes positions weights ", 32)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		vec := textproc.BuildVector("Text Ranking Relevance", body)
		_ = vec
	}
}

type memorySource struct {
	docs []docstore.Document
}

func (m *memorySource) FetchAll(ctx context.Context) ([]docstore.Document, error) {
	return m.docs, nil
}

// BenchmarkExecutorTopK measures a full rank execution over an in-memory
// corpus with top-k selection.
func BenchmarkExecutorTopK(b *testing.B) {
	corpusSizes := []int{100, 1000}
	for _, numDocs := range corpusSizes {
		b.Run(fmt.Sprintf("docs_%d", numDocs), func(b *testing.B) {
			source := &memorySource{}
			for d := 0; d < numDocs; d++ {
				text := fmt.Sprintf("ranking:%d relevance:%d text:%d", d%50+1, d%30+2, d%20+3)
				vec, err := tsvector.Parse(text)
				if err != nil {
					b.Fatal(err)
				}
				source.docs = append(source.docs, docstore.Document{
					ID:     fmt.Sprintf("doc-%d", d),
					Vector: vec,
				})
			}
			exec := executor.New(source, nil, 0)

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				result, err := exec.Execute(context.Background(), "ranking & relevance", executor.KernelStandard, 0, nil, 10)
				if err != nil {
					b.Fatal(err)
				}
				_ = result
			}
		})
	}
}
