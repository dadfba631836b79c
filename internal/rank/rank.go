// Package rank computes relevance scores for a document vector against a
// boolean query. Two scoring families are provided: the standard rank,
// which aggregates per-lexeme positional weights (with pairwise distance
// attenuation for AND queries), and the cover-density rank, which scores
// minimal spans of the document satisfying the query. Both share lexeme
// lookup, operand deduplication, the weight table and the normalization
// mask. Every call is a pure computation over its read-only inputs, so
// callers may rank independent pairs concurrently.
package rank

import (
	"math"

	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/tsquery"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/tsvector"
)

// Rank scores vector against query using the default weight table and no
// normalization.
func Rank(t *tsvector.TSVector, q *tsquery.TSQuery) float32 {
	return calcRank(&defaultWeights, t, q, NormNone)
}

// RankMethod scores vector against query applying the given normalization
// mask.
func RankMethod(t *tsvector.TSVector, q *tsquery.TSQuery, method int) float32 {
	return calcRank(&defaultWeights, t, q, method)
}

// RankWeighted scores with a caller-supplied weight table (class order
// D, C, B, A; at least four elements).
func RankWeighted(weights []float32, t *tsvector.TSVector, q *tsquery.TSQuery) (float32, error) {
	w, err := resolveWeights(weights)
	if err != nil {
		return 0, err
	}
	return calcRank(&w, t, q, NormNone), nil
}

// RankWeightedMethod scores with a caller-supplied weight table and a
// normalization mask.
func RankWeightedMethod(weights []float32, t *tsvector.TSVector, q *tsquery.TSQuery, method int) (float32, error) {
	w, err := resolveWeights(weights)
	if err != nil {
		return 0, err
	}
	return calcRank(&w, t, q, method), nil
}

func calcRank(w *[4]float32, t *tsvector.TSVector, q *tsquery.TSQuery, method int) float32 {
	if t.Size() == 0 || q.Size() == 0 {
		return 0
	}
	var res float32
	root := q.Root()
	if root.Type == tsquery.ItemOper && root.Oper == tsquery.OpAnd {
		res = rankAnd(w, t, q)
	} else {
		res = rankOr(w, t, q)
	}
	if res < 0 {
		res = 1e-20
	}
	return applyNormalization(res, method, t, 0, 0)
}

// rankOr sums per-entry occurrence scores over every unique operand. The
// first occurrence of a lexeme counts fully and later ones decay with the
// square of their rank in stored order; the best single occurrence is
// pulled out of the decayed sum and re-added undamped.
func rankOr(w *[4]float32, t *tsvector.TSVector, q *tsquery.TSQuery) float32 {
	operands := q.UniqueOperands()
	if len(operands) == 0 {
		return 0
	}
	var res float32
	for i := range operands {
		first, n := t.Find(operands[i].Lexeme, operands[i].Prefix)
		for e := first; e < first+n; e++ {
			post, _ := tsvector.EntryPositions(&t.Entries[e])
			var resj float32
			wjm := float32(-1)
			jm := 0
			for j, p := range post {
				wpos := w[p.Weight]
				resj += wpos / float32((j+1)*(j+1))
				if wpos > wjm {
					wjm = wpos
					jm = j
				}
			}
			res += (wjm + resj - wjm/float32((jm+1)*(jm+1))) / 1.64493406685
		}
	}
	return res / float32(len(operands))
}

// rankAnd combines pairwise position-distance attenuated weights across
// every pair of matched operands using a probabilistic OR. Queries with
// fewer than two unique operands degrade to rankOr.
func rankAnd(w *[4]float32, t *tsvector.TSVector, q *tsquery.TSQuery) float32 {
	operands := q.UniqueOperands()
	if len(operands) < 2 {
		return rankOr(w, t, q)
	}
	type posVector struct {
		post    []tsvector.Position
		virtual bool
	}
	pos := make([]*posVector, len(operands))
	res := float32(-1)
	for i := range operands {
		first, n := t.Find(operands[i].Lexeme, operands[i].Prefix)
		for e := first; e < first+n; e++ {
			post, virtual := tsvector.EntryPositions(&t.Entries[e])
			pos[i] = &posVector{post: post, virtual: virtual}
			for k := 0; k < i; k++ {
				if pos[k] == nil {
					continue
				}
				for _, lp := range pos[i].post {
					for _, cp := range pos[k].post {
						dist := int(lp.Pos) - int(cp.Pos)
						if dist < 0 {
							dist = -dist
						}
						if dist == 0 {
							// Co-located real hits cannot form a bi-gram
							// with themselves; only the virtual sentinel
							// position contributes at distance zero.
							if !pos[i].virtual && !pos[k].virtual {
								continue
							}
							dist = tsvector.MaxEntryPos
						}
						curw := float32(math.Sqrt(float64(w[lp.Weight]) * float64(w[cp.Weight]) * float64(wordDistance(dist))))
						if res < 0 {
							res = curw
						} else {
							res = 1.0 - (1.0-res)*(1.0-curw)
						}
					}
				}
			}
		}
	}
	return res
}

// wordDistance attenuates a pair weight by the gap between the two
// positions. Gaps above 100 contribute essentially nothing.
func wordDistance(dist int) float32 {
	if dist > 100 {
		return 1e-30
	}
	return float32(1.0 / (1.005 + 0.05*math.Exp(float64(dist)/1.5-2)))
}

// applyNormalization divides the raw score by the selected document
// statistics. nExt and sumDist only matter for the cover-density score;
// the standard kernels pass zeroes which disables the extent-distance
// term.
func applyNormalization(res float32, method int, t *tsvector.TSVector, nExt int, sumDist float64) float32 {
	if method&NormLogLength != 0 && t.Size() > 0 {
		res /= float32(math.Log2(float64(t.CntLen() + 1)))
	}
	if method&NormLength != 0 {
		if l := t.CntLen(); l > 0 {
			res /= float32(l)
		}
	}
	if method&NormExtDist != 0 && nExt > 0 && sumDist > 0 {
		res /= float32(float64(nExt) / sumDist)
	}
	if method&NormUniq != 0 && t.Size() > 0 {
		res /= float32(t.Size())
	}
	if method&NormLogUniq != 0 && t.Size() > 0 {
		res /= float32(math.Log2(float64(t.Size() + 1)))
	}
	if method&NormRDivRPlus1 != 0 {
		res /= res + 1
	}
	return res
}
