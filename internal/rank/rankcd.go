package rank

import (
	"sort"

	"github.com/bits-and-blooms/bitset"

	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/tsquery"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/tsvector"
)

// RankCD scores vector against query with the cover-density method,
// default weights and no normalization.
func RankCD(t *tsvector.TSVector, q *tsquery.TSQuery) float32 {
	return calcRankCD(&defaultWeights, t, q, NormNone)
}

// RankCDMethod scores with the cover-density method applying the given
// normalization mask.
func RankCDMethod(t *tsvector.TSVector, q *tsquery.TSQuery, method int) float32 {
	return calcRankCD(&defaultWeights, t, q, method)
}

// RankCDWeighted scores with the cover-density method and a caller
// supplied weight table.
func RankCDWeighted(weights []float32, t *tsvector.TSVector, q *tsquery.TSQuery) (float32, error) {
	w, err := resolveWeights(weights)
	if err != nil {
		return 0, err
	}
	return calcRankCD(&w, t, q, NormNone), nil
}

// RankCDWeightedMethod scores with the cover-density method, a caller
// supplied weight table and a normalization mask.
func RankCDWeightedMethod(weights []float32, t *tsvector.TSVector, q *tsquery.TSQuery, method int) (float32, error) {
	w, err := resolveWeights(weights)
	if err != nil {
		return 0, err
	}
	return calcRankCD(&w, t, q, method), nil
}

// docToken is one position of the document annotated with the indices of
// every query item it satisfies. Tokens emitted for the same word entry
// share one items slice.
type docToken struct {
	pos    int
	weight tsvector.WeightClass
	items  []int
}

// getDocRep flattens the document into the position-sorted token list the
// cover scanner walks. Only positions of lexemes matched by some query
// operand are represented. Byte-equal operands appearing several times in
// the query annotate the same tokens and are processed once.
func getDocRep(t *tsvector.TSVector, q *tsquery.TSQuery) []docToken {
	processed := make([]bool, len(q.Items))
	var doc []docToken
	for i := range q.Items {
		if q.Items[i].Type != tsquery.ItemVal || processed[i] {
			continue
		}
		cur := &q.Items[i].Operand
		first, n := t.Find(cur.Lexeme, cur.Prefix)
		if n == 0 {
			continue
		}
		var items []int
		for k := i; k < len(q.Items); k++ {
			if q.Items[k].Type == tsquery.ItemVal && q.Items[k].Operand.Lexeme == cur.Lexeme {
				processed[k] = true
				items = append(items, k)
			}
		}
		for e := first; e < first+n; e++ {
			post, _ := tsvector.EntryPositions(&t.Entries[e])
			for _, p := range post {
				doc = append(doc, docToken{pos: int(p.Pos), weight: p.Weight, items: items})
			}
		}
	}
	sort.Slice(doc, func(a, b int) bool { return doc[a].pos < doc[b].pos })
	return doc
}

// coverExt describes one cover of the query over the document: token
// indices [begin, end] and positions p = doc[begin].pos, q = doc[end].pos.
// pos is the scan cursor for the next call.
type coverExt struct {
	begin, end int
	p, q       int
	pos        int
}

// nextCover advances ext to the next minimal cover, returning false on
// exhaustion. The forward scan ORs token operands into the existence set
// and evaluates the query with NOT forced true until it first succeeds,
// fixing the upper bound. The backward scan from there honours NOT and
// fixes the latest satisfying lower bound. When the bounds fail to close
// the cursor advances one token and the scan restarts; the restart is a
// loop rather than the tail call a direct transcription would use, so
// pathological documents cannot grow the stack.
func nextCover(doc []docToken, q *tsquery.TSQuery, exist *bitset.BitSet, ext *coverExt) bool {
	pred := func(idx int) bool { return exist.Test(uint(idx)) }
	for ext.pos < len(doc) {
		exist.ClearAll()
		ext.p = int(^uint(0) >> 1)
		ext.q = 0
		lastpos := ext.pos
		found := false
		for i := ext.pos; i < len(doc); i++ {
			for _, it := range doc[i].items {
				exist.Set(uint(it))
			}
			if q.Evaluate(false, pred) {
				if doc[i].pos > ext.q {
					ext.q = doc[i].pos
					ext.end = i
					lastpos = i
					found = true
				}
				break
			}
		}
		if !found {
			return false
		}
		exist.ClearAll()
		for i := lastpos; i >= ext.pos; i-- {
			for _, it := range doc[i].items {
				exist.Set(uint(it))
			}
			if q.Evaluate(true, pred) {
				if doc[i].pos < ext.p {
					ext.begin = i
					ext.p = doc[i].pos
					break
				}
			}
		}
		if ext.p <= ext.q {
			ext.pos = ext.begin + 1
			return true
		}
		ext.pos++
	}
	return false
}

func calcRankCD(w *[4]float32, t *tsvector.TSVector, q *tsquery.TSQuery, method int) float32 {
	if t.Size() == 0 || q.Size() == 0 {
		return 0
	}
	doc := getDocRep(t, q)
	if len(doc) == 0 {
		return 0
	}
	var invws [4]float64
	for i := range w {
		invws[i] = 1.0 / float64(w[i])
	}
	var (
		wdoc, sumDist, prevExtPos float64
		nExt                      int
	)
	exist := bitset.New(uint(len(q.Items)))
	var ext coverExt
	for nextCover(doc, q, exist, &ext) {
		var invSum float64
		for i := ext.begin; i <= ext.end; i++ {
			invSum += invws[doc[i].weight]
		}
		cpos := float64(ext.end-ext.begin+1) / invSum
		// nNoise goes negative when several lexemes share a position.
		nNoise := (ext.q - ext.p) - (ext.end - ext.begin)
		if nNoise < 0 {
			nNoise = (ext.end - ext.begin) / 2
		}
		wdoc += cpos / float64(1+nNoise)
		curExtPos := float64(ext.q+ext.p) / 2.0
		if nExt > 0 && curExtPos > prevExtPos {
			sumDist += 1.0 / (curExtPos - prevExtPos)
		}
		prevExtPos = curExtPos
		nExt++
	}
	return applyNormalization(float32(wdoc), method, t, nExt, sumDist)
}
