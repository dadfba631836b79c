package rank

import (
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankCDSingleCover(t *testing.T) {
	v := vec(t, "a:1A b:2A c:3A")
	q := query(t, "a & c")
	// The only cover spans positions 1..3 but holds just the two matched
	// tokens, leaving one noise position.
	got := RankCD(v, q)
	assert.InDelta(t, 0.5, float64(got), 1e-6)
}

func TestRankCDNoMatch(t *testing.T) {
	v := vec(t, "a:1 b:2")
	q := query(t, "x & y")
	assert.Zero(t, RankCD(v, q))
}

func TestDocRepOnlyMatchedLexemes(t *testing.T) {
	v := vec(t, "a:1A b:2A c:3A")
	q := query(t, "a & c")
	doc := getDocRep(v, q)
	require.Len(t, doc, 2)
	assert.Equal(t, 1, doc[0].pos)
	assert.Equal(t, 3, doc[1].pos)
}

func TestDocRepSharesItemsAcrossDuplicates(t *testing.T) {
	v := vec(t, "a:1,4")
	q := query(t, "a | a")
	doc := getDocRep(v, q)
	require.Len(t, doc, 2)
	// Both VAL items annotate both tokens; duplicates are processed once.
	assert.Equal(t, []int{0, 1}, doc[0].items)
	assert.Equal(t, doc[0].items, doc[1].items)
}

func TestCoverBoundsAndExhaustion(t *testing.T) {
	v := vec(t, "a:1 b:2 c:3")
	q := query(t, "a & c")
	doc := getDocRep(v, q)
	exist := bitset.New(uint(q.Size()))
	var ext coverExt

	require.True(t, nextCover(doc, q, exist, &ext))
	assert.Equal(t, 0, ext.begin)
	assert.Equal(t, 1, ext.end)
	assert.Equal(t, 1, ext.p)
	assert.Equal(t, 3, ext.q)

	assert.False(t, nextCover(doc, q, exist, &ext))
}

func TestCoverMinimality(t *testing.T) {
	v := vec(t, "a:1,5 c:3,7")
	q := query(t, "a & c")
	doc := getDocRep(v, q)
	exist := bitset.New(uint(q.Size()))
	var ext coverExt

	pred := func(idx int) bool { return exist.Test(uint(idx)) }
	satisfies := func(begin, end int, calcNot bool) bool {
		exist.ClearAll()
		for i := begin; i <= end; i++ {
			for _, it := range doc[i].items {
				exist.Set(uint(it))
			}
		}
		return q.Evaluate(calcNot, pred)
	}

	prevBegin := -1
	n := 0
	for nextCover(doc, q, exist, &ext) {
		assert.True(t, satisfies(ext.begin, ext.end, true), "cover %d should satisfy the query", n)
		if ext.end > ext.begin {
			assert.False(t, satisfies(ext.begin, ext.end-1, false),
				"cover %d without its last token should fail the monotone evaluation", n)
			assert.False(t, satisfies(ext.begin+1, ext.end, true),
				"cover %d without its first token should fail", n)
		}
		assert.Greater(t, ext.begin, prevBegin, "cover starts must advance")
		prevBegin = ext.begin
		n++
	}
	assert.Equal(t, 3, n)
}

func TestRankCDExtDistNormalization(t *testing.T) {
	v := vec(t, "a:1,5 c:3,7")
	q := query(t, "a & c")
	raw := RankCD(v, q)
	got := RankCDMethod(v, q, NormExtDist)
	// Three covers centred at 2, 4 and 6: sum of inverse centre gaps is
	// 1/2 + 1/2, so the extent divisor is 3 / 1.
	assert.InDelta(t, float64(raw)/3, float64(got), 1e-6)
}

func TestRankCDSharedPositionNoise(t *testing.T) {
	v := vec(t, "a:1 b:1")
	q := query(t, "a & b")
	// Both lexemes share position 1, driving the noise count negative;
	// the fallback leaves the cover contribution undamped.
	got := RankCD(v, q)
	assert.InDelta(t, 0.1, float64(got), 1e-6)
}

func TestRankCDPrefixSuperset(t *testing.T) {
	v := vec(t, "cat:1 catalog:3")
	exact := RankCD(v, query(t, "cat"))
	prefix := RankCD(v, query(t, "cat:*"))
	assert.GreaterOrEqual(t, prefix, exact)
}

func TestRankCDWeightedHigherClassScoresHigher(t *testing.T) {
	q := query(t, "a & b")
	low := RankCD(vec(t, "a:1 b:2"), q)
	high := RankCD(vec(t, "a:1A b:2A"), q)
	assert.Greater(t, high, low)
}

func TestRankCDNotExcludesCovers(t *testing.T) {
	withBan := RankCD(vec(t, "a:1 b:2 c:3"), query(t, "a & c & !b"))
	without := RankCD(vec(t, "a:1 c:3"), query(t, "a & c & !b"))
	assert.Zero(t, withBan)
	assert.Greater(t, without, float32(0))
}
