package executor

import "container/heap"

// topK keeps the limit highest-scoring documents using a bounded min-heap.
type topK struct {
	h     scoredDocHeap
	limit int
}

func newTopK(limit int) *topK {
	if limit <= 0 {
		limit = 10
	}
	t := &topK{limit: limit}
	heap.Init(&t.h)
	return t
}

func (t *topK) Push(doc ScoredDoc) {
	heap.Push(&t.h, doc)
	if t.h.Len() > t.limit {
		heap.Pop(&t.h)
	}
}

// Sorted drains the heap and returns documents in descending score order.
func (t *topK) Sorted() []ScoredDoc {
	result := make([]ScoredDoc, t.h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(&t.h).(ScoredDoc)
	}
	return result
}

type scoredDocHeap []ScoredDoc

func (h scoredDocHeap) Len() int { return len(h) }

func (h scoredDocHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].DocID > h[j].DocID
}

func (h scoredDocHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *scoredDocHeap) Push(x interface{}) {
	*h = append(*h, x.(ScoredDoc))
}

func (h *scoredDocHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
