package rank

import (
	"container/heap"
	"moovzmatch/app/util/media"

	"github.com/elliotchance/pie/v2"
)

// TopK tracks the best score seen per media key. Pushes go through a lazy
// max-heap: superseded entries stay in the heap until a read encounters them,
// so updates cost O(log n) with no eager deletion.
type TopK struct {
	k    int
	best map[media.Key]float64
	heap entryHeap
}

// Entry pairs a media key with the best score seen for it.
type Entry struct {
	Key   media.Key
	Score float64
}

func NewTopK(k int) *TopK {
	return &TopK{
		k:    k,
		best: make(map[media.Key]float64),
	}
}

// Push records a score for a key. Scores below the key's known best are
// ignored. Compaction keeps the heap bounded across long sessions.
func (t *TopK) Push(key media.Key, score float64) {
	prev, ok := t.best[key]
	if ok && score <= prev {
		return
	}

	t.best[key] = score
	heap.Push(&t.heap, Entry{Key: key, Score: score})

	if t.heap.Len() > 4*t.k {
		t.compact()
	}
}

// Top returns the current best entry, discarding stale heap entries on the
// way down. Reports false when nothing has been pushed.
func (t *TopK) Top() (Entry, bool) {
	for t.heap.Len() > 0 {
		entry := t.heap[0]
		if t.best[entry.Key] == entry.Score {
			return entry, true
		}

		heap.Pop(&t.heap)
	}

	return Entry{}, false
}

// TopN is a non-destructive snapshot of the best n entries, ordered by score
// descending. It reads the best-score map, so heap staleness is irrelevant.
func (t *TopK) TopN(n int) []Entry {
	entries := make([]Entry, 0, len(t.best))
	for key, score := range t.best {
		entries = append(entries, Entry{Key: key, Score: score})
	}

	entries = pie.SortStableUsing(entries, func(a, b Entry) bool {
		return a.Score > b.Score
	})

	if len(entries) > n {
		entries = entries[:n]
	}

	return entries
}

// Len reports the number of distinct keys tracked.
func (t *TopK) Len() int {
	return len(t.best)
}

// compact rebuilds the heap from live entries only, capped to 2k. The true
// best entries always survive: anything cut beyond 2k is dominated by at
// least 2k live entries with higher scores.
func (t *TopK) compact() {
	live := make(entryHeap, 0, len(t.best))
	for _, entry := range t.heap {
		if t.best[entry.Key] == entry.Score {
			live = append(live, entry)
		}
	}

	live = entryHeap(pie.SortStableUsing(live, func(a, b Entry) bool {
		return a.Score > b.Score
	}))

	if len(live) > 2*t.k {
		live = live[:2*t.k]
	}

	heap.Init(&live)
	t.heap = live
}

// entryHeap implements container/heap.Interface as a max-heap on score.
type entryHeap []Entry

func (h entryHeap) Len() int           { return len(h) }
func (h entryHeap) Less(i, j int) bool { return h[i].Score > h[j].Score }
func (h entryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

// Push appends x. Called by container/heap, not directly.
func (h *entryHeap) Push(x any) {
	*h = append(*h, x.(Entry))
}

// Pop removes and returns the last element. Called by container/heap.
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}
