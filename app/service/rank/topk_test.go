package rank

import (
	"fmt"
	"math/rand"
	"moovzmatch/app/util/media"
	"testing"
)

func movieKey(id string) media.Key {
	return media.Key{Kind: media.KindMovie, ID: id}
}

func TestTopKEmpty(t *testing.T) {
	tracker := NewTopK(5)

	if _, ok := tracker.Top(); ok {
		t.Error("empty tracker should report no top entry")
	}
	if got := tracker.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0", got)
	}
}

func TestTopKKeepsBestPerKey(t *testing.T) {
	tracker := NewTopK(5)

	tracker.Push(movieKey("a"), 0.5)
	tracker.Push(movieKey("a"), 0.3)
	tracker.Push(movieKey("a"), 0.7)
	tracker.Push(movieKey("b"), 0.6)

	top, ok := tracker.Top()
	if !ok {
		t.Fatal("expected a top entry")
	}
	if top.Key != movieKey("a") || top.Score != 0.7 {
		t.Errorf("Top() = %+v, want a/0.7", top)
	}
	if got := tracker.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

func TestTopKStaleEntriesSkipped(t *testing.T) {
	tracker := NewTopK(5)

	// b briefly leads, then a overtakes; the stale b entry at the heap top
	// must not shadow the live one
	tracker.Push(movieKey("b"), 0.6)
	tracker.Push(movieKey("b"), 0.65)
	tracker.Push(movieKey("a"), 0.9)

	top, ok := tracker.Top()
	if !ok || top.Key != movieKey("a") || top.Score != 0.9 {
		t.Errorf("Top() = %+v, want a/0.9", top)
	}
}

func TestTopKTopN(t *testing.T) {
	tracker := NewTopK(5)

	tracker.Push(movieKey("a"), 0.9)
	tracker.Push(movieKey("b"), 0.7)
	tracker.Push(movieKey("c"), 0.8)

	entries := tracker.TopN(2)
	if len(entries) != 2 {
		t.Fatalf("TopN(2) returned %d entries", len(entries))
	}
	if entries[0].Key != movieKey("a") || entries[1].Key != movieKey("c") {
		t.Errorf("TopN(2) = %+v, want a then c", entries)
	}
}

func TestTopKCompactionPreservesTop(t *testing.T) {
	tracker := NewTopK(5)
	rng := rand.New(rand.NewSource(1))

	// monotonically rising scores per key force plenty of stale entries and
	// repeated compaction
	best := make(map[media.Key]float64)
	for cycle := 0; cycle < 200; cycle++ {
		for i := 0; i < 50; i++ {
			key := movieKey(fmt.Sprintf("m%d", i))
			score := rng.Float64()
			tracker.Push(key, score)
			if score > best[key] {
				best[key] = score
			}
		}
	}

	var wantKey media.Key
	var wantScore float64
	for key, score := range best {
		if score > wantScore {
			wantKey, wantScore = key, score
		}
	}

	top, ok := tracker.Top()
	if !ok {
		t.Fatal("expected a top entry")
	}
	if top.Key != wantKey || top.Score != wantScore {
		t.Errorf("Top() = %+v, want %v/%v", top, wantKey, wantScore)
	}
	if got := tracker.Len(); got != 50 {
		t.Errorf("Len() = %d, want 50", got)
	}
}
