package rank

import (
	"math"
	"moovzmatch/app/client/mongodb"
	"moovzmatch/app/util/media"
	"testing"
)

func movieDoc(id string, score float64) mongodb.SearchDocument {
	return mongodb.SearchDocument{
		Meta: mongodb.ChunkMeta{
			Score:   score,
			MovieID: id,
		},
	}
}

func TestNormalize(t *testing.T) {
	r := NewRanker(30, 20, 0.40, 5)

	// best possible fused score: rank 1 in both arms
	theoreticalMax := 1.0/31.0 + 1.0/21.0

	tests := []struct {
		name string
		raw  float64
		want float64
	}{
		{name: "zero", raw: 0, want: 0},
		{name: "max", raw: theoreticalMax, want: 1},
		{name: "half", raw: theoreticalMax / 2, want: 0.5},
		{name: "above max clamps", raw: theoreticalMax * 2, want: 1},
		{name: "negative clamps", raw: -0.1, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Normalize(tt.raw); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Normalize(%v) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeMonotonic(t *testing.T) {
	r := NewRanker(30, 20, 0.40, 5)

	prev := -1.0
	for raw := 0.0; raw <= 0.1; raw += 0.001 {
		got := r.Normalize(raw)
		if got < prev {
			t.Fatalf("Normalize not monotonic at raw=%v: %v < %v", raw, got, prev)
		}
		prev = got
	}
}

func TestRankGatesWeakCandidates(t *testing.T) {
	r := NewRanker(30, 20, 0.40, 5)
	theoreticalMax := 1.0/31.0 + 1.0/21.0

	docs := []mongodb.SearchDocument{
		movieDoc("strong", theoreticalMax*0.8),
		movieDoc("weak", theoreticalMax*0.2),
	}

	candidates := r.Rank(docs)
	if len(candidates) != 1 {
		t.Fatalf("Rank() returned %d candidates, want 1", len(candidates))
	}
	if candidates[0].Key.ID != "strong" {
		t.Errorf("surviving candidate = %q, want strong", candidates[0].Key.ID)
	}
}

func TestRankDeduplicatesByMedia(t *testing.T) {
	r := NewRanker(30, 20, 0.40, 5)
	theoreticalMax := 1.0/31.0 + 1.0/21.0

	docs := []mongodb.SearchDocument{
		movieDoc("a", theoreticalMax*0.5),
		movieDoc("a", theoreticalMax*0.9),
		movieDoc("a", theoreticalMax*0.7),
	}

	candidates := r.Rank(docs)
	if len(candidates) != 1 {
		t.Fatalf("Rank() returned %d candidates, want 1", len(candidates))
	}
	if got := candidates[0].Score; math.Abs(got-0.9) > 1e-9 {
		t.Errorf("kept score = %v, want the best chunk's 0.9", got)
	}
}

func TestRankSortsAndTruncates(t *testing.T) {
	r := NewRanker(30, 20, 0.40, 2)
	theoreticalMax := 1.0/31.0 + 1.0/21.0

	docs := []mongodb.SearchDocument{
		movieDoc("c", theoreticalMax*0.5),
		movieDoc("a", theoreticalMax*0.9),
		movieDoc("b", theoreticalMax*0.7),
	}

	candidates := r.Rank(docs)
	if len(candidates) != 2 {
		t.Fatalf("Rank() returned %d candidates, want 2", len(candidates))
	}
	if candidates[0].Key.ID != "a" || candidates[1].Key.ID != "b" {
		t.Errorf("order = %q, %q; want a, b", candidates[0].Key.ID, candidates[1].Key.ID)
	}
}

func TestRankSkipsUnidentifiableChunks(t *testing.T) {
	r := NewRanker(30, 20, 0.0, 5)

	docs := []mongodb.SearchDocument{
		{Meta: mongodb.ChunkMeta{Score: 0.05}},
	}

	if candidates := r.Rank(docs); len(candidates) != 0 {
		t.Errorf("Rank() kept a chunk with no media identity: %+v", candidates)
	}
}

func TestRankTVChunks(t *testing.T) {
	r := NewRanker(30, 20, 0.0, 5)
	theoreticalMax := 1.0/31.0 + 1.0/21.0

	docs := []mongodb.SearchDocument{
		{Meta: mongodb.ChunkMeta{Score: theoreticalMax * 0.6, TVShowID: "show"}},
	}

	candidates := r.Rank(docs)
	if len(candidates) != 1 {
		t.Fatalf("Rank() returned %d candidates, want 1", len(candidates))
	}
	want := media.Key{Kind: media.KindTV, ID: "show"}
	if candidates[0].Key != want {
		t.Errorf("key = %+v, want %+v", candidates[0].Key, want)
	}
}
