// Package rank turns raw hybrid-search output into scored, deduplicated
// candidates and tracks the best of them across decision cycles.
package rank

import (
	"moovzmatch/app/client/mongodb"
	"moovzmatch/app/util/media"

	"github.com/elliotchance/pie/v2"
)

// Candidate is one media identity surviving the ranking pass, carrying its
// best normalized score within the current decision cycle.
type Candidate struct {
	Key   media.Key
	Score float64
	Doc   mongodb.SearchDocument
}

// Ranker normalizes raw reciprocal-rank-fusion scores into [0,1], gates out
// weak candidates and keeps the best occurrence per media identity.
type Ranker struct {
	theoreticalMax float64
	minScoreGate   float64
	topN           int
}

// NewRanker derives the theoretical score maximum from the fusion penalties:
// a chunk ranked first by both arms scores 1/(vp+1) + 1/(fp+1).
func NewRanker(vectorPenalty, fulltextPenalty int, minScoreGate float64, topN int) *Ranker {
	return &Ranker{
		theoreticalMax: 1.0/float64(vectorPenalty+1) + 1.0/float64(fulltextPenalty+1),
		minScoreGate:   minScoreGate,
		topN:           topN,
	}
}

// Normalize maps a raw fused score onto [0,1], clamped.
func (r *Ranker) Normalize(raw float64) float64 {
	normalized := raw / r.theoreticalMax

	switch {
	case normalized < 0:
		return 0
	case normalized > 1:
		return 1
	default:
		return normalized
	}
}

// Rank filters, deduplicates and orders search documents. Candidates below
// the minimum score gate are dropped entirely; for each media identity only
// the highest-scoring chunk survives. The result is sorted descending and
// truncated to the top N.
func (r *Ranker) Rank(docs []mongodb.SearchDocument) []Candidate {
	best := make(map[media.Key]Candidate)

	for _, doc := range docs {
		score := r.Normalize(doc.Meta.Score)
		if score < r.minScoreGate {
			continue
		}

		key, ok := doc.Meta.MediaKey()
		if !ok {
			continue
		}

		if prev, found := best[key]; !found || score > prev.Score {
			best[key] = Candidate{
				Key:   key,
				Score: score,
				Doc:   doc,
			}
		}
	}

	candidates := make([]Candidate, 0, len(best))
	for _, cand := range best {
		candidates = append(candidates, cand)
	}

	candidates = pie.SortStableUsing(candidates, func(a, b Candidate) bool {
		return a.Score > b.Score
	})

	if len(candidates) > r.topN {
		candidates = candidates[:r.topN]
	}

	return candidates
}
