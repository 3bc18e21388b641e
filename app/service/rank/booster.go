package rank

import (
	"context"
	"log/slog"
	"moovzmatch/app/client/mongodb"
	"moovzmatch/app/util/media"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ActorLookup answers which of the given media documents contain the full
// actor set. Implemented by the store client.
type ActorLookup interface {
	HasActors(ctx context.Context, kind media.Kind, ids []string, actors []string) (map[string]mongodb.ActorPresence, error)
}

// Booster corroborates candidates against the observed actor set and grants a
// bounded additive score bonus.
type Booster struct {
	lookup      ActorLookup
	actorWeight float64
}

func NewBooster(lookup ActorLookup, actorWeight float64) *Booster {
	return &Booster{
		lookup:      lookup,
		actorWeight: actorWeight,
	}
}

// Boost queries actor presence for the candidates' media ids (movies and TV
// concurrently) and returns the candidates with bonuses applied. A failed or
// absent lookup leaves the affected candidates at their base score; a bonus
// never lowers a score and the sum is capped at 1.0.
func (b *Booster) Boost(ctx context.Context, candidates []Candidate, actors []string) []Candidate {
	if len(candidates) == 0 || len(actors) == 0 {
		return candidates
	}

	var movieIDs, tvIDs []string
	for _, cand := range candidates {
		switch cand.Key.Kind {
		case media.KindMovie:
			movieIDs = append(movieIDs, cand.Key.ID)
		case media.KindTV:
			tvIDs = append(tvIDs, cand.Key.ID)
		}
	}

	var (
		mu       sync.Mutex
		presence = make(map[media.Key]mongodb.ActorPresence)
	)

	collect := func(kind media.Kind, ids []string) error {
		if len(ids) == 0 {
			return nil
		}

		batch, err := b.lookup.HasActors(ctx, kind, ids, actors)
		if err != nil {
			// partial failure: affected candidates keep their base score
			slog.Warn("Actor presence lookup failed",
				"kind", kind,
				"error", err)
			return nil
		}

		mu.Lock()
		for id, data := range batch {
			presence[media.Key{Kind: kind, ID: id}] = data
		}
		mu.Unlock()

		return nil
	}

	var g errgroup.Group
	g.Go(func() error { return collect(media.KindMovie, movieIDs) })
	g.Go(func() error { return collect(media.KindTV, tvIDs) })
	_ = g.Wait()

	boosted := make([]Candidate, len(candidates))
	for i, cand := range candidates {
		data, ok := presence[cand.Key]
		if !ok {
			boosted[i] = cand
			continue
		}

		cand.Score = capScore(cand.Score + b.bonus(data, len(actors)))
		boosted[i] = cand
	}

	return boosted
}

// bonus is the full actor weight when the entire set is present, otherwise
// scaled by the matched fraction. Never negative.
func (b *Booster) bonus(data mongodb.ActorPresence, total int) float64 {
	if data.Exists {
		return b.actorWeight
	}
	if total <= 0 {
		return 0
	}

	matched := total - len(data.Missing)
	if matched < 0 {
		matched = 0
	}

	return b.actorWeight * float64(matched) / float64(total)
}

func capScore(score float64) float64 {
	if score > 1.0 {
		return 1.0
	}
	return score
}
