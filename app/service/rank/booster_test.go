package rank

import (
	"context"
	"errors"
	"math"
	"moovzmatch/app/client/mongodb"
	"moovzmatch/app/util/media"
	"testing"
)

type fakeLookup struct {
	movies map[string]mongodb.ActorPresence
	tv     map[string]mongodb.ActorPresence
	err    error
}

func (f *fakeLookup) HasActors(_ context.Context, kind media.Kind, ids []string, _ []string) (map[string]mongodb.ActorPresence, error) {
	if f.err != nil {
		return nil, f.err
	}

	source := f.movies
	if kind == media.KindTV {
		source = f.tv
	}

	result := make(map[string]mongodb.ActorPresence)
	for _, id := range ids {
		if presence, ok := source[id]; ok {
			result[id] = presence
		}
	}

	return result, nil
}

func TestBoostFullMatch(t *testing.T) {
	lookup := &fakeLookup{
		movies: map[string]mongodb.ActorPresence{
			"a": {Exists: true},
		},
	}
	b := NewBooster(lookup, 0.08)

	candidates := []Candidate{
		{Key: movieKey("a"), Score: 0.5},
	}

	boosted := b.Boost(context.Background(), candidates, []string{"ian mckellen", "elijah wood"})
	if got, want := boosted[0].Score, 0.58; math.Abs(got-want) > 1e-9 {
		t.Errorf("boosted score = %v, want %v", got, want)
	}
}

func TestBoostPartialMatch(t *testing.T) {
	lookup := &fakeLookup{
		movies: map[string]mongodb.ActorPresence{
			"a": {Exists: false, Missing: []string{"elijah wood"}},
		},
	}
	b := NewBooster(lookup, 0.08)

	candidates := []Candidate{
		{Key: movieKey("a"), Score: 0.5},
	}

	// one of two actors matched: half the weight
	boosted := b.Boost(context.Background(), candidates, []string{"ian mckellen", "elijah wood"})
	if got, want := boosted[0].Score, 0.54; math.Abs(got-want) > 1e-9 {
		t.Errorf("boosted score = %v, want %v", got, want)
	}
}

func TestBoostCapsAtOne(t *testing.T) {
	lookup := &fakeLookup{
		movies: map[string]mongodb.ActorPresence{
			"a": {Exists: true},
		},
	}
	b := NewBooster(lookup, 0.08)

	candidates := []Candidate{
		{Key: movieKey("a"), Score: 0.97},
	}

	boosted := b.Boost(context.Background(), candidates, []string{"ian mckellen"})
	if got := boosted[0].Score; got != 1.0 {
		t.Errorf("boosted score = %v, want 1.0", got)
	}
}

func TestBoostLookupFailureKeepsBaseScores(t *testing.T) {
	lookup := &fakeLookup{err: errors.New("store unavailable")}
	b := NewBooster(lookup, 0.08)

	candidates := []Candidate{
		{Key: movieKey("a"), Score: 0.5},
		{Key: media.Key{Kind: media.KindTV, ID: "s"}, Score: 0.6},
	}

	boosted := b.Boost(context.Background(), candidates, []string{"ian mckellen"})
	if boosted[0].Score != 0.5 || boosted[1].Score != 0.6 {
		t.Errorf("scores changed on lookup failure: %+v", boosted)
	}
}

func TestBoostUnknownCandidateKeepsBaseScore(t *testing.T) {
	lookup := &fakeLookup{
		movies: map[string]mongodb.ActorPresence{
			"a": {Exists: true},
		},
	}
	b := NewBooster(lookup, 0.08)

	candidates := []Candidate{
		{Key: movieKey("a"), Score: 0.5},
		{Key: movieKey("unknown"), Score: 0.5},
	}

	boosted := b.Boost(context.Background(), candidates, []string{"ian mckellen"})
	if got, want := boosted[0].Score, 0.58; math.Abs(got-want) > 1e-9 {
		t.Errorf("matched candidate = %v, want %v", got, want)
	}
	if got := boosted[1].Score; got != 0.5 {
		t.Errorf("unmatched candidate = %v, want unchanged 0.5", got)
	}
}

func TestBoostNeverLowersScores(t *testing.T) {
	lookup := &fakeLookup{
		movies: map[string]mongodb.ActorPresence{
			"a": {Exists: false, Missing: []string{"x", "y"}},
		},
	}
	b := NewBooster(lookup, 0.08)

	candidates := []Candidate{
		{Key: movieKey("a"), Score: 0.5},
	}

	boosted := b.Boost(context.Background(), candidates, []string{"x", "y"})
	if got := boosted[0].Score; got < 0.5 {
		t.Errorf("score lowered by boost: %v", got)
	}
}

func TestBoostNoActorsNoChange(t *testing.T) {
	b := NewBooster(&fakeLookup{}, 0.08)

	candidates := []Candidate{
		{Key: movieKey("a"), Score: 0.5},
	}

	boosted := b.Boost(context.Background(), candidates, nil)
	if boosted[0].Score != 0.5 {
		t.Errorf("score changed with no actor evidence: %v", boosted[0].Score)
	}
}
