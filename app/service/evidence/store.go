// Package evidence holds the per-session accumulation of the two input
// streams: the live transcript and the set of recognized actor names.
package evidence

import (
	"strings"
	"sync"
)

// Store is safe for concurrent use. Transcript and actor state live behind
// separate locks so the two producers never block each other.
type Store struct {
	textMu          sync.RWMutex
	finalUtterances []string
	currentPartial  string

	actorMu sync.RWMutex
	actors  []string
}

func NewStore() *Store {
	return &Store{}
}

// AppendTranscript records one transcript event. Final text is appended to
// the utterance list and clears the partial; non-final text replaces the
// partial wholesale. Empty or whitespace-only text is a no-op. Reports
// whether the transcript changed.
func (s *Store) AppendTranscript(text string, isFinal bool) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	s.textMu.Lock()
	defer s.textMu.Unlock()

	if isFinal {
		s.finalUtterances = append(s.finalUtterances, text)
		s.currentPartial = ""
		return true
	}

	if s.currentPartial == text {
		return false
	}

	s.currentPartial = text
	return true
}

// AddActors merges names into the actor set, ignoring ones already present.
// Names are kept exactly as the recognizer produced them. Reports whether the
// set changed.
func (s *Store) AddActors(names []string) bool {
	s.actorMu.Lock()
	defer s.actorMu.Unlock()

	existing := make(map[string]struct{}, len(s.actors))
	for _, name := range s.actors {
		existing[name] = struct{}{}
	}

	changed := false
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := existing[name]; ok {
			continue
		}

		s.actors = append(s.actors, name)
		existing[name] = struct{}{}
		changed = true
	}

	return changed
}

// Actors returns a copy of the current actor set.
func (s *Store) Actors() []string {
	s.actorMu.RLock()
	defer s.actorMu.RUnlock()

	result := make([]string, len(s.actors))
	copy(result, s.actors)

	return result
}

// TranscriptText is the space-joined concatenation of all final utterances
// plus the current partial.
func (s *Store) TranscriptText() string {
	s.textMu.RLock()
	defer s.textMu.RUnlock()

	parts := s.finalUtterances
	if s.currentPartial != "" {
		parts = append(parts[:len(parts):len(parts)], s.currentPartial)
	}

	return strings.Join(parts, " ")
}

// Reset clears all accumulated evidence so the store can serve a new run.
func (s *Store) Reset() {
	s.textMu.Lock()
	s.finalUtterances = nil
	s.currentPartial = ""
	s.textMu.Unlock()

	s.actorMu.Lock()
	s.actors = nil
	s.actorMu.Unlock()
}
