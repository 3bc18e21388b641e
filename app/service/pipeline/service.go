// Package pipeline fuses live transcript and actor evidence into a single
// media identification per session.
package pipeline

import (
	"context"
	"log/slog"
	"moovzmatch/app/client/mongodb"
	"moovzmatch/app/client/speechkit"
	"moovzmatch/app/config"
	"moovzmatch/app/service/rank"
	"moovzmatch/app/util/media"
	"sync"

	"github.com/samber/do"
)

// Searcher runs the hybrid corpus search over a transcript snapshot.
type Searcher interface {
	HybridSearch(ctx context.Context, text string) ([]mongodb.SearchDocument, error)
}

// SummaryFetcher loads the display record of an identified media item.
type SummaryFetcher interface {
	FetchSummary(ctx context.Context, key media.Key) (*mongodb.Summary, error)
}

// Deps are the collaborators a session needs to run.
type Deps struct {
	Searcher  Searcher
	Summaries SummaryFetcher
	Booster   *rank.Booster
	Speech    SpeechStream
}

// Service owns the live sessions, keyed by session id.
type Service struct {
	cfg  *config.Config
	deps Deps

	mu       sync.Mutex
	sessions map[string]*Session
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)
	store := do.MustInvoke[*mongodb.Client](di)
	speech := do.MustInvoke[*speechkit.YandexSpeechKit](di)

	return &Service{
		cfg: cfg,
		deps: Deps{
			Searcher:  store,
			Summaries: store,
			Booster:   rank.NewBooster(store, cfg.Pipeline.ActorWeight),
			Speech:    speechAdapter{client: speech},
		},
		sessions: make(map[string]*Session),
	}, nil
}

// GetOrCreate returns the session for the given id, creating it on first use.
// The update callback is only applied to a newly created session.
func (s *Service) GetOrCreate(id string, onUpdate func(Update)) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[id]; ok {
		return session
	}

	session := NewSession(id, s.cfg, s.deps, onUpdate)
	s.sessions[id] = session

	slog.Info("Session created", "session", id)

	return session
}

// Remove closes the session and forgets it.
func (s *Service) Remove(id string) {
	s.mu.Lock()
	session, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		session.Close()
		slog.Info("Session removed", "session", id)
	}
}

func (s *Service) Shutdown() error {
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}

	return nil
}

// speechAdapter narrows the recognizer client to the SpeechStream interface.
type speechAdapter struct {
	client *speechkit.YandexSpeechKit
}

func (a speechAdapter) Start(ctx context.Context) (SpeechHandle, error) {
	handle, err := a.client.Start(ctx)
	if err != nil {
		return nil, err
	}

	return handle, nil
}
