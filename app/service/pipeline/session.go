package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"moovzmatch/app/client/speechkit"
	"moovzmatch/app/config"
	"moovzmatch/app/service/decision"
	"moovzmatch/app/service/evidence"
	"moovzmatch/app/service/rank"
	"moovzmatch/app/util/media"
	"sync"
	"sync/atomic"
	"time"
)

var errSessionClosed = errors.New("session closed")

// Session drives one identification run: it accumulates evidence, wakes on
// evidence changes, runs decision cycles and produces exactly one terminal
// result per run. After a run finishes the session resets itself and can be
// reused.
type Session struct {
	ID   string
	cfg  *config.Config
	deps Deps

	onUpdate func(Update)

	evidence *evidence.Store
	ranker   *rank.Ranker
	engine   *decision.Engine

	// level-triggered wake signals, buffered so a set during a cycle is
	// never lost
	evtText  chan struct{}
	evtActor chan struct{}

	// at most one decision cycle in flight per session
	searchMu sync.Mutex

	running atomic.Bool
	closing atomic.Bool

	mu           sync.Mutex
	runCtx       context.Context
	runCancel    context.CancelCauseFunc
	audioCh      chan []byte
	audioClosed  bool
	pumpWanted   bool
	speechCancel context.CancelFunc
	speechDone   chan struct{}

	lastNotifyKey   media.Key
	lastNotifyScore float64
}

func NewSession(id string, cfg *config.Config, deps Deps, onUpdate func(Update)) *Session {
	return &Session{
		ID:       id,
		cfg:      cfg,
		deps:     deps,
		onUpdate: onUpdate,
		evidence: evidence.NewStore(),
		ranker: rank.NewRanker(
			cfg.Pipeline.VectorPenalty,
			cfg.Pipeline.FulltextPenalty,
			cfg.Pipeline.MinScoreGate,
			cfg.Pipeline.TopK,
		),
		engine:   decision.NewEngine(cfg.Pipeline.AcceptThreshold, cfg.Pipeline.MaxWait),
		evtText:  make(chan struct{}, 1),
		evtActor: make(chan struct{}, 1),
		audioCh:  make(chan []byte, cfg.Pipeline.AudioQueueSize),
	}
}

// PushAudio buffers one audio chunk for the speech pump. Chunks arriving
// while the buffer is full, or after close, are dropped.
func (s *Session) PushAudio(chunk []byte) {
	if s.closing.Load() || len(chunk) == 0 {
		return
	}

	s.mu.Lock()
	if s.audioClosed {
		s.mu.Unlock()
		return
	}

	select {
	case s.audioCh <- chunk:
	default:
		slog.Warn("Audio buffer full, dropping chunk", "session", s.ID)
	}

	if s.runCtx == nil {
		s.pumpWanted = true
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.ensureSpeech()
}

// AddActors merges recognized actor names into the evidence set and wakes the
// decision loop when the set actually changed.
func (s *Session) AddActors(names []string) {
	if s.closing.Load() {
		return
	}

	if s.evidence.AddActors(names) {
		signal(s.evtActor)
	}
}

// Run executes one identification run to its single terminal result. It
// returns nil if a run is already in progress. The session is reset before
// Run returns, ready for reuse.
func (s *Session) Run(ctx context.Context) *Result {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}
	defer s.running.Store(false)

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	s.mu.Lock()
	s.runCtx = ctx
	s.runCancel = cancel
	pumpWanted := s.pumpWanted
	s.mu.Unlock()

	if pumpWanted {
		s.ensureSpeech()
	}

	result := s.runLoop(ctx)

	s.shutdownSpeech()
	s.reset()

	return result
}

// Close terminates an in-flight run, which then emits a cancelled terminal
// result. Closing an idle or already closed session is a no-op.
func (s *Session) Close() {
	if !s.closing.CompareAndSwap(false, true) {
		return
	}

	s.mu.Lock()
	cancel := s.runCancel
	s.mu.Unlock()

	if cancel != nil {
		cancel(errSessionClosed)
		return
	}

	// no run in flight: drain the pump ourselves
	s.shutdownSpeech()
	s.reset()
}

func (s *Session) runLoop(ctx context.Context) (result *Result) {
	start := time.Now()

	// a panicking collaborator must not take the process down; the run
	// still ends with a terminal result
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Identification run panicked",
				"session", s.ID,
				"panic", r)
			result = s.failure(ReasonError, start)
		}
	}()

	topk := rank.NewTopK(s.cfg.Pipeline.TopK)
	history := rank.NewHistory(s.cfg.Pipeline.HistoryWindow)

	timer := time.NewTimer(s.cfg.Pipeline.MaxWait)
	defer timer.Stop()

	for {
		remaining := s.cfg.Pipeline.MaxWait - time.Since(start)
		if remaining <= 0 {
			return s.budgetSpent(history, start)
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(remaining)

		var actorUpdated bool

		select {
		case <-ctx.Done():
			return s.failure(ReasonCancelled, start)
		case <-timer.C:
			return s.budgetSpent(history, start)
		case <-s.evtText:
		case <-s.evtActor:
			actorUpdated = true
		}

		// fold a back-to-back second signal into the same cycle
		select {
		case <-s.evtText:
		default:
		}
		select {
		case <-s.evtActor:
			actorUpdated = true
		default:
		}

		if terminal := s.runCycle(ctx, topk, history, actorUpdated, start); terminal != nil {
			return terminal
		}
	}
}

// runCycle performs one decision cycle: search, rank, optional actor boost,
// tracker and history update, progress notification, transition rule. A
// non-nil return is the run's terminal result.
func (s *Session) runCycle(ctx context.Context, topk *rank.TopK, history *rank.History, actorUpdated bool, start time.Time) *Result {
	s.searchMu.Lock()
	defer s.searchMu.Unlock()

	text := s.evidence.TranscriptText()
	if len(text) < s.cfg.Pipeline.MinTranscriptChars {
		return nil
	}

	docs, err := s.deps.Searcher.HybridSearch(ctx, text)
	if err != nil {
		// transient: abort this cycle only, the loop keeps running
		slog.Warn("Hybrid search failed",
			"session", s.ID,
			"error", err)
		return nil
	}

	candidates := s.ranker.Rank(docs)
	if len(candidates) == 0 {
		history.Append(0)
		s.notifyEmpty()
		return nil
	}

	actors := s.evidence.Actors()
	if actorUpdated && len(actors) > 0 {
		candidates = s.deps.Booster.Boost(ctx, candidates, actors)
	}

	for _, cand := range candidates {
		topk.Push(cand.Key, cand.Score)
	}

	top, hasTop := topk.Top()
	if hasTop {
		history.Append(top.Score)
		s.notifyProgress(top)
	}

	verdict := s.engine.Evaluate(top, hasTop, history, time.Since(start))

	switch verdict.State {
	case decision.StateAccept:
		return s.success(ctx, verdict, start)
	case decision.StateReject:
		reason := ReasonRejected
		if verdict.Reason == decision.ReasonTimeout {
			reason = ReasonTimeout
		}
		return s.failure(reason, start)
	default:
		return nil
	}
}

func (s *Session) success(ctx context.Context, verdict decision.Verdict, start time.Time) *Result {
	summary, err := s.deps.Summaries.FetchSummary(ctx, verdict.Key)
	if err != nil {
		// the identification stands even if the enrichment fetch fails
		slog.Warn("Summary fetch failed",
			"session", s.ID,
			"media", verdict.Key,
			"error", err)
	}

	slog.Info("Media identified",
		"session", s.ID,
		"media", verdict.Key,
		"score", verdict.Score,
		"elapsed", time.Since(start))

	return &Result{
		Success:    true,
		SessionID:  s.ID,
		Kind:       verdict.Key.Kind,
		Media:      mediaResultFromSummary(verdict.Key, summary),
		Confidence: verdict.Score,
		Elapsed:    time.Since(start),
	}
}

// budgetSpent applies the end-of-budget decision: a full score window with a
// weak mean is a rejection, anything else is a timeout.
func (s *Session) budgetSpent(history *rank.History, start time.Time) *Result {
	verdict := s.engine.Evaluate(rank.Entry{}, false, history, s.cfg.Pipeline.MaxWait)
	if verdict.State == decision.StateReject && verdict.Reason == decision.ReasonLowConfidence {
		return s.failure(ReasonRejected, start)
	}

	return s.failure(ReasonTimeout, start)
}

func (s *Session) failure(reason Reason, start time.Time) *Result {
	slog.Info("Identification run ended without a match",
		"session", s.ID,
		"reason", reason,
		"elapsed", time.Since(start))

	return &Result{
		SessionID: s.ID,
		Elapsed:   time.Since(start),
		Reason:    reason,
	}
}

// notifyProgress emits a searching update when the leader changed or its
// score moved by at least the notification epsilon.
func (s *Session) notifyProgress(top rank.Entry) {
	if s.onUpdate == nil {
		return
	}

	if top.Key == s.lastNotifyKey && math.Abs(top.Score-s.lastNotifyScore) < s.cfg.Pipeline.NotifyEpsilon {
		return
	}

	s.lastNotifyKey = top.Key
	s.lastNotifyScore = top.Score

	s.onUpdate(Update{
		SessionID: s.ID,
		Status:    StatusSearching,
		Key:       top.Key,
		Score:     top.Score,
	})
}

// notifyEmpty reports the loss of all candidates, once, after progress had
// previously been reported.
func (s *Session) notifyEmpty() {
	if s.onUpdate == nil || s.lastNotifyKey.IsZero() {
		return
	}

	s.lastNotifyKey = media.Key{}
	s.lastNotifyScore = 0

	s.onUpdate(Update{
		SessionID: s.ID,
		Status:    StatusNoCandidates,
	})
}

// shutdownSpeech closes the audio channel as an end-of-stream sentinel, lets
// the pump drain within the grace period, then cancels it outright.
func (s *Session) shutdownSpeech() {
	s.mu.Lock()
	if !s.audioClosed {
		s.audioClosed = true
		close(s.audioCh)
	}
	done := s.speechDone
	cancel := s.speechCancel
	s.mu.Unlock()

	if done == nil {
		return
	}

	select {
	case <-done:
	case <-time.After(s.cfg.Pipeline.CloseGrace):
		slog.Warn("Speech pump did not drain in time, cancelling", "session", s.ID)
		if cancel != nil {
			cancel()
		}
		<-done
	}
}

// reset returns the session to a fresh state so the next run starts clean.
func (s *Session) reset() {
	s.evidence.Reset()

	drain(s.evtText)
	drain(s.evtActor)

	s.mu.Lock()
	s.audioCh = make(chan []byte, s.cfg.Pipeline.AudioQueueSize)
	s.audioClosed = false
	s.pumpWanted = false
	s.runCtx = nil
	s.runCancel = nil
	s.speechCancel = nil
	s.speechDone = nil
	s.mu.Unlock()

	s.lastNotifyKey = media.Key{}
	s.lastNotifyScore = 0

	s.closing.Store(false)
}

func (s *Session) onTranscript(ev speechkit.Event) {
	if s.evidence.AppendTranscript(ev.Text, ev.IsFinal) && ev.IsFinal {
		signal(s.evtText)
	}
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func drain(ch chan struct{}) {
	select {
	case <-ch:
	default:
	}
}
