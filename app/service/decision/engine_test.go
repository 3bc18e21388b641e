package decision

import (
	"moovzmatch/app/service/rank"
	"moovzmatch/app/util/media"
	"testing"
	"time"
)

func historyOf(window int, scores ...float64) *rank.History {
	h := rank.NewHistory(window)
	for _, score := range scores {
		h.Append(score)
	}
	return h
}

func TestEvaluate(t *testing.T) {
	key := media.Key{Kind: media.KindMovie, ID: "abc"}
	e := NewEngine(0.59, 30*time.Second)

	tests := []struct {
		name       string
		top        rank.Entry
		hasTop     bool
		history    *rank.History
		elapsed    time.Duration
		wantState  State
		wantReason Reason
	}{
		{
			name:      "accept at threshold",
			top:       rank.Entry{Key: key, Score: 0.59},
			hasTop:    true,
			history:   historyOf(3, 0.59),
			elapsed:   time.Second,
			wantState: StateAccept,
		},
		{
			name:      "accept above threshold",
			top:       rank.Entry{Key: key, Score: 0.8},
			hasTop:    true,
			history:   historyOf(3, 0.8),
			elapsed:   time.Second,
			wantState: StateAccept,
		},
		{
			name:      "accept wins even past the time budget",
			top:       rank.Entry{Key: key, Score: 0.9},
			hasTop:    true,
			history:   historyOf(3, 0.1, 0.1, 0.9),
			elapsed:   31 * time.Second,
			wantState: StateAccept,
		},
		{
			name:      "continue below threshold within budget",
			top:       rank.Entry{Key: key, Score: 0.5},
			hasTop:    true,
			history:   historyOf(3, 0.5),
			elapsed:   time.Second,
			wantState: StateContinue,
		},
		{
			name:       "low confidence after full window and spent budget",
			top:        rank.Entry{Key: key, Score: 0.2},
			hasTop:     true,
			history:    historyOf(3, 0.2, 0.2, 0.2),
			elapsed:    31 * time.Second,
			wantState:  StateReject,
			wantReason: ReasonLowConfidence,
		},
		{
			name:       "timeout when window never filled",
			top:        rank.Entry{Key: key, Score: 0.2},
			hasTop:     true,
			history:    historyOf(3, 0.2),
			elapsed:    31 * time.Second,
			wantState:  StateReject,
			wantReason: ReasonTimeout,
		},
		{
			name:       "timeout with no candidates at all",
			hasTop:     false,
			history:    historyOf(3),
			elapsed:    31 * time.Second,
			wantState:  StateReject,
			wantReason: ReasonTimeout,
		},
		{
			name:      "full window with decent mean keeps going",
			top:       rank.Entry{Key: key, Score: 0.58},
			hasTop:    true,
			history:   historyOf(3, 0.58, 0.6, 0.62),
			elapsed:   31 * time.Second,
			wantState: StateContinue,
		},
		{
			name:      "no candidates within budget keeps going",
			hasTop:    false,
			history:   historyOf(3, 0),
			elapsed:   time.Second,
			wantState: StateContinue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := e.Evaluate(tt.top, tt.hasTop, tt.history, tt.elapsed)

			if verdict.State != tt.wantState {
				t.Fatalf("State = %v, want %v", verdict.State, tt.wantState)
			}
			if verdict.State == StateReject && verdict.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", verdict.Reason, tt.wantReason)
			}
			if verdict.State == StateAccept {
				if verdict.Key != tt.top.Key || verdict.Score != tt.top.Score {
					t.Errorf("accept carries %+v, want %+v", verdict, tt.top)
				}
			}
		})
	}
}
