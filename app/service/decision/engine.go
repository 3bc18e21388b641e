// Package decision holds the accept/reject/continue policy applied once per
// decision cycle.
package decision

import (
	"moovzmatch/app/service/rank"
	"moovzmatch/app/util/media"
	"time"
)

type State int

const (
	StateContinue State = iota
	StateAccept
	StateReject
)

type Reason string

const (
	ReasonLowConfidence Reason = "low_confidence"
	ReasonTimeout       Reason = "timeout"
)

// Verdict is produced fresh each cycle. Key and Score are set for accepts,
// Reason for rejects.
type Verdict struct {
	State  State
	Key    media.Key
	Score  float64
	Reason Reason
}

// Engine evaluates the transition rule. It holds only the thresholds; all
// per-session state (top score, history, elapsed time) is passed in.
type Engine struct {
	acceptThreshold float64
	maxWait         time.Duration
}

func NewEngine(acceptThreshold float64, maxWait time.Duration) *Engine {
	return &Engine{
		acceptThreshold: acceptThreshold,
		maxWait:         maxWait,
	}
}

// Evaluate applies the transition rule:
//
//  1. a top score at or above the accept threshold wins immediately,
//     regardless of elapsed time;
//  2. once the time budget is spent and the score window is full, a window
//     mean below the threshold rejects with low confidence;
//  3. a spent budget with a window that never filled rejects with timeout;
//  4. otherwise keep waiting.
func (e *Engine) Evaluate(top rank.Entry, hasTop bool, history *rank.History, elapsed time.Duration) Verdict {
	if hasTop && top.Score >= e.acceptThreshold {
		return Verdict{
			State: StateAccept,
			Key:   top.Key,
			Score: top.Score,
		}
	}

	if elapsed >= e.maxWait {
		if history.Full() {
			if history.Mean() < e.acceptThreshold {
				return Verdict{
					State:  StateReject,
					Reason: ReasonLowConfidence,
				}
			}
		} else {
			return Verdict{
				State:  StateReject,
				Reason: ReasonTimeout,
			}
		}
	}

	return Verdict{State: StateContinue}
}
