package rank

import (
	"math"
	"testing"
)

func TestHistoryWindow(t *testing.T) {
	h := NewHistory(3)

	if h.Full() {
		t.Error("fresh history should not be full")
	}

	h.Append(0.1)
	h.Append(0.2)
	if h.Full() {
		t.Error("history below the window should not be full")
	}

	h.Append(0.3)
	if !h.Full() {
		t.Error("history at the window should be full")
	}

	// eviction: 0.1 leaves, mean covers {0.2, 0.3, 0.9}
	h.Append(0.9)
	if !h.Full() {
		t.Error("history should stay full after eviction")
	}
	if got, want := h.Mean(), (0.2+0.3+0.9)/3; math.Abs(got-want) > 1e-9 {
		t.Errorf("Mean() = %v, want %v", got, want)
	}
}

func TestHistoryMeanEmpty(t *testing.T) {
	h := NewHistory(3)

	if got := h.Mean(); got != 0 {
		t.Errorf("Mean() of empty history = %v, want 0", got)
	}
}

func TestHistoryReset(t *testing.T) {
	h := NewHistory(2)
	h.Append(0.5)
	h.Append(0.6)

	h.Reset()

	if h.Full() {
		t.Error("history should not be full after reset")
	}
	if got := h.Mean(); got != 0 {
		t.Errorf("Mean() after reset = %v, want 0", got)
	}
}
