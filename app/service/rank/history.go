package rank

// History is a fixed-capacity FIFO of the most recent top scores, one per
// decision cycle. The low-confidence rejection only consults it once full.
type History struct {
	window int
	scores []float64
}

func NewHistory(window int) *History {
	return &History{
		window: window,
	}
}

// Append records one cycle's top score, evicting the oldest once the window
// is full.
func (h *History) Append(score float64) {
	if len(h.scores) >= h.window {
		h.scores = append(h.scores[1:], score)
		return
	}

	h.scores = append(h.scores, score)
}

func (h *History) Full() bool {
	return len(h.scores) >= h.window
}

// Mean of the recorded scores; zero when empty.
func (h *History) Mean() float64 {
	if len(h.scores) == 0 {
		return 0
	}

	var sum float64
	for _, score := range h.scores {
		sum += score
	}

	return sum / float64(len(h.scores))
}

func (h *History) Reset() {
	h.scores = h.scores[:0]
}
