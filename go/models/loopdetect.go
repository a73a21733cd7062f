package models

// LoopDetect notices when a stream of values starts repeating with a period of at
// most Max, so repeated runs can be collapsed in output.
type LoopDetect struct {
	Max int

	history []uint64
	loop    []uint64
	pos     int
	skipped int
}

func NewLoopDetect(max int) *LoopDetect {
	return &LoopDetect{Max: max}
}

// Update feeds v and reports whether it continues a known loop and can be skipped.
// When v breaks a loop, skipped is how many values were left out and period is
// the loop length.
func (l *LoopDetect) Update(v uint64) (skip bool, skipped, period int) {
	if l.loop != nil {
		if v == l.loop[l.pos] {
			l.pos = (l.pos + 1) % len(l.loop)
			l.skipped++
			return true, 0, 0
		}
		skipped, period = l.Flush()
	}
	l.history = append(l.history, v)
	if len(l.history) > l.Max*2 {
		l.history = l.history[len(l.history)-l.Max*2:]
	}
	if n := l.detect(); n > 0 {
		l.loop = append([]uint64(nil), l.history[len(l.history)-n:]...)
		l.pos = 0
		l.history = l.history[:0]
	}
	return false, skipped, period
}

// Flush ends the current loop, returning what Update would report on a mismatch.
func (l *LoopDetect) Flush() (skipped, period int) {
	skipped, period = l.skipped, len(l.loop)
	l.loop, l.pos, l.skipped = nil, 0, 0
	return skipped, period
}

// detect returns the shortest period n where the last n values repeat the n before them.
func (l *LoopDetect) detect() int {
	h := l.history
	for n := 1; n <= l.Max && n*2 <= len(h); n++ {
		tail, prev := h[len(h)-n:], h[len(h)-2*n:len(h)-n]
		match := true
		for i := range tail {
			if tail[i] != prev[i] {
				match = false
				break
			}
		}
		if match {
			return n
		}
	}
	return 0
}
