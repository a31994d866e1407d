package utils

import "sync"

// ProgressTracker is a ProgressSink that remembers the latest update so it
// can be polled from another goroutine.
type ProgressTracker struct {
	mu       sync.Mutex
	phase    string
	fraction float64
}

func (t *ProgressTracker) SetProgress(phase string, fraction float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	// Progress is monotonic.
	if fraction < t.fraction {
		return
	}
	t.phase = phase
	t.fraction = fraction
}

func (t *ProgressTracker) Progress() (string, float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phase, t.fraction
}
