package trend

import (
	"sync"

	"github.com/recoverlens/recovery-engine/pkg/types"
)

// DefaultHistoryWindow is the per-subject bounded sample window
const DefaultHistoryWindow = 90

// History holds each subject's bounded metric history. Appends for the same
// subject are serialized; different subjects share no mutable state and run
// fully in parallel. Reads return copies so trend computation can proceed
// concurrently with appends.
type History struct {
	mu       sync.RWMutex
	window   int
	subjects map[string]*subjectHistory
}

type subjectHistory struct {
	mu      sync.Mutex
	samples []*types.HealthMetricSample
}

// NewHistory creates a history with the given window size; window <= 0
// selects the default.
func NewHistory(window int) *History {
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	return &History{
		window:   window,
		subjects: make(map[string]*subjectHistory),
	}
}

// Append adds one sample to the subject's history, evicting the oldest entry
// once the window is exceeded (FIFO)
func (h *History) Append(subjectID string, sample *types.HealthMetricSample) {
	sh := h.subject(subjectID)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.samples = append(sh.samples, sample)
	if len(sh.samples) > h.window {
		// Shift rather than reslice so evicted entries are released
		overflow := len(sh.samples) - h.window
		copy(sh.samples, sh.samples[overflow:])
		sh.samples = sh.samples[:h.window]
	}
}

// Snapshot returns a copy of the subject's history in append order
func (h *History) Snapshot(subjectID string) []*types.HealthMetricSample {
	h.mu.RLock()
	sh, ok := h.subjects[subjectID]
	h.mu.RUnlock()
	if !ok {
		return nil
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()

	out := make([]*types.HealthMetricSample, len(sh.samples))
	copy(out, sh.samples)
	return out
}

// Len returns the number of stored samples for a subject
func (h *History) Len(subjectID string) int {
	h.mu.RLock()
	sh, ok := h.subjects[subjectID]
	h.mu.RUnlock()
	if !ok {
		return 0
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()
	return len(sh.samples)
}

// subject gets or creates the per-subject slot
func (h *History) subject(subjectID string) *subjectHistory {
	h.mu.RLock()
	sh, ok := h.subjects[subjectID]
	h.mu.RUnlock()
	if ok {
		return sh
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	// Double-check after acquiring write lock
	if sh, ok := h.subjects[subjectID]; ok {
		return sh
	}

	sh = &subjectHistory{}
	h.subjects[subjectID] = sh
	return sh
}
