package trend

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/recoverlens/recovery-engine/pkg/types"
)

func sampleWithPain(pain float64, ts time.Time) *types.HealthMetricSample {
	return &types.HealthMetricSample{
		SubjectID: "subject-1",
		Timestamp: ts,
		Pain:      &pain,
	}
}

func TestHistory_AppendAndSnapshot(t *testing.T) {
	h := NewHistory(10)
	now := time.Now()

	h.Append("subject-1", sampleWithPain(5, now))
	h.Append("subject-1", sampleWithPain(4, now.Add(time.Hour)))

	samples := h.Snapshot("subject-1")
	assert.Len(t, samples, 2)
	assert.InDelta(t, 5, *samples[0].Pain, 0.001)
	assert.InDelta(t, 4, *samples[1].Pain, 0.001)
}

func TestHistory_FIFOEviction(t *testing.T) {
	h := NewHistory(5)
	now := time.Now()

	for i := 0; i < 7; i++ {
		h.Append("subject-1", sampleWithPain(float64(i), now.Add(time.Duration(i)*time.Hour)))
	}

	samples := h.Snapshot("subject-1")
	assert.Len(t, samples, 5)
	assert.InDelta(t, 2, *samples[0].Pain, 0.001)
	assert.InDelta(t, 6, *samples[4].Pain, 0.001)
}

func TestHistory_UnknownSubject(t *testing.T) {
	h := NewHistory(5)

	assert.Nil(t, h.Snapshot("nobody"))
	assert.Equal(t, 0, h.Len("nobody"))
}

func TestHistory_SubjectsAreIsolated(t *testing.T) {
	h := NewHistory(5)
	now := time.Now()

	h.Append("subject-1", sampleWithPain(5, now))
	h.Append("subject-2", sampleWithPain(7, now))

	assert.Equal(t, 1, h.Len("subject-1"))
	assert.Equal(t, 1, h.Len("subject-2"))
	assert.InDelta(t, 7, *h.Snapshot("subject-2")[0].Pain, 0.001)
}

func TestHistory_ConcurrentAppends(t *testing.T) {
	h := NewHistory(1000)
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h.Append("subject-1", sampleWithPain(float64(i%10), now))
			h.Append("subject-2", sampleWithPain(float64(i%10), now))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, h.Len("subject-1"))
	assert.Equal(t, 50, h.Len("subject-2"))
}

func TestHistory_SnapshotIsACopy(t *testing.T) {
	h := NewHistory(5)
	now := time.Now()

	h.Append("subject-1", sampleWithPain(5, now))
	snapshot := h.Snapshot("subject-1")
	snapshot[0] = sampleWithPain(9, now)

	assert.InDelta(t, 5, *h.Snapshot("subject-1")[0].Pain, 0.001)
}
