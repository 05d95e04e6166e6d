package mock

import (
	"sync"
	"time"
)

// Time is a controllable clock. Once pinned it advances with wall time from
// the pinned instant, so consecutive calls stay ordered.
type Time struct {
	mu               sync.Mutex
	currentStartTime time.Time
	updatedAt        time.Time
}

func NewTime() *Time {
	now := time.Now()
	return &Time{
		currentStartTime: now,
		updatedAt:        now,
	}
}

func (t *Time) SetCurrentTime(currentTime time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.currentStartTime = currentTime
	t.updatedAt = time.Now()
}

// Reset returns the clock to wall time.
func (t *Time) Reset() {
	t.SetCurrentTime(time.Now())
}

func (t *Time) Now() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	elapsed := time.Since(t.updatedAt)
	return t.currentStartTime.Add(elapsed).UTC().Truncate(time.Microsecond)
}
