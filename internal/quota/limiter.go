package quota

import (
	"sync"
	"time"
)

// Defaults match the Groq free-tier allowance: 7200 audio-seconds per
// trailing hour.
const (
	DefaultWindow   = time.Hour
	DefaultCapacity = 7200
)

type sample struct {
	at      time.Time
	seconds int
}

// Limiter tracks audio-seconds consumed in a trailing window. Eviction is
// lazy: stale samples are dropped on every read and write, there is no
// background sweep.
//
// Check-then-commit is not a reservation. Two concurrent requests can both
// pass CanAccept before either records usage, so the committed total is a
// best-effort bound, not a hard guarantee.
type Limiter struct {
	mu       sync.Mutex
	samples  []sample
	window   time.Duration
	capacity int
	now      func() time.Time
}

// NewLimiter creates a limiter with the given window and capacity in
// seconds. The now func drives eviction; pass time.Now in production.
func NewLimiter(window time.Duration, capacity int, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{
		window:   window,
		capacity: capacity,
		now:      now,
	}
}

// Record appends a usage sample at the current time. Called only after a
// fully successful pipeline run.
func (l *Limiter) Record(seconds int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.samples = append(l.samples, sample{at: l.now(), seconds: seconds})
	l.evict()
}

// Used returns the audio-seconds consumed within the trailing window.
func (l *Limiter) Used() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evict()
	sum := 0
	for _, s := range l.samples {
		sum += s.seconds
	}
	return sum
}

// Remaining returns capacity minus current usage. May be negative if usage
// exceeded capacity; the arithmetic is deliberately unclamped.
func (l *Limiter) Remaining() int {
	return l.capacity - l.Used()
}

// CanAccept reports whether estimated seconds fit in the remaining
// capacity. It does not reserve anything.
func (l *Limiter) CanAccept(estimated int) bool {
	return l.Remaining() >= estimated
}

// Capacity returns the configured capacity in seconds.
func (l *Limiter) Capacity() int { return l.capacity }

// Snapshot is a read-only view of the limiter for the quota endpoint.
type Snapshot struct {
	RemainingSeconds int `json:"remainingSeconds"`
	RemainingMinutes int `json:"remainingMinutes"`
	TotalMinutes     int `json:"totalMinutes"`
}

// Snapshot returns the current remaining budget.
func (l *Limiter) Snapshot() Snapshot {
	remaining := l.Remaining()
	return Snapshot{
		RemainingSeconds: remaining,
		RemainingMinutes: remaining / 60,
		TotalMinutes:     l.capacity / 60,
	}
}

// evict drops samples older than the window. Caller holds mu.
func (l *Limiter) evict() {
	cutoff := l.now().Add(-l.window)
	i := 0
	for i < len(l.samples) && !l.samples[i].at.After(cutoff) {
		i++
	}
	if i > 0 {
		l.samples = append(l.samples[:0], l.samples[i:]...)
	}
}
