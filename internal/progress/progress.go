// Package progress produces an estimated completion signal for scans whose
// engines report no progress of their own.
package progress

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

const (
	// ceiling is the highest percentage reached while the scan is outstanding.
	ceiling = 95.0

	minSpeed = 1200.0
	maxSpeed = 3000.0
)

// State is a read-only snapshot of a Signal.
type State struct {
	Percent float64       `json:"percent"`
	Elapsed time.Duration `json:"elapsed"`
	Scanned int64         `json:"scanned"`
	Done    bool          `json:"done"`
}

// Signal is an estimated progress value shared between the scan producer and
// renderers. Percent never decreases and stays within [0, 100].
type Signal struct {
	mu       sync.Mutex
	percent  float64
	finished bool
	start    time.Time
	speed    float64
	rng      *rand.Rand
	now      func() time.Time
}

// Option configures a Signal.
type Option func(*Signal)

// WithRand sets the random source.
func WithRand(r *rand.Rand) Option {
	return func(s *Signal) { s.rng = r }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Signal) { s.now = now }
}

// New creates a signal starting at 0%.
func New(opts ...Option) *Signal {
	s := &Signal{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
	}
	s.start = s.now()
	s.speed = uniform(s.rng, minSpeed, maxSpeed)
	return s
}

// Step advances the estimate by one tick.
//
// While the scan is outstanding the increment shrinks as the value approaches
// the ceiling. After Finish the value jumps towards 100 in large steps.
func (s *Signal) Step() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished {
		s.percent = math.Min(100, s.percent+uniform(s.rng, 12, 30))
		return
	}
	if s.percent >= ceiling {
		return
	}
	s.percent = math.Min(ceiling, s.percent+uniform(s.rng, 0.5, 3.5)*(1-s.percent/100))
}

// Finish marks the producer as complete.
func (s *Signal) Finish() {
	s.mu.Lock()
	s.finished = true
	s.mu.Unlock()
}

// Snapshot returns the current state.
func (s *Signal) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	elapsed := s.now().Sub(s.start)
	secs := math.Max(1, elapsed.Seconds())

	return State{
		Percent: s.percent,
		Elapsed: elapsed,
		Scanned: int64(s.percent / 100 * s.speed * secs),
		Done:    s.finished && s.percent >= 100,
	}
}

// Drive steps sig every interval until it completes after Finish, or until
// ctx is cancelled.
func Drive(ctx context.Context, sig *Signal, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sig.Step()
			if sig.Snapshot().Done {
				return
			}
		}
	}
}

func uniform(r *rand.Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}
