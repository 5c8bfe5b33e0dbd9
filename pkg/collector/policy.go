package collector

import (
	"math/rand/v2"
	"sync"
	"time"
)

// CycleState is what a policy sees after a cycle's extraction step
type CycleState struct {
	Cycle     int
	Collected int
	Stagnant  int
	Max       int
}

// DelayPolicy decides how long to pause after a scroll
type DelayPolicy func(CycleState) time.Duration

// ScrollPolicy decides the wheel delta of a scroll, in pixels
type ScrollPolicy func(CycleState) float64

// NoDelay never pauses
func NoDelay(CycleState) time.Duration {
	return 0
}

// FixedScroll always scrolls by delta
func FixedScroll(delta float64) ScrollPolicy {
	return func(CycleState) float64 { return delta }
}

// Jitter is a lockable random source shared by the pacing policies
type Jitter struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewJitter returns a seeded source; equal seeds give equal sequences
func NewJitter(seed uint64) *Jitter {
	return &Jitter{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// between returns a uniform value in [min, max]
func (j *Jitter) between(min, max int64) int64 {
	if max <= min {
		return min
	}
	if j == nil {
		return min + rand.Int64N(max-min+1)
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return min + j.rng.Int64N(max-min+1)
}

// RandomDelay pauses for a uniform duration in [min, max]
func RandomDelay(min, max time.Duration, j *Jitter) DelayPolicy {
	return func(CycleState) time.Duration {
		return time.Duration(j.between(int64(min), int64(max)))
	}
}

// RandomScroll scrolls by a uniform pixel count in [min, max]
func RandomScroll(min, max int, j *Jitter) ScrollPolicy {
	return func(CycleState) float64 {
		return float64(j.between(int64(min), int64(max)))
	}
}
