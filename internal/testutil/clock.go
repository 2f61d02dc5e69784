package testutil

import (
	"sync"
	"time"
)

// DefaultEpoch is where a new DeterministicClock starts.
var DefaultEpoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// DeterministicClock hands out evenly spaced timestamps for node audit
// fields, so fixtures are reproducible across runs.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu    sync.Mutex
	epoch time.Time
	step  time.Duration
	seq   int64
}

// NewDeterministicClock creates a clock starting at DefaultEpoch that
// advances one day per tick.
//
// The first call to Next() returns DefaultEpoch plus one day.
func NewDeterministicClock() *DeterministicClock {
	return NewDeterministicClockAt(DefaultEpoch, 24*time.Hour)
}

// NewDeterministicClockAt creates a clock with a custom epoch and step.
func NewDeterministicClockAt(epoch time.Time, step time.Duration) *DeterministicClock {
	return &DeterministicClock{epoch: epoch.UTC(), step: step}
}

// Next advances the clock and returns the new time.
func (c *DeterministicClock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.at(c.seq)
}

// Current returns the current time without advancing.
func (c *DeterministicClock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at(c.seq)
}

// Reset moves the clock back to its epoch.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}

func (c *DeterministicClock) at(seq int64) time.Time {
	return c.epoch.Add(time.Duration(seq) * c.step)
}
