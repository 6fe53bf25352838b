// Package clock provides Clock implementations.
package clock

import (
	"sync"
	"time"

	"github.com/artpar/blogapi/ports"
)

// Real returns the wall clock in UTC.
type Real struct{}

func (Real) Now() time.Time {
	return time.Now().UTC()
}

var _ ports.Clock = Real{}

// Stepping starts at a fixed instant and moves forward by step on every
// call, so fixture rows get distinct, reproducible timestamps.
type Stepping struct {
	mu   sync.Mutex
	next time.Time
	step time.Duration
}

// NewStepping creates a stepping clock. A zero step yields a frozen clock.
func NewStepping(start time.Time, step time.Duration) *Stepping {
	return &Stepping{next: start.UTC(), step: step}
}

// Now returns the current instant and advances the clock.
func (s *Stepping) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.next
	s.next = s.next.Add(s.step)
	return now
}

var _ ports.Clock = (*Stepping)(nil)
