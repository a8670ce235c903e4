package scheduler

import (
	"time"

	"github.com/zoobzio/clockz"
)

// Immediate runs scheduled actions inline on the calling goroutine and
// timed actions on the goroutine that waits for their timer.
type Immediate struct {
	clock clockz.Clock
}

// NewImmediate creates an Immediate scheduler. A nil clock means clockz.RealClock.
func NewImmediate(clock clockz.Clock) *Immediate {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &Immediate{clock: clock}
}

// Now returns the clock's current time.
func (s *Immediate) Now() time.Time { return s.clock.Now() }

// Schedule runs action before returning.
func (s *Immediate) Schedule(action func()) { action() }

// ScheduleAfter runs action once delay has elapsed.
func (s *Immediate) ScheduleAfter(delay time.Duration, action func()) Cancellable {
	return after(s.clock, delay, inline, action)
}

// ScheduleRepeating runs action every interval until cancelled. A tick
// runs to completion before the next one is read.
func (s *Immediate) ScheduleRepeating(interval time.Duration, action func()) Cancellable {
	return every(s.clock, interval, inline, action)
}

func inline(action func()) { action() }
