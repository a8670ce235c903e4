package scheduler

import (
	"sync"
	"time"

	"github.com/zoobzio/clockz"
)

// Cancellable stops a scheduled action. Cancel is idempotent.
type Cancellable interface {
	Cancel()
}

// Scheduler decides when and where timed stream work runs.
type Scheduler interface {
	// Now returns the scheduler's notion of the current time.
	Now() time.Time
	// Schedule runs action as soon as possible.
	Schedule(action func())
	// ScheduleAfter runs action once after delay.
	ScheduleAfter(delay time.Duration, action func()) Cancellable
	// ScheduleRepeating runs action every interval until cancelled.
	ScheduleRepeating(interval time.Duration, action func()) Cancellable
}

// Queue is a serial scheduler: actions run one at a time, in submission
// order, on a worker goroutine that exists only while work is pending.
type Queue struct {
	clock   clockz.Clock
	mu      sync.Mutex
	pending []func()
	running bool
}

// New creates a serial Queue driven by clock.
// A nil clock means clockz.RealClock.
func New(clock clockz.Clock) *Queue {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &Queue{clock: clock}
}

// Default returns a Queue on the real clock.
func Default() *Queue {
	return New(clockz.RealClock)
}

// Now returns the clock's current time.
func (q *Queue) Now() time.Time {
	return q.clock.Now()
}

// Schedule enqueues action.
func (q *Queue) Schedule(action func()) {
	q.mu.Lock()
	q.pending = append(q.pending, action)
	if q.running {
		q.mu.Unlock()
		return
	}
	q.running = true
	q.mu.Unlock()
	go q.run()
}

func (q *Queue) run() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		action := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()
		action()
	}
}

// ScheduleAfter enqueues action once delay has elapsed on the clock.
func (q *Queue) ScheduleAfter(delay time.Duration, action func()) Cancellable {
	return after(q.clock, delay, q.Schedule, action)
}

// ScheduleRepeating enqueues action every interval until cancelled.
func (q *Queue) ScheduleRepeating(interval time.Duration, action func()) Cancellable {
	return every(q.clock, interval, q.Schedule, action)
}

// Len returns the number of actions waiting to run.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// after hands action to dispatch once delay has elapsed. The timer channel
// is read on its own goroutine, so the clock is free again by the time
// action runs and may be used from it.
func after(clock clockz.Clock, delay time.Duration, dispatch func(func()), action func()) Cancellable {
	if delay <= 0 {
		t := newToken(nil)
		go dispatch(t.guard(action))
		return t
	}
	timer := clock.NewTimer(delay)
	t := newToken(func() { timer.Stop() })
	go func() {
		select {
		case <-timer.C():
			dispatch(t.guard(action))
		case <-t.done:
		}
	}()
	return t
}

// every hands action to dispatch on each tick of a clock ticker. Ticks
// that arrive while the previous one is still being read are dropped by
// the ticker.
func every(clock clockz.Clock, interval time.Duration, dispatch func(func()), action func()) Cancellable {
	ticker := clock.NewTicker(interval)
	t := newToken(ticker.Stop)
	run := t.guard(action)
	go func() {
		for {
			select {
			case <-ticker.C():
				dispatch(run)
			case <-t.done:
				return
			}
		}
	}()
	return t
}

type token struct {
	once sync.Once
	done chan struct{}
	stop func()
}

func newToken(stop func()) *token {
	return &token{done: make(chan struct{}), stop: stop}
}

func (t *token) cancelled() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// guard wraps action so it does nothing once t is cancelled.
func (t *token) guard(action func()) func() {
	return func() {
		if !t.cancelled() {
			action()
		}
	}
}

// Cancel stops the pending timer. Calling it more than once has no effect.
func (t *token) Cancel() {
	t.once.Do(func() {
		close(t.done)
		if t.stop != nil {
			t.stop()
		}
	})
}
