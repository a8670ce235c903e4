package stream

import (
	"sync"
	"time"

	rxerrors "github.com/kbukum/rxkit/errors"
	"github.com/kbukum/rxkit/scheduler"
)

// Debounce emits a value only after d has passed on s without another
// value arriving. A value still waiting when p completes is dropped.
func Debounce[T any](p Publisher[T], d time.Duration, s scheduler.Scheduler) Publisher[T] {
	return lift(p, func(out *outlet[T], up *upstream) handler[T] {
		var (
			mu      sync.Mutex
			gen     int
			pending scheduler.Cancellable
		)
		stop := func() {
			mu.Lock()
			gen++
			if pending != nil {
				pending.Cancel()
				pending = nil
			}
			mu.Unlock()
		}
		return handler[T]{
			request: up.requestOnce(),
			next: func(v T) {
				mu.Lock()
				defer mu.Unlock()
				gen++
				g := gen
				if pending != nil {
					pending.Cancel()
				}
				pending = s.ScheduleAfter(d, func() {
					mu.Lock()
					if g != gen {
						mu.Unlock()
						return
					}
					pending = nil
					mu.Unlock()
					out.Emit(v)
				})
			},
			done: func(c Completion) {
				stop()
				out.Complete(c)
			},
			cancel: stop,
		}
	})
}

// Throttle emits at most one value per interval. The first value passes
// at once and opens a window; when the window closes it emits the latest
// value seen during it if latest is true, or the first one otherwise.
// A value held when p finishes is emitted before the completion.
func Throttle[T any](p Publisher[T], interval time.Duration, s scheduler.Scheduler, latest bool) Publisher[T] {
	return lift(p, func(out *outlet[T], up *upstream) handler[T] {
		var (
			mu     sync.Mutex
			open   bool
			held   T
			hasVal bool
			timer  scheduler.Cancellable
			closed bool
		)
		var closeWindow func()
		closeWindow = func() {
			mu.Lock()
			if closed {
				mu.Unlock()
				return
			}
			if !hasVal {
				open = false
				timer = nil
				mu.Unlock()
				return
			}
			v := held
			var zero T
			held, hasVal = zero, false
			timer = s.ScheduleAfter(interval, closeWindow)
			mu.Unlock()
			out.Emit(v)
		}
		stop := func() (T, bool) {
			mu.Lock()
			defer mu.Unlock()
			closed = true
			if timer != nil {
				timer.Cancel()
			}
			return held, hasVal
		}
		return handler[T]{
			request: up.requestOnce(),
			next: func(v T) {
				mu.Lock()
				if !open {
					open = true
					timer = s.ScheduleAfter(interval, closeWindow)
					mu.Unlock()
					out.Emit(v)
					return
				}
				if latest || !hasVal {
					held, hasVal = v, true
				}
				mu.Unlock()
			},
			done: func(c Completion) {
				v, ok := stop()
				if ok && c.IsFinished() {
					out.Emit(v)
				}
				out.Complete(c)
			},
			cancel: func() { stop() },
		}
	})
}

// CollectByTime emits the values gathered during each window on s.
// Empty windows emit nothing. The partial window is emitted when p finishes.
func CollectByTime[T any](p Publisher[T], window time.Duration, s scheduler.Scheduler) Publisher[[]T] {
	return CollectByTimeOrCount(p, window, 0, s)
}

// CollectByTimeOrCount is CollectByTime that also emits as soon as count
// values are gathered. A count of zero or less means no count limit.
func CollectByTimeOrCount[T any](p Publisher[T], window time.Duration, count int, s scheduler.Scheduler) Publisher[[]T] {
	return lift(p, func(out *outlet[[]T], up *upstream) handler[T] {
		var (
			mu  sync.Mutex
			buf []T
		)
		take := func() []T {
			mu.Lock()
			defer mu.Unlock()
			b := buf
			buf = nil
			return b
		}
		ticker := s.ScheduleRepeating(window, func() {
			if b := take(); len(b) > 0 {
				out.push(b)
			}
		})
		return handler[T]{
			request: up.requestOnce(),
			next: func(v T) {
				mu.Lock()
				buf = append(buf, v)
				var full []T
				if count > 0 && len(buf) >= count {
					full = buf
					buf = nil
				}
				mu.Unlock()
				if full != nil {
					out.push(full)
				}
			},
			done: func(c Completion) {
				ticker.Cancel()
				if b := take(); len(b) > 0 && c.IsFinished() {
					out.push(b)
				}
				out.Complete(c)
			},
			cancel: ticker.Cancel,
		}
	})
}

// Timeout ends the stream when d passes on s without a value. The timer
// starts at subscription and restarts with every value. onTimeout supplies
// the completion to send; when nil the stream fails with a TIMEOUT error.
func Timeout[T any](p Publisher[T], d time.Duration, s scheduler.Scheduler, onTimeout func() Completion) Publisher[T] {
	return lift(p, func(out *outlet[T], up *upstream) handler[T] {
		var (
			mu    sync.Mutex
			gen   int
			timer scheduler.Cancellable
		)
		var arm func()
		arm = func() {
			mu.Lock()
			defer mu.Unlock()
			gen++
			g := gen
			if timer != nil {
				timer.Cancel()
			}
			timer = s.ScheduleAfter(d, func() {
				mu.Lock()
				expired := g == gen
				mu.Unlock()
				if !expired {
					return
				}
				up.cancel()
				c := Failed(rxerrors.Timeout("stream"))
				if onTimeout != nil {
					c = onTimeout()
				}
				out.Complete(c)
			})
		}
		stop := func() {
			mu.Lock()
			gen++
			if timer != nil {
				timer.Cancel()
			}
			mu.Unlock()
		}
		arm()
		return handler[T]{
			next: func(v T) {
				arm()
				out.Emit(v)
			},
			done: func(c Completion) {
				stop()
				out.Complete(c)
			},
			cancel: stop,
		}
	})
}

// Delay shifts every value and the finished completion later by d on s,
// keeping their order. A failure is delivered at once.
func Delay[T any](p Publisher[T], d time.Duration, s scheduler.Scheduler) Publisher[T] {
	return lift(p, func(out *outlet[T], _ *upstream) handler[T] {
		dl := &delayLine[T]{out: out, delay: d, sched: s}
		return handler[T]{
			next: func(v T) { dl.enqueue(delayEntry[T]{v: v}) },
			done: func(c Completion) {
				if c.Err != nil {
					dl.stop()
					out.fail(c.Err)
					return
				}
				dl.enqueue(delayEntry[T]{c: &c})
			},
			cancel: dl.stop,
		}
	})
}

type delayEntry[T any] struct {
	v   T
	c   *Completion
	due time.Time
}

// delayLine releases entries in order once their due time has passed.
// At most one timer is armed, for the head of the queue.
type delayLine[T any] struct {
	out   *outlet[T]
	delay time.Duration
	sched scheduler.Scheduler

	mu      sync.Mutex
	queue   []delayEntry[T]
	armed   bool
	timer   scheduler.Cancellable
	stopped bool
}

func (dl *delayLine[T]) enqueue(e delayEntry[T]) {
	dl.mu.Lock()
	e.due = dl.sched.Now().Add(dl.delay)
	dl.queue = append(dl.queue, e)
	dl.mu.Unlock()
	dl.arm()
}

func (dl *delayLine[T]) arm() {
	dl.mu.Lock()
	if dl.stopped || dl.armed || len(dl.queue) == 0 {
		dl.mu.Unlock()
		return
	}
	dl.armed = true
	wait := dl.queue[0].due.Sub(dl.sched.Now())
	dl.mu.Unlock()
	if wait < 0 {
		wait = 0
	}

	t := dl.sched.ScheduleAfter(wait, dl.fire)
	dl.mu.Lock()
	dl.timer = t
	dl.mu.Unlock()
}

func (dl *delayLine[T]) fire() {
	dl.mu.Lock()
	dl.armed = false
	now := dl.sched.Now()
	var due []delayEntry[T]
	for len(dl.queue) > 0 && !dl.queue[0].due.After(now) {
		due = append(due, dl.queue[0])
		dl.queue = dl.queue[1:]
	}
	dl.mu.Unlock()

	for _, e := range due {
		if e.c != nil {
			dl.out.Complete(*e.c)
			continue
		}
		dl.out.push(e.v)
	}
	dl.arm()
}

func (dl *delayLine[T]) stop() {
	dl.mu.Lock()
	dl.stopped = true
	dl.queue = nil
	t := dl.timer
	dl.mu.Unlock()
	if t != nil {
		t.Cancel()
	}
}

// MeasureInterval emits the time elapsed on s between consecutive values,
// the first measured from subscription.
func MeasureInterval[T any](p Publisher[T], s scheduler.Scheduler) Publisher[time.Duration] {
	return lift(p, func(out *outlet[time.Duration], _ *upstream) handler[T] {
		last := s.Now()
		return handler[T]{next: func(T) {
			now := s.Now()
			out.Emit(now.Sub(last))
			last = now
		}}
	})
}

// ReceiveOn delivers values and the completion to the downstream from
// actions run by s, in order.
func ReceiveOn[T any](p Publisher[T], s scheduler.Scheduler) Publisher[T] {
	return lift(p, func(out *outlet[T], _ *upstream) handler[T] {
		return handler[T]{
			next: func(v T) { s.Schedule(func() { out.push(v) }) },
			done: func(c Completion) { s.Schedule(func() { out.Complete(c) }) },
		}
	})
}
