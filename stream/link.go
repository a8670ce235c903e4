package stream

import (
	"sync"

	rxerrors "github.com/kbukum/rxkit/errors"
	"github.com/kbukum/rxkit/logger"
)

// upstream is a stage's handle on the subscription it receives from its
// source. Demand requested before the subscription arrives is held and
// forwarded on arrival; a cancel that arrives first cancels it on arrival.
// It also checks that the source never exceeds the demand it was given.
type upstream struct {
	mu        sync.Mutex
	sub       Subscription
	pending   Demand
	credit    Demand
	cancelled bool
	completed bool
}

func (u *upstream) set(s Subscription) {
	u.mu.Lock()
	if u.cancelled || u.sub != nil {
		u.mu.Unlock()
		s.Cancel()
		return
	}
	u.sub = s
	d := u.pending
	u.pending = None
	u.mu.Unlock()
	if !d.IsNone() {
		s.Request(d)
	}
}

func (u *upstream) request(d Demand) {
	if d.IsNone() {
		return
	}
	u.mu.Lock()
	if u.cancelled || u.completed {
		u.mu.Unlock()
		return
	}
	u.credit = u.credit.Add(d)
	s := u.sub
	if s == nil {
		u.pending = u.pending.Add(d)
		u.mu.Unlock()
		return
	}
	u.mu.Unlock()
	s.Request(d)
}

// received accounts for one delivered value. It reports false when the
// value arrived after cancellation and should be ignored.
func (u *upstream) received() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.cancelled || u.completed {
		return false
	}
	if u.credit.IsNone() {
		logger.Get(logger.ComponentStream).Error("protocol violation",
			logger.ErrorFields("receive", rxerrors.ProtocolViolation("value delivered without outstanding demand")))
	}
	u.credit = u.credit.consume()
	return true
}

// finish records the source's completion. It reports false when the link
// was already cancelled.
func (u *upstream) finish() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.cancelled {
		return false
	}
	if u.completed {
		err := rxerrors.ProtocolViolation("completion delivered twice")
		logger.Get(logger.ComponentStream).Error("protocol violation", logger.ErrorFields("complete", err))
		panic(err)
	}
	u.completed = true
	u.sub = nil
	return true
}

func (u *upstream) cancel() {
	u.mu.Lock()
	if u.cancelled || u.completed {
		u.mu.Unlock()
		return
	}
	u.cancelled = true
	s := u.sub
	u.sub = nil
	u.mu.Unlock()
	if s != nil {
		s.Cancel()
	}
}

// requestOnce returns a request hook that asks the source for everything
// the first time the downstream shows any demand.
func (u *upstream) requestOnce() func(Demand) {
	var once sync.Once
	return func(Demand) {
		once.Do(func() { u.request(Unlimited) })
	}
}

// inlet is the Subscriber a stage hands to its source.
type inlet[T any] struct {
	up   *upstream
	next func(v T)
	done func(c Completion)
}

func (in *inlet[T]) OnSubscribe(s Subscription) { in.up.set(s) }

func (in *inlet[T]) OnValue(v T) Demand {
	if in.up.received() {
		in.next(v)
	}
	return None
}

func (in *inlet[T]) OnCompletion(c Completion) {
	if in.up.finish() {
		in.done(c)
	}
}

// handler holds a stage's reactions to its source and its downstream.
type handler[I any] struct {
	next    func(v I)
	done    func(c Completion)
	request func(d Demand)
	cancel  func()
}

// lift builds a single-source stage. Defaults: completions pass through,
// downstream demand is forwarded one for one.
func lift[I, O any](p Publisher[I], build func(out *outlet[O], up *upstream) handler[I]) Publisher[O] {
	return PublisherFunc[O](func(down Subscriber[O]) {
		up := &upstream{}
		out := newOutlet(down)
		h := build(out, up)
		if h.done == nil {
			h.done = out.Complete
		}
		if h.request == nil {
			h.request = up.request
		}
		out.onRequest = h.request
		cancel := h.cancel
		out.onCancel = func() {
			up.cancel()
			if cancel != nil {
				cancel()
			}
		}
		p.Subscribe(&inlet[I]{up: up, next: h.next, done: h.done})
		out.start()
	})
}
