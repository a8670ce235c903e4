package stream

import "sync"

// Subject is a publisher that outside code can push values into.
type Subject[T any] interface {
	Publisher[T]
	Send(v T)
	SendCompletion(c Completion)
}

// subjectCore holds the subscriber set and latch shared by both subject
// variants. Values and the completion are enqueued on every outlet while
// mu is held, so the order any subscriber sees matches the order of the
// Send and SendCompletion calls; delivery happens after mu is released.
type subjectCore[T any] struct {
	mu         sync.Mutex
	subs       map[CombineID]*outlet[T]
	completion *Completion
	upstreams  []Subscription

	keepsValue bool
	current    T
}

func (s *subjectCore[T]) subscribe(down Subscriber[T]) {
	out := newOutlet(down)
	s.mu.Lock()
	if s.completion != nil {
		c := *s.completion
		s.mu.Unlock()
		out.settle(c)
		out.start()
		return
	}
	if s.keepsValue {
		out.queue = append(out.queue, s.current)
	}
	id := NewCombineID()
	out.onCancel = func() { s.remove(id) }
	if s.subs == nil {
		s.subs = make(map[CombineID]*outlet[T])
	}
	s.subs[id] = out
	s.mu.Unlock()

	out.start()
}

func (s *subjectCore[T]) remove(id CombineID) {
	s.mu.Lock()
	delete(s.subs, id)
	s.mu.Unlock()
}

func (s *subjectCore[T]) send(v T) {
	s.mu.Lock()
	if s.completion != nil {
		s.mu.Unlock()
		return
	}
	if s.keepsValue {
		s.current = v
	}
	outs := make([]*outlet[T], 0, len(s.subs))
	for _, out := range s.subs {
		if s.keepsValue && out.swap(v) {
			outs = append(outs, out)
			continue
		}
		if out.offer(v) {
			outs = append(outs, out)
		}
	}
	s.mu.Unlock()

	for _, out := range outs {
		out.drain()
	}
}

func (s *subjectCore[T]) complete(c Completion) {
	s.mu.Lock()
	if s.completion != nil {
		s.mu.Unlock()
		return
	}
	s.completion = &c
	outs := make([]*outlet[T], 0, len(s.subs))
	for _, out := range s.subs {
		out.trim()
		if out.settle(c) {
			outs = append(outs, out)
		}
	}
	s.subs = nil
	ups := s.upstreams
	s.upstreams = nil
	s.mu.Unlock()

	for _, out := range outs {
		out.drain()
	}
	for _, up := range ups {
		up.Cancel()
	}
}

func (s *subjectCore[T]) attach(sub Subscription) {
	s.mu.Lock()
	if s.completion != nil {
		s.mu.Unlock()
		sub.Cancel()
		return
	}
	s.upstreams = append(s.upstreams, sub)
	s.mu.Unlock()
	sub.Request(Unlimited)
}

func (s *subjectCore[T]) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// PassthroughSubject broadcasts values to the subscribers attached at the
// time of each Send. Late subscribers see nothing sent before they
// attached. A subscriber without outstanding demand misses the value.
type PassthroughSubject[T any] struct {
	core subjectCore[T]
}

// NewPassthroughSubject creates an empty PassthroughSubject.
func NewPassthroughSubject[T any]() *PassthroughSubject[T] {
	return &PassthroughSubject[T]{}
}

// Subscribe attaches down. After completion it only receives the completion.
func (s *PassthroughSubject[T]) Subscribe(down Subscriber[T]) { s.core.subscribe(down) }

// Send delivers v to every subscriber with outstanding demand.
// It has no effect once the subject has completed.
func (s *PassthroughSubject[T]) Send(v T) { s.core.send(v) }

// SendCompletion completes every subscriber and latches the subject.
func (s *PassthroughSubject[T]) SendCompletion(c Completion) { s.core.complete(c) }

// Subscribers returns the number of live subscriptions.
func (s *PassthroughSubject[T]) Subscribers() int { return s.core.count() }

// OnSubscribe requests everything from a publisher feeding the subject.
func (s *PassthroughSubject[T]) OnSubscribe(sub Subscription) { s.core.attach(sub) }

// OnValue forwards v to Send.
func (s *PassthroughSubject[T]) OnValue(v T) Demand {
	s.core.send(v)
	return None
}

// OnCompletion forwards c to SendCompletion.
func (s *PassthroughSubject[T]) OnCompletion(c Completion) { s.core.complete(c) }

// CurrentValueSubject holds the latest value. New subscribers receive it
// first, as soon as they request demand.
type CurrentValueSubject[T any] struct {
	core subjectCore[T]
}

// NewCurrentValueSubject creates a CurrentValueSubject holding initial.
func NewCurrentValueSubject[T any](initial T) *CurrentValueSubject[T] {
	s := &CurrentValueSubject[T]{}
	s.core.keepsValue = true
	s.core.current = initial
	return s
}

// Value returns the current value.
func (s *CurrentValueSubject[T]) Value() T {
	s.core.mu.Lock()
	defer s.core.mu.Unlock()
	return s.core.current
}

func (s *CurrentValueSubject[T]) Subscribe(down Subscriber[T]) { s.core.subscribe(down) }

// Send replaces the current value and delivers it to subscribers with
// outstanding demand. It has no effect once the subject has completed.
func (s *CurrentValueSubject[T]) Send(v T) { s.core.send(v) }

func (s *CurrentValueSubject[T]) SendCompletion(c Completion) { s.core.complete(c) }

func (s *CurrentValueSubject[T]) Subscribers() int { return s.core.count() }

func (s *CurrentValueSubject[T]) OnSubscribe(sub Subscription) { s.core.attach(sub) }

func (s *CurrentValueSubject[T]) OnValue(v T) Demand {
	s.core.send(v)
	return None
}

func (s *CurrentValueSubject[T]) OnCompletion(c Completion) { s.core.complete(c) }
