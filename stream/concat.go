package stream

import "sync"

// switcher relays one source at a time to a single downstream. When the
// current source completes, after picks the next source; nil means the
// completion is delivered. Outstanding demand carries over to each new
// source.
type switcher[T any] struct {
	out   *outlet[T]
	after func(c Completion) Publisher[T]

	mu      sync.Mutex
	current *upstream
	stopped bool
}

func runSwitcher[T any](down Subscriber[T], first Publisher[T], after func(Completion) Publisher[T]) {
	s := &switcher[T]{out: newOutlet(down), after: after}
	s.out.onRequest = s.request
	s.out.onCancel = s.stop
	s.attach(first)
	s.out.start()
}

func (s *switcher[T]) attach(p Publisher[T]) {
	in := &upstream{}
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.current = in
	s.mu.Unlock()

	p.Subscribe(&inlet[T]{
		up:   in,
		next: s.out.push,
		done: func(c Completion) {
			if next := s.after(c); next != nil {
				s.attach(next)
				return
			}
			s.out.Complete(c)
		},
	})
	in.request(s.out.outstanding())
}

func (s *switcher[T]) request(d Demand) {
	s.mu.Lock()
	cur := s.current
	s.mu.Unlock()
	if cur != nil {
		cur.request(d)
	}
}

func (s *switcher[T]) stop() {
	s.mu.Lock()
	s.stopped = true
	cur := s.current
	s.mu.Unlock()
	if cur != nil {
		cur.cancel()
	}
}

// Concat emits all values of each publisher in turn. Each must finish
// before the next is subscribed; a failure ends the stream at once.
func Concat[T any](ps ...Publisher[T]) Publisher[T] {
	if len(ps) == 0 {
		return Empty[T]()
	}
	return PublisherFunc[T](func(down Subscriber[T]) {
		index := 0
		runSwitcher(down, ps[0], func(c Completion) Publisher[T] {
			if c.Err != nil {
				return nil
			}
			index++
			if index < len(ps) {
				return ps[index]
			}
			return nil
		})
	})
}

// Prepend emits values before the values of p.
func Prepend[T any](p Publisher[T], values ...T) Publisher[T] {
	return Concat(FromSlice(values), p)
}

// Append emits values after p finishes.
func Append[T any](p Publisher[T], values ...T) Publisher[T] {
	return Concat(p, FromSlice(values))
}

// PrependPublisher emits all of other before p is subscribed.
func PrependPublisher[T any](p, other Publisher[T]) Publisher[T] {
	return Concat(other, p)
}

// AppendPublisher subscribes to other once p finishes.
func AppendPublisher[T any](p, other Publisher[T]) Publisher[T] {
	return Concat(p, other)
}
