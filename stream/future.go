package stream

import "sync"

// Future runs work once, immediately, and replays its single result to
// every subscriber as soon as that subscriber requests a value. Only the
// first call to resolve counts.
func Future[T any](work func(resolve func(v T, err error))) Publisher[T] {
	f := &future[T]{}
	work(f.resolve)
	return f
}

type future[T any] struct {
	mu       sync.Mutex
	resolved bool
	value    T
	err      error
	waiting  []*outlet[T]
}

func (f *future[T]) resolve(v T, err error) {
	f.mu.Lock()
	if f.resolved {
		f.mu.Unlock()
		return
	}
	f.resolved = true
	f.value, f.err = v, err
	waiting := f.waiting
	f.waiting = nil
	f.mu.Unlock()

	for _, out := range waiting {
		f.deliver(out)
	}
}

func (f *future[T]) deliver(out *outlet[T]) {
	if f.err != nil {
		out.Complete(Failed(f.err))
		return
	}
	out.push(f.value)
	out.Complete(Finished)
}

func (f *future[T]) Subscribe(down Subscriber[T]) {
	out := newOutlet(down)
	f.mu.Lock()
	resolved := f.resolved
	if !resolved {
		f.waiting = append(f.waiting, out)
		out.onCancel = func() { f.forget(out) }
	}
	f.mu.Unlock()

	out.start()
	if resolved {
		f.deliver(out)
	}
}

func (f *future[T]) forget(out *outlet[T]) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, w := range f.waiting {
		if w == out {
			f.waiting = append(f.waiting[:i], f.waiting[i+1:]...)
			return
		}
	}
}

// Emitter feeds values from a callback-style producer into one subscription.
type Emitter[T any] interface {
	// Send delivers v if the subscriber has outstanding demand and reports
	// whether it did. Values sent without demand are dropped.
	Send(v T) bool
	// Complete ends the subscription. Later calls have no effect.
	Complete(c Completion)
	// Outstanding returns the demand not yet used.
	Outstanding() Demand
	// Cancelled reports whether the subscriber has gone away or the
	// emitter has completed.
	Cancelled() bool
}

type emitter[T any] struct {
	out *outlet[T]
}

func (e emitter[T]) Send(v T) bool { return e.out.Emit(v) }
func (e emitter[T]) Complete(c Completion) { e.out.Complete(c) }
func (e emitter[T]) Outstanding() Demand { return e.out.outstanding() }
func (e emitter[T]) Cancelled() bool { return e.out.closed() }

// Create adapts a producer that starts work and reports back through
// callbacks. start runs once per subscription after the subscriber has
// been handed its subscription; the function it returns, if any, is
// called when the subscriber cancels.
func Create[T any](start func(e Emitter[T]) (stop func())) Publisher[T] {
	return PublisherFunc[T](func(down Subscriber[T]) {
		out := newOutlet(down)
		var (
			mu        sync.Mutex
			stop      func()
			cancelled bool
		)
		out.onCancel = func() {
			mu.Lock()
			cancelled = true
			s := stop
			mu.Unlock()
			if s != nil {
				s()
			}
		}
		out.start()

		mu.Lock()
		if cancelled {
			mu.Unlock()
			return
		}
		mu.Unlock()

		s := start(emitter[T]{out: out})
		if s == nil {
			return
		}
		mu.Lock()
		if cancelled {
			mu.Unlock()
			s()
			return
		}
		stop = s
		mu.Unlock()
	})
}
