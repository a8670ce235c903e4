package stream

import (
	"context"
	"sync"
)

// Iterator provides pull-based sequential access to a stream of values.
type Iterator[T any] interface {
	// Next returns the next value. Returns (zero, false, nil) when exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// FromIterator creates a cold publisher that builds a fresh Iterator per
// subscription and pulls from it only as far as the subscriber's demand
// reaches. The iterator's context is cancelled when the subscription is.
func FromIterator[T any](factory func(ctx context.Context) Iterator[T]) Publisher[T] {
	return PublisherFunc[T](func(down Subscriber[T]) {
		ctx, cancel := context.WithCancel(context.Background())
		src := &pullSource[T]{ctx: ctx, cancel: cancel}
		src.out = newOutlet(down)
		src.iter = factory(ctx)
		src.out.onRequest = func(Demand) { src.pump() }
		src.out.onCancel = src.stop
		src.out.start()
		src.pump()
	})
}

// FromSlice creates a publisher replaying items to every subscriber.
func FromSlice[T any](items []T) Publisher[T] {
	return FromIterator(func(context.Context) Iterator[T] {
		return &sliceIter[T]{items: items}
	})
}

// Sequence is FromSlice over its arguments.
func Sequence[T any](items ...T) Publisher[T] {
	return FromSlice(items)
}

// Just emits v once and finishes.
func Just[T any](v T) Publisher[T] {
	return FromSlice([]T{v})
}

// Empty finishes immediately without values.
func Empty[T any]() Publisher[T] {
	return FromSlice[T](nil)
}

// Fail fails immediately with err.
func Fail[T any](err error) Publisher[T] {
	return PublisherFunc[T](func(down Subscriber[T]) {
		out := newOutlet(down)
		out.settle(Failed(err))
		out.start()
	})
}

// Deferred calls build for each subscriber and subscribes to its result.
func Deferred[T any](build func() Publisher[T]) Publisher[T] {
	return PublisherFunc[T](func(down Subscriber[T]) {
		build().Subscribe(down)
	})
}

type pullSource[T any] struct {
	out    *outlet[T]
	iter   Iterator[T]
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	pumping bool
	again   bool
	stopped bool
	once    sync.Once
}

// pump pulls while the downstream has room. Re-entrant calls from inside
// delivery set a flag instead of recursing.
func (s *pullSource[T]) pump() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	if s.pumping {
		s.again = true
		s.mu.Unlock()
		return
	}
	s.pumping = true
	s.mu.Unlock()

	for {
		if s.exhausted() {
			s.finish(Finished)
			return
		}
		for s.out.wants() {
			v, ok, err := s.iter.Next(s.ctx)
			if err != nil {
				s.finish(Failed(err))
				return
			}
			if !ok {
				s.finish(Finished)
				return
			}
			s.out.Emit(v)
			if s.exhausted() {
				s.finish(Finished)
				return
			}
		}

		s.mu.Lock()
		if s.stopped || !s.again {
			s.pumping = false
			stopped := s.stopped
			s.mu.Unlock()
			if stopped {
				s.close()
			}
			return
		}
		s.again = false
		s.mu.Unlock()
	}
}

func (s *pullSource[T]) exhausted() bool {
	if e, ok := s.iter.(interface{ exhausted() bool }); ok {
		return e.exhausted()
	}
	return false
}

func (s *pullSource[T]) finish(c Completion) {
	s.mu.Lock()
	s.stopped = true
	s.pumping = false
	s.mu.Unlock()
	s.out.Complete(c)
	s.close()
}

func (s *pullSource[T]) stop() {
	s.cancel()
	s.mu.Lock()
	s.stopped = true
	busy := s.pumping
	s.mu.Unlock()
	if !busy {
		s.close()
	}
}

func (s *pullSource[T]) close() {
	s.once.Do(func() {
		s.cancel()
		_ = s.iter.Close()
	})
}

type sliceIter[T any] struct {
	items []T
	index int
}

func (it *sliceIter[T]) Next(_ context.Context) (T, bool, error) {
	if it.index >= len(it.items) {
		var zero T
		return zero, false, nil
	}
	val := it.items[it.index]
	it.index++
	return val, true, nil
}

func (it *sliceIter[T]) Close() error { return nil }

func (it *sliceIter[T]) exhausted() bool { return it.index >= len(it.items) }

// result carries a value or error through a channel.
type result[T any] struct {
	val T
	ok  bool
	err error
}

// Iter adapts p to a pull-based Iterator that requests one value per Next.
// The caller must Close it.
func Iter[T any](p Publisher[T]) Iterator[T] {
	// one requested value plus the completion that may follow it
	return &pushIter[T]{p: p, ch: make(chan result[T], 2)}
}

type pushIter[T any] struct {
	p       Publisher[T]
	ch      chan result[T]
	once    sync.Once
	up      upstream
	drained bool
}

func (it *pushIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if it.drained {
		return zero, false, nil
	}
	it.once.Do(func() {
		it.p.Subscribe(&inlet[T]{
			up:   &it.up,
			next: func(v T) { it.ch <- result[T]{val: v, ok: true} },
			done: func(c Completion) { it.ch <- result[T]{err: c.Err} },
		})
	})
	it.up.request(Max(1))
	select {
	case r := <-it.ch:
		if !r.ok {
			it.drained = true
		}
		return r.val, r.ok, r.err
	case <-ctx.Done():
		it.up.cancel()
		it.drained = true
		return zero, false, ctx.Err()
	}
}

func (it *pushIter[T]) Close() error {
	it.up.cancel()
	return nil
}
