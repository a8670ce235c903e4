package stream

import "sync"

// Map transforms each value with fn.
func Map[I, O any](p Publisher[I], fn func(I) O) Publisher[O] {
	return lift(p, func(out *outlet[O], _ *upstream) handler[I] {
		return handler[I]{next: func(v I) { out.Emit(fn(v)) }}
	})
}

// TryMap transforms each value with fn. The first error cancels the
// upstream and fails the stream with that error.
func TryMap[I, O any](p Publisher[I], fn func(I) (O, error)) Publisher[O] {
	return lift(p, func(out *outlet[O], up *upstream) handler[I] {
		return handler[I]{next: func(v I) {
			o, err := fn(v)
			if err != nil {
				up.cancel()
				out.Complete(Failed(err))
				return
			}
			out.Emit(o)
		}}
	})
}

// MapError rewrites the failure of p with fn. Values pass through.
func MapError[T any](p Publisher[T], fn func(error) error) Publisher[T] {
	return lift(p, func(out *outlet[T], _ *upstream) handler[T] {
		return handler[T]{
			next: func(v T) { out.Emit(v) },
			done: func(c Completion) {
				if c.Err != nil {
					c = Failed(fn(c.Err))
				}
				out.Complete(c)
			},
		}
	})
}

// CompactMap transforms each value and drops those for which fn reports
// false. Each dropped value is replaced by a fresh upstream request so the
// downstream's demand is unaffected.
func CompactMap[I, O any](p Publisher[I], fn func(I) (O, bool)) Publisher[O] {
	return lift(p, func(out *outlet[O], up *upstream) handler[I] {
		return handler[I]{next: func(v I) {
			if o, ok := fn(v); ok {
				out.Emit(o)
				return
			}
			up.request(Max(1))
		}}
	})
}

// Scan emits the running accumulation of values, starting from seed.
// The accumulator belongs to one subscription.
func Scan[I, O any](p Publisher[I], seed O, fn func(acc O, v I) O) Publisher[O] {
	return lift(p, func(out *outlet[O], _ *upstream) handler[I] {
		acc := seed
		return handler[I]{next: func(v I) {
			acc = fn(acc, v)
			out.Emit(acc)
		}}
	})
}

// TryScan is Scan with a fallible accumulator.
func TryScan[I, O any](p Publisher[I], seed O, fn func(acc O, v I) (O, error)) Publisher[O] {
	return lift(p, func(out *outlet[O], up *upstream) handler[I] {
		acc := seed
		return handler[I]{next: func(v I) {
			next, err := fn(acc, v)
			if err != nil {
				up.cancel()
				out.Complete(Failed(err))
				return
			}
			acc = next
			out.Emit(acc)
		}}
	})
}

// Collect emits every value as one slice once p finishes. A publisher that
// never completes never emits.
func Collect[T any](p Publisher[T]) Publisher[[]T] {
	return lift(p, func(out *outlet[[]T], up *upstream) handler[T] {
		buf := []T{}
		return handler[T]{
			request: up.requestOnce(),
			next:    func(v T) { buf = append(buf, v) },
			done: func(c Completion) {
				if c.IsFinished() {
					out.push(buf)
				}
				out.Complete(c)
			},
		}
	})
}

// CollectN emits slices of n values, and any remainder when p finishes.
func CollectN[T any](p Publisher[T], n int) Publisher[[]T] {
	if n <= 0 {
		return Collect(p)
	}
	return lift(p, func(out *outlet[[]T], up *upstream) handler[T] {
		var buf []T
		return handler[T]{
			request: func(d Demand) { up.request(d.Times(n)) },
			next: func(v T) {
				buf = append(buf, v)
				if len(buf) == n {
					full := buf
					buf = nil
					out.push(full)
				}
			},
			done: func(c Completion) {
				if c.IsFinished() && len(buf) > 0 {
					out.push(buf)
				}
				out.Complete(c)
			},
		}
	})
}

// Reduce emits the final accumulation once p finishes.
func Reduce[I, O any](p Publisher[I], seed O, fn func(acc O, v I) O) Publisher[O] {
	return lift(p, func(out *outlet[O], up *upstream) handler[I] {
		acc := seed
		return handler[I]{
			request: up.requestOnce(),
			next:    func(v I) { acc = fn(acc, v) },
			done: func(c Completion) {
				if c.IsFinished() {
					out.push(acc)
				}
				out.Complete(c)
			},
		}
	})
}

// ReplaceEmpty emits v if p finishes without emitting anything.
func ReplaceEmpty[T any](p Publisher[T], v T) Publisher[T] {
	return lift(p, func(out *outlet[T], _ *upstream) handler[T] {
		seen := false
		return handler[T]{
			next: func(x T) {
				seen = true
				out.Emit(x)
			},
			done: func(c Completion) {
				if c.IsFinished() && !seen {
					out.push(v)
				}
				out.Complete(c)
			},
		}
	})
}

// FlatMap subscribes to the publisher fn returns for each value and merges
// their output. At most maxPublishers inner publishers run at once; zero or
// less means no limit. The inner publishers share the downstream demand:
// together they are never asked for more values than the downstream has
// requested. The stream fails as soon as any of them fails and finishes
// once p and every inner publisher have finished.
func FlatMap[I, O any](p Publisher[I], maxPublishers int, fn func(I) Publisher[O]) Publisher[O] {
	return PublisherFunc[O](func(down Subscriber[O]) {
		f := &flatMap[I, O]{
			fn:     fn,
			max:    maxPublishers,
			inners: make(map[*upstream]Demand),
		}
		f.out = newOutlet(down)
		f.out.onRequest = f.request
		f.out.onCancel = f.cancelAll
		p.Subscribe(&inlet[I]{up: &f.outer, next: f.next, done: f.outerFinish})
		f.out.start()
	})
}

type flatMap[I, O any] struct {
	out   *outlet[O]
	outer upstream
	fn    func(I) Publisher[O]
	max   int
	once  sync.Once

	mu sync.Mutex
	// inners maps each running inner publisher to the demand it holds.
	inners map[*upstream]Demand
	// budget is downstream demand not yet handed to any inner publisher.
	budget        Demand
	outerFinished bool
}

func (f *flatMap[I, O]) request(d Demand) {
	f.mu.Lock()
	f.budget = f.budget.Add(d)
	f.mu.Unlock()
	f.once.Do(func() {
		if f.max > 0 {
			f.outer.request(Max(f.max))
		} else {
			f.outer.request(Unlimited)
		}
	})
	f.distribute()
}

// distribute hands the budget to inner publishers. Unlimited demand goes
// to all of them; finite demand goes one value at a time to those holding
// none.
func (f *flatMap[I, O]) distribute() {
	type grant struct {
		in *upstream
		d  Demand
	}
	var grants []grant
	f.mu.Lock()
	for in, held := range f.inners {
		if f.budget.IsNone() {
			break
		}
		switch {
		case f.budget.IsUnlimited():
			if !held.IsUnlimited() {
				f.inners[in] = Unlimited
				grants = append(grants, grant{in, Unlimited})
			}
		case held.IsNone():
			f.inners[in] = Max(1)
			f.budget = f.budget.consume()
			grants = append(grants, grant{in, Max(1)})
		}
	}
	f.mu.Unlock()
	for _, g := range grants {
		g.in.request(g.d)
	}
}

func (f *flatMap[I, O]) next(v I) {
	in := &upstream{}
	f.mu.Lock()
	f.inners[in] = None
	f.mu.Unlock()

	f.fn(v).Subscribe(&inlet[O]{
		up:   in,
		next: func(v O) { f.innerValue(in, v) },
		done: func(c Completion) { f.innerDone(in, c) },
	})
	f.distribute()
}

func (f *flatMap[I, O]) innerValue(in *upstream, v O) {
	f.mu.Lock()
	if held, ok := f.inners[in]; ok && !held.IsNone() {
		f.inners[in] = held.consume()
	}
	f.mu.Unlock()
	f.out.push(v)
	f.distribute()
}

func (f *flatMap[I, O]) innerDone(in *upstream, c Completion) {
	if c.Err != nil {
		f.cancelAll()
		f.out.fail(c.Err)
		return
	}
	f.mu.Lock()
	if held, ok := f.inners[in]; ok {
		f.budget = f.budget.Add(held)
		delete(f.inners, in)
	}
	finished := f.outerFinished && len(f.inners) == 0
	f.mu.Unlock()
	if finished {
		f.out.Complete(Finished)
		return
	}
	if f.max > 0 {
		f.outer.request(Max(1))
	}
	f.distribute()
}

func (f *flatMap[I, O]) outerFinish(c Completion) {
	if c.Err != nil {
		f.cancelAll()
		f.out.fail(c.Err)
		return
	}
	f.mu.Lock()
	f.outerFinished = true
	finished := len(f.inners) == 0
	f.mu.Unlock()
	if finished {
		f.out.Complete(Finished)
	}
}

func (f *flatMap[I, O]) cancelAll() {
	f.outer.cancel()
	f.mu.Lock()
	inners := f.inners
	f.inners = make(map[*upstream]Demand)
	f.mu.Unlock()
	for in := range inners {
		in.cancel()
	}
}
