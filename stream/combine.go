package stream

import "sync"

// Pair is a two-value tuple emitted by Zip2 and CombineLatest2.
type Pair[A, B any] struct {
	First  A
	Second B
}

// Merge interleaves the values of ps in arrival order. It fails as soon as
// any source fails and finishes once all of them have finished.
func Merge[T any](ps ...Publisher[T]) Publisher[T] {
	return FlatMap(FromSlice(ps), 0, func(p Publisher[T]) Publisher[T] { return p })
}

// multi tracks several sources feeding one outlet.
type multi[T, O any] struct {
	out   *outlet[O]
	links []*upstream
}

func newMulti[T, O any](down Subscriber[O], n int) *multi[T, O] {
	m := &multi[T, O]{out: newOutlet(down), links: make([]*upstream, n)}
	for i := range m.links {
		m.links[i] = &upstream{}
	}
	m.out.onCancel = m.cancelAll
	return m
}

func (m *multi[T, O]) forward(d Demand) {
	for _, l := range m.links {
		l.request(d)
	}
}

func (m *multi[T, O]) cancelAll() {
	for _, l := range m.links {
		l.cancel()
	}
}

func (m *multi[T, O]) subscribe(ps []Publisher[T], next func(i int, v T), done func(i int, c Completion)) {
	for i, p := range ps {
		p.Subscribe(&inlet[T]{
			up:   m.links[i],
			next: func(v T) { next(i, v) },
			done: func(c Completion) { done(i, c) },
		})
	}
	m.out.start()
}

// ZipAll emits a slice holding the i-th value of every source once each
// source has produced its i-th value. Unpaired values stay buffered. It
// finishes when a finished source has nothing left to pair.
func ZipAll[T any](ps ...Publisher[T]) Publisher[[]T] {
	if len(ps) == 0 {
		return Empty[[]T]()
	}
	return PublisherFunc[[]T](func(down Subscriber[[]T]) {
		m := newMulti[T, []T](down, len(ps))
		m.out.onRequest = m.forward

		var (
			mu       sync.Mutex
			bufs     = make([][]T, len(ps))
			finished = make([]bool, len(ps))
		)
		exhausted := func() bool {
			for i := range bufs {
				if finished[i] && len(bufs[i]) == 0 {
					return true
				}
			}
			return false
		}
		end := func() {
			m.cancelAll()
			m.out.Complete(Finished)
		}

		m.subscribe(ps,
			func(i int, v T) {
				mu.Lock()
				bufs[i] = append(bufs[i], v)
				var tuples [][]T
				for ready(bufs) {
					tuple := make([]T, len(bufs))
					for j := range bufs {
						tuple[j] = bufs[j][0]
						bufs[j] = bufs[j][1:]
					}
					tuples = append(tuples, tuple)
				}
				over := exhausted()
				mu.Unlock()
				for _, t := range tuples {
					m.out.push(t)
				}
				if over {
					end()
				}
			},
			func(i int, c Completion) {
				if c.Err != nil {
					m.cancelAll()
					m.out.fail(c.Err)
					return
				}
				mu.Lock()
				finished[i] = true
				over := exhausted()
				mu.Unlock()
				if over {
					end()
				}
			},
		)
	})
}

func ready[T any](bufs [][]T) bool {
	for _, b := range bufs {
		if len(b) == 0 {
			return false
		}
	}
	return true
}

// Zip2 pairs the values of a and b by index.
func Zip2[A, B any](a Publisher[A], b Publisher[B]) Publisher[Pair[A, B]] {
	return Map(ZipAll(boxed(a), boxed(b)), unboxPair[A, B])
}

// CombineLatestAll emits the latest value of every source whenever any of
// them emits, once all of them have emitted at least once. Updates that
// arrive without downstream demand are coalesced into the newest one.
func CombineLatestAll[T any](ps ...Publisher[T]) Publisher[[]T] {
	if len(ps) == 0 {
		return Empty[[]T]()
	}
	return PublisherFunc[[]T](func(down Subscriber[[]T]) {
		m := newMulti[T, []T](down, len(ps))
		var once sync.Once
		m.out.onRequest = func(Demand) {
			once.Do(func() { m.forward(Unlimited) })
		}

		var (
			mu       sync.Mutex
			latest   = make([]T, len(ps))
			has      = make([]bool, len(ps))
			seen     int
			finished int
		)
		m.subscribe(ps,
			func(i int, v T) {
				mu.Lock()
				latest[i] = v
				if !has[i] {
					has[i] = true
					seen++
				}
				var tuple []T
				if seen == len(ps) {
					tuple = append([]T(nil), latest...)
				}
				mu.Unlock()
				if tuple != nil {
					m.out.replace(tuple)
				}
			},
			func(i int, c Completion) {
				if c.Err != nil {
					m.cancelAll()
					m.out.fail(c.Err)
					return
				}
				mu.Lock()
				finished++
				over := finished == len(ps) || !has[i]
				mu.Unlock()
				if over {
					m.cancelAll()
					m.out.Complete(Finished)
				}
			},
		)
	})
}

// CombineLatest2 is CombineLatestAll over two sources of different types.
func CombineLatest2[A, B any](a Publisher[A], b Publisher[B]) Publisher[Pair[A, B]] {
	return Map(CombineLatestAll(boxed(a), boxed(b)), unboxPair[A, B])
}

func boxed[T any](p Publisher[T]) Publisher[any] {
	return Map(p, func(v T) any { return v })
}

func unbox[T any](v any) T {
	t, _ := v.(T)
	return t
}

func unboxPair[A, B any](vs []any) Pair[A, B] {
	return Pair[A, B]{First: unbox[A](vs[0]), Second: unbox[B](vs[1])}
}

// SwitchToLatest mirrors the most recent inner publisher emitted by p and
// cancels the previous one as soon as a new one arrives. It finishes once
// p and the current inner publisher have both finished.
func SwitchToLatest[T any](p Publisher[Publisher[T]]) Publisher[T] {
	return PublisherFunc[T](func(down Subscriber[T]) {
		s := &switchLatest[T]{out: newOutlet(down)}
		s.out.onRequest = s.request
		s.out.onCancel = s.cancelAll
		p.Subscribe(&inlet[Publisher[T]]{up: &s.outer, next: s.next, done: s.outerDone})
		s.out.start()
	})
}

type switchLatest[T any] struct {
	out   *outlet[T]
	outer upstream
	once  sync.Once

	mu            sync.Mutex
	current       *upstream
	innerActive   bool
	outerFinished bool
}

func (s *switchLatest[T]) request(d Demand) {
	s.once.Do(func() { s.outer.request(Unlimited) })
	s.mu.Lock()
	cur := s.current
	s.mu.Unlock()
	if cur != nil {
		cur.request(d)
	}
}

func (s *switchLatest[T]) next(inner Publisher[T]) {
	in := &upstream{}
	s.mu.Lock()
	prev := s.current
	s.current = in
	s.innerActive = true
	s.mu.Unlock()
	if prev != nil {
		prev.cancel()
	}

	inner.Subscribe(&inlet[T]{
		up:   in,
		next: s.out.push,
		done: func(c Completion) { s.innerDone(in, c) },
	})
	in.request(s.out.outstanding())
}

func (s *switchLatest[T]) innerDone(in *upstream, c Completion) {
	if c.Err != nil {
		s.cancelAll()
		s.out.fail(c.Err)
		return
	}
	s.mu.Lock()
	if s.current != in {
		s.mu.Unlock()
		return
	}
	s.innerActive = false
	finished := s.outerFinished
	s.mu.Unlock()
	if finished {
		s.out.Complete(Finished)
	}
}

func (s *switchLatest[T]) outerDone(c Completion) {
	if c.Err != nil {
		s.cancelAll()
		s.out.fail(c.Err)
		return
	}
	s.mu.Lock()
	s.outerFinished = true
	finished := !s.innerActive
	s.mu.Unlock()
	if finished {
		s.out.Complete(Finished)
	}
}

func (s *switchLatest[T]) cancelAll() {
	s.outer.cancel()
	s.mu.Lock()
	cur := s.current
	s.mu.Unlock()
	if cur != nil {
		cur.cancel()
	}
}
