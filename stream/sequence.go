package stream

import "sync"

// triggerGate is a one-way flag set from a trigger publisher.
type triggerGate struct {
	mu     sync.Mutex
	opened bool
}

func (g *triggerGate) open() {
	g.mu.Lock()
	g.opened = true
	g.mu.Unlock()
}

func (g *triggerGate) isOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.opened
}

// First emits the first value and finishes.
func First[T any](p Publisher[T]) Publisher[T] {
	return FirstWhere(p, func(T) bool { return true })
}

// FirstWhere emits the first value matching match and finishes.
func FirstWhere[T any](p Publisher[T], match func(T) bool) Publisher[T] {
	return lift(p, func(out *outlet[T], up *upstream) handler[T] {
		return handler[T]{next: func(v T) {
			if !match(v) {
				up.request(Max(1))
				return
			}
			up.cancel()
			out.Emit(v)
			out.Complete(Finished)
		}}
	})
}

// Last emits the final value once p finishes.
func Last[T any](p Publisher[T]) Publisher[T] {
	return LastWhere(p, func(T) bool { return true })
}

// LastWhere emits the final value matching match once p finishes.
func LastWhere[T any](p Publisher[T], match func(T) bool) Publisher[T] {
	return lift(p, func(out *outlet[T], up *upstream) handler[T] {
		var (
			last T
			has  bool
		)
		return handler[T]{
			request: up.requestOnce(),
			next: func(v T) {
				if match(v) {
					last, has = v, true
				}
			},
			done: func(c Completion) {
				if c.IsFinished() && has {
					out.push(last)
				}
				out.Complete(c)
			},
		}
	})
}

// OutputAt emits only the value at index i and finishes.
func OutputAt[T any](p Publisher[T], i int) Publisher[T] {
	return OutputIn(p, i, i+1)
}

// OutputIn emits the values with indices in [from, to) and finishes.
func OutputIn[T any](p Publisher[T], from, to int) Publisher[T] {
	return lift(p, func(out *outlet[T], up *upstream) handler[T] {
		if to <= from || to <= 0 {
			up.cancel()
			out.Complete(Finished)
		}
		index := 0
		return handler[T]{next: func(v T) {
			i := index
			index++
			if i < from {
				up.request(Max(1))
				return
			}
			out.Emit(v)
			if index >= to {
				up.cancel()
				out.Complete(Finished)
			}
		}}
	})
}

// Count emits the number of values once p finishes.
func Count[T any](p Publisher[T]) Publisher[int] {
	return Reduce(p, 0, func(n int, _ T) int { return n + 1 })
}

// Contains emits whether p emits v, finishing as soon as it does.
func Contains[T comparable](p Publisher[T], v T) Publisher[bool] {
	return ContainsWhere(p, func(x T) bool { return x == v })
}

// ContainsWhere emits true as soon as a value matches, or false once p
// finishes without a match.
func ContainsWhere[T any](p Publisher[T], match func(T) bool) Publisher[bool] {
	return decideEarly(p, match, true)
}

// AllSatisfy emits false as soon as a value fails check, or true once p
// finishes.
func AllSatisfy[T any](p Publisher[T], check func(T) bool) Publisher[bool] {
	return decideEarly(p, func(v T) bool { return !check(v) }, false)
}

// decideEarly emits onHit at the first value hit matches, else !onHit at
// the end of the stream.
func decideEarly[T any](p Publisher[T], hit func(T) bool, onHit bool) Publisher[bool] {
	return lift(p, func(out *outlet[bool], up *upstream) handler[T] {
		return handler[T]{
			request: up.requestOnce(),
			next: func(v T) {
				if !hit(v) {
					return
				}
				up.cancel()
				out.push(onHit)
				out.Complete(Finished)
			},
			done: func(c Completion) {
				if c.IsFinished() {
					out.push(!onHit)
				}
				out.Complete(c)
			},
		}
	})
}

// MinBy emits the smallest value by less once p finishes.
func MinBy[T any](p Publisher[T], less func(a, b T) bool) Publisher[T] {
	return extreme(p, less)
}

// MaxBy emits the largest value by less once p finishes.
func MaxBy[T any](p Publisher[T], less func(a, b T) bool) Publisher[T] {
	return extreme(p, func(a, b T) bool { return less(b, a) })
}

func extreme[T any](p Publisher[T], better func(a, b T) bool) Publisher[T] {
	return lift(p, func(out *outlet[T], up *upstream) handler[T] {
		var (
			best T
			has  bool
		)
		return handler[T]{
			request: up.requestOnce(),
			next: func(v T) {
				if !has || better(v, best) {
					best, has = v, true
				}
			},
			done: func(c Completion) {
				if c.IsFinished() && has {
					out.push(best)
				}
				out.Complete(c)
			},
		}
	})
}
