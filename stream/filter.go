package stream

// Filter passes values for which keep reports true. A dropped value is
// replaced by a fresh upstream request, so the downstream's demand is
// never spent on it.
func Filter[T any](p Publisher[T], keep func(T) bool) Publisher[T] {
	return lift(p, func(out *outlet[T], up *upstream) handler[T] {
		return handler[T]{next: func(v T) {
			if keep(v) {
				out.Emit(v)
				return
			}
			up.request(Max(1))
		}}
	})
}

// TryFilter is Filter with a fallible predicate.
func TryFilter[T any](p Publisher[T], keep func(T) (bool, error)) Publisher[T] {
	return lift(p, func(out *outlet[T], up *upstream) handler[T] {
		return handler[T]{next: func(v T) {
			ok, err := keep(v)
			switch {
			case err != nil:
				up.cancel()
				out.Complete(Failed(err))
			case ok:
				out.Emit(v)
			default:
				up.request(Max(1))
			}
		}}
	})
}

// RemoveDuplicates drops values equal to the one before them.
func RemoveDuplicates[T comparable](p Publisher[T]) Publisher[T] {
	return RemoveDuplicatesBy(p, func(a, b T) bool { return a == b })
}

// RemoveDuplicatesBy drops values that equal reports as repeats of the
// previous value.
func RemoveDuplicatesBy[T any](p Publisher[T], equal func(prev, cur T) bool) Publisher[T] {
	return lift(p, func(out *outlet[T], up *upstream) handler[T] {
		var (
			prev T
			has  bool
		)
		return handler[T]{next: func(v T) {
			if has && equal(prev, v) {
				up.request(Max(1))
				return
			}
			prev, has = v, true
			out.Emit(v)
		}}
	})
}

// IgnoreOutput drops every value and relays only the completion.
func IgnoreOutput[T any](p Publisher[T]) Publisher[T] {
	return lift(p, func(out *outlet[T], up *upstream) handler[T] {
		up.request(Unlimited)
		return handler[T]{
			request: func(Demand) {},
			next:    func(T) {},
		}
	})
}

// DropFirst skips the first n values.
func DropFirst[T any](p Publisher[T], n int) Publisher[T] {
	return lift(p, func(out *outlet[T], up *upstream) handler[T] {
		dropped := 0
		return handler[T]{next: func(v T) {
			if dropped < n {
				dropped++
				up.request(Max(1))
				return
			}
			out.Emit(v)
		}}
	})
}

// DropWhile skips values until drop first reports false.
func DropWhile[T any](p Publisher[T], drop func(T) bool) Publisher[T] {
	return lift(p, func(out *outlet[T], up *upstream) handler[T] {
		dropping := true
		return handler[T]{next: func(v T) {
			if dropping && drop(v) {
				up.request(Max(1))
				return
			}
			dropping = false
			out.Emit(v)
		}}
	})
}

// DropUntilOutputFrom skips values until trigger emits. If trigger finishes
// without emitting, the stream finishes; if it fails, the stream fails.
func DropUntilOutputFrom[T, U any](p Publisher[T], trigger Publisher[U]) Publisher[T] {
	return lift(p, func(out *outlet[T], up *upstream) handler[T] {
		gate := &triggerGate{}
		tr := &upstream{}
		trigger.Subscribe(&inlet[U]{
			up: tr,
			next: func(U) {
				gate.open()
				tr.cancel()
			},
			done: func(c Completion) {
				if gate.isOpen() {
					return
				}
				up.cancel()
				out.Complete(c)
			},
		})
		tr.request(Max(1))
		return handler[T]{
			next: func(v T) {
				if !gate.isOpen() {
					up.request(Max(1))
					return
				}
				out.Emit(v)
			},
			cancel: tr.cancel,
		}
	})
}

// Prefix emits at most n values, then cancels the upstream and finishes.
func Prefix[T any](p Publisher[T], n int) Publisher[T] {
	return lift(p, func(out *outlet[T], up *upstream) handler[T] {
		if n <= 0 {
			up.cancel()
			out.Complete(Finished)
		}
		emitted := 0
		return handler[T]{next: func(v T) {
			out.Emit(v)
			emitted++
			if emitted >= n {
				up.cancel()
				out.Complete(Finished)
			}
		}}
	})
}

// PrefixWhile emits values while keep reports true and finishes on the
// first value it rejects.
func PrefixWhile[T any](p Publisher[T], keep func(T) bool) Publisher[T] {
	return lift(p, func(out *outlet[T], up *upstream) handler[T] {
		return handler[T]{next: func(v T) {
			if keep(v) {
				out.Emit(v)
				return
			}
			up.cancel()
			out.Complete(Finished)
		}}
	})
}

// PrefixUntilOutputFrom emits values until trigger emits, then finishes.
// The trigger's own completion is ignored.
func PrefixUntilOutputFrom[T, U any](p Publisher[T], trigger Publisher[U]) Publisher[T] {
	return lift(p, func(out *outlet[T], up *upstream) handler[T] {
		tr := &upstream{}
		trigger.Subscribe(&inlet[U]{
			up: tr,
			next: func(U) {
				tr.cancel()
				up.cancel()
				out.Complete(Finished)
			},
			done: func(Completion) {},
		})
		tr.request(Max(1))
		return handler[T]{
			next:   func(v T) { out.Emit(v) },
			cancel: tr.cancel,
		}
	})
}
