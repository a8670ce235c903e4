package stream

import (
	"context"
	"errors"
	"sync"
)

// ErrNoValue is returned by FirstValue when the publisher finishes empty.
var ErrNoValue = errors.New("stream: finished without a value")

// Sink subscribes with unlimited demand. Either callback may be nil.
// The returned cancellable ends the subscription.
func Sink[T any](p Publisher[T], onValue func(T), onCompletion func(Completion)) *AnyCancellable {
	up := &upstream{}
	p.Subscribe(&inlet[T]{
		up: up,
		next: func(v T) {
			if onValue != nil {
				onValue(v)
			}
		},
		done: func(c Completion) {
			if onCompletion != nil {
				onCompletion(c)
			}
		},
	})
	up.request(Unlimited)
	return NewAnyCancellable(up.cancel)
}

// SinkValues is Sink without a completion handler.
func SinkValues[T any](p Publisher[T], onValue func(T)) *AnyCancellable {
	return Sink(p, onValue, nil)
}

// Assign writes every value of p into prop.
func Assign[T any](p Publisher[T], prop *Property[T]) *AnyCancellable {
	return Sink(p, prop.Set, nil)
}

// Runnable is a fully-configured subscription ready to execute.
type Runnable struct {
	run func(ctx context.Context) error
}

// Run subscribes and blocks until completion, a sink error, or context
// cancellation. A sink error or cancelled context cancels the subscription.
func (r *Runnable) Run(ctx context.Context) error {
	return r.run(ctx)
}

// Drain creates a Runnable that requests one value at a time and hands
// each to sink before asking for the next.
func Drain[T any](p Publisher[T], sink func(context.Context, T) error) *Runnable {
	return &Runnable{
		run: func(ctx context.Context) error {
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			up := &upstream{}
			done := make(chan error, 1)
			finish := func(err error) {
				select {
				case done <- err:
				default:
				}
			}
			p.Subscribe(&inlet[T]{
				up: up,
				next: func(v T) {
					if err := sink(ctx, v); err != nil {
						up.cancel()
						finish(err)
						return
					}
					up.request(Max(1))
				},
				done: func(c Completion) { finish(c.Err) },
			})
			up.request(Max(1))

			select {
			case err := <-done:
				return err
			case <-ctx.Done():
				up.cancel()
				return ctx.Err()
			}
		},
	}
}

// ForEach pulls all values and calls fn for each. Convenience wrapper around Drain.
func ForEach[T any](ctx context.Context, p Publisher[T], fn func(context.Context, T) error) error {
	return Drain(p, fn).Run(ctx)
}

// ToSlice collects every value of p. On failure it returns the values
// received so far together with the error.
func ToSlice[T any](ctx context.Context, p Publisher[T]) ([]T, error) {
	var (
		mu  sync.Mutex
		out []T
	)
	err := Drain(p, func(_ context.Context, v T) error {
		mu.Lock()
		out = append(out, v)
		mu.Unlock()
		return nil
	}).Run(ctx)
	mu.Lock()
	defer mu.Unlock()
	return out, err
}

// FirstValue waits for the first value of p and cancels the subscription.
func FirstValue[T any](ctx context.Context, p Publisher[T]) (T, error) {
	var (
		mu    sync.Mutex
		first T
		found bool
	)
	errFound := errors.New("found")
	err := Drain(p, func(_ context.Context, v T) error {
		mu.Lock()
		first, found = v, true
		mu.Unlock()
		return errFound
	}).Run(ctx)
	mu.Lock()
	defer mu.Unlock()
	if found {
		return first, nil
	}
	if err == nil {
		err = ErrNoValue
	}
	return first, err
}
