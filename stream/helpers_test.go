package stream

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"

	"github.com/kbukum/rxkit/scheduler"
)

// recorder is a Subscriber that records every signal. It requests initial
// on subscribe and perValue after each value.
type recorder[T any] struct {
	initial  Demand
	perValue Demand

	mu          sync.Mutex
	sub         Subscription
	values      []T
	completions []Completion
}

func record[T any](p Publisher[T], initial Demand) *recorder[T] {
	r := &recorder[T]{initial: initial}
	p.Subscribe(r)
	return r
}

func (r *recorder[T]) OnSubscribe(s Subscription) {
	r.mu.Lock()
	r.sub = s
	r.mu.Unlock()
	if !r.initial.IsNone() {
		s.Request(r.initial)
	}
}

func (r *recorder[T]) OnValue(v T) Demand {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
	return r.perValue
}

func (r *recorder[T]) OnCompletion(c Completion) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completions = append(r.completions, c)
}

func (r *recorder[T]) Values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.values...)
}

func (r *recorder[T]) Completions() []Completion {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Completion(nil), r.completions...)
}

func (r *recorder[T]) Done() bool {
	return len(r.Completions()) > 0
}

func (r *recorder[T]) Request(d Demand) {
	r.mu.Lock()
	s := r.sub
	r.mu.Unlock()
	s.Request(d)
}

func (r *recorder[T]) Cancel() {
	r.mu.Lock()
	s := r.sub
	r.mu.Unlock()
	s.Cancel()
}

// requireFinished asserts that r got exactly one completion and that it
// is Finished.
func requireFinished[T any](t *testing.T, r *recorder[T]) {
	t.Helper()
	cs := r.Completions()
	require.Len(t, cs, 1)
	require.True(t, cs[0].IsFinished(), "completion: %v", cs[0])
}

func requireFailed[T any](t *testing.T, r *recorder[T], err error) {
	t.Helper()
	cs := r.Completions()
	require.Len(t, cs, 1)
	require.ErrorIs(t, cs[0].Err, err)
}

// fakeScheduler runs timed actions when the fake clock is advanced.
func fakeScheduler() (*scheduler.Immediate, *clockz.FakeClock) {
	clock := clockz.NewFakeClock()
	return scheduler.NewImmediate(clock), clock
}

// advance moves the clock forward and waits for the timers it fired.
func advance(clock *clockz.FakeClock, d time.Duration) {
	clock.Advance(d)
	clock.BlockUntilReady()
}

// eventually waits for cond, which timer callbacks make true.
func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, time.Second, time.Millisecond)
}

// advanceUntil keeps moving the clock forward by step until cond holds.
// It suits timers that are armed from other timer callbacks.
func advanceUntil(t *testing.T, clock *clockz.FakeClock, step time.Duration, cond func() bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		if cond() {
			return true
		}
		advance(clock, step)
		return cond()
	}, time.Second, time.Millisecond)
}
