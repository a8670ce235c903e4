package stream

import "sync"

// Change is one update to a Property.
type Change[T any] struct {
	Old T
	New T
}

// Property is a mutable field whose owner publishes every write.
type Property[T any] struct {
	mu      sync.Mutex
	current T
	value   *CurrentValueSubject[T]
	changes *PassthroughSubject[Change[T]]
}

// NewProperty creates a Property holding initial.
func NewProperty[T any](initial T) *Property[T] {
	return &Property[T]{
		current: initial,
		value:   NewCurrentValueSubject(initial),
		changes: NewPassthroughSubject[Change[T]](),
	}
}

// Get returns the current value.
func (p *Property[T]) Get() T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Set stores v and notifies observers. Observers run on the caller's
// goroutine and may read or write the property.
func (p *Property[T]) Set(v T) {
	p.mu.Lock()
	old := p.current
	p.current = v
	p.mu.Unlock()

	p.value.Send(v)
	p.changes.Send(Change[T]{Old: old, New: v})
}

// Publisher emits the current value followed by every later write.
func (p *Property[T]) Publisher() Publisher[T] { return p.value }

// Updates emits only writes made after subscription.
func (p *Property[T]) Updates() Publisher[T] {
	return Map(p.changes, func(c Change[T]) T { return c.New })
}

// WithPrior emits each write together with the value it replaced.
func (p *Property[T]) WithPrior() Publisher[Change[T]] { return p.changes }

// Close completes every observer. Later writes still update Get.
func (p *Property[T]) Close() {
	p.value.SendCompletion(Finished)
	p.changes.SendCompletion(Finished)
}
