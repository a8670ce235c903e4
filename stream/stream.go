package stream

import (
	"sync"

	"github.com/google/uuid"
)

// Subscription links one publisher to one subscriber.
type Subscription interface {
	// Request adds demand. It is additive and never withdraws demand.
	Request(d Demand)
	// Cancel stops delivery and releases the publisher's resources for this
	// subscription. Calling it more than once has no further effect.
	Cancel()
}

// Subscriber consumes a publisher's values.
type Subscriber[T any] interface {
	// OnSubscribe hands over the subscription. Nothing is delivered until
	// the subscriber requests demand through it.
	OnSubscribe(s Subscription)
	// OnValue delivers one value and returns additional demand.
	OnValue(v T) Demand
	// OnCompletion delivers the terminal signal, at most once.
	OnCompletion(c Completion)
}

// Publisher is a source of typed values ending in at most one Completion.
type Publisher[T any] interface {
	Subscribe(s Subscriber[T])
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc[T any] func(s Subscriber[T])

// Subscribe calls f(s).
func (f PublisherFunc[T]) Subscribe(s Subscriber[T]) { f(s) }

// Cancellable is anything that can be cancelled.
type Cancellable interface {
	Cancel()
}

// CombineID identifies a subscription for logging and set membership.
type CombineID = uuid.UUID

// NewCombineID returns a fresh random identifier.
func NewCombineID() CombineID { return uuid.New() }

// SubscriberFuncs builds a Subscriber from functions. Nil fields are no-ops;
// a nil OnValueFunc requests no further demand.
type SubscriberFuncs[T any] struct {
	OnSubscribeFunc  func(s Subscription)
	OnValueFunc      func(v T) Demand
	OnCompletionFunc func(c Completion)
}

func (f SubscriberFuncs[T]) OnSubscribe(s Subscription) {
	if f.OnSubscribeFunc != nil {
		f.OnSubscribeFunc(s)
	}
}

func (f SubscriberFuncs[T]) OnValue(v T) Demand {
	if f.OnValueFunc != nil {
		return f.OnValueFunc(v)
	}
	return None
}

func (f SubscriberFuncs[T]) OnCompletion(c Completion) {
	if f.OnCompletionFunc != nil {
		f.OnCompletionFunc(c)
	}
}

// AnyCancellable runs a cancel function at most once.
type AnyCancellable struct {
	once   sync.Once
	cancel func()
}

// NewAnyCancellable wraps fn.
func NewAnyCancellable(fn func()) *AnyCancellable {
	return &AnyCancellable{cancel: fn}
}

// Cancel runs the wrapped function the first time it is called.
func (a *AnyCancellable) Cancel() {
	a.once.Do(func() {
		if a.cancel != nil {
			a.cancel()
		}
	})
}

// Store adds a to bag and returns a.
func (a *AnyCancellable) Store(bag *CancelBag) *AnyCancellable {
	bag.Store(a)
	return a
}

// CancelBag collects cancellables so they can be released together.
type CancelBag struct {
	mu    sync.Mutex
	items []Cancellable
}

// Store adds c to the bag.
func (b *CancelBag) Store(c Cancellable) {
	b.mu.Lock()
	b.items = append(b.items, c)
	b.mu.Unlock()
}

// Len returns the number of stored cancellables.
func (b *CancelBag) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// CancelAll cancels every stored item and empties the bag.
func (b *CancelBag) CancelAll() {
	b.mu.Lock()
	items := b.items
	b.items = nil
	b.mu.Unlock()
	for _, c := range items {
		c.Cancel()
	}
}
