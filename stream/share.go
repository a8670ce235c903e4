package stream

import (
	"sync"

	"github.com/kbukum/rxkit/logger"
)

// Connectable is a publisher whose upstream work starts only on Connect.
type Connectable[T any] interface {
	Publisher[T]
	// Connect subscribes the shared subject to the upstream. Calling it
	// while connected returns the existing connection.
	Connect() Cancellable
}

// Multicast shares one execution of p among all subscribers through the
// subject built by makeSubject. Nothing runs until Connect, so every
// subscriber attached before Connect sees the whole sequence.
func Multicast[T any](p Publisher[T], makeSubject func() Subject[T]) Connectable[T] {
	return &multicast[T]{upstream: p, makeSubject: makeSubject}
}

type multicast[T any] struct {
	upstream    Publisher[T]
	makeSubject func() Subject[T]

	mu      sync.Mutex
	subject Subject[T]
	conn    *connection[T]
}

func (m *multicast[T]) lazySubject() Subject[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subject == nil {
		m.subject = m.makeSubject()
	}
	return m.subject
}

func (m *multicast[T]) Subscribe(down Subscriber[T]) {
	m.lazySubject().Subscribe(down)
}

func (m *multicast[T]) Connect() Cancellable {
	subject := m.lazySubject()
	m.mu.Lock()
	if m.conn != nil {
		c := m.conn
		m.mu.Unlock()
		return c
	}
	c := &connection[T]{subject: subject}
	c.release = func() {
		m.mu.Lock()
		if m.conn == c {
			m.conn = nil
		}
		m.mu.Unlock()
	}
	m.conn = c
	m.mu.Unlock()

	log := logger.Get(logger.ComponentStream)
	log.Debug("multicast connected")
	m.upstream.Subscribe(c)
	return c
}

// connection feeds upstream signals into a subject.
type connection[T any] struct {
	subject Subject[T]
	up      upstream
	release func()
	once    sync.Once
}

func (c *connection[T]) OnSubscribe(s Subscription) {
	c.up.set(s)
	c.up.request(Unlimited)
}

func (c *connection[T]) OnValue(v T) Demand {
	if c.up.received() {
		c.subject.Send(v)
	}
	return None
}

func (c *connection[T]) OnCompletion(comp Completion) {
	if c.up.finish() {
		c.subject.SendCompletion(comp)
	}
}

// Cancel disconnects from the upstream. The subject is left as is, so a
// later Connect resubscribes it.
func (c *connection[T]) Cancel() {
	c.once.Do(func() {
		c.up.cancel()
		c.release()
	})
}

// Autoconnect connects c when the first subscriber arrives and cancels the
// connection when the last live subscriber cancels. Once the shared stream
// has completed the connection is kept, so later subscribers get only the
// completion.
func Autoconnect[T any](c Connectable[T]) Publisher[T] {
	return &autoconnect[T]{source: c}
}

type autoconnect[T any] struct {
	source Connectable[T]

	mu        sync.Mutex
	refs      int
	conn      Cancellable
	completed bool
}

func (a *autoconnect[T]) Subscribe(down Subscriber[T]) {
	a.mu.Lock()
	a.refs++
	first := a.conn == nil
	a.mu.Unlock()

	a.source.Subscribe(&refSubscriber[T]{Subscriber: down, release: a.release})
	if !first {
		return
	}
	conn := a.source.Connect()
	a.mu.Lock()
	a.conn = conn
	a.mu.Unlock()
}

// live returns the number of subscribers that have neither cancelled nor
// completed.
func (a *autoconnect[T]) live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.refs
}

func (a *autoconnect[T]) release(completed bool) {
	a.mu.Lock()
	a.refs--
	if completed {
		a.completed = true
	}
	if a.refs > 0 || a.conn == nil || a.completed {
		a.mu.Unlock()
		return
	}
	conn := a.conn
	a.conn = nil
	a.mu.Unlock()
	logger.Get(logger.ComponentStream).Debug("autoconnect released last subscriber")
	conn.Cancel()
}

// refSubscriber reports to its autoconnect when the downstream cancels or
// completes, whichever comes first.
type refSubscriber[T any] struct {
	Subscriber[T]
	release func(completed bool)
	once    sync.Once
}

func (r *refSubscriber[T]) drop(completed bool) {
	r.once.Do(func() { r.release(completed) })
}

func (r *refSubscriber[T]) OnSubscribe(s Subscription) {
	r.Subscriber.OnSubscribe(&refSubscription{Subscription: s, ref: r.drop})
}

func (r *refSubscriber[T]) OnCompletion(c Completion) {
	r.drop(true)
	r.Subscriber.OnCompletion(c)
}

type refSubscription struct {
	Subscription
	ref func(completed bool)
}

func (r *refSubscription) Cancel() {
	r.Subscription.Cancel()
	r.ref(false)
}

// Share runs p once for all concurrent subscribers. The first subscriber
// connects it; with a synchronous upstream that subscriber can receive
// everything before a second one attaches. Use Multicast and Connect when
// all subscribers must see the full sequence. Subscribers that attach
// after the upstream completed receive only the completion.
func Share[T any](p Publisher[T]) Publisher[T] {
	return Autoconnect(Multicast(p, func() Subject[T] {
		return NewPassthroughSubject[T]()
	}))
}
