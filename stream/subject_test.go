package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassthroughSubjectBroadcasts(t *testing.T) {
	s := NewPassthroughSubject[int]()
	a := record[int](s, Unlimited)
	b := record[int](s, Unlimited)
	assert.Equal(t, 2, s.Subscribers())

	s.Send(1)
	s.Send(2)
	s.SendCompletion(Finished)

	assert.Equal(t, []int{1, 2}, a.Values())
	assert.Equal(t, []int{1, 2}, b.Values())
	requireFinished(t, a)
	requireFinished(t, b)
	assert.Equal(t, 0, s.Subscribers())
}

func TestPassthroughSubjectDropsWithoutDemand(t *testing.T) {
	s := NewPassthroughSubject[int]()
	r := record[int](s, None)

	s.Send(1)
	r.Request(Max(1))
	s.Send(2)
	s.Send(3)

	assert.Equal(t, []int{2}, r.Values())
}

func TestPassthroughSubjectLateSubscriber(t *testing.T) {
	s := NewPassthroughSubject[int]()
	early := record[int](s, Unlimited)
	s.Send(1)

	late := record[int](s, Unlimited)
	s.Send(2)
	s.SendCompletion(Failed(errBoom))
	s.Send(3)

	assert.Equal(t, []int{1, 2}, early.Values())
	assert.Equal(t, []int{2}, late.Values())
	requireFailed(t, late, errBoom)

	after := record[int](s, Unlimited)
	assert.Empty(t, after.Values())
	requireFailed(t, after, errBoom)
}

func TestPassthroughSubjectCancel(t *testing.T) {
	s := NewPassthroughSubject[int]()
	r := record[int](s, Unlimited)
	s.Send(1)
	r.Cancel()
	s.Send(2)

	assert.Equal(t, []int{1}, r.Values())
	assert.Empty(t, r.Completions())
	assert.Equal(t, 0, s.Subscribers())
}

func TestSubjectAsSubscriber(t *testing.T) {
	s := NewPassthroughSubject[int]()
	r := record[int](s, Unlimited)

	Sequence(1, 2, 3).Subscribe(s)

	assert.Equal(t, []int{1, 2, 3}, r.Values())
	requireFinished(t, r)
}

func TestCurrentValueSubject(t *testing.T) {
	s := NewCurrentValueSubject(0)
	r := record[int](s, Unlimited)
	assert.Equal(t, []int{0}, r.Values())

	s.Send(1)
	assert.Equal(t, []int{0, 1}, r.Values())
	assert.Equal(t, 1, s.Value())

	late := record[int](s, Unlimited)
	assert.Equal(t, []int{1}, late.Values())

	s.SendCompletion(Finished)
	s.Send(2)
	assert.Equal(t, 1, s.Value())
	requireFinished(t, r)
	requireFinished(t, late)
}

func TestCurrentValueSubjectKeepsLatestUntilDemand(t *testing.T) {
	s := NewCurrentValueSubject("a")
	r := record[string](s, None)

	s.Send("b")
	s.Send("c")
	assert.Empty(t, r.Values())

	r.Request(Max(1))
	assert.Equal(t, []string{"c"}, r.Values())
}

func TestCurrentValueSubjectAfterCompletion(t *testing.T) {
	s := NewCurrentValueSubject(7)
	s.SendCompletion(Finished)

	r := record[int](s, Unlimited)
	assert.Empty(t, r.Values())
	requireFinished(t, r)
}

func passthroughFactory[T any]() func() Subject[T] {
	return func() Subject[T] { return NewPassthroughSubject[T]() }
}

func TestMulticastWaitsForConnect(t *testing.T) {
	m := Multicast(Sequence(1, 2, 3), passthroughFactory[int]())
	a := record[int](m, Unlimited)
	b := record[int](m, Unlimited)
	assert.Empty(t, a.Values())

	m.Connect()

	assert.Equal(t, []int{1, 2, 3}, a.Values())
	assert.Equal(t, []int{1, 2, 3}, b.Values())
	requireFinished(t, a)
	requireFinished(t, b)

	late := record[int](m, Unlimited)
	assert.Empty(t, late.Values())
	requireFinished(t, late)
}

func TestMulticastConnectIsIdempotent(t *testing.T) {
	src := NewPassthroughSubject[int]()
	m := Multicast[int](src, passthroughFactory[int]())

	c1 := m.Connect()
	c2 := m.Connect()
	assert.Same(t, c1, c2)
	assert.Equal(t, 1, src.Subscribers())

	r := record[int](m, Unlimited)
	src.Send(5)
	assert.Equal(t, []int{5}, r.Values())

	c1.Cancel()
	assert.Equal(t, 0, src.Subscribers())

	// A new connection feeds the same subject.
	m.Connect()
	assert.Equal(t, 1, src.Subscribers())
	src.Send(6)
	assert.Equal(t, []int{5, 6}, r.Values())
}

func TestShareRunsUpstreamOnce(t *testing.T) {
	src := NewPassthroughSubject[int]()
	shared := Share[int](src)

	a := record(shared, Unlimited)
	b := record(shared, Unlimited)
	assert.Equal(t, 1, src.Subscribers())

	src.Send(1)
	src.Send(2)
	assert.Equal(t, []int{1, 2}, a.Values())
	assert.Equal(t, []int{1, 2}, b.Values())

	b.Cancel()
	assert.Equal(t, 1, src.Subscribers())
	a.Cancel()
	assert.Equal(t, 0, src.Subscribers())
}

func TestShareDeliversSameCompletion(t *testing.T) {
	tests := []struct {
		name string
		c    Completion
	}{
		{"finished", Finished},
		{"failed", Failed(errBoom)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewPassthroughSubject[int]()
			shared := Share[int](src)
			a := record(shared, Unlimited)
			b := record(shared, Unlimited)

			src.Send(1)
			src.SendCompletion(tt.c)

			assert.Equal(t, []int{1}, a.Values())
			assert.Equal(t, a.Values(), b.Values())
			require.Len(t, a.Completions(), 1)
			require.Len(t, b.Completions(), 1)
			assert.Equal(t, tt.c, a.Completions()[0])
			assert.Equal(t, tt.c, b.Completions()[0])

			late := record(shared, Unlimited)
			assert.Empty(t, late.Values())
			require.Len(t, late.Completions(), 1)
		})
	}
}

func TestShareLateSubscriberGetsCompletion(t *testing.T) {
	subscriptions := 0
	shared := Share(Deferred(func() Publisher[int] {
		subscriptions++
		return Sequence(1, 2, 3)
	}))

	first := record(shared, Unlimited)
	assert.Equal(t, []int{1, 2, 3}, first.Values())
	requireFinished(t, first)

	late := record(shared, Unlimited)
	assert.Empty(t, late.Values())
	requireFinished(t, late)
	assert.Equal(t, 1, subscriptions)
}

func TestAutoconnectReconnects(t *testing.T) {
	src := NewPassthroughSubject[int]()
	auto := Autoconnect(Multicast[int](src, passthroughFactory[int]()))

	r := record(auto, Unlimited)
	require.Equal(t, 1, src.Subscribers())
	r.Cancel()
	require.Equal(t, 0, src.Subscribers())

	again := record(auto, Unlimited)
	assert.Equal(t, 1, src.Subscribers())
	src.Send(3)
	assert.Equal(t, []int{3}, again.Values())
}

func TestAutoconnectReleasesFinishedSubscribers(t *testing.T) {
	src := NewPassthroughSubject[int]()
	auto := Autoconnect(Multicast[int](src, passthroughFactory[int]())).(*autoconnect[int])

	a := record[int](auto, Unlimited)
	b := record[int](auto, Unlimited)
	assert.Equal(t, 2, auto.live())

	src.SendCompletion(Finished)
	requireFinished(t, a)
	requireFinished(t, b)
	assert.Equal(t, 0, auto.live())

	b.Cancel()
	assert.Equal(t, 0, auto.live())

	late := record[int](auto, Unlimited)
	requireFinished(t, late)
	assert.Equal(t, 0, auto.live())
	assert.Equal(t, 0, src.Subscribers())
}

func TestProperty(t *testing.T) {
	p := NewProperty(1)
	assert.Equal(t, 1, p.Get())

	values := record(p.Publisher(), Unlimited)
	updates := record(p.Updates(), Unlimited)
	changes := record(p.WithPrior(), Unlimited)

	p.Set(2)
	p.Set(3)

	assert.Equal(t, 3, p.Get())
	assert.Equal(t, []int{1, 2, 3}, values.Values())
	assert.Equal(t, []int{2, 3}, updates.Values())
	assert.Equal(t, []Change[int]{{Old: 1, New: 2}, {Old: 2, New: 3}}, changes.Values())

	p.Close()
	requireFinished(t, values)
	requireFinished(t, updates)
	requireFinished(t, changes)

	p.Set(4)
	assert.Equal(t, 4, p.Get())
	assert.Equal(t, []int{1, 2, 3}, values.Values())
}

func TestPropertyObserverCanWrite(t *testing.T) {
	p := NewProperty(0)
	SinkValues(p.Updates(), func(v int) {
		if v < 3 {
			p.Set(v + 1)
		}
	})
	p.Set(1)
	assert.Equal(t, 3, p.Get())
}
