package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeFinishesAfterAllSources(t *testing.T) {
	r := record(Merge(Sequence(1, 2), Sequence(3, 4, 5)), Unlimited)
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5}, r.Values())
	requireFinished(t, r)
}

func TestMergeInterleaves(t *testing.T) {
	a := NewPassthroughSubject[string]()
	b := NewPassthroughSubject[string]()
	r := record(Merge[string](a, b), Unlimited)

	a.Send("a1")
	b.Send("b1")
	a.Send("a2")
	a.SendCompletion(Finished)
	assert.Empty(t, r.Completions())

	b.Send("b2")
	b.SendCompletion(Finished)

	assert.Equal(t, []string{"a1", "b1", "a2", "b2"}, r.Values())
	requireFinished(t, r)
}

func TestMergeFailure(t *testing.T) {
	a := NewPassthroughSubject[int]()
	r := record(Merge[int](a, Fail[int](errBoom)), Unlimited)
	requireFailed(t, r, errBoom)
	assert.Equal(t, 0, a.Subscribers())
}

func TestMergeSharesBoundedDemand(t *testing.T) {
	a := NewPassthroughSubject[int]()
	b := NewPassthroughSubject[int]()
	r := record(Merge[int](a, b), Max(2))

	a.Send(1)
	b.Send(2)
	a.Send(3)
	b.Send(4)
	assert.Equal(t, []int{1, 2}, r.Values())

	r.Request(Max(1))
	a.Send(5)
	b.Send(6)
	assert.Len(t, r.Values(), 3)

	a.SendCompletion(Finished)
	b.SendCompletion(Finished)
	requireFinished(t, r)
}

func TestZipAll(t *testing.T) {
	r := record(ZipAll(Sequence(1, 2, 3), Sequence(10, 20, 30, 40, 50)), Unlimited)
	assert.Equal(t, [][]int{{1, 10}, {2, 20}, {3, 30}}, r.Values())
	requireFinished(t, r)
}

func TestZipAllBounded(t *testing.T) {
	r := record(ZipAll(Sequence(1, 2, 3), Sequence(10, 20, 30)), Max(2))
	assert.Equal(t, [][]int{{1, 10}, {2, 20}}, r.Values())
	assert.Empty(t, r.Completions())
}

func TestZipAllBuffersUnpairedValues(t *testing.T) {
	a := NewPassthroughSubject[int]()
	b := NewPassthroughSubject[int]()
	r := record(ZipAll[int](a, b), Unlimited)

	a.Send(1)
	a.Send(2)
	assert.Empty(t, r.Values())

	b.Send(10)
	assert.Equal(t, [][]int{{1, 10}}, r.Values())

	b.SendCompletion(Finished)
	requireFinished(t, r)
	assert.Equal(t, 0, a.Subscribers())
}

func TestZipAllFailure(t *testing.T) {
	r := record(ZipAll(Sequence(1, 2), Concat(Just(1), Fail[int](errBoom))), Unlimited)
	requireFailed(t, r, errBoom)
}

func TestZip2(t *testing.T) {
	r := record(Zip2(Sequence(1, 2, 3), Sequence("a", "b")), Unlimited)
	assert.Equal(t, []Pair[int, string]{{1, "a"}, {2, "b"}}, r.Values())
	requireFinished(t, r)
}

func TestCombineLatest2(t *testing.T) {
	a := NewPassthroughSubject[int]()
	b := NewPassthroughSubject[string]()
	r := record(CombineLatest2[int, string](a, b), Unlimited)

	a.Send(1)
	assert.Empty(t, r.Values())

	b.Send("x")
	a.Send(2)
	b.Send("y")
	assert.Equal(t, []Pair[int, string]{{1, "x"}, {2, "x"}, {2, "y"}}, r.Values())

	a.SendCompletion(Finished)
	assert.Empty(t, r.Completions())
	b.Send("z")
	b.SendCompletion(Finished)
	assert.Equal(t, Pair[int, string]{2, "z"}, r.Values()[3])
	requireFinished(t, r)
}

func TestCombineLatestCoalescesWithoutDemand(t *testing.T) {
	a := NewPassthroughSubject[int]()
	b := NewPassthroughSubject[int]()
	r := record(CombineLatestAll[int](a, b), Max(1))

	a.Send(1)
	b.Send(10)
	a.Send(2)
	a.Send(3)
	assert.Equal(t, [][]int{{1, 10}}, r.Values())

	r.Request(Max(1))
	assert.Equal(t, [][]int{{1, 10}, {3, 10}}, r.Values())
}

func TestCombineLatestSourceFinishesEmpty(t *testing.T) {
	b := NewPassthroughSubject[int]()
	r := record(CombineLatestAll[int](Empty[int](), b), Unlimited)

	assert.Empty(t, r.Values())
	requireFinished(t, r)
	assert.Equal(t, 0, b.Subscribers())
}

func TestSwitchToLatest(t *testing.T) {
	outer := NewPassthroughSubject[Publisher[int]]()
	first := NewPassthroughSubject[int]()
	second := NewPassthroughSubject[int]()
	r := record(SwitchToLatest[int](outer), Unlimited)

	outer.Send(first)
	first.Send(1)
	outer.Send(second)
	assert.Equal(t, 0, first.Subscribers())

	first.Send(2)
	second.Send(3)
	outer.SendCompletion(Finished)
	assert.Empty(t, r.Completions())

	second.SendCompletion(Finished)
	assert.Equal(t, []int{1, 3}, r.Values())
	requireFinished(t, r)
}

func TestSwitchToLatestInnerFailure(t *testing.T) {
	outer := NewPassthroughSubject[Publisher[int]]()
	r := record(SwitchToLatest[int](outer), Unlimited)

	outer.Send(Concat(Just(1), Fail[int](errBoom)))
	assert.Equal(t, []int{1}, r.Values())
	requireFailed(t, r, errBoom)
	assert.Equal(t, 0, outer.Subscribers())
}
