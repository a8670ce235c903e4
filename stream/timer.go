package stream

import (
	"sync/atomic"
	"time"

	"github.com/kbukum/rxkit/scheduler"
)

// Tick is a value produced by Timer and Interval. Seq counts ticks from
// zero; At is the scheduler time the tick fired.
type Tick struct {
	Seq int
	At  time.Time
}

// Timer emits one Tick after the given duration on s and finishes. Each
// subscription starts its own timer.
func Timer(s scheduler.Scheduler, after time.Duration) Publisher[Tick] {
	return PublisherFunc[Tick](func(down Subscriber[Tick]) {
		out := newOutlet(down)
		t := s.ScheduleAfter(after, func() {
			out.push(Tick{At: s.Now()})
			out.Complete(Finished)
		})
		out.onCancel = t.Cancel
		out.start()
	})
}

// ticks emits a Tick every interval on s until cancelled. Ticks that fire
// without demand are dropped.
func ticks(s scheduler.Scheduler, every time.Duration) Publisher[Tick] {
	return PublisherFunc[Tick](func(down Subscriber[Tick]) {
		out := newOutlet(down)
		var seq atomic.Int64
		t := s.ScheduleRepeating(every, func() {
			n := seq.Add(1) - 1
			out.Emit(Tick{Seq: int(n), At: s.Now()})
		})
		out.onCancel = t.Cancel
		out.start()
	})
}

// Interval is a shared ticker that starts on Connect. Wrap it with
// Autoconnect to start it with the first subscriber. Subscribers see the
// ticks that fire while they are attached and have demand.
func Interval(s scheduler.Scheduler, every time.Duration) Connectable[Tick] {
	return Multicast(ticks(s, every), func() Subject[Tick] {
		return NewPassthroughSubject[Tick]()
	})
}
