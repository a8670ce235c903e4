package stream

import "sync"

// outlet serializes signals toward one downstream subscriber and is the
// Subscription that subscriber holds. Producers on any goroutine enqueue
// values and completions; whichever caller wins the drain flag delivers
// them in order, one at a time, outside the lock.
type outlet[T any] struct {
	mu       sync.Mutex
	down     Subscriber[T]
	demand   Demand
	queue    []T
	pending  *Completion
	started  bool
	draining bool
	done     bool

	// onRequest receives demand added by Request or returned from OnValue.
	onRequest func(Demand)
	// onCancel runs once when the downstream cancels.
	onCancel func()
}

func newOutlet[T any](down Subscriber[T]) *outlet[T] {
	return &outlet[T]{down: down}
}

// start hands the subscription to the downstream and flushes anything
// queued while it was being set up.
func (o *outlet[T]) start() {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return
	}
	o.started = true
	o.draining = true
	o.mu.Unlock()

	o.down.OnSubscribe(o)

	o.mu.Lock()
	o.loop()
}

// Request adds downstream demand.
func (o *outlet[T]) Request(d Demand) {
	if d.IsNone() {
		return
	}
	o.mu.Lock()
	if o.done {
		o.mu.Unlock()
		return
	}
	o.demand = o.demand.Add(d)
	o.mu.Unlock()

	o.drain()
	if o.onRequest != nil {
		o.onRequest(d)
	}
}

// Cancel stops delivery. Only the first call has an effect.
func (o *outlet[T]) Cancel() {
	o.mu.Lock()
	if o.done {
		o.mu.Unlock()
		return
	}
	o.done = true
	o.queue = nil
	o.pending = nil
	o.mu.Unlock()
	if o.onCancel != nil {
		o.onCancel()
	}
}

// offer enqueues v if the downstream has room for it.
func (o *outlet[T]) offer(v T) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.done || o.pending != nil || !o.demand.Exceeds(len(o.queue)) {
		return false
	}
	o.queue = append(o.queue, v)
	return true
}

// Emit delivers v if there is demand for it and drops it otherwise.
func (o *outlet[T]) Emit(v T) bool {
	if !o.offer(v) {
		return false
	}
	o.drain()
	return true
}

// push buffers v regardless of demand.
func (o *outlet[T]) push(v T) {
	o.mu.Lock()
	if o.done || o.pending != nil {
		o.mu.Unlock()
		return
	}
	o.queue = append(o.queue, v)
	o.mu.Unlock()
	o.drain()
}

// replace keeps at most one undeliverable value, the latest one.
func (o *outlet[T]) replace(v T) {
	o.mu.Lock()
	if o.done || o.pending != nil {
		o.mu.Unlock()
		return
	}
	if len(o.queue) == 0 || o.demand.Exceeds(len(o.queue)) {
		o.queue = append(o.queue, v)
	} else {
		o.queue[len(o.queue)-1] = v
	}
	o.mu.Unlock()
	o.drain()
}

// swap overwrites the newest queued value when no demand covers it yet.
func (o *outlet[T]) swap(v T) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := len(o.queue)
	if o.done || o.pending != nil || n == 0 || o.demand.Exceeds(n-1) {
		return false
	}
	o.queue[n-1] = v
	return true
}

// trim drops queued values that no demand covers.
func (o *outlet[T]) trim() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if n, ok := o.demand.Count(); ok && int64(len(o.queue)) > n {
		o.queue = o.queue[:n]
	}
}

// settle records c for delivery once queued values are out, without draining.
func (o *outlet[T]) settle(c Completion) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.done || o.pending != nil {
		return false
	}
	o.pending = &c
	return true
}

// Complete delivers c after any queued values.
func (o *outlet[T]) Complete(c Completion) {
	if o.settle(c) {
		o.drain()
	}
}

// fail discards queued values and delivers Failed(err).
func (o *outlet[T]) fail(err error) {
	o.mu.Lock()
	if o.done || o.pending != nil {
		o.mu.Unlock()
		return
	}
	o.queue = nil
	c := Failed(err)
	o.pending = &c
	o.mu.Unlock()
	o.drain()
}

// outstanding is the demand not yet covered by queued values.
func (o *outlet[T]) outstanding() Demand {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.done || o.pending != nil {
		return None
	}
	return o.demand.less(len(o.queue))
}

func (o *outlet[T]) wants() bool {
	return !o.outstanding().IsNone()
}

func (o *outlet[T]) closed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.done || o.pending != nil
}

func (o *outlet[T]) drain() {
	o.mu.Lock()
	if o.draining || !o.started {
		o.mu.Unlock()
		return
	}
	o.draining = true
	o.loop()
}

// loop runs with mu held and draining set, and returns with mu released.
func (o *outlet[T]) loop() {
	var extra Demand
	for !o.done {
		if len(o.queue) > 0 && !o.demand.IsNone() {
			v := o.queue[0]
			var zero T
			o.queue[0] = zero
			o.queue = o.queue[1:]
			o.demand = o.demand.consume()
			o.mu.Unlock()

			more := o.down.OnValue(v)

			o.mu.Lock()
			if !more.IsNone() && !o.done {
				o.demand = o.demand.Add(more)
				extra = extra.Add(more)
			}
			continue
		}
		if len(o.queue) == 0 && o.pending != nil {
			c := *o.pending
			o.pending = nil
			o.done = true
			o.mu.Unlock()

			o.down.OnCompletion(c)

			o.mu.Lock()
		}
		break
	}
	o.draining = false
	o.mu.Unlock()

	if !extra.IsNone() && o.onRequest != nil {
		o.onRequest(extra)
	}
}
