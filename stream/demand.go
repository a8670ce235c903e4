package stream

import (
	"math"
	"strconv"

	rxerrors "github.com/kbukum/rxkit/errors"
)

// Demand is the number of values a subscriber is prepared to receive.
// It is either unlimited or a finite, non-negative count.
type Demand struct {
	n         int64
	unlimited bool
}

var (
	// Unlimited requests every value the publisher can produce.
	Unlimited = Demand{unlimited: true}
	// None requests nothing further.
	None = Demand{}
)

// Max returns a finite demand of n values. A negative n is a protocol violation.
func Max(n int) Demand {
	if n < 0 {
		panic(rxerrors.ProtocolViolation("negative demand %d", n))
	}
	return Demand{n: int64(n)}
}

// IsUnlimited reports whether d places no bound on values.
func (d Demand) IsUnlimited() bool { return d.unlimited }

// IsNone reports whether d requests nothing.
func (d Demand) IsNone() bool { return !d.unlimited && d.n == 0 }

// Count returns the finite count. ok is false for Unlimited.
func (d Demand) Count() (n int64, ok bool) {
	if d.unlimited {
		return 0, false
	}
	return d.n, true
}

// Add returns d plus o, saturating at Unlimited.
func (d Demand) Add(o Demand) Demand {
	if d.unlimited || o.unlimited {
		return Unlimited
	}
	if d.n > math.MaxInt64-o.n {
		return Unlimited
	}
	return Demand{n: d.n + o.n}
}

// Times returns d multiplied by k, saturating at Unlimited.
func (d Demand) Times(k int) Demand {
	if k < 0 {
		panic(rxerrors.ProtocolViolation("negative demand multiplier %d", k))
	}
	if d.unlimited {
		return Unlimited
	}
	if k == 0 || d.n == 0 {
		return None
	}
	if d.n > math.MaxInt64/int64(k) {
		return Unlimited
	}
	return Demand{n: d.n * int64(k)}
}

// Exceeds reports whether d allows more than n values.
func (d Demand) Exceeds(n int) bool {
	return d.unlimited || d.n > int64(n)
}

// less returns d minus n, never below zero.
func (d Demand) less(n int) Demand {
	if d.unlimited {
		return d
	}
	if int64(n) >= d.n {
		return None
	}
	return Demand{n: d.n - int64(n)}
}

// consume takes one unit of demand for a delivered value.
func (d Demand) consume() Demand {
	if d.unlimited {
		return d
	}
	if d.n == 0 {
		panic(rxerrors.ProtocolViolation("value delivered without outstanding demand"))
	}
	return Demand{n: d.n - 1}
}

func (d Demand) String() string {
	if d.unlimited {
		return "unlimited"
	}
	return "max(" + strconv.FormatInt(d.n, 10) + ")"
}
