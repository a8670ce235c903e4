package stream

import (
	"time"

	rxerrors "github.com/kbukum/rxkit/errors"
	"github.com/kbukum/rxkit/resilience"
	"github.com/kbukum/rxkit/scheduler"
)

// Catch replaces a failed p with the publisher handler returns for the
// error. Values already delivered stay delivered.
func Catch[T any](p Publisher[T], handler func(error) Publisher[T]) Publisher[T] {
	return PublisherFunc[T](func(down Subscriber[T]) {
		caught := false
		runSwitcher(down, p, func(c Completion) Publisher[T] {
			if c.Err == nil || caught {
				return nil
			}
			caught = true
			return handler(c.Err)
		})
	})
}

// ReplaceError finishes with v in place of any failure.
func ReplaceError[T any](p Publisher[T], v T) Publisher[T] {
	return Catch(p, func(error) Publisher[T] { return Just(v) })
}

// Retry resubscribes to p up to n times after failures. Values emitted
// before a failure are not repeated to the downstream by the operator,
// though a cold p produces them again.
func Retry[T any](p Publisher[T], n int) Publisher[T] {
	return PublisherFunc[T](func(down Subscriber[T]) {
		retries := 0
		runSwitcher(down, p, func(c Completion) Publisher[T] {
			if c.Err == nil || retries >= n {
				return nil
			}
			retries++
			return p
		})
	})
}

// RetryWithBackoff resubscribes to p after failures the policy considers
// retryable, waiting on s between attempts as the policy prescribes.
func RetryWithBackoff[T any](p Publisher[T], policy resilience.RetryConfig, s scheduler.Scheduler) Publisher[T] {
	policy = policy.WithDefaults()
	return PublisherFunc[T](func(down Subscriber[T]) {
		attempt := 1
		runSwitcher(down, p, func(c Completion) Publisher[T] {
			if c.Err == nil || attempt >= policy.MaxAttempts || !policy.RetryIf(c.Err) {
				return nil
			}
			wait := resilience.Backoff(attempt, policy)
			if policy.OnRetry != nil {
				policy.OnRetry(attempt, c.Err, wait)
			}
			attempt++
			return delaySubscription(p, wait, s)
		})
	})
}

// delaySubscription subscribes to p once d has elapsed on s.
func delaySubscription[T any](p Publisher[T], d time.Duration, s scheduler.Scheduler) Publisher[T] {
	return PublisherFunc[T](func(down Subscriber[T]) {
		s.ScheduleAfter(d, func() { p.Subscribe(down) })
	})
}

// AssertNoFailure panics if p fails.
func AssertNoFailure[T any](p Publisher[T]) Publisher[T] {
	return MapError(p, func(err error) error {
		panic(rxerrors.New(rxerrors.ErrCodeUpstreamFailure, "publisher failed where no failure was expected").WithCause(err))
	})
}
