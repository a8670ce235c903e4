// Package resilience provides retry policies with exponential backoff.
//
// A RetryConfig drives the resubscribing stream.RetryWithBackoff operator:
//
//	cfg := resilience.DefaultRetryConfig()
//	p = stream.RetryWithBackoff(p, cfg, sched)
//
// DefaultRetryIf consults the error taxonomy in package errors: codes
// marked retryable are retried, decode failures and protocol violations
// are not, even when wrapped inside an upstream failure.
package resilience
