// Package errors provides the error taxonomy shared by rxkit packages.
//
// Failures that travel down a stream (upstream, timeout and decode failures)
// are represented as *AppError values wrapped in a Failed completion.
// Protocol violations are programmer errors: the stream package panics with
// an *AppError carrying ErrCodeProtocolViolation instead of delivering them.
package errors
