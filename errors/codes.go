package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Stream failures (delivered downstream as a Failed completion)
const (
	// ErrCodeUpstreamFailure indicates the work behind a publisher failed.
	ErrCodeUpstreamFailure ErrorCode = "UPSTREAM_FAILURE"
	// ErrCodeTimeout indicates a timer expired before the upstream produced a signal.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeDecodeFailure indicates an external payload could not be decoded into a typed value.
	ErrCodeDecodeFailure ErrorCode = "DECODE_FAILURE"
)

// Programmer errors (never retried, surfaced loudly)
const (
	// ErrCodeProtocolViolation indicates a breach of the publisher/subscriber contract.
	ErrCodeProtocolViolation ErrorCode = "PROTOCOL_VIOLATION"
	// ErrCodeInvalidInput indicates invalid configuration or arguments.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeUpstreamFailure:   true,
	ErrCodeTimeout:           true,
	ErrCodeDecodeFailure:     false,
	ErrCodeProtocolViolation: false,
	ErrCodeInternal:          false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
