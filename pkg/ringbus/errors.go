package ringbus

import "errors"

// Error classification.
//
// Implementations MAY wrap these with additional context via fmt.Errorf's
// %w. Callers MUST classify errors using errors.Is.
var (
	// ErrShmOpen indicates the underlying shared region could not be
	// opened or created, or is too small for the requested options.
	// Fatal at endpoint construction.
	ErrShmOpen = errors.New("ringbus: shared region open/create failed")

	// ErrInitializationTimeout indicates the region's initialization state
	// did not reach Initialized before the configured deadline. Recoverable
	// by the caller via retry.
	ErrInitializationTimeout = errors.New("ringbus: buffer header initialization timed out")

	// ErrParticipantLimitExceeded indicates the directory scan could not
	// claim a free publisher/subscriber entry within the join deadline.
	// Recoverable.
	ErrParticipantLimitExceeded = errors.New("ringbus: no free participant entry")

	// ErrNoMessageAvailable indicates TryFetchMessage found no message
	// newer than the subscriber's next_expected counter. Expected,
	// non-fatal.
	ErrNoMessageAvailable = errors.New("ringbus: no message available")

	// ErrAcquireLimitExceeded indicates the subscriber already holds
	// MaxConcurrentAcquires live MessageWrappers. The caller must drop one
	// before retrying.
	ErrAcquireLimitExceeded = errors.New("ringbus: acquire limit exceeded")

	// ErrClosed indicates the endpoint was already closed.
	ErrClosed = errors.New("ringbus: endpoint closed")

	// ErrIncompatible indicates the region's persisted header does not
	// match the requested Options (size, ValueSize, version).
	ErrIncompatible = errors.New("ringbus: incompatible region (size/type/version mismatch)")

	// ErrCorrupt indicates the region's header failed CRC validation or has
	// non-zero reserved bytes.
	ErrCorrupt = errors.New("ringbus: corrupt region header")

	// ErrInvalidInput indicates an Options field is missing or out of the
	// bounds this package supports.
	ErrInvalidInput = errors.New("ringbus: invalid input")
)

// invariantViolation is raised via panic when a documented v1 invariant is
// breached - in practice, a misconfiguration (MaxConcurrentAcquires set too
// high relative to SlotsPerPublisher, or a crashed subscriber leaking pins)
// rather than a condition callers can recover from. Publish recovers this at
// the API boundary only to attach context; it is not a normal error path.
type invariantViolation struct {
	msg string
}

func (e *invariantViolation) Error() string {
	return "ringbus: invariant violation: " + e.msg
}

func newInvariantViolation(msg string) *invariantViolation {
	return &invariantViolation{msg: msg}
}
