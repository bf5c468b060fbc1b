package ringbus

import "time"

// Hardcoded implementation limits.
//
// These exist to keep arithmetic safely away from overflow boundaries and to
// bound resource usage for configurations nobody has fuzzed or tested. All
// limit violations are treated as configuration errors and returned wrapped
// in [ErrInvalidInput].
const (
	// maxParticipants bounds MaxPublishers and MaxSubscribers individually.
	maxParticipants = 1 << 16

	// maxConcurrentAcquiresLimit bounds Options.MaxConcurrentAcquires.
	maxConcurrentAcquiresLimit = 1 << 16

	// maxValueSizeBytes bounds unsafe.Sizeof(T) for a topic's value type.
	maxValueSizeBytes = 1 << 24 // 16 MiB

	// maxRegionSizeBytes is a safety guardrail on the total mapped region
	// size, not a RAM limit - mmap does not load the whole file eagerly, but
	// very large mappings are outside what this package implicitly supports.
	maxRegionSizeBytes = uint64(1) << 37 // 128 GiB

	// defaultJoinTimeout is used when Options.JoinTimeout is zero.
	defaultJoinTimeout = time.Second

	// defaultInitTimeout is used when Options.InitTimeout is zero.
	defaultInitTimeout = time.Second
)
