package ringbus

import (
	"fmt"
	"os"
	"time"

	"github.com/ringbus/ringbus/pkg/ringbus/ringmetrics"
)

// Options configures a topic shared by every Publisher/Subscriber that
// joins it. All participating processes must construct Options with
// identical MaxPublishers, MaxSubscribers, MaxConcurrentAcquires, and
// UserVersion - these values are baked into the region's immutable header
// by whichever process wins initialization, and every later joiner's
// Options are validated against them (see [ErrIncompatible]).
type Options struct {
	// Topic names the shared region and its participant locks. Required.
	Topic string

	// MaxPublishers bounds the PublisherEntry array and the number of
	// publisher sub-ranges in the slot array. Must be > 0.
	MaxPublishers uint32

	// MaxSubscribers bounds the SubscriberEntry array and contributes to
	// SlotsPerPublisher. Must be > 0.
	MaxSubscribers uint32

	// MaxConcurrentAcquires caps how many MessageWrappers a single
	// subscriber may hold live at once. Defaults to 1.
	MaxConcurrentAcquires uint32

	// HistorySize is reserved for a future history-retention feature and
	// must be 0 in this version; non-zero is rejected at construction.
	HistorySize uint32

	// UserVersion is an opaque caller-defined schema tag persisted in the
	// header; it has no meaning to this package beyond compatibility
	// checking on open.
	UserVersion uint64

	// JoinTimeout bounds how long the participant directory scan retries
	// before returning ErrParticipantLimitExceeded. Defaults to 1s.
	JoinTimeout time.Duration

	// InitTimeout bounds how long a losing initializer spin-waits for the
	// CAS winner to finish BufferHeader initialization before returning
	// ErrInitializationTimeout. Defaults to 1s.
	InitTimeout time.Duration

	// Dir is the base directory for the region file and the participant
	// lock files. Defaults to os.TempDir().
	Dir string

	// Metrics, if non-nil, receives instrumentation events. A nil Metrics
	// is always safe to use - every call site nil-checks before recording.
	Metrics ringmetrics.Collector
}

// withDefaults returns a copy of o with zero-valued optional fields filled
// in, mirroring the defaulting pkg/slotcache's Options.normalize does for
// its own optional knobs.
func (o Options) withDefaults() Options {
	if o.MaxConcurrentAcquires == 0 {
		o.MaxConcurrentAcquires = 1
	}

	if o.JoinTimeout == 0 {
		o.JoinTimeout = defaultJoinTimeout
	}

	if o.InitTimeout == 0 {
		o.InitTimeout = defaultInitTimeout
	}

	if o.Dir == "" {
		o.Dir = os.TempDir()
	}

	return o
}

// validate checks Options against this package's documented bounds. valueSize
// is unsafe.Sizeof(T) for the caller's chosen message type.
func (o Options) validate(valueSize uint32) error {
	if o.Topic == "" {
		return fmt.Errorf("%w: Topic must not be empty", ErrInvalidInput)
	}

	if o.MaxPublishers == 0 {
		return fmt.Errorf("%w: MaxPublishers must be > 0", ErrInvalidInput)
	}

	if o.MaxSubscribers == 0 {
		return fmt.Errorf("%w: MaxSubscribers must be > 0", ErrInvalidInput)
	}

	if o.MaxPublishers > maxParticipants {
		return fmt.Errorf("%w: MaxPublishers %d exceeds limit %d", ErrInvalidInput, o.MaxPublishers, maxParticipants)
	}

	if o.MaxSubscribers > maxParticipants {
		return fmt.Errorf("%w: MaxSubscribers %d exceeds limit %d", ErrInvalidInput, o.MaxSubscribers, maxParticipants)
	}

	if o.MaxConcurrentAcquires > maxConcurrentAcquiresLimit {
		return fmt.Errorf("%w: MaxConcurrentAcquires %d exceeds limit %d", ErrInvalidInput, o.MaxConcurrentAcquires, maxConcurrentAcquiresLimit)
	}

	if o.HistorySize != 0 {
		return fmt.Errorf("%w: HistorySize is reserved and must be 0 in this version", ErrInvalidInput)
	}

	if valueSize == 0 {
		return fmt.Errorf("%w: value type must have non-zero size", ErrInvalidInput)
	}

	if valueSize > maxValueSizeBytes {
		return fmt.Errorf("%w: value type size %d exceeds limit %d", ErrInvalidInput, valueSize, maxValueSizeBytes)
	}

	return nil
}

// regionLayout is the bit-exact computation of a region's size, so every
// process computes identical offsets independently rather than one writer
// creating the file and everyone else trusting it.
type regionLayout struct {
	headerConfig
	publisherEntrySize   uint32
	subscriberEntrySize  uint32
	slotSize             uint32
	publisherArrayOffset int64
	subscriberArrayOffset int64
	slotArrayOffset      int64
	totalSize            int64
}

func computeLayout(o Options, valueSize uint32) regionLayout {
	spp := slotsPerPublisher(o.MaxSubscribers, o.MaxConcurrentAcquires)

	cfg := headerConfig{
		MaxPublishers:         o.MaxPublishers,
		MaxSubscribers:        o.MaxSubscribers,
		MaxConcurrentAcquires: o.MaxConcurrentAcquires,
		HistorySize:           o.HistorySize,
		ValueSize:             valueSize,
		SlotsPerPublisher:     spp,
		UserVersion:           o.UserVersion,
	}

	return layoutForConfig(cfg)
}

// layoutForConfig recomputes a regionLayout from a headerConfig alone - used
// both by computeLayout (fresh Options) and by Inspect, which reads the
// config back out of an already-initialized region's header instead of
// trusting a caller-supplied Options (a caller doing read-only inspection
// may not even know T, let alone MaxPublishers/MaxSubscribers).
func layoutForConfig(cfg headerConfig) regionLayout {
	pubSize := publisherEntrySize
	subSize := subscriberEntrySize
	slotSz := slotSize(cfg.ValueSize)

	publisherArrayOffset := int64(headerSize)
	subscriberArrayOffset := publisherArrayOffset + int64(cfg.MaxPublishers)*int64(pubSize)
	slotArrayOffset := subscriberArrayOffset + int64(cfg.MaxSubscribers)*int64(subSize)
	totalSlots := int64(cfg.MaxPublishers) * int64(cfg.SlotsPerPublisher)
	totalSize := slotArrayOffset + totalSlots*int64(slotSz)

	return regionLayout{
		headerConfig:          cfg,
		publisherEntrySize:    pubSize,
		subscriberEntrySize:   subSize,
		slotSize:              slotSz,
		publisherArrayOffset:  publisherArrayOffset,
		subscriberArrayOffset: subscriberArrayOffset,
		slotArrayOffset:       slotArrayOffset,
		totalSize:             totalSize,
	}
}
