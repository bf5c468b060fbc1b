package ringbus

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/google/uuid"

	"github.com/ringbus/ringbus/pkg/fs"
	"github.com/ringbus/ringbus/pkg/ringbus/ringmetrics"
)

// Subscriber is the read side of a topic. Construct one
// per OS process with [NewSubscriber]; TryFetchMessage/AwaitMessage are
// safe to call from a single goroutine at a time per Subscriber (the
// acquire-credit bookkeeping is not itself synchronized across goroutines,
// mirroring Publisher's single-caller discipline).
type Subscriber[T any] struct {
	region            *sharedRegion
	layout            regionLayout
	valueSize         uint32
	entryLock         *fs.Lock
	entryIndex        uint32
	nextExpected      uint64
	availableAcquires int64
	maxAcquires       int64
	topic             string
	metrics           ringmetrics.Collector
	closed            bool
}

// NewSubscriber joins topic as a subscriber: map the region (waiting for
// initialization if it hasn't happened yet), claim a free SubscriberEntry,
// and snapshot the global message counter as next_expected so the
// subscriber only observes messages published after it joined.
func NewSubscriber[T any](opts Options) (*Subscriber[T], error) {
	var zero T
	valueSize := uint32(unsafe.Sizeof(zero))

	opts = opts.withDefaults()
	if err := opts.validate(valueSize); err != nil {
		return nil, err
	}

	layout := computeLayout(opts, valueSize)
	initStart := time.Now()

	region, err := openRegion(opts.Dir, opts.Topic, layout.totalSize)
	if err != nil {
		if region, err = waitForRegionInitialization(opts, layout); err != nil {
			return nil, err
		}
	} else if err := waitForInitializationState(region.data, opts.InitTimeout); err != nil {
		_ = region.Close()
		return nil, err
	}

	if opts.Metrics != nil {
		opts.Metrics.InitWaitObserved(opts.Topic, time.Since(initStart))
	}

	if err := validateHeaderCompat(region.data, layout.headerConfig); err != nil {
		_ = region.Close()
		return nil, err
	}

	locker := fs.NewLocker(fs.NewReal())
	dir := newParticipantDirectory(locker, opts.Dir, opts.Topic, roleSubscriber)

	idx, lk, err := dir.claim(opts.MaxSubscribers, opts.JoinTimeout)
	if err != nil {
		recordParticipantLimitExceeded(opts, roleSubscriber)
		_ = region.Close()
		return nil, err
	}

	entry := subscriberEntryAt(layout, idx).bind(region.data)
	instanceID, _ := uuid.New().MarshalBinary()

	var instanceIDArr [16]byte
	copy(instanceIDArr[:], instanceID)
	entry.claim(idx, instanceIDArr)

	count := addSubscriberCount(region.data, 1)
	recordParticipantJoined(opts, roleSubscriber)

	if opts.Metrics != nil {
		opts.Metrics.ParticipantCount(opts.Topic, string(roleSubscriber), count)
	}

	return &Subscriber[T]{
		region:            region,
		layout:            layout,
		valueSize:         valueSize,
		entryLock:         lk,
		entryIndex:        idx,
		nextExpected:      loadNextMessageID(region.data),
		availableAcquires: int64(opts.MaxConcurrentAcquires),
		maxAcquires:       int64(opts.MaxConcurrentAcquires),
		topic:             opts.Topic,
		metrics:           opts.Metrics,
	}, nil
}

// waitForRegionInitialization retries opening the region file itself - a
// subscriber may race a publisher that has not yet created the backing
// file at all, which is a plain ErrShmOpen from openRegion rather than an
// uninitialized-but-present header.
func waitForRegionInitialization(opts Options, layout regionLayout) (*sharedRegion, error) {
	deadline := time.Now().Add(opts.InitTimeout)

	for {
		region, err := openRegion(opts.Dir, opts.Topic, layout.totalSize)
		if err == nil {
			return region, nil
		}

		if time.Now().After(deadline) {
			return nil, ErrInitializationTimeout
		}

		time.Sleep(time.Millisecond)
	}
}

func waitForInitializationState(region []byte, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for {
		if loadInitState(region) == stateInitialized {
			return nil
		}

		if time.Now().After(deadline) {
			return ErrInitializationTimeout
		}

		runtime.Gosched()
	}
}

func (s *Subscriber[T]) slotAt(globalIndex uint32) slot {
	off := int(s.layout.slotArrayOffset) + int(globalIndex)*int(s.layout.slotSize)
	return slot{region: s.region.data, off: off, valueSize: s.valueSize}
}

// TryFetchMessage implements the non-blocking fetch protocol:
//
//  1. Acquire-load next_message_id; if unchanged since next_expected,
//     ErrNoMessageAvailable.
//  2. Acquire-load latest_published_idx and try to acquire that slot.
//  3. If the slot was recycled between steps 1 and 2, ErrNoMessageAvailable.
//  4. Enforce the per-subscriber acquire cap, undoing the acquire on
//     overflow.
//  5. Advance next_expected and return a MessageWrapper.
func (s *Subscriber[T]) TryFetchMessage() (MessageWrapper[T], error) {
	if s.closed {
		return MessageWrapper[T]{}, ErrClosed
	}

	current := loadNextMessageID(s.region.data)
	if current == s.nextExpected {
		s.recordFetch(false)
		return MessageWrapper[T]{}, ErrNoMessageAvailable
	}

	globalIndex := loadLatestPublishedIdx(s.region.data)

	access, ok := s.slotAt(uint32(globalIndex)).acquire()
	if !ok {
		s.recordFetch(false)
		return MessageWrapper[T]{}, ErrNoMessageAvailable
	}

	if atomic.AddInt64(&s.availableAcquires, -1) < 0 {
		atomic.AddInt64(&s.availableAcquires, 1)
		access.Close()

		if s.metrics != nil {
			s.metrics.AcquireLimitExceeded(s.topic)
		}

		return MessageWrapper[T]{}, ErrAcquireLimitExceeded
	}

	s.nextExpected = current
	s.recordFetch(true)

	return MessageWrapper[T]{sub: s, access: access}, nil
}

func (s *Subscriber[T]) recordFetch(success bool) {
	if s.metrics == nil {
		return
	}

	if success {
		s.metrics.FetchSucceeded(s.topic)
	} else {
		s.metrics.FetchNoMessage(s.topic)
	}
}

// AwaitMessage busy-retries TryFetchMessage until a message arrives or ctx
// is done.
func (s *Subscriber[T]) AwaitMessage(ctx context.Context) (MessageWrapper[T], error) {
	for {
		w, err := s.TryFetchMessage()
		if err == nil {
			return w, nil
		}

		if !errors.Is(err, ErrNoMessageAvailable) {
			return MessageWrapper[T]{}, err
		}

		select {
		case <-ctx.Done():
			return MessageWrapper[T]{}, ctx.Err()
		default:
			runtime.Gosched()
		}
	}
}

// AwaitMessageUntil is AwaitMessage bounded by a wall-clock deadline instead
// of a context, for callers that prefer a deadline-based signature
// directly.
func (s *Subscriber[T]) AwaitMessageUntil(deadline time.Time) (MessageWrapper[T], error) {
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()

	return s.AwaitMessage(ctx)
}

// Close releases the subscriber's entry lock and unmaps the region. Safe to
// call more than once.
func (s *Subscriber[T]) Close() error {
	if s.closed {
		return nil
	}

	s.closed = true

	count := addSubscriberCount(s.region.data, -1)
	if s.metrics != nil {
		s.metrics.ParticipantCount(s.topic, string(roleSubscriber), count)
	}

	var errs []error
	if s.entryLock != nil {
		if err := s.entryLock.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := s.region.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("closing subscriber: %v", errs)
	}

	return nil
}

// MessageWrapper is the scoped handle TryFetchMessage/AwaitMessage return.
// Value copies out the message; Close releases the slot reference and
// restores the subscriber's acquire credit - it must be called exactly
// once.
type MessageWrapper[T any] struct {
	sub    *Subscriber[T]
	access messageAccess
}

// Value copies the fetched message out of shared memory. Safe to call any
// number of times before Close.
func (w MessageWrapper[T]) Value() T {
	var v T

	if !w.access.valid() {
		return v
	}

	dst := unsafe.Slice((*byte)(unsafe.Pointer(&v)), unsafe.Sizeof(v))
	copy(dst, w.access.value())

	return v
}

// Close releases the slot reference this wrapper holds and restores the
// subscriber's acquire credit. Safe to call on the zero value and safe to
// call more than once.
func (w *MessageWrapper[T]) Close() {
	if !w.access.valid() {
		return
	}

	w.access.Close()

	if w.sub != nil {
		atomic.AddInt64(&w.sub.availableAcquires, 1)
	}
}
