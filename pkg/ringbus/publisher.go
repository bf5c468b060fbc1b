package ringbus

import (
	"fmt"
	"time"
	"unsafe"

	"github.com/google/uuid"

	"github.com/ringbus/ringbus/pkg/fs"
	"github.com/ringbus/ringbus/pkg/ringbus/ringmetrics"
)

// Publisher is the write side of a topic. Construct one per OS process (or
// per goroutine group serialized through the same Publisher) with
// [NewPublisher]; Publish is wait-free and never blocks.
//
// Publisher is not safe for concurrent calls to Publish from multiple
// goroutines - PublisherEntry.local_next_id is non-atomic, owning-process-
// exclusive state, so callers that want concurrent publishing from one
// process should serialize their own calls (e.g. behind a channel).
type Publisher[T any] struct {
	region      *sharedRegion
	layout      regionLayout
	pool        slotPool
	entryLock   *fs.Lock
	entryIndex  uint32
	entry       publisherEntry
	prevAccess  messageAccess
	topic       string
	metrics     ringmetrics.Collector
	closed      bool
}

// NewPublisher joins topic as a publisher: it maps (creating if necessary)
// the shared region, runs the header initialization handshake if it is the
// first process to do so, claims a free PublisherEntry, and returns ready
// to Publish.
func NewPublisher[T any](opts Options) (*Publisher[T], error) {
	var zero T
	valueSize := uint32(unsafe.Sizeof(zero))

	opts = opts.withDefaults()
	if err := opts.validate(valueSize); err != nil {
		return nil, err
	}

	layout := computeLayout(opts, valueSize)

	region, err := openOrCreateRegion(opts.Dir, opts.Topic, layout.totalSize)
	if err != nil {
		return nil, err
	}

	// Best-effort: the sidecar is a diagnostic aid, not load-bearing state,
	// so a failed write here never fails the join.
	_ = writeTopicSidecar(opts.Dir, opts.Topic, layout)

	initStart := time.Now()

	if err := ensureInitialized(region.data, layout.headerConfig, opts.InitTimeout, func() {
		constructRegion(region.data, layout)
	}); err != nil {
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
	dir := newParticipantDirectory(locker, opts.Dir, opts.Topic, rolePublisher)

	idx, lk, err := dir.claim(opts.MaxPublishers, opts.JoinTimeout)
	if err != nil {
		recordParticipantLimitExceeded(opts, rolePublisher)
		_ = region.Close()
		return nil, err
	}

	entry := publisherEntryAt(layout, idx).bind(region.data)
	instanceID, _ := uuid.New().MarshalBinary()

	var instanceIDArr [16]byte
	copy(instanceIDArr[:], instanceID)
	entry.claim(idx, instanceIDArr)

	count := addPublisherCount(region.data, 1)
	recordParticipantJoined(opts, rolePublisher)

	if opts.Metrics != nil {
		opts.Metrics.ParticipantCount(opts.Topic, string(rolePublisher), count)
	}

	pool := slotPool{
		region:            region.data,
		valueSize:         valueSize,
		publisherBase:     idx * layout.SlotsPerPublisher,
		slotsPerPublisher: layout.SlotsPerPublisher,
		slotArrayOffset:   int(layout.slotArrayOffset),
	}

	return &Publisher[T]{
		region:     region,
		layout:     layout,
		pool:       pool,
		entryLock:  lk,
		entryIndex: idx,
		entry:      entry,
		topic:      opts.Topic,
		metrics:    opts.Metrics,
	}, nil
}

// Publish writes v into the publisher's next free slot and makes it visible
// to subscribers:
//
//  1. Pick the next free slot in the publisher's sub-range.
//  2. Emplace v with a global index readers will consume from
//     latest_published_idx.
//  3. Retain a private access on the just-published slot via
//     acquireUnsafe.
//  4. Store latest_published_idx (release), then fetch_add next_message_id
//     (release) - the happens-before pair subscribers rely on.
//  5. Drop the previously retained access, which decrements that slot's
//     reference count.
//
// Publish never blocks. If the publisher's sub-range has been exhausted by
// misconfiguration, next_free_slot panics with a typed invariantViolation
// rather than returning an error - an assertion failure, not a recoverable
// condition.
func (p *Publisher[T]) Publish(v T) (err error) {
	if p.closed {
		return ErrClosed
	}

	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(*invariantViolation); ok {
				if p.metrics != nil {
					p.metrics.PublishInvariantViolation(p.topic)
				}

				err = fmt.Errorf("ringbus: publish failed: %v", r)

				return
			}

			panic(r)
		}
	}()

	s, globalIndex, _ := p.pool.nextFreeSlot(p.entry.localNextIDPtr())

	value := unsafe.Slice((*byte)(unsafe.Pointer(&v)), unsafe.Sizeof(v))
	s.emplace(uint64(globalIndex), value)

	access := s.acquireUnsafe()

	storeLatestPublishedIdx(p.region.data, uint64(globalIndex))
	addNextMessageID(p.region.data, 1)

	p.entry.storeFinalPublishedIdx(globalIndex)

	p.prevAccess.Close()
	p.prevAccess = access

	if p.metrics != nil {
		p.metrics.PublishSucceeded(p.topic)
	}

	return nil
}

// Close releases the publisher's entry lock and unmaps the region. It is
// safe to call more than once.
func (p *Publisher[T]) Close() error {
	if p.closed {
		return nil
	}

	p.closed = true
	p.prevAccess.Close()

	count := addPublisherCount(p.region.data, -1)
	if p.metrics != nil {
		p.metrics.ParticipantCount(p.topic, string(rolePublisher), count)
	}

	var errs []error
	if p.entryLock != nil {
		if err := p.entryLock.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := p.region.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("closing publisher: %v", errs)
	}

	return nil
}

func recordParticipantJoined(opts Options, role participantRole) {
	if opts.Metrics != nil {
		opts.Metrics.ParticipantJoined(opts.Topic, string(role))
	}
}

func recordParticipantLimitExceeded(opts Options, role participantRole) {
	if opts.Metrics != nil {
		opts.Metrics.ParticipantLimitExceeded(opts.Topic, string(role))
	}
}
