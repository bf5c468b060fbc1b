package ringbus

// nextPow2 returns the smallest power of two >= x, with a floor of 2 - slot
// ranges are never smaller than 2 so local_id & wrap_mask is always well
// defined.
func nextPow2(x uint64) uint64 {
	if x < 2 {
		return 2
	}

	x--
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	x |= x >> 32

	return x + 1
}

// slotsPerPublisher computes ceil_to_power_of_two(max_subscribers *
// max_concurrent_acquires + 2) - the "+2" guarantees a free slot always
// exists: one slot to emplace now, one retained from the previous publish,
// on top of everything subscribers may pin.
func slotsPerPublisher(maxSubscribers, maxConcurrentAcquires uint32) uint32 {
	needed := uint64(maxSubscribers)*uint64(maxConcurrentAcquires) + 2
	return uint32(nextPow2(needed))
}

// slotPool is a typed view over one publisher's contiguous sub-range of the
// slot array.
type slotPool struct {
	region            []byte
	valueSize         uint32
	publisherBase     uint32 // global slot index where this sub-range begins
	slotsPerPublisher uint32 // power of two
	slotArrayOffset   int    // byte offset of slot[0] within region
}

// wrapMask returns slots_per_publisher - 1, used to fold local_id into the
// sub-range.
func (p slotPool) wrapMask() uint32 {
	return p.slotsPerPublisher - 1
}

// indexOf computes the global slot index for a local_id:
// (local_id & wrap_mask) + publisher_base_offset.
func (p slotPool) indexOf(localID uint32) uint32 {
	return (localID & p.wrapMask()) + p.publisherBase
}

// slotAt returns the byte-offset view for a global slot index.
func (p slotPool) slotAt(globalIndex uint32) slot {
	size := slotSize(p.valueSize)
	off := p.slotArrayOffset + int(globalIndex)*int(size)

	return slot{region: p.region, off: off, valueSize: p.valueSize}
}

// nextFreeSlot iterates local_id = entry.local_next_id++ probing the
// sub-range for the first slot whose stored_id() == invalidID. localNextID
// is non-atomic by design - it is owning-publisher-exclusive state, and
// Publisher serializes its own Publish calls so no concurrent writer ever
// observes it.
//
// A free slot is guaranteed within slots_per_publisher probes; finding none
// after a full scan means subscribers are pinning every slot in this
// publisher's sub-range, which can only happen if max_concurrent_acquires
// was violated upstream (prevented by Subscriber.TryFetchMessage) - treated
// as a hard invariant violation.
func (p slotPool) nextFreeSlot(localNextID *uint32) (slot, uint32, uint32) {
	for probes := uint32(0); probes < p.slotsPerPublisher; probes++ {
		localID := *localNextID
		*localNextID++

		globalIndex := p.indexOf(localID)
		s := p.slotAt(globalIndex)

		if s.storedID() == invalidID {
			return s, globalIndex, localID
		}
	}

	panic(newInvariantViolation("next_free_slot: full scan of publisher sub-range found no free slot"))
}
