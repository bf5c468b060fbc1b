package ringbus

import (
	"sync/atomic"
	"unsafe"
)

// slotHeaderSize is the fixed metadata prefix of every slot: message_id (8
// bytes, plain) followed by active_references (8 bytes, atomic). The value
// storage for T follows immediately after.
const slotHeaderSize = 16

// slotSize returns the total byte size of one Slot<T>, the value storage
// padded up to an 8-byte boundary so the next slot's atomic fields stay
// naturally aligned.
func slotSize(valueSize uint32) uint32 {
	return slotHeaderSize + align8(valueSize)
}

func align8(x uint32) uint32 {
	return (x + 7) &^ 7
}

// slot is a byte-offset view into the mmap'd slot array. It owns no memory
// itself; region is the full mapped buffer and off is this slot's start
// offset within it.
type slot struct {
	region    []byte
	off       int
	valueSize uint32
}

func (s slot) messageIDPtr() *uint64 {
	return (*uint64)(unsafe.Pointer(&s.region[s.off]))
}

func (s slot) activeReferencesPtr() *uint64 {
	return (*uint64)(unsafe.Pointer(&s.region[s.off+8]))
}

func (s slot) valueBytes() []byte {
	start := s.off + slotHeaderSize
	end := start + int(s.valueSize)
	return s.region[start:end:end]
}

// storedID is a plain, non-atomic read. Readers use it after a successful
// acquire to detect that the slot was recycled out from under them.
func (s slot) storedID() uint64 {
	return *s.messageIDPtr()
}

// emplace is publisher-only: the caller has already observed this slot free
// (message_id == invalidID && active_references == 0). It copies
// valueBytes into the slot's storage and stores messageID last. No ordering
// is required between the two writes - the slot only becomes observable to
// readers once the publisher stores latest_published_idx with release
// semantics in Publisher.Publish.
func (s slot) emplace(messageID uint64, value []byte) {
	copy(s.valueBytes(), value)
	*s.messageIDPtr() = messageID
}

// acquire increments active_references with acquire ordering and re-checks
// message_id. If the slot was concurrently freed (message_id == invalidID),
// the increment is undone and acquire reports failure via ok=false.
func (s slot) acquire() (messageAccess, bool) {
	n := atomic.AddUint64(s.activeReferencesPtr(), 1)
	if n < 1 {
		panic(newInvariantViolation("active_references underflowed on acquire"))
	}

	if s.storedID() == invalidID {
		atomic.AddUint64(s.activeReferencesPtr(), ^uint64(0)) // -1
		return messageAccess{}, false
	}

	return messageAccess{slot: s}, true
}

// acquireUnsafe is the publisher-only fast path called immediately after
// emplace: no subscriber can race yet because the slot has not been
// published, so the increment is unconditional.
func (s slot) acquireUnsafe() messageAccess {
	atomic.AddUint64(s.activeReferencesPtr(), 1)
	return messageAccess{slot: s}
}

// release decrements active_references with release ordering. When the
// pre-decrement value was 1 (this was the last reference), the stored value
// is retired and message_id is reset to invalidID so the slot becomes
// eligible for reuse.
func (s slot) release() {
	prev := atomic.AddUint64(s.activeReferencesPtr(), ^uint64(0)) + 1
	if prev == 1 {
		*s.messageIDPtr() = invalidID
	}
}

// messageAccess is the scoped handle that pins a slot's value against reuse
// while it is live, using explicit Close instead of a destructor. It must
// be closed exactly once on every exit path.
type messageAccess struct {
	slot slot
}

// valid reports whether this access actually borrows a slot (the zero value
// does not, and Close on it is a no-op).
func (a messageAccess) valid() bool {
	return a.slot.region != nil
}

// value returns a view of the slot's raw value bytes. Only safe to read
// while this messageAccess has not been closed.
func (a messageAccess) value() []byte {
	return a.slot.valueBytes()
}

// Close releases the reference this access holds. Safe to call on the zero
// value and safe to call more than once.
func (a *messageAccess) Close() {
	if !a.valid() {
		return
	}

	a.slot.release()
	a.slot = slot{}
}
