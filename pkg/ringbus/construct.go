package ringbus

import "encoding/binary"

// constructRegion constructs every PublisherEntry, SubscriberEntry, and
// Slot in a freshly-created region. It runs exactly once, inside the CAS
// winner, before initialization_state is stored as Initialized.
//
// PublisherEntry/SubscriberEntry are left at their mmap zero value (which
// is already a valid "unclaimed" state - ProcessID 0, LocalNextID 0); only
// the slot array needs an explicit write, since a freshly-truncated file's
// zero bytes decode to message_id == 0, not invalidID.
func constructRegion(region []byte, layout regionLayout) {
	slotSz := int(layout.slotSize)
	totalSlots := int(layout.MaxPublishers) * int(layout.SlotsPerPublisher)
	base := int(layout.slotArrayOffset)

	for i := 0; i < totalSlots; i++ {
		off := base + i*slotSz
		binary.LittleEndian.PutUint64(region[off:off+8], invalidID)
		// active_references at region[off+8:off+16] is already 0.
	}
}
