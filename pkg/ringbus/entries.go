package ringbus

import (
	"encoding/binary"
	"os"
	"sync/atomic"
	"time"
	"unsafe"
)

// processID returns the calling process's OS PID, recorded in participant
// entries at claim time.
func processID() int {
	return os.Getpid()
}

// PublisherEntry / SubscriberEntry field offsets, each entry padded to 64
// bytes so neighboring entries' atomic fields never share a cache line.
const (
	publisherEntrySize = 64

	pubOffProcessID         = 0x00 // uint64
	pubOffCreationTimestamp = 0x08 // int64
	pubOffLocalNextID       = 0x10 // uint32, non-atomic, owner-exclusive
	pubOffID                = 0x14 // uint32
	pubOffFinalPublishedIdx = 0x18 // atomic uint64, written by Close, unread by v1
	pubOffInstanceID        = 0x20 // [16]byte

	subscriberEntrySize = 64

	subOffProcessID         = 0x00 // uint64
	subOffCreationTimestamp = 0x08 // int64
	subOffID                = 0x10 // uint32
	subOffInstanceID        = 0x18 // [16]byte
)

// publisherEntry is a byte-offset view into one slot of the PublisherEntry
// array.
type publisherEntry struct {
	region []byte
	off    int64
}

func publisherEntryAt(layout regionLayout, idx uint32) publisherEntry {
	off := layout.publisherArrayOffset + int64(idx)*int64(layout.publisherEntrySize)
	return publisherEntry{off: off}
}

func (e publisherEntry) bind(region []byte) publisherEntry {
	e.region = region
	return e
}

func (e publisherEntry) bytes(rel int, n int) []byte {
	start := int(e.off) + rel
	return e.region[start : start+n]
}

// claim stamps this entry as owned by the calling process, at endpoint
// construction.
func (e publisherEntry) claim(idx uint32, instanceID [16]byte) {
	binary.LittleEndian.PutUint64(e.bytes(pubOffProcessID, 8), uint64(processID()))
	binary.LittleEndian.PutUint64(e.bytes(pubOffCreationTimestamp, 8), uint64(time.Now().UnixNano()))
	binary.LittleEndian.PutUint32(e.bytes(pubOffLocalNextID, 4), 0)
	binary.LittleEndian.PutUint32(e.bytes(pubOffID, 4), idx)
	atomic.StoreUint64((*uint64)(unsafe.Pointer(&e.region[int(e.off)+pubOffFinalPublishedIdx])), invalidID)
	copy(e.bytes(pubOffInstanceID, 16), instanceID[:])
}

// localNextIDPtr exposes the owning-publisher-exclusive local counter used
// by slotPool.nextFreeSlot.
func (e publisherEntry) localNextIDPtr() *uint32 {
	return (*uint32)(unsafe.Pointer(&e.region[int(e.off)+pubOffLocalNextID]))
}

// storeFinalPublishedIdx records the last slot this publisher published,
// for the reaper / future tooling - no subscriber-facing API reads this.
func (e publisherEntry) storeFinalPublishedIdx(idx uint32) {
	atomic.StoreUint64((*uint64)(unsafe.Pointer(&e.region[int(e.off)+pubOffFinalPublishedIdx])), uint64(idx))
}

func (e publisherEntry) processID() uint64 {
	return binary.LittleEndian.Uint64(e.bytes(pubOffProcessID, 8))
}

// subscriberEntry is a byte-offset view into one slot of the SubscriberEntry
// array.
type subscriberEntry struct {
	region []byte
	off    int64
}

func subscriberEntryAt(layout regionLayout, idx uint32) subscriberEntry {
	off := layout.subscriberArrayOffset + int64(idx)*int64(layout.subscriberEntrySize)
	return subscriberEntry{off: off}
}

func (e subscriberEntry) bind(region []byte) subscriberEntry {
	e.region = region
	return e
}

func (e subscriberEntry) bytes(rel int, n int) []byte {
	start := int(e.off) + rel
	return e.region[start : start+n]
}

func (e subscriberEntry) claim(idx uint32, instanceID [16]byte) {
	binary.LittleEndian.PutUint64(e.bytes(subOffProcessID, 8), uint64(processID()))
	binary.LittleEndian.PutUint64(e.bytes(subOffCreationTimestamp, 8), uint64(time.Now().UnixNano()))
	binary.LittleEndian.PutUint32(e.bytes(subOffID, 4), idx)
	copy(e.bytes(subOffInstanceID, 16), instanceID[:])
}

func (e subscriberEntry) processID() uint64 {
	return binary.LittleEndian.Uint64(e.bytes(subOffProcessID, 8))
}
