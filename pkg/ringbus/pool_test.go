package ringbus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNextPow2(t *testing.T) {
	cases := map[uint64]uint64{
		0: 2, 1: 2, 2: 2, 3: 4, 4: 4, 5: 8, 8: 8, 9: 16, 1025: 2048,
	}

	for in, want := range cases {
		require.Equal(t, want, nextPow2(in), "nextPow2(%d)", in)
	}
}

func TestSlotsPerPublisher(t *testing.T) {
	// maxSubscribers=1, maxConcurrentAcquires=1 -> needed=3 -> rounds to 4.
	require.Equal(t, uint32(4), slotsPerPublisher(1, 1))
	// maxSubscribers=2, maxConcurrentAcquires=1 -> needed=4 -> already pow2.
	require.Equal(t, uint32(4), slotsPerPublisher(2, 1))
	// maxSubscribers=3, maxConcurrentAcquires=2 -> needed=8 -> already pow2.
	require.Equal(t, uint32(8), slotsPerPublisher(3, 2))
}

func newTestPool(t *testing.T, slots uint32, valueSize uint32) slotPool {
	t.Helper()

	size := slotSize(valueSize)
	region := make([]byte, int(slots)*int(size))

	for i := uint32(0); i < slots; i++ {
		s := slot{region: region, off: int(i) * int(size), valueSize: valueSize}
		*s.messageIDPtr() = invalidID
	}

	return slotPool{
		region:            region,
		valueSize:         valueSize,
		publisherBase:     0,
		slotsPerPublisher: slots,
		slotArrayOffset:   0,
	}
}

func TestNextFreeSlotFindsFreeSlot(t *testing.T) {
	pool := newTestPool(t, 4, 8)

	var localNextID uint32

	s, globalIndex, localID := pool.nextFreeSlot(&localNextID)

	require.Equal(t, uint32(0), globalIndex)
	require.Equal(t, uint32(0), localID)
	require.Equal(t, invalidID, s.storedID())
}

// Once every slot in the sub-range is occupied, next_free_slot panics
// with a typed invariantViolation rather than looping forever or returning
// a slot still in use.
func TestNextFreeSlotPanicsWhenSubRangeExhausted(t *testing.T) {
	pool := newTestPool(t, 4, 8)

	for i := uint32(0); i < 4; i++ {
		s := pool.slotAt(i)
		s.emplace(uint64(i), []byte{1, 2, 3, 4, 5, 6, 7, 8})
	}

	var localNextID uint32

	var recovered any

	func() {
		defer func() { recovered = recover() }()
		pool.nextFreeSlot(&localNextID)
	}()

	_, ok := recovered.(*invariantViolation)
	require.True(t, ok, "expected *invariantViolation, got %T: %v", recovered, recovered)
}
