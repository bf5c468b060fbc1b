package ringbus

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func testHeaderConfig() headerConfig {
	return headerConfig{
		MaxPublishers:         2,
		MaxSubscribers:        4,
		MaxConcurrentAcquires: 1,
		ValueSize:             8,
		SlotsPerPublisher:     8,
		UserVersion:           7,
	}
}

func TestEncodeDecodeHeaderConfigRoundTrips(t *testing.T) {
	buf := make([]byte, headerSize)
	cfg := testHeaderConfig()

	encodeHeaderConfig(buf, cfg)

	got := decodeHeaderConfig(buf)
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Fatalf("decodeHeaderConfig round-trip mismatch (-want +got):\n%s", diff)
	}
	require.True(t, validateHeaderCRC(buf))
}

func TestValidateHeaderCRCDetectsCorruption(t *testing.T) {
	buf := make([]byte, headerSize)
	encodeHeaderConfig(buf, testHeaderConfig())

	buf[offMaxPublishers] ^= 0xFF

	require.False(t, validateHeaderCRC(buf))
}

// CRC must stay valid even after the mutable/atomic fields change - only
// the immutable configuration is covered by the checksum.
func TestHeaderCRCIgnoresMutableFields(t *testing.T) {
	buf := make([]byte, headerSize)
	encodeHeaderConfig(buf, testHeaderConfig())

	storeNextMessageID(buf, 123)
	storeLatestPublishedIdx(buf, 456)
	addPublisherCount(buf, 1)
	addSubscriberCount(buf, 2)
	casInitState(buf, stateUninitialized, stateInitialized)

	require.True(t, validateHeaderCRC(buf))
}

func TestHasReservedBytesSet(t *testing.T) {
	buf := make([]byte, headerSize)
	encodeHeaderConfig(buf, testHeaderConfig())

	require.False(t, hasReservedBytesSet(buf))

	buf[offReservedStart] = 1
	require.True(t, hasReservedBytesSet(buf))
}

func TestValidateHeaderCompat(t *testing.T) {
	buf := make([]byte, headerSize)
	cfg := testHeaderConfig()
	encodeHeaderConfig(buf, cfg)

	require.NoError(t, validateHeaderCompat(buf, cfg))

	other := cfg
	other.MaxPublishers = 99
	require.ErrorIs(t, validateHeaderCompat(buf, other), ErrIncompatible)
}

func TestEnsureInitializedRunsConstructOnce(t *testing.T) {
	buf := make([]byte, headerSize)
	cfg := testHeaderConfig()

	var constructCalls int

	err := ensureInitialized(buf, cfg, time.Second, func() { constructCalls++ })
	require.NoError(t, err)
	require.Equal(t, 1, constructCalls)
	require.Equal(t, stateInitialized, loadInitState(buf))

	// A second call against an already-initialized buffer is a no-op.
	err = ensureInitialized(buf, cfg, time.Second, func() { constructCalls++ })
	require.NoError(t, err)
	require.Equal(t, 1, constructCalls)
}

func TestEnsureInitializedLoserWaitsForWinner(t *testing.T) {
	buf := make([]byte, headerSize)
	cfg := testHeaderConfig()

	// Simulate a concurrent winner: mark in-progress without finishing.
	require.True(t, casInitState(buf, stateUninitialized, stateInProgress))

	err := ensureInitialized(buf, cfg, 10*time.Millisecond, func() {})
	require.ErrorIs(t, err, ErrInitializationTimeout)
}
