package ringbus_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ringbus/ringbus/pkg/ringbus"
)

// P5: with a subscriber that always fetches and releases promptly, publish
// never runs out of free slots in its publisher sub-range, however many
// messages are sent - next_free_slot always finds a free slot well within
// slots_per_publisher probes.
func TestWaitFreePublishUnderPromptSubscriber(t *testing.T) {
	opts := testOptions(t, "wait-free")

	pub, err := ringbus.NewPublisher[testMessage](opts)
	require.NoError(t, err)
	defer pub.Close()

	sub, err := ringbus.NewSubscriber[testMessage](opts)
	require.NoError(t, err)
	defer sub.Close()

	for i := uint64(0); i < 10_000; i++ {
		require.NoError(t, pub.Publish(testMessage{Payload: i}))

		w, err := sub.TryFetchMessage()
		require.NoError(t, err)
		require.Equal(t, testMessage{Payload: i}, w.Value())
		w.Close()
	}
}
