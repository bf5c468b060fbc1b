package ringbus_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ringbus/ringbus/pkg/ringbus"
)

// P2: two successful publishes from the same publisher produce slots with
// distinct message_id values - observable here as distinct successive
// next_message_id-driven fetches, since message_id is never exposed
// directly by the public API.
func TestPublishUniqueness(t *testing.T) {
	opts := testOptions(t, "uniqueness")
	opts.MaxConcurrentAcquires = 2

	pub, err := ringbus.NewPublisher[testMessage](opts)
	require.NoError(t, err)
	defer pub.Close()

	sub, err := ringbus.NewSubscriber[testMessage](opts)
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, pub.Publish(testMessage{Payload: 1}))

	w1, err := sub.TryFetchMessage()
	require.NoError(t, err)

	require.NoError(t, pub.Publish(testMessage{Payload: 2}))

	w2, err := sub.TryFetchMessage()
	require.NoError(t, err)

	require.NotEqual(t, w1.Value(), w2.Value())

	w1.Close()
	w2.Close()
}
