package ringbus_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ringbus/ringbus/pkg/ringbus"
)

// Scenario 3 / P4: acquire cap enforcement.
func TestAcquireCapEnforcement(t *testing.T) {
	opts := testOptions(t, "acquire-cap")

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

	_, err = sub.TryFetchMessage()
	require.ErrorIs(t, err, ringbus.ErrAcquireLimitExceeded)

	w1.Close()

	w2, err := sub.TryFetchMessage()
	require.NoError(t, err)
	require.Equal(t, testMessage{Payload: 2}, w2.Value())
	w2.Close()
}

// P4 generalized: the acquire cap holds for MaxConcurrentAcquires > 1 too -
// the (N+1)th concurrently live wrapper is always rejected regardless of N.
func TestAcquireCapHoldsAboveOne(t *testing.T) {
	opts := testOptions(t, "acquire-cap-n")
	opts.MaxConcurrentAcquires = 3

	pub, err := ringbus.NewPublisher[testMessage](opts)
	require.NoError(t, err)
	defer pub.Close()

	sub, err := ringbus.NewSubscriber[testMessage](opts)
	require.NoError(t, err)
	defer sub.Close()

	var held []ringbus.MessageWrapper[testMessage]

	for i := uint64(0); i < 3; i++ {
		require.NoError(t, pub.Publish(testMessage{Payload: i}))

		w, err := sub.TryFetchMessage()
		require.NoError(t, err)

		held = append(held, w)
	}

	require.NoError(t, pub.Publish(testMessage{Payload: 99}))

	_, err = sub.TryFetchMessage()
	require.ErrorIs(t, err, ringbus.ErrAcquireLimitExceeded)

	for i := range held {
		held[i].Close()
	}
}
