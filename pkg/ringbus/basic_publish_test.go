package ringbus_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ringbus/ringbus/pkg/ringbus"
)

type testMessage struct {
	Payload uint64
}

func testOptions(t *testing.T, topic string) ringbus.Options {
	t.Helper()

	return ringbus.Options{
		Topic:                 topic,
		MaxPublishers:         1,
		MaxSubscribers:        1,
		MaxConcurrentAcquires: 1,
		Dir:                   t.TempDir(),
	}
}

// Scenario 1: basic publish-receive.
func TestBasicPublishReceive(t *testing.T) {
	opts := testOptions(t, "demo")

	pub, err := ringbus.NewPublisher[testMessage](opts)
	require.NoError(t, err)
	defer pub.Close()

	sub, err := ringbus.NewSubscriber[testMessage](opts)
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, pub.Publish(testMessage{Payload: 42}))

	wrapper, err := sub.TryFetchMessage()
	require.NoError(t, err)

	require.Equal(t, testMessage{Payload: 42}, wrapper.Value())

	wrapper.Close()

	_, err = sub.TryFetchMessage()
	require.ErrorIs(t, err, ringbus.ErrNoMessageAvailable)
}
