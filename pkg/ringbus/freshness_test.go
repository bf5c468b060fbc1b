package ringbus_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ringbus/ringbus/pkg/ringbus"
)

// P1 / P3: a subscriber that joins mid-stream and fetches continuously
// while a publisher concurrently publishes strictly increasing payloads
// must never observe a payload smaller than the last one it already saw -
// any stale or use-after-freed slot value would show up as a regression or
// a torn/garbage value here.
func TestFreshnessUnderConcurrentPublish(t *testing.T) {
	opts := ringbus.Options{
		Topic:                 "freshness",
		MaxPublishers:         1,
		MaxSubscribers:        1,
		MaxConcurrentAcquires: 1,
		Dir:                   t.TempDir(),
	}

	pub, err := ringbus.NewPublisher[testMessage](opts)
	require.NoError(t, err)
	defer pub.Close()

	const totalPublishes = 5000

	var published int64

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()

		for i := uint64(1); i <= totalPublishes; i++ {
			_ = pub.Publish(testMessage{Payload: i})
			atomic.StoreInt64(&published, int64(i))
		}
	}()

	// Give the publisher a head start so the subscriber genuinely joins
	// mid-stream, per the scenario's "joins after some publishes" shape.
	time.Sleep(time.Millisecond)

	sub, err := ringbus.NewSubscriber[testMessage](opts)
	require.NoError(t, err)
	defer sub.Close()

	var last uint64

	for atomic.LoadInt64(&published) < totalPublishes {
		w, err := sub.TryFetchMessage()
		if err != nil {
			continue
		}

		got := w.Value().Payload
		w.Close()

		require.GreaterOrEqual(t, got, last)

		last = got
	}

	wg.Wait()
}
