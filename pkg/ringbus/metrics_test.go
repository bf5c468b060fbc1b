package ringbus_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ringbus/ringbus/pkg/ringbus"
)

// fakeCollector records every call it receives, guarded by a mutex since
// Publisher/Subscriber may report from different goroutines in a test.
type fakeCollector struct {
	mu sync.Mutex

	participantCounts map[string]uint32
	initWaits         []time.Duration
	joins             int
}

func newFakeCollector() *fakeCollector {
	return &fakeCollector{participantCounts: map[string]uint32{}}
}

func (f *fakeCollector) PublishSucceeded(string)                 {}
func (f *fakeCollector) PublishInvariantViolation(string)        {}
func (f *fakeCollector) FetchSucceeded(string)                   {}
func (f *fakeCollector) FetchNoMessage(string)                   {}
func (f *fakeCollector) AcquireLimitExceeded(string)              {}
func (f *fakeCollector) ParticipantLimitExceeded(string, string) {}

func (f *fakeCollector) ParticipantJoined(string, string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.joins++
}

func (f *fakeCollector) ParticipantCount(topic, role string, count uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.participantCounts[topic+"/"+role] = count
}

func (f *fakeCollector) InitWaitObserved(_ string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.initWaits = append(f.initWaits, d)
}

func (f *fakeCollector) countFor(topic, role string) (uint32, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.participantCounts[topic+"/"+role]

	return v, ok
}

func (f *fakeCollector) initWaitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.initWaits)
}

func TestMetricsReportsParticipantCountOnJoinAndClose(t *testing.T) {
	collector := newFakeCollector()
	opts := testOptions(t, "metrics-demo")
	opts.Metrics = collector

	pub, err := ringbus.NewPublisher[testMessage](opts)
	require.NoError(t, err)

	count, ok := collector.countFor("metrics-demo", "publisher")
	require.True(t, ok)
	require.Equal(t, uint32(1), count)

	sub, err := ringbus.NewSubscriber[testMessage](opts)
	require.NoError(t, err)

	count, ok = collector.countFor("metrics-demo", "subscriber")
	require.True(t, ok)
	require.Equal(t, uint32(1), count)

	require.NoError(t, sub.Close())

	count, ok = collector.countFor("metrics-demo", "subscriber")
	require.True(t, ok)
	require.Equal(t, uint32(0), count)

	require.NoError(t, pub.Close())

	count, ok = collector.countFor("metrics-demo", "publisher")
	require.True(t, ok)
	require.Equal(t, uint32(0), count)
}

func TestMetricsObservesInitWaitOnJoin(t *testing.T) {
	collector := newFakeCollector()
	opts := testOptions(t, "metrics-initwait")
	opts.Metrics = collector

	pub, err := ringbus.NewPublisher[testMessage](opts)
	require.NoError(t, err)
	defer pub.Close()

	require.Equal(t, 1, collector.initWaitCount())

	sub, err := ringbus.NewSubscriber[testMessage](opts)
	require.NoError(t, err)
	defer sub.Close()

	require.Equal(t, 2, collector.initWaitCount())
}
