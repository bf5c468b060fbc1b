// Package ringmetrics provides optional Prometheus instrumentation for
// ringbus endpoints. The core protocol in pkg/ringbus never depends on this
// package directly holding state - every Collector method call is nil-safe,
// so Options.Metrics can be left unset in latency-critical deployments.
package ringmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector receives instrumentation events from Publisher and Subscriber.
// A nil Collector is valid everywhere this interface is accepted - callers
// should check for nil before recording rather than requiring a no-op
// implementation.
type Collector interface {
	PublishSucceeded(topic string)
	PublishInvariantViolation(topic string)
	FetchSucceeded(topic string)
	FetchNoMessage(topic string)
	AcquireLimitExceeded(topic string)
	ParticipantJoined(topic, role string)
	ParticipantLimitExceeded(topic, role string)

	// ParticipantCount reports the live count of the given role (after a
	// join or a Close) so the current gauge value always matches the
	// region header's own PublisherCount/SubscriberCount fields.
	ParticipantCount(topic, role string, count uint32)

	// InitWaitObserved records how long a join spent inside the
	// initialization handshake (zero for the CAS winner, which never
	// spin-waits; up to InitTimeout for a loser racing it).
	InitWaitObserved(topic string, d time.Duration)
}

// Prometheus is a Collector backed by client_golang counters/gauges/
// histograms, registered against the default registry via promauto.
type Prometheus struct {
	publishTotal              *prometheus.CounterVec
	publishInvariantViolation *prometheus.CounterVec
	fetchTotal                *prometheus.CounterVec
	acquireLimitExceeded      *prometheus.CounterVec
	participantsJoined        *prometheus.CounterVec
	participantLimitExceeded  *prometheus.CounterVec
	participantCount          *prometheus.GaugeVec
	initWaitSeconds           *prometheus.HistogramVec
}

// NewPrometheus registers ringbus's metric set and returns a Collector.
// Safe to call once per process; registering twice against the same
// registry panics, consistent with promauto's own behavior.
func NewPrometheus() *Prometheus {
	return &Prometheus{
		publishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ringbus_publish_total",
			Help: "Total number of successful Publish calls.",
		}, []string{"topic"}),
		publishInvariantViolation: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ringbus_publish_invariant_violation_total",
			Help: "Total number of Publish calls that hit the next_free_slot invariant violation.",
		}, []string{"topic"}),
		fetchTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ringbus_fetch_total",
			Help: "Total number of fetch attempts, labeled by outcome.",
		}, []string{"topic", "outcome"}),
		acquireLimitExceeded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ringbus_acquire_limit_exceeded_total",
			Help: "Total number of fetches rejected by the per-subscriber acquire cap.",
		}, []string{"topic"}),
		participantsJoined: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ringbus_participants_joined_total",
			Help: "Total number of publishers/subscribers that successfully claimed a directory entry.",
		}, []string{"topic", "role"}),
		participantLimitExceeded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ringbus_participant_limit_exceeded_total",
			Help: "Total number of joins that failed because no directory entry was free.",
		}, []string{"topic", "role"}),
		participantCount: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ringbus_participants",
			Help: "Current number of live publishers/subscribers, per the region header's own counters.",
		}, []string{"topic", "role"}),
		initWaitSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ringbus_init_wait_seconds",
			Help:    "Time a join spent in the cross-process initialization handshake.",
			Buckets: prometheus.DefBuckets,
		}, []string{"topic"}),
	}
}

func (p *Prometheus) PublishSucceeded(topic string) {
	p.publishTotal.WithLabelValues(topic).Inc()
}

func (p *Prometheus) PublishInvariantViolation(topic string) {
	p.publishInvariantViolation.WithLabelValues(topic).Inc()
}

func (p *Prometheus) FetchSucceeded(topic string) {
	p.fetchTotal.WithLabelValues(topic, "success").Inc()
}

func (p *Prometheus) FetchNoMessage(topic string) {
	p.fetchTotal.WithLabelValues(topic, "no_message").Inc()
}

func (p *Prometheus) AcquireLimitExceeded(topic string) {
	p.acquireLimitExceeded.WithLabelValues(topic).Inc()
}

func (p *Prometheus) ParticipantJoined(topic, role string) {
	p.participantsJoined.WithLabelValues(topic, role).Inc()
}

func (p *Prometheus) ParticipantLimitExceeded(topic, role string) {
	p.participantLimitExceeded.WithLabelValues(topic, role).Inc()
}

func (p *Prometheus) ParticipantCount(topic, role string, count uint32) {
	p.participantCount.WithLabelValues(topic, role).Set(float64(count))
}

func (p *Prometheus) InitWaitObserved(topic string, d time.Duration) {
	p.initWaitSeconds.WithLabelValues(topic).Observe(d.Seconds())
}

var _ Collector = (*Prometheus)(nil)
