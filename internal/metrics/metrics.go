// Package metrics exposes Prometheus collectors for the bridge. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "callbridge"

const (
	OutcomeQueued   = "queued"
	OutcomeBuffered = "buffered"
	OutcomeDropped  = "dropped"
	OutcomeFailed   = "failed"
)

type Metrics struct {
	eventsTotal      *prometheus.CounterVec
	stateTransitions *prometheus.CounterVec
	payloadsTotal    *prometheus.CounterVec
	relayOverwrites  prometheus.Counter
	subscribers      prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		eventsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "events_total",
			Help:      "Events handed to the dispatcher by kind and outcome",
		}, []string{"kind", "outcome"}),
		stateTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "call",
			Name:      "state_transitions_total",
			Help:      "Call session state transitions",
		}, []string{"from_state", "to_state"}),
		payloadsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "push",
			Name:      "payloads_total",
			Help:      "Push payloads received by classification",
		}, []string{"class"}),
		relayOverwrites: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "overwrites_total",
			Help:      "Pending notifications replaced before a subscriber attached",
		}),
		subscribers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "subscriber_attached",
			Help:      "1 when a subscriber is attached",
		}),
	}
}

func (m *Metrics) Event(kind, outcome string) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) Transition(from, to string) {
	if m == nil {
		return
	}
	m.stateTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) Payload(class string) {
	if m == nil {
		return
	}
	m.payloadsTotal.WithLabelValues(class).Inc()
}

func (m *Metrics) RelayOverwrite() {
	if m == nil {
		return
	}
	m.relayOverwrites.Inc()
}

func (m *Metrics) SubscriberAttached(attached bool) {
	if m == nil {
		return
	}
	if attached {
		m.subscribers.Set(1)
		return
	}
	m.subscribers.Set(0)
}
