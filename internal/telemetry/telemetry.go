// Package telemetry exports event manager activity as Prometheus metrics.
//
// Metrics implements event.Observer; install it with event.WithObserver.
// Queue depth and table occupancy are sampled at scrape time by
// RegisterGauges once the manager exists.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dshills/evmgr/internal/event"
)

const namespace = "evmgr"

// Metrics counts event manager activity.
type Metrics struct {
	// Resolved per priority up front so observer calls never allocate.
	queued  [2]prometheus.Counter
	dropped [2]prometheus.Counter
	retired [2]prometheus.Counter

	queuedVec  *prometheus.CounterVec
	droppedVec *prometheus.CounterVec
	retiredVec *prometheus.CounterVec

	invocations prometheus.Counter
	unhandled   prometheus.Counter
	panics      *prometheus.CounterVec
}

// New creates the event counters and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		queuedVec: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "queued_total",
			Help:      "Events accepted into a queue.",
		}, []string{"priority"}),
		droppedVec: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "dropped_total",
			Help:      "Events rejected because the queue was full.",
		}, []string{"priority"}),
		retiredVec: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "retired_total",
			Help:      "Events removed from a queue and dispatched.",
		}, []string{"priority"}),
		invocations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "listeners",
			Name:      "invocations_total",
			Help:      "Listener calls, including the default listener.",
		}),
		unhandled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "unhandled_total",
			Help:      "Retired events no listener was called for.",
		}),
		panics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "listeners",
			Name:      "panics_total",
			Help:      "Listener calls that panicked, by event code.",
		}, []string{"code"}),
	}

	for _, c := range []prometheus.Collector{m.queuedVec, m.droppedVec, m.retiredVec, m.invocations, m.unhandled, m.panics} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	for _, pri := range []event.Priority{event.PriorityLow, event.PriorityHigh} {
		m.queued[pri] = m.queuedVec.WithLabelValues(pri.String())
		m.dropped[pri] = m.droppedVec.WithLabelValues(pri.String())
		m.retired[pri] = m.retiredVec.WithLabelValues(pri.String())
	}
	return m, nil
}

// EventQueued implements event.Observer.
func (m *Metrics) EventQueued(pri event.Priority, code int) {
	m.queued[index(pri)].Inc()
}

// EventDropped implements event.Observer.
func (m *Metrics) EventDropped(pri event.Priority, code int) {
	m.dropped[index(pri)].Inc()
}

// EventRetired implements event.Observer.
func (m *Metrics) EventRetired(pri event.Priority, code, invocations int) {
	m.retired[index(pri)].Inc()
	if invocations == 0 {
		m.unhandled.Inc()
		return
	}
	m.invocations.Add(float64(invocations))
}

// ListenerPanicked implements event.Observer.
func (m *Metrics) ListenerPanicked(code int) {
	m.panics.WithLabelValues(event.CodeName(code)).Inc()
}

func index(pri event.Priority) int {
	if pri == event.PriorityHigh {
		return 1
	}
	return 0
}

// Sampler is the read-only manager surface the gauges sample.
type Sampler interface {
	NumEventsInQueue(pri event.Priority) int
	EventQueueCapacity() int
	NumListeners() int
	Capacity() int
}

// RegisterGauges registers gauges that read queue depth and dispatch table
// occupancy from s at scrape time.
func RegisterGauges(reg prometheus.Registerer, s Sampler) error {
	gauges := []prometheus.Collector{
		queueDepthGauge(s, event.PriorityHigh),
		queueDepthGauge(s, event.PriorityLow),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "capacity",
			Help:      "Slots in each event queue.",
		}, func() float64 { return float64(s.EventQueueCapacity()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "listeners",
			Name:      "registered",
			Help:      "Occupied dispatch table slots.",
		}, func() float64 { return float64(s.NumListeners()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "listeners",
			Name:      "capacity",
			Help:      "Dispatch table slots.",
		}, func() float64 { return float64(s.Capacity()) }),
	}

	for _, g := range gauges {
		if err := reg.Register(g); err != nil {
			return err
		}
	}
	return nil
}

func queueDepthGauge(s Sampler, pri event.Priority) prometheus.GaugeFunc {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   namespace,
		Subsystem:   "queue",
		Name:        "depth",
		Help:        "Events waiting in the queue.",
		ConstLabels: prometheus.Labels{"priority": pri.String()},
	}, func() float64 { return float64(s.NumEventsInQueue(pri)) })
}
