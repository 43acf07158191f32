// Package natmetrics exposes per-instance bridge statistics through a
// prometheus.Collector: a struct of *prometheus.Desc fields filled in on
// scrape from a live snapshot rather than kept as standing
// prometheus.Gauge/Counter objects.
package natmetrics

import "github.com/prometheus/client_golang/prometheus"

// Snapshot is a point-in-time read of one instance's counters.
type Snapshot struct {
	InFlightPackets        uint64
	WakeupBytesOutstanding uint64
	PollRounds             uint64
	PollFailures           uint64
	EngineQueueDepth       int
	ReceiveQueueDepth      int
}

// Collector reads Snapshot on every scrape; it holds no running state of
// its own besides the closure that produces one.
type Collector struct {
	snapshot func() Snapshot

	instance string

	inFlightPackets        *prometheus.Desc
	wakeupBytesOutstanding *prometheus.Desc
	pollRounds             *prometheus.Desc
	pollFailures           *prometheus.Desc
	engineQueueDepth       *prometheus.Desc
	receiveQueueDepth      *prometheus.Desc
}

// NewCollector builds a Collector labeled with instance, reading live
// values from snapshot on every Collect call.
func NewCollector(instance string, snapshot func() Snapshot) *Collector {
	labels := []string{"instance"}
	return &Collector{
		snapshot: snapshot,
		instance: instance,
		inFlightPackets: prometheus.NewDesc(
			"slirpnat_in_flight_packets",
			"Packets enqueued for guest delivery but not yet accepted by the device port.",
			labels, nil,
		),
		wakeupBytesOutstanding: prometheus.NewDesc(
			"slirpnat_wakeup_bytes_outstanding",
			"Bytes written to the wakeup channel but not yet drained.",
			labels, nil,
		),
		pollRounds: prometheus.NewDesc(
			"slirpnat_poll_rounds_total",
			"Total NAT poll loop rounds completed.",
			labels, nil,
		),
		pollFailures: prometheus.NewDesc(
			"slirpnat_poll_failures_total",
			"Total host poll-wait failures (excluding interruption).",
			labels, nil,
		),
		engineQueueDepth: prometheus.NewDesc(
			"slirpnat_engine_queue_depth",
			"Requests currently pending on the engine request queue.",
			labels, nil,
		),
		receiveQueueDepth: prometheus.NewDesc(
			"slirpnat_receive_queue_depth",
			"Requests currently pending on the receive-delivery queue.",
			labels, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.inFlightPackets
	ch <- c.wakeupBytesOutstanding
	ch <- c.pollRounds
	ch <- c.pollFailures
	ch <- c.engineQueueDepth
	ch <- c.receiveQueueDepth
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.snapshot()
	ch <- prometheus.MustNewConstMetric(c.inFlightPackets, prometheus.GaugeValue, float64(s.InFlightPackets), c.instance)
	ch <- prometheus.MustNewConstMetric(c.wakeupBytesOutstanding, prometheus.GaugeValue, float64(s.WakeupBytesOutstanding), c.instance)
	ch <- prometheus.MustNewConstMetric(c.pollRounds, prometheus.CounterValue, float64(s.PollRounds), c.instance)
	ch <- prometheus.MustNewConstMetric(c.pollFailures, prometheus.CounterValue, float64(s.PollFailures), c.instance)
	ch <- prometheus.MustNewConstMetric(c.engineQueueDepth, prometheus.GaugeValue, float64(s.EngineQueueDepth), c.instance)
	ch <- prometheus.MustNewConstMetric(c.receiveQueueDepth, prometheus.GaugeValue, float64(s.ReceiveQueueDepth), c.instance)
}

// Registry owns a dedicated prometheus.Registry for one bridge instance,
// so teardown can deregister all of its metrics in one call without
// touching any process-wide default registry.
type Registry struct {
	*prometheus.Registry
	collector *Collector
}

// NewRegistry creates and registers a Collector for instance.
func NewRegistry(instance string, snapshot func() Snapshot) *Registry {
	reg := prometheus.NewRegistry()
	c := NewCollector(instance, snapshot)
	reg.MustRegister(c)
	return &Registry{Registry: reg, collector: c}
}

// Close deregisters this instance's collector.
func (r *Registry) Close() {
	r.Unregister(r.collector)
}
