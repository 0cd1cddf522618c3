package prometheus

import (
	"time"

	"github.com/hupe1980/meshcache"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "meshcache"

// Collector implements meshcache.MetricsCollector with Prometheus metrics.
type Collector struct {
	opLatency *prometheus.HistogramVec
	ops       *prometheus.CounterVec
	samples   *prometheus.CounterVec
}

var _ meshcache.MetricsCollector = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics with reg.
// A nil reg leaves the metrics unregistered.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency of archive operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "status"}),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Archive operations by kind and status.",
		}, []string{"op", "status"}),
		samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_total",
			Help:      "Samples read or appended.",
		}, []string{"kind"}),
	}
	if reg != nil {
		reg.MustRegister(c.opLatency, c.ops, c.samples)
	}
	return c
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (c *Collector) observe(op string, d time.Duration, err error) {
	s := status(err)
	c.opLatency.WithLabelValues(op, s).Observe(d.Seconds())
	c.ops.WithLabelValues(op, s).Inc()
}

// RecordOpen implements meshcache.MetricsCollector.
func (c *Collector) RecordOpen(mode string, d time.Duration, err error) {
	c.observe("open_"+mode, d, err)
}

// RecordRead implements meshcache.MetricsCollector.
func (c *Collector) RecordRead(d time.Duration, err error) {
	c.observe("read", d, err)
	if err == nil {
		c.samples.WithLabelValues("read").Inc()
	}
}

// RecordAppend implements meshcache.MetricsCollector.
func (c *Collector) RecordAppend(full bool, d time.Duration, err error) {
	kind := "geometry"
	if full {
		kind = "full"
	}
	c.observe("append", d, err)
	if err == nil {
		c.samples.WithLabelValues(kind).Inc()
	}
}

// RecordTransform implements meshcache.MetricsCollector.
func (c *Collector) RecordTransform(d time.Duration, err error) {
	c.observe("transform", d, err)
	if err == nil {
		c.samples.WithLabelValues("transform").Inc()
	}
}
