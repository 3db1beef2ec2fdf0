// Package prometheus provides a Prometheus-based stats collector.
package prometheus

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/discochess/chess960/internal/stats"
)

// Collector implements stats.Collector using Prometheus metrics.
// Metrics are created and registered on first use.
type Collector struct {
	registry prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]prometheus.Counter
	gauges     map[string]prometheus.Gauge
	histograms map[string]prometheus.Histogram
}

// Compile-time check that Collector implements stats.Collector.
var _ stats.Collector = (*Collector)(nil)

// New creates a new Prometheus collector.
// If registry is nil, prometheus.DefaultRegisterer is used.
func New(registry prometheus.Registerer) *Collector {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	return &Collector{
		registry:   registry,
		counters:   make(map[string]prometheus.Counter),
		gauges:     make(map[string]prometheus.Gauge),
		histograms: make(map[string]prometheus.Histogram),
	}
}

// IncCounter increments a counter metric.
func (c *Collector) IncCounter(name string, delta int64) {
	c.mu.Lock()
	counter, ok := c.counters[name]
	if !ok {
		counter = register(c.registry, prometheus.NewCounter(prometheus.CounterOpts{
			Name: name,
			Help: help(name),
		}))
		c.counters[name] = counter
	}
	c.mu.Unlock()

	counter.Add(float64(delta))
}

// SetGauge sets a gauge metric.
func (c *Collector) SetGauge(name string, value int64) {
	c.mu.Lock()
	gauge, ok := c.gauges[name]
	if !ok {
		gauge = register(c.registry, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: name,
			Help: help(name),
		}))
		c.gauges[name] = gauge
	}
	c.mu.Unlock()

	gauge.Set(float64(value))
}

// ObserveHistogram records a value in a histogram.
func (c *Collector) ObserveHistogram(name string, value float64) {
	c.mu.Lock()
	histogram, ok := c.histograms[name]
	if !ok {
		histogram = register(c.registry, prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    name,
			Help:    help(name),
			Buckets: buckets(name),
		}))
		c.histograms[name] = histogram
	}
	c.mu.Unlock()

	histogram.Observe(value)
}

// register registers m, returning the already registered metric when one
// with the same descriptor exists. A metric that fails to register for any
// other reason still works, it just is not exported.
func register[M prometheus.Collector](reg prometheus.Registerer, m M) M {
	if err := reg.Register(m); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(M); ok {
				return existing
			}
		}
	}
	return m
}

func help(name string) string {
	if h, ok := stats.Help[name]; ok {
		return h
	}
	return name
}

func buckets(name string) []float64 {
	switch name {
	case stats.MetricAnalysisSeconds:
		// Budgets range from sub-second bot moves to minute-long searches.
		return prometheus.ExponentialBuckets(0.25, 2, 10)
	case stats.MetricSearchDepth:
		return prometheus.LinearBuckets(5, 5, 10)
	}
	return prometheus.DefBuckets
}
