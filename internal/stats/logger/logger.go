// Package logger provides a stats collector that reports metrics through zap.
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/discochess/chess960/internal/stats"
)

// warnCounters are counters an operator should see without --verbose.
var warnCounters = map[string]bool{
	stats.MetricPositionsFailed: true,
	stats.MetricEngineRestarts:  true,
}

// Collector implements stats.Collector on top of a zap logger. Counters keep
// a running total so each line shows progress rather than a bare delta.
type Collector struct {
	logger *zap.Logger

	mu     sync.Mutex
	totals map[string]int64
}

var _ stats.Collector = (*Collector)(nil)

// New returns a collector writing to logger, or discarding output when
// logger is nil.
func New(logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		logger: logger.Named("stats"),
		totals: make(map[string]int64),
	}
}

func (c *Collector) IncCounter(name string, delta int64) {
	c.mu.Lock()
	c.totals[name] += delta
	total := c.totals[name]
	c.mu.Unlock()

	level := zapcore.DebugLevel
	if warnCounters[name] {
		level = zapcore.WarnLevel
	}
	c.write(level, "counter", name, zap.Int64("delta", delta), zap.Int64("total", total))
}

func (c *Collector) SetGauge(name string, value int64) {
	c.write(zapcore.DebugLevel, "gauge", name, zap.Int64("value", value))
}

func (c *Collector) ObserveHistogram(name string, value float64) {
	c.write(zapcore.DebugLevel, "histogram", name, zap.Float64("value", value))
}

// Total reports the accumulated value of a counter.
func (c *Collector) Total(name string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totals[name]
}

func (c *Collector) write(level zapcore.Level, kind, name string, fields ...zap.Field) {
	ce := c.logger.Check(level, kind)
	if ce == nil {
		return
	}
	fields = append(fields, zap.String("metric", name))
	if help, ok := stats.Help[name]; ok {
		fields = append(fields, zap.String("help", help))
	}
	ce.Write(fields...)
}
