// Package stats provides a unified interface for collecting metrics.
package stats

// Metric names used throughout the pipeline.
const (
	// Driver metrics.
	MetricPositionsAnalyzed  = "chess960_positions_analyzed_total"
	MetricPositionsSkipped   = "chess960_positions_skipped_total"
	MetricPositionsFailed    = "chess960_positions_failed_total"
	MetricPositionsRemaining = "chess960_positions_remaining"
	MetricAnalysisSeconds    = "chess960_analysis_seconds"
	MetricSearchDepth        = "chess960_search_depth"
	MetricLedgerSaves        = "chess960_ledger_saves_total"

	// Engine metrics.
	MetricEngineRestarts = "chess960_engine_restarts_total"

	// Bot metrics.
	MetricBotCacheHits   = "chess960_bot_cache_hits_total"
	MetricBotCacheMisses = "chess960_bot_cache_misses_total"
)

// Help holds the description exported with each known metric.
var Help = map[string]string{
	MetricPositionsAnalyzed:  "Start positions analysed in this run.",
	MetricPositionsSkipped:   "Start positions skipped because they were already recorded or invalid.",
	MetricPositionsFailed:    "Start positions abandoned after exhausting engine retries.",
	MetricPositionsRemaining: "Start positions still to analyse.",
	MetricAnalysisSeconds:    "Wall time of a single position analysis.",
	MetricSearchDepth:        "Deepest search depth reached per position.",
	MetricLedgerSaves:        "Ledger flushes to the store.",
	MetricEngineRestarts:     "Engine subprocess restarts after a stall or crash.",
	MetricBotCacheHits:       "Bot analyses served from the cache.",
	MetricBotCacheMisses:     "Bot analyses that required an engine search.",
}

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
