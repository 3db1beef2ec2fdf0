package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/discochess/chess960/internal/stats"
)

func TestCollector_Logs(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	c := New(zap.New(core))

	c.IncCounter(stats.MetricPositionsAnalyzed, 1)
	c.SetGauge(stats.MetricPositionsRemaining, 959)
	c.ObserveHistogram(stats.MetricAnalysisSeconds, 20.1)

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("logged %d entries, want 3", len(entries))
	}

	wantMsgs := []string{"counter", "gauge", "histogram"}
	for i, e := range entries {
		if e.Message != wantMsgs[i] {
			t.Errorf("entry %d message = %q, want %q", i, e.Message, wantMsgs[i])
		}
		if e.LoggerName != "stats" {
			t.Errorf("entry %d logger = %q, want stats", i, e.LoggerName)
		}
		if e.Level != zapcore.DebugLevel {
			t.Errorf("entry %d level = %v, want debug", i, e.Level)
		}
	}

	fields := entries[1].ContextMap()
	if got := fields["value"]; got != int64(959) {
		t.Errorf("gauge value = %v, want 959", got)
	}
	if got := fields["help"]; got != stats.Help[stats.MetricPositionsRemaining] {
		t.Errorf("gauge help = %v", got)
	}
}

func TestCollector_Totals(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	c := New(zap.New(core))

	c.IncCounter(stats.MetricLedgerSaves, 1)
	c.IncCounter(stats.MetricLedgerSaves, 2)

	if got := c.Total(stats.MetricLedgerSaves); got != 3 {
		t.Errorf("Total = %d, want 3", got)
	}
	if got := c.Total(stats.MetricBotCacheHits); got != 0 {
		t.Errorf("Total of unseen counter = %d, want 0", got)
	}
	last := logs.All()[1].ContextMap()
	if last["total"] != int64(3) || last["delta"] != int64(2) {
		t.Errorf("last counter fields = %v", last)
	}
}

func TestCollector_WarnCounters(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	c := New(zap.New(core))

	c.IncCounter(stats.MetricPositionsAnalyzed, 1)
	c.IncCounter(stats.MetricEngineRestarts, 1)
	c.IncCounter(stats.MetricPositionsFailed, 1)

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("logged %d entries at info, want 2", len(entries))
	}
	for _, e := range entries {
		if e.Level != zapcore.WarnLevel {
			t.Errorf("%v level = %v, want warn", e.ContextMap()["metric"], e.Level)
		}
	}
	if got := c.Total(stats.MetricPositionsAnalyzed); got != 1 {
		t.Errorf("suppressed counter total = %d, want 1", got)
	}
}

func TestNew_NilLogger(t *testing.T) {
	c := New(nil)
	c.IncCounter(stats.MetricLedgerSaves, 1)
	if got := c.Total(stats.MetricLedgerSaves); got != 1 {
		t.Errorf("Total = %d, want 1", got)
	}
}
