package chess960

import (
	"time"

	"go.uber.org/zap"

	"github.com/discochess/chess960/internal/ledger"
	"github.com/discochess/chess960/internal/progress"
	"github.com/discochess/chess960/internal/stats"
	"github.com/discochess/chess960/internal/uci"
)

// Defaults of the reference analysis run.
const (
	DefaultMoveTime  = 20 * time.Second
	DefaultMultiPV   = 3
	DefaultSaveEvery = 10
	DefaultRetries   = 2
)

// Option configures an Analyzer.
type Option interface {
	apply(*options)
}

// options holds the analyzer configuration.
type options struct {
	engine    Searcher
	evals     *ledger.Ledger[PositionResult]
	sharpness *ledger.Ledger[SharpnessRecord]
	budget    uci.Budget
	multiPV   int
	saveEvery int
	watchdog  time.Duration
	retries   int
	newGame   bool
	progress  progress.ProgressFunc
	stats     stats.Collector
	logger    *zap.Logger
	now       func() time.Time
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		budget:    uci.Budget{MoveTime: DefaultMoveTime},
		multiPV:   DefaultMultiPV,
		saveEvery: DefaultSaveEvery,
		retries:   DefaultRetries,
		newGame:   true,
		stats:     stats.NewNoop(),
		logger:    zap.NewNop(),
		now:       time.Now,
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithEngine sets the engine that runs the searches. Required.
func WithEngine(e Searcher) Option {
	return optionFunc(func(o *options) {
		o.engine = e
	})
}

// WithEvalLedger records multi-PV evaluations in l.
func WithEvalLedger(l *ledger.Ledger[PositionResult]) Option {
	return optionFunc(func(o *options) {
		o.evals = l
	})
}

// WithSharpnessLedger records WDL-derived sharpness in l. The engine must
// report WDL statistics.
func WithSharpnessLedger(l *ledger.Ledger[SharpnessRecord]) Option {
	return optionFunc(func(o *options) {
		o.sharpness = l
	})
}

// WithBudget sets the per-position search limit.
// Default is movetime 20s.
func WithBudget(b uci.Budget) Option {
	return optionFunc(func(o *options) {
		o.budget = b
	})
}

// WithMultiPV sets how many principal variations to record.
// Default is 3.
func WithMultiPV(n int) Option {
	return optionFunc(func(o *options) {
		o.multiPV = n
	})
}

// WithSaveEvery persists the ledgers after every n analysed positions.
// Default is 10.
func WithSaveEvery(n int) Option {
	return optionFunc(func(o *options) {
		o.saveEvery = n
	})
}

// WithWatchdog sets the deadline of a single search. If not set it is
// derived from the budget.
func WithWatchdog(d time.Duration) Option {
	return optionFunc(func(o *options) {
		o.watchdog = d
	})
}

// WithRetries sets how many times a stalled or crashed search is retried
// on a restarted engine before the position is skipped.
// Default is 2.
func WithRetries(n int) Option {
	return optionFunc(func(o *options) {
		o.retries = n
	})
}

// WithNewGame controls whether ucinewgame precedes every search.
// Default is true.
func WithNewGame(enabled bool) Option {
	return optionFunc(func(o *options) {
		o.newGame = enabled
	})
}

// WithProgress sets the progress callback.
func WithProgress(fn progress.ProgressFunc) Option {
	return optionFunc(func(o *options) {
		o.progress = fn
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		o.stats = c
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}

// WithClock sets the time source used for timestamps and ETA.
func WithClock(now func() time.Time) Option {
	return optionFunc(func(o *options) {
		o.now = now
	})
}
