// Package chess960 analyses the 960 Chess960 start positions with a UCI
// engine and records the results in resumable ledgers.
//
// Example usage:
//
//	eng := engine.New(engine.ExecLauncher(engine.ResolvePath("")),
//	    engine.WithThreads(4), engine.WithMultiPV(3), engine.WithWDL(true))
//	if err := eng.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Quit(context.Background())
//
//	a, err := chess960.New(
//	    chess960.WithEngine(eng),
//	    chess960.WithEvalLedger(ledger.New[chess960.PositionResult](st, chess960.EvalLedgerName)),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	summary, err := a.Run(ctx, positions)
package chess960

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/discochess/chess960/internal/dataset"
	"github.com/discochess/chess960/internal/engine"
	"github.com/discochess/chess960/internal/progress"
	"github.com/discochess/chess960/internal/sharpness"
	"github.com/discochess/chess960/internal/stats"
	"github.com/discochess/chess960/internal/uci"
)

// Conventional ledger object names.
const (
	EvalLedgerName      = "chess960_evals.json"
	SharpnessLedgerName = "chess960_sharpness.json"
)

// Sentinel errors for well-defined error conditions.
var (
	// ErrNoEngine indicates no engine was provided.
	ErrNoEngine = errors.New("chess960: no engine provided")

	// ErrNoLedger indicates neither an eval nor a sharpness ledger was provided.
	ErrNoLedger = errors.New("chess960: no ledger provided")

	// ErrEngineLost indicates the engine could not be restarted after a
	// stall or crash; the run stops.
	ErrEngineLost = errors.New("chess960: engine could not be restarted")

	// ErrNoWDL indicates a sharpness ledger is configured but the engine
	// reported no WDL statistics.
	ErrNoWDL = errors.New("chess960: engine reported no WDL")
)

// Searcher runs engine searches. *engine.Engine implements it.
type Searcher interface {
	Analyze(ctx context.Context, req engine.Request) (*uci.Result, error)
	Restart(ctx context.Context) error
}

// Summary counts what a run did.
type Summary struct {
	// Recorded is the number of positions already in the ledgers before the run.
	Recorded int
	Analyzed int
	Invalid  int
	Failed   int
}

// Analyzer runs the batch analysis. Positions are analysed one at a time in
// ascending id order.
type Analyzer struct {
	opts options
}

// New creates an Analyzer with the given options.
func New(opts ...Option) (*Analyzer, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	if cfg.engine == nil {
		return nil, ErrNoEngine
	}
	if cfg.evals == nil && cfg.sharpness == nil {
		return nil, ErrNoLedger
	}
	if err := cfg.budget.Validate(); err != nil {
		return nil, err
	}
	if cfg.multiPV < 1 {
		cfg.multiPV = 1
	}
	if cfg.saveEvery < 1 {
		cfg.saveEvery = 1
	}
	if cfg.retries < 0 {
		cfg.retries = 0
	}
	if cfg.watchdog <= 0 {
		cfg.watchdog = watchdogFor(cfg.budget)
	}

	return &Analyzer{opts: cfg}, nil
}

// watchdogFor derives the search deadline from the budget. Depth and node
// budgets have no known duration and get a generous fixed limit.
func watchdogFor(b uci.Budget) time.Duration {
	if b.MoveTime > 0 {
		return 2*b.MoveTime + 10*time.Second
	}
	return 10 * time.Minute
}

// Run analyses every position not yet present in the configured ledgers.
//
// Ledgers are loaded first, so a run over a partially filled ledger resumes
// where the previous one stopped. They are saved every few positions, at
// the end, and when ctx is cancelled; in the last case Run returns ctx.Err()
// together with the summary of the work done.
func (a *Analyzer) Run(ctx context.Context, positions []Position) (*Summary, error) {
	o := &a.opts
	log := o.logger

	if err := a.load(ctx); err != nil {
		return nil, err
	}

	sorted := append([]Position(nil), positions...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	summary := &Summary{}
	var pending []Position
	for _, p := range sorted {
		if a.recorded(p.ID) {
			summary.Recorded++
			continue
		}
		pending = append(pending, p)
	}
	o.stats.IncCounter(stats.MetricPositionsSkipped, int64(summary.Recorded))

	tracker := progress.NewTracker(len(pending), o.now)
	start := tracker.Snapshot(progress.PhaseStart)
	start.Recorded = summary.Recorded
	a.report(start)

	log.Info("starting analysis",
		zap.Int("pending", len(pending)),
		zap.Int("recorded", summary.Recorded),
		zap.Stringer("budget", o.budget),
		zap.Int("multiPV", o.multiPV),
	)

	var runErr error
	unsaved := 0
	for _, p := range pending {
		if ctx.Err() != nil {
			break
		}
		o.stats.SetGauge(stats.MetricPositionsRemaining, int64(tracker.Remaining()))

		if err := dataset.Validate(p.FEN); err != nil {
			log.Warn("skipping malformed position", zap.Int("id", p.ID), zap.Error(err))
			o.stats.IncCounter(stats.MetricPositionsSkipped, 1)
			summary.Invalid++
			tracker.Step()
			continue
		}

		began := o.now()
		res, err := a.analyze(ctx, p)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if errors.Is(err, ErrEngineLost) {
				runErr = err
				break
			}
			log.Error("giving up on position", zap.Int("id", p.ID), zap.Error(err))
			o.stats.IncCounter(stats.MetricPositionsFailed, 1)
			summary.Failed++
			tracker.Step()
			continue
		}
		elapsed := o.now().Sub(began)

		if err := a.record(p, res); err != nil {
			log.Warn("position not fully recorded", zap.Int("id", p.ID), zap.Error(err))
		}
		summary.Analyzed++
		unsaved++
		tracker.Step()

		o.stats.IncCounter(stats.MetricPositionsAnalyzed, 1)
		o.stats.ObserveHistogram(stats.MetricAnalysisSeconds, elapsed.Seconds())
		o.stats.ObserveHistogram(stats.MetricSearchDepth, float64(res.Depth))
		log.Debug("analysed position",
			zap.Int("id", p.ID),
			zap.Int("depth", res.Depth),
			zap.Int("lines", len(res.Lines)),
			zap.Duration("elapsed", elapsed),
		)

		snap := tracker.Snapshot(progress.PhaseAnalyze)
		snap.ID = p.ID
		snap.Depth = res.Depth
		snap.Recorded = summary.Recorded + summary.Analyzed
		a.report(snap)

		if unsaved >= o.saveEvery {
			if err := a.save(ctx); err != nil {
				runErr = err
				break
			}
			unsaved = 0
		}
	}
	o.stats.SetGauge(stats.MetricPositionsRemaining, int64(tracker.Remaining()))

	// Always persist, including after cancellation.
	if err := a.save(context.WithoutCancel(ctx)); err != nil && runErr == nil {
		runErr = err
	}

	if runErr == nil {
		runErr = ctx.Err()
	}
	if runErr != nil {
		if !errors.Is(runErr, context.Canceled) {
			a.report(progress.Progress{Phase: progress.PhaseError, Error: runErr})
		}
		log.Warn("analysis stopped",
			zap.Int("analyzed", summary.Analyzed),
			zap.Int("remaining", tracker.Remaining()),
			zap.Error(runErr),
		)
		return summary, runErr
	}

	done := tracker.Snapshot(progress.PhaseDone)
	done.Recorded = summary.Recorded + summary.Analyzed
	a.report(done)
	log.Info("analysis complete",
		zap.Int("analyzed", summary.Analyzed),
		zap.Int("invalid", summary.Invalid),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

// analyze runs one search under the watchdog, restarting the engine and
// retrying when it stalls or exits.
func (a *Analyzer) analyze(ctx context.Context, p Position) (*uci.Result, error) {
	o := &a.opts
	req := engine.Request{
		FEN:     p.FEN,
		Budget:  o.budget,
		MultiPV: o.multiPV,
		NewGame: o.newGame,
	}

	for attempt := 0; ; attempt++ {
		wctx, cancel := context.WithTimeout(ctx, o.watchdog)
		res, err := o.engine.Analyze(wctx, req)
		cancel()
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !errors.Is(err, engine.ErrStalled) && !errors.Is(err, engine.ErrExited) {
			return nil, err
		}

		// Replace the engine even when giving up on the position.
		o.logger.Warn("engine failed, restarting",
			zap.Int("id", p.ID),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		o.stats.IncCounter(stats.MetricEngineRestarts, 1)
		if rerr := o.engine.Restart(ctx); rerr != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %w", ErrEngineLost, rerr)
		}

		if attempt >= o.retries {
			return nil, fmt.Errorf("position %d after %d attempts: %w", p.ID, attempt+1, err)
		}
	}
}

// record writes the ledger entries of a finished search.
func (a *Analyzer) record(p Position, res *uci.Result) error {
	o := &a.opts
	now := o.now()

	if o.evals != nil {
		o.evals.Set(p.ID, newPositionResult(p.FEN, res, now))
	}
	if o.sharpness == nil {
		return nil
	}

	best, ok := res.Best()
	if !ok || best.WDL == nil || best.WDL.Total() == 0 {
		return fmt.Errorf("sharpness of position %d: %w", p.ID, ErrNoWDL)
	}
	w := *best.WDL
	o.sharpness.Set(p.ID, SharpnessRecord{
		FEN:        p.FEN,
		WDL:        w,
		Sharpness:  sharpness.Compute(w.W, w.D, w.L),
		AnalyzedAt: Timestamp{now},
	})
	return nil
}

// recorded reports whether every configured ledger has an entry for id.
func (a *Analyzer) recorded(id int) bool {
	if a.opts.evals != nil && !a.opts.evals.Has(id) {
		return false
	}
	if a.opts.sharpness != nil && !a.opts.sharpness.Has(id) {
		return false
	}
	return true
}

func (a *Analyzer) load(ctx context.Context) error {
	if a.opts.evals != nil {
		if err := a.opts.evals.Load(ctx); err != nil {
			return err
		}
	}
	if a.opts.sharpness != nil {
		if err := a.opts.sharpness.Load(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) save(ctx context.Context) error {
	o := &a.opts
	recorded := 0
	if o.sharpness != nil {
		if err := o.sharpness.Save(ctx); err != nil {
			return err
		}
		o.stats.IncCounter(stats.MetricLedgerSaves, 1)
		recorded = o.sharpness.Len()
	}
	if o.evals != nil {
		if err := o.evals.Save(ctx); err != nil {
			return err
		}
		o.stats.IncCounter(stats.MetricLedgerSaves, 1)
		recorded = o.evals.Len()
	}
	a.report(progress.Progress{Phase: progress.PhaseSave, Recorded: recorded})
	return nil
}

func (a *Analyzer) report(p progress.Progress) {
	if a.opts.progress != nil {
		a.opts.progress(p)
	}
}
