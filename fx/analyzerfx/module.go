// Package analyzerfx provides an fx module for a disk-backed Chess960 analyzer.
package analyzerfx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/chess960"
	"github.com/discochess/chess960/internal/codec"
	"github.com/discochess/chess960/internal/engine"
	"github.com/discochess/chess960/internal/ledger"
	"github.com/discochess/chess960/internal/stats"
	"github.com/discochess/chess960/internal/stats/logger"
	"github.com/discochess/chess960/internal/store"
	"github.com/discochess/chess960/internal/store/diskstore"
	"github.com/discochess/chess960/internal/uci"
)

// Config holds configuration for the analyzer.
type Config struct {
	// DataDir is the directory holding the ledgers.
	DataDir string

	// Compression names the ledger codec: "zstd", "gzip" or "none".
	Compression string

	// EnginePath is the engine binary. Empty resolves through
	// engine.ResolvePath.
	EnginePath string

	// Launcher overrides how the engine process is started.
	Launcher engine.Launcher

	Threads int
	HashMB  int

	// Budget is the per-position search limit.
	// Default is movetime chess960.DefaultMoveTime.
	Budget uci.Budget

	// MultiPV default is chess960.DefaultMultiPV.
	MultiPV int

	// SaveEvery default is chess960.DefaultSaveEvery.
	SaveEvery int

	// Sharpness also records WDL sharpness in the same pass.
	Sharpness bool
}

// Module provides a *chess960.Analyzer over a running engine.
// Requires a Config and a *zap.Logger to be provided.
var Module = fx.Module("chess960",
	fx.Provide(
		newStatsCollector,
		newStore,
		newEngine,
		newAnalyzer,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("chess960.stats"))
}

func newStore(cfg Config, lc fx.Lifecycle) (store.Store, error) {
	c, err := codec.ForName(cfg.Compression)
	if err != nil {
		return nil, err
	}
	s, err := diskstore.New(cfg.DataDir, c, diskstore.WithLock())
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return s.Close()
		},
	})
	return s, nil
}

func newEngine(cfg Config, log *zap.Logger, lc fx.Lifecycle) *engine.Engine {
	launch := cfg.Launcher
	if launch == nil {
		launch = engine.ExecLauncher(engine.ResolvePath(cfg.EnginePath))
	}

	multiPV := cfg.MultiPV
	if multiPV <= 0 {
		multiPV = chess960.DefaultMultiPV
	}
	opts := []engine.Option{
		engine.WithMultiPV(multiPV),
		engine.WithWDL(cfg.Sharpness),
		engine.WithLogger(log.Named("engine")),
	}
	if cfg.Threads > 0 {
		opts = append(opts, engine.WithThreads(cfg.Threads))
	}
	if cfg.HashMB > 0 {
		opts = append(opts, engine.WithHash(cfg.HashMB))
	}

	e := engine.New(launch, opts...)
	lc.Append(fx.Hook{
		OnStart: e.Start,
		OnStop:  e.Quit,
	})
	return e
}

// Params holds dependencies for creating the analyzer.
type Params struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Collector stats.Collector
	Store     store.Store
	Engine    *engine.Engine
}

// Result holds the provided analyzer.
type Result struct {
	fx.Out

	Analyzer *chess960.Analyzer
}

func newAnalyzer(p Params) (Result, error) {
	opts := []chess960.Option{
		chess960.WithEngine(p.Engine),
		chess960.WithEvalLedger(ledger.New[chess960.PositionResult](p.Store, chess960.EvalLedgerName)),
		chess960.WithStats(p.Collector),
		chess960.WithLogger(p.Logger.Named("chess960")),
	}
	if p.Config.Sharpness {
		opts = append(opts, chess960.WithSharpnessLedger(ledger.New[chess960.SharpnessRecord](p.Store, chess960.SharpnessLedgerName)))
	}
	if p.Config.Budget != (uci.Budget{}) {
		opts = append(opts, chess960.WithBudget(p.Config.Budget))
	}
	if p.Config.MultiPV > 0 {
		opts = append(opts, chess960.WithMultiPV(p.Config.MultiPV))
	}
	if p.Config.SaveEvery > 0 {
		opts = append(opts, chess960.WithSaveEvery(p.Config.SaveEvery))
	}

	a, err := chess960.New(opts...)
	if err != nil {
		return Result{}, err
	}
	return Result{Analyzer: a}, nil
}
