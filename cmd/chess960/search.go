package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/discochess/chess960"
	"github.com/discochess/chess960/internal/dataset"
	"github.com/discochess/chess960/internal/engine"
	"github.com/discochess/chess960/internal/progress"
	"github.com/discochess/chess960/internal/uci"
)

// searchFlags are the engine and budget flags shared by the analysis commands.
type searchFlags struct {
	depth     int
	moveTime  time.Duration
	nodes     int64
	multiPV   int
	threads   int
	hashMB    int
	saveEvery int
	retries   int
	watchdog  time.Duration
	from, to  int
}

func (f *searchFlags) register(cmd *cobra.Command, multiPV int) {
	fl := cmd.Flags()
	fl.IntVar(&f.depth, "depth", 0, "search to a fixed depth instead of a fixed time")
	fl.DurationVar(&f.moveTime, "movetime", chess960.DefaultMoveTime, "search time per position")
	fl.Int64Var(&f.nodes, "nodes", 0, "search a fixed number of nodes instead of a fixed time")
	fl.IntVar(&f.multiPV, "multipv", multiPV, "number of principal variations")
	fl.IntVar(&f.threads, "threads", 1, "engine threads")
	fl.IntVar(&f.hashMB, "hash", 256, "engine hash size in MB")
	fl.IntVar(&f.saveEvery, "save-every", chess960.DefaultSaveEvery, "save ledgers after this many positions")
	fl.IntVar(&f.retries, "retries", chess960.DefaultRetries, "restarts per position when the engine stalls or crashes")
	fl.DurationVar(&f.watchdog, "watchdog", 0, "per-position deadline (default derived from the budget)")
	fl.IntVar(&f.from, "from", 0, "first position id")
	fl.IntVar(&f.to, "to", dataset.NumPositions-1, "last position id")
}

// budget returns the search limit; depth and nodes take precedence over time.
func (f *searchFlags) budget() uci.Budget {
	switch {
	case f.depth > 0:
		return uci.Budget{Depth: f.depth}
	case f.nodes > 0:
		return uci.Budget{Nodes: f.nodes}
	}
	return uci.Budget{MoveTime: f.moveTime}
}

// startEngine launches the engine and completes the handshake.
func startEngine(ctx context.Context, threads, hashMB, multiPV int, wdl bool) (*engine.Engine, error) {
	path := engine.ResolvePath(enginePath)
	e := engine.New(engine.ExecLauncher(path),
		engine.WithThreads(threads),
		engine.WithHash(hashMB),
		engine.WithMultiPV(multiPV),
		engine.WithWDL(wdl),
		engine.WithLogger(logger.Named("engine")),
	)
	if err := e.Start(ctx); err != nil {
		return nil, err
	}
	logger.Debug("engine started", zap.String("path", path))
	return e, nil
}

// stopEngine quits the engine, even when ctx is already cancelled.
func stopEngine(ctx context.Context, e *engine.Engine) {
	qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := e.Quit(qctx); err != nil {
		logger.Warn("engine did not quit cleanly", zap.Error(err))
	}
}

// loadPositions reads the position list and keeps ids in [from, to].
func loadPositions(ctx context.Context, from, to int) ([]chess960.Position, error) {
	loader, s, err := datasetLoader()
	if err != nil {
		return nil, err
	}
	defer s.Close()

	d, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading positions (run 'chess960 positions generate' first?): %w", err)
	}

	var out []chess960.Position
	for _, p := range chess960.Positions(d) {
		if p.ID >= from && p.ID <= to {
			out = append(out, p)
		}
	}
	return out, nil
}

// runAnalysis starts the engine, runs the analyzer over positions and
// prints the summary.
func runAnalysis(ctx context.Context, f *searchFlags, wdl bool, positions []chess960.Position, opts ...chess960.Option) error {
	b := f.budget()
	if err := b.Validate(); err != nil {
		return err
	}

	eng, err := startEngine(ctx, f.threads, f.hashMB, f.multiPV, wdl)
	if err != nil {
		return err
	}
	defer stopEngine(ctx, eng)

	opts = append([]chess960.Option{
		chess960.WithEngine(eng),
		chess960.WithBudget(b),
		chess960.WithMultiPV(f.multiPV),
		chess960.WithSaveEvery(f.saveEvery),
		chess960.WithRetries(f.retries),
		chess960.WithWatchdog(f.watchdog),
		chess960.WithProgress(progress.DefaultProgressFunc),
		chess960.WithStats(collector),
		chess960.WithLogger(logger),
	}, opts...)

	a, err := chess960.New(opts...)
	if err != nil {
		return err
	}

	fmt.Printf("Analysing %d positions (%s, multipv %d)\n", len(positions), b, f.multiPV)
	summary, err := a.Run(ctx, positions)
	if summary != nil {
		fmt.Printf("  Already recorded: %d\n", summary.Recorded)
		fmt.Printf("  Analysed:         %d\n", summary.Analyzed)
		fmt.Printf("  Invalid FEN:      %d\n", summary.Invalid)
		fmt.Printf("  Failed:           %d\n", summary.Failed)
	}
	return err
}
