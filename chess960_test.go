package chess960

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/discochess/chess960/internal/dataset"
	"github.com/discochess/chess960/internal/engine"
	"github.com/discochess/chess960/internal/engine/enginetest"
	"github.com/discochess/chess960/internal/ledger"
	"github.com/discochess/chess960/internal/progress"
	"github.com/discochess/chess960/internal/sharpness"
	"github.com/discochess/chess960/internal/store/memstore"
	"github.com/discochess/chess960/internal/uci"
)

// startedEngine returns a running engine over script.
func startedEngine(t *testing.T, script *enginetest.Script) *engine.Engine {
	t.Helper()
	e := engine.New(script.Launcher(), engine.WithSettleDelay(0), engine.WithWDL(true))
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { e.Quit(context.Background()) })
	return e
}

// startPositions returns positions first..last with canonical FENs.
func startPositions(t *testing.T, first, last int) []Position {
	t.Helper()
	var out []Position
	for id := first; id <= last; id++ {
		fen, err := dataset.StartFEN(id)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, Position{ID: id, FEN: fen})
	}
	return out
}

func depthBudget(d int) Option {
	return WithBudget(uci.Budget{Depth: d})
}

func TestNew_Validation(t *testing.T) {
	script := &enginetest.Script{}
	evals := ledger.New[PositionResult](memstore.New(), EvalLedgerName)

	tests := []struct {
		name    string
		opts    []Option
		wantErr error
	}{
		{"no engine", []Option{WithEvalLedger(evals)}, ErrNoEngine},
		{"no ledger", []Option{WithEngine(startedEngine(t, script))}, ErrNoLedger},
		{"bad budget", []Option{WithEngine(startedEngine(t, script)), WithEvalLedger(evals), WithBudget(uci.Budget{})}, uci.ErrInvalidBudget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opts...); !errors.Is(err, tt.wantErr) {
				t.Errorf("New() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestWatchdogFor(t *testing.T) {
	if got := watchdogFor(uci.Budget{MoveTime: 20 * time.Second}); got != 50*time.Second {
		t.Errorf("watchdogFor(movetime 20s) = %v, want 50s", got)
	}
	if got := watchdogFor(uci.Budget{Depth: 20}); got != 10*time.Minute {
		t.Errorf("watchdogFor(depth 20) = %v, want 10m", got)
	}
}

func TestAnalyzer_Run_EndToEnd(t *testing.T) {
	ctx := context.Background()
	script := &enginetest.Script{}
	st := memstore.New()
	evals := ledger.New[PositionResult](st, EvalLedgerName)

	a, err := New(
		WithEngine(startedEngine(t, script)),
		WithEvalLedger(evals),
		depthBudget(20),
		WithMultiPV(1),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	fen := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	summary, err := a.Run(ctx, []Position{{ID: 0, FEN: fen}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Analyzed != 1 {
		t.Errorf("Analyzed = %d, want 1", summary.Analyzed)
	}

	r, ok := evals.Get(0)
	if !ok {
		t.Fatal("ledger has no entry for position 0")
	}
	if r.FEN != fen {
		t.Errorf("FEN = %q, want %q", r.FEN, fen)
	}
	if r.Depth < 20 {
		t.Errorf("Depth = %d, want >= 20", r.Depth)
	}
	if len(r.PVs) != 1 {
		t.Fatalf("len(PVs) = %d, want 1", len(r.PVs))
	}
	pv := r.PVs[0]
	if pv.Mate != nil || math.IsInf(pv.Eval, 0) || math.IsNaN(pv.Eval) || math.Abs(pv.Eval) >= uci.MateSentinel {
		t.Errorf("PVs[0] = %+v, want a finite non-mate eval", pv)
	}
	if r.AnalyzedAt.IsZero() {
		t.Error("AnalyzedAt is zero")
	}

	// The saved ledger holds the same entry.
	reloaded := ledger.New[PositionResult](st, EvalLedgerName)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reloaded.Has(0) {
		t.Error("saved ledger has no entry for position 0")
	}
}

func TestAnalyzer_Run_MultiPV(t *testing.T) {
	script := &enginetest.Script{}
	evals := ledger.New[PositionResult](memstore.New(), EvalLedgerName)

	a, err := New(WithEngine(startedEngine(t, script)), WithEvalLedger(evals), depthBudget(12), WithMultiPV(3))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := a.Run(context.Background(), startPositions(t, 518, 518)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	r, _ := evals.Get(518)
	if r.Depth != 12 {
		t.Errorf("Depth = %d, want 12", r.Depth)
	}
	want := []PV{
		{Moves: "e2e4 e7e5", Eval: 0.3},
		{Moves: "d2d4 e7e5", Eval: 0.2},
		{Moves: "g1f3 e7e5", Eval: 0.1},
	}
	if len(r.PVs) != len(want) {
		t.Fatalf("len(PVs) = %d, want %d", len(r.PVs), len(want))
	}
	for i, w := range want {
		got := r.PVs[i]
		if got.Moves != w.Moves || math.Abs(got.Eval-w.Eval) > 1e-9 || got.Mate != nil {
			t.Errorf("PVs[%d] = %+v, want %+v", i, got, w)
		}
	}
}

func TestAnalyzer_Run_Resume(t *testing.T) {
	const recorded, total = 5, 12
	ctx := context.Background()
	st := memstore.New()

	// A previous run recorded ids 0..recorded-1.
	prev := ledger.New[PositionResult](st, EvalLedgerName)
	for _, p := range startPositions(t, 0, recorded-1) {
		prev.Set(p.ID, PositionResult{FEN: p.FEN, Depth: 20})
	}
	if err := prev.Save(ctx); err != nil {
		t.Fatal(err)
	}

	script := &enginetest.Script{}
	evals := ledger.New[PositionResult](st, EvalLedgerName)
	a, err := New(WithEngine(startedEngine(t, script)), WithEvalLedger(evals), depthBudget(5))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Positions given out of order are still analysed ascending.
	positions := startPositions(t, 0, total-1)
	positions[0], positions[total-1] = positions[total-1], positions[0]

	summary, err := a.Run(ctx, positions)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	searched := script.Searched()
	if len(searched) != total-recorded {
		t.Fatalf("searches = %d, want %d", len(searched), total-recorded)
	}
	for i, fen := range searched {
		want, _ := dataset.StartFEN(recorded + i)
		if fen != want {
			t.Errorf("search %d = %s, want position %d (%s)", i, fen, recorded+i, want)
		}
	}
	if summary.Recorded != recorded || summary.Analyzed != total-recorded {
		t.Errorf("summary = %+v", summary)
	}
	if evals.Len() != total {
		t.Errorf("ledger Len() = %d, want %d", evals.Len(), total)
	}

	// A second run has nothing to do.
	again, err := a.Run(ctx, positions)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if again.Analyzed != 0 || len(script.Searched()) != total-recorded {
		t.Errorf("second run analysed %d positions", again.Analyzed)
	}
}

func TestAnalyzer_Run_SaveCadence(t *testing.T) {
	st := memstore.New()
	evals := ledger.New[PositionResult](st, EvalLedgerName)

	var saves int
	a, err := New(
		WithEngine(startedEngine(t, &enginetest.Script{})),
		WithEvalLedger(evals),
		depthBudget(3),
		WithSaveEvery(3),
		WithProgress(func(p progress.Progress) {
			if p.Phase == progress.PhaseSave {
				saves++
			}
		}),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := a.Run(context.Background(), startPositions(t, 0, 6)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// After 3, after 6 and at the end.
	if got := st.Writes(EvalLedgerName); got != 3 {
		t.Errorf("ledger writes = %d, want 3", got)
	}
	if saves != 3 {
		t.Errorf("save progress events = %d, want 3", saves)
	}
}

func TestAnalyzer_Run_SkipsMalformedFEN(t *testing.T) {
	script := &enginetest.Script{}
	evals := ledger.New[PositionResult](memstore.New(), EvalLedgerName)

	a, err := New(WithEngine(startedEngine(t, script)), WithEvalLedger(evals), depthBudget(3))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	positions := startPositions(t, 0, 2)
	positions[1].FEN = "not a fen"

	summary, err := a.Run(context.Background(), positions)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Invalid != 1 || summary.Analyzed != 2 {
		t.Errorf("summary = %+v, want 1 invalid and 2 analysed", summary)
	}
	if evals.Has(1) {
		t.Error("malformed position 1 was recorded")
	}
	if len(script.Searched()) != 2 {
		t.Errorf("searches = %d, want 2", len(script.Searched()))
	}
}

func TestAnalyzer_Run_StalledPositionSkipped(t *testing.T) {
	positions := startPositions(t, 0, 2)
	script := &enginetest.Script{Hang: map[string]bool{positions[1].FEN: true}}
	evals := ledger.New[PositionResult](memstore.New(), EvalLedgerName)

	a, err := New(
		WithEngine(startedEngine(t, script)),
		WithEvalLedger(evals),
		depthBudget(3),
		WithWatchdog(50*time.Millisecond),
		WithRetries(1),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	summary, err := a.Run(context.Background(), positions)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Failed != 1 || summary.Analyzed != 2 {
		t.Errorf("summary = %+v, want 1 failed and 2 analysed", summary)
	}
	if evals.Has(1) {
		t.Error("stalled position 1 was recorded")
	}
	// Initial process plus one restart per failed attempt.
	if got := script.Launches(); got != 3 {
		t.Errorf("Launches() = %d, want 3", got)
	}
}

func TestAnalyzer_Run_RecoversFromStall(t *testing.T) {
	positions := startPositions(t, 0, 1)
	script := &enginetest.Script{
		HangOnce: map[string]bool{positions[0].FEN: true},
	}
	evals := ledger.New[PositionResult](memstore.New(), EvalLedgerName)

	a, err := New(
		WithEngine(startedEngine(t, script)),
		WithEvalLedger(evals),
		depthBudget(3),
		WithWatchdog(50*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	summary, err := a.Run(context.Background(), positions)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Analyzed != 2 || summary.Failed != 0 {
		t.Errorf("summary = %+v, want 2 analysed", summary)
	}
	if got := script.Launches(); got != 2 {
		t.Errorf("Launches() = %d, want 2", got)
	}
}

func TestAnalyzer_Run_EngineLost(t *testing.T) {
	positions := startPositions(t, 0, 2)
	script := &enginetest.Script{Crash: map[string]bool{positions[1].FEN: true}}
	st := memstore.New()
	evals := ledger.New[PositionResult](st, EvalLedgerName)

	e := startedEngine(t, script)
	a, err := New(WithEngine(e), WithEvalLedger(evals), depthBudget(3))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// The binary disappears after the first launch.
	script.FailStart = true

	summary, err := a.Run(context.Background(), positions)
	if !errors.Is(err, ErrEngineLost) {
		t.Fatalf("Run() error = %v, want ErrEngineLost", err)
	}
	if summary.Analyzed != 1 {
		t.Errorf("Analyzed = %d, want 1", summary.Analyzed)
	}
	if st.Writes(EvalLedgerName) == 0 {
		t.Error("ledger not saved after engine loss")
	}
}

func TestAnalyzer_Run_CancelSavesProgress(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := memstore.New()
	evals := ledger.New[PositionResult](st, EvalLedgerName)
	a, err := New(
		WithEngine(startedEngine(t, &enginetest.Script{})),
		WithEvalLedger(evals),
		depthBudget(3),
		WithSaveEvery(100),
		WithProgress(func(p progress.Progress) {
			if p.Phase == progress.PhaseAnalyze && p.Done == 2 {
				cancel()
			}
		}),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	summary, err := a.Run(ctx, startPositions(t, 0, 9))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if summary.Analyzed != 2 {
		t.Errorf("Analyzed = %d, want 2", summary.Analyzed)
	}

	saved := ledger.New[PositionResult](st, EvalLedgerName)
	if err := saved.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if saved.Len() != 2 {
		t.Errorf("saved ledger Len() = %d, want 2", saved.Len())
	}
}

func TestAnalyzer_Run_InlineSharpness(t *testing.T) {
	st := memstore.New()
	evals := ledger.New[PositionResult](st, EvalLedgerName)
	sharp := ledger.New[SharpnessRecord](st, SharpnessLedgerName)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	a, err := New(
		WithEngine(startedEngine(t, &enginetest.Script{})),
		WithEvalLedger(evals),
		WithSharpnessLedger(sharp),
		depthBudget(4),
		WithClock(func() time.Time { return at }),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := a.Run(context.Background(), startPositions(t, 7, 8)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	r, ok := sharp.Get(7)
	if !ok {
		t.Fatal("sharpness ledger has no entry for position 7")
	}
	// Slot 1 of the scripted engine reports wdl 60 930 10.
	if r.WDL != (WDL{W: 60, D: 930, L: 10}) {
		t.Errorf("WDL = %+v", r.WDL)
	}
	if want := sharpness.Compute(60, 930, 10); r.Sharpness != want {
		t.Errorf("Sharpness = %v, want %v", r.Sharpness, want)
	}
	if !r.AnalyzedAt.Equal(at) {
		t.Errorf("AnalyzedAt = %v, want %v", r.AnalyzedAt, at)
	}
	if st.Writes(SharpnessLedgerName) == 0 {
		t.Error("sharpness ledger not saved")
	}
}

func TestAnalyzer_Run_SharpnessOnly(t *testing.T) {
	st := memstore.New()
	sharp := ledger.New[SharpnessRecord](st, SharpnessLedgerName)
	sharp.Set(0, SharpnessRecord{WDL: WDL{W: 1, D: 1, L: 1}})
	if err := sharp.Save(context.Background()); err != nil {
		t.Fatal(err)
	}

	script := &enginetest.Script{}
	a, err := New(WithEngine(startedEngine(t, script)), WithSharpnessLedger(sharp), depthBudget(2))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	summary, err := a.Run(context.Background(), startPositions(t, 0, 3))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Recorded != 1 || summary.Analyzed != 3 {
		t.Errorf("summary = %+v", summary)
	}
	if sharp.Len() != 4 {
		t.Errorf("Len() = %d, want 4", sharp.Len())
	}
	if st.Writes(EvalLedgerName) != 0 {
		t.Error("eval ledger written without being configured")
	}
}
