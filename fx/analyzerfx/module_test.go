package analyzerfx

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zaptest"

	"github.com/discochess/chess960"
	"github.com/discochess/chess960/internal/dataset"
	"github.com/discochess/chess960/internal/engine/enginetest"
	"github.com/discochess/chess960/internal/uci"
)

func TestModule(t *testing.T) {
	dir := t.TempDir()
	script := &enginetest.Script{}

	var a *chess960.Analyzer
	app := fxtest.New(t,
		fx.Supply(Config{
			DataDir:   dir,
			Launcher:  script.Launcher(),
			Budget:    uci.Budget{Depth: 12},
			MultiPV:   2,
			Sharpness: true,
		}),
		fx.Supply(zaptest.NewLogger(t)),
		Module,
		fx.Populate(&a),
	)
	app.RequireStart()

	var positions []chess960.Position
	for id := 0; id < 3; id++ {
		fen, err := dataset.StartFEN(id)
		if err != nil {
			t.Fatal(err)
		}
		positions = append(positions, chess960.Position{ID: id, FEN: fen})
	}

	summary, err := a.Run(context.Background(), positions)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Analyzed != 3 {
		t.Errorf("Analyzed = %d, want 3", summary.Analyzed)
	}

	app.RequireStop()

	for _, name := range []string{chess960.EvalLedgerName, chess960.SharpnessLedgerName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("ledger %s not written: %v", name, err)
		}
	}
	if script.Launches() != 1 {
		t.Errorf("Launches() = %d, want 1", script.Launches())
	}
}

func TestModuleRejectsUnknownCodec(t *testing.T) {
	app := fx.New(
		fx.Supply(Config{DataDir: t.TempDir(), Compression: "lz4", Launcher: (&enginetest.Script{}).Launcher()}),
		fx.Supply(zaptest.NewLogger(t)),
		Module,
		fx.Invoke(func(*chess960.Analyzer) {}),
		fx.NopLogger,
	)
	if app.Err() == nil {
		t.Error("fx.New() succeeded with an unknown codec")
	}
}
