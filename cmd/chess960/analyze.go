package main

import (
	"github.com/spf13/cobra"

	"github.com/discochess/chess960"
	"github.com/discochess/chess960/internal/ledger"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Record multi-PV evaluations of every start position",
	Long: `Analyse each position of chess960.json with the engine and record the
principal variations in chess960_evals.json.

The run is resumable: positions already in the ledger are skipped, and the
ledger is saved every --save-every positions and on interrupt.

Examples:
  # Default budget: 20s per position, 3 lines
  chess960 analyze

  # Also record WDL sharpness in the same pass
  chess960 analyze --sharpness

  # Re-run a slice at fixed depth
  chess960 analyze --depth 24 --from 500 --to 540`,
	RunE: runAnalyze,
}

var (
	analyzeSearch    searchFlags
	analyzeSharpness bool
)

func init() {
	analyzeSearch.register(analyzeCmd, chess960.DefaultMultiPV)
	analyzeCmd.Flags().BoolVar(&analyzeSharpness, "sharpness", false, "also record WDL sharpness in chess960_sharpness.json")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	positions, err := loadPositions(ctx, analyzeSearch.from, analyzeSearch.to)
	if err != nil {
		return err
	}

	s, err := ledgerStore(ctx, true)
	if err != nil {
		return err
	}
	defer s.Close()

	opts := []chess960.Option{
		chess960.WithEvalLedger(ledger.New[chess960.PositionResult](s, chess960.EvalLedgerName)),
	}
	if analyzeSharpness {
		opts = append(opts, chess960.WithSharpnessLedger(ledger.New[chess960.SharpnessRecord](s, chess960.SharpnessLedgerName)))
	}
	return runAnalysis(ctx, &analyzeSearch, analyzeSharpness, positions, opts...)
}
