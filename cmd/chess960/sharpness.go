package main

import (
	"github.com/spf13/cobra"

	"github.com/discochess/chess960"
	"github.com/discochess/chess960/internal/ledger"
)

var sharpnessCmd = &cobra.Command{
	Use:   "sharpness",
	Short: "Record WDL sharpness of every start position",
	Long: `Analyse each position with WDL output enabled and record the sharpness
of the best line in chess960_sharpness.json. Positions already scored are
skipped.`,
	RunE: runSharpness,
}

var sharpnessSearch searchFlags

func init() {
	sharpnessSearch.register(sharpnessCmd, 1)
	rootCmd.AddCommand(sharpnessCmd)
}

func runSharpness(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	positions, err := loadPositions(ctx, sharpnessSearch.from, sharpnessSearch.to)
	if err != nil {
		return err
	}

	s, err := ledgerStore(ctx, true)
	if err != nil {
		return err
	}
	defer s.Close()

	return runAnalysis(ctx, &sharpnessSearch, true, positions,
		chess960.WithSharpnessLedger(ledger.New[chess960.SharpnessRecord](s, chess960.SharpnessLedgerName)),
	)
}
