package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/discochess/chess960"
	"github.com/discochess/chess960/internal/ledger"
)

var rescoreCmd = &cobra.Command{
	Use:   "rescore",
	Short: "Recompute sharpness from the stored WDL statistics",
	Long: `Recompute the sharpness of every record in chess960_sharpness.json from
its stored win/draw/loss counts, without running the engine.`,
	RunE: runRescore,
}

func init() {
	rootCmd.AddCommand(rescoreCmd)
}

func runRescore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := ledgerStore(ctx, true)
	if err != nil {
		return err
	}
	defer s.Close()

	records := ledger.New[chess960.SharpnessRecord](s, chess960.SharpnessLedgerName)
	if err := records.Load(ctx); err != nil {
		return err
	}

	changed := chess960.Rescore(records)
	if changed > 0 {
		if err := records.Save(ctx); err != nil {
			return err
		}
	}
	fmt.Printf("Rescored %d records, %d changed.\n", records.Len(), changed)
	return nil
}
