package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/discochess/chess960"
	"github.com/discochess/chess960/internal/ledger"
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Fold recorded evaluations into chess960.json",
	Long: `Write the depth and principal variations of every position in
chess960_evals.json into the "eval" field of the matching position in
chess960.json. Other fields are preserved.`,
	RunE: runMerge,
}

var mergeDryRun bool

func init() {
	mergeCmd.Flags().BoolVar(&mergeDryRun, "dry-run", false, "report what would change without writing")
	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	loader, ds, err := datasetLoader()
	if err != nil {
		return err
	}
	defer ds.Close()

	d, err := loader.Load(ctx)
	if err != nil {
		return err
	}

	s, err := ledgerStore(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	evals := ledger.New[chess960.PositionResult](s, chess960.EvalLedgerName)
	if err := evals.Load(ctx); err != nil {
		return err
	}

	merged, n, err := chess960.MergeEvals(d, evals)
	if err != nil {
		return err
	}
	fmt.Printf("Merged %d of %d positions.\n", n, len(merged.Positions))
	if mergeDryRun {
		return nil
	}
	return loader.Save(ctx, merged)
}
