package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/discochess/chess960"
	"github.com/discochess/chess960/internal/ledger"
	"github.com/discochess/chess960/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write a Markdown summary of the ledgers",
	Long: `Summarise chess960_evals.json and chess960_sharpness.json: coverage,
distributions of evaluation, depth and sharpness, and rankings of the most
balanced and sharpest start positions.`,
	RunE: runReport,
}

var (
	reportOut string
	reportTop int
)

func init() {
	reportCmd.Flags().StringVar(&reportOut, "out", "", "write the report to this file instead of stdout")
	reportCmd.Flags().IntVar(&reportTop, "top", report.DefaultTop, "rows per ranking")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := ledgerStore(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	evals := ledger.New[chess960.PositionResult](s, chess960.EvalLedgerName)
	if err := evals.Load(ctx); err != nil {
		return err
	}
	sharp := ledger.New[chess960.SharpnessRecord](s, chess960.SharpnessLedgerName)
	if err := sharp.Load(ctx); err != nil {
		return err
	}

	r := report.Build(evals, sharp, reportTop)

	if reportOut == "" {
		return report.WriteMarkdown(cmd.OutOrStdout(), r, time.Now())
	}
	f, err := os.Create(reportOut)
	if err != nil {
		return err
	}
	if err := report.WriteMarkdown(f, r, time.Now()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
