package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/discochess/chess960/internal/dataset"
	"github.com/discochess/chess960/internal/store"
)

var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "Manage the position list",
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the 960 start positions to chess960.json",
	Long: `Write chess960.json with the 960 start positions in Scharnagl
numbering (id 518 is the classical setup).`,
	RunE: runGenerate,
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check every stored FEN against its id",
	Long: `Compare the FEN of every position in chess960.json with the canonical
start position for its id and report mismatches. With --fix the stored FENs
are rewritten.`,
	RunE: runVerify,
}

var (
	generateForce bool
	verifyFix     bool
)

func init() {
	generateCmd.Flags().BoolVar(&generateForce, "force", false, "overwrite an existing chess960.json")
	verifyCmd.Flags().BoolVar(&verifyFix, "fix", false, "rewrite mismatched FENs")
	positionsCmd.AddCommand(generateCmd, verifyCmd)
	rootCmd.AddCommand(positionsCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	loader, s, err := datasetLoader()
	if err != nil {
		return err
	}
	defer s.Close()

	if !generateForce {
		_, err := s.Read(ctx, dataset.FileName)
		if err == nil {
			return fmt.Errorf("%s already exists in %s (use --force to overwrite)", dataset.FileName, dataDir)
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}

	d := dataset.Generate()
	if err := loader.Save(ctx, d); err != nil {
		return err
	}
	fmt.Printf("Wrote %d positions to %s.\n", len(d.Positions), dataDir)
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	loader, s, err := datasetLoader()
	if err != nil {
		return err
	}
	defer s.Close()

	d, err := loader.Load(ctx)
	if err != nil {
		return err
	}

	if !verifyFix {
		mismatches := dataset.Verify(d)
		for _, m := range mismatches {
			fmt.Printf("  #%d: %s (want %s)\n", m.ID, m.Stored, m.Canonical)
		}
		if len(mismatches) > 0 {
			return fmt.Errorf("%d of %d positions do not match their id", len(mismatches), len(d.Positions))
		}
		fmt.Printf("All %d positions verified.\n", len(d.Positions))
		return nil
	}

	fixed := d.Clone()
	mismatches := dataset.Fix(fixed)
	for _, m := range mismatches {
		fmt.Printf("  #%d: %s -> %s\n", m.ID, m.Stored, m.Canonical)
	}
	if len(mismatches) == 0 {
		fmt.Printf("All %d positions verified.\n", len(d.Positions))
		return nil
	}
	if err := loader.Save(ctx, fixed); err != nil {
		return err
	}
	fmt.Printf("Fixed %d positions.\n", len(mismatches))
	return nil
}
