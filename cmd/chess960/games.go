package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/discochess/chess960/internal/codec"
	"github.com/discochess/chess960/internal/games"
	"github.com/discochess/chess960/internal/ledger"
)

var gamesCmd = &cobra.Command{
	Use:   "games FILE...",
	Short: "Tally game results per start position from PGN archives",
	Long: `Scan PGN archives (plain, .zst or .gz) and count white wins, draws and
black wins per start position. Games are matched to a position by the board
of their FEN tag; games without one count for the classical setup (id 518).
The tally is written to chess960_games.json.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGames,
}

func init() {
	rootCmd.AddCommand(gamesCmd)
}

func runGames(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	counter := games.NewCounter(games.WithLogger(logger))

	for _, path := range args {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := countFile(counter, path); err != nil {
			return err
		}
		logger.Debug("scanned archive", zap.String("path", path))
	}
	tally := counter.Tally()

	s, err := ledgerStore(ctx, true)
	if err != nil {
		return err
	}
	defer s.Close()

	l := ledger.New[games.Record](s, games.FileName)
	for id, rec := range tally.ByID {
		l.Set(id, *rec)
	}
	if err := l.Save(ctx); err != nil {
		return err
	}

	fmt.Printf("Counted %d games over %d positions.\n", tally.Counted, len(tally.ByID))
	fmt.Printf("  Skipped (unparseable): %d\n", tally.Skipped)
	fmt.Printf("  Not Chess960:          %d\n", tally.Unmatched)
	fmt.Printf("  Unfinished:            %d\n", tally.Unfinished)
	return nil
}

func countFile(counter *games.Counter, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var r io.Reader = f
	if c, err := codec.ForName(strings.TrimPrefix(filepath.Ext(path), ".")); err == nil && c.Extension() != "" {
		dr, err := c.Reader(f)
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}
		defer dr.Close()
		r = dr
	}

	if err := counter.Count(r); err != nil {
		return fmt.Errorf("scanning %s: %w", path, err)
	}
	return nil
}
