package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/discochess/chess960/internal/bot"
	"github.com/discochess/chess960/internal/dataset"
)

var bestmoveCmd = &cobra.Command{
	Use:   "bestmove [fen]",
	Short: "Pick a bot move for a position",
	Long: `Analyse a position and print the move an interactive bot would play,
including its occasional deviation from the best line and a humanised think
time.

Examples:
  # Move for the start position with id 0 and 3 minutes on the clock
  chess960 bestmove --id 0 --clock 3m

  # Always play the engine's choice
  chess960 bestmove --random 0 "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBestmove,
}

var (
	bestmoveID       int
	bestmoveClock    time.Duration
	bestmoveMoveTime time.Duration
	bestmoveRandom   float64
	bestmoveLines    int
	bestmoveWait     bool
)

func init() {
	policy := bot.DefaultPolicy()
	fl := bestmoveCmd.Flags()
	fl.IntVar(&bestmoveID, "id", -1, "use the start position with this id")
	fl.DurationVar(&bestmoveClock, "clock", 0, "remaining clock time (0 for untimed)")
	fl.DurationVar(&bestmoveMoveTime, "movetime", bot.DefaultMoveTime, "search time")
	fl.Float64Var(&bestmoveRandom, "random", policy.RandomMoveProbability, "probability of playing a weaker candidate")
	fl.IntVar(&bestmoveLines, "candidates", policy.Candidates, "number of candidate lines")
	fl.BoolVar(&bestmoveWait, "wait", false, "actually wait the think time before printing")
	rootCmd.AddCommand(bestmoveCmd)
}

func runBestmove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	fen, err := bestmoveFEN(args)
	if err != nil {
		return err
	}

	policy := bot.DefaultPolicy()
	policy.RandomMoveProbability = bestmoveRandom
	policy.Candidates = max(bestmoveLines, 1)

	eng, err := startEngine(ctx, 1, 64, policy.Candidates, false)
	if err != nil {
		return err
	}
	defer stopEngine(ctx, eng)

	opts := []bot.PlayerOption{
		bot.WithPolicy(policy),
		bot.WithMoveTime(bestmoveMoveTime),
		bot.WithStats(collector),
		bot.WithLogger(logger),
	}
	if !bestmoveWait {
		opts = append(opts, bot.WithSleep(func(context.Context, time.Duration) error { return nil }))
	}
	player, err := bot.NewPlayer(eng, opts...)
	if err != nil {
		return err
	}

	move, err := player.Move(ctx, fen, bestmoveClock)
	if err != nil {
		return err
	}
	fmt.Printf("%s (best %s, think %s)\n", move.UCI, move.Best, move.Delay.Round(time.Millisecond))
	return nil
}

func bestmoveFEN(args []string) (string, error) {
	switch {
	case len(args) == 1 && bestmoveID >= 0:
		return "", errors.New("give either a FEN or --id, not both")
	case len(args) == 1:
		return args[0], nil
	case bestmoveID >= 0:
		return dataset.StartFEN(bestmoveID)
	}
	return "", errors.New("a FEN argument or --id is required")
}
