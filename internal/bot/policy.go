// Package bot turns engine analysis into moves for an interactive opponent:
// occasionally a weaker candidate instead of the best move, played after a
// human-looking delay.
package bot

import (
	"math"
	"time"

	"github.com/discochess/chess960/internal/uci"
)

// Rand is the randomness a Policy consumes. *rand.Rand from math/rand/v2
// implements it.
type Rand interface {
	Float64() float64
}

// Policy holds the tunables of move choice and timing.
type Policy struct {
	// RandomMoveProbability is the chance of picking among the top
	// candidates instead of playing the best move.
	RandomMoveProbability float64

	// Decay sets candidate weights to exp(-Decay*rank), rank 0 being best.
	Decay float64

	// Candidates is how many multi-PV lines are considered.
	Candidates int

	// MinDelay and MaxDelay bound the think time of an uncapped move.
	// Crowded boards think longer than sparse ones.
	MinDelay time.Duration
	MaxDelay time.Duration

	// ClockFraction caps a delay to this share of the remaining clock.
	ClockFraction float64
}

// DefaultPolicy returns a mildly fallible, reasonably quick bot.
func DefaultPolicy() Policy {
	return Policy{
		RandomMoveProbability: 0.15,
		Decay:                 1.0,
		Candidates:            3,
		MinDelay:              400 * time.Millisecond,
		MaxDelay:              4 * time.Second,
		ClockFraction:         0.05,
	}
}

// Choose picks a move from the analysis. Lines are ordered best first.
// It returns the empty string when there is no legal move.
func (p Policy) Choose(lines []uci.Info, best uci.BestMove, rng Rand) string {
	move := best.Move
	if move == "" && len(lines) > 0 && len(lines[0].PV) > 0 {
		move = lines[0].PV[0]
	}

	if p.RandomMoveProbability <= 0 || rng.Float64() >= p.RandomMoveProbability {
		return move
	}

	candidates := p.candidates(lines)
	if len(candidates) < 2 {
		return move
	}

	weights := make([]float64, len(candidates))
	total := 0.0
	for rank := range candidates {
		weights[rank] = math.Exp(-p.Decay * float64(rank))
		total += weights[rank]
	}

	r := rng.Float64() * total
	for i, w := range weights {
		if r < w {
			return candidates[i]
		}
		r -= w
	}
	return candidates[len(candidates)-1]
}

// candidates returns the distinct first moves of the top lines.
func (p Policy) candidates(lines []uci.Info) []string {
	n := p.Candidates
	if n < 1 || n > len(lines) {
		n = len(lines)
	}
	seen := make(map[string]bool, n)
	var out []string
	for _, line := range lines[:n] {
		if len(line.PV) == 0 || seen[line.PV[0]] {
			continue
		}
		seen[line.PV[0]] = true
		out = append(out, line.PV[0])
	}
	return out
}

// Delay returns how long to wait before playing. The range grows with the
// number of pieces on the board and is capped by ClockFraction of the
// remaining time; a non-positive remaining time means an untimed game.
// The result is always positive.
func (p Policy) Delay(remaining time.Duration, pieces int, rng Rand) time.Duration {
	frac := math.Max(0, math.Min(1, float64(pieces)/32))
	span := float64(p.MaxDelay - p.MinDelay)
	if span < 0 {
		span = 0
	}

	lo := float64(p.MinDelay) + span*frac/4
	hi := float64(p.MinDelay) + span*(0.25+0.75*frac)

	if remaining > 0 && p.ClockFraction > 0 {
		limit := math.Max(1, float64(remaining)*p.ClockFraction)
		hi = math.Min(hi, limit)
		lo = math.Min(lo, hi/2)
	}

	d := time.Duration(lo + rng.Float64()*(hi-lo))
	if d < 1 {
		d = 1
	}
	return d
}
