package uci

import "strconv"

// MateSentinel is the pawn-unit value substituted for mate scores when a
// single number is needed. It is never a real evaluation.
const MateSentinel = 9999.0

// Score is an engine evaluation from the side to move's perspective.
// For mate scores Value is the signed "mate in N": positive when the side to
// move mates, negative when it is mated.
type Score struct {
	Mate  bool
	Value int
}

// Pawns returns the score in pawn units. Mate scores saturate to ±MateSentinel.
func (s Score) Pawns() float64 {
	if s.Mate {
		if s.Value < 0 {
			return -MateSentinel
		}
		return MateSentinel
	}
	return float64(s.Value) / 100
}

// MateIn returns the mate distance and true for mate scores.
func (s Score) MateIn() (int, bool) {
	if !s.Mate {
		return 0, false
	}
	return s.Value, true
}

// String formats the score the way engines print it ("cp 25", "mate -3").
func (s Score) String() string {
	if s.Mate {
		return "mate " + strconv.Itoa(s.Value)
	}
	return "cp " + strconv.Itoa(s.Value)
}
