package bot

import (
	"testing"
	"time"

	"github.com/discochess/chess960/internal/uci"
)

// seqRand replays a fixed sequence of values.
type seqRand struct {
	vals []float64
	i    int
}

func (r *seqRand) Float64() float64 {
	v := r.vals[r.i%len(r.vals)]
	r.i++
	return v
}

func lines(moves ...string) []uci.Info {
	out := make([]uci.Info, len(moves))
	for i, m := range moves {
		out[i] = uci.Info{Depth: 12, MultiPV: i + 1, PV: []string{m, "e7e5"}}
	}
	return out
}

func TestChoose(t *testing.T) {
	policy := Policy{RandomMoveProbability: 0.15, Decay: 1, Candidates: 3}
	top := lines("e2e4", "d2d4", "g1f3")
	best := uci.BestMove{Move: "e2e4"}

	tests := []struct {
		name   string
		policy Policy
		lines  []uci.Info
		best   uci.BestMove
		rng    []float64
		want   string
	}{
		{"no randomness", Policy{Decay: 1, Candidates: 3}, top, best, []float64{0}, "e2e4"},
		{"roll above probability", policy, top, best, []float64{0.5}, "e2e4"},
		{"random first candidate", policy, top, best, []float64{0.05, 0.0}, "e2e4"},
		{"random second candidate", policy, top, best, []float64{0.05, 0.9}, "d2d4"},
		{"random third candidate", policy, top, best, []float64{0.05, 0.99}, "g1f3"},
		{"candidates limited", Policy{RandomMoveProbability: 1, Decay: 1, Candidates: 2}, top, best, []float64{0.0, 0.99}, "d2d4"},
		{"duplicate first moves collapse", policy, lines("e2e4", "e2e4"), best, []float64{0.05, 0.99}, "e2e4"},
		{"best from first line", Policy{}, top, uci.BestMove{}, []float64{0}, "e2e4"},
		{"no move", policy, nil, uci.BestMove{}, []float64{0.05}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.policy.Choose(tt.lines, tt.best, &seqRand{vals: tt.rng})
			if got != tt.want {
				t.Errorf("Choose() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDelayPositiveAndCapped(t *testing.T) {
	policy := DefaultPolicy()
	clocks := []time.Duration{0, time.Nanosecond, time.Millisecond, 2 * time.Second, 10 * time.Minute}
	rolls := []float64{0, 0.5, 0.999}

	for _, clock := range clocks {
		for pieces := 2; pieces <= 32; pieces += 10 {
			for _, roll := range rolls {
				d := policy.Delay(clock, pieces, &seqRand{vals: []float64{roll}})
				if d <= 0 {
					t.Fatalf("Delay(%v, %d, %v) = %v, want > 0", clock, pieces, roll, d)
				}
				if clock > 0 {
					limit := time.Duration(float64(clock) * policy.ClockFraction)
					if d > max(limit, 1) {
						t.Fatalf("Delay(%v, %d, %v) = %v, exceeds %v", clock, pieces, roll, d, limit)
					}
				} else if d < policy.MinDelay || d > policy.MaxDelay {
					t.Fatalf("untimed Delay(%d, %v) = %v, outside [%v, %v]", pieces, roll, d, policy.MinDelay, policy.MaxDelay)
				}
			}
		}
	}
}

func TestDelayGrowsWithPieces(t *testing.T) {
	policy := DefaultPolicy()
	sparse := policy.Delay(0, 4, &seqRand{vals: []float64{0.5}})
	crowded := policy.Delay(0, 32, &seqRand{vals: []float64{0.5}})
	if sparse >= crowded {
		t.Errorf("Delay with 4 pieces = %v, with 32 pieces = %v; want fewer pieces faster", sparse, crowded)
	}
}

func TestDelayShrinksUnderPressure(t *testing.T) {
	policy := DefaultPolicy()
	relaxed := policy.Delay(30*time.Minute, 32, &seqRand{vals: []float64{0.5}})
	pressed := policy.Delay(2*time.Second, 32, &seqRand{vals: []float64{0.5}})
	if pressed >= relaxed {
		t.Errorf("Delay with 2s = %v, with 30m = %v; want less time under pressure", pressed, relaxed)
	}
}
