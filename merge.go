package chess960

import (
	"fmt"

	"github.com/discochess/chess960/internal/dataset"
	"github.com/discochess/chess960/internal/ledger"
	"github.com/discochess/chess960/internal/sharpness"
)

// EvalField is the dataset field MergeEvals writes.
const EvalField = "eval"

// evalSummary is the per-position overlay written into the dataset.
type evalSummary struct {
	Depth int  `json:"depth"`
	PVs   []PV `json:"pvs"`
}

// Positions returns the id and FEN of every dataset entry.
func Positions(d *dataset.Dataset) []Position {
	out := make([]Position, len(d.Positions))
	for i, p := range d.Positions {
		out[i] = Position{ID: p.ID, FEN: p.FEN}
	}
	return out
}

// MergeEvals returns a copy of d in which every position present in evals
// carries an "eval" field holding its depth and principal variations.
// Positions without a ledger entry and all other fields are left as they
// were. It also returns the number of positions updated.
func MergeEvals(d *dataset.Dataset, evals *ledger.Ledger[PositionResult]) (*dataset.Dataset, int, error) {
	out := d.Clone()
	merged := 0
	for i := range out.Positions {
		p := &out.Positions[i]
		r, ok := evals.Get(p.ID)
		if !ok {
			continue
		}
		if err := p.Set(EvalField, evalSummary{Depth: r.Depth, PVs: r.PVs}); err != nil {
			return nil, 0, fmt.Errorf("merging position %d: %w", p.ID, err)
		}
		merged++
	}
	return out, merged, nil
}

// Rescore recomputes the sharpness of every record from its stored WDL and
// returns how many values changed.
func Rescore(records *ledger.Ledger[SharpnessRecord]) int {
	changed := 0
	for _, id := range records.Keys() {
		r, _ := records.Get(id)
		s := sharpness.Compute(r.WDL.W, r.WDL.D, r.WDL.L)
		if s == r.Sharpness {
			continue
		}
		r.Sharpness = s
		records.Set(id, r)
		changed++
	}
	return changed
}
