package report

import (
	"math"
	"sort"

	"github.com/discochess/chess960"
	"github.com/discochess/chess960/internal/dataset"
	"github.com/discochess/chess960/internal/ledger"
	"github.com/discochess/chess960/internal/uci"
)

// DefaultTop is the number of rows in each ranking.
const DefaultTop = 10

// Row describes one start position in a ranking.
type Row struct {
	ID        int
	BackRank  string
	Score     string
	Eval      float64
	Depth     int
	Sharpness float64
}

// Report is the aggregate view of the ledgers.
type Report struct {
	// Evaluated and Scored count positions in the eval and sharpness ledgers.
	Evaluated int
	Scored    int

	// Mates counts positions whose best line is a forced mate. They are
	// excluded from Evals.
	Mates int

	Evals     Summary
	Depths    Summary
	Sharpness Summary

	// Correlation is Pearson's r between |eval| and sharpness.
	Correlation float64

	Balanced []Row
	White    []Row
	Sharpest []Row
}

// Build aggregates the ledgers. Either ledger may be nil.
func Build(evals *ledger.Ledger[chess960.PositionResult], sharpness *ledger.Ledger[chess960.SharpnessRecord], top int) *Report {
	if top <= 0 {
		top = DefaultTop
	}

	rows := make(map[int]*Row)
	row := func(id int) *Row {
		if r, ok := rows[id]; ok {
			return r
		}
		r := &Row{ID: id, Sharpness: math.NaN(), Eval: math.NaN()}
		r.BackRank, _ = dataset.BackRank(id)
		rows[id] = r
		return r
	}

	r := &Report{}
	var evalSample, depthSample, sharpSample []float64

	if evals != nil {
		for _, id := range evals.Keys() {
			res, _ := evals.Get(id)
			r.Evaluated++
			depthSample = append(depthSample, float64(res.Depth))

			pv := res.BestPV()
			if pv == nil {
				continue
			}
			rw := row(id)
			rw.Depth = res.Depth
			rw.Score = pv.Score()
			if pv.Mate != nil || math.Abs(pv.Eval) >= uci.MateSentinel {
				r.Mates++
				continue
			}
			rw.Eval = pv.Eval
			evalSample = append(evalSample, pv.Eval)
		}
	}

	if sharpness != nil {
		for _, id := range sharpness.Keys() {
			rec, _ := sharpness.Get(id)
			r.Scored++
			row(id).Sharpness = rec.Sharpness
			sharpSample = append(sharpSample, rec.Sharpness)
		}
	}

	r.Evals = Describe(evalSample)
	r.Depths = Describe(depthSample)
	r.Sharpness = Describe(sharpSample)

	var absEval, paired []float64
	all := make([]Row, 0, len(rows))
	for _, rw := range rows {
		all = append(all, *rw)
		if !math.IsNaN(rw.Eval) && !math.IsNaN(rw.Sharpness) {
			absEval = append(absEval, math.Abs(rw.Eval))
			paired = append(paired, rw.Sharpness)
		}
	}
	r.Correlation = Correlation(absEval, paired)

	r.Balanced = rank(all, top, func(rw Row) (float64, bool) {
		return math.Abs(rw.Eval), !math.IsNaN(rw.Eval)
	}, false)
	r.White = rank(all, top, func(rw Row) (float64, bool) {
		return rw.Eval, !math.IsNaN(rw.Eval)
	}, true)
	r.Sharpest = rank(all, top, func(rw Row) (float64, bool) {
		return rw.Sharpness, !math.IsNaN(rw.Sharpness)
	}, true)
	return r
}

// rank returns up to n rows ordered by key, ties broken by id.
func rank(rows []Row, n int, key func(Row) (float64, bool), desc bool) []Row {
	type keyed struct {
		row Row
		k   float64
	}
	var ks []keyed
	for _, rw := range rows {
		if k, ok := key(rw); ok {
			ks = append(ks, keyed{rw, k})
		}
	}
	sort.Slice(ks, func(i, j int) bool {
		if ks[i].k != ks[j].k {
			if desc {
				return ks[i].k > ks[j].k
			}
			return ks[i].k < ks[j].k
		}
		return ks[i].row.ID < ks[j].row.ID
	})
	if len(ks) > n {
		ks = ks[:n]
	}
	out := make([]Row, len(ks))
	for i, k := range ks {
		out[i] = k.row
	}
	return out
}
