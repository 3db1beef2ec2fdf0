package chess960

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/discochess/chess960/internal/uci"
)

// Position is a start position to analyse.
type Position struct {
	ID  int    `json:"id"`
	FEN string `json:"fen"`
}

// WDL holds win/draw/loss statistics on the engine's scale (per mille for
// Stockfish), from the side to move's perspective.
type WDL = uci.WDL

// PositionResult is the evaluation ledger entry of one position.
type PositionResult struct {
	FEN   string `json:"fen"`
	Depth int    `json:"depth"`

	// PVs holds the principal variations, best first.
	PVs []PV `json:"pvs"`

	AnalyzedAt Timestamp `json:"analyzedAt"`
}

// BestPV returns the best principal variation, or nil if none available.
func (r *PositionResult) BestPV() *PV {
	if len(r.PVs) == 0 {
		return nil
	}
	return &r.PVs[0]
}

// PV represents a principal variation (line of play) from the engine.
type PV struct {
	// Moves is the line in UCI notation, space separated.
	Moves string `json:"moves"`

	// Eval is the score in pawns from the side to move's perspective.
	// Mate scores are ±9999.
	Eval float64 `json:"eval"`

	// Mate is the signed number of moves to mate, or nil.
	Mate *int `json:"mate"`
}

// Score returns a human-readable score string.
// Examples: "+0.25", "-1.50", "#3", "#-5"
func (pv *PV) Score() string {
	if pv.Mate != nil {
		return "#" + strconv.Itoa(*pv.Mate)
	}
	return fmt.Sprintf("%+.2f", pv.Eval)
}

// SharpnessRecord is the sharpness ledger entry of one position.
type SharpnessRecord struct {
	FEN        string    `json:"fen"`
	WDL        WDL       `json:"wdl"`
	Sharpness  float64   `json:"sharpness"`
	AnalyzedAt Timestamp `json:"analyzedAt"`
}

// Timestamp is a time encoded as RFC 3339. It also decodes the zone-less
// ISO 8601 form written by earlier tools, interpreted as local time.
type Timestamp struct {
	time.Time
}

const isoLocal = "2006-01-02T15:04:05.999999999"

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	if v, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = v
		return nil
	}
	v, err := time.ParseInLocation(isoLocal, s, time.Local)
	if err != nil {
		return err
	}
	t.Time = v
	return nil
}

// newPositionResult converts a finished search into a ledger entry.
func newPositionResult(fen string, r *uci.Result, at time.Time) PositionResult {
	pvs := make([]PV, 0, len(r.Lines))
	for _, line := range r.Lines {
		pv := PV{
			Moves: strings.Join(line.PV, " "),
			Eval:  line.Score.Pawns(),
		}
		if n, ok := line.Score.MateIn(); ok {
			pv.Mate = &n
		}
		pvs = append(pvs, pv)
	}
	return PositionResult{
		FEN:        fen,
		Depth:      r.Depth,
		PVs:        pvs,
		AnalyzedAt: Timestamp{at},
	}
}
