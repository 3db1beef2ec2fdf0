package chess960

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/discochess/chess960/internal/uci"
)

func intPtr(n int) *int { return &n }

func TestPV_Score(t *testing.T) {
	tests := []struct {
		pv   PV
		want string
	}{
		{PV{Eval: 0.25}, "+0.25"},
		{PV{Eval: 0}, "+0.00"},
		{PV{Eval: -1.5}, "-1.50"},
		{PV{Eval: 9999, Mate: intPtr(3)}, "#3"},
		{PV{Eval: -9999, Mate: intPtr(-5)}, "#-5"},
	}

	for _, tt := range tests {
		if got := tt.pv.Score(); got != tt.want {
			t.Errorf("Score(%+v) = %q, want %q", tt.pv, got, tt.want)
		}
	}
}

func TestNewPositionResult(t *testing.T) {
	at := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	res := &uci.Result{
		Depth: 24,
		Lines: []uci.Info{
			{Depth: 24, MultiPV: 1, Score: uci.Score{Mate: true, Value: 4}, PV: []string{"e2e4", "e7e5"}},
			{Depth: 23, MultiPV: 2, Score: uci.Score{Value: -35}, PV: []string{"d2d4"}},
		},
	}

	r := newPositionResult("fen", res, at)

	if r.Depth != 24 || r.FEN != "fen" || !r.AnalyzedAt.Equal(at) {
		t.Errorf("newPositionResult() = %+v", r)
	}
	if len(r.PVs) != 2 {
		t.Fatalf("len(PVs) = %d, want 2", len(r.PVs))
	}
	if pv := r.PVs[0]; pv.Moves != "e2e4 e7e5" || pv.Eval != uci.MateSentinel || pv.Mate == nil || *pv.Mate != 4 {
		t.Errorf("PVs[0] = %+v", pv)
	}
	if pv := r.PVs[1]; pv.Eval != -0.35 || pv.Mate != nil {
		t.Errorf("PVs[1] = %+v", pv)
	}
	if best := r.BestPV(); best == nil || best.Score() != "#4" {
		t.Errorf("BestPV() = %+v", best)
	}
}

func TestPositionResult_JSON(t *testing.T) {
	r := PositionResult{
		FEN:        "fen",
		Depth:      20,
		PVs:        []PV{{Moves: "e2e4", Eval: 0.3}},
		AnalyzedAt: Timestamp{time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)},
	}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"fen":"fen","depth":20,"pvs":[{"moves":"e2e4","eval":0.3,"mate":null}],"analyzedAt":"2026-05-01T09:30:00Z"}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}

func TestTimestamp_Unmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{"rfc3339", `"2026-05-01T09:30:00Z"`, time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC), false},
		{"zone-less with micros", `"2026-05-01T09:30:00.123456"`, time.Date(2026, 5, 1, 9, 30, 0, 123456000, time.Local), false},
		{"zone-less", `"2026-05-01T09:30:00"`, time.Date(2026, 5, 1, 9, 30, 0, 0, time.Local), false},
		{"empty", `""`, time.Time{}, false},
		{"garbage", `"yesterday"`, time.Time{}, true},
		{"not a string", `42`, time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			err := json.Unmarshal([]byte(tt.input), &ts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && !ts.Equal(tt.want) {
				t.Errorf("Unmarshal(%s) = %v, want %v", tt.input, ts.Time, tt.want)
			}
		})
	}
}

func TestSharpnessRecord_JSON(t *testing.T) {
	r := SharpnessRecord{FEN: "fen", WDL: WDL{W: 60, D: 930, L: 10}, Sharpness: 0.5}
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), `"wdl":{"w":60,"d":930,"l":10}`) {
		t.Errorf("Marshal() = %s, want wdl object", data)
	}
}
