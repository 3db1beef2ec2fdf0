package uci

import "testing"

func mustInfo(t *testing.T, line string) Info {
	t.Helper()
	msg := ParseLine(line)
	if msg.Kind != InfoLine {
		t.Fatalf("ParseLine(%q) is not an info line", line)
	}
	return *msg.Info
}

func TestAccumulator_KeepsDeepestPerSlot(t *testing.T) {
	acc := NewAccumulator(3)

	acc.Add(mustInfo(t, "info depth 10 multipv 2 score cp 15 pv d2d4"))
	if acc.Add(mustInfo(t, "info depth 8 multipv 2 score cp 99 pv a2a3")) {
		t.Error("Add() retained a shallower event")
	}

	res := acc.Result(BestMove{Move: "e2e4"})
	if len(res.Lines) != 1 {
		t.Fatalf("len(Lines) = %d, want 1", len(res.Lines))
	}
	if got := res.Lines[0]; got.Depth != 10 || got.PV[0] != "d2d4" {
		t.Errorf("slot 2 = depth %d pv %v, want depth 10 pv [d2d4]", got.Depth, got.PV)
	}
}

func TestAccumulator_SameDepthRefines(t *testing.T) {
	acc := NewAccumulator(1)
	acc.Add(mustInfo(t, "info depth 20 score cp 30 pv e2e4"))
	if !acc.Add(mustInfo(t, "info depth 20 score cp 28 pv e2e4 e7e5")) {
		t.Fatal("Add() rejected a same-depth refinement")
	}
	best, ok := acc.Result(BestMove{}).Best()
	if !ok {
		t.Fatal("Best() returned no line")
	}
	if best.Score.Value != 28 || len(best.PV) != 2 {
		t.Errorf("Best() = %+v, want refined cp 28 with two moves", best)
	}
}

func TestAccumulator_DropsSlotsAboveMultiPV(t *testing.T) {
	acc := NewAccumulator(3)
	for slot, line := range []string{
		"info depth 12 multipv 1 score cp 30 pv e2e4",
		"info depth 12 multipv 2 score cp 20 pv d2d4",
		"info depth 12 multipv 3 score cp 10 pv c2c4",
		"info depth 12 multipv 4 score cp 5 pv g1f3",
		"info depth 14 multipv 5 score cp 1 pv b2b3",
	} {
		added := acc.Add(mustInfo(t, line))
		if want := slot < 3; added != want {
			t.Errorf("Add(slot %d) = %v, want %v", slot+1, added, want)
		}
	}

	res := acc.Result(BestMove{Move: "e2e4"})
	if len(res.Lines) != 3 {
		t.Fatalf("len(Lines) = %d, want 3", len(res.Lines))
	}
	for i, line := range res.Lines {
		if line.MultiPV != i+1 {
			t.Errorf("Lines[%d].MultiPV = %d, want %d", i, line.MultiPV, i+1)
		}
	}
	if res.Depth != 12 {
		t.Errorf("Depth = %d, want 12 (slot 5 ignored)", res.Depth)
	}
}

func TestAccumulator_OrdersBySlot(t *testing.T) {
	acc := NewAccumulator(2)
	acc.Add(mustInfo(t, "info depth 5 multipv 2 score cp 10 pv d2d4"))
	acc.Add(mustInfo(t, "info depth 5 multipv 1 score cp 20 pv e2e4"))

	res := acc.Result(BestMove{})
	if res.Lines[0].PV[0] != "e2e4" || res.Lines[1].PV[0] != "d2d4" {
		t.Errorf("Lines = %+v, want slot 1 first", res.Lines)
	}
}

func TestAccumulator_Reset(t *testing.T) {
	acc := NewAccumulator(1)
	acc.Add(mustInfo(t, "info depth 5 score cp 10 pv e2e4"))
	acc.Reset()
	if acc.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", acc.Len())
	}
	if res := acc.Result(BestMove{}); res.Depth != 0 {
		t.Errorf("Depth after Reset = %d, want 0", res.Depth)
	}
}

func TestResult_BestMissingSlotOne(t *testing.T) {
	acc := NewAccumulator(2)
	acc.Add(mustInfo(t, "info depth 5 multipv 2 score cp 10 pv d2d4"))
	if _, ok := acc.Result(BestMove{}).Best(); ok {
		t.Error("Best() = ok, want false without slot 1")
	}
}
