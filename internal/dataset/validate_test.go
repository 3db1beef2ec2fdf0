package dataset

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		fen     string
		wantErr bool
	}{
		{"classical", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", false},
		{"chess960 id 0", "bbqnnrkr/pppppppp/8/8/8/8/PPPPPPPP/BBQNNRKR w KQkq - 0 1", false},
		{"after e4", "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1", false},
		{"garbage", "not a fen", true},
		{"short rank", "rnbqkbnr/pppppppp/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.fen)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q) error = %v, wantErr %v", tt.fen, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidFEN) {
				t.Errorf("Validate(%q) error = %v, want ErrInvalidFEN", tt.fen, err)
			}
		})
	}
}

func TestPieceCount(t *testing.T) {
	tests := []struct {
		fen  string
		want int
	}{
		{"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", 32},
		{"4k3/8/8/8/8/8/8/4K2R w K - 0 1", 3},
		{"8/8/8/3k4/8/8/2QK4/8 w - - 0 1", 3},
	}

	for _, tt := range tests {
		got, err := PieceCount(tt.fen)
		if err != nil {
			t.Fatalf("PieceCount(%q) error = %v", tt.fen, err)
		}
		if got != tt.want {
			t.Errorf("PieceCount(%q) = %d, want %d", tt.fen, got, tt.want)
		}
	}
}

func TestPlacement(t *testing.T) {
	got, err := Placement("bbqnnrkr/pppppppp/8/8/8/8/PPPPPPPP/BBQNNRKR w KQkq - 0 1")
	if err != nil {
		t.Fatalf("Placement() error = %v", err)
	}
	if want := "bbqnnrkr/pppppppp/8/8/8/8/PPPPPPPP/BBQNNRKR"; got != want {
		t.Errorf("Placement() = %s, want %s", got, want)
	}
}

func TestVerifyFix(t *testing.T) {
	d := Generate()
	d.Positions[3].FEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	d.Positions = append(d.Positions, Position{ID: 1000, FEN: "x"})

	mismatches := Verify(d)
	if len(mismatches) != 2 {
		t.Fatalf("len(Verify()) = %d, want 2", len(mismatches))
	}
	if mismatches[0].ID != 3 || mismatches[1].ID != 1000 || mismatches[1].Canonical != "" {
		t.Errorf("Verify() = %+v", mismatches)
	}

	fixed := Fix(d)
	if len(fixed) != 1 || fixed[0].ID != 3 {
		t.Fatalf("Fix() = %+v, want only id 3", fixed)
	}
	want, _ := StartFEN(3)
	if d.Positions[3].FEN != want {
		t.Errorf("Positions[3].FEN = %s, want %s", d.Positions[3].FEN, want)
	}
	if got := Verify(d); len(got) != 1 {
		t.Errorf("Verify() after Fix() = %+v, want only id 1000", got)
	}
}
