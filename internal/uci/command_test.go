package uci

import (
	"errors"
	"testing"
	"time"
)

func TestBudget_Command(t *testing.T) {
	tests := []struct {
		name   string
		budget Budget
		want   string
	}{
		{"depth", Budget{Depth: 20}, "go depth 20"},
		{"movetime", Budget{MoveTime: 20 * time.Second}, "go movetime 20000"},
		{"nodes", Budget{Nodes: 5000000}, "go nodes 5000000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.budget.Command(); got != tt.want {
				t.Errorf("Command() = %q, want %q", got, tt.want)
			}
			if err := tt.budget.Validate(); err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}

func TestBudget_ValidateRejects(t *testing.T) {
	for _, b := range []Budget{{}, {Depth: 10, Nodes: 10}, {Depth: 1, MoveTime: time.Second}} {
		if err := b.Validate(); !errors.Is(err, ErrInvalidBudget) {
			t.Errorf("Validate(%+v) error = %v, want ErrInvalidBudget", b, err)
		}
	}
}

func TestSetOption(t *testing.T) {
	if got := SetOption(OptSkillLevel, 5); got != "setoption name Skill Level value 5" {
		t.Errorf("SetOption() = %q", got)
	}
	if got := SetOption(OptChess960, true); got != "setoption name UCI_Chess960 value true" {
		t.Errorf("SetOption() = %q", got)
	}
}
