package uci

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Commands sent to the engine.
const (
	CmdUCI        = "uci"
	CmdIsReady    = "isready"
	CmdNewGame    = "ucinewgame"
	CmdStop       = "stop"
	CmdQuit       = "quit"
	OptChess960   = "UCI_Chess960"
	OptThreads    = "Threads"
	OptHash       = "Hash"
	OptMultiPV    = "MultiPV"
	OptSkillLevel = "Skill Level"
	OptShowWDL    = "UCI_ShowWDL"
)

// ErrInvalidBudget indicates a search budget without exactly one limit set.
var ErrInvalidBudget = errors.New("uci: budget must set exactly one of depth, movetime or nodes")

// SetOption returns a setoption command.
func SetOption(name string, value any) string {
	return fmt.Sprintf("setoption name %s value %v", name, value)
}

// Position returns a "position fen" command.
func Position(fen string) string {
	return "position fen " + fen
}

// Budget limits a single search. Exactly one field must be set.
type Budget struct {
	Depth    int
	MoveTime time.Duration
	Nodes    int64
}

// Validate checks that exactly one limit is set.
func (b Budget) Validate() error {
	n := 0
	if b.Depth > 0 {
		n++
	}
	if b.MoveTime > 0 {
		n++
	}
	if b.Nodes > 0 {
		n++
	}
	if n != 1 {
		return ErrInvalidBudget
	}
	return nil
}

// Command returns the go command for the budget.
func (b Budget) Command() string {
	switch {
	case b.Depth > 0:
		return "go depth " + strconv.Itoa(b.Depth)
	case b.MoveTime > 0:
		return "go movetime " + strconv.FormatInt(b.MoveTime.Milliseconds(), 10)
	case b.Nodes > 0:
		return "go nodes " + strconv.FormatInt(b.Nodes, 10)
	}
	return "go"
}

// String describes the budget for logs ("depth 20", "movetime 20s").
func (b Budget) String() string {
	switch {
	case b.Depth > 0:
		return "depth " + strconv.Itoa(b.Depth)
	case b.MoveTime > 0:
		return "movetime " + b.MoveTime.String()
	case b.Nodes > 0:
		return "nodes " + strconv.FormatInt(b.Nodes, 10)
	}
	return "unbounded"
}
