// Package enginetest provides a scripted in-process UCI engine for tests.
package enginetest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/discochess/chess960/internal/engine"
)

// Exit is a reply line that makes the fake process exit instead of printing.
const Exit = "\x00exit"

// Handler returns the reply lines for one command.
type Handler func(cmd string) []string

// Compile-time check that Process implements engine.Process.
var _ engine.Process = (*Process)(nil)

// Process is an engine.Process whose output is produced by a Handler.
// Replies are delivered in order, immediately after the command that caused
// them.
type Process struct {
	handler Handler

	mu       sync.Mutex
	closed   bool
	lines    chan string
	done     chan struct{}
	commands []string
}

// NewProcess creates a running fake process.
func NewProcess(h Handler) *Process {
	return &Process{
		handler: h,
		lines:   make(chan string, 1<<16),
		done:    make(chan struct{}),
	}
}

// Write passes the command to the handler and queues its replies.
func (p *Process) Write(line string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return engine.ErrExited
	}
	p.commands = append(p.commands, line)

	for _, reply := range p.handler(line) {
		if reply == Exit {
			p.closeLocked()
			return nil
		}
		p.lines <- reply
	}
	return nil
}

func (p *Process) Lines() <-chan string {
	return p.lines
}

func (p *Process) Kill() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
	return nil
}

func (p *Process) Wait() error {
	<-p.done
	return nil
}

// Commands returns every command written so far.
func (p *Process) Commands() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.commands...)
}

func (p *Process) closeLocked() {
	if p.closed {
		return
	}
	p.closed = true
	close(p.lines)
	close(p.done)
}

// Script is a deterministic engine. The zero value answers the handshake and
// reports a generated search for every go command.
type Script struct {
	// Searches maps a FEN to the info lines printed for a search of it.
	// FENs without an entry get lines from GenerateLines.
	Searches map[string][]string

	// BestMoves overrides the bestmove token per FEN.
	BestMoves map[string]string

	// Hang lists FENs whose searches never finish.
	Hang map[string]bool

	// HangOnce lists FENs whose first search never finishes.
	HangOnce map[string]bool

	// Crash lists FENs on which the process exits mid-search.
	Crash map[string]bool

	// FailStart makes the launcher fail as if the binary were missing.
	FailStart bool

	mu        sync.Mutex
	multiPV   int
	fen       string
	searched  []string
	launches  int
	processes []*Process
	hung      map[string]bool
}

// Launcher returns an engine.Launcher starting a fresh fake process per call.
func (s *Script) Launcher() engine.Launcher {
	return func(ctx context.Context) (engine.Process, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.FailStart {
			return nil, &engine.LaunchError{Path: "/nonexistent/engine", Err: fmt.Errorf("executable file not found")}
		}
		s.launches++
		p := NewProcess(s.Handle)
		s.processes = append(s.processes, p)
		return p, nil
	}
}

// Launches returns the number of processes started.
func (s *Script) Launches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.launches
}

// Searched returns the FENs of every go command received, in order.
func (s *Script) Searched() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.searched...)
}

// LastProcess returns the most recently launched process.
func (s *Script) LastProcess() *Process {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.processes) == 0 {
		return nil
	}
	return s.processes[len(s.processes)-1]
}

// Handle implements Handler.
func (s *Script) Handle(cmd string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case cmd == "uci":
		return []string{"id name Scripted 1.0", "id author enginetest", "option name MultiPV type spin default 1 min 1 max 500", "uciok"}
	case cmd == "isready":
		return []string{"readyok"}
	case cmd == "quit":
		return []string{Exit}
	case strings.HasPrefix(cmd, "setoption name MultiPV value "):
		s.multiPV, _ = strconv.Atoi(strings.TrimPrefix(cmd, "setoption name MultiPV value "))
	case strings.HasPrefix(cmd, "position fen "):
		s.fen = strings.TrimPrefix(cmd, "position fen ")
	case strings.HasPrefix(cmd, "go"):
		return s.search(cmd)
	}
	return nil
}

func (s *Script) search(cmd string) []string {
	fen := s.fen
	s.searched = append(s.searched, fen)

	if s.Crash[fen] {
		return []string{"info string crashing", Exit}
	}
	if s.Hang[fen] {
		return []string{"info depth 1 score cp 0 pv e2e4"}
	}
	if s.HangOnce[fen] && !s.hung[fen] {
		if s.hung == nil {
			s.hung = make(map[string]bool)
		}
		s.hung[fen] = true
		return []string{"info depth 1 score cp 0 pv e2e4"}
	}

	lines, ok := s.Searches[fen]
	if !ok {
		lines = GenerateLines(depthOf(cmd), max(s.multiPV, 1))
	}

	best := s.BestMoves[fen]
	if best == "" {
		best = firstMove(lines)
	}
	out := append([]string{"info string searching"}, lines...)
	return append(out, "bestmove "+best)
}

// candidateMoves are used by GenerateLines, best first.
var candidateMoves = []string{"e2e4", "d2d4", "g1f3", "c2c4", "b2b3", "g2g3", "f2f4", "b1c3"}

// GenerateLines returns a plausible search transcript for depths 1..depth and
// slots 1..multiPV. Slot k scores 30-10*(k-1) centipawns with a WDL triple.
func GenerateLines(depth, multiPV int) []string {
	if multiPV > len(candidateMoves) {
		multiPV = len(candidateMoves)
	}
	var lines []string
	for d := 1; d <= depth; d++ {
		for slot := 1; slot <= multiPV; slot++ {
			cp := 30 - 10*(slot-1)
			w := 60 - 5*(slot-1)
			l := 10 + 5*(slot-1)
			lines = append(lines, fmt.Sprintf(
				"info depth %d seldepth %d multipv %d score cp %d wdl %d %d %d nodes %d nps 1000000 time %d pv %s e7e5",
				d, d+2, slot, cp, w, 1000-w-l, l, d*1000, d*10, candidateMoves[slot-1]))
		}
	}
	return lines
}

func depthOf(cmd string) int {
	fields := strings.Fields(cmd)
	for i := 0; i+1 < len(fields); i++ {
		if fields[i] == "depth" {
			if d, err := strconv.Atoi(fields[i+1]); err == nil {
				return d
			}
		}
	}
	return 20
}

func firstMove(lines []string) string {
	for _, line := range lines {
		if idx := strings.Index(line, " pv "); idx >= 0 {
			if f := strings.Fields(line[idx+4:]); len(f) > 0 {
				return f[0]
			}
		}
	}
	return "(none)"
}
