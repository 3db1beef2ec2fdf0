// Package engine drives a UCI chess engine subprocess: it owns the process
// lifecycle, performs the uci/isready handshake and runs one search at a time.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/discochess/chess960/internal/uci"
)

// Request describes one analysis.
type Request struct {
	// FEN is the position to search.
	FEN string

	// Budget limits the search. Exactly one limit must be set.
	Budget uci.Budget

	// MultiPV is the number of principal variations to keep.
	// Zero uses the engine's configured value.
	MultiPV int

	// NewGame sends ucinewgame before the position, clearing engine caches.
	NewGame bool
}

// Engine is a UCI engine subprocess. Searches are serialised: Analyze may be
// called from several goroutines but only one search runs at a time.
type Engine struct {
	launch Launcher
	logger *zap.Logger

	threads      int
	hashMB       int
	multiPV      int
	skillLevel   int
	showWDL      bool
	settle       time.Duration
	startTimeout time.Duration
	quitGrace    time.Duration

	// searchMu serialises searches and process replacement.
	searchMu sync.Mutex

	procMu     sync.RWMutex
	proc       Process
	curMultiPV int
}

// Option configures an Engine.
type Option func(*Engine)

// WithThreads sets the Threads option.
func WithThreads(n int) Option {
	return func(e *Engine) { e.threads = n }
}

// WithHash sets the Hash option in megabytes.
func WithHash(mb int) Option {
	return func(e *Engine) { e.hashMB = mb }
}

// WithMultiPV sets the default number of principal variations.
func WithMultiPV(n int) Option {
	return func(e *Engine) { e.multiPV = n }
}

// WithSkillLevel sets the Skill Level option (0-20 for Stockfish).
func WithSkillLevel(level int) Option {
	return func(e *Engine) { e.skillLevel = level }
}

// WithWDL enables UCI_ShowWDL so progress lines carry win/draw/loss statistics.
func WithWDL(enabled bool) Option {
	return func(e *Engine) { e.showWDL = enabled }
}

// WithSettleDelay sets the pause between stop and the next search.
func WithSettleDelay(d time.Duration) Option {
	return func(e *Engine) { e.settle = d }
}

// WithStartTimeout bounds the handshake.
func WithStartTimeout(d time.Duration) Option {
	return func(e *Engine) { e.startTimeout = d }
}

// WithQuitGrace sets how long Quit waits before killing the process.
func WithQuitGrace(d time.Duration) Option {
	return func(e *Engine) { e.quitGrace = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an Engine. The process is not started until Start.
func New(launch Launcher, opts ...Option) *Engine {
	e := &Engine{
		launch:       launch,
		logger:       zap.NewNop(),
		threads:      1,
		hashMB:       16,
		multiPV:      1,
		skillLevel:   -1,
		settle:       50 * time.Millisecond,
		startTimeout: 10 * time.Second,
		quitGrace:    2 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start launches the process and completes the handshake. It is a no-op when
// the engine is already running.
func (e *Engine) Start(ctx context.Context) error {
	e.searchMu.Lock()
	defer e.searchMu.Unlock()

	if e.process() != nil {
		return nil
	}
	return e.startLocked(ctx)
}

func (e *Engine) startLocked(ctx context.Context) error {
	proc, err := e.launch(ctx)
	if err != nil {
		return err
	}

	if err := e.handshake(ctx, proc); err != nil {
		_ = proc.Kill()
		drain(proc)
		return err
	}

	e.procMu.Lock()
	e.proc = proc
	e.curMultiPV = e.multiPV
	e.procMu.Unlock()

	e.logger.Debug("engine ready",
		zap.Int("threads", e.threads),
		zap.Int("hashMB", e.hashMB),
		zap.Int("multiPV", e.multiPV),
		zap.Bool("wdl", e.showWDL),
	)
	return nil
}

// handshake runs uci, configures options, then confirms with isready.
// Options are sent only after uciok so they cannot race the engine's reset.
func (e *Engine) handshake(ctx context.Context, proc Process) error {
	ctx, cancel := context.WithTimeout(ctx, e.startTimeout)
	defer cancel()

	if err := write(proc, uci.CmdUCI); err != nil {
		return err
	}
	if err := waitFor(ctx, proc, uci.UCIOK); err != nil {
		return fmt.Errorf("%w: waiting for uciok: %w", ErrHandshake, err)
	}

	for _, cmd := range e.optionCommands() {
		if err := write(proc, cmd); err != nil {
			return err
		}
	}

	if err := write(proc, uci.CmdIsReady); err != nil {
		return err
	}
	if err := waitFor(ctx, proc, uci.ReadyOK); err != nil {
		return fmt.Errorf("%w: waiting for readyok: %w", ErrHandshake, err)
	}
	return nil
}

func (e *Engine) optionCommands() []string {
	cmds := []string{
		uci.SetOption(uci.OptChess960, true),
		uci.SetOption(uci.OptThreads, e.threads),
		uci.SetOption(uci.OptHash, e.hashMB),
		uci.SetOption(uci.OptMultiPV, e.multiPV),
	}
	if e.skillLevel >= 0 {
		cmds = append(cmds, uci.SetOption(uci.OptSkillLevel, e.skillLevel))
	}
	if e.showWDL {
		cmds = append(cmds, uci.SetOption(uci.OptShowWDL, true))
	}
	return cmds
}

// Send writes one command to the engine without waiting for a reply.
func (e *Engine) Send(cmd string) error {
	proc := e.process()
	if proc == nil {
		return ErrNotStarted
	}
	e.logger.Debug("send", zap.String("cmd", cmd))
	return proc.Write(cmd)
}

// Analyze runs one search and returns the deepest line per multi-PV slot once
// the engine reports its best move.
//
// If the process exits during the search the error wraps ErrExited. If ctx
// ends first the error wraps ErrStalled and ctx.Err(); the engine is left in
// an unknown state and should be restarted.
func (e *Engine) Analyze(ctx context.Context, req Request) (*uci.Result, error) {
	if err := req.Budget.Validate(); err != nil {
		return nil, err
	}

	e.searchMu.Lock()
	defer e.searchMu.Unlock()

	proc := e.process()
	if proc == nil {
		return nil, ErrNotStarted
	}

	multiPV := req.MultiPV
	if multiPV < 1 {
		multiPV = e.multiPV
	}

	// A stray stop is harmless; it guarantees the engine is idle.
	if err := write(proc, uci.CmdStop); err != nil {
		return nil, err
	}
	if err := sleepCtx(ctx, e.settle); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStalled, err)
	}

	if req.NewGame {
		if err := write(proc, uci.CmdNewGame); err != nil {
			return nil, err
		}
	}
	if multiPV != e.curMultiPV {
		if err := write(proc, uci.SetOption(uci.OptMultiPV, multiPV)); err != nil {
			return nil, err
		}
		e.curMultiPV = multiPV
	}

	// The readyok barrier also consumes a bestmove left over from an aborted search.
	if err := write(proc, uci.CmdIsReady); err != nil {
		return nil, err
	}
	if err := waitFor(ctx, proc, uci.ReadyOK); err != nil {
		return nil, err
	}

	if err := write(proc, uci.Position(req.FEN)); err != nil {
		return nil, err
	}
	if err := write(proc, req.Budget.Command()); err != nil {
		return nil, err
	}

	acc := uci.NewAccumulator(multiPV)
	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrStalled, ctx.Err())
		case line, ok := <-proc.Lines():
			if !ok {
				return nil, fmt.Errorf("%w during search of %q", ErrExited, req.FEN)
			}
			msg := uci.ParseLine(line)
			switch msg.Kind {
			case uci.InfoLine:
				acc.Add(*msg.Info)
			case uci.BestMoveLine:
				return acc.Result(*msg.BestMove), nil
			}
		}
	}
}

// Restart kills the current process, if any, and starts a fresh one.
func (e *Engine) Restart(ctx context.Context) error {
	e.searchMu.Lock()
	defer e.searchMu.Unlock()

	if proc := e.detach(); proc != nil {
		_ = proc.Kill()
		drain(proc)
	}
	e.logger.Info("restarting engine")
	return e.startLocked(ctx)
}

// Quit asks the engine to exit and kills it if it has not exited within the
// grace period.
func (e *Engine) Quit(ctx context.Context) error {
	e.searchMu.Lock()
	defer e.searchMu.Unlock()

	proc := e.detach()
	if proc == nil {
		return nil
	}
	drain(proc)

	_ = proc.Write(uci.CmdStop)
	_ = proc.Write(uci.CmdQuit)

	exited := make(chan struct{})
	go func() {
		_ = proc.Wait()
		close(exited)
	}()

	timer := time.NewTimer(e.quitGrace)
	defer timer.Stop()

	select {
	case <-exited:
		return nil
	case <-timer.C:
	case <-ctx.Done():
	}

	e.logger.Warn("engine did not exit, killing", zap.Duration("grace", e.quitGrace))
	if err := proc.Kill(); err != nil {
		return fmt.Errorf("killing engine: %w", err)
	}
	return nil
}

func (e *Engine) process() Process {
	e.procMu.RLock()
	defer e.procMu.RUnlock()
	return e.proc
}

func (e *Engine) detach() Process {
	e.procMu.Lock()
	defer e.procMu.Unlock()
	proc := e.proc
	e.proc = nil
	return proc
}

// waitFor reads lines until one of the given kind arrives.
func waitFor(ctx context.Context, proc Process, kind uci.Kind) error {
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: waiting for %s: %w", ErrStalled, kind, ctx.Err())
		case line, ok := <-proc.Lines():
			if !ok {
				return ErrExited
			}
			if uci.ParseLine(line).Kind == kind {
				return nil
			}
		}
	}
}

// write sends cmd, reporting any failure as an exited process.
func write(proc Process, cmd string) error {
	if err := proc.Write(cmd); err != nil {
		if errors.Is(err, ErrExited) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrExited, err)
	}
	return nil
}

// drain discards remaining output so the process's readers can finish.
func drain(proc Process) {
	go func() {
		for range proc.Lines() {
		}
	}()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
