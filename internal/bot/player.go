package bot

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/discochess/chess960/internal/dataset"
	"github.com/discochess/chess960/internal/engine"
	"github.com/discochess/chess960/internal/stats"
	"github.com/discochess/chess960/internal/uci"
)

// DefaultMoveTime is the per-move search time when none is configured.
const DefaultMoveTime = time.Second

// DefaultCacheSize is the number of positions whose analysis is kept.
const DefaultCacheSize = 1024

// ErrNoMove is returned when the position has no legal move.
var ErrNoMove = errors.New("bot: no legal move")

// Analyzer runs a search. *engine.Engine implements it.
type Analyzer interface {
	Analyze(ctx context.Context, req engine.Request) (*uci.Result, error)
}

// Move is a move chosen by the Player.
type Move struct {
	// UCI is the move played, in long algebraic notation.
	UCI string

	// Best is the engine's preferred move. It differs from UCI when the
	// policy picked a weaker candidate.
	Best string

	// Delay is the think time waited before returning.
	Delay time.Duration

	// Cached reports whether the analysis came from the cache.
	Cached bool
}

// Player answers positions with moves.
type Player struct {
	analyzer Analyzer
	policy   Policy
	moveTime time.Duration
	cache    *lru.Cache[string, *uci.Result]
	sleep    func(context.Context, time.Duration) error
	stats    stats.Collector
	logger   *zap.Logger

	mu  sync.Mutex // guards rng
	rng Rand
}

// PlayerOption configures a Player.
type PlayerOption func(*playerOptions)

type playerOptions struct {
	policy    Policy
	moveTime  time.Duration
	cacheSize int
	rng       Rand
	sleep     func(context.Context, time.Duration) error
	stats     stats.Collector
	logger    *zap.Logger
}

// WithPolicy sets the choice and timing policy.
func WithPolicy(p Policy) PlayerOption {
	return func(o *playerOptions) { o.policy = p }
}

// WithMoveTime sets the search time per move.
func WithMoveTime(d time.Duration) PlayerOption {
	return func(o *playerOptions) { o.moveTime = d }
}

// WithCacheSize sets the analysis cache capacity.
func WithCacheSize(n int) PlayerOption {
	return func(o *playerOptions) { o.cacheSize = n }
}

// WithRand sets the source of randomness.
func WithRand(r Rand) PlayerOption {
	return func(o *playerOptions) { o.rng = r }
}

// WithSleep replaces the delay implementation.
func WithSleep(fn func(context.Context, time.Duration) error) PlayerOption {
	return func(o *playerOptions) { o.sleep = fn }
}

// WithStats sets the metrics collector.
func WithStats(c stats.Collector) PlayerOption {
	return func(o *playerOptions) { o.stats = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) PlayerOption {
	return func(o *playerOptions) { o.logger = l }
}

// NewPlayer creates a Player backed by a.
func NewPlayer(a Analyzer, opts ...PlayerOption) (*Player, error) {
	if a == nil {
		return nil, errors.New("bot: analyzer is required")
	}
	o := playerOptions{
		policy:    DefaultPolicy(),
		moveTime:  DefaultMoveTime,
		cacheSize: DefaultCacheSize,
		sleep:     sleep,
		stats:     stats.NewNoop(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}

	cache, err := lru.New[string, *uci.Result](o.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("bot: creating cache: %w", err)
	}

	return &Player{
		analyzer: a,
		policy:   o.policy,
		moveTime: o.moveTime,
		cache:    cache,
		sleep:    o.sleep,
		stats:    o.stats,
		logger:   o.logger,
		rng:      o.rng,
	}, nil
}

// Move picks a move for fen with clock time remaining, then waits the
// humanised delay. A non-positive clock means an untimed game.
func (p *Player) Move(ctx context.Context, fen string, clock time.Duration) (Move, error) {
	pieces, err := dataset.PieceCount(fen)
	if err != nil {
		return Move{}, err
	}

	res, cached, err := p.analyze(ctx, fen)
	if err != nil {
		return Move{}, err
	}

	p.mu.Lock()
	move := p.policy.Choose(res.Lines, res.BestMove, p.rng)
	delay := p.policy.Delay(clock, pieces, p.rng)
	p.mu.Unlock()

	if move == "" {
		return Move{}, ErrNoMove
	}

	best := res.BestMove.Move
	if best == "" {
		best = move
	}
	p.logger.Debug("bot move",
		zap.String("move", move),
		zap.String("best", best),
		zap.Duration("delay", delay),
		zap.Bool("cached", cached),
	)

	if err := p.sleep(ctx, delay); err != nil {
		return Move{}, err
	}
	return Move{UCI: move, Best: best, Delay: delay, Cached: cached}, nil
}

func (p *Player) analyze(ctx context.Context, fen string) (*uci.Result, bool, error) {
	if res, ok := p.cache.Get(fen); ok {
		p.stats.IncCounter(stats.MetricBotCacheHits, 1)
		return res, true, nil
	}
	p.stats.IncCounter(stats.MetricBotCacheMisses, 1)

	res, err := p.analyzer.Analyze(ctx, engine.Request{
		FEN:     fen,
		Budget:  uci.Budget{MoveTime: p.moveTime},
		MultiPV: max(p.policy.Candidates, 1),
	})
	if err != nil {
		return nil, false, fmt.Errorf("bot: analysing position: %w", err)
	}
	p.cache.Add(fen, res)
	return res, false, nil
}

// CacheLen returns the number of cached analyses.
func (p *Player) CacheLen() int {
	return p.cache.Len()
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
