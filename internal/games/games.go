// Package games tallies tournament results per Chess960 start position from
// PGN archives.
package games

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/notnil/chess"
	"go.uber.org/zap"

	"github.com/discochess/chess960/internal/dataset"
)

// FileName is the default ledger name for tallies.
const FileName = "chess960_games.json"

// Record holds the results scored from one start position.
type Record struct {
	White int `json:"white"`
	Draws int `json:"draws"`
	Black int `json:"black"`
}

// Games returns the number of decided and drawn games.
func (r Record) Games() int {
	return r.White + r.Draws + r.Black
}

// Add accumulates o into r.
func (r *Record) Add(o Record) {
	r.White += o.White
	r.Draws += o.Draws
	r.Black += o.Black
}

// Tally is the outcome of scanning one or more archives.
type Tally struct {
	// ByID maps a start position id to its results.
	ByID map[int]*Record

	// Counted is the number of finished games attributed to a start position.
	Counted int

	// Skipped counts games that could not be parsed.
	Skipped int

	// Unmatched counts games starting from a non-Chess960 setup.
	Unmatched int

	// Unfinished counts games without a result.
	Unfinished int
}

// Counter tallies games. The zero value is not usable; call NewCounter.
type Counter struct {
	index  map[string]int
	tally  Tally
	logger *zap.Logger
}

// Option configures a Counter.
type Option func(*Counter)

// WithLogger sets the logger used to report skipped games.
func WithLogger(l *zap.Logger) Option {
	return func(c *Counter) { c.logger = l }
}

// NewCounter creates a Counter matching games to the 960 start positions.
func NewCounter(opts ...Option) *Counter {
	c := &Counter{
		index:  make(map[string]int, dataset.NumPositions),
		tally:  Tally{ByID: make(map[int]*Record)},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	for id := 0; id < dataset.NumPositions; id++ {
		fen, _ := dataset.StartFEN(id)
		placement, err := dataset.Placement(fen)
		if err != nil {
			continue
		}
		c.index[placement] = id
	}
	return c
}

// Tally returns the counts so far.
func (c *Counter) Tally() *Tally {
	return &c.tally
}

// Count scans a PGN stream. Games that fail to parse are skipped; only read
// errors are returned.
func (c *Counter) Count(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	var header strings.Builder
	inMoves := false
	n := 0

	flush := func() {
		if header.Len() > 0 {
			n++
			c.add(n, header.String())
			header.Reset()
		}
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "[") {
			// A tag after movetext starts the next game.
			if inMoves {
				flush()
				inMoves = false
			}
			header.WriteString(line)
			header.WriteString("\n")
			continue
		}
		inMoves = true
	}
	flush()

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading PGN: %w", err)
	}
	return nil
}

// add tallies one game from its tag section. Movetext is not replayed: the
// start position and the result are all the tally needs.
func (c *Counter) add(n int, header string) {
	game, err := parseHeader(header)
	if err != nil {
		c.tally.Skipped++
		c.logger.Debug("skipping game", zap.Int("game", n), zap.Error(err))
		return
	}

	placement := game.Position().Board().String()
	id, ok := c.index[placement]
	if !ok {
		c.tally.Unmatched++
		return
	}

	rec, ok := result(game)
	if !ok {
		c.tally.Unfinished++
		return
	}

	if c.tally.ByID[id] == nil {
		c.tally.ByID[id] = &Record{}
	}
	c.tally.ByID[id].Add(rec)
	c.tally.Counted++
}

func parseHeader(header string) (*chess.Game, error) {
	pgn, err := chess.PGN(strings.NewReader(header + "\n*\n"))
	if err != nil {
		return nil, err
	}
	return chess.NewGame(pgn), nil
}

func result(game *chess.Game) (Record, bool) {
	value := ""
	if tag := game.GetTagPair("Result"); tag != nil {
		value = tag.Value
	}
	switch chess.Outcome(value) {
	case chess.WhiteWon:
		return Record{White: 1}, true
	case chess.BlackWon:
		return Record{Black: 1}, true
	case chess.Draw:
		return Record{Draws: 1}, true
	}
	return Record{}, false
}
