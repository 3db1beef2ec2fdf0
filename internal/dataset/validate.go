package dataset

import (
	"errors"
	"fmt"

	"github.com/notnil/chess"
)

// ErrInvalidFEN is returned when a FEN cannot be decoded.
var ErrInvalidFEN = errors.New("dataset: invalid FEN")

// Validate reports whether fen decodes to a chess position.
func Validate(fen string) error {
	_, err := decode(fen)
	return err
}

// PieceCount returns the number of pieces on the board, kings included.
func PieceCount(fen string) (int, error) {
	pos, err := decode(fen)
	if err != nil {
		return 0, err
	}
	return len(pos.Board().SquareMap()), nil
}

// Placement returns the piece placement field of fen as re-encoded by the
// board, which normalises equivalent spellings.
func Placement(fen string) (string, error) {
	pos, err := decode(fen)
	if err != nil {
		return "", err
	}
	return pos.Board().String(), nil
}

func decode(fen string) (*chess.Position, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidFEN, fen, err)
	}
	return chess.NewGame(opt).Position(), nil
}
