package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// NumPositions is the number of Chess960 start positions.
const NumPositions = 960

// ClassicalID is the id of the standard chess setup.
const ClassicalID = 518

// ErrIDOutOfRange is returned for ids outside [0, NumPositions).
var ErrIDOutOfRange = errors.New("dataset: position id out of range")

// knightTable places two knights on five free squares, indexed by the
// Scharnagl knight code.
var knightTable = [10][2]int{
	{0, 1}, {0, 2}, {0, 3}, {0, 4},
	{1, 2}, {1, 3}, {1, 4},
	{2, 3}, {2, 4},
	{3, 4},
}

// BackRank returns the white back rank of start position id, files a to h,
// using Scharnagl numbering.
func BackRank(id int) (string, error) {
	if id < 0 || id >= NumPositions {
		return "", fmt.Errorf("%w: %d", ErrIDOutOfRange, id)
	}

	var rank [8]byte
	n := id

	// Light-squared bishop on b, d, f or h.
	rank[(n%4)*2+1] = 'B'
	n /= 4
	// Dark-squared bishop on a, c, e or g.
	rank[(n%4)*2] = 'B'
	n /= 4

	// Queen on the (n%6)-th free square.
	placeNth(&rank, n%6, 'Q')
	n /= 6

	// Knights on two of the five remaining squares. Place the later one
	// first so the earlier index still counts the same free squares.
	k := knightTable[n]
	placeNth(&rank, k[1], 'N')
	placeNth(&rank, k[0], 'N')

	// Rook, king, rook on what is left.
	for _, p := range []byte{'R', 'K', 'R'} {
		placeNth(&rank, 0, p)
	}
	return string(rank[:]), nil
}

// StartFEN returns the FEN of start position id. Castling rights are given
// as KQkq, which for a start position always refers to the two rooks.
func StartFEN(id int) (string, error) {
	back, err := BackRank(id)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/pppppppp/8/8/8/8/PPPPPPPP/%s w KQkq - 0 1",
		strings.ToLower(back), back), nil
}

// Generate builds the dataset of all start positions.
func Generate() *Dataset {
	d := &Dataset{Positions: make([]Position, NumPositions)}
	for id := range NumPositions {
		fen, _ := StartFEN(id)
		d.Positions[id] = Position{ID: id, FEN: fen}
	}
	return d
}

func placeNth(rank *[8]byte, n int, piece byte) {
	for i := range rank {
		if rank[i] != 0 {
			continue
		}
		if n == 0 {
			rank[i] = piece
			return
		}
		n--
	}
}
