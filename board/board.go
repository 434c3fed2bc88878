package board

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/domino14/quarto/piece"
)

const (
	Dim      = 4
	NumCells = Dim * Dim
	NumLines = 2*Dim + 2
)

// A Board is a row-major 4x4 grid. It is a value type: Place returns a new
// board and never modifies the receiver.
type Board [NumCells]piece.Piece

// Empty returns a board with no pieces on it.
func Empty() Board {
	var b Board
	for i := range b {
		b[i] = piece.None
	}
	return b
}

// FromCodes builds a board from 16 piece codes, "" or "...." meaning empty.
func FromCodes(codes ...string) (Board, error) {
	b := Empty()
	if len(codes) > NumCells {
		return b, fmt.Errorf("too many cells: %d", len(codes))
	}
	for i, c := range codes {
		if c == "" || c == "...." {
			continue
		}
		p, err := piece.Parse(c)
		if err != nil {
			return b, err
		}
		b[i] = p
	}
	return b, nil
}

func (b Board) Place(idx int, p piece.Piece) Board {
	b[idx] = p
	return b
}

func (b Board) IsEmpty(idx int) bool {
	return !b[idx].Valid()
}

func (b Board) NumEmpty() int {
	return lo.CountBy(b[:], func(p piece.Piece) bool { return !p.Valid() })
}

func (b Board) IsFull() bool {
	return b.NumEmpty() == 0
}

// Contains returns true if the piece is somewhere on the board.
func (b Board) Contains(p piece.Piece) bool {
	return p.Valid() && lo.Contains(b[:], p)
}

// Pieces returns the set of pieces on the board.
func (b Board) Pieces() piece.Set {
	return piece.SetOf(b[:]...)
}

// Duplicates lists pieces that occur more than once on the board.
func (b Board) Duplicates() []piece.Piece {
	placed := lo.Filter(b[:], func(p piece.Piece, _ int) bool { return p.Valid() })
	return lo.FindDuplicates(placed)
}

// Line returns the four pieces of line i.
func (b Board) Line(i int) [Dim]piece.Piece {
	var l [Dim]piece.Piece
	for j, idx := range Lines[i] {
		l[j] = b[idx]
	}
	return l
}

func (b Board) String() string {
	var sb strings.Builder
	for r := 0; r < Dim; r++ {
		cells := make([]string, Dim)
		for c := 0; c < Dim; c++ {
			cells[c] = b[r*Dim+c].String()
		}
		sb.WriteString(strings.Join(cells, " "))
		if r < Dim-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// positionRank ranks cells: centre 3, corners 2, edges 1.
var positionRank = [NumCells]int{
	2, 1, 1, 2,
	1, 3, 3, 1,
	1, 3, 3, 1,
	2, 1, 1, 2,
}

// rankedCells is every cell sorted by rank, ties by index.
var rankedCells [NumCells]int

func init() {
	for i := range rankedCells {
		rankedCells[i] = i
	}
	sort.SliceStable(rankedCells[:], func(i, j int) bool {
		return positionRank[rankedCells[i]] > positionRank[rankedCells[j]]
	})
}

// PositionRank returns the static desirability of a cell.
func PositionRank(idx int) int {
	return positionRank[idx]
}

// IsCenter is true for the four middle cells.
func IsCenter(idx int) bool {
	return positionRank[idx] == 3
}

// AvailablePositions returns the empty cells, most desirable first.
func AvailablePositions(b Board) []int {
	return lo.Filter(rankedCells[:], func(idx int, _ int) bool {
		return b.IsEmpty(idx)
	})
}

// AvailablePieces returns the alphabet minus the pieces on the board and
// the piece in hand, in increasing code order.
func AvailablePieces(b Board, inHand piece.Piece) []piece.Piece {
	return Remaining(b, inHand).Pieces()
}

// Remaining is AvailablePieces as a set.
func Remaining(b Board, inHand piece.Piece) piece.Set {
	return piece.FullSet &^ b.Pieces() &^ piece.SetOf(inHand)
}
