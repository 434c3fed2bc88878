// Package movegen enumerates the legal placements and piece choices of a
// Quarto position, ordered so the search finds cut-offs early.
package movegen

import (
	"sort"

	"github.com/samber/lo"

	"github.com/domino14/quarto/board"
	"github.com/domino14/quarto/eval"
	"github.com/domino14/quarto/piece"
)

// PieceOrder is the direction in which candidate pieces are sorted by danger.
type PieceOrder int

const (
	// SafestFirst is what the side handing over a piece wants.
	SafestFirst PieceOrder = iota
	// MostDangerousFirst lists the pieces the receiver would most like to get.
	MostDangerousFirst
)

func (o PieceOrder) String() string {
	switch o {
	case SafestFirst:
		return "safest-first"
	case MostDangerousFirst:
		return "most-dangerous-first"
	}
	return "unknown"
}

// Positions returns the empty cells in static desirability order.
func Positions(b board.Board) []int {
	return board.AvailablePositions(b)
}

// WinningPositions returns the empty cells where p wins immediately.
func WinningPositions(b board.Board, p piece.Piece) []int {
	return lo.Filter(Positions(b), func(idx int, _ int) bool {
		return eval.WinsAt(b, idx, p)
	})
}

// Danger counts the empty cells where p would complete a winning line.
func Danger(p piece.Piece, b board.Board) int {
	n := 0
	for idx := range b {
		if b.IsEmpty(idx) && eval.WinsAt(b, idx, p) {
			n++
		}
	}
	return n
}

// OrderPieces returns a copy of pieces sorted by danger in the requested
// direction. Pieces of equal danger keep their relative order.
func OrderPieces(b board.Board, pieces []piece.Piece, order PieceOrder) []piece.Piece {
	dangers := make(map[piece.Piece]int, len(pieces))
	for _, p := range pieces {
		dangers[p] = Danger(p, b)
	}
	sorted := make([]piece.Piece, len(pieces))
	copy(sorted, pieces)
	sort.SliceStable(sorted, func(i, j int) bool {
		if order == MostDangerousFirst {
			return dangers[sorted[i]] > dangers[sorted[j]]
		}
		return dangers[sorted[i]] < dangers[sorted[j]]
	})
	return sorted
}

// SafePieces returns the pieces that cannot be placed for an immediate win.
func SafePieces(b board.Board, pieces []piece.Piece) []piece.Piece {
	return lo.Filter(pieces, func(p piece.Piece, _ int) bool {
		return Danger(p, b) == 0
	})
}
