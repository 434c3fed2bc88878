// Package eval detects won boards and scores the rest.
package eval

import (
	"math"

	"github.com/domino14/quarto/board"
	"github.com/domino14/quarto/piece"
)

// WinScore is the score of a decided position. It is larger than any
// heuristic score.
var WinScore = math.Inf(1)

// Weights are the tunable constants of the heuristic.
type Weights struct {
	// Alignment is added per shared attribute, per piece, on incomplete lines.
	Alignment float64
	// Danger is subtracted per split attribute on lines holding three pieces.
	Danger float64
	// Center is added per occupied centre cell.
	Center float64
}

var DefaultWeights = Weights{
	Alignment: 10,
	Danger:    20,
	Center:    5,
}

// IsWinning returns true if any full line shares an attribute.
func IsWinning(b board.Board) bool {
	_, won := WinningLine(b)
	return won
}

// WinningLine returns the first winning line (rows, then columns, then
// diagonals).
func WinningLine(b board.Board) (int, bool) {
	for i := range board.Lines {
		l := b.Line(i)
		if piece.Shares(l[:]) {
			return i, true
		}
	}
	return -1, false
}

// WinsAt returns true if placing p at the empty cell idx completes a winning
// line. Only the lines through idx are examined.
func WinsAt(b board.Board, idx int, p piece.Piece) bool {
	b = b.Place(idx, p)
	for _, li := range board.LinesThrough[idx] {
		l := b.Line(li)
		if piece.Shares(l[:]) {
			return true
		}
	}
	return false
}

// Score evaluates b from the point of view of the root mover. A won board
// is worth WinScore.
func Score(b board.Board, w Weights) float64 {
	score := 0.0
	for i := range board.Lines {
		l := b.Line(i)
		count := 0
		for _, p := range l {
			if p.Valid() {
				count++
			}
		}
		if count == board.Dim {
			if piece.Shares(l[:]) {
				return WinScore
			}
			continue
		}
		if count == 0 {
			continue
		}
		shared := piece.SharedAttributes(l[:])
		for a := 0; a < piece.NumAttributes; a++ {
			if shared&(1<<a) != 0 {
				score += w.Alignment * float64(count)
			} else if count == board.Dim-1 {
				score -= w.Danger
			}
		}
	}
	for idx := range b {
		if board.IsCenter(idx) && !b.IsEmpty(idx) {
			score += w.Center
		}
	}
	return score
}
