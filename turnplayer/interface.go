package turnplayer

import (
	"context"
	"time"

	"github.com/domino14/quarto/game"
	"github.com/domino14/quarto/piece"
)

// Decision is a full turn: where to put the piece we were handed, and
// which piece to hand over next.
type Decision struct {
	Pos   int
	Piece piece.Piece
}

// TurnPlayer encapsulates the decisions needed to play a single turn of
// Quarto within a time budget.
type TurnPlayer interface {
	DecidePlacement(ctx context.Context, s game.State, budget time.Duration) (int, error)
	DecidePieceToConcede(ctx context.Context, s game.State, budget time.Duration) (piece.Piece, error)
	DecideTurn(ctx context.Context, s game.State, budget time.Duration) (Decision, error)
}
