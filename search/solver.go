// Package search implements the minimax search over Quarto turns. A turn is
// two plies: the mover places the pending piece (a placement node), then
// hands one of the remaining pieces to the opponent (a selection node).
package search

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/domino14/quarto/board"
	"github.com/domino14/quarto/eval"
	"github.com/domino14/quarto/movegen"
	"github.com/domino14/quarto/piece"
	"github.com/domino14/quarto/zobrist"
)

type NodeKind uint8

const (
	Placement NodeKind = iota
	Selection
)

func (k NodeKind) String() string {
	if k == Placement {
		return "placement"
	}
	return "selection"
}

// Node is one search position. A node with a valid Pending piece is a
// placement node, otherwise it is a selection node. Maximizing tells whether
// the side to act is the one the search scores for.
type Node struct {
	Board      board.Board
	Remaining  piece.Set
	Pending    piece.Piece
	Depth      int
	Maximizing bool
}

func (n Node) Kind() NodeKind {
	if n.Pending.Valid() {
		return Placement
	}
	return Selection
}

func (n Node) key() NodeKey {
	return NodeKey{
		Board:      n.Board,
		Remaining:  n.Remaining,
		Pending:    n.Pending,
		Depth:      int8(n.Depth),
		Maximizing: n.Maximizing,
	}
}

// lastPlacerMaximizing reports whether the piece most recently put on the
// board was placed by the maximizing side.
func (n Node) lastPlacerMaximizing() bool {
	if n.Kind() == Selection {
		return n.Maximizing
	}
	return !n.Maximizing
}

// Solver runs alpha-beta minimax. One Solver serves one decision (or one
// turn); it is not safe for concurrent use.
type Solver struct {
	weights  eval.Weights
	zobrist  *zobrist.Zobrist
	ttable   *TranspositionTable
	deadline cutoff

	pruning bool
	ttOptim bool

	nodes uint64
}

// NewSolver creates a solver. tt may be nil, in which case the
// transposition table optimization is off.
func NewSolver(w eval.Weights, tt *TranspositionTable) *Solver {
	s := &Solver{
		weights: w,
		zobrist: &zobrist.Zobrist{},
		ttable:  tt,
		pruning: true,
		ttOptim: tt != nil,
	}
	s.zobrist.Initialize()
	return s
}

func (s *Solver) SetPruning(p bool) {
	s.pruning = p
}

func (s *Solver) SetTranspositionTableOptim(tt bool) {
	s.ttOptim = tt && s.ttable != nil
}

func (s *Solver) SetTranspositionTable(tt *TranspositionTable) {
	s.ttable = tt
	s.ttOptim = tt != nil
}

func (s *Solver) TranspositionTable() *TranspositionTable {
	return s.ttable
}

// SetDeadline makes the search return a neutral 0 from every node entered
// after t. A zero t means no wall-clock limit.
func (s *Solver) SetDeadline(t time.Time) {
	s.deadline.at = t
}

// Nodes is the number of nodes visited so far.
func (s *Solver) Nodes() uint64 {
	return s.nodes
}

// Expired reports whether the deadline passed or ctx is done.
func (s *Solver) Expired(ctx context.Context) bool {
	return s.deadline.expired(ctx)
}

// Minimax scores n from the maximizing side's point of view within the
// (alpha, beta) window.
func (s *Solver) Minimax(ctx context.Context, n Node, alpha, beta float64) float64 {
	if n.Depth > zobrist.MaxDepth {
		n.Depth = zobrist.MaxDepth
	}
	if n.Depth < 0 {
		n.Depth = 0
	}
	var key uint64
	if s.ttOptim {
		key = s.zobrist.Hash(n.Board, n.Remaining, n.Pending, n.Depth, n.Maximizing)
	}
	return s.minimax(ctx, n, key, alpha, beta)
}

func (s *Solver) minimax(ctx context.Context, n Node, zkey uint64, alpha, beta float64) float64 {
	s.nodes++

	if eval.IsWinning(n.Board) {
		if n.lastPlacerMaximizing() {
			return eval.WinScore
		}
		return -eval.WinScore
	}
	if n.Depth <= 0 {
		return eval.Score(n.Board, s.weights)
	}
	if n.Kind() == Selection && n.Remaining.Len() == 0 {
		return eval.Score(n.Board, s.weights)
	}
	if n.Kind() == Placement && n.Board.IsFull() {
		return eval.Score(n.Board, s.weights)
	}
	if s.deadline.expired(ctx) {
		return 0
	}

	alphaOrig, betaOrig := alpha, beta
	var nkey NodeKey
	if s.ttOptim {
		nkey = n.key()
		if entry, ok := s.ttable.lookup(zkey, nkey); ok {
			switch entry.flag {
			case TTExact:
				return entry.score
			case TTLower:
				alpha = math.Max(alpha, entry.score)
			case TTUpper:
				beta = math.Min(beta, entry.score)
			}
			if alpha >= beta {
				return entry.score
			}
		}
	}

	var best float64
	var aborted bool
	if n.Kind() == Placement {
		best, aborted = s.placementChildren(ctx, n, zkey, alpha, beta)
	} else {
		best, aborted = s.selectionChildren(ctx, n, zkey, alpha, beta)
	}
	if aborted {
		return 0
	}

	if s.ttOptim && !s.deadline.expired(ctx) {
		entry := TableEntry{key: nkey, score: best}
		switch {
		case best <= alphaOrig:
			entry.flag = TTUpper
		case best >= betaOrig:
			entry.flag = TTLower
		default:
			entry.flag = TTExact
		}
		s.ttable.store(zkey, entry)
	}
	return best
}

func initialBest(maximizing bool) float64 {
	if maximizing {
		return math.Inf(-1)
	}
	return math.Inf(1)
}

// fold merges a child value into the running best and the window. It
// returns true when the remaining siblings can be pruned.
func (s *Solver) fold(maximizing bool, v float64, best, alpha, beta *float64) bool {
	if maximizing {
		*best = math.Max(*best, v)
		*alpha = math.Max(*alpha, v)
	} else {
		*best = math.Min(*best, v)
		*beta = math.Min(*beta, v)
	}
	return s.pruning && *beta <= *alpha
}

func (s *Solver) placementChildren(ctx context.Context, n Node, zkey uint64,
	alpha, beta float64) (float64, bool) {

	best := initialBest(n.Maximizing)
	for _, idx := range movegen.Positions(n.Board) {
		if s.deadline.expired(ctx) {
			return 0, true
		}
		child := Node{
			Board:      n.Board.Place(idx, n.Pending),
			Remaining:  n.Remaining,
			Pending:    piece.None,
			Depth:      n.Depth - 1,
			Maximizing: n.Maximizing,
		}
		var ckey uint64
		if s.ttOptim {
			ckey = s.zobrist.AddPlacement(zkey, idx, n.Pending, n.Depth)
		}
		v := s.minimax(ctx, child, ckey, alpha, beta)
		if s.fold(n.Maximizing, v, &best, &alpha, &beta) {
			break
		}
	}
	return best, false
}

func (s *Solver) selectionChildren(ctx context.Context, n Node, zkey uint64,
	alpha, beta float64) (float64, bool) {

	best := initialBest(n.Maximizing)
	pieces := movegen.OrderPieces(n.Board, n.Remaining.Pieces(), movegen.SafestFirst)
	for _, p := range pieces {
		if s.deadline.expired(ctx) {
			return 0, true
		}
		child := Node{
			Board:      n.Board,
			Remaining:  n.Remaining.Remove(p),
			Pending:    p,
			Depth:      n.Depth - 1,
			Maximizing: !n.Maximizing,
		}
		var ckey uint64
		if s.ttOptim {
			ckey = s.zobrist.AddSelection(zkey, p, n.Depth)
		}
		v := s.minimax(ctx, child, ckey, alpha, beta)
		if s.fold(n.Maximizing, v, &best, &alpha, &beta) {
			break
		}
	}
	return best, false
}

// LogStats writes the node count and table counters at debug level.
func (s *Solver) LogStats() {
	ev := log.Debug().Uint64("nodes", s.nodes)
	if s.ttable != nil {
		st := s.ttable.Stats()
		ev = ev.Uint64("tt-created", st.Created).
			Uint64("tt-lookups", st.Lookups).
			Uint64("tt-hits", st.Hits).
			Uint64("tt-t2collisions", st.T2Collisions)
	}
	ev.Msg("search-stats")
}
