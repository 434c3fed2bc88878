package turnplayer

import (
	"context"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"lukechampine.com/frand"

	"github.com/domino14/quarto/board"
	"github.com/domino14/quarto/config"
	"github.com/domino14/quarto/game"
	"github.com/domino14/quarto/movegen"
	"github.com/domino14/quarto/piece"
	"github.com/domino14/quarto/search"
)

// Player makes decisions with an alpha-beta search bounded by a time budget.
// Running out of time is never an error: the player answers with the best
// move found so far, or a legal fallback.
type Player struct {
	cfg       config.Config
	logStream io.Writer
}

func NewPlayer(cfg config.Config) *Player {
	return &Player{cfg: cfg}
}

// SetLogStream makes the player append a YAML trace of every decision to w.
func (p *Player) SetLogStream(w io.Writer) {
	p.logStream = w
}

func (p *Player) newSolver(start time.Time, budget time.Duration, tt *search.TranspositionTable) *search.Solver {
	if tt == nil {
		tt = search.NewTranspositionTable(p.cfg.TTableSizeMB, p.cfg.TTableMemoryFraction)
	}
	s := search.NewSolver(p.cfg.Weights, tt)
	s.SetDeadline(search.Deadline(start, budget, p.cfg.DeadlineFraction))
	return s
}

func (p *Player) DecidePlacement(ctx context.Context, s game.State, budget time.Duration) (int, error) {
	return p.decidePlacement(ctx, s, budget, nil)
}

func (p *Player) DecidePieceToConcede(ctx context.Context, s game.State, budget time.Duration) (piece.Piece, error) {
	return p.decidePiece(ctx, s, budget, nil)
}

// DecideTurn splits budget between placing the piece in hand and choosing
// the piece to hand over. Both searches share a transposition table.
func (p *Player) DecideTurn(ctx context.Context, s game.State, budget time.Duration) (Decision, error) {
	start := time.Now()
	if err := s.CheckPlacement(); err != nil {
		return Decision{}, err
	}
	tt := search.NewTranspositionTable(p.cfg.TTableSizeMB, p.cfg.TTableMemoryFraction)

	placementBudget := time.Duration(float64(budget) * p.cfg.PlacementShare)
	pos, err := p.decidePlacement(ctx, s, placementBudget, tt)
	if err != nil {
		return Decision{}, err
	}
	after := s
	after.Board = s.Board.Place(pos, s.Piece)
	after.Piece = piece.None

	d := Decision{Pos: pos, Piece: piece.None}
	if after.Remaining().Len() == 0 {
		// last piece placed, nothing to hand over.
		return d, nil
	}
	d.Piece, err = p.decidePiece(ctx, after, budget-time.Since(start), tt)
	if err != nil {
		return Decision{}, err
	}
	return d, nil
}

func (p *Player) decidePlacement(ctx context.Context, s game.State, budget time.Duration,
	tt *search.TranspositionTable) (int, error) {

	start := time.Now()
	if err := s.CheckPlacement(); err != nil {
		return 0, err
	}
	positions := movegen.Positions(s.Board)

	if wins := movegen.WinningPositions(s.Board, s.Piece); len(wins) > 0 {
		log.Debug().Int("pos", wins[0]).Str("piece", s.Piece.String()).Msg("immediate-win")
		return wins[0], nil
	}

	remaining := s.Remaining()
	// each empty cell is one placement, each piece left one selection.
	plies := len(positions) + remaining.Len()
	depth := p.AdaptiveDepth(budget-time.Since(start), remaining.Len(), plies)

	solver := p.newSolver(start, budget, tt)
	tr := &searchTrace{
		Decision:    "placement",
		Fingerprint: fingerprintString(s.Fingerprint()),
		Depth:       depth,
	}

	best := math.Inf(-1)
	bestPos := -1
	alpha := math.Inf(-1)
	for _, pos := range positions {
		if solver.Expired(ctx) {
			break
		}
		child := search.Node{
			Board:      s.Board.Place(pos, s.Piece),
			Remaining:  remaining,
			Pending:    piece.None,
			Depth:      depth - 1,
			Maximizing: true,
		}
		score := solver.Minimax(ctx, child, alpha, math.Inf(1))
		if solver.Expired(ctx) {
			// cut off mid-search, the score is not comparable.
			break
		}
		tr.Candidates = append(tr.Candidates, traceCandidate{Pos: lo.ToPtr(pos), Score: score})
		if score > best {
			best = score
			bestPos = pos
			alpha = math.Max(alpha, score)
		}
	}
	if bestPos == -1 {
		bestPos = positions[0]
		tr.Fallback = true
	}

	elapsed := time.Since(start)
	log.Info().Int("pos", bestPos).Float64("score", best).Int("depth", depth).
		Uint64("nodes", solver.Nodes()).Dur("elapsed", elapsed).
		Bool("fallback", tr.Fallback).Msg("placement-decided")
	solver.LogStats()

	tr.Nodes = solver.Nodes()
	tr.ElapsedMS = elapsed.Milliseconds()
	tr.Chosen = strconv.Itoa(bestPos)
	stats := solver.TranspositionTable().Stats()
	tr.TTable = &stats
	p.writeTrace(tr)
	return bestPos, nil
}

// concedeCandidates returns the pieces worth considering, safest first. If
// any piece can be handed over without allowing an immediate win, only
// those are considered.
func concedeCandidates(b board.Board, remaining []piece.Piece) []piece.Piece {
	candidates := movegen.SafePieces(b, remaining)
	if len(candidates) == 0 {
		candidates = remaining
	}
	return movegen.OrderPieces(b, candidates, movegen.SafestFirst)
}

// leastDangerous picks uniformly among the candidates with the lowest danger.
func leastDangerous(b board.Board, candidates []piece.Piece) piece.Piece {
	lowest := lo.Min(lo.Map(candidates, func(p piece.Piece, _ int) int {
		return movegen.Danger(p, b)
	}))
	pool := lo.Filter(candidates, func(p piece.Piece, _ int) bool {
		return movegen.Danger(p, b) == lowest
	})
	return pool[frand.Intn(len(pool))]
}

func (p *Player) decidePiece(ctx context.Context, s game.State, budget time.Duration,
	tt *search.TranspositionTable) (piece.Piece, error) {

	start := time.Now()
	if err := s.CheckConcede(); err != nil {
		return piece.None, err
	}
	remaining := s.Remaining()
	candidates := concedeCandidates(s.Board, remaining.Pieces())
	plies := s.Board.NumEmpty() + remaining.Len()
	depth := p.AdaptiveDepth(budget-time.Since(start), remaining.Len(), plies)

	solver := p.newSolver(start, budget, tt)
	tr := &searchTrace{
		Decision:    "concede",
		Fingerprint: fingerprintString(s.Fingerprint()),
		Depth:       depth,
	}

	best := math.Inf(-1)
	bestPiece := piece.None
	alpha := math.Inf(-1)
	for _, c := range candidates {
		if solver.Expired(ctx) {
			break
		}
		child := search.Node{
			Board:      s.Board,
			Remaining:  remaining.Remove(c),
			Pending:    c,
			Depth:      depth - 1,
			Maximizing: false,
		}
		score := solver.Minimax(ctx, child, alpha, math.Inf(1))
		if solver.Expired(ctx) {
			// cut off mid-search, the score is not comparable.
			break
		}
		tr.Candidates = append(tr.Candidates, traceCandidate{Piece: c.String(), Score: score})
		if score > best {
			best = score
			bestPiece = c
			alpha = math.Max(alpha, score)
		}
	}
	if !bestPiece.Valid() {
		bestPiece = leastDangerous(s.Board, candidates)
		tr.Fallback = true
	}

	elapsed := time.Since(start)
	log.Info().Str("piece", bestPiece.String()).Float64("score", best).Int("depth", depth).
		Int("candidates", len(candidates)).Uint64("nodes", solver.Nodes()).
		Dur("elapsed", elapsed).Bool("fallback", tr.Fallback).Msg("piece-decided")
	solver.LogStats()

	tr.Nodes = solver.Nodes()
	tr.ElapsedMS = elapsed.Milliseconds()
	tr.Chosen = bestPiece.String()
	stats := solver.TranspositionTable().Stats()
	tr.TTable = &stats
	p.writeTrace(tr)
	return bestPiece, nil
}
