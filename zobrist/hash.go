package zobrist

import (
	"lukechampine.com/frand"

	"github.com/domino14/quarto/board"
	"github.com/domino14/quarto/piece"
)

const bignum = 1<<63 - 2

// MaxDepth bounds the depth component of a key. A game has at most
// 2*16 plies left.
const MaxDepth = 2*board.NumCells + 1

// generate a zobrist hash for a quarto search node.
// https://en.wikipedia.org/wiki/Zobrist_hashing
type Zobrist struct {
	minimizing uint64

	posTable       [board.NumCells][piece.NumPieces]uint64
	remainingTable [piece.NumPieces]uint64
	pendingTable   [piece.NumPieces]uint64
	depthTable     [MaxDepth + 1]uint64
}

func (z *Zobrist) Initialize() {
	for i := range z.posTable {
		for j := range z.posTable[i] {
			z.posTable[i][j] = frand.Uint64n(bignum) + 1
		}
	}
	for i := 0; i < piece.NumPieces; i++ {
		z.remainingTable[i] = frand.Uint64n(bignum) + 1
		z.pendingTable[i] = frand.Uint64n(bignum) + 1
	}
	for i := range z.depthTable {
		z.depthTable[i] = frand.Uint64n(bignum) + 1
	}
	z.minimizing = frand.Uint64n(bignum) + 1
}

// Hash computes the key of a node from scratch.
func (z *Zobrist) Hash(b board.Board, remaining piece.Set, pending piece.Piece,
	depth int, maximizing bool) uint64 {

	key := uint64(0)
	for i, p := range b {
		if !p.Valid() {
			continue
		}
		key ^= z.posTable[i][p]
	}
	for _, p := range remaining.Pieces() {
		key ^= z.remainingTable[p]
	}
	if pending.Valid() {
		key ^= z.pendingTable[pending]
	}
	key ^= z.depthTable[depth]
	if !maximizing {
		key ^= z.minimizing
	}
	return key
}

// AddPlacement updates key for putting the pending piece p on cell idx. The
// child node is a selection node one ply shallower, same side to move.
func (z *Zobrist) AddPlacement(key uint64, idx int, p piece.Piece, depth int) uint64 {
	key ^= z.posTable[idx][p]
	key ^= z.pendingTable[p]
	key ^= z.depthTable[depth]
	key ^= z.depthTable[depth-1]
	return key
}

// AddSelection updates key for handing p to the opponent. The piece moves
// from the remaining set to pending and the side to move flips.
func (z *Zobrist) AddSelection(key uint64, p piece.Piece, depth int) uint64 {
	key ^= z.remainingTable[p]
	key ^= z.pendingTable[p]
	key ^= z.depthTable[depth]
	key ^= z.depthTable[depth-1]
	key ^= z.minimizing
	return key
}
