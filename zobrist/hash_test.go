package zobrist

import (
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/quarto/board"
	"github.com/domino14/quarto/piece"
)

func TestIncrementalMatchesFullHash(t *testing.T) {
	is := is.New(t)
	z := &Zobrist{}
	z.Initialize()

	b := board.Empty()
	remaining := piece.FullSet
	pending := piece.MustParse("SDEC")
	remaining = remaining.Remove(pending)
	depth := 6
	maximizing := true

	key := z.Hash(b, remaining, pending, depth, maximizing)
	h0 := key

	// place at 5, hand over BLFP, opponent places at 10
	key = z.AddPlacement(key, 5, pending, depth)
	b = b.Place(5, pending)
	depth--
	is.Equal(key, z.Hash(b, remaining, piece.None, depth, maximizing))

	given := piece.MustParse("BLFP")
	key = z.AddSelection(key, given, depth)
	remaining = remaining.Remove(given)
	depth--
	maximizing = !maximizing
	is.Equal(key, z.Hash(b, remaining, given, depth, maximizing))

	key = z.AddPlacement(key, 10, given, depth)
	b = b.Place(10, given)
	depth--
	is.Equal(key, z.Hash(b, remaining, piece.None, depth, maximizing))
	is.True(key != h0)
}

func TestSidesAndDepthsDiffer(t *testing.T) {
	is := is.New(t)
	z := &Zobrist{}
	z.Initialize()
	b := board.Empty().Place(0, piece.MustParse("BDEC"))
	rem := board.Remaining(b, piece.None)
	is.True(z.Hash(b, rem, piece.None, 3, true) != z.Hash(b, rem, piece.None, 3, false))
	is.True(z.Hash(b, rem, piece.None, 3, true) != z.Hash(b, rem, piece.None, 2, true))
	// same position hashes the same
	is.Equal(z.Hash(b, rem, piece.None, 3, true), z.Hash(b, rem, piece.None, 3, true))
}
