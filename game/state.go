// Package game holds the state of a Quarto game as the judge reports it,
// along with its validation.
package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cespare/xxhash"

	"github.com/domino14/quarto/board"
	"github.com/domino14/quarto/piece"
)

var ErrInvalidState = errors.New("invalid game state")

// State is a snapshot of the game from the point of view of the player to
// act. Piece is the piece handed to that player, piece.None when there is
// none (the very first turn).
type State struct {
	Board   board.Board
	Piece   piece.Piece
	Current int
	Players []string
	// Errors the judge reported for our previous moves.
	Errors []string
}

func NewState(b board.Board, inHand piece.Piece) State {
	return State{Board: b, Piece: inHand}
}

type jsonState struct {
	Board   []piece.Piece `json:"board"`
	Piece   *piece.Piece  `json:"piece"`
	Current int           `json:"current"`
	Players []string      `json:"players,omitempty"`
}

func (s *State) UnmarshalJSON(data []byte) error {
	var js jsonState
	if err := json.Unmarshal(data, &js); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidState, err)
	}
	if len(js.Board) != board.NumCells {
		return fmt.Errorf("%w: board has %d cells", ErrInvalidState, len(js.Board))
	}
	copy(s.Board[:], js.Board)
	s.Piece = piece.None
	if js.Piece != nil {
		s.Piece = *js.Piece
	}
	s.Current = js.Current
	s.Players = js.Players
	return nil
}

// Decode parses the judge's state. Every failure, malformed JSON included,
// wraps ErrInvalidState.
func Decode(data []byte) (State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		if errors.Is(err, ErrInvalidState) {
			return State{}, err
		}
		return State{}, fmt.Errorf("%w: %w", ErrInvalidState, err)
	}
	return s, nil
}

func (s State) MarshalJSON() ([]byte, error) {
	js := jsonState{
		Board:   s.Board[:],
		Current: s.Current,
		Players: s.Players,
	}
	if s.Piece.Valid() {
		p := s.Piece
		js.Piece = &p
	}
	return json.Marshal(js)
}

// Validate checks the invariants every state must satisfy: no piece appears
// twice, and the piece in hand is not also on the board.
func (s State) Validate() error {
	if dups := s.Board.Duplicates(); len(dups) > 0 {
		return fmt.Errorf("%w: duplicate pieces on board: %v", ErrInvalidState, dups)
	}
	if s.Piece.Valid() && s.Board.Contains(s.Piece) {
		return fmt.Errorf("%w: piece in hand %v is already on the board", ErrInvalidState, s.Piece)
	}
	return nil
}

// CheckPlacement validates s and makes sure a placement can be made.
func (s State) CheckPlacement() error {
	if err := s.Validate(); err != nil {
		return err
	}
	if !s.Piece.Valid() {
		return fmt.Errorf("%w: no piece in hand to place", ErrInvalidState)
	}
	if s.Board.IsFull() {
		return fmt.Errorf("%w: no empty cell", ErrInvalidState)
	}
	return nil
}

// CheckConcede validates s and makes sure a piece is left to hand over.
func (s State) CheckConcede() error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.Remaining().Len() == 0 {
		return fmt.Errorf("%w: no piece left to concede", ErrInvalidState)
	}
	return nil
}

// Remaining is the set of pieces neither on the board nor in hand.
func (s State) Remaining() piece.Set {
	return board.Remaining(s.Board, s.Piece)
}

// Fingerprint identifies the board and piece in hand. Equal fingerprints
// mean equal positions, up to hash collisions.
func (s State) Fingerprint() uint64 {
	var buf [board.NumCells + 1]byte
	for i, p := range s.Board {
		buf[i] = byte(p)
	}
	buf[board.NumCells] = byte(s.Piece)
	return xxhash.Sum64(buf[:])
}

func (s State) String() string {
	var sb strings.Builder
	sb.WriteString(s.Board.String())
	fmt.Fprintf(&sb, "\nin hand: %v", s.Piece)
	return sb.String()
}
