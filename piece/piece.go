package piece

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// A Piece is a 4-bit code. Bit i is set when attribute i holds its second
// value (see attributeLetters).
type Piece uint8

const (
	NumAttributes = 4
	NumPieces     = 1 << NumAttributes

	attrMask = NumPieces - 1
)

// None marks an empty cell, or the absence of a piece in hand.
const None Piece = 0xFF

// Attribute indices.
const (
	Size = iota
	Color
	Fill
	Shape
)

// attributeLetters holds the two letters of each attribute, in code order.
// Big/Small, Dark/Light, Empty/Full, Cylinder/Prism.
var attributeLetters = [NumAttributes][2]byte{
	{'B', 'S'},
	{'D', 'L'},
	{'E', 'F'},
	{'C', 'P'},
}

var ErrBadPieceCode = errors.New("bad piece code")

// All returns the whole alphabet in increasing code order.
func All() [NumPieces]Piece {
	var ps [NumPieces]Piece
	for i := range ps {
		ps[i] = Piece(i)
	}
	return ps
}

func (p Piece) Valid() bool {
	return p < NumPieces
}

// Attribute returns the value (0 or 1) of attribute i.
func (p Piece) Attribute(i int) uint8 {
	return uint8(p>>i) & 1
}

func (p Piece) Attributes() [NumAttributes]uint8 {
	var a [NumAttributes]uint8
	for i := range a {
		a[i] = p.Attribute(i)
	}
	return a
}

// Shares returns true if every piece in the list has the same value for at
// least one attribute. An empty list, or one holding None, never shares.
func Shares(pieces []Piece) bool {
	if len(pieces) == 0 {
		return false
	}
	ones, zeros := Piece(attrMask), Piece(attrMask)
	for _, p := range pieces {
		if !p.Valid() {
			return false
		}
		ones &= p
		zeros &= ^p
	}
	return (ones|zeros)&attrMask != 0
}

// SharedAttributes returns a mask of the attributes on which all the given
// pieces agree. Empty cells are skipped; with no pieces the mask is zero.
func SharedAttributes(pieces []Piece) Piece {
	ones, zeros := Piece(attrMask), Piece(attrMask)
	n := 0
	for _, p := range pieces {
		if !p.Valid() {
			continue
		}
		n++
		ones &= p
		zeros &= ^p
	}
	if n == 0 {
		return 0
	}
	return (ones | zeros) & attrMask
}

func (p Piece) String() string {
	if !p.Valid() {
		return "...."
	}
	var b [NumAttributes]byte
	for i := range b {
		b[i] = attributeLetters[i][p.Attribute(i)]
	}
	return string(b[:])
}

// Parse converts a code such as "SDEC" into a piece.
func Parse(code string) (Piece, error) {
	if len(code) != NumAttributes {
		return None, fmt.Errorf("%w: %q", ErrBadPieceCode, code)
	}
	var p Piece
	for i := 0; i < NumAttributes; i++ {
		switch code[i] {
		case attributeLetters[i][0]:
		case attributeLetters[i][1]:
			p |= 1 << i
		default:
			return None, fmt.Errorf("%w: %q", ErrBadPieceCode, code)
		}
	}
	return p, nil
}

// MustParse is meant for tests and constant tables.
func MustParse(code string) Piece {
	p, err := Parse(code)
	if err != nil {
		panic(err)
	}
	return p
}

// MarshalJSON writes the piece code, or null for None.
func (p Piece) MarshalJSON() ([]byte, error) {
	if !p.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(p.String())
}

func (p *Piece) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = None
		return nil
	}
	var code string
	if err := json.Unmarshal(data, &code); err != nil {
		return err
	}
	parsed, err := Parse(code)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Set is a bitset of pieces, one bit per code.
type Set uint16

const FullSet Set = 1<<NumPieces - 1

func SetOf(pieces ...Piece) Set {
	var s Set
	for _, p := range pieces {
		s = s.Add(p)
	}
	return s
}

func (s Set) Add(p Piece) Set {
	if !p.Valid() {
		return s
	}
	return s | 1<<p
}

func (s Set) Remove(p Piece) Set {
	if !p.Valid() {
		return s
	}
	return s &^ (1 << p)
}

func (s Set) Contains(p Piece) bool {
	return p.Valid() && s&(1<<p) != 0
}

func (s Set) Len() int {
	n := 0
	for x := s; x != 0; x &= x - 1 {
		n++
	}
	return n
}

// Pieces lists the members in increasing code order.
func (s Set) Pieces() []Piece {
	ps := make([]Piece, 0, s.Len())
	for i := Piece(0); i < NumPieces; i++ {
		if s.Contains(i) {
			ps = append(ps, i)
		}
	}
	return ps
}
