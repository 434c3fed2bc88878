package game

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/quarto/board"
	"github.com/domino14/quarto/piece"
)

const judgeState = `{
	"players": ["alice", "bob"],
	"current": 1,
	"board": ["SDEC", "SLEP", "SDFC", null, null, null, null, null,
	          null, null, null, null, null, null, null, null],
	"piece": "SLFP"
}`

func TestUnmarshalJudgeState(t *testing.T) {
	is := is.New(t)
	var s State
	is.NoErr(json.Unmarshal([]byte(judgeState), &s))
	is.Equal(s.Board[0], piece.MustParse("SDEC"))
	is.Equal(s.Board[2], piece.MustParse("SDFC"))
	is.Equal(s.Board[3], piece.None)
	is.Equal(s.Board.NumEmpty(), 13)
	is.Equal(s.Piece, piece.MustParse("SLFP"))
	is.Equal(s.Current, 1)
	is.Equal(s.Players, []string{"alice", "bob"})
	is.NoErr(s.CheckPlacement())
}

func TestUnmarshalFirstTurn(t *testing.T) {
	is := is.New(t)
	var s State
	is.NoErr(json.Unmarshal([]byte(`{"board":[null,null,null,null,null,null,null,null,
		null,null,null,null,null,null,null,null],"piece":null}`), &s))
	is.Equal(s.Board, board.Empty())
	is.Equal(s.Piece, piece.None)
	is.Equal(s.Remaining(), piece.FullSet)
	is.NoErr(s.CheckConcede())
	is.True(errors.Is(s.CheckPlacement(), ErrInvalidState))
}

func TestUnmarshalErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		data string
	}{
		{"short board", `{"board":["SDEC"],"piece":null}`},
		{"missing board", `{"piece":"SDEC"}`},
		{"bad code", `{"board":["XXXX",null,null,null,null,null,null,null,
			null,null,null,null,null,null,null,null],"piece":null}`},
		{"not json", `{`},
		{"empty", ``},
		{"board not an array", `{"board":"SDEC","piece":null}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			is := is.New(t)
			_, err := Decode([]byte(tc.data))
			is.True(errors.Is(err, ErrInvalidState))
		})
	}
}

func TestUnmarshalJSONWrapsDecodeErrors(t *testing.T) {
	is := is.New(t)
	var s State
	// json.Unmarshal rejects this before reaching State.UnmarshalJSON.
	_, isSyntax := json.Unmarshal([]byte(`{`), &s).(*json.SyntaxError)
	is.True(isSyntax)
	is.True(errors.Is(s.UnmarshalJSON([]byte(`{"board":"SDEC"}`)), ErrInvalidState))

	decoded, err := Decode([]byte(judgeState))
	is.NoErr(err)
	is.Equal(decoded.Piece, piece.MustParse("SLFP"))
}

func TestMarshalRoundTrip(t *testing.T) {
	is := is.New(t)
	var s State
	is.NoErr(json.Unmarshal([]byte(judgeState), &s))
	data, err := json.Marshal(s)
	is.NoErr(err)
	var again State
	is.NoErr(json.Unmarshal(data, &again))
	is.Equal(again.Board, s.Board)
	is.Equal(again.Piece, s.Piece)
	is.Equal(again.Fingerprint(), s.Fingerprint())
}

func TestValidate(t *testing.T) {
	sdec := piece.MustParse("SDEC")
	full, err := board.FromCodes(
		"BDFP", "BDEP", "BLEC", "SLFC",
		"SDFC", "BDEC", "BLEP", "BDFC",
		"SLEP", "BLFP", "SDEP", "SLEC",
		"SDEC", "SDFP", "BLFC", "SLFP",
	)
	if err != nil {
		t.Fatal(err)
	}
	for _, tc := range []struct {
		name      string
		state     State
		placement bool
		concede   bool
	}{
		{"empty board, piece in hand", NewState(board.Empty(), sdec), true, true},
		{"duplicate on board", NewState(board.Empty().Place(0, sdec).Place(5, sdec), piece.None), false, false},
		{"piece in hand on board", NewState(board.Empty().Place(0, sdec), sdec), false, false},
		{"full board", NewState(full, piece.None), false, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			is := is.New(t)
			is.Equal(tc.state.CheckPlacement() == nil, tc.placement)
			is.Equal(tc.state.CheckConcede() == nil, tc.concede)
			if err := tc.state.CheckConcede(); err != nil {
				is.True(errors.Is(err, ErrInvalidState))
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	is := is.New(t)
	sdec := piece.MustParse("SDEC")
	a := NewState(board.Empty().Place(5, sdec), piece.MustParse("BLFP"))
	b := NewState(board.Empty().Place(5, sdec), piece.MustParse("BLFP"))
	c := NewState(board.Empty().Place(6, sdec), piece.MustParse("BLFP"))
	is.Equal(a.Fingerprint(), b.Fingerprint())
	is.True(a.Fingerprint() != c.Fingerprint())
}
