package bot

import (
	"encoding/json"

	"github.com/domino14/quarto/piece"
)

const (
	RequestSubscribe = "subscribe"
	RequestPing      = "ping"
	RequestPlay      = "play"

	ResponsePong  = "pong"
	ResponseMove  = "move"
	ResponseError = "error"
)

// Request is any message the judge or matchmaking server exchanges with
// us. Only the fields relevant to its kind are set.
type Request struct {
	Request string `json:"request"`

	// subscribe
	Port       int      `json:"port,omitempty"`
	Name       string   `json:"name,omitempty"`
	Matricules []string `json:"matricules,omitempty"`

	// play
	Lives  int               `json:"lives,omitempty"`
	Errors []json.RawMessage `json:"errors,omitempty"`
	State  json.RawMessage   `json:"state,omitempty"`
}

type Move struct {
	Pos   int         `json:"pos"`
	Piece piece.Piece `json:"piece"`
}

type Response struct {
	Response string `json:"response"`
	Move     *Move  `json:"move,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

func errorResponse(msg string, err error) Response {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	return Response{Response: ResponseError, Error: msg}
}
