// Package bot connects a turn player to the outside world: the judge's
// JSON-over-TCP protocol, the matchmaking subscription and NATS.
package bot

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/domino14/quarto/config"
	"github.com/domino14/quarto/game"
	"github.com/domino14/quarto/turnplayer"
)

const moveMessage = "stay humble"

type Bot struct {
	config *config.Config
	player turnplayer.TurnPlayer

	// decisions are made one at a time, whichever transport asks.
	mu              sync.Mutex
	lastFingerprint uint64
	lastMove        *Move
	latencies       latencies
}

func NewBot(cfg *config.Config, player turnplayer.TurnPlayer) *Bot {
	return &Bot{config: cfg, player: player}
}

// Handle answers one raw request.
func (bot *Bot) Handle(ctx context.Context, data []byte) Response {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return errorResponse("could not parse request", err)
	}
	switch req.Request {
	case RequestPing:
		return Response{Response: ResponsePong}
	case RequestPlay:
		return bot.play(ctx, req)
	default:
		return errorResponse("unknown request "+req.Request, nil)
	}
}

func (bot *Bot) play(ctx context.Context, req Request) Response {
	bot.mu.Lock()
	defer bot.mu.Unlock()

	s, err := game.Decode(req.State)
	if err != nil {
		log.Err(err).Msg("invalid-state")
		return errorResponse("invalid state", err)
	}
	s.Errors = judgeErrors(req.Errors)
	fp := s.Fingerprint()
	logger := log.With().Str("fingerprint", fingerprintString(fp)).Int("lives", req.Lives).Logger()
	if len(s.Errors) > 0 {
		logger.Warn().Strs("errors", s.Errors).Msg("judge-reported-errors")
	}

	// The same position asked again: answer the same, unless the judge
	// complained about our last answer.
	if fp == bot.lastFingerprint && bot.lastMove != nil && len(s.Errors) == 0 {
		logger.Info().Msg("repeated-request")
		m := *bot.lastMove
		return Response{Response: ResponseMove, Move: &m, Message: moveMessage}
	}

	start := time.Now()
	d, err := bot.player.DecideTurn(ctx, s, bot.config.TimeBudget)
	if err != nil {
		if errors.Is(err, game.ErrInvalidState) {
			logger.Err(err).Msg("invalid-state")
			return errorResponse("invalid state", err)
		}
		logger.Err(err).Msg("decide-turn")
		return errorResponse("could not decide", err)
	}
	bot.latencies.add(time.Since(start))
	mean, stddev, n := bot.latencies.summary()
	logger.Info().Int("pos", d.Pos).Str("piece", d.Piece.String()).
		Dur("elapsed", time.Since(start)).Float64("mean-ms", mean).
		Float64("stddev-ms", stddev).Int("decisions", n).Msg("move")

	m := &Move{Pos: d.Pos, Piece: d.Piece}
	bot.lastFingerprint = fp
	bot.lastMove = m
	mc := *m
	return Response{Response: ResponseMove, Move: &mc, Message: moveMessage}
}

// judgeErrors flattens the judge's error list. Strings are unquoted, any
// other value is kept as raw JSON.
func judgeErrors(raw []json.RawMessage) []string {
	var errs []string
	for _, e := range raw {
		var msg string
		if err := json.Unmarshal(e, &msg); err != nil {
			msg = string(e)
		}
		errs = append(errs, msg)
	}
	return errs
}
