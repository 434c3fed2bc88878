package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"

	"github.com/domino14/quarto/config"
	"github.com/domino14/quarto/game"
)

var ErrRefused = errors.New("request refused")

// roundTrip sends req to addr over a fresh connection and reads one reply.
func roundTrip(ctx context.Context, addr string, req any) (Response, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return Response{}, err
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	} else {
		conn.SetDeadline(time.Now().Add(connTimeout))
	}
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return Response{}, err
	}
	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return Response{}, err
	}
	if resp.Response == ResponseError {
		return resp, fmt.Errorf("%w: %s", ErrRefused, resp.Error)
	}
	return resp, nil
}

// Ping checks that a player answers at addr.
func Ping(ctx context.Context, addr string) error {
	resp, err := roundTrip(ctx, addr, Request{Request: RequestPing})
	if err != nil {
		return err
	}
	if resp.Response != ResponsePong {
		return fmt.Errorf("unexpected response %q", resp.Response)
	}
	return nil
}

// RequestMove asks the player at addr for a move, the way the judge does.
func RequestMove(ctx context.Context, addr string, s game.State, lives int) (*Move, error) {
	state, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	resp, err := roundTrip(ctx, addr, Request{Request: RequestPlay, Lives: lives, State: state})
	if err != nil {
		return nil, err
	}
	if resp.Move == nil {
		return nil, errors.New("response carries no move")
	}
	return resp.Move, nil
}

// Subscribe registers the player with the matchmaking server, retrying with
// backoff until it answers or the attempts run out.
func Subscribe(ctx context.Context, cfg *config.Config, opts ...retry.Option) error {
	req := Request{
		Request:    RequestSubscribe,
		Port:       cfg.Port,
		Name:       cfg.Name,
		Matricules: cfg.Matricules,
	}
	options := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(cfg.SubscribeAttempts),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			log.Err(err).Uint("n", n).Str("server", cfg.ServerAddress).
				Msg("subscribe-failed-try-again")
			return retry.BackOffDelay(n, err, config)
		}),
	}
	return retry.Do(
		func() error {
			resp, err := roundTrip(ctx, cfg.ServerAddress, req)
			if errors.Is(err, ErrRefused) {
				return retry.Unrecoverable(err)
			}
			if err != nil {
				return err
			}
			log.Info().Str("server", cfg.ServerAddress).Str("response", resp.Response).
				Str("name", cfg.Name).Msg("subscribed")
			return nil
		},
		append(options, opts...)...,
	)
}
