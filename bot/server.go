package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog/log"
)

// connTimeout bounds reading a request and writing its answer, excluding
// the time spent deciding.
const connTimeout = 5 * time.Second

func fingerprintString(f uint64) string {
	return fmt.Sprintf("%016x", f)
}

// Serve accepts connections on ln, one at a time. Every connection carries
// a single request and its response.
func (bot *Bot) Serve(ctx context.Context, ln net.Listener) error {
	log.Info().Str("addr", ln.Addr().String()).Msg("listening")
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return err
		}
		bot.serveConn(ctx, conn)
	}
}

func (bot *Bot) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	logger := log.With().Str("remote", conn.RemoteAddr().String()).Logger()

	conn.SetReadDeadline(time.Now().Add(connTimeout))
	var raw json.RawMessage
	var resp Response
	if err := json.NewDecoder(conn).Decode(&raw); err != nil {
		logger.Err(err).Msg("read-request")
		resp = errorResponse("could not read request", err)
	} else {
		resp = bot.Handle(ctx, raw)
	}

	conn.SetWriteDeadline(time.Now().Add(connTimeout))
	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		logger.Err(err).Msg("write-response")
	}
}
