package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/quarto/bot"
	"github.com/domino14/quarto/config"
	"github.com/domino14/quarto/turnplayer"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Info().Interface("config", cfg).Msg("loaded-config")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	player := turnplayer.NewPlayer(cfg)
	if cfg.SearchLogPath != "" {
		f, err := os.OpenFile(cfg.SearchLogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.SearchLogPath).Msg("open-search-log")
		}
		defer f.Close()
		player.SetLogStream(f)
	}
	b := bot.NewBot(&cfg, player)

	// listen before subscribing: the server connects back to us.
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		log.Fatal().Err(err).Int("port", cfg.Port).Msg("listen")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.Serve(ctx, ln)
	})
	if cfg.NatsURL != "" {
		g.Go(func() error {
			return b.ServeNATS(ctx, cfg.NatsURL, cfg.NatsSubject)
		})
	}
	if cfg.ServerAddress != "" {
		g.Go(func() error {
			return bot.Subscribe(ctx, &cfg)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("quartobot")
	}
	log.Info().Msg("gracefully shut down")
}
