package bot

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// ServeNATS answers requests published on subject, until ctx is done.
func (bot *Bot) ServeNATS(ctx context.Context, url, subject string) error {
	nc, err := nats.Connect(url, nats.Name(bot.config.Name))
	if err != nil {
		return err
	}
	defer nc.Close()

	sub, err := nc.Subscribe(subject, func(m *nats.Msg) {
		log.Info().Int("bytes", len(m.Data)).Msg("nats-request")
		data, err := json.Marshal(bot.Handle(ctx, m.Data))
		if err != nil {
			// Should never happen, but the requester is waiting.
			m.Respond([]byte(err.Error()))
			return
		}
		if err := m.Respond(data); err != nil {
			log.Err(err).Msg("nats-respond")
		}
	})
	if err != nil {
		return err
	}
	if err := nc.Flush(); err != nil {
		return err
	}
	if err := nc.LastError(); err != nil {
		return err
	}
	log.Info().Str("subject", subject).Msg("listening-nats")

	<-ctx.Done()
	return sub.Unsubscribe()
}
