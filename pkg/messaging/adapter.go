package messaging

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// Handler processes one decoded message.
type Handler func(ctx context.Context, msg Message) error

// Consume subscribes to channel and feeds decoded messages to handler until ctx
// is cancelled or the subscription closes. Undecodable payloads and handler
// errors are logged and skipped.
func Consume(ctx context.Context, broker Broker, channel string, handler Handler) error {
	msgChan, err := broker.Subscribe(ctx, channel)
	if err != nil {
		return err
	}

	go func() {
		for raw := range msgChan {
			var msg Message
			if err := json.Unmarshal(raw, &msg); err != nil {
				log.Warn().Err(err).Str("channel", channel).Msg("Dropping undecodable message")
				continue
			}
			if err := handler(ctx, msg); err != nil {
				log.Error().Err(err).
					Str("channel", channel).
					Str("event_type", msg.Type).
					Msg("Failed to handle message")
			}
		}
	}()

	return nil
}
