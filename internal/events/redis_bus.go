package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"relaydesk/pkg/logger"
)

// RedisBus publishes envelopes on Redis pub/sub tenant channels and feeds
// the websocket bridge on the subscribe side. Publish is best-effort,
// at-most-once: failures are logged and dropped, never returned.
type RedisBus struct {
	client   *redis.Client
	resolver ChannelResolver
	log      *logger.Logger
}

func NewRedisBus(client *redis.Client, resolver ChannelResolver, log *logger.Logger) *RedisBus {
	return &RedisBus{client: client, resolver: resolver, log: log}
}

func (b *RedisBus) Publish(ctx context.Context, event Event) {
	channels := b.resolver.ResolveChannels(event)
	if len(channels) == 0 {
		return
	}

	envelope, err := Wrap(event)
	if err != nil {
		b.log.ErrorCtx(ctx, "broadcast: failed to marshal event",
			zap.String("event", event.EventName()), zap.Error(err))
		return
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		b.log.ErrorCtx(ctx, "broadcast: failed to marshal envelope",
			zap.String("event", event.EventName()), zap.Error(err))
		return
	}

	for _, channel := range channels {
		if err := b.client.Publish(ctx, channel, data).Err(); err != nil {
			b.log.WarnCtx(ctx, "broadcast: publish failed",
				zap.String("channel", channel),
				zap.String("event", event.EventName()),
				zap.Error(err))
		}
	}
}

// Subscribe consumes all channels matching pattern until ctx is done.
func (b *RedisBus) Subscribe(ctx context.Context, pattern string, handler func(channel string, payload []byte)) error {
	pubsub := b.client.PSubscribe(ctx, pattern)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			handler(msg.Channel, []byte(msg.Payload))
		}
	}
}
