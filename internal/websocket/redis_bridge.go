package websocket

import (
	"context"

	"relaydesk/internal/events"
)

// RedisBridge relays tenant-channel traffic from Redis into the local hub.
// Every API instance runs one; a message published on any instance reaches
// connections held by all of them.
type RedisBridge struct {
	subscriber events.Subscriber
	hub        *Hub
}

func NewRedisBridge(subscriber events.Subscriber, hub *Hub) *RedisBridge {
	return &RedisBridge{subscriber: subscriber, hub: hub}
}

func (b *RedisBridge) Run(ctx context.Context) error {
	return b.subscriber.Subscribe(ctx, events.ChannelPrefix+"*", func(channel string, payload []byte) {
		b.hub.Broadcast(channel, payload)
	})
}
