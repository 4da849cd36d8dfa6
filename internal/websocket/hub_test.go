package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func TestHubBroadcastReachesOnlyTenantChannel(t *testing.T) {
	hub := startHub(t)

	acme := NewClient(nil, "u1", "business-acme")
	acme2 := NewClient(nil, "u2", "business-acme")
	other := NewClient(nil, "u3", "business-other")

	hub.Register(acme)
	hub.Register(acme2)
	hub.Register(other)
	require.Eventually(t, func() bool { return hub.ClientCount() == 3 }, time.Second, 5*time.Millisecond)

	hub.Broadcast("business-acme", []byte("ping"))

	for _, c := range []*Client{acme, acme2} {
		select {
		case msg := <-c.send:
			assert.Equal(t, "ping", string(msg))
		case <-time.After(time.Second):
			t.Fatal("expected delivery on tenant channel")
		}
	}
	select {
	case <-other.send:
		t.Fatal("unexpected cross-tenant delivery")
	default:
	}
}

func TestHubUnregisterCleansUpChannel(t *testing.T) {
	hub := startHub(t)

	client := NewClient(nil, "u1", "business-acme")
	hub.Register(client)
	require.Eventually(t, func() bool { return hub.ChannelSubscriberCount("business-acme") == 1 }, time.Second, 5*time.Millisecond)

	hub.Unregister(client)
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, hub.ChannelSubscriberCount("business-acme"))

	// send channel closed on removal
	_, open := <-client.send
	assert.False(t, open)
}

func TestDeliverDropsWhenFull(t *testing.T) {
	client := NewClient(nil, "u1", "business-acme")
	for i := 0; i < cap(client.send)+10; i++ {
		client.Deliver([]byte("m"))
	}
	assert.Len(t, client.send, cap(client.send))
}
