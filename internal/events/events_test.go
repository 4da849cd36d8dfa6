package events

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relaydesk/internal/domain"
)

func TestTenantChannelResolver(t *testing.T) {
	resolver := NewTenantChannelResolver()
	businessID := uuid.New()

	channels := resolver.ResolveChannels(MessageCreatedEvent{
		ConversationID: uuid.New(),
		Message:        domain.Message{BusinessID: businessID},
	})
	require.Len(t, channels, 1)
	assert.Equal(t, "business-"+businessID.String(), channels[0])

	assert.Empty(t, resolver.ResolveChannels(MessageCreatedEvent{}))
}

func TestConversationEventNames(t *testing.T) {
	conv := domain.Conversation{ID: uuid.New(), BusinessID: uuid.New()}
	assert.Equal(t, EventConversationCreated, ConversationCreatedEvent{Conversation: conv}.EventName())
	assert.Equal(t, EventConversationOpened, ConversationCreatedEvent{Conversation: conv, Reopened: true}.EventName())
}

func TestWrapEnvelope(t *testing.T) {
	businessID := uuid.New()
	event := MessageStatusUpdatedEvent{
		BusinessID:        businessID,
		ExternalMessageID: "SM1",
		Status:            domain.DeliveryStatusDelivered,
	}

	env, err := Wrap(event)
	require.NoError(t, err)
	assert.Equal(t, EventMessageStatusUpdated, env.Event)
	assert.Equal(t, businessID, env.BusinessID)
	assert.False(t, env.OccurredAt.IsZero())

	var decoded MessageStatusUpdatedEvent
	require.NoError(t, json.Unmarshal(env.Payload, &decoded))
	assert.Equal(t, event.ExternalMessageID, decoded.ExternalMessageID)
	assert.Equal(t, event.Status, decoded.Status)
}
