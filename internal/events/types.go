package events

import (
	"context"

	"github.com/google/uuid"

	"relaydesk/internal/domain"
)

// Event names on the realtime channel.
const (
	EventMessageCreated       = "message.created"
	EventMessageStatusUpdated = "message.status.updated"
	EventConversationCreated  = "conversation.created"
	EventConversationOpened   = "conversation.opened"
)

// Event is anything publishable on a tenant channel.
type Event interface {
	EventName() string
	Tenant() uuid.UUID
}

// Broadcaster is the fire-and-forget publish side. Implementations log
// failures and never surface them: the realtime channel is a convenience
// layer, not the system of record, and publishing must never block or
// fail message persistence.
type Broadcaster interface {
	Publish(ctx context.Context, event Event)
}

// Subscriber is the consuming side used by the websocket bridge.
type Subscriber interface {
	Subscribe(ctx context.Context, pattern string, handler func(channel string, payload []byte)) error
}

type MessageCreatedEvent struct {
	ConversationID uuid.UUID      `json:"conversation_id"`
	Message        domain.Message `json:"message"`
}

func (e MessageCreatedEvent) EventName() string { return EventMessageCreated }
func (e MessageCreatedEvent) Tenant() uuid.UUID { return e.Message.BusinessID }

type MessageStatusUpdatedEvent struct {
	BusinessID        uuid.UUID             `json:"business_id"`
	ExternalMessageID string                `json:"external_message_id"`
	MessageID         uuid.UUID             `json:"message_id"`
	Status            domain.DeliveryStatus `json:"status"`
}

func (e MessageStatusUpdatedEvent) EventName() string { return EventMessageStatusUpdated }
func (e MessageStatusUpdatedEvent) Tenant() uuid.UUID { return e.BusinessID }

type ConversationCreatedEvent struct {
	Conversation domain.Conversation `json:"conversation"`
	// Reopened distinguishes conversation.opened (explicit agent start or
	// reopen after archive) from first-contact creation.
	Reopened bool `json:"reopened"`
}

func (e ConversationCreatedEvent) EventName() string {
	if e.Reopened {
		return EventConversationOpened
	}
	return EventConversationCreated
}

func (e ConversationCreatedEvent) Tenant() uuid.UUID { return e.Conversation.BusinessID }
