package reconcile

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"relaydesk/internal/domain"
	"relaydesk/internal/events"
)

// Canonical event types. Every raw payload is mapped into one of these at
// the subscription boundary; the reducers never see wire shapes.
type MessageEvent struct {
	ConversationID uuid.UUID
	Message        domain.Message
}

type StatusEvent struct {
	ExternalMessageID string
	MessageID         uuid.UUID
	Status            domain.DeliveryStatus
}

type ConversationEvent struct {
	Conversation domain.Conversation
	Reopened     bool
}

// Normalize decodes one envelope off the realtime channel into its
// canonical event. Message payloads historically arrive in two shapes, a
// {conversationId, message} wrapper or the bare message row; both are
// accepted here and nowhere else.
func Normalize(raw []byte) (interface{}, error) {
	var envelope events.Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("reconcile: decode envelope: %w", err)
	}

	switch envelope.Event {
	case events.EventMessageCreated:
		return normalizeMessage(envelope.Payload)
	case events.EventMessageStatusUpdated:
		var event struct {
			ExternalMessageID string                `json:"external_message_id"`
			MessageID         uuid.UUID             `json:"message_id"`
			Status            domain.DeliveryStatus `json:"status"`
		}
		if err := json.Unmarshal(envelope.Payload, &event); err != nil {
			return nil, fmt.Errorf("reconcile: decode status event: %w", err)
		}
		return StatusEvent{
			ExternalMessageID: event.ExternalMessageID,
			MessageID:         event.MessageID,
			Status:            event.Status,
		}, nil
	case events.EventConversationCreated, events.EventConversationOpened:
		var event struct {
			Conversation domain.Conversation `json:"conversation"`
			Reopened     bool                `json:"reopened"`
		}
		if err := json.Unmarshal(envelope.Payload, &event); err != nil {
			return nil, fmt.Errorf("reconcile: decode conversation event: %w", err)
		}
		return ConversationEvent{
			Conversation: event.Conversation,
			Reopened:     event.Reopened || envelope.Event == events.EventConversationOpened,
		}, nil
	default:
		return nil, fmt.Errorf("reconcile: unknown event %q", envelope.Event)
	}
}

func normalizeMessage(payload json.RawMessage) (MessageEvent, error) {
	// wrapper shape first
	var wrapped struct {
		ConversationID uuid.UUID       `json:"conversation_id"`
		Message        json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(payload, &wrapped); err != nil {
		return MessageEvent{}, fmt.Errorf("reconcile: decode message event: %w", err)
	}

	if len(wrapped.Message) > 0 {
		var message domain.Message
		if err := json.Unmarshal(wrapped.Message, &message); err != nil {
			return MessageEvent{}, fmt.Errorf("reconcile: decode wrapped message: %w", err)
		}
		conversationID := wrapped.ConversationID
		if conversationID == uuid.Nil {
			conversationID = message.ConversationID
		}
		return MessageEvent{ConversationID: conversationID, Message: message}, nil
	}

	// bare row shape
	var message domain.Message
	if err := json.Unmarshal(payload, &message); err != nil {
		return MessageEvent{}, fmt.Errorf("reconcile: decode bare message: %w", err)
	}
	if message.ID == uuid.Nil || message.ConversationID == uuid.Nil {
		return MessageEvent{}, fmt.Errorf("reconcile: message event missing identifiers")
	}
	return MessageEvent{ConversationID: message.ConversationID, Message: message}, nil
}
