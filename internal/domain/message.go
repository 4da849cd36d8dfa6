package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is append-only once persisted. DeliveryStatus, ExternalMessageID
// and RawPayload are the only mutable fields; everything else is written
// exactly once.
type Message struct {
	ID              uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID  uuid.UUID   `gorm:"type:uuid;not null;index:idx_messages_conversation,priority:1" json:"conversation_id"`
	BusinessID      uuid.UUID   `gorm:"type:uuid;not null" json:"business_id"`
	Direction       Direction   `gorm:"type:varchar(16);not null" json:"direction"`
	SenderUserID    *uuid.UUID  `gorm:"type:uuid" json:"sender_user_id,omitempty"`
	SenderContactID *uuid.UUID  `gorm:"type:uuid" json:"sender_contact_id,omitempty"`
	Type            MessageType `gorm:"type:varchar(16);default:'TEXT';not null" json:"type"`
	Content         *string     `gorm:"type:text" json:"content,omitempty"`
	MediaURL        *string     `gorm:"type:text" json:"media_url,omitempty"`
	MediaType       *string     `gorm:"type:varchar(128)" json:"media_type,omitempty"`
	// ExternalMessageID is the provider correlation id. Unique per business
	// when set (idx_messages_business_external); messages that never reach
	// the provider keep it null forever.
	ExternalMessageID *string                `gorm:"type:varchar(128)" json:"external_message_id,omitempty"`
	DeliveryStatus    DeliveryStatus         `gorm:"type:varchar(16);default:'PENDING';not null" json:"delivery_status"`
	RawPayload        map[string]interface{} `gorm:"type:jsonb;serializer:json" json:"raw_payload,omitempty"`
	CreatedAt         time.Time              `gorm:"default:CURRENT_TIMESTAMP;index:idx_messages_conversation,priority:2,sort:desc" json:"created_at"`
}

// NewInbound builds a contact-authored message. Inbound messages carry no
// delivery tracking; the status column is only meaningful for OUTBOUND.
func NewInbound(businessID, conversationID, contactID uuid.UUID, externalID string, content *string) Message {
	var ext *string
	if externalID != "" {
		ext = &externalID
	}
	return Message{
		ID:                uuid.New(),
		ConversationID:    conversationID,
		BusinessID:        businessID,
		Direction:         DirectionInbound,
		SenderContactID:   &contactID,
		Type:              MessageTypeText,
		Content:           content,
		ExternalMessageID: ext,
		DeliveryStatus:    DeliveryStatusDelivered,
		CreatedAt:         time.Now().UTC(),
	}
}

// NewOutbound builds an agent-authored message in its pre-dispatch state.
func NewOutbound(businessID, conversationID, senderUserID uuid.UUID, msgType MessageType, content *string) Message {
	return Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		BusinessID:     businessID,
		Direction:      DirectionOutbound,
		SenderUserID:   &senderUserID,
		Type:           msgType,
		Content:        content,
		DeliveryStatus: DeliveryStatusPending,
		CreatedAt:      time.Now().UTC(),
	}
}
