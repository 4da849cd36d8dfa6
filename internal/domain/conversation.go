package domain

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Conversation is one thread between a business and a contact on one
// channel. At most one OPEN conversation exists per (business, contact)
// pair; the partial unique index idx_conversations_one_open backs the
// find-open-or-create upsert.
type Conversation struct {
	ID                 uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	BusinessID         uuid.UUID          `gorm:"type:uuid;not null;index:idx_conversations_business" json:"business_id"`
	ContactID          uuid.UUID          `gorm:"type:uuid;not null" json:"contact_id"`
	Channel            Channel            `gorm:"type:varchar(16);not null" json:"channel"`
	Status             ConversationStatus `gorm:"type:varchar(16);default:'OPEN';not null" json:"status"`
	AssigneeID         *uuid.UUID         `gorm:"type:uuid" json:"assignee_id,omitempty"`
	LastMessageAt      *time.Time         `gorm:"index:idx_conversations_last_message,sort:desc" json:"last_message_at,omitempty"`
	LastMessagePreview *string            `gorm:"type:varchar(160)" json:"last_message_preview,omitempty"`
	CreatedAt          time.Time          `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`

	// Relations
	Contact Contact `gorm:"foreignKey:ContactID" json:"contact,omitempty"`
}

// Participant joins a conversation to a dashboard user, created the first
// time the user touches the conversation.
type Participant struct {
	ConversationID uuid.UUID  `gorm:"type:uuid;primaryKey" json:"conversation_id"`
	UserID         uuid.UUID  `gorm:"type:uuid;primaryKey;index:idx_participants_user" json:"user_id"`
	JoinedAt       time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"joined_at"`
	LastReadAt     *time.Time `json:"last_read_at,omitempty"`
	UnreadCount    int        `gorm:"default:0" json:"unread_count"`
}

const previewMaxRunes = 120

// Preview truncates message content for the conversation list.
func Preview(content string) string {
	if utf8.RuneCountInString(content) <= previewMaxRunes {
		return content
	}
	runes := []rune(content)
	return string(runes[:previewMaxRunes]) + "…"
}
