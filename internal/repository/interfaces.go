package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"relaydesk/internal/domain"
)

type BusinessRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Business, error)
	// GetByProviderNumber resolves the tenant an inbound webhook belongs to
	// by its registered provider phone number.
	GetByProviderNumber(ctx context.Context, phone string) (domain.Business, error)
}

type ContactRepository interface {
	// FindOrCreate is an idempotent upsert on (business_id, phone_number).
	Create(ctx context.Context, c *domain.Contact) error
	FindOrCreate(ctx context.Context, businessID uuid.UUID, phone string) (domain.Contact, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Contact, error)
	SetOptedIn(ctx context.Context, id uuid.UUID, optedIn bool) error
}

type ConversationRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Conversation, error)
	// FindOpenOrCreate returns the single OPEN conversation for the pair,
	// creating one on the given channel when none exists. The boolean is
	// true when a new row was created. Concurrent callers are serialized by
	// the partial unique index, not by application-level locking.
	FindOpenOrCreate(ctx context.Context, businessID, contactID uuid.UUID, channel domain.Channel) (domain.Conversation, bool, error)
	// TouchLastMessage refreshes the preview columns after a persist.
	TouchLastMessage(ctx context.Context, id uuid.UUID, at time.Time, preview string) error
	Assign(ctx context.Context, id uuid.UUID, assigneeID *uuid.UUID) error
	Archive(ctx context.Context, id uuid.UUID) error
	// List returns conversations for a tenant ordered by recency, optionally
	// filtered by a search term over contact name, phone and preview.
	List(ctx context.Context, businessID uuid.UUID, search string, page, limit int) ([]domain.Conversation, int64, error)
}

type MessageRepository interface {
	// Create fails with ErrAlreadyExists when the message carries an
	// external id already recorded for the tenant (webhook replay).
	Create(ctx context.Context, m *domain.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (domain.Message, error)
	GetByExternalID(ctx context.Context, businessID uuid.UUID, externalID string) (domain.Message, error)
	// MarkDispatched is the single atomic post-send update: external id,
	// SENT and the raw provider response together.
	MarkDispatched(ctx context.Context, id uuid.UUID, externalID string, raw map[string]interface{}) error
	MarkFailed(ctx context.Context, id uuid.UUID, raw map[string]interface{}) error
	UpdateDeliveryStatus(ctx context.Context, id uuid.UUID, status domain.DeliveryStatus) error
	// ListByConversation pages backwards in time: newest first, strictly
	// before the cursor when one is given.
	ListByConversation(ctx context.Context, conversationID uuid.UUID, before *time.Time, limit int) ([]domain.Message, error)
	// ListStuckPending feeds the dispatch sweeper.
	ListStuckPending(ctx context.Context, olderThan time.Time, limit int) ([]domain.Message, error)
}

type ParticipantRepository interface {
	// Touch ensures the join row exists; called on first view or send.
	Touch(ctx context.Context, conversationID, userID uuid.UUID) (domain.Participant, error)
	MarkRead(ctx context.Context, conversationID, userID uuid.UUID) error
	// IncrementUnread bumps every participant of the conversation except
	// the sender (nil except bumps everyone, e.g. for inbound messages).
	IncrementUnread(ctx context.Context, conversationID uuid.UUID, except *uuid.UUID) error
	Get(ctx context.Context, conversationID, userID uuid.UUID) (domain.Participant, error)
}
