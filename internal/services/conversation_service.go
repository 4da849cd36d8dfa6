package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"relaydesk/internal/domain"
	"relaydesk/internal/events"
	"relaydesk/internal/repository"
	relaydesk_errors "relaydesk/pkg/errors"
	"relaydesk/pkg/logger"
)

// ConversationService is the agent-facing query and lifecycle surface.
type ConversationService struct {
	conversations repository.ConversationRepository
	contacts      repository.ContactRepository
	messages      repository.MessageRepository
	participants  repository.ParticipantRepository
	broadcaster   events.Broadcaster
	log           *logger.Logger
}

func NewConversationService(
	conversations repository.ConversationRepository,
	contacts repository.ContactRepository,
	messages repository.MessageRepository,
	participants repository.ParticipantRepository,
	broadcaster events.Broadcaster,
	log *logger.Logger,
) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		contacts:      contacts,
		messages:      messages,
		participants:  participants,
		broadcaster:   broadcaster,
		log:           log,
	}
}

// Start opens (or reopens) a conversation with a contact on the given
// channel. If an OPEN conversation already exists it is returned as-is;
// only freshly created rows broadcast conversation.opened.
func (s *ConversationService) Start(ctx context.Context, contactID uuid.UUID, channel domain.Channel) (domain.Conversation, error) {
	businessID, ok := BusinessIDFromContext(ctx)
	if !ok {
		return domain.Conversation{}, relaydesk_errors.ErrUnauthorized
	}

	contact, err := s.contacts.GetByID(ctx, contactID)
	if err != nil {
		return domain.Conversation{}, err
	}
	if contact.BusinessID != businessID {
		return domain.Conversation{}, relaydesk_errors.ErrForbidden
	}

	conversation, created, err := s.conversations.FindOpenOrCreate(ctx, businessID, contactID, channel)
	if err != nil {
		return domain.Conversation{}, err
	}
	if created {
		s.broadcaster.Publish(ctx, events.ConversationCreatedEvent{
			Conversation: conversation,
			Reopened:     true,
		})
	}

	if userID, ok := UserIDFromContext(ctx); ok {
		if _, err := s.participants.Touch(ctx, conversation.ID, userID); err != nil {
			s.log.WarnCtx(ctx, "failed to touch participant",
				zap.String("conversation_id", conversation.ID.String()),
				zap.Error(err))
		}
	}
	return conversation, nil
}

// List pages the tenant's conversations by recency with an optional search
// term over contact name, phone number and last message preview.
func (s *ConversationService) List(ctx context.Context, search string, page, limit int) ([]domain.Conversation, int64, error) {
	businessID, ok := BusinessIDFromContext(ctx)
	if !ok {
		return nil, 0, relaydesk_errors.ErrUnauthorized
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 25
	}
	return s.conversations.List(ctx, businessID, search, page, limit)
}

// Messages pages a conversation's history. The repository fetches newest
// first so the cursor moves backwards in time; the slice is reversed here
// so callers always render oldest to newest.
func (s *ConversationService) Messages(ctx context.Context, conversationID uuid.UUID, before *time.Time, limit int) ([]domain.Message, error) {
	conversation, err := s.authorize(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	messages, err := s.messages.ListByConversation(ctx, conversation.ID, before, limit)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// Assign sets or clears the conversation's assignee.
func (s *ConversationService) Assign(ctx context.Context, conversationID uuid.UUID, assigneeID *uuid.UUID) error {
	conversation, err := s.authorize(ctx, conversationID)
	if err != nil {
		return err
	}
	return s.conversations.Assign(ctx, conversation.ID, assigneeID)
}

// Archive closes the conversation. Archiving an already archived
// conversation is a no-op at the repository level.
func (s *ConversationService) Archive(ctx context.Context, conversationID uuid.UUID) error {
	conversation, err := s.authorize(ctx, conversationID)
	if err != nil {
		return err
	}
	return s.conversations.Archive(ctx, conversation.ID)
}

// MarkRead zeroes the agent's unread counter and stamps last_read_at.
func (s *ConversationService) MarkRead(ctx context.Context, conversationID uuid.UUID) error {
	conversation, err := s.authorize(ctx, conversationID)
	if err != nil {
		return err
	}
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		return relaydesk_errors.ErrUnauthorized
	}
	if _, err := s.participants.Touch(ctx, conversation.ID, userID); err != nil {
		return err
	}
	return s.participants.MarkRead(ctx, conversation.ID, userID)
}

// SetContactOptIn records the contact's messaging consent.
func (s *ConversationService) SetContactOptIn(ctx context.Context, contactID uuid.UUID, optedIn bool) error {
	businessID, ok := BusinessIDFromContext(ctx)
	if !ok {
		return relaydesk_errors.ErrUnauthorized
	}
	contact, err := s.contacts.GetByID(ctx, contactID)
	if err != nil {
		return err
	}
	if contact.BusinessID != businessID {
		return relaydesk_errors.ErrForbidden
	}
	return s.contacts.SetOptedIn(ctx, contact.ID, optedIn)
}

func (s *ConversationService) authorize(ctx context.Context, conversationID uuid.UUID) (domain.Conversation, error) {
	businessID, ok := BusinessIDFromContext(ctx)
	if !ok {
		return domain.Conversation{}, relaydesk_errors.ErrUnauthorized
	}
	conversation, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return domain.Conversation{}, err
	}
	if conversation.BusinessID != businessID {
		return domain.Conversation{}, relaydesk_errors.ErrForbidden
	}
	return conversation, nil
}
