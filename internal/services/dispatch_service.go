package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"relaydesk/internal/domain"
	"relaydesk/internal/events"
	"relaydesk/internal/provider"
	"relaydesk/internal/repository"
	relaydesk_errors "relaydesk/pkg/errors"
	"relaydesk/pkg/logger"
)

// MessageSender is the outbound provider call, kept behind an interface so
// dispatch can be tested without a live provider.
type MessageSender interface {
	Send(ctx context.Context, req provider.SendRequest) (provider.SendResult, error)
}

type SendMessageInput struct {
	ConversationID uuid.UUID
	Type           domain.MessageType
	Content        *string
	MediaURL       *string
	MediaType      *string
	TemplateRef    string
}

// DispatchService persists agent-authored messages and forwards them to the
// provider. The persist happens first so the message exists in PENDING even
// if the process dies mid-send; the provider call runs outside any
// transaction. Dispatch failures are recorded on the row as FAILED, never
// returned to the agent: the send already succeeded from the dashboard's
// point of view.
type DispatchService struct {
	conversations repository.ConversationRepository
	contacts      repository.ContactRepository
	messages      repository.MessageRepository
	participants  repository.ParticipantRepository
	sender        MessageSender
	broadcaster   events.Broadcaster
	log           *logger.Logger
}

func NewDispatchService(
	conversations repository.ConversationRepository,
	contacts repository.ContactRepository,
	messages repository.MessageRepository,
	participants repository.ParticipantRepository,
	sender MessageSender,
	broadcaster events.Broadcaster,
	log *logger.Logger,
) *DispatchService {
	return &DispatchService{
		conversations: conversations,
		contacts:      contacts,
		messages:      messages,
		participants:  participants,
		sender:        sender,
		broadcaster:   broadcaster,
		log:           log,
	}
}

// SendMessage persists and dispatches one outbound message on behalf of the
// authenticated agent. The returned message reflects the post-dispatch
// state: SENT with an external id on success, FAILED on provider error,
// PENDING when the contact has not opted in or the channel has no external
// leg.
func (s *DispatchService) SendMessage(ctx context.Context, input SendMessageInput) (domain.Message, error) {
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		return domain.Message{}, relaydesk_errors.ErrUnauthorized
	}
	businessID, ok := BusinessIDFromContext(ctx)
	if !ok {
		return domain.Message{}, relaydesk_errors.ErrUnauthorized
	}
	if role, _ := RoleFromContext(ctx); role != RoleAgent {
		return domain.Message{}, relaydesk_errors.ErrForbidden
	}

	conversation, err := s.conversations.GetByID(ctx, input.ConversationID)
	if err != nil {
		return domain.Message{}, err
	}
	if conversation.BusinessID != businessID {
		return domain.Message{}, relaydesk_errors.ErrForbidden
	}

	contact, err := s.contacts.GetByID(ctx, conversation.ContactID)
	if err != nil {
		return domain.Message{}, err
	}

	if input.Content == nil && input.MediaURL == nil && input.TemplateRef == "" {
		return domain.Message{}, relaydesk_errors.ErrInvalidInput
	}

	message := domain.NewOutbound(businessID, conversation.ID, userID, input.Type, input.Content)
	message.MediaURL = input.MediaURL
	message.MediaType = input.MediaType

	if err := s.messages.Create(ctx, &message); err != nil {
		return domain.Message{}, err
	}

	if _, err := s.participants.Touch(ctx, conversation.ID, userID); err != nil {
		s.log.WarnCtx(ctx, "failed to touch participant",
			zap.String("conversation_id", conversation.ID.String()),
			zap.Error(err))
	}
	if err := s.conversations.TouchLastMessage(ctx, conversation.ID, message.CreatedAt, previewFor(message)); err != nil {
		s.log.ErrorCtx(ctx, "failed to update conversation preview",
			zap.String("conversation_id", conversation.ID.String()),
			zap.Error(err))
	}

	s.broadcaster.Publish(ctx, events.MessageCreatedEvent{
		ConversationID: conversation.ID,
		Message:        message,
	})

	if !s.eligibleForDispatch(conversation, contact) {
		s.log.InfoCtx(ctx, "message held back from dispatch",
			zap.String("message_id", message.ID.String()),
			zap.Bool("opted_in", contact.OptedIn),
			zap.String("channel", string(conversation.Channel)))
		return message, nil
	}

	s.dispatch(ctx, &message, contact.PhoneNumber, input.TemplateRef)
	return message, nil
}

// Redispatch re-attempts a PENDING message picked up by the sweeper. The
// opt-in and channel checks run again: both can have changed since the
// original send.
func (s *DispatchService) Redispatch(ctx context.Context, message domain.Message) {
	conversation, err := s.conversations.GetByID(ctx, message.ConversationID)
	if err != nil {
		s.log.ErrorCtx(ctx, "redispatch: conversation lookup failed",
			zap.String("message_id", message.ID.String()),
			zap.Error(err))
		return
	}
	contact, err := s.contacts.GetByID(ctx, conversation.ContactID)
	if err != nil {
		s.log.ErrorCtx(ctx, "redispatch: contact lookup failed",
			zap.String("message_id", message.ID.String()),
			zap.Error(err))
		return
	}
	if !s.eligibleForDispatch(conversation, contact) {
		return
	}
	s.dispatch(ctx, &message, contact.PhoneNumber, "")
}

func (s *DispatchService) eligibleForDispatch(conversation domain.Conversation, contact domain.Contact) bool {
	return contact.OptedIn && conversation.Channel.ExternallyDispatched()
}

// dispatch runs the provider call and records its terminal outcome. The
// SENT update writes external id, status and raw response in one statement
// so a crash cannot leave a sent message without its correlation id.
func (s *DispatchService) dispatch(ctx context.Context, message *domain.Message, to, templateRef string) {
	req := provider.SendRequest{To: to, TemplateRef: templateRef}
	if message.Content != nil {
		req.Body = *message.Content
	}
	if message.MediaURL != nil {
		req.MediaURL = *message.MediaURL
	}
	if message.MediaType != nil {
		req.MediaType = *message.MediaType
	}

	result, err := s.sender.Send(ctx, req)
	if err != nil {
		s.log.WarnCtx(ctx, "provider dispatch failed",
			zap.String("message_id", message.ID.String()),
			zap.Error(err))
		if markErr := s.messages.MarkFailed(ctx, message.ID, result.Raw); markErr != nil {
			s.log.ErrorCtx(ctx, "failed to record dispatch failure",
				zap.String("message_id", message.ID.String()),
				zap.Error(markErr))
			return
		}
		message.DeliveryStatus = domain.DeliveryStatusFailed
		message.RawPayload = result.Raw
		s.broadcastStatus(ctx, *message)
		return
	}

	if err := s.messages.MarkDispatched(ctx, message.ID, result.ExternalMessageID, result.Raw); err != nil {
		s.log.ErrorCtx(ctx, "failed to record dispatch result",
			zap.String("message_id", message.ID.String()),
			zap.String("external_message_id", result.ExternalMessageID),
			zap.Error(err))
		return
	}
	message.ExternalMessageID = &result.ExternalMessageID
	message.DeliveryStatus = domain.DeliveryStatusSent
	message.RawPayload = result.Raw
	s.broadcastStatus(ctx, *message)
}

func (s *DispatchService) broadcastStatus(ctx context.Context, message domain.Message) {
	event := events.MessageStatusUpdatedEvent{
		BusinessID: message.BusinessID,
		MessageID:  message.ID,
		Status:     message.DeliveryStatus,
	}
	if message.ExternalMessageID != nil {
		event.ExternalMessageID = *message.ExternalMessageID
	}
	s.broadcaster.Publish(ctx, event)
}

func previewFor(message domain.Message) string {
	if message.Content != nil && *message.Content != "" {
		return *message.Content
	}
	if message.MediaURL != nil {
		return "[" + string(message.Type) + "]"
	}
	return ""
}
