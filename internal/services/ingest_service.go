package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"relaydesk/internal/domain"
	"relaydesk/internal/events"
	"relaydesk/internal/provider"
	"relaydesk/internal/repository"
	relaydesk_errors "relaydesk/pkg/errors"
	"relaydesk/pkg/logger"
)

// MediaStore mirrors provider-hosted attachments into tenant storage.
type MediaStore interface {
	Mirror(ctx context.Context, businessID uuid.UUID, srcURL, contentType string) (string, error)
}

// IngestService persists inbound provider webhooks. Everything here runs
// after signature verification, inside the always-ack boundary: no method
// returns an error to the webhook handler, failures are logged and the
// provider still gets its 200. An unrecoverable payload would only be
// retried forever otherwise.
type IngestService struct {
	businesses    repository.BusinessRepository
	contacts      repository.ContactRepository
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	participants  repository.ParticipantRepository
	broadcaster   events.Broadcaster
	media         MediaStore
	log           *logger.Logger
}

func NewIngestService(
	businesses repository.BusinessRepository,
	contacts repository.ContactRepository,
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	participants repository.ParticipantRepository,
	broadcaster events.Broadcaster,
	media MediaStore,
	log *logger.Logger,
) *IngestService {
	return &IngestService{
		businesses:    businesses,
		contacts:      contacts,
		conversations: conversations,
		messages:      messages,
		participants:  participants,
		broadcaster:   broadcaster,
		media:         media,
		log:           log,
	}
}

// ProcessInbound handles one inbound message event.
func (s *IngestService) ProcessInbound(ctx context.Context, payload provider.InboundPayload) {
	business, err := s.businesses.GetByProviderNumber(ctx, payload.To)
	if err != nil {
		// Unknown recipient number is unrecoverable for the provider, so
		// it is absorbed here rather than bounced into a retry storm.
		s.log.WarnCtx(ctx, "inbound webhook for unknown recipient number",
			zap.String("to", payload.To))
		return
	}

	contact, err := s.contacts.FindOrCreate(ctx, business.ID, payload.From)
	if err != nil {
		s.log.ErrorCtx(ctx, "failed to resolve contact",
			zap.String("business_id", business.ID.String()),
			zap.String("from", payload.From),
			zap.Error(err))
		return
	}

	conversation, created, err := s.conversations.FindOpenOrCreate(ctx, business.ID, contact.ID, domain.ChannelWhatsApp)
	if err != nil {
		s.log.ErrorCtx(ctx, "failed to resolve conversation",
			zap.String("contact_id", contact.ID.String()),
			zap.Error(err))
		return
	}
	if created {
		s.broadcaster.Publish(ctx, events.ConversationCreatedEvent{Conversation: conversation})
	}

	message := s.buildMessage(ctx, business.ID, conversation.ID, contact.ID, payload)
	if err := s.messages.Create(ctx, &message); err != nil {
		if errors.Is(err, relaydesk_errors.ErrAlreadyExists) {
			// Webhook replay; the first delivery already persisted the row.
			s.log.InfoCtx(ctx, "dropped replayed inbound message",
				zap.String("external_message_id", payload.ExternalMessageID))
			return
		}
		s.log.ErrorCtx(ctx, "failed to persist inbound message",
			zap.String("external_message_id", payload.ExternalMessageID),
			zap.Error(err))
		return
	}

	if err := s.conversations.TouchLastMessage(ctx, conversation.ID, message.CreatedAt, previewFor(message)); err != nil {
		s.log.ErrorCtx(ctx, "failed to update conversation preview",
			zap.String("conversation_id", conversation.ID.String()),
			zap.Error(err))
	}

	if err := s.participants.IncrementUnread(ctx, conversation.ID, nil); err != nil {
		s.log.WarnCtx(ctx, "failed to bump unread counters",
			zap.String("conversation_id", conversation.ID.String()),
			zap.Error(err))
	}

	s.broadcaster.Publish(ctx, events.MessageCreatedEvent{
		ConversationID: conversation.ID,
		Message:        message,
	})
}

func (s *IngestService) buildMessage(ctx context.Context, businessID, conversationID, contactID uuid.UUID, payload provider.InboundPayload) domain.Message {
	var content *string
	if payload.Body != "" {
		body := payload.Body
		content = &body
	}
	message := domain.NewInbound(businessID, conversationID, contactID, payload.ExternalMessageID, content)

	// Only the first media item is retained; multi-media inbound messages
	// are not fully supported.
	if payload.MediaURL != "" {
		mediaURL := payload.MediaURL
		if s.media != nil {
			if mirrored, err := s.media.Mirror(ctx, businessID, payload.MediaURL, payload.MediaContentType); err == nil {
				mediaURL = mirrored
			} else {
				s.log.WarnCtx(ctx, "media mirror failed, keeping provider url", zap.Error(err))
			}
		}
		mediaType := payload.MediaContentType
		message.MediaURL = &mediaURL
		message.MediaType = &mediaType
		message.Type = messageTypeForMedia(payload.MediaContentType)
	}
	return message
}

func messageTypeForMedia(contentType string) domain.MessageType {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return domain.MessageTypeImage
	case strings.HasPrefix(contentType, "video/"):
		return domain.MessageTypeVideo
	default:
		return domain.MessageTypeDocument
	}
}
