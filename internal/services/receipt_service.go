package services

import (
	"context"

	"go.uber.org/zap"

	"relaydesk/internal/domain"
	"relaydesk/internal/events"
	"relaydesk/internal/provider"
	"relaydesk/internal/repository"
	"relaydesk/pkg/logger"
)

// ReceiptService applies delivery receipts to previously sent messages.
// Receipts are lower trust than inbound messages: signature failures are
// logged but still acknowledged upstream, and nothing in here returns an
// error to the webhook handler.
type ReceiptService struct {
	businesses  repository.BusinessRepository
	messages    repository.MessageRepository
	broadcaster events.Broadcaster
	log         *logger.Logger
}

func NewReceiptService(
	businesses repository.BusinessRepository,
	messages repository.MessageRepository,
	broadcaster events.Broadcaster,
	log *logger.Logger,
) *ReceiptService {
	return &ReceiptService{
		businesses:  businesses,
		messages:    messages,
		broadcaster: broadcaster,
		log:         log,
	}
}

// ProcessReceipt handles one status callback. Receipts for unknown messages
// and receipts ranked at or below the stored status are dropped silently;
// the provider retries neither case usefully.
func (s *ReceiptService) ProcessReceipt(ctx context.Context, payload provider.StatusPayload) {
	if payload.ExternalMessageID == "" {
		s.log.WarnCtx(ctx, "status receipt without message sid")
		return
	}

	// Receipts identify the tenant by the sending number, not the contact.
	business, err := s.businesses.GetByProviderNumber(ctx, payload.From)
	if err != nil {
		s.log.WarnCtx(ctx, "status receipt for unknown sender number",
			zap.String("from", payload.From),
			zap.String("external_message_id", payload.ExternalMessageID))
		return
	}

	status := provider.MapDeliveryStatus(payload.Status)
	if status == domain.DeliveryStatusUnknown {
		s.log.WarnCtx(ctx, "unrecognized provider status",
			zap.String("status", payload.Status),
			zap.String("external_message_id", payload.ExternalMessageID))
		return
	}

	message, err := s.messages.GetByExternalID(ctx, business.ID, payload.ExternalMessageID)
	if err != nil {
		// Receipt raced ahead of the dispatch update, or references a
		// message this deployment never sent.
		s.log.WarnCtx(ctx, "status receipt for unknown message",
			zap.String("external_message_id", payload.ExternalMessageID),
			zap.String("status", payload.Status))
		return
	}

	if !status.Supersedes(message.DeliveryStatus) {
		s.log.InfoCtx(ctx, "dropped stale status receipt",
			zap.String("message_id", message.ID.String()),
			zap.String("current", string(message.DeliveryStatus)),
			zap.String("received", string(status)))
		return
	}

	if status == domain.DeliveryStatusFailed && payload.ErrorCode != "" {
		s.log.WarnCtx(ctx, "provider reported delivery failure",
			zap.String("message_id", message.ID.String()),
			zap.String("error_code", payload.ErrorCode),
			zap.String("error_message", payload.ErrorMessage))
	}

	if err := s.messages.UpdateDeliveryStatus(ctx, message.ID, status); err != nil {
		s.log.ErrorCtx(ctx, "failed to persist delivery status",
			zap.String("message_id", message.ID.String()),
			zap.Error(err))
		return
	}

	s.broadcaster.Publish(ctx, events.MessageStatusUpdatedEvent{
		BusinessID:        business.ID,
		ExternalMessageID: payload.ExternalMessageID,
		MessageID:         message.ID,
		Status:            status,
	})
}
