package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"relaydesk/internal/domain"
	relaydesk_errors "relaydesk/pkg/errors"
)

type PostgresMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &PostgresMessageRepository{db: db}
}

func (r *PostgresMessageRepository) Create(ctx context.Context, m *domain.Message) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	res := r.db.WithContext(ctx).Create(m)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return relaydesk_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Message, error) {
	var m domain.Message
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Message{}, relaydesk_errors.ErrNotFound
		}
		return domain.Message{}, err
	}
	return m, nil
}

func (r *PostgresMessageRepository) GetByExternalID(ctx context.Context, businessID uuid.UUID, externalID string) (domain.Message, error) {
	var m domain.Message
	err := r.db.WithContext(ctx).
		Where("business_id = ? AND external_message_id = ?", businessID, externalID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Message{}, relaydesk_errors.ErrNotFound
		}
		return domain.Message{}, err
	}
	return m, nil
}

func (r *PostgresMessageRepository) MarkDispatched(ctx context.Context, id uuid.UUID, externalID string, raw map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id = ?", id).
		Select("external_message_id", "delivery_status", "raw_payload").
		Updates(domain.Message{
			ExternalMessageID: &externalID,
			DeliveryStatus:    domain.DeliveryStatusSent,
			RawPayload:        raw,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return relaydesk_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresMessageRepository) MarkFailed(ctx context.Context, id uuid.UUID, raw map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id = ?", id).
		Select("delivery_status", "raw_payload").
		Updates(domain.Message{
			DeliveryStatus: domain.DeliveryStatusFailed,
			RawPayload:     raw,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return relaydesk_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresMessageRepository) UpdateDeliveryStatus(ctx context.Context, id uuid.UUID, status domain.DeliveryStatus) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id = ?", id).
		Update("delivery_status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return relaydesk_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresMessageRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID, before *time.Time, limit int) ([]domain.Message, error) {
	var messages []domain.Message
	q := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID)
	if before != nil {
		q = q.Where("created_at < ?", *before)
	}
	if limit <= 0 {
		limit = 50
	}
	err := q.Order("created_at DESC").Limit(limit).Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *PostgresMessageRepository) ListStuckPending(ctx context.Context, olderThan time.Time, limit int) ([]domain.Message, error) {
	var messages []domain.Message
	err := r.db.WithContext(ctx).
		Where("direction = ? AND delivery_status = ? AND created_at < ?",
			domain.DirectionOutbound, domain.DeliveryStatusPending, olderThan).
		Order("created_at ASC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}
