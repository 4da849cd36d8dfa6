package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"relaydesk/internal/domain"
	relaydesk_errors "relaydesk/pkg/errors"
)

type PostgresParticipantRepository struct {
	db *gorm.DB
}

func NewParticipantRepository(db *gorm.DB) ParticipantRepository {
	return &PostgresParticipantRepository{db: db}
}

func (r *PostgresParticipantRepository) Touch(ctx context.Context, conversationID, userID uuid.UUID) (domain.Participant, error) {
	p := domain.Participant{
		ConversationID: conversationID,
		UserID:         userID,
		JoinedAt:       time.Now().UTC(),
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "conversation_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&p)
	if res.Error != nil {
		return domain.Participant{}, res.Error
	}
	if res.RowsAffected == 1 {
		return p, nil
	}
	return r.Get(ctx, conversationID, userID)
}

func (r *PostgresParticipantRepository) Get(ctx context.Context, conversationID, userID uuid.UUID) (domain.Participant, error) {
	var p domain.Participant
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Participant{}, relaydesk_errors.ErrNotFound
		}
		return domain.Participant{}, err
	}
	return p, nil
}

func (r *PostgresParticipantRepository) MarkRead(ctx context.Context, conversationID, userID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Participant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Updates(map[string]interface{}{
			"last_read_at": time.Now().UTC(),
			"unread_count": 0,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return relaydesk_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresParticipantRepository) IncrementUnread(ctx context.Context, conversationID uuid.UUID, except *uuid.UUID) error {
	q := r.db.WithContext(ctx).
		Model(&domain.Participant{}).
		Where("conversation_id = ?", conversationID)
	if except != nil {
		q = q.Where("user_id != ?", *except)
	}
	return q.Update("unread_count", gorm.Expr("unread_count + 1")).Error
}
