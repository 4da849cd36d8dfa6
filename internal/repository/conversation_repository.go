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

type PostgresConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &PostgresConversationRepository{db: db}
}

func (r *PostgresConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Conversation, error) {
	var c domain.Conversation
	err := r.db.WithContext(ctx).
		Preload("Contact").
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Conversation{}, relaydesk_errors.ErrNotFound
		}
		return domain.Conversation{}, err
	}
	return c, nil
}

func (r *PostgresConversationRepository) FindOpenOrCreate(ctx context.Context, businessID, contactID uuid.UUID, channel domain.Channel) (domain.Conversation, bool, error) {
	c := domain.Conversation{
		ID:         uuid.New(),
		BusinessID: businessID,
		ContactID:  contactID,
		Channel:    channel,
		Status:     domain.ConversationStatusOpen,
		CreatedAt:  time.Now().UTC(),
	}
	// The insert races with concurrent webhooks for the same contact; the
	// partial unique index (business_id, contact_id) WHERE status = 'OPEN'
	// makes exactly one of them win.
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "business_id"}, {Name: "contact_id"}},
		// The predicate must be inlined, not bound: SQLite matches the
		// ON CONFLICT target against the partial index syntactically, and
		// a bind parameter never matches the index's literal 'OPEN'.
		TargetWhere: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "status = '" + string(domain.ConversationStatusOpen) + "'"},
		}},
		DoNothing: true,
	}).Create(&c)
	if res.Error != nil {
		return domain.Conversation{}, false, res.Error
	}
	if res.RowsAffected == 1 {
		return c, true, nil
	}

	var existing domain.Conversation
	err := r.db.WithContext(ctx).
		Where("business_id = ? AND contact_id = ? AND status = ?",
			businessID, contactID, domain.ConversationStatusOpen).
		First(&existing).Error
	if err != nil {
		return domain.Conversation{}, false, err
	}
	return existing, false, nil
}

func (r *PostgresConversationRepository) TouchLastMessage(ctx context.Context, id uuid.UUID, at time.Time, preview string) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_message_at":      at,
			"last_message_preview": domain.Preview(preview),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return relaydesk_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresConversationRepository) Assign(ctx context.Context, id uuid.UUID, assigneeID *uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", id).
		Update("assignee_id", assigneeID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return relaydesk_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresConversationRepository) Archive(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ? AND status = ?", id, domain.ConversationStatusOpen).
		Update("status", domain.ConversationStatusArchived)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return relaydesk_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresConversationRepository) List(ctx context.Context, businessID uuid.UUID, search string, page, limit int) ([]domain.Conversation, int64, error) {
	var conversations []domain.Conversation
	var total int64

	q := r.db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("conversations.business_id = ?", businessID)

	if search != "" {
		pattern := "%" + search + "%"
		q = q.Joins("JOIN contacts ON contacts.id = conversations.contact_id").
			Where("contacts.display_name LIKE ? OR contacts.phone_number LIKE ? OR conversations.last_message_preview LIKE ?",
				pattern, pattern, pattern)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	err := q.Preload("Contact").
		Order("last_message_at DESC NULLS LAST").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&conversations).Error
	if err != nil {
		return nil, 0, err
	}
	return conversations, total, nil
}
