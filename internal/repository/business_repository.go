package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"relaydesk/internal/domain"
	relaydesk_errors "relaydesk/pkg/errors"
)

type PostgresBusinessRepository struct {
	db *gorm.DB
}

func NewBusinessRepository(db *gorm.DB) BusinessRepository {
	return &PostgresBusinessRepository{db: db}
}

func (r *PostgresBusinessRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Business, error) {
	var b domain.Business
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Business{}, relaydesk_errors.ErrNotFound
		}
		return domain.Business{}, err
	}
	return b, nil
}

func (r *PostgresBusinessRepository) GetByProviderNumber(ctx context.Context, phone string) (domain.Business, error) {
	var b domain.Business
	err := r.db.WithContext(ctx).Where("provider_phone_number = ?", phone).First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Business{}, relaydesk_errors.ErrNotFound
		}
		return domain.Business{}, err
	}
	return b, nil
}
