package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"relaydesk/internal/domain"
	relaydesk_errors "relaydesk/pkg/errors"
)

type PostgresContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) ContactRepository {
	return &PostgresContactRepository{db: db}
}

func (r *PostgresContactRepository) Create(ctx context.Context, c *domain.Contact) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	res := r.db.WithContext(ctx).Create(c)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return relaydesk_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresContactRepository) FindOrCreate(ctx context.Context, businessID uuid.UUID, phone string) (domain.Contact, error) {
	c := domain.Contact{
		ID:          uuid.New(),
		BusinessID:  businessID,
		PhoneNumber: phone,
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "business_id"}, {Name: "phone_number"}},
		DoNothing: true,
	}).Create(&c)
	if res.Error != nil {
		return domain.Contact{}, res.Error
	}
	if res.RowsAffected == 1 {
		return c, nil
	}

	// Lost the race or the contact already existed; read the winner.
	var existing domain.Contact
	err := r.db.WithContext(ctx).
		Where("business_id = ? AND phone_number = ?", businessID, phone).
		First(&existing).Error
	if err != nil {
		return domain.Contact{}, err
	}
	return existing, nil
}

func (r *PostgresContactRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Contact, error) {
	var c domain.Contact
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Contact{}, relaydesk_errors.ErrNotFound
		}
		return domain.Contact{}, err
	}
	return c, nil
}

func (r *PostgresContactRepository) SetOptedIn(ctx context.Context, id uuid.UUID, optedIn bool) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Contact{}).
		Where("id = ?", id).
		Update("opted_in", optedIn)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return relaydesk_errors.ErrNotFound
	}
	return nil
}
