package domain

import (
	"time"

	"github.com/google/uuid"
)

// Business is the tenant scope. The CRUD layer owns the full record; the
// sync engine only reads the columns needed to resolve inbound traffic.
type Business struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	// ProviderPhoneNumber is the number registered with the messaging
	// provider; inbound webhooks are matched to a tenant through it.
	ProviderPhoneNumber *string   `gorm:"type:varchar(32);uniqueIndex:idx_businesses_provider_number" json:"provider_phone_number,omitempty"`
	Name                string    `gorm:"type:varchar(160);not null" json:"name"`
	CreatedAt           time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}
