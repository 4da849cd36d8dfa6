package domain

import (
	"time"

	"github.com/google/uuid"
)

// Contact is a tenant-scoped identity keyed by (business, phone number).
// Contacts are created lazily on first inbound message and never deleted
// by this subsystem.
type Contact struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BusinessID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_contacts_business_phone,priority:1" json:"business_id"`
	PhoneNumber string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_contacts_business_phone,priority:2" json:"phone_number"`
	DisplayName *string   `gorm:"type:text" json:"display_name,omitempty"`
	OptedIn     bool      `gorm:"default:false" json:"opted_in"`
	CreatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}
