package repository

import (
	"fmt"

	"gorm.io/gorm"

	"relaydesk/internal/domain"
)

// InitSchema creates tables and the constraint indexes the engine relies
// on. The two partial unique indexes are load-bearing: the first enforces
// the at-most-one-OPEN-conversation invariant and backs the
// find-open-or-create upsert, the second makes webhook replays and
// receipt correlation tenant-safe.
func InitSchema(db *gorm.DB) error {
	if db.Dialector.Name() == "postgres" {
		if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
			return fmt.Errorf("failed to create extension: %w", err)
		}
	}

	if err := db.AutoMigrate(
		&domain.Business{},
		&domain.Contact{},
		&domain.Conversation{},
		&domain.Participant{},
		&domain.Message{},
	); err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}

	partialIndexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_conversations_one_open
			ON conversations (business_id, contact_id)
			WHERE status = 'OPEN';`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_messages_business_external
			ON messages (business_id, external_message_id)
			WHERE external_message_id IS NOT NULL;`,
	}
	for _, idx := range partialIndexes {
		if err := db.Exec(idx).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
