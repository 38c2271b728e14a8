package database

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"connecthub/support-api/internal/infrastructure/database/entities"
)

// oneActiveConversationPerUser enforces the get-or-create contract at the
// storage layer: concurrent creates for the same user collapse into one row
// and the loser retries as a lookup.
const oneActiveConversationPerUser = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_one_active_conversation_per_user
ON support_conversations (user_id)
WHERE status = 'active'`

// AutoMigrate applies database schema changes for the support domain.
func AutoMigrate(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	if err := db.WithContext(ctx).AutoMigrate(
		&entities.Conversation{},
		&entities.Message{},
	); err != nil {
		return err
	}

	if err := db.WithContext(ctx).Exec(oneActiveConversationPerUser).Error; err != nil {
		return err
	}

	log.Info().Msg("database schema up to date")
	return nil
}
