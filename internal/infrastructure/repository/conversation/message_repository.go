package conversation

import (
	"context"

	"gorm.io/gorm"

	domain "connecthub/support-api/internal/domain/support"
	"connecthub/support-api/internal/infrastructure/database/entities"
	"connecthub/support-api/internal/utils/platformerrors"
)

// MessageRepository persists the append-only message log.
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository builds a message repository.
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

var _ domain.MessageRepository = (*MessageRepository)(nil)

// Append inserts the message and fills in its generated fields.
func (r *MessageRepository) Append(ctx context.Context, msg *domain.Message) error {
	entity := entities.NewSchemaMessage(msg)
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to append message",
			err,
			"message-append-error",
		)
	}
	msg.ID = entity.ID
	msg.CreatedAt = entity.CreatedAt
	return nil
}

// ListByConversation returns every message in creation order, id as tiebreak.
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID uint) ([]domain.Message, error) {
	var rows []entities.Message
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list messages",
			err,
			"message-list-error",
		)
	}
	return toDomain(rows), nil
}

// ListRecent returns the newest limit messages, reordered chronologically.
func (r *MessageRepository) ListRecent(ctx context.Context, conversationID uint, limit int) ([]domain.Message, error) {
	var rows []entities.Message
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list recent messages",
			err,
			"message-list-recent-error",
		)
	}

	// Reverse into chronological order.
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return toDomain(rows), nil
}

func toDomain(rows []entities.Message) []domain.Message {
	result := make([]domain.Message, len(rows))
	for i := range rows {
		result[i] = *rows[i].EtoD()
	}
	return result
}
