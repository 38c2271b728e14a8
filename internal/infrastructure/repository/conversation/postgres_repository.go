package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	domain "connecthub/support-api/internal/domain/support"
	"connecthub/support-api/internal/infrastructure/database/entities"
	"connecthub/support-api/internal/utils/platformerrors"
)

const uniqueViolation = "23505"

// Repository persists conversation state in Postgres.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a conversation repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ domain.ConversationRepository = (*Repository)(nil)

// Create inserts the conversation and its welcome message in one transaction.
// A violation of the one-active-conversation-per-user index surfaces as a
// Conflict so the caller can degrade to a lookup.
func (r *Repository) Create(ctx context.Context, conv *domain.Conversation, welcome *domain.Message) error {
	entity := entities.NewSchemaConversation(conv)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entity).Error; err != nil {
			return err
		}
		welcome.ConversationID = entity.ID
		msgEntity := entities.NewSchemaMessage(welcome)
		if err := tx.Create(msgEntity).Error; err != nil {
			return err
		}
		welcome.ID = msgEntity.ID
		welcome.CreatedAt = msgEntity.CreatedAt
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeConflict,
				fmt.Sprintf("active conversation already exists for user %s", conv.UserID),
				err,
				"conversation-create-conflict",
			)
		}
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create conversation",
			err,
			"conversation-create-error",
		)
	}

	conv.ID = entity.ID
	conv.CreatedAt = entity.CreatedAt
	conv.UpdatedAt = entity.UpdatedAt
	return nil
}

// FindActiveByUser returns the most recently created active conversation for
// the user, or nil when none exists.
func (r *Repository) FindActiveByUser(ctx context.Context, userID string) (*domain.Conversation, error) {
	var entity entities.Conversation
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, domain.ConversationStatusActive).
		Order("created_at DESC").
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to fetch active conversation",
			err,
			"conversation-find-active-error",
		)
	}
	return entity.EtoD(), nil
}

// FindByPublicID fetches a conversation by its public ID.
func (r *Repository) FindByPublicID(ctx context.Context, publicID string) (*domain.Conversation, error) {
	var entity entities.Conversation
	if err := r.db.WithContext(ctx).
		Where("public_id = ?", publicID).
		First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				fmt.Sprintf("conversation not found: %s", publicID),
				nil,
				"conversation-not-found",
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to fetch conversation",
			err,
			"conversation-find-error",
		)
	}
	return entity.EtoD(), nil
}

// List returns the operator queue ordering: conversations that need a human
// first, then by most recent activity.
func (r *Repository) List(ctx context.Context) ([]*domain.Conversation, error) {
	var rows []entities.Conversation
	if err := r.db.WithContext(ctx).
		Order("requires_human DESC").
		Order("updated_at DESC").
		Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list conversations",
			err,
			"conversation-list-error",
		)
	}

	result := make([]*domain.Conversation, len(rows))
	for i := range rows {
		result[i] = rows[i].EtoD()
	}
	return result, nil
}

// SetRequiresHuman updates the escalation flag and bumps updated_at.
func (r *Repository) SetRequiresHuman(ctx context.Context, id uint, requiresHuman bool) error {
	return r.updateColumns(ctx, id, map[string]any{
		"requires_human": requiresHuman,
		"updated_at":     time.Now().UTC(),
	}, "conversation-set-requires-human-error")
}

// SetStatus updates the lifecycle status and bumps updated_at.
func (r *Repository) SetStatus(ctx context.Context, id uint, status domain.ConversationStatus) error {
	return r.updateColumns(ctx, id, map[string]any{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}, "conversation-set-status-error")
}

// Touch bumps updated_at.
func (r *Repository) Touch(ctx context.Context, id uint) error {
	return r.updateColumns(ctx, id, map[string]any{
		"updated_at": time.Now().UTC(),
	}, "conversation-touch-error")
}

func (r *Repository) updateColumns(ctx context.Context, id uint, columns map[string]any, errUUID string) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Conversation{}).
		Where("id = ?", id).
		Updates(columns)
	if result.Error != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to update conversation",
			result.Error,
			errUUID,
		)
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound,
			fmt.Sprintf("conversation not found: %d", id),
			nil,
			"conversation-update-not-found",
		)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
