package entities

import (
	"time"

	"connecthub/support-api/internal/domain/support"
)

// Conversation represents the database schema for support conversations.
type Conversation struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID      string                     `gorm:"type:varchar(50);uniqueIndex;not null"`
	UserID        string                     `gorm:"type:varchar(64);index:idx_support_conversation_user_status;not null"`
	Status        support.ConversationStatus `gorm:"type:varchar(20);index:idx_support_conversation_user_status;not null;default:'active'"`
	RequiresHuman bool                       `gorm:"not null;default:false"`

	Messages []Message `gorm:"foreignKey:ConversationID"`
}

// TableName specifies the table name for Conversation.
func (Conversation) TableName() string {
	return "support_conversations"
}

// EtoD converts the database entity to the domain model.
func (c *Conversation) EtoD() *support.Conversation {
	messages := make([]support.Message, len(c.Messages))
	for i := range c.Messages {
		messages[i] = *c.Messages[i].EtoD()
	}
	return &support.Conversation{
		ID:            c.ID,
		PublicID:      c.PublicID,
		UserID:        c.UserID,
		Status:        c.Status,
		RequiresHuman: c.RequiresHuman,
		Messages:      messages,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// NewSchemaConversation creates a database entity from the domain model.
func NewSchemaConversation(c *support.Conversation) *Conversation {
	return &Conversation{
		ID:            c.ID,
		PublicID:      c.PublicID,
		UserID:        c.UserID,
		Status:        c.Status,
		RequiresHuman: c.RequiresHuman,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}
