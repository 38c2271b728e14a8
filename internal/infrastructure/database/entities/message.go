package entities

import (
	"time"

	"connecthub/support-api/internal/domain/support"
)

// Message stores one append-only entry of a conversation. Rows are never
// updated or deleted; the auto-incrementing ID is the insertion-order tiebreak
// for messages sharing a created_at.
type Message struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	PublicID       string             `gorm:"type:varchar(50);uniqueIndex;not null"`
	ConversationID uint               `gorm:"index:idx_support_message_conversation;not null"`
	SenderType     support.SenderType `gorm:"type:varchar(20);not null"`
	SenderID       *string            `gorm:"type:varchar(64)"`
	Text           string             `gorm:"type:text;not null"`
}

// TableName specifies the table name for Message.
func (Message) TableName() string {
	return "support_messages"
}

// EtoD converts the database entity to the domain model.
func (m *Message) EtoD() *support.Message {
	return &support.Message{
		ID:             m.ID,
		PublicID:       m.PublicID,
		ConversationID: m.ConversationID,
		Sender:         m.SenderType,
		SenderID:       m.SenderID,
		Text:           m.Text,
		CreatedAt:      m.CreatedAt,
	}
}

// NewSchemaMessage creates a database entity from the domain model.
func NewSchemaMessage(m *support.Message) *Message {
	return &Message{
		ID:             m.ID,
		PublicID:       m.PublicID,
		ConversationID: m.ConversationID,
		SenderType:     m.Sender,
		SenderID:       m.SenderID,
		Text:           m.Text,
		CreatedAt:      m.CreatedAt,
	}
}
